package parser

import (
	"strings"
)

// Keyword families for the intent triage. Kept as package data so the triage
// functions stay cheap and allocation-free per call.
var (
	greetingExact = map[string]bool{
		"hi": true, "hello": true, "hey": true, "howdy": true, "yo": true,
		"sup": true, "greetings": true, "morning": true, "afternoon": true,
		"good day": true, "good morning": true, "good afternoon": true,
		"good evening": true, "hi there": true, "hello there": true,
		"hey there": true, "what's up": true,
	}

	smalltalkPhrases = []string{
		"how are you", "how're you", "how r u", "how are u", "how do you do",
	}

	bookingKeywords = []string{
		"book", "schedule", "appointment", "meeting", "slot", "add", "set up",
		"reserve", "plan", "organize", "calendar", "cancel", "reschedule", "move",
	}

	dateWords = []string{
		"today", "tomorrow", "monday", "tuesday", "wednesday", "thursday",
		"friday", "saturday", "sunday", "next week",
	}

	outOfScopePhrases = []string{
		"weather", "tell me a joke", "joke", "what time is it", "what's the time",
		"who are you", "what can you do", "help me with", "random",
		"news", "sports", "recipe", "movie", "music", "game",
	}

	cancelVerbs     = []string{"cancel", "remove", "delete"}
	rescheduleVerbs = []string{"reschedule", "rebook", "move", "change"}
	listVerbs       = []string{"list", "show", "what", "view", "see"}
	listObjects     = []string{"appointment", "schedule", "calendar", "have", "booked"}
	targetNouns     = []string{"appointment", "meeting", "event"}

	confirmYesExact = map[string]bool{
		"yes": true, "yep": true, "yeah": true, "sure": true, "ok": true,
		"okay": true, "confirm": true, "yes please": true, "sounds good": true,
	}
	confirmNoExact = map[string]bool{
		"no": true, "nope": true, "nah": true, "no thanks": true,
		"no thank you": true, "cancel it": true,
	}

	// commandKeywords mark a fresh booking-shaped request that abandons any
	// pending sub-dialog instead of being read as a confirmation reply.
	commandKeywords = []string{
		"book", "schedule", "reschedule", "cancel my", "cancel the",
		"list", "show", "set up", "reserve",
	}
)

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// isGreeting reports a pure greeting with no booking intent behind it.
func isGreeting(lower string) bool {
	if greetingExact[strings.Trim(lower, "!?. ")] {
		return true
	}
	// Short exclamations like "hey!!" or "hi, assistant?".
	if len(lower) <= 25 && (strings.HasSuffix(lower, "!") || strings.HasSuffix(lower, "?")) {
		if containsAny(lower, []string{"hi", "hello", "hey"}) && !looksLikeBooking(lower) {
			return true
		}
	}
	return false
}

// isSmalltalk reports "how are you" style pleasantries, which get a warmer
// reply than a plain greeting.
func isSmalltalk(lower string) bool {
	return containsAny(lower, smalltalkPhrases)
}

// looksLikeBooking reports whether the message carries booking vocabulary,
// a time pattern, or a date word.
func looksLikeBooking(lower string) bool {
	if containsAny(lower, bookingKeywords) {
		return true
	}
	if timeAmPmRe.MatchString(lower) || timeColonRe.MatchString(lower) {
		return true
	}
	return containsAny(lower, dateWords)
}

// isOutOfScope reports questions that are clearly not about appointments.
func isOutOfScope(lower string) bool {
	if containsAny(lower, outOfScopePhrases) {
		return true
	}
	// Longer general questions with no booking shape.
	if len(lower) > 10 && strings.Contains(lower, "?") && !looksLikeBooking(lower) {
		return true
	}
	return false
}

func isCancelIntent(lower string) bool {
	return containsAny(lower, cancelVerbs) && containsAny(lower, targetNouns)
}

func isRescheduleIntent(lower string) bool {
	if !containsAny(lower, rescheduleVerbs) {
		return false
	}
	return containsAny(lower, targetNouns) ||
		strings.Contains(lower, " to ") || strings.Contains(lower, " at ")
}

func isListIntent(lower string) bool {
	return containsAny(lower, listVerbs) && containsAny(lower, listObjects)
}

func isConfirmYes(lower string) bool {
	return confirmYesExact[strings.Trim(lower, "!?. ")]
}

func isConfirmNo(lower string) bool {
	return confirmNoExact[strings.Trim(lower, "!?. ")]
}

// hasCommandKeyword reports text that starts a new request and therefore
// overrides any pending confirmation or slot choice.
func hasCommandKeyword(lower string) bool {
	return containsAny(lower, commandKeywords)
}

// Title extraction below: the noun phrase adjacent to a booking verb wins,
// then a cleaned "for X" phrase, then the generic label.

var titleNouns = []string{
	"appointment", "meeting", "call", "checkup", "check-up", "consultation",
	"interview", "session", "visit", "haircut", "cleaning",
}

var titleStopWords = map[string]bool{
	"a": true, "an": true, "the": true, "my": true, "our": true, "new": true,
	"book": true, "schedule": true, "plan": true, "reserve": true, "add": true,
	"up": true, "set": true, "quick": true, "another": true,
}

var dateTimeNoise = map[string]bool{
	"today": true, "tomorrow": true, "monday": true, "tuesday": true,
	"wednesday": true, "thursday": true, "friday": true, "saturday": true,
	"sunday": true, "at": true, "on": true, "am": true, "pm": true,
	"next": true, "week": true, "january": true, "february": true,
	"march": true, "april": true, "may": true, "june": true, "july": true,
	"august": true, "september": true, "october": true, "november": true,
	"december": true, "hour": true, "hours": true, "minute": true,
	"minutes": true,
}

func extractTitle(lower string) string {
	if strings.Contains(lower, "dentist") {
		return "dentist appointment"
	}
	if strings.Contains(lower, "doctor") {
		return "doctor visit"
	}

	words := strings.Fields(lower)
	for i, w := range words {
		w = strings.Trim(w, ",.!?")
		for _, noun := range titleNouns {
			if w != noun {
				continue
			}
			if i > 0 {
				prev := strings.Trim(words[i-1], ",.!?")
				if !titleStopWords[prev] && !dateTimeNoise[prev] && isAlphabetic(prev) {
					return prev + " " + noun
				}
			}
			return noun
		}
	}

	if m := forTitleRe.FindStringSubmatch(lower); m != nil {
		if cleaned := stripDateTimeNoise(m[1]); cleaned != "" {
			return cleaned
		}
	}
	return "appointment"
}

// stripDateTimeNoise drops date and time words from a "for X" phrase so
// "for tomorrow at" does not become a title.
func stripDateTimeNoise(phrase string) string {
	var kept []string
	for _, w := range strings.Fields(phrase) {
		if dateTimeNoise[w] {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

func isAlphabetic(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
