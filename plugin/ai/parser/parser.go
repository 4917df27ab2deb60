package parser

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/hrygo/appointment-assistant/internal/errors"
	"github.com/hrygo/appointment-assistant/internal/observability"
	"github.com/hrygo/appointment-assistant/server/service/calendar"
)

// Pre-compiled extraction patterns. Precedence is fixed so patterns never
// cross-match: am/pm times before colon times before bare "at N" hours, and
// full M/D/Y dates before short M/D ones.
var (
	timeAmPmRe  = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	timeColonRe = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	timeAtRe    = regexp.MustCompile(`(?i)\bat\s+(\d{1,2})\b`)
	durationRe  = regexp.MustCompile(`(?i)\b(\d+)\s*(minutes?|mins?|hours?|hrs?)\b`)
	monthDayRe  = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
	slashFullRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	slashMDRe   = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})\b`)
	forTitleRe  = regexp.MustCompile(`(?i)\bfor ([a-zA-Z ]+)`)
	bareTimeRe  = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
)

// weekdayNames is ordered; detection scans it in full and keeps the mention
// appearing earliest in the text.
var weekdayNames = []struct {
	name string
	day  time.Weekday
}{
	{"sunday", time.Sunday},
	{"monday", time.Monday},
	{"tuesday", time.Tuesday},
	{"wednesday", time.Wednesday},
	{"thursday", time.Thursday},
	{"friday", time.Friday},
	{"saturday", time.Saturday},
}

var monthNames = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// Extractor is the optional structured-extraction collaborator consulted
// before the rule pipeline. Any error means "use the rules instead".
type Extractor interface {
	Extract(ctx context.Context, text string, now time.Time) (*Extraction, error)
}

// Parser converts raw utterances into ParsedRequests. It never fails: text it
// cannot resolve comes back with IntentUnknown and the orchestrator turns that
// into a clarification reply.
type Parser struct {
	llm Extractor
}

// New creates a rule-based parser. A nil extractor disables LLM delegation.
func New(llm Extractor) *Parser {
	return &Parser{llm: llm}
}

// Parse classifies and extracts one utterance. The pending kind tells the
// parser whether a confirmation or slot-choice reply takes precedence over
// the generic triage.
func (p *Parser) Parse(ctx context.Context, text string, now time.Time, pending Pending) *ParsedRequest {
	req := &ParsedRequest{
		Intent:    IntentUnknown,
		Duration:  DefaultDuration,
		Title:     "appointment",
		Reference: strings.TrimSpace(text),
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return req
	}
	lower := strings.ToLower(trimmed)

	// Sub-dialog replies win over the generic triage, but only when the text
	// is not a fresh booking-shaped request (which abandons the sub-dialog).
	if pending != PendingNone && !hasCommandKeyword(lower) {
		if isConfirmYes(lower) {
			req.Intent = IntentConfirmYes
			return req
		}
		if isConfirmNo(lower) {
			req.Intent = IntentConfirmNo
			return req
		}
		if pending == PendingSlotChoice {
			if tm := ParseTimeOnly(trimmed); tm != nil {
				req.Intent = IntentSlotChoice
				req.TimeChoice = tm
				return req
			}
		}
	}

	switch {
	case isSmalltalk(lower):
		req.Intent = IntentSmalltalk
		return req
	case isGreeting(lower):
		req.Intent = IntentGreeting
		return req
	case isOutOfScope(lower):
		req.Intent = IntentOutOfScope
		return req
	}

	if isCancelIntent(lower) {
		req.Intent = IntentCancel
		p.extractSchedule(req, lower, now)
		return req
	}
	if isRescheduleIntent(lower) {
		req.Intent = IntentReschedule
		p.extractSchedule(req, lower, now)
		return req
	}
	if isListIntent(lower) {
		req.Intent = IntentList
		return req
	}
	// A stray confirmation with nothing pending is ambiguity, not off-topic.
	if isConfirmYes(lower) || isConfirmNo(lower) {
		return req
	}
	if !looksLikeBooking(lower) {
		req.Intent = IntentOutOfScope
		return req
	}

	// Booking-shaped request. Ask the external extractor first; any failure
	// falls through to the rules with nothing surfaced to the user.
	if p.llm != nil {
		if ext, err := p.llm.Extract(ctx, trimmed, now); err == nil && ext != nil {
			p.fillFromExtraction(req, ext)
			return req
		} else if err != nil {
			logExtractionFailure(ctx, err)
		}
	}

	p.extractSchedule(req, lower, now)
	req.Title = extractTitle(lower)

	hasTime := req.TimeOfDay != nil
	hasDate := req.Date != nil
	switch {
	case hasDate && !hasTime:
		req.Intent = IntentDateOnlyCreate
	case hasTime:
		if !hasDate {
			// "Book at 3pm" means today.
			today := dateOf(now)
			req.Date = &today
		}
		req.Intent = IntentCreate
	default:
		// Booking vocabulary with neither date nor time stays unresolved.
		req.Intent = IntentUnknown
	}
	return req
}

// logExtractionFailure reports a failed LLM extraction through the request
// context when one is present. A canceled request is the client's doing and
// logs at debug; everything else is a real service failure.
func logExtractionFailure(ctx context.Context, err error) {
	code := apperrors.GetCodeFromError(err, apperrors.ErrCodeLLMUnavailable)
	reqCtx, ok := observability.FromContext(ctx)
	if !ok {
		slog.Debug("llm extraction failed, using rule parser",
			"error", err,
			"error_code", code)
		return
	}
	if apperrors.IsCode(err, apperrors.ErrCodeContextCanceled) {
		reqCtx.Debug("llm extraction canceled, using rule parser",
			slog.String(observability.LogFieldErrorCode, string(code)))
		return
	}
	reqCtx.Error("llm extraction failed, using rule parser", err,
		slog.String(observability.LogFieldErrorCode, string(code)))
}

// extractSchedule pulls date, time and duration from the text into req.
func (p *Parser) extractSchedule(req *ParsedRequest, lower string, now time.Time) {
	if d, ok := extractDate(lower, now); ok {
		req.Date = &d
	}
	if c, ok := extractTime(lower); ok {
		req.TimeOfDay = &c
	}
	if dur, ok := extractDuration(lower); ok {
		req.Duration = dur
	}
}

// fillFromExtraction maps a structured LLM result onto the request.
func (p *Parser) fillFromExtraction(req *ParsedRequest, ext *Extraction) {
	date := dateOf(ext.Start)
	req.Date = &date
	req.Title = ext.Title
	if ext.DurationMinutes > 0 {
		req.Duration = time.Duration(ext.DurationMinutes) * time.Minute
	} else if d := ext.End.Sub(ext.Start); d > 0 {
		req.Duration = d
	}
	if ext.DateOnly {
		req.Intent = IntentDateOnlyCreate
		return
	}
	clock := calendar.Of(ext.Start)
	req.TimeOfDay = &clock
	req.Intent = IntentCreate
}

// ParseTimeOnly reads a clock time from a short reply like "2pm", "10:30 am"
// or "14:00". A bare hour such as "2" is returned with Explicit unset so the
// caller can try both the morning and afternoon readings.
func ParseTimeOnly(text string) *TimeMatch {
	m := bareTimeRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	hour, _ := strconv.Atoi(m[1])
	minute := 0
	explicit := false
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
		explicit = true
	}
	switch strings.ToLower(m[3]) {
	case "pm":
		if hour < 12 {
			hour += 12
		}
		explicit = true
	case "am":
		if hour == 12 {
			hour = 0
		}
		explicit = true
	}
	if hour > 23 || minute > 59 {
		return nil
	}
	return &TimeMatch{Clock: calendar.Clock(hour, minute), Explicit: explicit}
}

// extractTime accepts a token as a time only when it carries an am/pm marker,
// a colon, or follows "at". This guards against a day-of-month numeral (the
// "4" in "July 4th") being misread as an hour.
func extractTime(lower string) (calendar.ClockTime, bool) {
	if m := timeAmPmRe.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if m[3] == "pm" && hour < 12 {
			hour += 12
		}
		if m[3] == "am" && hour == 12 {
			hour = 0
		}
		if hour > 23 || minute > 59 {
			return 0, false
		}
		return calendar.Clock(hour, minute), true
	}
	if m := timeColonRe.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 23 || minute > 59 {
			return 0, false
		}
		return calendar.Clock(hour, minute), true
	}
	if m := timeAtRe.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if hour > 23 {
			return 0, false
		}
		// "at 3" means 3pm, "at 9" means 9am.
		if hour < 8 {
			hour += 12
		}
		return calendar.Clock(hour, 0), true
	}
	return 0, false
}

// extractDate resolves a date mention against the reference instant, trying
// relative keywords, then month-name forms, then numeric forms.
func extractDate(lower string, now time.Time) (time.Time, bool) {
	today := dateOf(now)

	if strings.Contains(lower, "tomorrow") {
		return today.AddDate(0, 0, 1), true
	}
	if strings.Contains(lower, "today") {
		return today, true
	}

	// Bare weekday names mean the next occurrence; today never counts. When
	// the text names several weekdays the first mention wins.
	firstIdx := -1
	var firstDay time.Weekday
	for _, w := range weekdayNames {
		idx := strings.Index(lower, w.name)
		if idx >= 0 && (firstIdx < 0 || idx < firstIdx) {
			firstIdx = idx
			firstDay = w.day
		}
	}
	if firstIdx >= 0 {
		ahead := (int(firstDay) - int(now.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		return today.AddDate(0, 0, ahead), true
	}

	// "July 4th", "march 3". Year defaults to the current one, rolled to next
	// year when the date is already past.
	if m := monthDayRe.FindStringSubmatch(lower); m != nil {
		month := monthNames[strings.ToLower(m[1])]
		day, _ := strconv.Atoi(m[2])
		if d, ok := buildDate(now.Year(), month, day, now.Location()); ok {
			if d.Before(today) {
				d, ok = buildDate(now.Year()+1, month, day, now.Location())
				if !ok {
					return time.Time{}, false
				}
			}
			return d, true
		}
		return time.Time{}, false
	}

	// Full M/D/Y before short M/D so a four-component match is never truncated.
	if m := slashFullRe.FindStringSubmatch(lower); m != nil {
		first, _ := strconv.Atoi(m[1])
		second, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		month, day := normalizeMonthDay(first, second)
		if d, ok := buildDate(year, time.Month(month), day, now.Location()); ok {
			return d, true
		}
		return time.Time{}, false
	}
	if m := slashMDRe.FindStringSubmatch(lower); m != nil {
		first, _ := strconv.Atoi(m[1])
		second, _ := strconv.Atoi(m[2])
		month, day := normalizeMonthDay(first, second)
		if d, ok := buildDate(now.Year(), time.Month(month), day, now.Location()); ok {
			if d.Before(today) {
				d, ok = buildDate(now.Year()+1, time.Month(month), day, now.Location())
				if !ok {
					return time.Time{}, false
				}
			}
			return d, true
		}
	}
	return time.Time{}, false
}

// normalizeMonthDay swaps the components when the first cannot be a month.
func normalizeMonthDay(first, second int) (int, int) {
	if first <= 12 && second <= 31 {
		return first, second
	}
	if second <= 12 && first <= 31 {
		return second, first
	}
	return first, second
}

// buildDate validates the calendar date (rejects things like February 30).
func buildDate(year int, month time.Month, day int, loc *time.Location) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if d.Month() != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

// extractDuration reads "<N> hours" / "<N> minutes" phrases.
func extractDuration(lower string) (time.Duration, bool) {
	m := durationRe.FindStringSubmatch(lower)
	if m == nil {
		return 0, false
	}
	value, _ := strconv.Atoi(m[1])
	if value <= 0 {
		return 0, false
	}
	if strings.HasPrefix(strings.ToLower(m[2]), "h") {
		return time.Duration(value) * time.Hour, true
	}
	return time.Duration(value) * time.Minute, true
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
