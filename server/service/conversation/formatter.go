package conversation

import (
	"fmt"
	"strings"

	"github.com/hrygo/appointment-assistant/server/service/calendar"
)

// Outcome tags what happened in a turn. The formatter maps each tag plus its
// payload to a reply string; presentation layers may also branch on it.
type Outcome string

const (
	OutcomeGreeting       Outcome = "greeting"
	OutcomeSmalltalk      Outcome = "smalltalk"
	OutcomeOutOfScope     Outcome = "out_of_scope"
	OutcomeClarify        Outcome = "clarify"
	OutcomeList           Outcome = "list"
	OutcomeBooked         Outcome = "booked"
	OutcomeConflictOffer  Outcome = "conflict_offer"
	OutcomeConfirmed      Outcome = "confirmed"
	OutcomeDeclined       Outcome = "declined"
	OutcomeSlotList       Outcome = "slot_list"
	OutcomeSlotTaken      Outcome = "slot_taken"
	OutcomeSlotReprompt   Outcome = "slot_reprompt"
	OutcomeNoSlots        Outcome = "no_slots"
	OutcomeNoAlternative  Outcome = "no_alternative"
	OutcomeInvalidHours   Outcome = "invalid_hours"
	OutcomeAmbiguousMatch Outcome = "ambiguous_match"
	OutcomeNotFound       Outcome = "not_found"
	OutcomeCancelled      Outcome = "cancelled"
	OutcomeRescheduled    Outcome = "rescheduled"
	OutcomeBadTime        Outcome = "bad_time"
)

// Turn is one agent entry in the conversation transcript.
type Turn struct {
	Outcome Outcome `json:"outcome"`
	Text    string  `json:"text"`
}

const (
	dayFormat      = "Monday 2 January"
	clockFormat    = "15:04"
	dateTimeFormat = "2006-01-02 at 15:04"
)

// Formatter renders turn outcomes as natural-language replies. It holds no
// state and performs no side effects; every method is a deterministic mapping
// from payload to string.
type Formatter struct {
	rules *calendar.BusinessRules
}

// NewFormatter creates a formatter that quotes the given policy in its
// rejection replies.
func NewFormatter(rules *calendar.BusinessRules) *Formatter {
	return &Formatter{rules: rules}
}

// Greeting is the plain hello reply.
func (f *Formatter) Greeting() Turn {
	return Turn{OutcomeGreeting,
		"Hello! I'm your appointment assistant. You can ask me to book, reschedule, or cancel appointments. How can I help?"}
}

// Smalltalk is the warmer "how are you" reply.
func (f *Formatter) Smalltalk() Turn {
	return Turn{OutcomeSmalltalk,
		"I'm doing well, thank you for asking! How can I help you today - would you like to book, reschedule, or cancel an appointment?"}
}

// OutOfScope explains the assistant's limits.
func (f *Formatter) OutOfScope() Turn {
	return Turn{OutcomeOutOfScope,
		`I'm here only to help with appointments - booking, rescheduling, or cancelling. Try something like: "Book a meeting tomorrow at 2pm" or "What do I have scheduled?"`}
}

// Clarify asks for a complete booking request.
func (f *Formatter) Clarify() Turn {
	return Turn{OutcomeClarify,
		"I couldn't confidently understand that. Please include a date, time, and short description, like \"Book a dentist appointment tomorrow at 3pm\"."}
}

// List renders the calendar snapshot.
func (f *Formatter) List(appointments []*calendar.Appointment) Turn {
	if len(appointments) == 0 {
		return Turn{OutcomeList,
			`You don't have any appointments yet. Say something like "Book a meeting tomorrow at 2pm" to add one.`}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You have %d appointment(s):", len(appointments))
	for _, a := range appointments {
		fmt.Fprintf(&b, "\n- %s - %s at %s to %s",
			a.Title, a.Start.Format(dayFormat), a.Start.Format(clockFormat), a.End.Format(clockFormat))
	}
	return Turn{OutcomeList, b.String()}
}

// Booked confirms a fresh booking.
func (f *Formatter) Booked(a *calendar.Appointment) Turn {
	return Turn{OutcomeBooked, fmt.Sprintf(
		"Your appointment %q is booked on %s from %s to %s.",
		a.Title, a.Start.Format(dayFormat), a.Start.Format(clockFormat), a.End.Format(clockFormat))}
}

// ConflictOffer proposes the alternative slot and asks for a yes/no.
func (f *Formatter) ConflictOffer(slot calendar.Slot) Turn {
	return Turn{OutcomeConflictOffer, fmt.Sprintf(
		"The requested time conflicts with an existing event. I suggest moving it to %s. Does that work for you? Reply yes to confirm or no to try another time.",
		slot.Start.Format(dateTimeFormat))}
}

// Confirmed reports the accepted alternative was booked.
func (f *Formatter) Confirmed(a *calendar.Appointment) Turn {
	return Turn{OutcomeConfirmed, fmt.Sprintf(
		"I've booked the suggested time. Your appointment %q is on %s from %s to %s.",
		a.Title, a.Start.Format(dayFormat), a.Start.Format(clockFormat), a.End.Format(clockFormat))}
}

// Declined acknowledges a rejected proposal; nothing was booked.
func (f *Formatter) Declined() Turn {
	return Turn{OutcomeDeclined,
		"No problem, I haven't booked anything. Suggest another date or time when you're ready."}
}

// SlotList offers the free times for a date-only request.
func (f *Formatter) SlotList(day string, slots []calendar.Slot) Turn {
	times := make([]string, 0, len(slots))
	for _, s := range slots {
		times = append(times, s.Start.Format(clockFormat))
	}
	return Turn{OutcomeSlotList, fmt.Sprintf(
		"On %s the available times are: %s. Which time would you like? (e.g. 2pm or 14:00)",
		day, strings.Join(times, ", "))}
}

// SlotTaken reports an offered slot was booked out in the meantime.
func (f *Formatter) SlotTaken() Turn {
	return Turn{OutcomeSlotTaken,
		"That time is no longer available. Please choose another from the list."}
}

// ProposalGone reports a held proposal that stopped being bookable before
// the user confirmed it.
func (f *Formatter) ProposalGone() Turn {
	return Turn{OutcomeSlotTaken,
		"Sorry, that time is no longer available. Nothing was booked."}
}

// SlotReprompt asks for a time from the offered list again.
func (f *Formatter) SlotReprompt() Turn {
	return Turn{OutcomeSlotReprompt,
		"That doesn't match one of the offered times. Please pick one of the listed times."}
}

// NoSlots reports a fully closed or fully booked day.
func (f *Formatter) NoSlots(day string) Turn {
	return Turn{OutcomeNoSlots, fmt.Sprintf(
		"Sorry, there are no available slots on %s (weekends and holidays are closed). Try another day.", day)}
}

// NoAlternative reports the resolver found nothing free on the requested day.
func (f *Formatter) NoAlternative() Turn {
	return Turn{OutcomeNoAlternative,
		"I couldn't find a free slot later that day. You may need to choose a different day. Nothing was booked."}
}

// InvalidHours names the violated business rule and quotes the policy.
func (f *Formatter) InvalidHours(v *calendar.Violation) Turn {
	return Turn{OutcomeInvalidHours, v.Message + " " + f.rules.HoursSummary()}
}

// AmbiguousMatch lists the current appointments instead of guessing.
func (f *Formatter) AmbiguousMatch(verb string, appointments []*calendar.Appointment) Turn {
	var b strings.Builder
	b.WriteString("I couldn't tell which appointment you mean. Your current appointments are:")
	for _, a := range appointments {
		fmt.Fprintf(&b, "\n- %s - %s at %s",
			a.Title, a.Start.Format(dayFormat), a.Start.Format(clockFormat))
	}
	fmt.Fprintf(&b, "\nPlease mention the exact title or date of the one you want to %s.", verb)
	return Turn{OutcomeAmbiguousMatch, b.String()}
}

// NotFound reports an empty calendar for reschedule/cancel.
func (f *Formatter) NotFound(verb string) Turn {
	return Turn{OutcomeNotFound, fmt.Sprintf(
		"You don't have any appointments to %s. Would you like to book one?", verb)}
}

// Cancelled confirms a removal.
func (f *Formatter) Cancelled(a *calendar.Appointment) Turn {
	return Turn{OutcomeCancelled, fmt.Sprintf(
		"I've cancelled %q that was on %s at %s.",
		a.Title, a.Start.Format(dayFormat), a.Start.Format(clockFormat))}
}

// Rescheduled confirms a move, naming both slots.
func (f *Formatter) Rescheduled(old *calendar.Appointment, moved *calendar.Appointment) Turn {
	return Turn{OutcomeRescheduled, fmt.Sprintf(
		"I've moved %q from %s to %s.",
		moved.Title, old.Start.Format(dateTimeFormat), moved.Start.Format(dateTimeFormat))}
}

// BadTime asks for an understandable new time on reschedule.
func (f *Formatter) BadTime() Turn {
	return Turn{OutcomeBadTime,
		"I couldn't understand the new time. Please say something like 'to 4pm' or 'at 2:30pm'."}
}
