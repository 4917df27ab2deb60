package parser

import (
	"time"

	"github.com/hrygo/appointment-assistant/server/service/calendar"
)

// Intent is the closed set of request types the assistant understands.
// The orchestrator matches it exhaustively; adding an intent is a deliberate,
// compile-checked extension rather than an implicit fallback.
type Intent string

const (
	// IntentCreate books an appointment at an explicit date and time.
	IntentCreate Intent = "create"
	// IntentDateOnlyCreate books on a date with no time given; the orchestrator
	// offers the free slots for that day.
	IntentDateOnlyCreate Intent = "date_only_create"
	// IntentReschedule moves an existing appointment to a new time.
	IntentReschedule Intent = "reschedule"
	// IntentCancel removes an existing appointment.
	IntentCancel Intent = "cancel"
	// IntentList shows the calendar snapshot.
	IntentList Intent = "list"
	// IntentSlotChoice is a bare time reply while slot offers are pending.
	IntentSlotChoice Intent = "slot_choice"
	// IntentConfirmYes accepts a proposed alternative slot.
	IntentConfirmYes Intent = "confirm_yes"
	// IntentConfirmNo declines a proposed alternative slot.
	IntentConfirmNo Intent = "confirm_no"
	// IntentGreeting is a plain hello.
	IntentGreeting Intent = "greeting"
	// IntentSmalltalk is a "how are you" style pleasantry.
	IntentSmalltalk Intent = "smalltalk"
	// IntentOutOfScope is a request unrelated to appointments.
	IntentOutOfScope Intent = "out_of_scope"
	// IntentUnknown is anything the parser could not resolve.
	IntentUnknown Intent = "unknown"
)

// Pending tells the parser which sub-dialog reply, if any, takes precedence
// over the generic intent triage.
type Pending int

const (
	// PendingNone means no sub-dialog is active.
	PendingNone Pending = iota
	// PendingConfirmation means a yes/no answer is expected.
	PendingConfirmation
	// PendingSlotChoice means a time choice from an offered list is expected.
	PendingSlotChoice
)

// TimeMatch is a clock reading parsed from a short reply like "2pm" or "14:00".
type TimeMatch struct {
	Clock calendar.ClockTime
	// Explicit is true when the reply carried an am/pm marker or minutes.
	// A bare hour like "2" is kept ambiguous so the caller can try both
	// morning and afternoon readings against the offered slots.
	Explicit bool
}

// ParsedRequest is the structured result of one utterance. It is produced and
// consumed within a single turn.
type ParsedRequest struct {
	Intent Intent

	// Date is midnight of the requested day, when one was found.
	Date *time.Time
	// TimeOfDay is the requested start time, when one was found.
	TimeOfDay *calendar.ClockTime
	// Duration of the requested appointment. Defaults to 30 minutes.
	Duration time.Duration
	// Title is the extracted description, "appointment" when none was found.
	Title string
	// Reference is the raw text, used to locate an existing appointment for
	// reschedule and cancel.
	Reference string
	// TimeChoice is set for IntentSlotChoice replies, keeping the bare-hour
	// ambiguity for the orchestrator to resolve against the offered slots.
	TimeChoice *TimeMatch
}

// Start combines Date and TimeOfDay into the requested start instant.
// It returns the zero time when either part is missing.
func (r *ParsedRequest) Start() time.Time {
	if r.Date == nil || r.TimeOfDay == nil {
		return time.Time{}
	}
	return r.TimeOfDay.On(*r.Date)
}

// End returns Start plus the duration, or the zero time.
func (r *ParsedRequest) End() time.Time {
	start := r.Start()
	if start.IsZero() {
		return start
	}
	return start.Add(r.Duration)
}

// DefaultDuration is assumed when the utterance does not state one.
const DefaultDuration = 30 * time.Minute
