package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hrygo/appointment-assistant/server/service/calendar"
)

func TestFormatterReplies(t *testing.T) {
	f := NewFormatter(calendar.DefaultRules())
	day := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.Local)
	appt := &calendar.Appointment{
		ID:    "a1",
		Title: "dentist appointment",
		Start: at(day, 10, 0),
		End:   at(day, 10, 30),
	}
	moved := &calendar.Appointment{
		ID:    "a2",
		Title: "dentist appointment",
		Start: at(day, 14, 0),
		End:   at(day, 14, 30),
	}
	slot := calendar.Slot{Start: at(day, 11, 0), End: at(day, 11, 30)}

	tests := []struct {
		name    string
		turn    Turn
		outcome Outcome
		want    []string
	}{
		{"greeting", f.Greeting(), OutcomeGreeting, []string{"appointment assistant"}},
		{"smalltalk", f.Smalltalk(), OutcomeSmalltalk, []string{"How can I help"}},
		{"out of scope", f.OutOfScope(), OutcomeOutOfScope, []string{"only to help with appointments"}},
		{"clarify", f.Clarify(), OutcomeClarify, []string{"date, time"}},
		{"empty list", f.List(nil), OutcomeList, []string{"don't have any appointments"}},
		{"list", f.List([]*calendar.Appointment{appt}), OutcomeList,
			[]string{"1 appointment", "dentist appointment", "Thursday 5 March", "10:00"}},
		{"booked", f.Booked(appt), OutcomeBooked,
			[]string{"dentist appointment", "Thursday 5 March", "10:00", "10:30"}},
		{"conflict offer", f.ConflictOffer(slot), OutcomeConflictOffer,
			[]string{"conflicts", "2026-03-05 at 11:00", "yes"}},
		{"confirmed", f.Confirmed(appt), OutcomeConfirmed, []string{"booked the suggested time"}},
		{"declined", f.Declined(), OutcomeDeclined, []string{"haven't booked anything"}},
		{"slot list", f.SlotList("Thursday 5 March", []calendar.Slot{slot}), OutcomeSlotList,
			[]string{"Thursday 5 March", "11:00", "Which time"}},
		{"slot taken", f.SlotTaken(), OutcomeSlotTaken, []string{"no longer available"}},
		{"proposal gone", f.ProposalGone(), OutcomeSlotTaken, []string{"Nothing was booked"}},
		{"slot reprompt", f.SlotReprompt(), OutcomeSlotReprompt, []string{"pick one of the listed times"}},
		{"no slots", f.NoSlots("Saturday 7 March"), OutcomeNoSlots,
			[]string{"Saturday 7 March", "no available slots"}},
		{"no alternative", f.NoAlternative(), OutcomeNoAlternative, []string{"Nothing was booked"}},
		{"ambiguous", f.AmbiguousMatch("cancel", []*calendar.Appointment{appt, moved}), OutcomeAmbiguousMatch,
			[]string{"which appointment", "10:00", "14:00", "cancel"}},
		{"not found", f.NotFound("reschedule"), OutcomeNotFound, []string{"any appointments to reschedule"}},
		{"cancelled", f.Cancelled(appt), OutcomeCancelled,
			[]string{"cancelled", "dentist appointment", "10:00"}},
		{"rescheduled", f.Rescheduled(appt, moved), OutcomeRescheduled,
			[]string{"moved", "2026-03-05 at 10:00", "2026-03-05 at 14:00"}},
		{"bad time", f.BadTime(), OutcomeBadTime, []string{"new time"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.outcome, tt.turn.Outcome)
			for _, want := range tt.want {
				assert.Contains(t, tt.turn.Text, want)
			}
		})
	}
}

func TestInvalidHoursQuotesPolicy(t *testing.T) {
	rules := calendar.DefaultRules()
	f := NewFormatter(rules)

	saturday := time.Date(2026, time.March, 7, 10, 0, 0, 0, time.Local)
	v := rules.CheckBusinessHours(saturday, saturday.Add(30*time.Minute))
	if assert.NotNil(t, v) {
		turn := f.InvalidHours(v)
		assert.Equal(t, OutcomeInvalidHours, turn.Outcome)
		assert.Contains(t, turn.Text, v.Message)
		assert.Contains(t, turn.Text, rules.HoursSummary())
	}
}
