package parser

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/appointment-assistant/server/service/calendar"
)

// refNow is Wednesday 2026-03-04 10:00 local, the reference instant for all
// relative date expressions in these tests.
var refNow = time.Date(2026, time.March, 4, 10, 0, 0, 0, time.Local)

func parseRule(t *testing.T, text string, pending Pending) *ParsedRequest {
	t.Helper()
	return New(nil).Parse(context.Background(), text, refNow, pending)
}

func TestIntentTriage(t *testing.T) {
	tests := []struct {
		text   string
		intent Intent
	}{
		{"hello", IntentGreeting},
		{"Hey there!", IntentGreeting},
		{"good morning", IntentGreeting},
		{"how are you?", IntentSmalltalk},
		{"how do you do", IntentSmalltalk},
		{"what's the weather like?", IntentOutOfScope},
		{"tell me a joke", IntentOutOfScope},
		{"can you recommend a recipe for dinner?", IntentOutOfScope},
		{"cancel my dentist appointment", IntentCancel},
		{"please remove the team meeting", IntentCancel},
		{"reschedule my dentist appointment to 4pm", IntentReschedule},
		{"move my meeting to friday", IntentReschedule},
		{"what do I have scheduled", IntentList},
		{"show my appointments", IntentList},
		{"list my calendar", IntentList},
		{"book a meeting tomorrow at 2pm", IntentCreate},
		{"book a meeting", IntentUnknown},
		{"", IntentUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			req := parseRule(t, tt.text, PendingNone)
			assert.Equal(t, tt.intent, req.Intent)
		})
	}
}

func TestDateExtraction(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
	}

	tests := []struct {
		text string
		want time.Time
	}{
		{"book a meeting tomorrow at 2pm", day(2026, time.March, 5)},
		{"book a meeting today at 2pm", day(2026, time.March, 4)},
		// Bare weekday names mean the next occurrence; today never counts.
		{"book a meeting monday at 2pm", day(2026, time.March, 9)},
		{"book a meeting wednesday at 2pm", day(2026, time.March, 11)},
		{"book a meeting on July 4th at 2pm", day(2026, time.July, 4)},
		{"book a meeting on march 3 at 2pm", day(2027, time.March, 3)}, // already past, rolled
		{"book a meeting on 12/31/2026 at 2pm", day(2026, time.December, 31)},
		{"book a meeting on 3/3 at 2pm", day(2027, time.March, 3)}, // already past, rolled
		{"book a meeting on 3/15 at 2pm", day(2026, time.March, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			req := parseRule(t, tt.text, PendingNone)
			require.NotNil(t, req.Date, "no date extracted")
			assert.True(t, tt.want.Equal(*req.Date), "got %v want %v", *req.Date, tt.want)
		})
	}
}

func TestDateOnlyCreate(t *testing.T) {
	req := parseRule(t, "book an appointment on July 4th", PendingNone)
	assert.Equal(t, IntentDateOnlyCreate, req.Intent)
	require.NotNil(t, req.Date)
	assert.Equal(t, time.July, req.Date.Month())
	assert.Equal(t, 4, req.Date.Day())
	assert.Equal(t, 2026, req.Date.Year())
	// The "4" in "July 4th" must never be read as 04:00.
	assert.Nil(t, req.TimeOfDay)
}

func TestTimeExtraction(t *testing.T) {
	tests := []struct {
		text string
		want calendar.ClockTime
	}{
		{"book a meeting tomorrow at 2pm", calendar.Clock(14, 0)},
		{"book a meeting tomorrow at 2:30pm", calendar.Clock(14, 30)},
		{"book a meeting tomorrow at 15:30", calendar.Clock(15, 30)},
		{"book a meeting tomorrow at 12pm", calendar.Clock(12, 0)},
		{"book a meeting tomorrow at 12am", calendar.Clock(0, 0)},
		// Bare "at N": before 8 reads as afternoon, 8 and later as morning.
		{"book a meeting tomorrow at 3", calendar.Clock(15, 0)},
		{"book a meeting tomorrow at 9", calendar.Clock(9, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			req := parseRule(t, tt.text, PendingNone)
			require.Equal(t, IntentCreate, req.Intent)
			require.NotNil(t, req.TimeOfDay)
			assert.Equal(t, tt.want, *req.TimeOfDay)
		})
	}
}

func TestFullDateWithTime(t *testing.T) {
	req := parseRule(t, "book a checkup on 12/31/2026 at 2pm", PendingNone)
	require.Equal(t, IntentCreate, req.Intent)
	assert.Equal(t, time.Date(2026, time.December, 31, 14, 0, 0, 0, time.Local), req.Start())
}

func TestTimeWithoutDateDefaultsToToday(t *testing.T) {
	req := parseRule(t, "book a meeting at 3pm", PendingNone)
	require.Equal(t, IntentCreate, req.Intent)
	assert.Equal(t, time.Date(2026, time.March, 4, 15, 0, 0, 0, time.Local), req.Start())
}

func TestDurationExtraction(t *testing.T) {
	tests := []struct {
		text string
		want time.Duration
	}{
		{"book a meeting tomorrow at 2pm", DefaultDuration},
		{"book a meeting tomorrow at 2pm for 1 hour", time.Hour},
		{"book a meeting tomorrow at 2pm for 2 hours", 2 * time.Hour},
		{"book a meeting tomorrow at 2pm for 45 minutes", 45 * time.Minute},
		{"book a meeting tomorrow at 2pm for 45 min", 45 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			req := parseRule(t, tt.text, PendingNone)
			assert.Equal(t, tt.want, req.Duration)
		})
	}
}

func TestTitleExtraction(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"book a dentist appointment for tomorrow at 3pm", "dentist appointment"},
		{"schedule a doctor visit tomorrow at 10am", "doctor visit"},
		{"book a team meeting tomorrow at 2pm", "team meeting"},
		{"book a meeting tomorrow at 2pm", "meeting"},
		{"book a slot for project review tomorrow at 2pm", "project review"},
		{"book tomorrow at 2pm", "appointment"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			req := parseRule(t, tt.text, PendingNone)
			assert.Equal(t, tt.want, req.Title)
		})
	}
}

func TestPendingConfirmRecognition(t *testing.T) {
	tests := []struct {
		text   string
		intent Intent
	}{
		{"yes", IntentConfirmYes},
		{"Yes!", IntentConfirmYes},
		{"sure", IntentConfirmYes},
		{"ok", IntentConfirmYes},
		{"no", IntentConfirmNo},
		{"no thanks", IntentConfirmNo},
		{"nope", IntentConfirmNo},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			req := parseRule(t, tt.text, PendingConfirmation)
			assert.Equal(t, tt.intent, req.Intent)
		})
	}
}

func TestConfirmWordsWithoutPendingStayUnknown(t *testing.T) {
	req := parseRule(t, "yes", PendingNone)
	assert.Equal(t, IntentUnknown, req.Intent)
}

func TestPendingSlotChoiceRecognition(t *testing.T) {
	req := parseRule(t, "2pm", PendingSlotChoice)
	require.Equal(t, IntentSlotChoice, req.Intent)
	require.NotNil(t, req.TimeChoice)
	assert.Equal(t, calendar.Clock(14, 0), req.TimeChoice.Clock)
	assert.True(t, req.TimeChoice.Explicit)

	req = parseRule(t, "14:00", PendingSlotChoice)
	require.Equal(t, IntentSlotChoice, req.Intent)
	assert.Equal(t, calendar.Clock(14, 0), req.TimeChoice.Clock)

	// Bare hour stays ambiguous between morning and afternoon.
	req = parseRule(t, "2", PendingSlotChoice)
	require.Equal(t, IntentSlotChoice, req.Intent)
	assert.Equal(t, calendar.Clock(2, 0), req.TimeChoice.Clock)
	assert.False(t, req.TimeChoice.Explicit)
}

func TestPendingAbandonedByNewRequest(t *testing.T) {
	// A fresh booking request while a sub-dialog is pending must not be read
	// as a confirmation or slot choice.
	req := parseRule(t, "book a haircut tomorrow at 2pm", PendingSlotChoice)
	assert.Equal(t, IntentCreate, req.Intent)

	req = parseRule(t, "cancel my meeting tomorrow", PendingConfirmation)
	assert.Equal(t, IntentCancel, req.Intent)
}

func TestRescheduleCarriesNewTime(t *testing.T) {
	req := parseRule(t, "reschedule my dentist appointment to 4pm", PendingNone)
	require.Equal(t, IntentReschedule, req.Intent)
	require.NotNil(t, req.TimeOfDay)
	assert.Equal(t, calendar.Clock(16, 0), *req.TimeOfDay)
	assert.Nil(t, req.Date)
	assert.Contains(t, req.Reference, "dentist")
}

func TestCancelCarriesNarrowingDate(t *testing.T) {
	req := parseRule(t, "cancel my meeting tomorrow", PendingNone)
	require.Equal(t, IntentCancel, req.Intent)
	require.NotNil(t, req.Date)
	assert.Equal(t, 5, req.Date.Day())
}

func TestParseNeverPanicsOnGarbage(t *testing.T) {
	inputs := []string{
		"!!!", "9999999999999/99/99", "at at at", "13:99", "32/45",
		"book on february 30 at 2pm", "july", "am pm",
	}
	for _, text := range inputs {
		req := parseRule(t, text, PendingNone)
		require.NotNil(t, req)
	}
}

// stubExtractor returns a fixed extraction or error.
type stubExtractor struct {
	ext *Extraction
	err error
}

func (s *stubExtractor) Extract(_ context.Context, _ string, _ time.Time) (*Extraction, error) {
	return s.ext, s.err
}

func TestLLMExtractionPreferred(t *testing.T) {
	start := time.Date(2026, time.March, 5, 15, 0, 0, 0, time.Local)
	p := New(&stubExtractor{ext: &Extraction{
		Title:           "dentist appointment",
		Start:           start,
		End:             start.Add(time.Hour),
		DurationMinutes: 60,
	}})

	req := p.Parse(context.Background(), "book the dentist thing tomorrow afternoon", refNow, PendingNone)
	require.Equal(t, IntentCreate, req.Intent)
	assert.Equal(t, "dentist appointment", req.Title)
	assert.Equal(t, start, req.Start())
	assert.Equal(t, time.Hour, req.Duration)
}

func TestLLMFailureFallsBackToRules(t *testing.T) {
	p := New(&stubExtractor{err: fmt.Errorf("model unavailable")})

	req := p.Parse(context.Background(), "book a meeting tomorrow at 2pm", refNow, PendingNone)
	require.Equal(t, IntentCreate, req.Intent, "fallback must fully resolve the request")
	assert.Equal(t, time.Date(2026, time.March, 5, 14, 0, 0, 0, time.Local), req.Start())
}

func TestLLMNotConsultedForNonBookingIntents(t *testing.T) {
	// The extractor would blow up the test if called.
	p := New(&stubExtractor{err: fmt.Errorf("should not be called")})

	req := p.Parse(context.Background(), "cancel my meeting tomorrow", refNow, PendingNone)
	assert.Equal(t, IntentCancel, req.Intent)
}

func TestParseExtractionResponse(t *testing.T) {
	good := `{"title":"checkup","start":"2026-03-05T10:00:00","end":"2026-03-05T10:30:00","duration_minutes":30,"date_only":false}`
	ext, err := parseExtractionResponse(good)
	require.NoError(t, err)
	assert.Equal(t, "checkup", ext.Title)
	assert.Equal(t, 30, ext.DurationMinutes)

	fenced := "```json\n" + good + "\n```"
	_, err = parseExtractionResponse(fenced)
	assert.NoError(t, err)

	for name, bad := range map[string]string{
		"not json":       "sure, here you go",
		"missing start":  `{"title":"x","end":"2026-03-05T10:00:00"}`,
		"inverted range": `{"title":"x","start":"2026-03-05T11:00:00","end":"2026-03-05T10:00:00"}`,
		"bad instant":    `{"title":"x","start":"soon","end":"later"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parseExtractionResponse(bad)
			assert.Error(t, err)
		})
	}
}

func TestWeekdayFirstMentionWins(t *testing.T) {
	// Wednesday 2026-03-04 reference: next monday is the 9th.
	nextMonday := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.Local)

	for i := 0; i < 10; i++ {
		req := parseRule(t, "move my monday meeting to tuesday", PendingNone)
		require.Equal(t, IntentReschedule, req.Intent)
		require.NotNil(t, req.Date)
		assert.Equal(t, nextMonday, *req.Date)
	}
}
