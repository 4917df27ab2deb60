package calendar

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// ViolationReason identifies which business rule an interval breaks.
type ViolationReason string

const (
	// ReasonWeekend means the date falls outside the working days.
	ReasonWeekend ViolationReason = "weekend"
	// ReasonHoliday means the office is closed for a holiday.
	ReasonHoliday ViolationReason = "holiday"
	// ReasonOutsideHours means the interval starts before open or ends after close.
	ReasonOutsideHours ViolationReason = "outside_hours"
	// ReasonAfterLastStart means the interval starts after the last permissible start.
	ReasonAfterLastStart ViolationReason = "after_last_start"
	// ReasonCrossesLunch means the interval overlaps the lunch break.
	ReasonCrossesLunch ViolationReason = "crosses_lunch"
)

// Violation describes a rejected interval with a user-facing message.
type Violation struct {
	Reason  ViolationReason
	Message string
}

// MonthDay is an annual holiday date (month and day, any year).
type MonthDay struct {
	Month time.Month
	Day   int
}

// ClockTime is a time of day expressed as minutes from midnight.
type ClockTime int

// Clock builds a ClockTime from an hour and minute.
func Clock(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// Of returns the ClockTime of a wall-clock instant.
func Of(t time.Time) ClockTime {
	return ClockTime(t.Hour()*60 + t.Minute())
}

// On anchors the ClockTime to the date of the given day.
func (c ClockTime) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), int(c)/60, int(c)%60, 0, 0, day.Location())
}

// ParseClock reads a 24-hour "H:MM" string into a ClockTime.
func ParseClock(s string) (ClockTime, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, errors.Wrapf(err, "invalid clock time %q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, errors.Errorf("invalid clock time %q", s)
	}
	return Clock(hour, minute), nil
}

// String formats the ClockTime as a 12-hour label like "8:00 AM".
func (c ClockTime) String() string {
	hour, minute := int(c)/60, int(c)%60
	suffix := "AM"
	display := hour
	switch {
	case hour == 0:
		display = 12
	case hour == 12:
		suffix = "PM"
	case hour > 12:
		display = hour - 12
		suffix = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", display, minute, suffix)
}

// BusinessRules is the static policy governing which intervals are bookable.
// Loaded once at startup and read-only afterwards.
type BusinessRules struct {
	// WorkingDays are the weekdays appointments may be scheduled on.
	WorkingDays map[time.Weekday]bool
	// Open and Close bound the working day. Every appointment must fit inside.
	Open  ClockTime
	Close ClockTime
	// LastStart is the latest permissible appointment start.
	LastStart ClockTime
	// LunchStart and LunchEnd delimit the break no appointment may overlap.
	LunchStart ClockTime
	LunchEnd   ClockTime
	// Holidays are annual closed dates.
	Holidays []MonthDay
	// Granularity is the step used when enumerating candidate start times.
	Granularity time.Duration
}

// DefaultRules returns the stock policy: weekdays 8am-5pm, last start 4:30pm,
// lunch 1-2pm, 30 minute slots, US holidays closed.
func DefaultRules() *BusinessRules {
	return &BusinessRules{
		WorkingDays: map[time.Weekday]bool{
			time.Monday:    true,
			time.Tuesday:   true,
			time.Wednesday: true,
			time.Thursday:  true,
			time.Friday:    true,
		},
		Open:       Clock(8, 0),
		Close:      Clock(17, 0),
		LastStart:  Clock(16, 30),
		LunchStart: Clock(13, 0),
		LunchEnd:   Clock(14, 0),
		Holidays: []MonthDay{
			{time.January, 1},
			{time.May, 27},
			{time.July, 4},
			{time.September, 2},
			{time.November, 27},
			{time.November, 28},
			{time.December, 25},
		},
		Granularity: 30 * time.Minute,
	}
}

// Validate checks the rule invariants: open < lunch start < lunch end < close
// and last start within the day.
func (r *BusinessRules) Validate() error {
	if len(r.WorkingDays) == 0 {
		return errors.New("business rules: no working days configured")
	}
	if !(r.Open < r.LunchStart && r.LunchStart < r.LunchEnd && r.LunchEnd < r.Close) {
		return errors.Errorf("business rules: want open < lunch start < lunch end < close, got %s, %s, %s, %s",
			r.Open, r.LunchStart, r.LunchEnd, r.Close)
	}
	if r.LastStart > r.Close {
		return errors.Errorf("business rules: last start %s is after close %s", r.LastStart, r.Close)
	}
	if r.Granularity <= 0 {
		return errors.New("business rules: granularity must be positive")
	}
	return nil
}

// IsWorkingDay reports whether the date falls on a configured working weekday.
func (r *BusinessRules) IsWorkingDay(t time.Time) bool {
	return r.WorkingDays[t.Weekday()]
}

// IsHoliday reports whether the date matches one of the annual holidays.
func (r *BusinessRules) IsHoliday(t time.Time) bool {
	for _, h := range r.Holidays {
		if t.Month() == h.Month && t.Day() == h.Day {
			return true
		}
	}
	return false
}

// CheckBusinessHours validates an interval against the policy. It returns nil
// when the interval is bookable, otherwise a Violation naming the broken rule.
// The reported message is ready to show to the user.
func (r *BusinessRules) CheckBusinessHours(start, end time.Time) *Violation {
	if !r.IsWorkingDay(start) {
		return &Violation{
			Reason:  ReasonWeekend,
			Message: "We only schedule on weekdays (Monday-Friday), not on weekends.",
		}
	}
	if r.IsHoliday(start) {
		return &Violation{
			Reason:  ReasonHoliday,
			Message: "We're closed on holidays. Please choose a different day.",
		}
	}

	startClock := Of(start)
	endClock := Of(end)

	if startClock < r.Open {
		return &Violation{
			Reason:  ReasonOutsideHours,
			Message: fmt.Sprintf("We open at %s. Please choose a time from %s onward.", r.Open, r.Open),
		}
	}
	if endClock > r.Close || !sameDate(start, end) {
		return &Violation{
			Reason:  ReasonOutsideHours,
			Message: fmt.Sprintf("We close at %s. Your appointment must end by %s.", r.Close, r.Close),
		}
	}
	if startClock > r.LastStart {
		return &Violation{
			Reason:  ReasonAfterLastStart,
			Message: fmt.Sprintf("The latest appointment start is %s. Please choose an earlier time.", r.LastStart),
		}
	}
	// Half-open overlap with the lunch window.
	if startClock < r.LunchEnd && endClock > r.LunchStart {
		return &Violation{
			Reason:  ReasonCrossesLunch,
			Message: fmt.Sprintf("We're closed for lunch between %s and %s. Please pick a time outside that window.", r.LunchStart, r.LunchEnd),
		}
	}
	return nil
}

// HoursSummary is a one-line description of the policy for user replies.
func (r *BusinessRules) HoursSummary() string {
	return fmt.Sprintf("We're open Monday-Friday, %s-%s (last start %s), and closed for lunch %s-%s.",
		r.Open, r.Close, r.LastStart, r.LunchStart, r.LunchEnd)
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
