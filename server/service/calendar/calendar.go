package calendar

import (
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Appointment is a booked interval on the calendar. Instances are created by
// Store.Add and are never mutated in place; a reschedule is modeled as
// remove-then-add so the conflict check stays uniform.
type Appointment struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns the appointment length.
func (a *Appointment) Duration() time.Duration {
	return a.End.Sub(a.Start)
}

// Overlaps reports whether the appointment intersects the half-open
// interval [start, end).
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return a.Start.Before(end) && start.Before(a.End)
}

// Slot is a free bookable interval offered to the user.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Store owns the appointment data and the availability queries. It has no
// knowledge of language or conversation; validation policy lives with the
// caller. The store is single-writer within a session and its lifetime is
// the process's lifetime.
type Store struct {
	rules        *BusinessRules
	appointments []*Appointment
}

// NewStore creates an empty calendar governed by the given rules.
func NewStore(rules *BusinessRules) *Store {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Store{rules: rules}
}

// Rules exposes the immutable policy the store was built with.
func (s *Store) Rules() *BusinessRules {
	return s.rules
}

// Add inserts an appointment unconditionally and assigns its ID. Callers must
// have already validated business hours and the absence of conflicts.
func (s *Store) Add(title string, start, end time.Time) *Appointment {
	appt := &Appointment{
		ID:    uuid.NewString(),
		Title: title,
		Start: start,
		End:   end,
	}
	s.appointments = append(s.appointments, appt)
	sort.Slice(s.appointments, func(i, j int) bool {
		return s.appointments[i].Start.Before(s.appointments[j].Start)
	})
	slog.Debug("appointment added",
		"id", appt.ID,
		"title", appt.Title,
		"start", appt.Start,
	)
	return appt
}

// Remove deletes the appointment with the given ID. It reports whether an
// appointment was actually removed.
func (s *Store) Remove(id string) bool {
	for i, a := range s.appointments {
		if a.ID == id {
			s.appointments = append(s.appointments[:i], s.appointments[i+1:]...)
			slog.Debug("appointment removed", "id", id, "title", a.Title)
			return true
		}
	}
	return false
}

// Get returns the appointment with the given ID, or nil.
func (s *Store) Get(id string) *Appointment {
	for _, a := range s.appointments {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// FindConflicts returns every stored appointment overlapping [start, end).
func (s *Store) FindConflicts(start, end time.Time) []*Appointment {
	var conflicts []*Appointment
	for _, a := range s.appointments {
		if a.Overlaps(start, end) {
			conflicts = append(conflicts, a)
		}
	}
	return conflicts
}

// CheckBusinessHours validates the interval against the store's rules.
func (s *Store) CheckBusinessHours(start, end time.Time) *Violation {
	return s.rules.CheckBusinessHours(start, end)
}

// ListAll returns a snapshot of all appointments ordered by start time.
func (s *Store) ListAll() []*Appointment {
	out := make([]*Appointment, len(s.appointments))
	copy(out, s.appointments)
	return out
}

// Len returns the number of stored appointments.
func (s *Store) Len() int {
	return len(s.appointments)
}

// AvailableSlots walks candidate start times for the given date from open to
// last start in granularity steps and keeps the ones that pass the business
// rules and do not overlap any stored appointment. The result is chronological
// and recomputed fresh on every call since the calendar mutates between calls.
func (s *Store) AvailableSlots(date time.Time, duration time.Duration) []Slot {
	if duration <= 0 {
		return nil
	}
	if !s.rules.IsWorkingDay(date) || s.rules.IsHoliday(date) {
		return nil
	}

	var slots []Slot
	for c := s.rules.Open; c <= s.rules.LastStart; c += ClockTime(s.rules.Granularity / time.Minute) {
		start := c.On(date)
		end := start.Add(duration)
		if s.rules.CheckBusinessHours(start, end) != nil {
			continue
		}
		if len(s.FindConflicts(start, end)) > 0 {
			continue
		}
		slots = append(slots, Slot{Start: start, End: end})
	}
	return slots
}
