package calendar

import (
	"log/slog"
	"time"
)

// ConflictResolver suggests an alternative slot when a requested interval is
// busy. The search stays on the requested date; if nothing is free before the
// last permissible start, the caller reports "no free slot today" rather than
// silently spilling into the next day.
type ConflictResolver struct {
	store *Store
}

// NewConflictResolver creates a resolver backed by the given store.
func NewConflictResolver(store *Store) *ConflictResolver {
	return &ConflictResolver{store: store}
}

// SuggestNextFreeSlot scans forward from the requested start in granularity
// steps, testing each shifted interval of the same duration against the
// business rules and the stored appointments. It returns the first fully free
// slot, or nil when the rest of the day is booked.
func (r *ConflictResolver) SuggestNextFreeSlot(start, end time.Time) *Slot {
	rules := r.store.Rules()
	duration := end.Sub(start)
	if duration <= 0 {
		return nil
	}

	for c := Of(start) + ClockTime(rules.Granularity/time.Minute); c <= rules.LastStart; c += ClockTime(rules.Granularity / time.Minute) {
		candidateStart := c.On(start)
		candidateEnd := candidateStart.Add(duration)
		if rules.CheckBusinessHours(candidateStart, candidateEnd) != nil {
			continue
		}
		if len(r.store.FindConflicts(candidateStart, candidateEnd)) > 0 {
			continue
		}
		slog.Debug("alternative slot found",
			"requested", start,
			"suggested", candidateStart,
		)
		return &Slot{Start: candidateStart, End: candidateEnd}
	}

	slog.Debug("no alternative slot on requested day", "requested", start)
	return nil
}
