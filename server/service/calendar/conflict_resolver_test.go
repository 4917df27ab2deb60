package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestNextFreeSlot(t *testing.T) {
	day := time.Date(2026, time.March, 4, 0, 0, 0, 0, time.Local)
	require.Equal(t, time.Wednesday, day.Weekday())

	store := NewStore(DefaultRules())
	resolver := NewConflictResolver(store)
	store.Add("existing", at(day, 10, 0), at(day, 11, 0))

	// 10:30 is busy; the first free granularity step is 11:00.
	slot := resolver.SuggestNextFreeSlot(at(day, 10, 30), at(day, 11, 0))
	require.NotNil(t, slot)
	assert.Equal(t, at(day, 11, 0), slot.Start)
	assert.Equal(t, at(day, 11, 30), slot.End)
}

func TestSuggestNextFreeSlotSkipsLunch(t *testing.T) {
	day := time.Date(2026, time.March, 4, 0, 0, 0, 0, time.Local)
	store := NewStore(DefaultRules())
	resolver := NewConflictResolver(store)
	store.Add("late morning", at(day, 12, 0), at(day, 13, 0))

	// 12:30 conflicts, 13:00 and 13:30 are lunch, so 14:00 comes back.
	slot := resolver.SuggestNextFreeSlot(at(day, 12, 30), at(day, 13, 0))
	require.NotNil(t, slot)
	assert.Equal(t, at(day, 14, 0), slot.Start)
}

func TestSuggestNextFreeSlotKeepsDuration(t *testing.T) {
	day := time.Date(2026, time.March, 4, 0, 0, 0, 0, time.Local)
	store := NewStore(DefaultRules())
	resolver := NewConflictResolver(store)
	store.Add("existing", at(day, 9, 0), at(day, 10, 0))

	slot := resolver.SuggestNextFreeSlot(at(day, 9, 0), at(day, 10, 30))
	require.NotNil(t, slot)
	assert.Equal(t, 90*time.Minute, slot.End.Sub(slot.Start))
	assert.Equal(t, at(day, 10, 0), slot.Start)
}

func TestSuggestNextFreeSlotNoneOnFullDay(t *testing.T) {
	day := time.Date(2026, time.March, 4, 0, 0, 0, 0, time.Local)
	store := NewStore(DefaultRules())
	resolver := NewConflictResolver(store)

	// Book out the entire afternoon after the requested time.
	store.Add("block one", at(day, 15, 0), at(day, 16, 0))
	store.Add("block two", at(day, 16, 0), at(day, 17, 0))

	slot := resolver.SuggestNextFreeSlot(at(day, 15, 0), at(day, 15, 30))
	assert.Nil(t, slot, "search must not spill into the next day")
}

func TestSuggestNextFreeSlotStopsAtLastStart(t *testing.T) {
	day := time.Date(2026, time.March, 4, 0, 0, 0, 0, time.Local)
	store := NewStore(DefaultRules())
	resolver := NewConflictResolver(store)
	store.Add("late", at(day, 16, 30), at(day, 17, 0))

	slot := resolver.SuggestNextFreeSlot(at(day, 16, 30), at(day, 17, 0))
	assert.Nil(t, slot)
}
