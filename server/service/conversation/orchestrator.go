package conversation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/appointment-assistant/plugin/ai/parser"
	"github.com/hrygo/appointment-assistant/internal/observability"
	"github.com/hrygo/appointment-assistant/server/service/calendar"
)

// Orchestrator is the finite-state controller for one session's conversation.
// Each turn is processed fully before the next is accepted: parse, dispatch,
// mutate the calendar, format. There are no fatal paths; every input ends in
// a formatted reply and a valid (possibly unchanged) state.
type Orchestrator struct {
	store    *calendar.Store
	resolver *calendar.ConflictResolver
	parser   *parser.Parser
	format   *Formatter

	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock overrides the reference-time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator wires the controller over a calendar store and a parser.
func NewOrchestrator(store *calendar.Store, p *parser.Parser, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		resolver: calendar.NewConflictResolver(store),
		parser:   p,
		format:   NewFormatter(store.Rules()),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Store exposes the session's calendar for snapshot rendering.
func (o *Orchestrator) Store() *calendar.Store {
	return o.store
}

// HandleTurn processes one utterance against the current state and returns
// the agent turns plus the updated state. The caller owns the state and must
// pass it back on the next call.
func (o *Orchestrator) HandleTurn(ctx context.Context, text string, state State) ([]Turn, State) {
	pending := parser.PendingNone
	switch state.Phase {
	case PhaseAwaitingConfirmation:
		pending = parser.PendingConfirmation
	case PhaseAwaitingSlotChoice:
		pending = parser.PendingSlotChoice
	}

	req := o.parser.Parse(ctx, text, o.now(), pending)
	reqCtx, hasReqCtx := observability.FromContext(ctx)
	if hasReqCtx {
		reqCtx.Debug("turn parsed",
			slog.String(observability.LogFieldIntent, string(req.Intent)),
			slog.String("phase", string(state.Phase)),
		)
	} else {
		slog.Debug("turn parsed",
			"intent", req.Intent,
			"phase", state.Phase,
		)
	}

	var (
		turn     Turn
		newState State
	)
	switch req.Intent {
	case parser.IntentGreeting:
		// Chatting mid-confirmation is fine; the pending sub-dialog survives.
		turn, newState = o.format.Greeting(), state
	case parser.IntentSmalltalk:
		turn, newState = o.format.Smalltalk(), state
	case parser.IntentOutOfScope:
		turn, newState = o.format.OutOfScope(), state
	case parser.IntentUnknown:
		turn, newState = o.format.Clarify(), state
	case parser.IntentList:
		turn, newState = o.format.List(o.store.ListAll()), state
	case parser.IntentCreate:
		turn, newState = o.handleCreate(req)
	case parser.IntentDateOnlyCreate:
		turn, newState = o.handleDateOnly(req)
	case parser.IntentConfirmYes:
		turn, newState = o.handleConfirmYes(state)
	case parser.IntentConfirmNo:
		turn, newState = o.format.Declined(), Idle()
	case parser.IntentSlotChoice:
		turn, newState = o.handleSlotChoice(req, state)
	case parser.IntentCancel:
		turn, newState = o.handleCancel(req)
	case parser.IntentReschedule:
		turn, newState = o.handleReschedule(req)
	default:
		turn, newState = o.format.Clarify(), state
	}

	if hasReqCtx {
		reqCtx.Info("turn handled",
			slog.String(observability.LogFieldIntent, string(req.Intent)),
			slog.String(observability.LogFieldOutcome, string(turn.Outcome)),
			slog.String("phase", string(newState.Phase)),
		)
	} else {
		slog.Info("turn handled",
			"intent", req.Intent,
			"outcome", turn.Outcome,
			"phase", newState.Phase,
		)
	}
	return []Turn{turn}, newState
}

// handleCreate books an explicit date+time request: validate hours, then
// conflicts, then either book or propose the next free slot.
func (o *Orchestrator) handleCreate(req *parser.ParsedRequest) (Turn, State) {
	start, end := req.Start(), req.End()
	if start.IsZero() {
		return o.format.Clarify(), Idle()
	}

	if v := o.store.CheckBusinessHours(start, end); v != nil {
		return o.format.InvalidHours(v), Idle()
	}
	if len(o.store.FindConflicts(start, end)) == 0 {
		appt := o.store.Add(req.Title, start, end)
		return o.format.Booked(appt), Idle()
	}

	slot := o.resolver.SuggestNextFreeSlot(start, end)
	if slot == nil {
		return o.format.NoAlternative(), Idle()
	}
	return o.format.ConflictOffer(*slot), State{
		Phase:         PhaseAwaitingConfirmation,
		Proposed:      slot,
		ProposedTitle: req.Title,
	}
}

// handleDateOnly offers the free slots of the requested day and waits for a
// time choice.
func (o *Orchestrator) handleDateOnly(req *parser.ParsedRequest) (Turn, State) {
	if req.Date == nil {
		return o.format.Clarify(), Idle()
	}
	date := *req.Date

	slots := o.store.AvailableSlots(date, req.Duration)
	if len(slots) == 0 {
		return o.format.NoSlots(date.Format(dayFormat)), Idle()
	}
	return o.format.SlotList(date.Format(dayFormat), slots), State{
		Phase:         PhaseAwaitingSlotChoice,
		OfferDate:     date,
		OfferDuration: req.Duration,
		OfferTitle:    req.Title,
		Offered:       slots,
	}
}

// handleConfirmYes re-validates the held proposal (the calendar may have
// changed since it was offered) and books it if still free.
func (o *Orchestrator) handleConfirmYes(state State) (Turn, State) {
	if state.Phase == PhaseAwaitingSlotChoice {
		// A bare yes cannot pick a slot; keep the offer and ask for a time.
		return o.format.SlotReprompt(), state
	}
	if state.Phase != PhaseAwaitingConfirmation || state.Proposed == nil {
		return o.format.Clarify(), Idle()
	}
	slot := *state.Proposed

	if v := o.store.CheckBusinessHours(slot.Start, slot.End); v != nil {
		return o.format.ProposalGone(), Idle()
	}
	if len(o.conflictsExcluding(state.ReplaceID, slot.Start, slot.End)) > 0 {
		return o.format.ProposalGone(), Idle()
	}

	old := o.store.Get(state.ReplaceID)
	appt := o.store.Add(state.ProposedTitle, slot.Start, slot.End)
	if old != nil {
		// Reschedule confirmation: drop the original only now that the new
		// slot is actually booked.
		o.store.Remove(old.ID)
		return o.format.Rescheduled(old, appt), Idle()
	}
	return o.format.Confirmed(appt), Idle()
}

// handleSlotChoice books the chosen slot when it matches one of the offered
// intervals and is still free; otherwise it re-prompts, keeping the offer.
func (o *Orchestrator) handleSlotChoice(req *parser.ParsedRequest, state State) (Turn, State) {
	if state.Phase != PhaseAwaitingSlotChoice || req.TimeChoice == nil {
		return o.format.Clarify(), state
	}

	slot := matchOffered(req.TimeChoice, state.Offered)
	if slot == nil {
		return o.format.SlotReprompt(), state
	}
	// The offer list is a snapshot; the calendar may have moved on.
	if v := o.store.CheckBusinessHours(slot.Start, slot.End); v != nil {
		return o.format.SlotTaken(), state
	}
	if len(o.store.FindConflicts(slot.Start, slot.End)) > 0 {
		return o.format.SlotTaken(), state
	}

	appt := o.store.Add(state.OfferTitle, slot.Start, slot.End)
	return o.format.Booked(appt), Idle()
}

// handleCancel removes the uniquely referenced appointment, or lists the
// calendar when the reference is ambiguous instead of guessing.
func (o *Orchestrator) handleCancel(req *parser.ParsedRequest) (Turn, State) {
	all := o.store.ListAll()
	if len(all) == 0 {
		return o.format.NotFound("cancel"), Idle()
	}

	matches := o.matchAppointments(req)
	if len(matches) != 1 {
		return o.format.AmbiguousMatch("cancel", all), Idle()
	}

	target := matches[0]
	o.store.Remove(target.ID)
	return o.format.Cancelled(target), Idle()
}

// handleReschedule treats the new time as a create request and removes the
// original only after the new slot books; a failed reschedule leaves the
// original intact.
func (o *Orchestrator) handleReschedule(req *parser.ParsedRequest) (Turn, State) {
	all := o.store.ListAll()
	if len(all) == 0 {
		return o.format.NotFound("reschedule"), Idle()
	}

	matches := o.matchAppointments(req)
	if len(matches) != 1 {
		return o.format.AmbiguousMatch("move", all), Idle()
	}
	target := matches[0]

	if req.TimeOfDay == nil {
		return o.format.BadTime(), Idle()
	}

	// The new slot defaults to the appointment's own day unless the text
	// named a date; the duration carries over.
	date := dateOnly(target.Start)
	if req.Date != nil {
		date = *req.Date
	}
	newStart := req.TimeOfDay.On(date)
	newEnd := newStart.Add(target.Duration())

	if v := o.store.CheckBusinessHours(newStart, newEnd); v != nil {
		return o.format.InvalidHours(v), Idle()
	}
	if len(o.conflictsExcluding(target.ID, newStart, newEnd)) == 0 {
		appt := o.store.Add(target.Title, newStart, newEnd)
		o.store.Remove(target.ID)
		return o.format.Rescheduled(target, appt), Idle()
	}

	slot := o.resolver.SuggestNextFreeSlot(newStart, newEnd)
	if slot == nil {
		return o.format.NoAlternative(), Idle()
	}
	return o.format.ConflictOffer(*slot), State{
		Phase:         PhaseAwaitingConfirmation,
		Proposed:      slot,
		ProposedTitle: target.Title,
		ReplaceID:     target.ID,
	}
}

// conflictsExcluding filters out the appointment being moved so it cannot
// conflict with its own replacement.
func (o *Orchestrator) conflictsExcluding(id string, start, end time.Time) []*calendar.Appointment {
	conflicts := o.store.FindConflicts(start, end)
	if id == "" {
		return conflicts
	}
	kept := conflicts[:0]
	for _, c := range conflicts {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	return kept
}

// matchAppointments finds the stored appointments the reference phrase could
// mean: title matches first, narrowed by a parsed date, falling back to a
// pure date match when no title matched.
func (o *Orchestrator) matchAppointments(req *parser.ParsedRequest) []*calendar.Appointment {
	all := o.store.ListAll()
	ref := strings.ToLower(req.Reference)

	var byTitle []*calendar.Appointment
	for _, a := range all {
		if titleMatches(strings.ToLower(a.Title), ref) {
			byTitle = append(byTitle, a)
		}
	}

	if req.Date != nil {
		var narrowed []*calendar.Appointment
		for _, a := range byTitle {
			if sameDate(a.Start, *req.Date) {
				narrowed = append(narrowed, a)
			}
		}
		if len(narrowed) > 0 {
			return narrowed
		}
		if len(byTitle) == 0 {
			var onDate []*calendar.Appointment
			for _, a := range all {
				if sameDate(a.Start, *req.Date) {
					onDate = append(onDate, a)
				}
			}
			return onDate
		}
	}
	return byTitle
}

// titleMatches accepts the full title as a substring of the text, or any
// reasonably long title word. Substring titles ("meeting" vs "team meeting")
// can both match; the ambiguity then surfaces to the user.
func titleMatches(title, text string) bool {
	if strings.Contains(text, title) {
		return true
	}
	for _, w := range strings.Fields(title) {
		if len(w) >= 4 && strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// matchOffered resolves a time reply against the offered slots. A bare hour
// tries both the morning and the afternoon reading.
func matchOffered(tm *parser.TimeMatch, offered []calendar.Slot) *calendar.Slot {
	candidates := []calendar.ClockTime{tm.Clock}
	if !tm.Explicit {
		if alt := tm.Clock + calendar.Clock(12, 0); alt < calendar.Clock(24, 0) {
			candidates = append(candidates, alt)
		}
	}
	for _, c := range candidates {
		for i := range offered {
			if calendar.Of(offered[i].Start) == c {
				return &offered[i]
			}
		}
	}
	return nil
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
