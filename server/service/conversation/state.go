package conversation

import (
	"time"

	"github.com/hrygo/appointment-assistant/server/service/calendar"
)

// Phase identifies which sub-dialog, if any, is awaiting a reply.
type Phase string

const (
	// PhaseIdle means no pending sub-dialog.
	PhaseIdle Phase = "idle"
	// PhaseAwaitingConfirmation means an alternative slot was proposed and a
	// yes/no answer is expected.
	PhaseAwaitingConfirmation Phase = "awaiting_confirmation"
	// PhaseAwaitingSlotChoice means free slots were offered and a time choice
	// is expected.
	PhaseAwaitingSlotChoice Phase = "awaiting_slot_choice"
)

// State is the per-session conversation state threaded through HandleTurn.
// At most one pending sub-dialog exists at a time; starting a new one
// overwrites the previous one, so a stale confirmation never lingers.
// The zero value is not meaningful; use Idle.
type State struct {
	Phase Phase `json:"phase"`

	// Proposal fields, set in PhaseAwaitingConfirmation.
	Proposed      *calendar.Slot `json:"proposed,omitempty"`
	ProposedTitle string         `json:"proposed_title,omitempty"`
	// ReplaceID is the appointment to remove once the proposal books, for
	// reschedules that ran into a conflict. Empty for plain bookings.
	ReplaceID string `json:"replace_id,omitempty"`

	// Offer fields, set in PhaseAwaitingSlotChoice.
	OfferDate     time.Time       `json:"offer_date,omitempty"`
	OfferDuration time.Duration   `json:"offer_duration,omitempty"`
	OfferTitle    string          `json:"offer_title,omitempty"`
	Offered       []calendar.Slot `json:"offered,omitempty"`
}

// Idle returns the initial state with no pending sub-dialog.
func Idle() State {
	return State{Phase: PhaseIdle}
}

// Pending reports whether a sub-dialog is awaiting a reply.
func (s State) Pending() bool {
	return s.Phase != PhaseIdle && s.Phase != ""
}
