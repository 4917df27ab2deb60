package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/appointment-assistant/server/service/calendar"
	"github.com/hrygo/appointment-assistant/server/service/conversation"
)

// Session is one independent conversation with its own calendar and dialog
// state. Turns within a session are serialized by the session mutex; separate
// sessions never contend.
type Session struct {
	ID string

	mu           sync.Mutex
	orchestrator *conversation.Orchestrator
	state        conversation.State
	createdAt    time.Time
	lastActive   time.Time
	turns        int
}

// Handle runs one utterance through the session's conversation.
func (s *Session) Handle(ctx context.Context, text string) []conversation.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns, next := s.orchestrator.HandleTurn(ctx, text, s.state)
	s.state = next
	s.lastActive = time.Now()
	s.turns++
	return turns
}

// Appointments returns a snapshot of the session's calendar.
func (s *Session) Appointments() []*calendar.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orchestrator.Store().ListAll()
}

// LastActive reports when the session last handled a turn.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Turns reports how many utterances the session has handled.
func (s *Session) Turns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turns
}

// Summary is a lightweight listing entry for one session.
type Summary struct {
	SessionID    string    `json:"session_id"`
	Appointments int       `json:"appointments"`
	Turns        int       `json:"turns"`
	LastActive   time.Time `json:"last_active"`
}

// Manager owns the live sessions. Lookup and creation are guarded by its own
// lock; turn handling only takes the per-session lock.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	factory  func() *conversation.Orchestrator
}

// NewManager creates a session manager. The factory builds a fresh
// orchestrator (with its own empty calendar) per session.
func NewManager(factory func() *conversation.Orchestrator) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		factory:  factory,
	}
}

// GetOrCreate returns the session with the given ID, creating it on first
// use. An empty ID gets a generated one.
func (m *Manager) GetOrCreate(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = shortuuid.New()
	}
	if s, ok := m.sessions[id]; ok {
		return s
	}

	now := time.Now()
	s := &Session{
		ID:           id,
		orchestrator: m.factory(),
		state:        conversation.Idle(),
		createdAt:    now,
		lastActive:   now,
	}
	m.sessions[id] = s
	slog.Debug("session created", "session_id", id)
	return s
}

// Get returns an existing session without creating one.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Delete drops a session and its calendar.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// List returns summaries of all live sessions.
func (m *Manager) List() []Summary {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	out := make([]Summary, 0, len(sessions))
	for _, s := range sessions {
		s.mu.Lock()
		out = append(out, Summary{
			SessionID:    s.ID,
			Appointments: s.orchestrator.Store().Len(),
			Turns:        s.turns,
			LastActive:   s.lastActive,
		})
		s.mu.Unlock()
	}
	return out
}

// CleanupIdle drops sessions that have not handled a turn since the cutoff
// and returns how many were removed.
func (m *Manager) CleanupIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		slog.Info("idle sessions removed", "count", removed, "max_idle", maxIdle)
	}
	return removed
}
