// Package state provides an in-memory per-user FSM for bot conversations.
// Sessions are volatile: a restart drops in-flight dialogues, which is fine
// because only confirmed enrollments are persisted.
package state

import (
	"sync"

	tele "gopkg.in/telebot.v4"
)

// State identifies a finite-state-machine step in a conversation.
type State string

// StateIdle indicates there is no active conversation with the user.
const StateIdle State = "idle"

// Session stores conversation state and collected-but-unconfirmed fields
// for one user.
type Session struct {
	State    State
	TempData map[string]string
}

// Manager keeps per-user sessions keyed by Telegram user ID and routes
// inbound updates to the handler bound to the user's current state.
// Concurrent users touch different keys; the map is RWMutex-guarded.
type Manager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	handlers map[State]tele.HandlerFunc
}

// NewManager constructs an empty Manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[int64]*Session),
		handlers: make(map[State]tele.HandlerFunc),
	}
}

// Bind associates a state with its handler. Later binds replace earlier ones.
func (m *Manager) Bind(st State, h tele.HandlerFunc) {
	if h == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[st] = h
}

func (m *Manager) session(userID int64) *Session {
	sess, ok := m.sessions[userID]
	if !ok {
		sess = &Session{State: StateIdle, TempData: make(map[string]string)}
		m.sessions[userID] = sess
	}
	return sess
}

// SetState sets the FSM state for the given user, creating a session if needed.
func (m *Manager) SetState(userID int64, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session(userID).State = st
}

// GetState returns the current FSM state of a user, or StateIdle if none exists.
func (m *Manager) GetState(userID int64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sess, ok := m.sessions[userID]; ok {
		return sess.State
	}
	return StateIdle
}

// SetTemp stores a collected field in the user's session.
func (m *Manager) SetTemp(userID int64, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session(userID).TempData[key] = value
}

// GetTemp retrieves a collected field from the user's session.
func (m *Manager) GetTemp(userID int64, key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[userID]
	if !ok {
		return "", false
	}
	val, ok := sess.TempData[key]
	return val, ok
}

// Clear removes the entire session for a user, returning them to idle.
func (m *Manager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// ClearTemp drops collected fields but keeps the session itself.
func (m *Manager) ClearTemp(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[userID]; ok {
		sess.TempData = make(map[string]string)
	}
}

// InProgress reports whether the user currently has an active FSM state.
func (m *Manager) InProgress(userID int64) bool {
	return m.GetState(userID) != StateIdle
}

// Handle executes the handler bound to the user's current state, if any.
func (m *Manager) Handle(c tele.Context) error {
	userID := c.Sender().ID
	current := m.GetState(userID)

	m.mu.RLock()
	handler, ok := m.handlers[current]
	m.mu.RUnlock()

	if ok {
		return handler(c)
	}
	return nil
}
