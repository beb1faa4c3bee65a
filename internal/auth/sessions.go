package auth

import (
	"sync"

	"github.com/google/uuid"

	"trackit/internal/core"
)

// View names the top-level screens of the view state machine:
// landing -> auth -> dashboard, and back to landing on sign-out.
type View string

const (
	ViewLanding   View = "landing"
	ViewAuth      View = "auth"
	ViewDashboard View = "dashboard"
)

// Session is the in-memory identity established by a successful signup
// or login. There is no token expiry: sessions live as long as the
// process, ending only on logout.
type Session struct {
	Token    string    `json:"token"`
	User     core.User `json:"user"`
	View     View      `json:"view"`
	Tab      core.Tab  `json:"tab"`
	DarkMode bool      `json:"dark_mode"`
}

// Sessions is the process-wide session registry.
type Sessions struct {
	mu    sync.RWMutex
	byTok map[string]*Session
}

func NewSessions() *Sessions {
	return &Sessions{byTok: make(map[string]*Session)}
}

// Open establishes a session already at the dashboard view: successful
// auth transitions there directly.
func (s *Sessions) Open(user core.User) *Session {
	sess := &Session{
		Token: uuid.NewString(),
		User:  user,
		View:  ViewDashboard,
		Tab:   core.TabOverview,
	}
	s.mu.Lock()
	s.byTok[sess.Token] = sess
	snapshot := *sess
	s.mu.Unlock()
	return &snapshot
}

// Get returns a snapshot of the session for a token, or false when
// none exists. The registry's own copy is only written under the lock
// by SwitchTab and ToggleTheme, so callers never share memory with it.
func (s *Sessions) Get(token string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.byTok[token]
	if !ok {
		return nil, false
	}
	snapshot := *sess
	return &snapshot, true
}

// Close removes a session and reports whether one existed.
func (s *Sessions) Close(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byTok[token]; !ok {
		return false
	}
	delete(s.byTok, token)
	return true
}

// SwitchTab moves the session to another dashboard sub-view.
func (s *Sessions) SwitchTab(token string, tab core.Tab) bool {
	switch tab {
	case core.TabOverview, core.TabExpenses, core.TabSettings:
	default:
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byTok[token]
	if !ok {
		return false
	}
	sess.Tab = tab
	return true
}

// ToggleTheme flips the dark-mode bit and returns the new value.
func (s *Sessions) ToggleTheme(token string) (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byTok[token]
	if !ok {
		return false, false
	}
	sess.DarkMode = !sess.DarkMode
	return sess.DarkMode, true
}

// Count reports the number of live sessions.
func (s *Sessions) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byTok)
}
