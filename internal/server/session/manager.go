package session

import (
	"sync"

	"github.com/simplegameutils/sgu/internal/server/metrics"
)

// Manager holds the authenticated sessions of one server. A user may be
// connected more than once.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

// Add registers an authenticated session. Adding twice is a no-op.
func (m *Manager) Add(s *Session) {
	if !s.Authenticated() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID()]; ok {
		return
	}
	m.sessions[s.ID()] = s
	metrics.ActiveSessions.Inc()
}

// Remove forgets the session. Unknown sessions are ignored.
func (m *Manager) Remove(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID()]; !ok {
		return
	}
	delete(m.sessions, s.ID())
	metrics.ActiveSessions.Dec()
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
