package engine

import "sync"

// Manager hands out one Session per anonymous identity. Sessions are created
// lazily on first use and live until the process exits; their room
// subscriptions are still released explicitly through ResetGame.
type Manager struct {
	mu       sync.Mutex
	deps     Deps
	sessions map[string]*Session
}

func NewManager(deps Deps) *Manager {
	return &Manager{
		deps:     deps,
		sessions: make(map[string]*Session),
	}
}

// Session returns the session owned by playerID, creating it if needed.
func (m *Manager) Session(playerID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[playerID]; ok {
		return s
	}
	s := NewSession(playerID, m.deps)
	m.sessions[playerID] = s
	return s
}
