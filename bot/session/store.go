// Package session holds the ephemeral login sessions. Sessions are
// process-local and intentionally not persisted: a login is a single
// fast round trip, so losing one on restart only costs the user a
// repeated /login.
package session

import "sync"

// Step is a stage of the login flow.
type Step string

const (
	StepLogin    Step = "login"
	StepPassword Step = "password"
)

// LoginSession tracks a chat's in-progress login.
type LoginSession struct {
	Step            Step
	Login           string
	Password        string
	DisplayUsername string
}

// Store is the login session container. It is injected rather than
// accessed as a package global so it can be swapped in tests.
type Store interface {
	Get(chatID string) (*LoginSession, bool)
	Set(chatID string, s *LoginSession)
	Delete(chatID string)
}

// MemoryStore is the in-memory Store implementation. A chat owns its
// session exclusively; the mutex only guards the map itself.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*LoginSession
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*LoginSession),
	}
}

func (m *MemoryStore) Get(chatID string) (*LoginSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[chatID]
	return s, ok
}

func (m *MemoryStore) Set(chatID string, s *LoginSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[chatID] = s
}

func (m *MemoryStore) Delete(chatID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, chatID)
}
