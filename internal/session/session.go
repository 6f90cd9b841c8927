// Package session tracks which account a client is acting as.
package session

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrNotLoggedIn  = errors.New("no user is logged in")
	ErrInvalidToken = errors.New("invalid session token")
)

// Manager maps session ids to account names. Each REST token or CLI process
// owns one session id.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]string
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]string)}
}

// Login opens a new session for name and returns its id.
func (m *Manager) Login(name string) string {
	id := uuid.New().String()
	m.mu.Lock()
	m.sessions[id] = name
	m.mu.Unlock()
	return id
}

func (m *Manager) Current(id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", ErrNotLoggedIn
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	name, ok := m.sessions[id]
	if !ok {
		return "", ErrNotLoggedIn
	}
	return name, nil
}

// Logout closes the session and returns the name that was logged in.
func (m *Manager) Logout(id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name, ok := m.sessions[id]
	if !ok {
		return "", ErrNotLoggedIn
	}
	delete(m.sessions, id)
	return name, nil
}
