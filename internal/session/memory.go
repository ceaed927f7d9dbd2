package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memorySession struct {
	userID    uint
	expiresAt time.Time
}

// MemoryManager keeps sessions in process memory. Used in demo mode and
// tests, where an external Redis is not available.
type MemoryManager struct {
	mu       sync.RWMutex
	sessions map[string]memorySession
	ttl      time.Duration
}

// NewMemoryManager creates an in-process session manager.
func NewMemoryManager(ttl time.Duration) *MemoryManager {
	return &MemoryManager{
		sessions: make(map[string]memorySession),
		ttl:      ttl,
	}
}

func (m *MemoryManager) Create(_ context.Context, userID uint) (string, error) {
	token := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = memorySession{
		userID:    userID,
		expiresAt: time.Now().Add(m.ttl),
	}
	return token, nil
}

func (m *MemoryManager) UserID(_ context.Context, token string) (uint, error) {
	m.mu.RLock()
	sess, ok := m.sessions[token]
	m.mu.RUnlock()
	if !ok {
		return 0, ErrNoSession
	}
	if time.Now().After(sess.expiresAt) {
		m.mu.Lock()
		delete(m.sessions, token)
		m.mu.Unlock()
		return 0, ErrNoSession
	}
	return sess.userID, nil
}

func (m *MemoryManager) Destroy(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}
