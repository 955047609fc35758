package session

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	sess    *Session
	expires time.Time
}

// MemoryStore keeps sessions in process memory. Expired entries are dropped
// lazily on access and on Save.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memEntry
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore creates a store; ttl <= 0 disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.sweep(now)
	e := memEntry{sess: s.clone()}
	if m.ttl > 0 {
		e.expires = now.Add(m.ttl)
	}
	m.sessions[s.ID] = e
	return nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if m.expired(e, m.now()) {
		delete(m.sessions, id)
		return nil, ErrNotFound
	}
	return e.sess.clone(), nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len reports live sessions.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep(m.now())
	return len(m.sessions)
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) expired(e memEntry, now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

func (m *MemoryStore) sweep(now time.Time) {
	for id, e := range m.sessions {
		if m.expired(e, now) {
			delete(m.sessions, id)
		}
	}
}
