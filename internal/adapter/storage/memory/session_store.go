package memory

import (
	"context"
	"sync"
	"time"
)

type sessionEntry struct {
	data      []byte
	expiresAt time.Time // zero means no expiry
}

// SessionStore is an in-memory ports.SessionStore with per-entry TTL.
type SessionStore struct {
	mu   sync.RWMutex
	m    map[string]sessionEntry
	nowF func() time.Time
}

// NewSessionStore returns an empty store.
func NewSessionStore(opts ...Option) *SessionStore {
	o := buildOptions(opts)
	return &SessionStore{
		m:    make(map[string]sessionEntry),
		nowF: o.nowF,
	}
}

// Save stores a copy of data. A non-positive ttl keeps it until deleted.
func (s *SessionStore) Save(ctx context.Context, sessionID string, data []byte, ttl time.Duration) error {
	e := sessionEntry{data: append([]byte(nil), data...)}
	if ttl > 0 {
		e.expiresAt = s.nowF().Add(ttl)
	}
	s.mu.Lock()
	s.m[sessionID] = e
	s.mu.Unlock()
	return nil
}

// Load returns the stored bytes, or nil if absent or expired.
func (s *SessionStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.m[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !e.expiresAt.IsZero() && !e.expiresAt.After(s.nowF()) {
		s.mu.Lock()
		delete(s.m, sessionID)
		s.mu.Unlock()
		return nil, nil
	}
	return append([]byte(nil), e.data...), nil
}

// Delete removes the session. Deleting a missing session is a no-op.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.m, sessionID)
	s.mu.Unlock()
	return nil
}
