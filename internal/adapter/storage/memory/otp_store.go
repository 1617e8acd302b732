// Package memory holds process-local stores for single-instance deployments and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"railpass-gateway/internal/core/domain"
)

// expiredRetention is how long an expired entry is kept so verification can
// still report it as expired rather than missing.
const expiredRetention = time.Hour

// OTPStore is an in-memory ports.OTPStore.
type OTPStore struct {
	mu   sync.RWMutex
	m    map[string]domain.PendingVerification
	nowF func() time.Time
}

// NewOTPStore returns an empty store.
func NewOTPStore(opts ...Option) *OTPStore {
	o := buildOptions(opts)
	return &OTPStore{
		m:    make(map[string]domain.PendingVerification),
		nowF: o.nowF,
	}
}

// Get returns a copy of the entry for identifier, or nil if absent.
// Expired entries are returned as-is; the caller decides what expiry means.
func (s *OTPStore) Get(ctx context.Context, identifier string) (*domain.PendingVerification, error) {
	s.mu.RLock()
	pv, ok := s.m[identifier]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return &pv, nil
}

// Put replaces the entry for pv.Identifier and drops long-expired entries.
func (s *OTPStore) Put(ctx context.Context, pv *domain.PendingVerification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[pv.Identifier] = *pv
	s.sweepLocked()
	return nil
}

// Delete removes the entry for identifier. Deleting a missing entry is a no-op.
func (s *OTPStore) Delete(ctx context.Context, identifier string) error {
	s.mu.Lock()
	delete(s.m, identifier)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored entries.
func (s *OTPStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

func (s *OTPStore) sweepLocked() {
	cutoff := s.nowF().Add(-expiredRetention)
	for id, pv := range s.m {
		if pv.ExpiresAt.Before(cutoff) {
			delete(s.m, id)
		}
	}
}
