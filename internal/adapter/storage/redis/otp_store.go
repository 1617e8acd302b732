package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"railpass-gateway/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

// expiredRetention keeps an entry past its expiry so verification can report
// "expired" instead of "not found".
const expiredRetention = time.Hour

// OTPStore implements ports.OTPStore with one JSON value per identifier.
type OTPStore struct {
	client *goredis.Client
	prefix string
	nowF   func() time.Time
}

// NewOTPStore creates a Redis-backed OTP store.
func NewOTPStore(client *goredis.Client) *OTPStore {
	return &OTPStore{
		client: client,
		prefix: "otp:",
		nowF:   time.Now,
	}
}

// Get returns the entry for identifier, or nil, nil if absent.
func (s *OTPStore) Get(ctx context.Context, identifier string) (*domain.PendingVerification, error) {
	raw, err := s.client.Get(ctx, s.prefix+identifier).Bytes()
	if err != nil {
		if isNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis otp get: %w", err)
	}

	var pv domain.PendingVerification
	if err := json.Unmarshal(raw, &pv); err != nil {
		return nil, fmt.Errorf("redis otp decode: %w", err)
	}
	return &pv, nil
}

// Put replaces the entry. The key lives until ExpiresAt plus a retention window.
func (s *OTPStore) Put(ctx context.Context, pv *domain.PendingVerification) error {
	raw, err := json.Marshal(pv)
	if err != nil {
		return fmt.Errorf("redis otp encode: %w", err)
	}

	ttl := pv.ExpiresAt.Sub(s.nowF()) + expiredRetention
	if ttl < time.Second {
		ttl = time.Second
	}

	if err := s.client.Set(ctx, s.prefix+pv.Identifier, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis otp set: %w", err)
	}
	return nil
}

// Delete removes the entry for identifier.
func (s *OTPStore) Delete(ctx context.Context, identifier string) error {
	if err := s.client.Del(ctx, s.prefix+identifier).Err(); err != nil {
		return fmt.Errorf("redis otp delete: %w", err)
	}
	return nil
}
