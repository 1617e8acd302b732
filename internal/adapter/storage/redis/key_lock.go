package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still holds our token, so a
// holder whose lock already expired cannot release someone else's.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// KeyLock implements ports.KeyLock using Redis SET NX with a TTL. The
// prefix keeps lock families apart.
type KeyLock struct {
	client *goredis.Client
	prefix string

	mu     sync.Mutex
	tokens map[string]string
}

// NewKeyLock creates a Redis-backed lock whose keys live under prefix.
func NewKeyLock(client *goredis.Client, prefix string) *KeyLock {
	return &KeyLock{
		client: client,
		prefix: prefix,
		tokens: make(map[string]string),
	}
}

// NewBookingLock guards one booking reference across instances.
func NewBookingLock(client *goredis.Client) *KeyLock {
	return NewKeyLock(client, "booking-lock:")
}

// NewOTPLock serializes work on one phone number across instances.
func NewOTPLock(client *goredis.Client) *KeyLock {
	return NewKeyLock(client, "otp-lock:")
}

// Acquire atomically takes the lock for key.
// Returns true if taken, false if another holder already has it.
func (l *KeyLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token := uuid.NewString()
	result, err := l.client.SetArgs(ctx, l.prefix+key, token, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if isNil(err) {
			return false, nil
		}
		return false, fmt.Errorf("redis lock acquire: %w", err)
	}
	if result != "OK" {
		return false, nil
	}

	l.mu.Lock()
	l.tokens[key] = token
	l.mu.Unlock()
	return true, nil
}

// Release drops the lock if this instance still holds it.
func (l *KeyLock) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	token, ok := l.tokens[key]
	delete(l.tokens, key)
	l.mu.Unlock()
	if !ok {
		return nil
	}

	if err := releaseScript.Run(ctx, l.client, []string{l.prefix + key}, token).Err(); err != nil && !isNil(err) {
		return fmt.Errorf("redis lock release: %w", err)
	}
	return nil
}
