package redis

import (
	"context"
	"testing"
	"time"

	"railpass-gateway/internal/core/domain"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOTPStore_PutAndGet(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewOTPStore(client)
	ctx := context.Background()

	got, err := store.Get(ctx, "+254700000001")
	require.NoError(t, err)
	assert.Nil(t, got)

	now := time.Now().UTC().Truncate(time.Second)
	pv := domain.NewPendingVerification("+254700000001", "123456", now, 10*time.Minute)
	pv.Attempts = 1
	require.NoError(t, store.Put(ctx, pv))

	got, err = store.Get(ctx, "+254700000001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "123456", got.Code)
	assert.Equal(t, 1, got.Attempts)
	assert.True(t, pv.ExpiresAt.Equal(got.ExpiresAt))
}

func TestOTPStore_TTLCoversRetention(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewOTPStore(client)
	ctx := context.Background()

	now := time.Now()
	store.nowF = func() time.Time { return now }
	require.NoError(t, store.Put(ctx, domain.NewPendingVerification("+254700000001", "123456", now, 10*time.Minute)))

	ttl := s.TTL("otp:+254700000001")
	assert.Equal(t, 10*time.Minute+expiredRetention, ttl)

	s.FastForward(30 * time.Minute)
	got, err := store.Get(ctx, "+254700000001")
	require.NoError(t, err)
	require.NotNil(t, got, "expired entry is retained so it can be reported as expired")

	s.FastForward(time.Hour)
	got, err = store.Get(ctx, "+254700000001")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOTPStore_PutAlreadyExpired(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewOTPStore(client)
	ctx := context.Background()

	now := time.Now()
	store.nowF = func() time.Time { return now }
	require.NoError(t, store.Put(ctx, domain.NewPendingVerification("+254700000001", "123456", now.Add(-5*time.Hour), time.Minute)))

	assert.Equal(t, time.Second, s.TTL("otp:+254700000001"))
}

func TestOTPStore_Delete(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewOTPStore(client)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, domain.NewPendingVerification("+254700000001", "123456", time.Now(), time.Minute)))
	require.NoError(t, store.Delete(ctx, "+254700000001"))

	got, err := store.Get(ctx, "+254700000001")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, store.Delete(ctx, "+254700000001"))
}

func TestOTPStore_CorruptValue(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewOTPStore(client)

	require.NoError(t, s.Set("otp:+254700000001", "{not json"))

	_, err := store.Get(context.Background(), "+254700000001")
	assert.Error(t, err)
}
