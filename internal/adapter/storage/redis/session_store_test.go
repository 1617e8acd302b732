package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_SaveAndLoad(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewSessionStore(client)
	ctx := context.Background()

	data, err := store.Load(ctx, "sess-1")
	assert.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, store.Save(ctx, "sess-1", []byte(`{"id":"sess-1"}`), time.Hour))

	data, err = store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"sess-1"}`, string(data))
	assert.True(t, s.Exists("session:sess-1"))
}

func TestSessionStore_TTLExpiry(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess-1", []byte("x"), time.Second))
	s.FastForward(2 * time.Second)

	data, err := store.Load(ctx, "sess-1")
	assert.NoError(t, err)
	assert.Nil(t, data, "expired session should return nil")
}

func TestSessionStore_Delete(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess-1", []byte("x"), 0))
	assert.Equal(t, time.Duration(0), s.TTL("session:sess-1"))

	require.NoError(t, store.Delete(ctx, "sess-1"))
	data, err := store.Load(ctx, "sess-1")
	assert.NoError(t, err)
	assert.Nil(t, data)
}
