package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ fiber.Storage = (*RedisStorage)(nil)

func newStorage(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStorage(client), mr
}

func TestRedisStorage_SetGetDelete(t *testing.T) {
	s, mr := newStorage(t)

	require.NoError(t, s.Set("10.0.0.1", []byte("3"), time.Minute))
	assert.True(t, mr.Exists("ratelimit:10.0.0.1"))

	val, err := s.Get("10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), val)

	require.NoError(t, s.Delete("10.0.0.1"))
	val, err = s.Get("10.0.0.1")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestRedisStorage_Expiry(t *testing.T) {
	s, mr := newStorage(t)

	require.NoError(t, s.Set("k", []byte("v"), 30*time.Second))
	mr.FastForward(31 * time.Second)

	val, err := s.Get("k")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestRedisStorage_ResetKeepsForeignKeys(t *testing.T) {
	s, mr := newStorage(t)

	require.NoError(t, mr.Set("other:key", "x"))
	require.NoError(t, s.Set("a", []byte("1"), 0))
	require.NoError(t, s.Set("b", []byte("2"), 0))

	require.NoError(t, s.Reset())

	assert.False(t, mr.Exists("ratelimit:a"))
	assert.False(t, mr.Exists("ratelimit:b"))
	assert.True(t, mr.Exists("other:key"))
}

func TestRedisStorage_GetError(t *testing.T) {
	s, mr := newStorage(t)
	mr.Close()

	_, err := s.Get("k")
	assert.Error(t, err)
}
