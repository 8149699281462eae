package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()

	server := miniredis.RunT(t)

	return NewRedisStore(redis.NewClient(&redis.Options{Addr: server.Addr()}))
}

func TestRedisStoreGetSetDelete(t *testing.T) {
	ctx := context.Background()
	kv := newTestRedisStore(t)

	_, err := kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, kv.Set(ctx, "key", []byte("value")))

	value, err := kv.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), value)

	require.NoError(t, kv.Delete(ctx, "key"))

	_, err = kv.Get(ctx, "key")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestRedisStoreGetDelConsumes(t *testing.T) {
	ctx := context.Background()
	kv := newTestRedisStore(t)

	require.NoError(t, kv.Set(ctx, "pause", []byte("state")))

	value, err := kv.GetDel(ctx, "pause")
	require.NoError(t, err)
	assert.Equal(t, []byte("state"), value)

	_, err = kv.GetDel(ctx, "pause")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestRedisStoreScanKeys(t *testing.T) {
	ctx := context.Background()
	kv := newTestRedisStore(t)

	require.NoError(t, kv.Set(ctx, StateKeyPrefix+"one", []byte("1")))
	require.NoError(t, kv.Set(ctx, StateKeyPrefix+"two", []byte("2")))
	require.NoError(t, kv.Set(ctx, ConfigKeyPrefix+"three", []byte("3")))

	keys, err := kv.ScanKeys(ctx, StateKeyPrefix)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{StateKeyPrefix + "one", StateKeyPrefix + "two"}, keys)
}

func TestRedisStoreMultiGet(t *testing.T) {
	ctx := context.Background()
	kv := newTestRedisStore(t)

	require.NoError(t, kv.Set(ctx, "a", []byte("1")))
	require.NoError(t, kv.Set(ctx, "c", []byte("3")))

	values, err := kv.MultiGet(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, values, 3)
	assert.Equal(t, []byte("1"), values[0])
	assert.Nil(t, values[1])
	assert.Equal(t, []byte("3"), values[2])
}

func TestNewRedisStoreFromURLRejectsBadURL(t *testing.T) {
	_, err := NewRedisStoreFromURL("http://not-redis")
	require.Error(t, err)
}
