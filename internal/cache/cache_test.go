package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

func withMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	SetClient(rdb)
	t.Cleanup(func() {
		SetClient(nil)
		_ = rdb.Close()
	})
	return mr
}

func TestAside_NoClientAlwaysFetches(t *testing.T) {
	SetClient(nil)
	calls := 0
	var u cachedUser
	for i := 0; i < 2; i++ {
		err := Aside(context.Background(), UserKey(1), &u, UserTTL, func() error {
			calls++
			u = cachedUser{ID: 1, Username: "alice"}
			return nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
}

func TestAside_HitsCacheAfterFirstFetch(t *testing.T) {
	mr := withMiniredis(t)
	ctx := context.Background()
	calls := 0
	fetch := func(dest *cachedUser) func() error {
		return func() error {
			calls++
			*dest = cachedUser{ID: 1, Username: "alice"}
			return nil
		}
	}

	var first cachedUser
	require.NoError(t, Aside(ctx, UserKey(1), &first, UserTTL, fetch(&first)))
	var second cachedUser
	require.NoError(t, Aside(ctx, UserKey(1), &second, UserTTL, fetch(&second)))

	assert.Equal(t, 1, calls)
	assert.Equal(t, "alice", second.Username)
	assert.True(t, mr.Exists("user:1"))

	InvalidateUser(ctx, 1)
	assert.False(t, mr.Exists("user:1"))
}

func TestAside_FetchErrorIsNotCached(t *testing.T) {
	mr := withMiniredis(t)
	boom := errors.New("boom")
	var u cachedUser
	err := Aside(context.Background(), UserKey(2), &u, UserTTL, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("user:2"))
}

func TestSessionStorage(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()
	store := NewSessionStorage(rdb)

	val, err := store.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, store.Set("abc", []byte("payload"), time.Hour))
	assert.True(t, mr.Exists("session:abc"))

	val, err = store.Get("abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), val)

	require.NoError(t, store.Set("def", []byte("other"), time.Hour))
	require.NoError(t, store.Delete("abc"))
	assert.False(t, mr.Exists("session:abc"))

	require.NoError(t, mr.Set("unrelated", "keep"))
	require.NoError(t, store.Reset())
	assert.False(t, mr.Exists("session:def"))
	assert.True(t, mr.Exists("unrelated"))
	assert.NoError(t, store.Close())
}
