// internal/store/redis_test.go
package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jason-s-yu/skygrid/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(context.Background(), rdb, testLogger())
	s.Retries = 100
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestRedisStore(t *testing.T) {
	s, _ := newTestRedisStore(t)
	runStoreContract(t, s)
}

func TestRedisStoreNotify(t *testing.T) {
	s, _ := newTestRedisStore(t)
	runNotifyContract(t, s)
}

func TestRedisStoreKeyLayout(t *testing.T) {
	s, mr := newTestRedisStore(t)
	require.NoError(t, s.Set(context.Background(), "ABC234", sampleRoom("ABC234")))

	raw, err := mr.Get("room:ABC234")
	require.NoError(t, err)
	assert.Contains(t, raw, `"id":"ABC234"`)
}

func TestRedisStoreReadsForeignWrites(t *testing.T) {
	s, mr := newTestRedisStore(t)
	require.NoError(t, mr.Set("room:XYZ789", `{"players":[],"deck":[5],"discard":[],"turn":0,"targetScore":50}`))

	room, err := s.Get(context.Background(), "XYZ789")
	require.NoError(t, err)
	assert.Equal(t, "XYZ789", room.ID)
	assert.Equal(t, []models.Card{5}, room.Deck)
	assert.Equal(t, 50, room.TargetScore)
}

func TestRedisStoreCorruptRoom(t *testing.T) {
	s, mr := newTestRedisStore(t)
	require.NoError(t, mr.Set("room:BAD000", "not json"))

	_, err := s.Get(context.Background(), "BAD000")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRoomNotFound)
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()
	logger := testLogger()

	s, err := Open(ctx, "", logger)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	mr := miniredis.RunT(t)
	s, err = Open(ctx, "redis://"+mr.Addr(), logger)
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, "mongodb://localhost", logger)
	assert.Error(t, err)
}
