// internal/store/store_test.go
package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jason-s-yu/skygrid/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

// notifications records NotifyFunc calls per room.
type notifications struct {
	mu    sync.Mutex
	count map[string]int
}

func newNotifications() *notifications {
	return &notifications{count: make(map[string]int)}
}

func (n *notifications) record(roomID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.count[roomID]++
}

func (n *notifications) get(roomID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.count[roomID]
}

func sampleRoom(id string) *models.Room {
	room := models.NewRoom(id, 100)
	room.Players = append(room.Players, &models.Player{ID: "p1", Name: "Alice", Connected: true, FaceUp: []int{}})
	room.Deck = []models.Card{1, 2, 3}
	room.Discard = []models.Card{-2}
	return room
}

// runStoreContract exercises the behavior every backend shares.
func runStoreContract(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("GetMissing", func(t *testing.T) {
		_, err := s.Get(ctx, "NOPE00")
		assert.ErrorIs(t, err, ErrRoomNotFound)
	})

	t.Run("SetThenGet", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "ROOMAA", sampleRoom("ignored")))

		room, err := s.Get(ctx, "ROOMAA")
		require.NoError(t, err)
		assert.Equal(t, "ROOMAA", room.ID, "stored id follows the key")
		require.Len(t, room.Players, 1)
		assert.Equal(t, "Alice", room.Players[0].Name)
		assert.Equal(t, []models.Card{1, 2, 3}, room.Deck)
		assert.Equal(t, []models.Card{-2}, room.Discard)
	})

	t.Run("UpdateWritesResult", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "ROOMBB", sampleRoom("ROOMBB")))

		written, err := s.Update(ctx, "ROOMBB", func(room *models.Room) error {
			room.Started = true
			room.Deck = room.Deck[1:]
			return nil
		})
		require.NoError(t, err)
		assert.True(t, written.Started)

		room, err := s.Get(ctx, "ROOMBB")
		require.NoError(t, err)
		assert.True(t, room.Started)
		assert.Equal(t, []models.Card{2, 3}, room.Deck)
	})

	t.Run("UpdateErrorWritesNothing", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "ROOMCC", sampleRoom("ROOMCC")))
		boom := errors.New("boom")

		_, err := s.Update(ctx, "ROOMCC", func(room *models.Room) error {
			room.Deck = nil
			room.Started = true
			return boom
		})
		assert.ErrorIs(t, err, boom)

		room, err := s.Get(ctx, "ROOMCC")
		require.NoError(t, err)
		assert.False(t, room.Started)
		assert.Len(t, room.Deck, 3)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		called := false
		_, err := s.Update(ctx, "NOPE01", func(room *models.Room) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, ErrRoomNotFound)
		assert.False(t, called)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "ROOMDD", sampleRoom("ROOMDD")))
		require.NoError(t, s.Delete(ctx, "ROOMDD"))
		_, err := s.Get(ctx, "ROOMDD")
		assert.ErrorIs(t, err, ErrRoomNotFound)
		assert.NoError(t, s.Delete(ctx, "ROOMDD"), "deleting twice is fine")
	})

	t.Run("ConcurrentUpdatesAreSerialized", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "ROOMEE", sampleRoom("ROOMEE")))

		const writers = 10
		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Update(ctx, "ROOMEE", func(room *models.Room) error {
					room.Round++
					return nil
				})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		room, err := s.Get(ctx, "ROOMEE")
		require.NoError(t, err)
		assert.Equal(t, writers, room.Round, "no update may be lost")
	})
}

// runNotifyContract checks that writes reach the NotifyFunc of a subscribed process
// and that unsubscribed rooms stay quiet.
func runNotifyContract(t *testing.T, s Store) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seen := newNotifications()
	s.SetNotifyFunc(seen.record)

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.NoError(t, s.Set(ctx, "ROOMNN", sampleRoom("ROOMNN")))
	require.NoError(t, s.Subscribe(ctx, "ROOMNN"))

	// Subscriptions may take a moment to become active on networked backends.
	require.Eventually(t, func() bool {
		_, err := s.Update(ctx, "ROOMNN", func(room *models.Room) error {
			room.Turn = 0
			return nil
		})
		return err == nil && seen.get("ROOMNN") > 0
	}, 5*time.Second, 50*time.Millisecond)

	require.NoError(t, s.Set(ctx, "ROOMQQ", sampleRoom("ROOMQQ")))
	require.NoError(t, s.Unsubscribe(ctx, "ROOMNN"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Zero(t, seen.get("ROOMQQ"), "unsubscribed room must not notify")
}
