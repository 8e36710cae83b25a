// internal/handlers/hub_test.go
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/jason-s-yu/skygrid/internal/game"
	"github.com/jason-s-yu/skygrid/internal/models"
	"github.com/jason-s-yu/skygrid/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// queuedClient is a client without a connection; tests read its send queue directly.
func queuedClient(roomID, playerID string) *Client {
	c := newClient(nil, quietLogger(), "test")
	c.setSession(roomID, playerID)
	return c
}

func nextQueued(t *testing.T, c *Client) stateMessage {
	select {
	case data := <-c.send:
		var msg stateMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message queued")
		return stateMessage{}
	}
}

func assertQuiet(t *testing.T, c *Client) {
	select {
	case data := <-c.send:
		t.Fatalf("unexpected message: %s", data)
	case <-time.After(100 * time.Millisecond):
	}
}

func seededRoom(t *testing.T, s store.Store, id string) {
	e := game.NewEngine(game.DefaultRules())
	room := e.NewRoom(id, 0)
	require.NoError(t, e.AddPlayer(room, "p1", "Alice"))
	require.NoError(t, e.AddPlayer(room, "p2", "Bob"))
	require.NoError(t, s.Set(context.Background(), id, room))
}

func TestHubPushesTailoredState(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := store.NewMemoryStore()
	h := NewHub(s, quietLogger())
	seededRoom(t, s, "ROOM01")

	alice, bob := queuedClient("ROOM01", "p1"), queuedClient("ROOM01", "p2")
	require.NoError(t, h.Join(ctx, "ROOM01", alice))
	require.NoError(t, h.Join(ctx, "ROOM01", bob))
	go h.Run(ctx)

	h.Notify("ROOM01")

	a, b := nextQueued(t, alice), nextQueued(t, bob)
	assert.Equal(t, "state", a.T)
	assert.Equal(t, "ROOM01", a.RoomID)
	require.Len(t, a.State.Players, 2)
	require.NotNil(t, a.You)
	require.NotNil(t, b.You)
	assert.Equal(t, a.State, b.State, "everyone sees the same public state")
}

func TestHubCoalescesNotifications(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := store.NewMemoryStore()
	h := NewHub(s, quietLogger())
	seededRoom(t, s, "ROOM01")

	c := queuedClient("ROOM01", "p1")
	require.NoError(t, h.Join(ctx, "ROOM01", c))

	for i := 0; i < 20; i++ {
		h.Notify("ROOM01")
	}
	go h.Run(ctx)

	nextQueued(t, c)
	assertQuiet(t, c)
}

func TestHubFollowsStoreWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := store.NewMemoryStore()
	h := NewHub(s, quietLogger())
	seededRoom(t, s, "ROOM01")
	go h.Run(ctx)

	c := queuedClient("ROOM01", "p1")
	require.NoError(t, h.Join(ctx, "ROOM01", c))

	_, err := s.Update(ctx, "ROOM01", func(room *models.Room) error {
		room.TargetScore = 42
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, nextQueued(t, c).State.TargetScore)

	h.Leave(ctx, "ROOM01", c)
	require.NoError(t, s.Set(ctx, "ROOM01", &models.Room{}))
	assertQuiet(t, c)
}

func TestHubIgnoresRoomsWithoutClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := store.NewMemoryStore()
	h := NewHub(s, quietLogger())
	seededRoom(t, s, "ROOM01")
	seededRoom(t, s, "ROOM02")
	go h.Run(ctx)

	c := queuedClient("ROOM01", "p1")
	require.NoError(t, h.Join(ctx, "ROOM01", c))

	h.Notify("ROOM02")
	h.Notify("MISSING")
	assertQuiet(t, c)
}

// gatedStore holds Unsubscribe until release is closed.
type gatedStore struct {
	*store.MemoryStore
	unsubscribing chan struct{}
	release       chan struct{}
}

func (s *gatedStore) Unsubscribe(ctx context.Context, roomID string) error {
	close(s.unsubscribing)
	<-s.release
	return s.MemoryStore.Unsubscribe(ctx, roomID)
}

func TestHubRejoinWhileLastClientLeaves(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &gatedStore{
		MemoryStore:   store.NewMemoryStore(),
		unsubscribing: make(chan struct{}),
		release:       make(chan struct{}),
	}
	h := NewHub(s, quietLogger())
	seededRoom(t, s, "ROOM01")
	go h.Run(ctx)

	old := queuedClient("ROOM01", "p1")
	require.NoError(t, h.Join(ctx, "ROOM01", old))

	left := make(chan struct{})
	go func() {
		h.Leave(ctx, "ROOM01", old)
		close(left)
	}()
	<-s.unsubscribing

	fresh := queuedClient("ROOM01", "p1")
	joined := make(chan error, 1)
	go func() { joined <- h.Join(ctx, "ROOM01", fresh) }()

	time.Sleep(50 * time.Millisecond)
	close(s.release)
	<-left
	require.NoError(t, <-joined)

	_, err := s.Update(ctx, "ROOM01", func(room *models.Room) error {
		room.TargetScore = 42
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, nextQueued(t, fresh).State.TargetScore)
}

func TestHubSeatClaims(t *testing.T) {
	ctx := context.Background()
	h := NewHub(store.NewMemoryStore(), quietLogger())
	first, second := queuedClient("ROOM01", "p1"), queuedClient("ROOM01", "p1")
	require.NoError(t, h.Join(ctx, "ROOM01", first))
	require.NoError(t, h.Join(ctx, "ROOM01", second))

	assert.Nil(t, h.Claim("ROOM01", "p1", first))
	assert.Nil(t, h.Claim("ROOM01", "p1", first), "claiming an owned seat again changes nothing")
	assert.Same(t, first, h.Claim("ROOM01", "p1", second))

	// the replaced connection leaving does not free the seat
	h.Leave(ctx, "ROOM01", first)
	third := queuedClient("ROOM01", "p1")
	require.NoError(t, h.Join(ctx, "ROOM01", third))
	assert.Same(t, second, h.Claim("ROOM01", "p1", third))

	h.Leave(ctx, "ROOM01", third)
	assert.Nil(t, h.Claim("ROOM01", "p1", second), "the seat is free once its owner left")
}
