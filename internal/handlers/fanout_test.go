// internal/handlers/fanout_test.go
package handlers

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jason-s-yu/skygrid/internal/auth"
	"github.com/jason-s-yu/skygrid/internal/game"
	"github.com/jason-s-yu/skygrid/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRedisNodes starts n game servers sharing one Redis. Each has its own store
// connection and hub, as separate processes would.
func newRedisNodes(t *testing.T, n int) []*testEnv {
	require.NoError(t, auth.Init("", 0))
	mr := miniredis.RunT(t)

	ctx, cancel := context.WithCancel(context.Background())
	nodes := make([]*testEnv, n)
	for i := range nodes {
		logger := quietLogger()
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		s := store.NewRedisStore(ctx, rdb, logger)
		s.Retries = 100
		gs := NewGameServer(s, game.NewEngine(game.DefaultRules()), logger)

		go s.Run(ctx)
		go gs.Hub.Run(ctx)

		srv := httptest.NewServer(NewMux(logger, gs))
		t.Cleanup(func() {
			srv.Close()
			s.Close()
		})
		nodes[i] = &testEnv{srv: srv, gs: gs}
	}
	t.Cleanup(cancel)
	return nodes
}

func TestRedisFanOutAcrossNodes(t *testing.T) {
	nodes := newRedisNodes(t, 2)
	a, b := dial(t, nodes[0]), dial(t, nodes[1])

	created := createRoom(t, a, "Alice")
	joinRoom(t, b, created.RoomID, "Bob")

	// Bob's join was written by the other node
	st := readState(t, a, func(s *game.PublicState) bool { return len(s.Players) == 2 })
	assert.Equal(t, "Bob", st.State.Players[1].Name)

	send(t, b, map[string]interface{}{"t": "start"})
	started := func(s *game.PublicState) bool { return s.Started }
	stA := readState(t, a, started)
	stB := readState(t, b, started)
	assert.Equal(t, stA.State, stB.State)
	assert.NotEqual(t, stA.You, stB.You, "each node sends its own player's grid")
}

func TestResumeOnAnotherNodeCutsOffOldConnection(t *testing.T) {
	nodes := newRedisNodes(t, 2)
	a := dial(t, nodes[0])
	created := createRoom(t, a, "Alice")

	again := dial(t, nodes[1])
	send(t, again, map[string]interface{}{"t": "resume", "token": created.Token})
	require.Equal(t, "resumed", read(t, again).T)

	// the first node learns of the takeover on its next action
	send(t, a, map[string]interface{}{"t": "start"})
	assert.Equal(t, SessionReplacedError, readUntilClosed(t, a))

	assert.Never(t, func() bool {
		room, err := nodes[1].gs.Store.Get(context.Background(), created.RoomID)
		return err != nil || !room.Players[0].Connected
	}, 300*time.Millisecond, 20*time.Millisecond)

	send(t, again, map[string]interface{}{"t": "ping"})
	assert.Equal(t, "pong", readNext(t, again).T)
}
