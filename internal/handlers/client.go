// internal/handlers/client.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/skygrid/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	sendQueueSize = 64
	writeTimeout  = 5 * time.Second
)

// errSlowClient is returned by Send when the client's queue is full.
var errSlowClient = errors.New("client send queue full")

// Client is one websocket connection. Outgoing messages go through a queue drained
// by a single writer so a player sees them in the order they were produced.
type Client struct {
	ID     uuid.UUID
	conn   *websocket.Conn
	logger *logrus.Entry
	send   chan []byte
	closed chan struct{}
	once   sync.Once

	mu       sync.Mutex
	roomID   string
	playerID string

	// pending is the card drawn with drawDeck and not yet placed. It lives only
	// here, never in the room, and is lost when the connection goes away.
	pending *models.Card
}

func newClient(conn *websocket.Conn, logger *logrus.Logger, remote string) *Client {
	id := uuid.New()
	return &Client{
		ID:     id,
		conn:   conn,
		logger: logger.WithFields(logrus.Fields{"client": id.String(), "remote": remote}),
		send:   make(chan []byte, sendQueueSize),
		closed: make(chan struct{}),
	}
}

// Session returns the room and player this connection is seated as. Both are empty
// before create, join or resume succeeded.
func (c *Client) Session() (roomID, playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID, c.playerID
}

func (c *Client) setSession(roomID, playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = roomID
	c.playerID = playerID
	c.logger = c.logger.WithFields(logrus.Fields{"room": roomID, "player": playerID})
}

// Log returns the client's logger, annotated with its session once it has one.
func (c *Client) Log() *logrus.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logger
}

// Send queues message for delivery. A client that cannot keep up is disconnected.
func (c *Client) Send(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		c.Log().Errorf("Error marshaling WebSocket message: %v", err)
		return err
	}
	select {
	case <-c.closed:
		return nil
	default:
	}
	select {
	case c.send <- data:
		return nil
	default:
		c.Log().Warn("send queue full, closing slow client")
		go c.Close(SlowClientError, "Client is not reading fast enough.")
		return errSlowClient
	}
}

func (c *Client) sendError(m string) { c.Send(errorMessage(m)) }
func (c *Client) sendInfo(m string)  { c.Send(infoMessage(m)) }

// Close closes the websocket once with the given status.
func (c *Client) Close(code websocket.StatusCode, reason string) {
	c.once.Do(func() {
		close(c.closed)
		c.conn.Close(code, reason)
	})
}

// writePump delivers queued messages until ctx is done or the client is closed.
// Every write has its own timeout.
func (c *Client) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		case data := <-c.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				status := websocket.CloseStatus(err)
				if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
					c.Log().Warnf("Error writing WebSocket message: %v (Status: %d)", err, status)
				}
				// the read loop notices the broken connection and cleans up
				return
			}
		}
	}
}
