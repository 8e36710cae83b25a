// internal/handlers/hub.go
package handlers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jason-s-yu/skygrid/internal/models"
	"github.com/jason-s-yu/skygrid/internal/store"
	"github.com/sirupsen/logrus"
)

// Hub fans room updates out to the clients connected to this process.
//
// The store calls Notify for every write to a room this process is subscribed to,
// whichever process made it. Notify only marks the room dirty; Run reloads dirty
// rooms and pushes a fresh state to each local client, so a burst of writes costs
// one reload per room.
type Hub struct {
	store  store.Store
	logger *logrus.Entry

	// subMu serializes Join and Leave so a room's subscription always matches whether
	// it has local clients.
	subMu sync.Mutex

	mu    sync.Mutex
	rooms map[string]map[*Client]struct{}
	seats map[string]map[string]*Client // room -> player -> connection holding the seat
	dirty map[string]struct{}
	wake  chan struct{}
}

// NewHub creates a hub and installs it as the store's notification callback.
func NewHub(s store.Store, logger *logrus.Logger) *Hub {
	h := &Hub{
		store:  s,
		logger: logger.WithField("component", "hub"),
		rooms:  make(map[string]map[*Client]struct{}),
		seats:  make(map[string]map[string]*Client),
		dirty:  make(map[string]struct{}),
		wake:   make(chan struct{}, 1),
	}
	s.SetNotifyFunc(h.Notify)
	return h
}

// Join registers c as a local viewer of roomID. The first local client subscribes
// this process to the room.
func (h *Hub) Join(ctx context.Context, roomID string, c *Client) error {
	h.subMu.Lock()
	defer h.subMu.Unlock()

	h.mu.Lock()
	clients, ok := h.rooms[roomID]
	if !ok {
		clients = make(map[*Client]struct{})
		h.rooms[roomID] = clients
	}
	clients[c] = struct{}{}
	first := len(clients) == 1
	h.mu.Unlock()

	if first {
		if err := h.store.Subscribe(ctx, roomID); err != nil {
			h.remove(roomID, c)
			return err
		}
	}
	return nil
}

// Leave removes c and frees any seat it holds. The last local client unsubscribes the process.
func (h *Hub) Leave(ctx context.Context, roomID string, c *Client) {
	h.subMu.Lock()
	defer h.subMu.Unlock()

	if last := h.remove(roomID, c); last {
		if err := h.store.Unsubscribe(ctx, roomID); err != nil {
			h.logger.WithField("room", roomID).Warnf("unsubscribe failed: %v", err)
		}
	}
}

// remove drops c from roomID and reports whether it was the room's last local client.
func (h *Hub) remove(roomID string, c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if seats := h.seats[roomID]; seats != nil {
		for playerID, owner := range seats {
			if owner == c {
				delete(seats, playerID)
			}
		}
		if len(seats) == 0 {
			delete(h.seats, roomID)
		}
	}

	clients, ok := h.rooms[roomID]
	if !ok {
		return false
	}
	if _, member := clients[c]; !member {
		return false
	}
	delete(clients, c)
	if len(clients) > 0 {
		return false
	}
	delete(h.rooms, roomID)
	return true
}

// Claim records c as the local connection holding playerID's seat and returns the
// connection that held it before, if any.
func (h *Hub) Claim(roomID, playerID string, c *Client) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	seats, ok := h.seats[roomID]
	if !ok {
		seats = make(map[string]*Client)
		h.seats[roomID] = seats
	}
	prev := seats[playerID]
	seats[playerID] = c
	if prev == c {
		return nil
	}
	return prev
}

// Notify marks roomID for a state push. It never blocks.
func (h *Hub) Notify(roomID string) {
	h.mu.Lock()
	h.dirty[roomID] = struct{}{}
	h.mu.Unlock()

	select {
	case h.wake <- struct{}{}:
	default:
	}
}

// Run pushes state for dirty rooms until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.wake:
		}

		h.mu.Lock()
		batch := h.dirty
		h.dirty = make(map[string]struct{})
		h.mu.Unlock()

		for roomID := range batch {
			h.refresh(ctx, roomID)
		}
	}
}

func (h *Hub) refresh(ctx context.Context, roomID string) {
	if !h.hasClients(roomID) {
		return
	}

	loadCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	room, err := h.store.Get(loadCtx, roomID)
	cancel()
	if errors.Is(err, store.ErrRoomNotFound) {
		return
	}
	if err != nil {
		h.logger.WithField("room", roomID).Errorf("failed to load room for broadcast: %v", err)
		return
	}
	h.BroadcastState(room)
}

func (h *Hub) hasClients(roomID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[roomID]) > 0
}

// BroadcastState sends every local client of the room the public state plus its own private view.
func (h *Hub) BroadcastState(room *models.Room) {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.rooms[room.ID]))
	for c := range h.rooms[room.ID] {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		_, playerID := c.Session()
		c.Send(newStateMessage(room, playerID))
	}
}
