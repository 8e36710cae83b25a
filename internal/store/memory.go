// internal/store/memory.go
package store

import (
	"context"
	"sync"

	"github.com/jason-s-yu/skygrid/internal/models"
)

// MemoryStore keeps rooms in process memory. It is the single-node store used when
// no backing store is configured. Rooms are held encoded, so a caller can never
// mutate stored state except through Set or Update.
type MemoryStore struct {
	mu         sync.Mutex
	rooms      map[string][]byte
	locks      map[string]*sync.Mutex // one writer per room
	subscribed map[string]bool
	notify     NotifyFunc
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:      make(map[string][]byte),
		locks:      make(map[string]*sync.Mutex),
		subscribed: make(map[string]bool),
	}
}

func (s *MemoryStore) roomLock(roomID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[roomID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[roomID] = l
	}
	return l
}

func (s *MemoryStore) Get(ctx context.Context, roomID string) (*models.Room, error) {
	s.mu.Lock()
	data, ok := s.rooms[roomID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrRoomNotFound
	}
	return decodeRoom(roomID, data)
}

func (s *MemoryStore) Set(ctx context.Context, roomID string, room *models.Room) error {
	l := s.roomLock(roomID)
	l.Lock()
	err := s.write(roomID, room)
	l.Unlock()
	if err != nil {
		return err
	}
	s.fire(roomID)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, roomID string) error {
	l := s.roomLock(roomID)
	l.Lock()
	defer l.Unlock()
	s.mu.Lock()
	delete(s.rooms, roomID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, roomID string, fn UpdateFunc) (*models.Room, error) {
	l := s.roomLock(roomID)
	l.Lock()

	room, err := s.Get(ctx, roomID)
	if err != nil {
		l.Unlock()
		return nil, err
	}
	if err := fn(room); err != nil {
		l.Unlock()
		return nil, err
	}
	if err := s.write(roomID, room); err != nil {
		l.Unlock()
		return nil, err
	}
	l.Unlock()

	s.fire(roomID)
	return room, nil
}

func (s *MemoryStore) write(roomID string, room *models.Room) error {
	room.ID = roomID
	data, err := encodeRoom(room)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.rooms[roomID] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) fire(roomID string) {
	s.mu.Lock()
	fn := s.notify
	sub := s.subscribed[roomID]
	s.mu.Unlock()
	if fn != nil && sub {
		fn(roomID)
	}
}

func (s *MemoryStore) Subscribe(ctx context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribed[roomID] = true
	return nil
}

func (s *MemoryStore) Unsubscribe(ctx context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscribed, roomID)
	return nil
}

func (s *MemoryStore) SetNotifyFunc(fn NotifyFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = fn
}

// Run blocks until ctx is done. Every write happens in this process, so there is nothing to listen to.
func (s *MemoryStore) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
