// internal/store/store.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jason-s-yu/skygrid/internal/models"
)

var (
	// ErrRoomNotFound is returned when no room is stored under the requested id.
	ErrRoomNotFound = errors.New("room not found")
	// ErrConflict is returned when an Update kept losing its optimistic race.
	ErrConflict = errors.New("room was modified concurrently")
)

// UpdateFunc mutates a room inside Store.Update. Returning an error aborts the
// update and nothing is written.
type UpdateFunc func(room *models.Room) error

// NotifyFunc is called with a room id whenever a subscribed room was written,
// including writes made by this process. It must not block.
type NotifyFunc func(roomID string)

// Store persists rooms and tells subscribed processes when one changed.
// Writes are atomic per room id.
type Store interface {
	// Get loads a room, or returns ErrRoomNotFound.
	Get(ctx context.Context, roomID string) (*models.Room, error)
	// Set stores room unconditionally and notifies subscribers.
	Set(ctx context.Context, roomID string, room *models.Room) error
	// Delete removes a room. Deleting a missing room is not an error.
	Delete(ctx context.Context, roomID string) error
	// Update loads the room, applies fn and writes the result back atomically.
	// It returns the room as written.
	Update(ctx context.Context, roomID string, fn UpdateFunc) (*models.Room, error)

	// Subscribe starts delivering notifications for roomID to the NotifyFunc.
	Subscribe(ctx context.Context, roomID string) error
	// Unsubscribe stops them.
	Unsubscribe(ctx context.Context, roomID string) error
	// SetNotifyFunc installs the process-wide notification callback.
	SetNotifyFunc(fn NotifyFunc)
	// Run delivers notifications from other processes until ctx is done.
	Run(ctx context.Context) error

	Close() error
}

func roomKey(id string) string  { return "room:" + id }
func roomChan(id string) string { return "roomchan:" + id }

// encodeRoom and decodeRoom define the stored representation shared by every backend.
func encodeRoom(room *models.Room) ([]byte, error) {
	data, err := json.Marshal(room)
	if err != nil {
		return nil, fmt.Errorf("encode room %s: %w", room.ID, err)
	}
	return data, nil
}

func decodeRoom(roomID string, data []byte) (*models.Room, error) {
	var room models.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("decode room %s: %w", roomID, err)
	}
	if room.ID == "" {
		room.ID = roomID
	}
	return &room, nil
}
