// internal/idgen/idgen.go
package idgen

import (
	"errors"
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

// RoomCodeAlphabet leaves out characters that are easy to confuse when read aloud (I, O, 0, 1).
const RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RoomCodeLength is the number of characters in a room code.
const RoomCodeLength = 6

// ErrInvalidRoomCode is returned by ValidateRoomCode.
var ErrInvalidRoomCode = errors.New("room code must be 6 characters from A-Z and 2-9, without I and O")

// RoomCode returns a random room code. Callers check it against existing rooms.
func RoomCode() string {
	var b strings.Builder
	b.Grow(RoomCodeLength)
	for i := 0; i < RoomCodeLength; i++ {
		b.WriteByte(RoomCodeAlphabet[rand.Intn(len(RoomCodeAlphabet))])
	}
	return b.String()
}

// NormalizeRoomCode upper-cases and trims user input.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateRoomCode checks an already normalized code.
func ValidateRoomCode(code string) error {
	if len(code) != RoomCodeLength {
		return ErrInvalidRoomCode
	}
	for _, ch := range code {
		if !strings.ContainsRune(RoomCodeAlphabet, ch) {
			return ErrInvalidRoomCode
		}
	}
	return nil
}

// PlayerID returns a new opaque player id.
func PlayerID() string {
	return uuid.NewString()
}
