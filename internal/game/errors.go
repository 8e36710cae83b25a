// internal/game/errors.go
package game

import "errors"

// ErrDeckExhausted means a draw found both piles empty. The deck is sized so this cannot happen
// during normal play; callers treat it as fatal.
var ErrDeckExhausted = errors.New("draw pile and discard pile are both empty")

// ErrPlayerNotInRoom is returned when an action names a player the room does not contain.
var ErrPlayerNotInRoom = errors.New("player is not in this room")

// ErrSeatTaken is returned when a connection acts for a player whose seat has since been
// resumed on another connection.
var ErrSeatTaken = errors.New("seat is held by another connection")

// Level tells the transport which message type a rejection is delivered as.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Rejection is a rule violation. It is reported to the acting connection only;
// the room is left exactly as it was.
type Rejection struct {
	Level   Level
	Message string
}

func (r *Rejection) Error() string {
	return r.Message
}

func reject(msg string) *Rejection {
	return &Rejection{Level: LevelInfo, Message: msg}
}

func refuse(msg string) *Rejection {
	return &Rejection{Level: LevelError, Message: msg}
}

// AsRejection unwraps err into a *Rejection if it is one.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}
