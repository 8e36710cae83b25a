// internal/models/room.go
package models

// Room is the replicated state of one game session. It is the only shared
// mutable resource and is always read and written as a whole.
type Room struct {
	ID           string    `json:"id"`
	Players      []*Player `json:"players"`
	Deck         []Card    `json:"deck"`
	Discard      []Card    `json:"discard"`
	Turn         int       `json:"turn"`
	Started      bool      `json:"started"`
	EndedByIndex *int      `json:"endedByIndex"`
	RoundClosing bool      `json:"roundClosing"`
	TargetScore  int       `json:"targetScore"`

	// Round counts deals; zero before the first one.
	Round int `json:"round"`
	// Finished is set once a player reached TargetScore. Started is false from then on.
	Finished bool `json:"finished"`
}

// NewRoom returns an empty, not yet started room.
func NewRoom(id string, targetScore int) *Room {
	return &Room{
		ID:          id,
		Players:     []*Player{},
		Deck:        []Card{},
		Discard:     []Card{},
		TargetScore: targetScore,
	}
}

// PlayerIndex returns the turn-order index of the player, or -1.
func (r *Room) PlayerIndex(playerID string) int {
	for i, p := range r.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// FindPlayer returns the player with the given id, or nil.
func (r *Room) FindPlayer(playerID string) *Player {
	if i := r.PlayerIndex(playerID); i >= 0 {
		return r.Players[i]
	}
	return nil
}

// DiscardTop returns the top of the discard pile, or nil if it is empty.
func (r *Room) DiscardTop() *Card {
	if len(r.Discard) == 0 {
		return nil
	}
	return CardPtr(r.Discard[len(r.Discard)-1])
}
