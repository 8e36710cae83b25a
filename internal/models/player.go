// internal/models/player.go
package models

const (
	// GridSize is the number of slots in a player's grid.
	GridSize = 12
	// GridColumns is the number of columns; column c holds slots c, c+4 and c+8.
	GridColumns = 4
	// GridRows is the number of rows.
	GridRows = 3
)

// Player is one seat in a room. Grid slots are nil until the first deal.
type Player struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Connected   bool            `json:"connected"`
	Grid        [GridSize]*Card `json:"grid"`
	FaceUp      []int           `json:"faceUp"`
	RevealedAll bool            `json:"revealedAll"`
	ScoreRound  int             `json:"scoreRound"`
	Total       int             `json:"total"`

	// Conn is the id of the connection holding the seat. Only that connection may act for the player.
	Conn string `json:"conn,omitempty"`
}

// IsFaceUp reports whether slot i has been revealed.
func (p *Player) IsFaceUp(i int) bool {
	for _, f := range p.FaceUp {
		if f == i {
			return true
		}
	}
	return false
}

// ColumnSlots returns the three slot indices of column c, top to bottom.
func ColumnSlots(c int) [GridRows]int {
	return [GridRows]int{c, c + GridColumns, c + 2*GridColumns}
}

// ValidSlot reports whether i addresses a grid slot.
func ValidSlot(i int) bool {
	return i >= 0 && i < GridSize
}
