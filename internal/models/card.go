// internal/models/card.go
package models

// Card is a SkyGrid card. Cards carry no identity beyond their value.
type Card int

// DeckEntry is one (value, count) pair of a deck definition.
type DeckEntry struct {
	Value Card `json:"v"`
	Count int  `json:"n"`
}

// DefaultDeck is the standard 150-card deck: -2 x5, -1 x10, 0 x15 and 1..12 x10 each.
func DefaultDeck() []DeckEntry {
	def := []DeckEntry{
		{Value: -2, Count: 5},
		{Value: -1, Count: 10},
		{Value: 0, Count: 15},
	}
	for v := 1; v <= 12; v++ {
		def = append(def, DeckEntry{Value: Card(v), Count: 10})
	}
	return def
}

// DeckSize returns the number of cards a definition expands to.
func DeckSize(def []DeckEntry) int {
	n := 0
	for _, e := range def {
		n += e.Count
	}
	return n
}

// CardPtr returns a pointer to a copy of c, for storing in a grid slot.
func CardPtr(c Card) *Card {
	return &c
}
