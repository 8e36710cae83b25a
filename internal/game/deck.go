// internal/game/deck.go
package game

import (
	"github.com/jason-s-yu/skygrid/internal/models"
)

// BuildDeck expands every (value, count) pair of def and shuffles the result.
func (e *Engine) BuildDeck(def []models.DeckEntry) []models.Card {
	deck := make([]models.Card, 0, models.DeckSize(def))
	for _, entry := range def {
		for i := 0; i < entry.Count; i++ {
			deck = append(deck, entry.Value)
		}
	}
	e.Shuffle(deck)
	return deck
}

// Shuffle performs an in-place Fisher-Yates shuffle.
func (e *Engine) Shuffle(cards []models.Card) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := len(cards) - 1; i > 0; i-- {
		j := e.rng.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// Reshuffle turns the discard pile into a new draw pile. The current discard top
// stays behind as the only discard card.
func (e *Engine) Reshuffle(room *models.Room) {
	if len(room.Discard) == 0 {
		room.Discard = []models.Card{}
		return
	}
	last := len(room.Discard) - 1
	top := room.Discard[last]

	deck := make([]models.Card, last)
	copy(deck, room.Discard[:last])
	e.Shuffle(deck)

	room.Deck = append(room.Deck, deck...)
	room.Discard = []models.Card{top}
}

// drawFromDeck pops the last card of the draw pile, reshuffling first if it is empty.
func (e *Engine) drawFromDeck(room *models.Room) (models.Card, error) {
	if len(room.Deck) == 0 {
		e.Reshuffle(room)
	}
	if len(room.Deck) == 0 {
		return 0, ErrDeckExhausted
	}
	last := len(room.Deck) - 1
	card := room.Deck[last]
	room.Deck = room.Deck[:last]
	return card, nil
}

// popDiscard removes and returns the discard top.
func popDiscard(room *models.Room) (models.Card, bool) {
	if len(room.Discard) == 0 {
		return 0, false
	}
	last := len(room.Discard) - 1
	card := room.Discard[last]
	room.Discard = room.Discard[:last]
	return card, true
}
