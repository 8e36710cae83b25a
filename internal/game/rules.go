// internal/game/rules.go
package game

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jason-s-yu/skygrid/internal/models"
)

// Rules defines the configurable parts of a SkyGrid session.
type Rules struct {
	MinPlayers         int                `json:"minPlayers"`         // players required before start is accepted
	DefaultTargetScore int                `json:"defaultTargetScore"` // used when create omits targetScore
	Deck               []models.DeckEntry `json:"deck"`               // deck composition, rebuilt every round
}

// DefaultRules returns the standard rule set: two players minimum, 100 points, standard deck.
func DefaultRules() Rules {
	return Rules{
		MinPlayers:         2,
		DefaultTargetScore: 100,
		Deck:               models.DefaultDeck(),
	}
}

// MaxPlayers returns how many players the deck can deal a full grid to. Two cards stay
// out of the grids: the first discard and at least one card to draw, so the piles
// together always hold enough for a reshuffle to leave something on the draw pile.
func (r Rules) MaxPlayers() int {
	return (models.DeckSize(r.Deck) - 2) / models.GridSize
}

// Validate checks the rules for values that would make a game impossible.
func (r Rules) Validate() error {
	if r.MinPlayers < 1 {
		return fmt.Errorf("min players must be at least 1, got %d", r.MinPlayers)
	}
	if r.DefaultTargetScore <= 0 {
		return fmt.Errorf("default target score must be positive, got %d", r.DefaultTargetScore)
	}
	for _, e := range r.Deck {
		if e.Count < 0 {
			return fmt.Errorf("deck entry %d has negative count %d", e.Value, e.Count)
		}
	}
	if r.MaxPlayers() < r.MinPlayers {
		return fmt.Errorf("deck of %d cards cannot deal %d players", models.DeckSize(r.Deck), r.MinPlayers)
	}
	return nil
}

// ParseDeck parses a deck definition of the form "-2:5,-1:10,0:15,1:10".
func ParseDeck(s string) ([]models.DeckEntry, error) {
	var def []models.DeckEntry
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, n, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("deck entry %q: expected value:count", part)
		}
		value, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("deck entry %q: invalid value: %w", part, err)
		}
		count, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return nil, fmt.Errorf("deck entry %q: invalid count: %w", part, err)
		}
		if count < 0 {
			return nil, fmt.Errorf("deck entry %q: count must not be negative", part)
		}
		def = append(def, models.DeckEntry{Value: models.Card(value), Count: count})
	}
	if len(def) == 0 {
		return nil, fmt.Errorf("deck definition %q is empty", s)
	}
	return def, nil
}
