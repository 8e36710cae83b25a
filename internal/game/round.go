// internal/game/round.go
package game

import (
	"github.com/jason-s-yu/skygrid/internal/models"
)

// DealInitial starts a round: fresh shuffled deck, 12 cards per player with two of
// them face up, one card on the discard pile and a random starting player.
func (e *Engine) DealInitial(room *models.Room) {
	room.Deck = e.BuildDeck(e.Rules.Deck)
	room.Discard = []models.Card{}

	for _, p := range room.Players {
		for i := 0; i < models.GridSize; i++ {
			p.Grid[i] = models.CardPtr(room.Deck[i])
		}
		room.Deck = room.Deck[models.GridSize:]
		p.FaceUp = []int{}
		p.RevealedAll = false
		p.ScoreRound = 0
	}

	// two distinct starting cards per player
	for _, p := range room.Players {
		a := e.intn(models.GridSize)
		b := e.intn(models.GridSize - 1)
		if b >= a {
			b++
		}
		Reveal(p, a)
		Reveal(p, b)
	}

	last := len(room.Deck) - 1
	room.Discard = append(room.Discard, room.Deck[last])
	room.Deck = room.Deck[:last]

	room.Turn = e.intn(len(room.Players))
	room.EndedByIndex = nil
	room.RoundClosing = false
	room.Round++
}

// EndRound reveals and scores every grid, applies the round-ender penalty and adds
// the round scores to the totals. It deals the next round unless someone reached
// the target score, in which case the game is over and EndRound returns true.
func (e *Engine) EndRound(room *models.Room) bool {
	for _, p := range room.Players {
		RevealAll(p)
		ApplyColumnRemoval(p)
		p.ScoreRound = GridSum(p)
	}

	if room.EndedByIndex != nil && *room.EndedByIndex >= 0 && *room.EndedByIndex < len(room.Players) {
		applyEnderPenalty(room.Players, *room.EndedByIndex)
	}

	gameOver := false
	for _, p := range room.Players {
		p.Total += p.ScoreRound
		if p.Total >= room.TargetScore {
			gameOver = true
		}
	}

	if gameOver {
		room.Started = false
		room.Finished = true
		return true
	}
	e.DealInitial(room)
	return false
}

// applyEnderPenalty doubles the round ender's score when it is positive and not the
// lowest of the round.
func applyEnderPenalty(players []*models.Player, ender int) {
	lowest := players[0].ScoreRound
	for _, p := range players[1:] {
		if p.ScoreRound < lowest {
			lowest = p.ScoreRound
		}
	}
	p := players[ender]
	if p.ScoreRound > lowest && p.ScoreRound > 0 {
		p.ScoreRound *= 2
	}
}
