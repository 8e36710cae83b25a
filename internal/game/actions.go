// internal/game/actions.go
package game

import "github.com/jason-s-yu/skygrid/internal/models"

// Outcome describes what a resolving action did beyond the move itself.
type Outcome struct {
	RoundClosing bool // the actor just revealed their 12th card and opened the closing window
	RoundEnded   bool // play came back to the round-ending player and the round was scored
	GameOver     bool // the scored round pushed someone to the target score
}

// checkTurn enforces the two preconditions shared by every move: the game is running
// and it is idx's turn.
func checkTurn(room *models.Room, idx int) *Rejection {
	if !room.Started {
		return reject("The game has not started.")
	}
	if idx < 0 || idx >= len(room.Players) {
		return refuse("You are not in this room.")
	}
	if room.Turn != idx {
		return reject("It is not your turn.")
	}
	return nil
}

// DrawDeck pops the next card of the draw pile for the player at idx. The card is
// returned to the caller to hold as the connection's pending card; it is not
// recorded anywhere in the room. The turn does not change.
func (e *Engine) DrawDeck(room *models.Room, idx int, hasPending bool) (models.Card, error) {
	if r := checkTurn(room, idx); r != nil {
		return 0, r
	}
	if hasPending {
		return 0, reject("You already drew a card. Place it or discard it.")
	}
	return e.drawFromDeck(room)
}

// SwapWithDrawn puts the pending card into slot index, discarding whatever was there.
func (e *Engine) SwapWithDrawn(room *models.Room, idx int, pending *models.Card, index int) (Outcome, error) {
	if r := checkTurn(room, idx); r != nil {
		return Outcome{}, r
	}
	if pending == nil {
		return Outcome{}, reject("Draw a card first.")
	}
	if !models.ValidSlot(index) {
		return Outcome{}, reject("Invalid grid position.")
	}

	me := room.Players[idx]
	if out, ok := place(me, index, *pending); ok {
		room.Discard = append(room.Discard, out)
	}
	Reveal(me, index)
	return e.resolve(room, idx), nil
}

// RejectDrawn discards the pending card and reveals the face-down slot index instead.
func (e *Engine) RejectDrawn(room *models.Room, idx int, pending *models.Card, index int) (Outcome, error) {
	if r := checkTurn(room, idx); r != nil {
		return Outcome{}, r
	}
	if pending == nil {
		return Outcome{}, reject("Draw a card first.")
	}
	me := room.Players[idx]
	if !models.ValidSlot(index) || me.IsFaceUp(index) {
		return Outcome{}, reject("Choose one of your face-down cards to reveal.")
	}

	room.Discard = append(room.Discard, *pending)
	Reveal(me, index)
	return e.resolve(room, idx), nil
}

// TakeDiscard moves the discard top into slot index, discarding whatever was there.
// It is a complete move on its own and needs no prior draw; a connection that is
// still holding a drawn card has to resolve that card first.
func (e *Engine) TakeDiscard(room *models.Room, idx int, hasPending bool, index int) (Outcome, error) {
	if r := checkTurn(room, idx); r != nil {
		return Outcome{}, r
	}
	if hasPending {
		return Outcome{}, reject("You already drew a card. Place it or discard it.")
	}
	if !models.ValidSlot(index) {
		return Outcome{}, reject("Invalid grid position.")
	}
	card, ok := popDiscard(room)
	if !ok {
		return Outcome{}, reject("The discard pile is empty.")
	}

	me := room.Players[idx]
	if out, ok := place(me, index, card); ok {
		room.Discard = append(room.Discard, out)
	}
	Reveal(me, index)
	return e.resolve(room, idx), nil
}

// resolve finishes every placing move: burn columns, record the round ender on their
// 12th reveal, then pass the turn. When the turn comes back around to the round
// ender the round is scored immediately.
func (e *Engine) resolve(room *models.Room, idx int) Outcome {
	var out Outcome
	me := room.Players[idx]
	ApplyColumnRemoval(me)

	if me.RevealedAll && room.EndedByIndex == nil {
		ender := idx
		room.EndedByIndex = &ender
		room.RoundClosing = true
		out.RoundClosing = true
	}

	room.Turn = (room.Turn + 1) % len(room.Players)

	if room.RoundClosing && room.EndedByIndex != nil && room.Turn == *room.EndedByIndex {
		out.RoundEnded = true
		out.GameOver = e.EndRound(room)
	}
	return out
}
