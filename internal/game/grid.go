// internal/game/grid.go
package game

import "github.com/jason-s-yu/skygrid/internal/models"

// ApplyColumnRemoval burns every fully revealed column whose three values are equal:
// the cards stay, their values become 0. Running it again is a no-op.
func ApplyColumnRemoval(p *models.Player) {
	for col := 0; col < models.GridColumns; col++ {
		slots := models.ColumnSlots(col)

		open := true
		for _, i := range slots {
			if !p.IsFaceUp(i) {
				open = false
				break
			}
		}
		if !open {
			continue
		}

		first := p.Grid[slots[0]]
		if first == nil {
			continue
		}
		equal := true
		for _, i := range slots[1:] {
			if p.Grid[i] == nil || *p.Grid[i] != *first {
				equal = false
				break
			}
		}
		if equal {
			for _, i := range slots {
				p.Grid[i] = models.CardPtr(0)
			}
		}
	}
}

// Reveal turns slot i face up. It reports whether the slot was face down before.
// RevealedAll is kept in step with the face-up count.
func Reveal(p *models.Player, i int) bool {
	if !models.ValidSlot(i) || p.IsFaceUp(i) {
		return false
	}
	p.FaceUp = append(p.FaceUp, i)
	p.RevealedAll = len(p.FaceUp) == models.GridSize
	return true
}

// RevealAll turns every remaining slot face up.
func RevealAll(p *models.Player) {
	for i := 0; i < models.GridSize; i++ {
		Reveal(p, i)
	}
}

// GridSum adds up the grid; empty slots count as 0.
func GridSum(p *models.Player) int {
	sum := 0
	for _, c := range p.Grid {
		if c != nil {
			sum += int(*c)
		}
	}
	return sum
}

// place writes card into slot i and returns the value it displaced, if any.
func place(p *models.Player, i int, card models.Card) (models.Card, bool) {
	old := p.Grid[i]
	p.Grid[i] = models.CardPtr(card)
	if old == nil {
		return 0, false
	}
	return *old, true
}
