// internal/game/view.go
package game

import (
	"github.com/jason-s-yu/skygrid/internal/models"
)

// PublicPlayer is what every viewer of a room may know about one player.
type PublicPlayer struct {
	ID          string                        `json:"id"`
	Name        string                        `json:"name"`
	Connected   bool                          `json:"connected"`
	Total       int                           `json:"total"`
	ScoreRound  int                           `json:"scoreRound"`
	RevealedAll bool                          `json:"revealedAll"`
	IsTurn      bool                          `json:"isTurn"`
	GridPublic  [models.GridSize]*models.Card `json:"gridPublic"` // face-down slots are null
	FaceUp      []int                         `json:"faceUp"`
}

// PublicState is the room as broadcast to everyone in it.
type PublicState struct {
	Players      []PublicPlayer `json:"players"`
	DiscardTop   *models.Card   `json:"discardTop"`
	DrawCount    int            `json:"drawCount"`
	Turn         int            `json:"turn"`
	Started      bool           `json:"started"`
	EndedByIndex *int           `json:"endedByIndex"`
	RoundClosing bool           `json:"roundClosing"`
	TargetScore  int            `json:"targetScore"`
	Round        int            `json:"round"`
	Finished     bool           `json:"finished"`
}

// PrivateView is sent only to the owner of a grid.
type PrivateView struct {
	Grid   [models.GridSize]*models.Card `json:"grid"`
	FaceUp []int                         `json:"faceUp"`
}

// BuildPublicState projects room into the view shared by all its connections.
// Face-down values never leave the server through this view.
func BuildPublicState(room *models.Room) PublicState {
	st := PublicState{
		Players:      make([]PublicPlayer, 0, len(room.Players)),
		DiscardTop:   room.DiscardTop(),
		DrawCount:    len(room.Deck),
		Turn:         room.Turn,
		Started:      room.Started,
		EndedByIndex: room.EndedByIndex,
		RoundClosing: room.RoundClosing,
		TargetScore:  room.TargetScore,
		Round:        room.Round,
		Finished:     room.Finished,
	}
	for i, p := range room.Players {
		pp := PublicPlayer{
			ID:          p.ID,
			Name:        p.Name,
			Connected:   p.Connected,
			Total:       p.Total,
			ScoreRound:  p.ScoreRound,
			RevealedAll: p.RevealedAll,
			IsTurn:      room.Started && i == room.Turn,
			FaceUp:      faceUpOf(p),
		}
		for _, slot := range p.FaceUp {
			if models.ValidSlot(slot) && p.Grid[slot] != nil {
				pp.GridPublic[slot] = models.CardPtr(*p.Grid[slot])
			}
		}
		st.Players = append(st.Players, pp)
	}
	return st
}

// BuildPrivateView returns the owner's full grid and face-up set, or nil when the
// player is not seated in the room.
func BuildPrivateView(room *models.Room, playerID string) *PrivateView {
	p := room.FindPlayer(playerID)
	if p == nil {
		return nil
	}
	return &PrivateView{
		Grid:   p.Grid,
		FaceUp: faceUpOf(p),
	}
}

func faceUpOf(p *models.Player) []int {
	out := make([]int, len(p.FaceUp))
	copy(out, p.FaceUp)
	return out
}
