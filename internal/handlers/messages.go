// internal/handlers/messages.go
package handlers

import (
	"github.com/jason-s-yu/skygrid/internal/game"
	"github.com/jason-s-yu/skygrid/internal/models"
)

// envelope is decoded first to find out which typed message follows.
type envelope struct {
	T models.ActionType `json:"t"`
}

type createMessage struct {
	Name        string `json:"name"`
	TargetScore int    `json:"targetScore"`
}

type joinMessage struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

type resumeMessage struct {
	Token string `json:"token"`
}

// moveMessage carries the grid position of swapWithDrawn, rejectDrawn and takeDiscard.
// A missing index decodes to nil and is treated as out of range.
type moveMessage struct {
	Index *int `json:"index"`
}

// gameAction converts a decoded move into the model used by the game server.
func (m moveMessage) gameAction(t models.ActionType) models.GameAction {
	idx := -1
	if m.Index != nil {
		idx = *m.Index
	}
	return models.GameAction{Type: t, Index: idx}
}

// Server to client messages.

type sessionMessage struct {
	T        string `json:"t"` // created, joined or resumed
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
	Token    string `json:"token"`
}

type stateMessage struct {
	T      string            `json:"t"`
	RoomID string            `json:"roomId"`
	State  game.PublicState  `json:"state"`
	You    *game.PrivateView `json:"you"`
}

type drewMessage struct {
	T    string      `json:"t"`
	Card models.Card `json:"card"`
}

// noticeMessage is an error or info line shown to one player.
type noticeMessage struct {
	T string `json:"t"`
	M string `json:"m"`
}

type pongMessage struct {
	T string `json:"t"`
}

func newStateMessage(room *models.Room, playerID string) stateMessage {
	return stateMessage{
		T:      "state",
		RoomID: room.ID,
		State:  game.BuildPublicState(room),
		You:    game.BuildPrivateView(room, playerID),
	}
}

func errorMessage(m string) noticeMessage { return noticeMessage{T: "error", M: m} }
func infoMessage(m string) noticeMessage  { return noticeMessage{T: "info", M: m} }
