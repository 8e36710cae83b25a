// internal/models/game_action.go
package models

// ActionType names a client message. The value is the `t` field on the wire.
type ActionType string

const (
	ActionCreate        ActionType = "create"
	ActionJoin          ActionType = "join"
	ActionResume        ActionType = "resume"
	ActionStart         ActionType = "start"
	ActionDrawDeck      ActionType = "drawDeck"
	ActionSwapWithDrawn ActionType = "swapWithDrawn"
	ActionRejectDrawn   ActionType = "rejectDrawn"
	ActionTakeDiscard   ActionType = "takeDiscard"
	ActionPing          ActionType = "ping"
)

// GameAction captures a player's in-game move after decoding.
type GameAction struct {
	Type  ActionType `json:"t"`
	Index int        `json:"index"`
}
