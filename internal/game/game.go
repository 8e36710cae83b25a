// internal/game/game.go
package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/jason-s-yu/skygrid/internal/models"
)

// Phase is the room's position in the session state machine. It is derived from
// the room flags rather than stored.
type Phase string

const (
	PhaseNotStarted   Phase = "not_started"
	PhaseInProgress   Phase = "in_progress"
	PhaseRoundClosing Phase = "round_closing"
	PhaseGameOver     Phase = "game_over"
)

// PhaseOf derives the phase of room. Scoring happens inside the action that
// closes a round, so it is never observable between actions.
func PhaseOf(room *models.Room) Phase {
	switch {
	case room.Finished:
		return PhaseGameOver
	case !room.Started:
		return PhaseNotStarted
	case room.RoundClosing:
		return PhaseRoundClosing
	default:
		return PhaseInProgress
	}
}

// Engine applies SkyGrid rules to rooms. It holds no room state of its own, so one
// Engine serves every room in the process.
type Engine struct {
	Rules Rules

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// NewEngine builds an engine with a time-seeded random source.
func NewEngine(rules Rules) *Engine {
	return NewEngineWithSource(rules, rand.NewSource(time.Now().UnixNano()))
}

// NewEngineWithSource builds an engine drawing randomness from src. Tests pass a fixed seed.
func NewEngineWithSource(rules Rules, src rand.Source) *Engine {
	return &Engine{
		Rules: rules,
		rng:   rand.New(src),
	}
}

func (e *Engine) intn(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Intn(n)
}

// NewRoom creates an empty room. A non-positive targetScore selects the default.
func (e *Engine) NewRoom(id string, targetScore int) *models.Room {
	if targetScore <= 0 {
		targetScore = e.Rules.DefaultTargetScore
	}
	return models.NewRoom(id, targetScore)
}

// AddPlayer seats a new, connected player at the end of the turn order.
// Turn order is fixed once the game starts, so joining a running or finished game is refused.
func (e *Engine) AddPlayer(room *models.Room, id, name string) error {
	if room.Started {
		return refuse("The game is already in progress.")
	}
	if room.Finished {
		return refuse("The game is over.")
	}
	if len(room.Players) >= e.Rules.MaxPlayers() {
		return refuse("The room is full.")
	}
	if room.PlayerIndex(id) >= 0 {
		return refuse("Player already in room.")
	}
	if name == "" {
		name = "Player"
	}
	room.Players = append(room.Players, &models.Player{
		ID:        id,
		Name:      name,
		Connected: true,
		FaceUp:    []int{},
	})
	return nil
}

// Attach hands the player's seat to connection connID and marks the player connected.
// Whichever connection held the seat before can no longer act for the player.
func Attach(room *models.Room, playerID, connID string) error {
	p := room.FindPlayer(playerID)
	if p == nil {
		return ErrPlayerNotInRoom
	}
	p.Conn = connID
	p.Connected = true
	return nil
}

// Detach marks the player disconnected if connID still holds the seat. It never touches the turn.
func Detach(room *models.Room, playerID, connID string) error {
	if err := CheckSeat(room, playerID, connID); err != nil {
		return err
	}
	p := room.FindPlayer(playerID)
	p.Conn = ""
	p.Connected = false
	return nil
}

// CheckSeat returns ErrSeatTaken unless connID holds the player's seat.
func CheckSeat(room *models.Room, playerID, connID string) error {
	p := room.FindPlayer(playerID)
	if p == nil {
		return ErrPlayerNotInRoom
	}
	if p.Conn != connID {
		return ErrSeatTaken
	}
	return nil
}

// Start deals the first round.
func (e *Engine) Start(room *models.Room) error {
	if room.Started {
		return reject("The game is already running.")
	}
	if room.Finished {
		return refuse("The game is over.")
	}
	if len(room.Players) < e.Rules.MinPlayers {
		return refuse(minPlayersMessage(e.Rules.MinPlayers))
	}
	if len(room.Players) > e.Rules.MaxPlayers() {
		return refuse("Too many players for the deck.")
	}
	room.Started = true
	e.DealInitial(room)
	return nil
}

func minPlayersMessage(n int) string {
	if n == 1 {
		return "At least 1 player is required."
	}
	return fmt.Sprintf("At least %d players are required.", n)
}
