// internal/handlers/game_server.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jason-s-yu/skygrid/internal/auth"
	"github.com/jason-s-yu/skygrid/internal/game"
	"github.com/jason-s-yu/skygrid/internal/idgen"
	"github.com/jason-s-yu/skygrid/internal/models"
	"github.com/jason-s-yu/skygrid/internal/store"
	"github.com/sirupsen/logrus"
)

// roomCodeAttempts bounds the search for an unused room code.
const roomCodeAttempts = 10

const msgUnavailable = "server unavailable, please retry"

// GameServer applies client actions to rooms in the store. It holds no room state
// itself; every action is one atomic store update.
type GameServer struct {
	Store  store.Store
	Engine *game.Engine
	Hub    *Hub
	Logger *logrus.Logger
}

// NewGameServer wires a game server and its hub to s.
func NewGameServer(s store.Store, engine *game.Engine, logger *logrus.Logger) *GameServer {
	return &GameServer{
		Store:  s,
		Engine: engine,
		Hub:    NewHub(s, logger),
		Logger: logger,
	}
}

// errFatal marks failures after which the connection must be closed.
var errFatal = errors.New("fatal game error")

// report tells the client why an action failed. Rule violations are expected and go
// to the client only; everything else is logged. A returned error means the
// connection has to be closed, as it does once the seat was resumed elsewhere.
// A nil err reports nothing.
func (gs *GameServer) report(c *Client, action models.ActionType, err error) error {
	if err == nil {
		return nil
	}
	if r, ok := game.AsRejection(err); ok {
		if r.Level == game.LevelInfo {
			c.sendInfo(r.Message)
		} else {
			c.sendError(r.Message)
		}
		return nil
	}

	log := c.Log().WithField("action", action)
	switch {
	case errors.Is(err, store.ErrRoomNotFound):
		c.sendError("Room not found.")
		return nil
	case errors.Is(err, game.ErrPlayerNotInRoom):
		c.sendError("You are not in this room.")
		return nil
	case errors.Is(err, game.ErrSeatTaken):
		log.Info("seat resumed elsewhere, dropping connection")
		return err
	case errors.Is(err, game.ErrDeckExhausted):
		log.Errorf("invariant violated: %v", err)
		return fmt.Errorf("%w: %v", errFatal, err)
	default:
		log.Errorf("action failed: %v", err)
		c.sendError(msgUnavailable)
		return nil
	}
}

// seat attaches c to a room after create, join or resume: the session message first,
// then the state. The hub may deliver a second identical state shortly after.
func (gs *GameServer) seat(ctx context.Context, c *Client, kind string, room *models.Room, playerID string) error {
	token, err := auth.CreateSessionToken(room.ID, playerID)
	if err != nil {
		return fmt.Errorf("create session token: %w", err)
	}
	c.setSession(room.ID, playerID)
	c.pending = nil
	if prev := gs.Hub.Claim(room.ID, playerID, c); prev != nil {
		prev.Log().Info("seat resumed on another connection")
		go prev.Close(SessionReplacedError, "Session resumed on another connection.")
	}

	// queued before joining the hub so no broadcast can overtake it
	c.Send(sessionMessage{T: kind, RoomID: room.ID, PlayerID: playerID, Token: token})
	if err := gs.Hub.Join(ctx, room.ID, c); err != nil {
		c.Log().Errorf("failed to subscribe to room: %v", err)
	}
	c.Send(newStateMessage(room, playerID))
	c.Log().Infof("player %s", kind)
	return nil
}

// HandleCreate opens a new room with c's player as its only member.
func (gs *GameServer) HandleCreate(ctx context.Context, c *Client, msg createMessage) error {
	if roomID, _ := c.Session(); roomID != "" {
		c.sendError("You are already in a room.")
		return nil
	}

	roomID, err := gs.unusedRoomCode(ctx)
	if err != nil {
		return gs.report(c, models.ActionCreate, err)
	}

	playerID := idgen.PlayerID()
	room := gs.Engine.NewRoom(roomID, msg.TargetScore)
	if err := gs.Engine.AddPlayer(room, playerID, msg.Name); err != nil {
		return gs.report(c, models.ActionCreate, err)
	}
	if err := game.Attach(room, playerID, c.ID.String()); err != nil {
		return gs.report(c, models.ActionCreate, err)
	}
	if err := gs.Store.Set(ctx, roomID, room); err != nil {
		return gs.report(c, models.ActionCreate, fmt.Errorf("store new room %s: %w", roomID, err))
	}
	return gs.report(c, models.ActionCreate, gs.seat(ctx, c, "created", room, playerID))
}

func (gs *GameServer) unusedRoomCode(ctx context.Context) (string, error) {
	for i := 0; i < roomCodeAttempts; i++ {
		code := idgen.RoomCode()
		_, err := gs.Store.Get(ctx, code)
		if errors.Is(err, store.ErrRoomNotFound) {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("check room code: %w", err)
		}
	}
	return "", fmt.Errorf("no free room code after %d attempts", roomCodeAttempts)
}

// HandleJoin seats a new player in an existing room that has not started.
func (gs *GameServer) HandleJoin(ctx context.Context, c *Client, msg joinMessage) error {
	if roomID, _ := c.Session(); roomID != "" {
		c.sendError("You are already in a room.")
		return nil
	}

	roomID := idgen.NormalizeRoomCode(msg.RoomID)
	if idgen.ValidateRoomCode(roomID) != nil {
		c.sendError("Room not found.")
		return nil
	}

	playerID := idgen.PlayerID()
	room, err := gs.Store.Update(ctx, roomID, func(room *models.Room) error {
		if err := gs.Engine.AddPlayer(room, playerID, msg.Name); err != nil {
			return err
		}
		return game.Attach(room, playerID, c.ID.String())
	})
	if err != nil {
		return gs.report(c, models.ActionJoin, err)
	}
	return gs.report(c, models.ActionJoin, gs.seat(ctx, c, "joined", room, playerID))
}

// HandleResume reattaches a connection to the seat named in a session token. The seat
// moves to c; a connection still holding it is closed here, or cut off at its next
// action when it lives on another process.
func (gs *GameServer) HandleResume(ctx context.Context, c *Client, msg resumeMessage) error {
	if roomID, _ := c.Session(); roomID != "" {
		c.sendError("You are already in a room.")
		return nil
	}

	roomID, playerID, err := auth.AuthenticateSessionToken(msg.Token)
	if err != nil {
		c.Log().Debugf("resume rejected: %v", err)
		c.sendError("Invalid session token.")
		return nil
	}

	room, err := gs.Store.Update(ctx, roomID, func(room *models.Room) error {
		return game.Attach(room, playerID, c.ID.String())
	})
	if err != nil {
		return gs.report(c, models.ActionResume, err)
	}
	return gs.report(c, models.ActionResume, gs.seat(ctx, c, "resumed", room, playerID))
}

// session returns c's room and player, telling the client to join first when it has none.
func (gs *GameServer) session(c *Client) (roomID, playerID string, ok bool) {
	roomID, playerID = c.Session()
	if roomID == "" {
		c.sendError("join a room first")
		return "", "", false
	}
	return roomID, playerID, true
}

// HandleStart deals the first round.
func (gs *GameServer) HandleStart(ctx context.Context, c *Client) error {
	roomID, playerID, ok := gs.session(c)
	if !ok {
		return nil
	}
	_, err := gs.Store.Update(ctx, roomID, func(room *models.Room) error {
		if err := game.CheckSeat(room, playerID, c.ID.String()); err != nil {
			return err
		}
		return gs.Engine.Start(room)
	})
	if err != nil {
		return gs.report(c, models.ActionStart, err)
	}
	c.Log().Info("game started")
	return nil
}

// HandleDrawDeck draws the top of the draw pile into c's pending card and shows it
// to c alone.
func (gs *GameServer) HandleDrawDeck(ctx context.Context, c *Client) error {
	roomID, playerID, ok := gs.session(c)
	if !ok {
		return nil
	}

	var card models.Card
	_, err := gs.Store.Update(ctx, roomID, func(room *models.Room) error {
		if err := game.CheckSeat(room, playerID, c.ID.String()); err != nil {
			return err
		}
		drawn, err := gs.Engine.DrawDeck(room, room.PlayerIndex(playerID), c.pending != nil)
		if err != nil {
			return err
		}
		card = drawn
		return nil
	})
	if err != nil {
		return gs.report(c, models.ActionDrawDeck, err)
	}

	c.pending = models.CardPtr(card)
	c.Send(drewMessage{T: "drew", Card: card})
	return nil
}

// HandleMove applies swapWithDrawn, rejectDrawn or takeDiscard.
func (gs *GameServer) HandleMove(ctx context.Context, c *Client, action models.GameAction) error {
	roomID, playerID, ok := gs.session(c)
	if !ok {
		return nil
	}

	var outcome game.Outcome
	_, err := gs.Store.Update(ctx, roomID, func(room *models.Room) error {
		if err := game.CheckSeat(room, playerID, c.ID.String()); err != nil {
			return err
		}
		idx := room.PlayerIndex(playerID)
		var err error
		switch action.Type {
		case models.ActionSwapWithDrawn:
			outcome, err = gs.Engine.SwapWithDrawn(room, idx, c.pending, action.Index)
		case models.ActionRejectDrawn:
			outcome, err = gs.Engine.RejectDrawn(room, idx, c.pending, action.Index)
		case models.ActionTakeDiscard:
			outcome, err = gs.Engine.TakeDiscard(room, idx, c.pending != nil, action.Index)
		default:
			err = fmt.Errorf("not a move: %s", action.Type)
		}
		return err
	})
	if err != nil {
		return gs.report(c, action.Type, err)
	}

	if action.Type != models.ActionTakeDiscard {
		c.pending = nil
	}

	log := c.Log().WithField("action", action.Type)
	switch {
	case outcome.GameOver:
		log.Info("game over")
	case outcome.RoundEnded:
		log.Info("round ended")
	case outcome.RoundClosing:
		log.Info("round closing")
	}
	return nil
}

// HandleDisconnect marks c's player as disconnected unless the seat has already
// moved to another connection. Any pending card is abandoned and the turn is not advanced.
func (gs *GameServer) HandleDisconnect(c *Client) {
	roomID, playerID := c.Session()
	if roomID == "" {
		return
	}
	c.pending = nil

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	gs.Hub.Leave(ctx, roomID, c)
	_, err := gs.Store.Update(ctx, roomID, func(room *models.Room) error {
		return game.Detach(room, playerID, c.ID.String())
	})
	if errors.Is(err, game.ErrSeatTaken) {
		c.Log().Debug("seat held by another connection, leaving it connected")
		return
	}
	if err != nil && !errors.Is(err, store.ErrRoomNotFound) && !errors.Is(err, game.ErrPlayerNotInRoom) {
		c.Log().Errorf("failed to mark player disconnected: %v", err)
	}
}
