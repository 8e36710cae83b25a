// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/skygrid/internal/game"
	"github.com/jason-s-yu/skygrid/internal/middleware"
	"github.com/jason-s-yu/skygrid/internal/models"
	"github.com/sirupsen/logrus"
)

// Subprotocol is the optional websocket subprotocol of the game endpoint.
const Subprotocol = "skygrid"

// GameWSHandler upgrades the HTTP connection to WebSocket and runs the client's read
// loop. The connection is anonymous until it sends create, join or resume.
func GameWSHandler(logger *logrus.Logger, gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{Subprotocol},
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			logger.Warnf("WebSocket accept error from %s: %v", r.RemoteAddr, err)
			return
		}

		// Clients may connect without a subprotocol, but one that asks for others only is refused.
		if r.Header.Get("Sec-WebSocket-Protocol") != "" && conn.Subprotocol() != Subprotocol {
			logger.Warnf("Client %s connected with invalid subprotocol: %q", r.RemoteAddr, r.Header.Get("Sec-WebSocket-Protocol"))
			conn.Close(BadSubprotocolError, "Client must use the 'skygrid' subprotocol.")
			return
		}
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		c := newClient(conn, logger, r.RemoteAddr)
		go c.writePump(ctx)

		err = readGameMessages(ctx, c, gs)

		gs.HandleDisconnect(c)
		switch {
		case errors.Is(err, errFatal):
			c.Close(websocket.StatusInternalError, "Internal server error.")
		case errors.Is(err, game.ErrSeatTaken):
			c.Close(SessionReplacedError, "Session resumed on another connection.")
		default:
			c.Close(websocket.StatusNormalClosure, "")
		}
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, err)
	}
}

// readGameMessages reads messages until the connection fails or a fatal game error
// occurs, routing each one by its "t" field. Messages are handled one at a time, so
// a connection's actions are applied in the order it sent them.
func readGameMessages(ctx context.Context, c *Client, gs *GameServer) error {
	for {
		msgType, data, err := c.conn.Read(ctx)
		if err != nil {
			select {
			case <-c.closed:
				// closed by the server, e.g. because the seat moved
				return nil
			default:
			}
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || ctx.Err() != nil {
				return nil
			}
			return err
		}

		if msgType != websocket.MessageText {
			c.Log().Debugf("Ignoring non-text message type %d.", msgType)
			continue
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.Log().Debugf("Dropping unparseable message: %v", err)
			continue
		}

		if err := dispatch(ctx, c, gs, env.T, data); err != nil {
			return err
		}
	}
}

// dispatch decodes data into the typed message for t and hands it to the game server.
func dispatch(ctx context.Context, c *Client, gs *GameServer, t models.ActionType, data []byte) error {
	c.Log().Debugf("Received action '%s'.", t)

	switch t {
	case models.ActionCreate:
		var msg createMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("Invalid create message.")
			return nil
		}
		return gs.HandleCreate(ctx, c, msg)

	case models.ActionJoin:
		var msg joinMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("Invalid join message.")
			return nil
		}
		return gs.HandleJoin(ctx, c, msg)

	case models.ActionResume:
		var msg resumeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("Invalid resume message.")
			return nil
		}
		return gs.HandleResume(ctx, c, msg)

	case models.ActionStart:
		return gs.HandleStart(ctx, c)

	case models.ActionDrawDeck:
		return gs.HandleDrawDeck(ctx, c)

	case models.ActionSwapWithDrawn, models.ActionRejectDrawn, models.ActionTakeDiscard:
		var msg moveMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendInfo("Invalid grid position.")
			return nil
		}
		return gs.HandleMove(ctx, c, msg.gameAction(t))

	case models.ActionPing:
		c.Send(pongMessage{T: "pong"})
		return nil

	default:
		c.sendError(fmt.Sprintf("Unknown message type: %s", t))
		return nil
	}
}
