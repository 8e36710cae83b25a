// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// Custom WebSocket close codes used by the game handler.
// These provide more specific reasons for closure than standard codes.
const (
	BadSubprotocolError  websocket.StatusCode = 3000 // Client offered subprotocols, none of them "skygrid".
	SlowClientError      websocket.StatusCode = 3001 // Client's outgoing queue overflowed.
	SessionReplacedError websocket.StatusCode = 3002 // The seat was resumed on another connection.
)
