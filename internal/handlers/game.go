// internal/handlers/game.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/jason-s-yu/skygrid/internal/middleware"
	"github.com/sirupsen/logrus"
)

// HealthHandler reports that the process is up. It does not touch the store.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"ok": true})
	}
}

// NewMux routes the game's HTTP endpoints, each wrapped in the request logger.
func NewMux(logger *logrus.Logger, gs *GameServer) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/ws", middleware.LogMiddleware(logger)(GameWSHandler(logger, gs)))
	mux.Handle("/health", middleware.LogMiddleware(logger)(HealthHandler()))
	return mux
}
