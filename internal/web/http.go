package web

import (
	"context"
	_ "embed"
	"encoding/json"
	"net/http"
	"time"

	"github.com/tomz197/evade/internal/loop/config"
)

//go:embed static/index.html
var indexPage []byte

// NewHandler returns the HTTP routes: the game page, the websocket
// endpoint and the leaderboard API.
func NewHandler(h *Hub) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(indexPage)
	})
	mux.HandleFunc("GET /ws", h.ServeWS)
	mux.HandleFunc("GET /api/leaderboard", h.serveLeaderboard)
	return mux
}

func (h *Hub) serveLeaderboard(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		http.Error(w, "leaderboard is not available", http.StatusServiceUnavailable)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	entries, err := h.store.Top(ctx, config.LeaderboardSize)
	if err != nil {
		h.logger.Error("failed to load leaderboard", "err", err)
		http.Error(w, "failed to load leaderboard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(NewEntryViews(entries)); err != nil {
		h.logger.Warn("failed to write leaderboard", "err", err)
	}
}
