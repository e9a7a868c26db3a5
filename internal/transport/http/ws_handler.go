package http

import (
	"log"
	"net/http"

	"flag-quiz-service/internal/app"
	"flag-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

// FeedHandler streams leaderboard snapshots over a websocket: one on
// subscribe, then one after every score submission for the requested game
// and tier. The feed is read-only; inbound messages are ignored.
type FeedHandler struct {
	progress *app.ProgressService
	upgrader websocket.Upgrader
}

func NewFeedHandler(progress *app.ProgressService) *FeedHandler {
	return &FeedHandler{
		progress: progress,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage struct {
	Type    string             `json:"type"`
	Payload domain.Leaderboard `json:"payload"`
}

// ServeWS upgrades HTTP requests to websockets and forwards leaderboard updates.
func (h *FeedHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	gameType := r.URL.Query().Get("gameType")
	rawTier := r.URL.Query().Get("difficulty")
	if gameType == "" || rawTier == "" {
		http.Error(w, "missing gameType or difficulty", http.StatusBadRequest)
		return
	}
	tier, err := domain.ParseDifficulty(rawTier)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updates, cancel, err := h.progress.Subscribe(r.Context(), gameType, tier)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Drain the connection so client closes end the subscription promptly.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	for update := range updates {
		if err := conn.WriteJSON(outboundMessage{Type: "leaderboard", Payload: update}); err != nil {
			log.Printf("ws write error: %v", err)
			return
		}
	}
}
