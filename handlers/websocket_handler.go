package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/courtside/club-games/notifications"
	"github.com/courtside/club-games/services"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the frontend origin once it is fixed.
		return true
	},
}

type WebSocketHandler struct {
	hub         *notifications.Hub
	gameService services.GameService
}

func NewWebSocketHandler(hub *notifications.Hub, gs services.GameService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		gameService: gs,
	}
}

// ServeWs subscribes the connection to a game's event stream.
// Clients connect to /ws/games/{id}.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	// Only existing games get a room.
	if _, err := h.gameService.GetGame(r.Context(), gameID); err != nil {
		if errors.Is(err, services.ErrGameNotFound) {
			notFoundResponse(w, r)
			return
		}
		serverErrorResponse(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		slog.Debug("websocket upgrade failed", slog.Int("game_id", gameID), slog.Any("error", err))
		return
	}

	client := notifications.NewClient(h.hub, conn, gameID)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
