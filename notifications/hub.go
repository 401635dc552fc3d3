package notifications

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/courtside/club-games/services"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// EventMessage is the wire format pushed to subscribers of a game room.
type EventMessage struct {
	Type    string      `json:"type"`
	GameID  int         `json:"game_id"`
	Payload interface{} `json:"payload"`
}

// Hub fans domain events out to websocket subscribers, one room per game.
// It implements services.Notifier: the services call Notify after each
// commit, and the hub owns delivery to whoever is currently connected.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	rooms  map[int]map[*Client]bool
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		rooms:      make(map[int]map[*Client]bool),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.rooms[client.GameID]; !ok {
				h.rooms[client.GameID] = make(map[*Client]bool)
			}
			h.rooms[client.GameID][client] = true
			h.logger.Debug("websocket client registered",
				slog.Int("game_id", client.GameID),
				slog.Int("room_size", len(h.rooms[client.GameID])))
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.GameID]; ok {
				if _, okClient := clients[client]; okClient {
					client.closeSend()
					delete(clients, client)
					if len(clients) == 0 {
						delete(h.rooms, client.GameID)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// Notify implements services.Notifier.
func (h *Hub) Notify(_ context.Context, event services.Event) {
	gameID, _ := event.Subject()
	h.BroadcastToRoom(gameID, EventMessage{
		Type:    event.Name(),
		GameID:  gameID,
		Payload: event,
	})
}

// BroadcastToRoom sends a message to every client subscribed to the game.
func (h *Hub) BroadcastToRoom(gameID int, message interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.rooms[gameID]
	if !ok {
		return
	}

	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal event message",
			slog.Int("game_id", gameID), slog.Any("error", err))
		return
	}

	for client := range clients {
		client.mu.Lock()
		if !client.closed {
			select {
			case client.send <- messageBytes:
			default:
				// Slow consumer; skip rather than block the broadcast.
			}
		}
		client.mu.Unlock()
	}
}

// Client is a single websocket subscriber bound to one game room.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	closed bool
	mu     sync.Mutex

	GameID int
}

func NewClient(hub *Hub, conn *websocket.Conn, gameID int) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		GameID: gameID,
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	if !c.closed {
		close(c.send)
		c.closed = true
	}
	c.mu.Unlock()
}

// ReadPump drains the connection until the client disconnects. Inbound
// messages are ignored; the stream is push-only.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("websocket read error",
					slog.Int("game_id", c.GameID), slog.Any("error", err))
			}
			return
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
