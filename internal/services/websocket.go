package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rosettahomes/rosetta-backend/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

// Client is one signed-in websocket connection.
type Client struct {
	UserID uint
	Role   models.Role
	conn   *websocket.Conn
	send   chan []byte
	hub    *Hub
}

// Hub tracks connected clients and routes events to them by user id or role.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
	upgrader   websocket.Upgrader
	log        *slog.Logger
}

// NewHub builds a hub that accepts connections from the given origins.
// An empty list accepts any origin.
func NewHub(log *slog.Logger, origins []string) *Hub {
	if log == nil {
		log = slog.Default()
	}
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// Run serves registrations until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mutex.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.log.Debug("websocket client connected", "userId", client.UserID, "role", client.Role)

		case client := <-h.unregister:
			h.remove(client)
			h.log.Debug("websocket client disconnected", "userId", client.UserID)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// deliver sends to every client matching the predicate. Clients whose
// buffer is full are dropped.
func (h *Hub) deliver(message []byte, match func(*Client) bool) int {
	h.mutex.RLock()
	var stale []*Client
	sent := 0
	for client := range h.clients {
		if !match(client) {
			continue
		}
		select {
		case client.send <- message:
			sent++
		default:
			stale = append(stale, client)
		}
	}
	h.mutex.RUnlock()

	for _, client := range stale {
		h.log.Warn("websocket client too slow, dropping", "userId", client.UserID)
		h.remove(client)
	}
	return sent
}

func (h *Hub) BroadcastToUser(userID uint, message []byte) int {
	return h.deliver(message, func(c *Client) bool { return c.UserID == userID })
}

func (h *Hub) BroadcastToRole(role models.Role, message []byte) int {
	return h.deliver(message, func(c *Client) bool { return c.Role == role })
}

func (h *Hub) ConnectedClients() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

type WebSocketMessage struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Publish pushes an event to the connected clients it targets. A client
// matching both a user id and a role receives it once.
func (h *Hub) Publish(ctx context.Context, ev Event) {
	data, err := json.Marshal(WebSocketMessage{Type: ev.Type, Data: ev.Data, Timestamp: time.Now().UTC()})
	if err != nil {
		h.log.Error("marshal websocket event failed", "type", ev.Type, "error", err)
		return
	}

	users := make(map[uint]bool, len(ev.UserIDs))
	for _, id := range ev.UserIDs {
		users[id] = true
	}
	roles := make(map[models.Role]bool, len(ev.Roles))
	for _, r := range ev.Roles {
		roles[r] = true
	}

	sent := h.deliver(data, func(c *Client) bool { return users[c.UserID] || roles[c.Role] })
	h.log.Debug("websocket event delivered", "type", ev.Type, "clients", sent)
}

// HandleWebSocket upgrades the request and attaches the connection to the hub.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request, userID uint, role models.Role) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "userId", userID, "error", err)
		return
	}

	client := &Client{
		UserID: userID,
		Role:   role,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		hub:    h,
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump only services control frames; clients do not send commands.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("websocket read error", "userId", c.UserID, "error", err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
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
				c.hub.log.Warn("websocket write error", "userId", c.UserID, "error", err)
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
