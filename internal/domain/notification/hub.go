package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
	sendBuffer = 64
)

// GroupStaff receives reservation events that need staff attention.
const GroupStaff = "staff"

// Registry is the connection registry the service pushes through: group
// membership plus per-user and per-group delivery.
type Registry interface {
	Join(userID int64, group string)
	Leave(userID int64, group string)
	SendToUser(ctx context.Context, userID int64, event *Event) bool
	SendToGroup(ctx context.Context, group string, event *Event) int
}

type client struct {
	id     string
	userID int64
	conn   *websocket.Conn
	send   chan []byte
}

// Hub tracks the websocket connections of this process. A user may hold
// several connections; group membership lasts while any of them is open.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*client]struct{}
	groups  map[string]map[int64]struct{}
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients: make(map[int64]map[*client]struct{}),
		groups:  make(map[string]map[int64]struct{}),
		log:     log,
	}
}

func (h *Hub) Join(userID int64, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[group]
	if !ok {
		members = make(map[int64]struct{})
		h.groups[group] = members
	}
	members[userID] = struct{}{}
}

func (h *Hub) Leave(userID int64, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(userID, group)
}

func (h *Hub) leaveLocked(userID int64, group string) {
	members, ok := h.groups[group]
	if !ok {
		return
	}
	delete(members, userID)
	if len(members) == 0 {
		delete(h.groups, group)
	}
}

func (h *Hub) SendToUser(_ context.Context, userID int64, event *Event) bool {
	data, err := json.Marshal(event)
	if err != nil {
		return false
	}
	return h.deliverToUser(userID, data)
}

func (h *Hub) SendToGroup(_ context.Context, group string, event *Event) int {
	data, err := json.Marshal(event)
	if err != nil {
		return 0
	}
	return h.deliverToGroup(group, data)
}

// deliverToUser queues data on every connection of userID. Slow clients
// whose buffer is full miss the message rather than block the sender.
func (h *Hub) deliverToUser(userID int64, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := false
	for c := range h.clients[userID] {
		select {
		case c.send <- data:
			delivered = true
		default:
			h.log.Warn("websocket client too slow, dropping message",
				zap.Int64("user_id", userID), zap.String("conn_id", c.id))
		}
	}
	return delivered
}

func (h *Hub) deliverToGroup(group string, data []byte) int {
	h.mu.RLock()
	members := make([]int64, 0, len(h.groups[group]))
	for id := range h.groups[group] {
		members = append(members, id)
	}
	h.mu.RUnlock()

	n := 0
	for _, id := range members {
		if h.deliverToUser(id, data) {
			n++
		}
	}
	return n
}

func (h *Hub) IsOnline(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *client, groups []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[c.userID]
	if !ok {
		conns = make(map[*client]struct{})
		h.clients[c.userID] = conns
	}
	conns[c] = struct{}{}

	for _, g := range groups {
		members, ok := h.groups[g]
		if !ok {
			members = make(map[int64]struct{})
			h.groups[g] = members
		}
		members[c.userID] = struct{}{}
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	close(c.send)

	if len(conns) == 0 {
		delete(h.clients, c.userID)
		for g := range h.groups {
			h.leaveLocked(c.userID, g)
		}
	}
}

// ServeWS registers conn for userID and blocks until the client disconnects.
func (h *Hub) ServeWS(conn *websocket.Conn, userID int64, groups []string) {
	c := &client{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
	}
	h.register(c, groups)
	h.log.Debug("websocket connected", zap.Int64("user_id", userID), zap.String("conn_id", c.id))

	go h.writePump(c)
	h.readPump(c)
}

// Close drops every connection, used on shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, conns := range h.clients {
		for c := range conns {
			close(c.send)
		}
		delete(h.clients, userID)
	}
	h.groups = make(map[string]map[int64]struct{})
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
		h.log.Debug("websocket disconnected", zap.Int64("user_id", c.userID), zap.String("conn_id", c.id))
	}()

	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket read error", zap.Int64("user_id", c.userID), zap.Error(err))
			}
			return
		}

		var in struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &in); err != nil {
			continue
		}
		if in.Type == "ping" {
			data, _ := json.Marshal(&Event{Type: "pong"})
			h.mu.RLock()
			if _, open := h.clients[c.userID][c]; open {
				select {
				case c.send <- data:
				default:
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func newUpgrader(allowed []string) websocket.Upgrader {
	origins := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		origins[o] = true
	}
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || len(origins) == 0 || origins["*"] || origins[origin]
		},
	}
}
