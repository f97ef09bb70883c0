package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	writeWait  = 10 * time.Second
)

// Hub fans feedback updates out to connected WebSocket clients. A client may
// watch every question or a single one.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]*subscriber
	logger      zerolog.Logger
}

type subscriber struct {
	conn   Sender
	filter string // question id, empty for all
}

// Sender is what the hub needs from a connection.
type Sender interface {
	Send(msg Message) error
	Close()
}

// NewHub creates a new WebSocket hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID]*subscriber),
		logger:      logger,
	}
}

// Register adds a connection. An empty filter subscribes to every question.
func (h *Hub) Register(id uuid.UUID, conn Sender, filter string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, exists := h.connections[id]; exists {
		old.conn.Close()
	}

	h.connections[id] = &subscriber{conn: conn, filter: filter}
	h.logger.Debug().Str("conn_id", id.String()).Str("filter", filter).Msg("connection registered")
}

// Unregister closes and removes a connection.
func (h *Hub) Unregister(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub, exists := h.connections[id]; exists {
		sub.conn.Close()
		delete(h.connections, id)
		h.logger.Debug().Str("conn_id", id.String()).Msg("connection unregistered")
	}
}

// Publish delivers msg to every connection watching questionID or watching
// everything. Slow consumers whose queue is full are skipped.
func (h *Hub) Publish(questionID string, msg Message) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for id, sub := range h.connections {
		if sub.filter != "" && sub.filter != questionID {
			continue
		}
		if err := sub.conn.Send(msg); err != nil {
			h.logger.Warn().Err(err).Str("conn_id", id.String()).Msg("publish_send_failed")
			continue
		}
		delivered++
	}
	return delivered
}

// Count returns the number of registered connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Connection represents a WebSocket connection with send queue.
type Connection struct {
	conn   *websocket.Conn
	sendCh chan Message
	mu     sync.Mutex
	closed bool
	logger zerolog.Logger
}

// NewConnection wraps a WebSocket connection.
func NewConnection(conn *websocket.Conn, logger zerolog.Logger) *Connection {
	return &Connection{
		conn:   conn,
		sendCh: make(chan Message, 256),
		logger: logger,
	}
}

// Send queues a message for delivery.
func (c *Connection) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}

	select {
	case c.sendCh <- msg:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close shuts down the connection.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.sendCh)
	c.conn.Close()
}

// WritePump sends queued messages and keeps the peer alive with pings.
func (c *Connection) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.sendCh:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Warn().Err(err).Msg("write error")
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

// ReadPump drains client frames until the peer goes away. Feedback streams
// are server-push only, so inbound messages other than pings get an error reply.
func (c *Connection) ReadPump() {
	defer c.conn.Close()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("read error")
			}
			return
		}
		switch msg.Type {
		case TypePing:
			_ = c.Send(Message{Type: TypePong, RequestID: msg.RequestID})
		default:
			payload, _ := json.Marshal(ErrorPayload{Code: "unsupported_message", Message: "feedback stream is read-only"})
			_ = c.Send(Message{Type: TypeError, Payload: payload, RequestID: msg.RequestID})
		}
	}
}

var (
	ErrConnectionClosed = &Error{Code: "connection_closed", Message: "Connection is closed"}
	ErrSendQueueFull    = &Error{Code: "send_queue_full", Message: "Send queue is full"}
)

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Upgrader handles WebSocket upgrades for the feedback stream.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}
