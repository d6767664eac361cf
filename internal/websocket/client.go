package websocket

import (
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"chat-realtime/internal/models"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

// Client is one live socket. A pair of pump goroutines owns the connection;
// everything else talks to it through the buffered send channel.
type Client struct {
	connectionID string
	userID       string
	username     string

	hub     *Hub
	conn    *websocket.Conn
	handler *SessionHandler
	send    chan []byte
	done    chan struct{}

	closed     int32
	sendClosed int32
}

func newClient(hub *Hub, handler *SessionHandler, conn *websocket.Conn, connectionID, userID, username string) *Client {
	return &Client{
		connectionID: connectionID,
		userID:       userID,
		username:     username,
		hub:          hub,
		conn:         conn,
		handler:      handler,
		send:         make(chan []byte, 256),
		done:         make(chan struct{}),
	}
}

func (c *Client) UserID() string {
	return c.userID
}

func (c *Client) ConnectionID() string {
	return c.connectionID
}

func (c *Client) isClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

func (c *Client) close() {
	atomic.CompareAndSwapInt32(&c.closed, 0, 1)
}

// stopSend signals the write pump to finish. The send channel itself is
// never closed: an emit racing a teardown gets an error instead of a panic
// on a closed channel.
func (c *Client) stopSend() {
	if atomic.CompareAndSwapInt32(&c.sendClosed, 0, 1) {
		close(c.done)
	}
}

// enqueue hands a pre-encoded frame to the write pump without blocking.
func (c *Client) enqueue(data []byte) error {
	if c.isClosed() || atomic.LoadInt32(&c.sendClosed) == 1 {
		return ErrClientDisconnected
	}

	select {
	case c.send <- data:
		return nil
	default:
		// Send buffer full: the peer is not draining. Treat as gone.
		slog.Warn("Send buffer full, dropping client", "connectionID", c.connectionID, "userID", c.userID)
		c.close()
		return ErrClientDisconnected
	}
}

func (c *Client) sendEvent(event models.EventType, payload any) {
	data, err := models.NewEvent(event, payload).Encode()
	if err != nil {
		slog.Error("Failed to encode event", "event", event, "error", err)
		return
	}
	if err := c.enqueue(data); err != nil {
		slog.Debug("Failed to enqueue event", "connectionID", c.connectionID, "event", event)
	}
}

func (c *Client) sendError(message string) {
	c.sendEvent(models.EventError, models.ErrorPayload{Message: message})
}

func (c *Client) readPump() {
	defer func() {
		c.close()
		c.handler.disconnect(c)
		if err := c.conn.Close(); err != nil {
			slog.Debug("Error closing connection", "connectionID", c.connectionID, "error", err)
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "connectionID", c.connectionID, "userID", c.userID, "error", err)
			} else {
				slog.Debug("WebSocket connection closed", "connectionID", c.connectionID, "userID", c.userID)
			}
			return
		}

		var event models.Event
		if err := json.Unmarshal(raw, &event); err != nil {
			c.sendError("invalid event format")
			continue
		}

		// Each inbound event is an independent task; events for the same
		// connection may interleave at repository await points.
		go c.handler.dispatch(c, &event)
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
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				slog.Debug("Error writing message", "connectionID", c.connectionID, "error", err)
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
