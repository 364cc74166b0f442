package ws

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mcoot/pong-realtime/internal/model"
	"github.com/mcoot/pong-realtime/internal/protocol"
	"github.com/mcoot/pong-realtime/internal/services/registry"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer
	pongWait = 60 * time.Second

	// Send pings with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size
	maxMessageSize = 4096

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// Client is one websocket connection bound to a verified identity
type Client struct {
	id     string
	conn   *websocket.Conn
	logger *slog.Logger

	mu       sync.Mutex
	identity model.Identity

	send      chan []byte
	done      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once
	closeCode int
	closeText string
}

var _ registry.Conn = (*Client)(nil)

// NewClient wraps an upgraded connection
func NewClient(conn *websocket.Conn, identity model.Identity, logger *slog.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:       id,
		conn:     conn,
		identity: identity,
		logger: logger.With(
			slog.String("conn_id", id),
			slog.Int64("user_id", int64(identity.ID))),
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
}

func (c *Client) ConnID() string { return c.id }

func (c *Client) Identity() model.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

func (c *Client) SetDisplayName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity.DisplayName = name
}

// Send queues msg without blocking. Messages to a closed or backed up client
// are dropped.
func (c *Client) Send(msg protocol.Outbound) bool {
	if c.closed.Load() {
		return false
	}

	data, err := protocol.Encode(msg)
	if err != nil {
		c.logger.Error("failed to encode message",
			slog.String("type", string(msg.OutboundType())),
			slog.Any("error", err))
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		c.logger.Warn("message dropped - client buffer full",
			slog.String("type", string(msg.OutboundType())))
		return false
	}
}

func (c *Client) IsOpen() bool {
	return !c.closed.Load()
}

// Close asks the writer to send a close frame and shut the connection
func (c *Client) Close(code int, reason string) {
	c.closeOnce.Do(func() {
		c.closeCode = code
		c.closeText = reason
		c.closed.Store(true)
		close(c.done)
	})
}

// readPump feeds inbound frames to handle until the connection fails
func (c *Client) readPump(handle func([]byte)) {
	defer c.Close(protocol.CloseNormal, "")

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived) {
				c.logger.Warn("websocket read failed",
					slog.String("error_type", string(model.ErrorTypeWebsocket)),
					slog.Any("error", err))
			}
			return
		}
		handle(data)
	}
}

// writePump writes one message per frame and keeps the connection alive
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.Close(protocol.CloseNormal, "")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close(protocol.CloseNormal, "")
				return
			}

		case <-c.done:
			c.drain()
			closeFrame(c.conn, c.closeCode, c.closeText)
			return
		}
	}
}

// drain flushes messages queued before Close, such as a final game:end
func (c *Client) drain() {
	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			return
		}
	}
}

// closeFrame sends a close control frame, ignoring failures on a dead peer
func closeFrame(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
