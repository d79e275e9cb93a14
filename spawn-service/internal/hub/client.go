package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/weiawesome/wes-io-live/pkg/log"
	"github.com/weiawesome/wes-io-live/spawn-service/internal/config"
)

// Client is a renderer connected over a websocket. Data frames are written
// only by the broadcast loop; the client's own goroutines handle inbound
// control frames and keepalive pings.
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	config config.WebSocketConfig

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func NewClient(id string, hub *Hub, conn *websocket.Conn, cfg config.WebSocketConfig) *Client {
	return &Client{
		id:     id,
		hub:    hub,
		conn:   conn,
		config: cfg,
		done:   make(chan struct{}),
	}
}

func (c *Client) ID() string { return c.id }

// Write sends one batch as a text frame, giving up after the write wait.
func (c *Client) Write(data []byte) error {
	c.conn.SetWriteDeadline(c.writeDeadline())
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Close sends a best-effort close frame and releases the connection.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		deadline := time.Now().Add(time.Second)
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), deadline)
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// Done is closed once the client has been closed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// ReadPump consumes inbound frames until the peer goes away. Renderers have
// nothing to say; text frames are discarded.
func (c *Client) ReadPump() {
	defer c.hub.Unregister(c)

	if c.config.MaxMessageSize > 0 {
		c.conn.SetReadLimit(c.config.MaxMessageSize)
	}
	if c.config.PongWait > 0 {
		c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		c.conn.SetPongHandler(func(string) error {
			c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
			return nil
		})
	}

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				l := log.L()
				l.Warn().Err(err).Str(log.FieldClientID, c.id).Msg("renderer read error")
			}
			return
		}
	}
}

// PingLoop keeps the connection alive until the client is closed.
// WriteControl may run concurrently with the broadcast loop's writes.
func (c *Client) PingLoop() {
	if c.config.PingInterval <= 0 {
		return
	}

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, c.writeDeadline()); err != nil {
				c.hub.Unregister(c)
				return
			}
		}
	}
}

// writeDeadline returns the zero time (no deadline) when WriteWait is unset.
func (c *Client) writeDeadline() time.Time {
	if c.config.WriteWait <= 0 {
		return time.Time{}
	}
	return time.Now().Add(c.config.WriteWait)
}
