package bridge

import (
	"encoding/json"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// sendQueueLen bounds the per-socket send queue. A browser that cannot drain
// broadcasts this far behind starts losing them; command replies share the
// same queue so per-socket ordering holds.
const sendQueueLen = 64

// Client is one browser socket. Its reader goroutine handles commands, its
// writer goroutine drains the send queue, so broadcast writes never
// interleave with reply writes.
type Client struct {
	bridge *Bridge
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	logger *log.Logger
}

func newClient(b *Bridge, conn *websocket.Conn) *Client {
	return &Client{
		bridge: b,
		conn:   conn,
		send:   make(chan []byte, sendQueueLen),
		done:   make(chan struct{}),
		logger: log.With("component", "ws", "remote", conn.RemoteAddr().String()),
	}
}

// sendView queues one JSON message for this socket. Messages to a stalled
// socket are dropped; its reader will notice the dead peer and detach it.
func (c *Client) sendView(v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("failed to marshal view", "err", err)
		return
	}
	select {
	case c.send <- raw:
	default:
		c.logger.Warn("send queue full, dropping message")
	}
}

// writePump drains the send queue until the reader signals shutdown. The
// send channel itself is never closed; late broadcasts into the buffer are
// simply dropped with the client.
func (c *Client) writePump() {
	for {
		select {
		case <-c.done:
			return
		case raw := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				c.logger.Debug("write failed", "err", err)
				return
			}
		}
	}
}

// readPump reads commands until the socket dies, then detaches the client.
func (c *Client) readPump() {
	defer func() {
		c.bridge.detach(c)
		close(c.done)
		if err := c.conn.Close(); err != nil {
			c.logger.Debug("close failed", "err", err)
		}
	}()
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("read failed", "err", err)
			}
			return
		}
		c.bridge.handleCommand(c, raw)
	}
}
