package hub

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ICPWorkOfficial/ICPWork-sub002/internal/domain"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 8192
)

// Client is the mediator between one websocket connection and the Hub. The
// hub owns the transport exclusively: it closes the connection on
// supersession and eviction, and the pumps close it on I/O failure.
type Client struct {
	Identity string
	Hub      *Hub
	Conn     *websocket.Conn
	Send     chan []byte
}

// readPump reads envelopes from the websocket and forwards them to the hub
// loop. Any inbound traffic, pongs included, refreshes liveness.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		c.touch()
		return nil
	})

	for {
		var req domain.WebSocketMessage
		if err := c.Conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.Hub.log.Warn("read error", "identity", c.Identity, "error", err)
			}
			break
		}
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		c.touch()
		c.Hub.requests <- &ClientRequest{Client: c, Message: req}
	}
}

// writePump drains the Send channel into the websocket and keeps the
// connection alive with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// touch reports liveness to the hub loop without ever blocking the read
// path; a dropped touch is made up for by the next one.
func (c *Client) touch() {
	select {
	case c.Hub.touches <- c:
	default:
	}
}

// send queues an envelope for delivery.
func (c *Client) send(msg domain.WebSocketMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.Hub.log.Error("failed to marshal event", "type", msg.Type, "error", err)
		return
	}
	c.enqueue(data)
}

// enqueue queues raw bytes for delivery. Delivery is best-effort: if the
// client's buffer is full the data is dropped rather than stalling the hub
// loop.
func (c *Client) enqueue(data []byte) {
	select {
	case c.Send <- data:
	default:
		c.Hub.log.Warn("send buffer full, dropping event", "identity", c.Identity)
	}
}

// sendError reports a request failure back to this client only.
func (c *Client) sendError(message string) {
	c.send(domain.WebSocketMessage{
		Type:    domain.EventError,
		Payload: domain.ErrorPayload{Error: message},
	})
}
