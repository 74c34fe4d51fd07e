// internal/app/system/realtime/client.go
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/dalemusser/kanbanhub/internal/app/system/timeouts"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxFrameSize = 4096
)

// sendBufferSize is the per-connection outbound queue length. A client that
// falls this many events behind is dropped.
var sendBufferSize = 64

// ConfigureSendBuffer overrides the per-connection send queue length.
// Call before any connection is accepted; it is not safe concurrently
// with ServeWS.
func ConfigureSendBuffer(n int) {
	if n > 0 {
		sendBufferSize = n
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers enforce the session cookie; the socket itself carries no
	// mutations, only room membership and event delivery.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// inbound is what clients send over the socket.
type inbound struct {
	Type   string `json:"type"` // joinRoom | leaveRoom
	RoomID string `json:"roomId"`
}

// Client is one websocket connection registered with the hub.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	log  *zap.Logger

	send chan []byte
	done chan struct{}

	closeOnce sync.Once
}

// ServeWS upgrades GET /ws. The client supplies its self-generated session
// connection id as ?connection_id=...; if absent the server assigns one,
// which leaves that client's own mutations echoing back to it (it never
// told anyone its id).
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	connID := r.URL.Query().Get("connection_id")
	if connID == "" {
		connID = uuid.NewString()
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &Client{
		id:   connID,
		hub:  h,
		conn: conn,
		log:  h.log,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
	h.add(c)

	// Tell the client which id the server registered, so callers that let
	// the server assign one can still tag their requests.
	c.enqueue(Event{Type: "connected", Payload: map[string]string{"connectionId": connID}})

	go c.writePump()
	go c.readPump()
}

// enqueue queues an event for delivery. Returns false when the buffer is
// full (slow consumer) or the client is closed.
func (c *Client) enqueue(event Event) bool {
	data, err := json.Marshal(event)
	if err != nil {
		c.log.Error("event marshal failed", zap.Error(err), zap.String("type", event.Type))
		return true
	}
	select {
	case <-c.done:
		return false
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// readPump processes joinRoom/leaveRoom frames until the socket drops.
func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("websocket read failed", zap.Error(err), zap.String("connection_id", c.id))
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Warn("bad frame", zap.Error(err), zap.String("connection_id", c.id))
			continue
		}

		switch msg.Type {
		case "joinRoom":
			ctx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
			c.hub.join(ctx, c, msg.RoomID)
			cancel()
		case "leaveRoom":
			c.hub.leave(c, msg.RoomID)
		default:
			c.log.Warn("unknown frame type", zap.String("type", msg.Type))
		}
	}
}

// writePump drains the send queue and keeps the connection alive with
// pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
