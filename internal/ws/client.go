package ws

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. The socket is
	// delivery-only (sends go through the HTTP API), so inbound frames
	// are tiny control traffic.
	maxMessageSize = 512

	sendBuffer = 64
)

// Client is the middleman between one WebSocket connection and the hub.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	roomID string

	// UserID comes from the verified identity token, not the client.
	UserID string
}

// NewClient wraps an upgraded connection for a room subscription.
func NewClient(hub *Hub, conn *websocket.Conn, roomID, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		roomID: roomID,
		UserID: userID,
	}
}

// Run joins the room and services the connection until it closes.
// Teardown always leaves the hub, which cancels the room's upstream
// subscription when the last client disconnects.
func (c *Client) Run() {
	c.hub.Join(c.roomID, c)
	go c.writePump()
	c.readPump()
}

// readPump consumes inbound frames. Clients are not expected to send
// payloads over the socket; the loop exists to service pongs and to
// detect disconnects promptly.
func (c *Client) readPump() {
	defer func() {
		c.hub.Leave(c.roomID, c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump pushes hub payloads and keepalive pings to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// the hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
