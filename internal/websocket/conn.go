package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	// Coordinators may leave a monitor open across a whole sitting, so the
	// read deadline is generous and refreshed by pings.
	readWait = 5 * time.Minute
)

// Conn wraps a gorilla connection with a write lock. The monitor stream
// writes from two goroutines (the read loop answering pings and the pub/sub
// forwarder) and gorilla supports at most one concurrent writer.
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

// NewConn wraps an upgraded connection.
func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// WriteTyped sends a strongly-typed event payload over the WebSocket.
func (c *Conn) WriteTyped(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse over the WebSocket.
func (c *Conn) WriteError(errMsg string) error {
	return c.WriteTyped(ErrorResponse{Event: EventError, Error: errMsg})
}

// ReadEnvelope reads the next client message and decodes just its action,
// refreshing the read deadline. Reads stay single-goroutine and need no lock.
func (c *Conn) ReadEnvelope() (RequestEnvelope, error) {
	var env RequestEnvelope
	c.ws.SetReadDeadline(time.Now().Add(readWait))
	err := c.ws.ReadJSON(&env)
	return env, err
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.ws.Close()
}
