package mcptools

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/coreman2200/funtimes-arcaluminis/internal/ws"
)

// Controller sends one control message and returns the daemon's reply.
type Controller interface {
	Send(ctx context.Context, msg map[string]any) (ws.Status, error)
}

// Client talks to the daemon's /control websocket, dialing on first use and
// again after any failure.
type Client struct {
	URL string

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewClient(url string) *Client { return &Client{URL: url} }

func (c *Client) Send(ctx context.Context, msg map[string]any) (ws.Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.URL, nil)
		if err != nil {
			return ws.Status{}, fmt.Errorf("dial %s: %w", c.URL, err)
		}
		c.conn = conn
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(5 * time.Second)
	}
	c.conn.SetWriteDeadline(deadline)
	c.conn.SetReadDeadline(deadline)

	var st ws.Status
	err := c.conn.WriteJSON(msg)
	if err == nil {
		err = c.conn.ReadJSON(&st)
	}
	if err != nil {
		c.conn.Close()
		c.conn = nil
		return ws.Status{}, err
	}
	return st, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
