// Package wsconn provides a WebSocket client with automatic reconnection.
package wsconn

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// State represents the connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateClosed       State = "closed"
)

// Config holds WebSocket client configuration.
type Config struct {
	URL            string
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  int // 0 = infinite
	// Subscribe, when set, is sent after every (re)connect so the server
	// resumes pushing the stream this client consumes.
	Subscribe []byte
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(url string) Config {
	return Config{
		URL:            url,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		MaxReconnects:  0, // infinite
	}
}

// Client is a reconnecting WebSocket client. Received messages are delivered
// on Messages; the channel closes when the client gives up or is closed.
type Client struct {
	config     Config
	state      State
	stateMu    sync.RWMutex
	messages   chan []byte
	done       chan struct{}
	closeOnce  sync.Once
	reconnects int

	connMu sync.Mutex
	conn   *websocket.Conn
}

// New creates a new WebSocket client.
func New(config Config) *Client {
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = time.Second
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = 30 * time.Second
	}
	return &Client{
		config:   config,
		state:    StateDisconnected,
		messages: make(chan []byte, 100),
		done:     make(chan struct{}),
	}
}

// Connect dials the server and starts the read loop in the background. The
// read loop reconnects with exponential backoff until MaxReconnects is
// exhausted, ctx is cancelled, or Close is called.
func (c *Client) Connect(ctx context.Context) error {
	c.setState(StateConnecting)
	if err := c.dial(ctx); err != nil {
		c.setState(StateDisconnected)
		return err
	}
	c.setState(StateConnected)
	go c.readLoop(ctx)
	return nil
}

func (c *Client) dial(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.config.URL, nil)
	if err != nil {
		return err
	}
	conn.SetReadLimit(1 << 22)
	if len(c.config.Subscribe) > 0 {
		if err := conn.Write(ctx, websocket.MessageText, c.config.Subscribe); err != nil {
			conn.Close(websocket.StatusInternalError, "subscribe failed")
			return err
		}
	}
	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	return nil
}

func (c *Client) readLoop(ctx context.Context) {
	defer close(c.messages)

	backoff := c.config.InitialBackoff
	for {
		err := c.consume(ctx)
		if ctx.Err() != nil || c.isDone() || errors.Is(err, context.Canceled) {
			c.setState(StateClosed)
			return
		}

		c.reconnects++
		if c.config.MaxReconnects > 0 && c.reconnects > c.config.MaxReconnects {
			c.setState(StateDisconnected)
			return
		}
		c.setState(StateReconnecting)

		select {
		case <-ctx.Done():
			c.setState(StateClosed)
			return
		case <-c.done:
			c.setState(StateClosed)
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > c.config.MaxBackoff {
			backoff = c.config.MaxBackoff
		}

		if err := c.dial(ctx); err != nil {
			continue
		}
		c.setState(StateConnected)
		backoff = c.config.InitialBackoff
		c.reconnects = 0
	}
}

// consume reads messages until the connection drops.
func (c *Client) consume(ctx context.Context) error {
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()
	if conn == nil {
		return errors.New("wsconn: not connected")
	}

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		select {
		case c.messages <- data:
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return errors.New("wsconn: closed")
		}
	}
}

// Send writes a text message on the current connection.
func (c *Client) Send(ctx context.Context, msg []byte) error {
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()
	if conn == nil {
		return errors.New("wsconn: not connected")
	}
	return conn.Write(ctx, websocket.MessageText, msg)
}

// Messages returns the channel of received messages.
func (c *Client) Messages() <-chan []byte {
	return c.messages
}

// State returns the current connection state.
func (c *Client) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// Close terminates the connection and stops reconnecting.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.connMu.Lock()
		if c.conn != nil {
			err = c.conn.Close(websocket.StatusNormalClosure, "client closed")
		}
		c.connMu.Unlock()
		c.setState(StateClosed)
	})
	return err
}

func (c *Client) setState(s State) {
	c.stateMu.Lock()
	c.state = s
	c.stateMu.Unlock()
}

func (c *Client) isDone() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
