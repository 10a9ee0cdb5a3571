package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// ErrRequestTimeout is returned when no response arrives within the request timeout.
var ErrRequestTimeout = errors.New("bridge request timed out")

// ErrClosed is returned for calls on a closed or disconnected client.
var ErrClosed = errors.New("bridge connection closed")

// Client is the page side of the bridge, used by tooling and tests.
type Client struct {
	ws      *websocket.Conn
	timeout time.Duration
	nextID  atomic.Uint64
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[uint64]chan Frame

	messages  chan Frame
	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}
}

// Dial connects to the bridge at ep.
func Dial(ctx context.Context, ep Endpoint) (*Client, error) {
	u, err := url.Parse(ep.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid bridge url: %w", err)
	}
	q := u.Query()
	q.Set("token", ep.Token)
	u.RawQuery = q.Encode()

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to bridge at %s: %w", ep.URL, err)
	}

	c := &Client{
		ws:       ws,
		timeout:  MaxRequestTime,
		pending:  make(map[uint64]chan Frame),
		messages: make(chan Frame, 16),
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Ready is closed once the shell has signalled that the bridge is usable.
func (c *Client) Ready() <-chan struct{} {
	return c.ready
}

// Messages delivers shell messages other than ready. Messages are dropped
// when nobody reads them.
func (c *Client) Messages() <-chan Frame {
	return c.messages
}

// SaveSettings calls saveSettings.
func (c *Client) SaveSettings(ctx context.Context, instanceURL string) (SaveSettingsResult, error) {
	var res SaveSettingsResult
	err := c.request(ctx, MethodSaveSettings, SaveSettingsParams{URL: instanceURL}, &res)
	return res, err
}

// GetSettings calls getSettings. A nil result means no server is configured.
func (c *Client) GetSettings(ctx context.Context) (*SettingsResult, error) {
	var res *SettingsResult
	err := c.request(ctx, MethodGetSettings, struct{}{}, &res)
	return res, err
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.ws.Close()
}

func (c *Client) request(ctx context.Context, method string, params, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("%s: encode params: %w", method, err)
	}

	id := c.nextID.Add(1)
	ch := make(chan Frame, 1)
	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	c.writeMu.Lock()
	err = c.ws.WriteJSON(Frame{Type: FrameRequest, ID: id, Method: method, Params: data})
	c.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	select {
	case f := <-ch:
		if f.Error != "" {
			return fmt.Errorf("%s: %s", method, f.Error)
		}
		if err := json.Unmarshal(f.Result, out); err != nil {
			return fmt.Errorf("%s: decode result: %w", method, err)
		}
		return nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%s: %w", method, ErrRequestTimeout)
		}
		return fmt.Errorf("%s: %w", method, ctx.Err())
	case <-c.done:
		return fmt.Errorf("%s: %w", method, ErrClosed)
	}
}

func (c *Client) readLoop() {
	defer close(c.done)

	for {
		var f Frame
		if err := c.ws.ReadJSON(&f); err != nil {
			return
		}

		switch f.Type {
		case FrameResponse:
			c.mu.Lock()
			ch, ok := c.pending[f.ID]
			c.mu.Unlock()
			if ok {
				ch <- f
			}
		case FrameMessage:
			if f.Name == MessageReady {
				c.readyOnce.Do(func() { close(c.ready) })
				continue
			}
			select {
			case c.messages <- f:
			default:
			}
		}
	}
}
