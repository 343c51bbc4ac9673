package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/gravitybox/game/internal/leaderboard"
	"go.uber.org/zap"
)

var (
	ErrNotConnected = errors.New("leaderboard service not connected")
	ErrClosed       = errors.New("leaderboard connection closed")
)

// Client is a leaderboard.Remote talking to leaderboardd. Requests are
// multiplexed over one connection and matched to responses by ID.
// Safe for concurrent use.
type Client struct {
	url    string
	log    *zap.Logger
	dialer *websocket.Dialer

	mu        sync.Mutex
	conn      *websocket.Conn
	pending   map[string]chan Response
	writeMu   sync.Mutex
	connected atomic.Bool
}

func NewClient(url string, log *zap.Logger) *Client {
	return &Client{
		url:     url,
		log:     log,
		dialer:  websocket.DefaultDialer,
		pending: make(map[string]chan Response),
	}
}

// Connected reports whether the connection is currently up.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Connect dials the service unless already connected.
func (c *Client) Connect(ctx context.Context) error {
	if c.Connected() {
		return nil
	}
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.connected.Store(true)

	go c.readLoop(conn)
	c.log.Info("leaderboard service connected", zap.String("url", c.url))
	return nil
}

// Maintain keeps reconnecting every interval until ctx is done, then closes.
func (c *Client) Maintain(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if !c.Connected() {
			if err := c.Connect(ctx); err != nil {
				c.log.Debug("leaderboard service unreachable", zap.Error(err))
			}
		}
		select {
		case <-ctx.Done():
			c.Close()
			return
		case <-ticker.C:
		}
	}
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.drop(conn, err)
			return
		}
		resp, err := decodeResponse(data)
		if err != nil {
			c.log.Warn("bad leaderboard response", zap.Error(err))
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		delete(c.pending, resp.ID)
		c.mu.Unlock()
		if ok {
			ch <- resp
		}
	}
}

// drop tears down conn and fails every request waiting on it.
func (c *Client) drop(conn *websocket.Conn, cause error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.connected.Store(false)
	waiting := c.pending
	c.pending = make(map[string]chan Response)
	c.mu.Unlock()

	conn.Close()
	for id, ch := range waiting {
		ch <- Response{ID: id, Error: ErrClosed.Error()}
	}
	if cause != nil {
		c.log.Warn("leaderboard service disconnected", zap.Error(cause))
	}
}

func (c *Client) call(ctx context.Context, req Request) (Response, error) {
	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return Response{}, ErrNotConnected
	}
	req.ID = uuid.NewString()
	ch := make(chan Response, 1)
	c.pending[req.ID] = ch
	c.mu.Unlock()

	forget := func() {
		c.mu.Lock()
		delete(c.pending, req.ID)
		c.mu.Unlock()
	}

	data, err := encode(&req)
	if err != nil {
		forget()
		return Response{}, err
	}

	c.writeMu.Lock()
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetWriteDeadline(deadline)
	} else {
		conn.SetWriteDeadline(time.Time{})
	}
	err = conn.WriteMessage(websocket.BinaryMessage, data)
	c.writeMu.Unlock()
	if err != nil {
		forget()
		c.drop(conn, err)
		return Response{}, fmt.Errorf("send %s: %w", req.Op, err)
	}

	select {
	case resp := <-ch:
		if resp.Error != "" {
			return resp, fmt.Errorf("%s: %s", req.Op, resp.Error)
		}
		return resp, nil
	case <-ctx.Done():
		forget()
		return Response{}, ctx.Err()
	}
}

func (c *Client) ReadAll(ctx context.Context) (*leaderboard.Shots, error) {
	resp, err := c.call(ctx, Request{Op: OpReadAll})
	if err != nil {
		return nil, err
	}
	s := leaderboard.NewShots()
	for level, buckets := range resp.Levels {
		for shots, n := range buckets {
			s.Set(level, shots, n)
		}
	}
	return s, nil
}

func (c *Client) Adjust(ctx context.Context, level, shots int, delta int64) error {
	_, err := c.call(ctx, Request{Op: OpAdjust, Level: level, Shots: shots, Delta: delta})
	return err
}

// Close shuts the connection; pending requests fail with ErrClosed.
func (c *Client) Close() {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.drop(conn, nil)
}
