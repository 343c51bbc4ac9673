package remote

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gravitybox/game/internal/leaderboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func startServer(t *testing.T, backend leaderboard.Remote) (*httptest.Server, string) {
	t.Helper()
	srv := httptest.NewServer(NewServer(backend, time.Second, zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClientRoundTrip(t *testing.T) {
	initial := leaderboard.NewShots()
	initial.Set(3, 10, 4)
	backend := leaderboard.NewMemoryRemote(initial)
	_, url := startServer(t, backend)

	c := NewClient(url, zaptest.NewLogger(t))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Connect(ctx))
	defer c.Close()
	assert.True(t, c.Connected())

	require.NoError(t, c.Adjust(ctx, 3, 10, -1))
	require.NoError(t, c.Adjust(ctx, 3, 7, 1))

	s, err := c.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), s.Count(3, 10))
	assert.Equal(t, int64(1), s.Count(3, 7))
	assert.Equal(t, 1, backend.Reads())
}

func TestServerRejectsBadDelta(t *testing.T) {
	_, url := startServer(t, leaderboard.NewMemoryRemote(nil))
	c := NewClient(url, zaptest.NewLogger(t))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Connect(ctx))
	defer c.Close()

	err := c.Adjust(ctx, 1, 1, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delta")
}

func TestCallWithoutConnection(t *testing.T) {
	c := NewClient("ws://127.0.0.1:1/ws", zaptest.NewLogger(t))
	_, err := c.ReadAll(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.False(t, c.Connected())
}

func TestServerShutdownMarksClientDisconnected(t *testing.T) {
	srv, url := startServer(t, leaderboard.NewMemoryRemote(nil))
	// the read loop logs the disconnect on its own goroutine
	c := NewClient(url, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Connect(ctx))

	srv.CloseClientConnections()
	require.Eventually(t, func() bool { return !c.Connected() }, 2*time.Second, 10*time.Millisecond)

	_, err := c.ReadAll(ctx)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestMaintainReconnects(t *testing.T) {
	_, url := startServer(t, leaderboard.NewMemoryRemote(nil))
	c := NewClient(url, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Maintain(ctx, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, c.Connected, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.False(t, c.Connected())
}

func TestServerCloseEndsUpgradedConnections(t *testing.T) {
	ws := NewServer(leaderboard.NewMemoryRemote(nil), time.Second, zap.NewNop())
	srv := httptest.NewServer(ws)
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	c := NewClient(url, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Connect(ctx))

	ws.Close()
	require.Eventually(t, func() bool { return !c.Connected() }, 2*time.Second, 10*time.Millisecond)

	// new connections are refused once closed
	c2 := NewClient(url, zap.NewNop())
	if err := c2.Connect(ctx); err == nil {
		require.Eventually(t, func() bool { return !c2.Connected() }, 2*time.Second, 10*time.Millisecond)
	}
}
