package leaderboard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gravitybox/game/internal/core/async"
	"github.com/gravitybox/game/internal/core/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingRemote struct{ err error }

func (f failingRemote) ReadAll(context.Context) (*Shots, error)       { return nil, f.err }
func (f failingRemote) Adjust(context.Context, int, int, int64) error { return f.err }

func newTestController(t *testing.T, remote Remote) (*Controller, *async.Dispatcher, *event.Bus) {
	t.Helper()
	disp := async.NewInline(16)
	bus := event.NewBus("scheduled")
	file := NewFileStore(filepath.Join(t.TempDir(), "leaderboard.yaml"))
	return NewController(file, remote, disp, bus, zap.NewNop()), disp, bus
}

func TestFileStoreMissingSnapshot(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "none.yaml")).Load()
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestFileStoreRoundTrip(t *testing.T) {
	f := NewFileStore(filepath.Join(t.TempDir(), "cache", "leaderboard.yaml"))
	s := NewShots()
	s.Set(3, 7, 12)
	s.Set(3, 10, 4)
	require.NoError(t, f.Save(s))

	got, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, s.Levels, got.Levels)
}

func TestFileStoreCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaderboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte("levels: [oops"), 0o644))
	_, err := NewFileStore(path).Load()
	assert.Error(t, err)
}

func TestLocalUpdateAppliesImmediatelyAndFiresRemote(t *testing.T) {
	remote := NewMemoryRemote(nil)
	c, disp, bus := newTestController(t, remote)
	c.Replace(NewShots())

	c.Increment(3, 7)
	assert.Equal(t, int64(1), c.Snapshot().Count(3, 7))
	assert.Equal(t, 1, bus.Pending(), "local write is scheduled")
	assert.Equal(t, 1, disp.InFlight())

	disp.Drain()
	s, err := remote.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.Count(3, 7))
}

func TestLocalUpdateBeforeLoadOnlyReachesRemote(t *testing.T) {
	remote := NewMemoryRemote(nil)
	c, disp, bus := newTestController(t, remote)

	c.Increment(1, 2)
	assert.False(t, c.Loaded())
	assert.Equal(t, 0, bus.Pending())
	disp.Drain()
	s, _ := remote.ReadAll(context.Background())
	assert.Equal(t, int64(1), s.Count(1, 2))
}

func TestFetchSuccessAndFailure(t *testing.T) {
	initial := NewShots()
	initial.Set(1, 4, 2)
	c, disp, _ := newTestController(t, NewMemoryRemote(initial))

	var got *Shots
	c.Fetch(func(s *Shots, err error) {
		require.NoError(t, err)
		got = s
	})
	assert.Nil(t, got)
	disp.Drain()
	require.NotNil(t, got)
	assert.Equal(t, int64(2), got.Count(1, 4))

	boom := errors.New("unreachable")
	bad, disp2, _ := newTestController(t, failingRemote{err: boom})
	var fetchErr error
	bad.Fetch(func(_ *Shots, err error) { fetchErr = err })
	disp2.Drain()
	assert.ErrorIs(t, fetchErr, ErrSync)
}

func TestFailedRemoteAdjustKeepsLocalResult(t *testing.T) {
	c, disp, _ := newTestController(t, failingRemote{err: errors.New("down")})
	c.Replace(NewShots())
	c.Increment(2, 6)
	disp.Drain()
	assert.Equal(t, int64(1), c.Snapshot().Count(2, 6))
}

func TestFetchReplaysAdjustmentsMadeWhileInFlight(t *testing.T) {
	remote := NewMemoryRemote(nil)
	c, disp, _ := newTestController(t, remote)
	c.Replace(NewShots())

	var first *Shots
	c.Fetch(func(s *Shots, err error) {
		require.NoError(t, err)
		first = s
	})
	c.Increment(4, 5)
	disp.Drain()
	require.NotNil(t, first)
	assert.Equal(t, int64(1), first.Count(4, 5))

	// the next read already contains the adjustment remotely
	var second *Shots
	c.Fetch(func(s *Shots, err error) {
		require.NoError(t, err)
		second = s
	})
	disp.Drain()
	require.NotNil(t, second)
	assert.Equal(t, int64(1), second.Count(4, 5))
}

func TestLoadAndSaveLocal(t *testing.T) {
	c, _, _ := newTestController(t, nil)
	require.NoError(t, c.LoadLocal())
	assert.False(t, c.Loaded())
	require.NoError(t, c.SaveLocal())

	s := NewShots()
	s.Set(5, 5, 5)
	c.Replace(s)
	require.NoError(t, c.SaveLocal())

	c.Replace(nil)
	require.NoError(t, c.LoadLocal())
	require.True(t, c.Loaded())
	assert.Equal(t, int64(5), c.Snapshot().Count(5, 5))
}
