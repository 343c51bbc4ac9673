package leaderboard

import (
	"context"
	"errors"
	"sync"
)

// ErrSync marks a failed exchange with the remote leaderboard. Callers keep
// their snapshot and retry later.
var ErrSync = errors.New("leaderboard sync failed")

// Remote is the authoritative leaderboard service.
type Remote interface {
	// ReadAll returns the whole distribution.
	ReadAll(ctx context.Context) (*Shots, error)
	// Adjust adds delta players to one bucket, clamped at zero.
	Adjust(ctx context.Context, level, shots int, delta int64) error
}

// MemoryRemote is an in-process Remote. Safe for concurrent use.
type MemoryRemote struct {
	mu    sync.Mutex
	shots *Shots
	reads int
}

func NewMemoryRemote(initial *Shots) *MemoryRemote {
	if initial == nil {
		initial = NewShots()
	}
	return &MemoryRemote{shots: initial.Clone()}
}

func (m *MemoryRemote) ReadAll(ctx context.Context) (*Shots, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	return m.shots.Clone(), nil
}

func (m *MemoryRemote) Adjust(ctx context.Context, level, shots int, delta int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shots.Adjust(level, shots, delta)
	return nil
}

// Reads returns how many full reads were served.
func (m *MemoryRemote) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}
