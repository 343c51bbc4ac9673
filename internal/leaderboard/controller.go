package leaderboard

import (
	"context"
	"fmt"

	"github.com/gravitybox/game/internal/core/async"
	"github.com/gravitybox/game/internal/core/event"
	"go.uber.org/zap"
)

// Controller owns the in-memory leaderboard snapshot. Local results are
// applied to it right away; the remote store is only told fire-and-forget,
// and full reads replace the snapshot when they complete.
// Game loop only.
type Controller struct {
	shots     *Shots
	file      *FileStore
	remote    Remote
	disp      *async.Dispatcher
	scheduled *event.Bus
	log       *zap.Logger

	// local adjustments made while full reads are in flight, replayed onto
	// each read that started before them
	seq      uint64
	fetching int
	journal  []adjustment
}

type adjustment struct {
	seq          uint64
	level, shots int
	delta        int64
}

func NewController(file *FileStore, remote Remote, disp *async.Dispatcher, scheduled *event.Bus, log *zap.Logger) *Controller {
	return &Controller{
		file:      file,
		remote:    remote,
		disp:      disp,
		scheduled: scheduled,
		log:       log,
	}
}

// Loaded reports whether a snapshot is available, either from the local
// cache or from a sync.
func (c *Controller) Loaded() bool { return c.shots != nil }

// Snapshot returns the current snapshot, nil before the first load.
func (c *Controller) Snapshot() *Shots { return c.shots }

func (c *Controller) Replace(s *Shots) { c.shots = s }

// Increment records one more player with shots on the level.
func (c *Controller) Increment(level, shots int) {
	c.adjust(level, shots, 1)
}

// Decrement removes one player from the bucket, clamped at zero.
func (c *Controller) Decrement(level, shots int) {
	c.adjust(level, shots, -1)
}

func (c *Controller) adjust(level, shots int, delta int64) {
	c.seq++
	if c.fetching > 0 {
		c.journal = append(c.journal, adjustment{seq: c.seq, level: level, shots: shots, delta: delta})
	}
	if c.shots != nil {
		c.shots.Adjust(level, shots, delta)
		event.Post(c.scheduled, event.WriteLeaderboardToStorage{})
	}
	if c.remote == nil {
		return
	}
	async.Fire(c.disp, func(ctx context.Context) error {
		return c.remote.Adjust(ctx, level, shots, delta)
	}, func(err error) {
		c.log.Warn("remote leaderboard adjust failed",
			zap.Int("level", level), zap.Int("shots", shots), zap.Int64("delta", delta),
			zap.Error(fmt.Errorf("%w: %v", ErrSync, err)))
	})
}

// Fetch starts a full read of the remote leaderboard. complete runs on the
// game loop; on failure err wraps ErrSync and the snapshot is untouched.
// Local adjustments made after the read started are replayed onto its result.
func (c *Controller) Fetch(complete func(*Shots, error)) {
	start := c.seq
	c.fetching++
	done := func(s *Shots, err error) {
		c.fetching--
		if err == nil {
			c.replay(s, start)
		}
		if c.fetching == 0 {
			c.journal = nil
		}
		complete(s, err)
	}

	if c.remote == nil {
		async.Go(c.disp, func(context.Context) (*Shots, error) {
			return nil, fmt.Errorf("%w: no remote configured", ErrSync)
		}, done)
		return
	}
	async.Go(c.disp, func(ctx context.Context) (*Shots, error) {
		s, err := c.remote.ReadAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSync, err)
		}
		if s == nil {
			s = NewShots()
		}
		s.Normalize()
		return s, nil
	}, done)
}

func (c *Controller) replay(s *Shots, after uint64) {
	for _, a := range c.journal {
		if a.seq > after {
			s.Adjust(a.level, a.shots, a.delta)
		}
	}
}

// LoadLocal warms the snapshot from the local cache file if one exists.
func (c *Controller) LoadLocal() error {
	s, err := c.file.Load()
	if err != nil {
		return err
	}
	if s == nil {
		c.log.Info("no local leaderboard snapshot", zap.String("path", c.file.Path()))
		return nil
	}
	c.shots = s
	c.log.Info("loaded local leaderboard snapshot",
		zap.String("path", c.file.Path()), zap.Int("levels", len(s.Levels)))
	return nil
}

// SaveLocal writes the snapshot to the local cache file.
func (c *Controller) SaveLocal() error {
	if c.shots == nil {
		return nil
	}
	return c.file.Save(c.shots)
}
