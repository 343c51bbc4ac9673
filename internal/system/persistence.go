package system

import (
	"context"
	"errors"
	"time"

	"github.com/gravitybox/game/internal/core/async"
	"github.com/gravitybox/game/internal/core/event"
	coresys "github.com/gravitybox/game/internal/core/system"
	"github.com/gravitybox/game/internal/leaderboard"
	"github.com/gravitybox/game/internal/settings"
	"go.uber.org/zap"
)

// PersistenceSystem commits pending settings writes on request and
// periodically, and keeps the local leaderboard snapshot file current.
// Phase 4 (Persist).
type PersistenceSystem struct {
	deps     *Deps
	files    *leaderboard.FileStore
	interval time.Duration
	elapsed  time.Duration

	// snapshot writes run off the loop; at most one at a time
	saving      bool
	savePending bool
}

func NewPersistenceSystem(deps *Deps, files *leaderboard.FileStore, interval time.Duration) *PersistenceSystem {
	s := &PersistenceSystem{deps: deps, files: files, interval: interval}
	event.Subscribe(deps.Scheduled, s.onFlushSettings)
	event.Subscribe(deps.Scheduled, s.onWriteLeaderboard)
	return s
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(dt time.Duration) {
	if s.interval <= 0 {
		return
	}
	s.elapsed += dt
	if s.elapsed < s.interval {
		return
	}
	s.elapsed = 0
	if s.deps.Rules.Store().Dirty() {
		s.flushSettings()
	}
}

func (s *PersistenceSystem) onFlushSettings(event.FlushSettings) {
	s.flushSettings()
}

// flushSettings commits the settings store. On failure the data stays
// pending and goes out with the next flush.
func (s *PersistenceSystem) flushSettings() {
	if err := s.deps.Rules.Flush(); err != nil {
		if errors.Is(err, settings.ErrPersist) {
			s.deps.Log.Error("settings flush failed, will retry on next flush", zap.Error(err))
			return
		}
		s.deps.Log.Error("settings flush failed", zap.Error(err))
	}
}

func (s *PersistenceSystem) onWriteLeaderboard(event.WriteLeaderboardToStorage) {
	if s.files == nil {
		return
	}
	if s.saving {
		s.savePending = true
		return
	}
	snap := s.deps.Leaderboard.Snapshot()
	if snap == nil {
		return
	}
	s.saving = true
	copied := snap.Clone()
	async.Go(s.deps.Dispatcher, func(context.Context) (struct{}, error) {
		return struct{}{}, s.files.Save(copied)
	}, func(_ struct{}, err error) {
		s.saving = false
		if err != nil {
			s.deps.Log.Error("leaderboard snapshot write failed", zap.String("path", s.files.Path()), zap.Error(err))
		}
		if s.savePending {
			s.savePending = false
			event.Post(s.deps.Scheduled, event.WriteLeaderboardToStorage{})
		}
	})
}

// Shutdown writes everything synchronously. Called once the loop stopped.
func (s *PersistenceSystem) Shutdown() {
	if err := s.deps.Leaderboard.SaveLocal(); err != nil {
		s.deps.Log.Error("leaderboard snapshot write failed", zap.Error(err))
	}
	s.flushSettings()
}
