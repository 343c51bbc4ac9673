package system

import (
	"time"

	"github.com/gravitybox/game/internal/core/event"
	coresys "github.com/gravitybox/game/internal/core/system"
	"github.com/gravitybox/game/internal/leaderboard"
	"go.uber.org/zap"
)

// LeaderboardCachingSystem keeps the local leaderboard snapshot fresh. While
// online, after a short settle delay, it reads the whole remote leaderboard
// when the cached copy belongs to other level content or its cooldown
// expired. Phase 3 (PostUpdate).
type LeaderboardCachingSystem struct {
	deps        *Deps
	version     string
	cooldown    time.Duration
	settleDelay time.Duration

	settleLeft time.Duration
	enabled    bool
	caching    bool
	generation uint64
	attempts   int
}

func NewLeaderboardCachingSystem(deps *Deps, contentVersion string) *LeaderboardCachingSystem {
	return &LeaderboardCachingSystem{
		deps:        deps,
		version:     contentVersion,
		cooldown:    deps.Sync.Cooldown,
		settleDelay: deps.Sync.SettleDelay,
		settleLeft:  deps.Sync.SettleDelay,
		enabled:     deps.Sync.Enabled,
	}
}

func (s *LeaderboardCachingSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

// Attempts returns how many full reads were started.
func (s *LeaderboardCachingSystem) Attempts() int { return s.attempts }

// Caching reports whether a full read is in flight.
func (s *LeaderboardCachingSystem) Caching() bool { return s.caching }

// SetEnabled turns caching on or off. Disabling drops any read in flight:
// its result is discarded when it arrives.
func (s *LeaderboardCachingSystem) SetEnabled(on bool) {
	if s.enabled == on {
		return
	}
	s.enabled = on
	if !on {
		s.generation++
		s.caching = false
	}
}

func (s *LeaderboardCachingSystem) Update(dt time.Duration) {
	if !s.enabled {
		return
	}
	if !s.deps.Network().Connected {
		s.settleLeft = s.settleDelay
		return
	}
	if s.settleLeft > 0 {
		s.settleLeft -= dt
	}

	if !s.due() || s.caching || s.settleLeft > 0 {
		return
	}
	s.start()
}

func (s *LeaderboardCachingSystem) due() bool {
	r := s.deps.Rules
	if r.CachedLeaderboardVersion() != s.version {
		return true
	}
	return !s.deps.now().Before(r.NextLeaderboardCacheTime())
}

func (s *LeaderboardCachingSystem) start() {
	s.caching = true
	s.attempts++
	gen := s.generation
	s.deps.Leaderboard.Fetch(func(shots *leaderboard.Shots, err error) {
		if gen != s.generation || !s.enabled {
			s.deps.Log.Debug("discarding stale leaderboard read")
			return
		}
		s.caching = false
		if err != nil {
			s.deps.Log.Warn("leaderboard sync failed, keeping cached snapshot", zap.Error(err))
			return
		}
		s.apply(shots)
	})
}

func (s *LeaderboardCachingSystem) apply(shots *leaderboard.Shots) {
	s.deps.Leaderboard.Replace(shots)
	event.Post(s.deps.Scheduled, event.WriteLeaderboardToStorage{})

	r := s.deps.Rules
	r.SetNextLeaderboardCacheTime(s.deps.now().Add(s.cooldown))
	r.SetCachedLeaderboardVersion(s.version)
	event.Post(s.deps.Scheduled, event.FlushSettings{})
	event.Post(s.deps.Scheduled, event.UpdateAllRanks{})

	s.deps.Log.Info("cached the entire leaderboard",
		zap.Int("levels", len(shots.Levels)), zap.String("version", s.version))
}
