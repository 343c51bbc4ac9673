package system

import (
	coresys "github.com/gravitybox/game/internal/core/system"
	"github.com/gravitybox/game/internal/leaderboard"
)

// Options configures RegisterAll.
type Options struct {
	Probe    Probe
	Commands <-chan Command
	Snapshot *leaderboard.FileStore
}

// Systems exposes the registered systems the composition root talks to.
type Systems struct {
	LevelFlow   *LevelFlowSystem
	LevelFinish *LevelFinishSystem
	Caching     *LeaderboardCachingSystem
	Persistence *PersistenceSystem
	Ranks       *RankHandlers
}

// RegisterAll creates every game system, subscribes its handlers and
// registers it with the runner.
func RegisterAll(r *coresys.Runner, deps *Deps, opts Options) *Systems {
	out := &Systems{
		LevelFlow:   NewLevelFlowSystem(deps),
		LevelFinish: NewLevelFinishSystem(deps, deps.Game.AutoRestart),
		Caching:     NewLeaderboardCachingSystem(deps, deps.Levels.Version()),
		Persistence: NewPersistenceSystem(deps, opts.Snapshot, deps.Game.FlushInterval),
		Ranks:       NewRankHandlers(deps),
	}

	// Phase 0: Input
	r.Register(NewCompletionSystem(deps.Dispatcher))
	if opts.Commands != nil {
		r.Register(NewCommandSystem(deps, opts.Commands, deps.Game.CommandQueueSize))
	}

	// Phase 1: PreUpdate
	r.Register(NewNetworkSystem(deps, opts.Probe))
	r.Register(NewAutoRestartSystem(deps))

	// Phase 2: Update
	r.Register(NewPhysicsSystem(deps))
	r.Register(NewCollectSystem(deps))
	r.Register(NewFinishTimingSystem(deps))
	r.Register(NewPlayTimeSystem(deps))

	// Phase 3: PostUpdate
	r.Register(out.LevelFinish)
	r.Register(out.Caching)

	// Phase 4: Persist
	r.Register(out.Persistence)

	// Phase 5: Cleanup
	r.Register(out.LevelFlow)
	r.Register(NewCleanupSystem(deps.World))

	return out
}
