package system

import (
	"time"

	"github.com/gravitybox/game/internal/core/event"
	coresys "github.com/gravitybox/game/internal/core/system"
)

// AutoRestartSystem restarts the level when the player leaves the playable
// height. Phase 1 (PreUpdate).
type AutoRestartSystem struct {
	deps *Deps
}

func NewAutoRestartSystem(deps *Deps) *AutoRestartSystem {
	return &AutoRestartSystem{deps: deps}
}

func (s *AutoRestartSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *AutoRestartSystem) Update(_ time.Duration) {
	lvl := s.deps.Level()
	if !lvl.Playing() || lvl.RestartRequested {
		return
	}
	def := s.deps.Levels.Get(lvl.ID)
	if def == nil {
		return
	}
	y := s.deps.PlayerBody().Position.Y
	if y < def.OffMapBelow || y > def.OffMapAbove {
		event.Post(s.deps.Tick, event.RestartLevel{})
	}
}
