package system

import (
	"time"

	coresys "github.com/gravitybox/game/internal/core/system"
	"go.uber.org/zap"
)

// FinishTimingSystem accumulates the player's uninterrupted time inside the
// finish zone and flags the level finished once it reaches the dwell
// threshold with the finish gate open. Phase 2 (Update).
type FinishTimingSystem struct {
	deps *Deps
}

func NewFinishTimingSystem(deps *Deps) *FinishTimingSystem {
	return &FinishTimingSystem{deps: deps}
}

func (s *FinishTimingSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *FinishTimingSystem) Update(dt time.Duration) {
	lvl := s.deps.Level()
	if !lvl.Playing() {
		return
	}
	p := s.deps.Player()
	p.InsideFinishZone = s.deps.FinishZone().Contains(s.deps.PlayerBody().Position)
	if !p.InsideFinishZone {
		lvl.TimeInFinishZone = 0
		return
	}
	lvl.TimeInFinishZone += dt.Seconds()

	if lvl.CanFinish && lvl.TimeInFinishZone >= s.dwell(lvl.ID).Seconds() {
		lvl.Finished = true
		s.deps.Log.Debug("level finished",
			zap.Int("level", lvl.ID), zap.Float64("dwell", lvl.TimeInFinishZone))
	}
}

func (s *FinishTimingSystem) dwell(level int) time.Duration {
	def := s.deps.Game.FinishDwell
	if s.deps.Scripting == nil {
		return def
	}
	return time.Duration(s.deps.Scripting.FinishDwellMillis(level, int(def.Milliseconds()))) * time.Millisecond
}
