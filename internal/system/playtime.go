package system

import (
	"time"

	coresys "github.com/gravitybox/game/internal/core/system"
)

// PlayTimeSystem adds the time spent on the current level to its stored
// play time. The finish pipeline reports and clears it. Phase 2 (Update).
type PlayTimeSystem struct {
	deps *Deps
}

func NewPlayTimeSystem(deps *Deps) *PlayTimeSystem {
	return &PlayTimeSystem{deps: deps}
}

func (s *PlayTimeSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *PlayTimeSystem) Update(dt time.Duration) {
	lvl := s.deps.Level()
	if !lvl.Playing() {
		return
	}
	r := s.deps.Rules
	r.SetPlayTime(lvl.ID, r.PlayTime(lvl.ID)+dt)
}
