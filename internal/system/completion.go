package system

import (
	"time"

	"github.com/gravitybox/game/internal/core/async"
	coresys "github.com/gravitybox/game/internal/core/system"
)

// CompletionSystem runs the callbacks of finished async work on the game
// loop. Phase 0 (Input), registered first so results are visible to the
// whole tick.
type CompletionSystem struct {
	disp *async.Dispatcher
}

func NewCompletionSystem(disp *async.Dispatcher) *CompletionSystem {
	return &CompletionSystem{disp: disp}
}

func (s *CompletionSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *CompletionSystem) Update(_ time.Duration) {
	s.disp.Drain()
}
