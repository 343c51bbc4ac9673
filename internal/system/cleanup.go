package system

import (
	"time"

	"github.com/gravitybox/game/internal/core/ecs"
	coresys "github.com/gravitybox/game/internal/core/system"
)

// CleanupSystem destroys entities queued for destruction during the tick,
// such as the collectibles of a level that was just torn down.
// Phase 5 (Cleanup), registered last.
type CleanupSystem struct {
	world *ecs.World
}

func NewCleanupSystem(world *ecs.World) *CleanupSystem {
	return &CleanupSystem{world: world}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.world.FlushDestroyQueue()
}
