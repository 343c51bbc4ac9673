package system

import (
	"time"

	"github.com/gravitybox/game/internal/component"
	"github.com/gravitybox/game/internal/core/ecs"
	coresys "github.com/gravitybox/game/internal/core/system"
	"go.uber.org/zap"
)

// playerRadius is the player's pickup reach.
const playerRadius = 0.5

// CollectSystem removes collectibles the player touches and opens the
// finish gate once none are left. Phase 2 (Update).
type CollectSystem struct {
	deps *Deps
}

func NewCollectSystem(deps *Deps) *CollectSystem {
	return &CollectSystem{deps: deps}
}

func (s *CollectSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *CollectSystem) Update(_ time.Duration) {
	lvl := s.deps.Level()
	if !lvl.Playing() {
		return
	}
	m := s.deps.Map()
	player := s.deps.PlayerBody().Position
	st := s.deps.Stores

	ecs.Each2(s.deps.World, st.Collectible, st.Body,
		func(id ecs.EntityID, c *component.Collectible, b *component.Body) {
			if b.Position.Dist(player) > c.Radius+playerRadius {
				return
			}
			s.deps.World.RemoveEntity(id)
			m.Collected++
			s.deps.Log.Debug("collectible gathered",
				zap.Int("level", lvl.ID), zap.Int("collected", m.Collected), zap.Int("total", m.Collectibles))
		})

	lvl.CanFinish = m.Collected >= m.Collectibles
}
