package system

import (
	"time"

	"github.com/gravitybox/game/internal/component"
	"github.com/gravitybox/game/internal/core/ecs"
	"github.com/gravitybox/game/internal/core/event"
	coresys "github.com/gravitybox/game/internal/core/system"
)

// PhysicsSystem integrates player bodies under the player's gravity
// direction. It stands in for the physics engine: a body with a position
// and a settable velocity. Phase 2 (Update).
type PhysicsSystem struct {
	deps *Deps
}

func NewPhysicsSystem(deps *Deps) *PhysicsSystem {
	s := &PhysicsSystem{deps: deps}
	event.Subscribe(deps.Tick, s.onShoot)
	event.Subscribe(deps.Tick, s.onFlip)
	return s
}

func (s *PhysicsSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *PhysicsSystem) Update(dt time.Duration) {
	if !s.deps.Level().Playing() {
		return
	}
	sec := dt.Seconds()
	g := s.deps.Game.Gravity
	ecs.Each2(s.deps.World, s.deps.Stores.Player, s.deps.Stores.Body,
		func(_ ecs.EntityID, p *component.Player, b *component.Body) {
			b.Velocity.Y += g * p.GravitySign * sec
			b.Position = b.Position.Add(b.Velocity.Scale(sec))
		})
}

// onShoot launches the player and counts the shot.
func (s *PhysicsSystem) onShoot(e event.Shoot) {
	if !s.deps.Level().Playing() {
		return
	}
	s.deps.PlayerBody().Velocity = component.Vec2{X: e.DX, Y: e.DY}
	s.deps.Map().Shots++
}

func (s *PhysicsSystem) onFlip(event.FlipGravity) {
	if !s.deps.Level().Playing() {
		return
	}
	p := s.deps.Player()
	p.GravitySign = -p.GravitySign
}
