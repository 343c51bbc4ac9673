package system

import (
	"time"

	coresys "github.com/gravitybox/game/internal/core/system"
	"go.uber.org/zap"
)

// Probe reports connectivity to the leaderboard service.
type Probe interface {
	Connected() bool
}

// NetworkSystem mirrors the probe into the Network singleton once per tick.
// Phase 1 (PreUpdate).
type NetworkSystem struct {
	deps  *Deps
	probe Probe
}

func NewNetworkSystem(deps *Deps, probe Probe) *NetworkSystem {
	return &NetworkSystem{deps: deps, probe: probe}
}

func (s *NetworkSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *NetworkSystem) Update(_ time.Duration) {
	connected := s.probe != nil && s.probe.Connected()
	net := s.deps.Network()
	if net.Connected != connected {
		s.deps.Log.Info("leaderboard connectivity changed", zap.Bool("connected", connected))
	}
	net.Connected = connected
}
