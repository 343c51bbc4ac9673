package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: async completions, console commands
	PhasePreUpdate               // 1: connectivity, off-map checks
	PhaseUpdate                  // 2: gameplay: physics, collectibles, finish timing, play time
	PhasePostUpdate              // 3: finish pipeline, leaderboard caching
	PhasePersist                 // 4: periodic settings flush
	PhaseCleanup                 // 5: level load / restart / advance, destroy queued entities
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhasePreUpdate:
		return "pre-update"
	case PhaseUpdate:
		return "update"
	case PhasePostUpdate:
		return "post-update"
	case PhasePersist:
		return "persist"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is the interface every ECS system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
