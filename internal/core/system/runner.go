package system

import (
	"sort"
	"time"

	"github.com/gravitybox/game/internal/core/event"
)

// Runner executes systems in phase order each tick, then flushes the event
// buses. Systems sharing a phase keep their registration order.
type Runner struct {
	systems   []System
	sorted    bool
	tick      *event.Bus
	scheduled *event.Bus
	ticks     uint64
}

// NewRunner builds a runner that flushes tick and then scheduled after every
// tick. Either bus may be nil.
func NewRunner(tick, scheduled *event.Bus) *Runner {
	return &Runner{
		systems:   make([]System, 0, 16),
		tick:      tick,
		scheduled: scheduled,
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Tick runs one simulation step. Events posted by systems during the step
// become visible to handlers only after every system has run.
func (r *Runner) Tick(dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		s.Update(dt)
	}
	if r.tick != nil {
		r.tick.Flush()
	}
	if r.scheduled != nil {
		r.scheduled.Flush()
	}
	r.ticks++
}

// TickPhase runs only the systems of one phase and does not flush.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		if s.Phase() == phase {
			s.Update(dt)
		}
	}
}

// Ticks returns how many full ticks ran.
func (r *Runner) Ticks() uint64 { return r.ticks }

// Systems returns the registered systems in execution order.
func (r *Runner) Systems() []System {
	r.ensureSorted()
	out := make([]System, len(r.systems))
	copy(out, r.systems)
	return out
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}
