package system

import (
	"context"

	"github.com/looplab/fsm"
)

// Level run states.
const (
	runPlaying    = "playing"
	runFinished   = "finished" // entry actions running
	runSettled    = "settled"  // entry actions done, waiting for restart or advance
	runRestarting = "restarting"
	runAdvancing  = "advancing"
)

// Level run triggers.
const (
	evFinish  = "finish"
	evSettle  = "settle"
	evRestart = "restart"
	evAdvance = "advance"
	evReset   = "reset"
)

// levelRun is the lifecycle of one attempt at a level. Entering finished
// runs onFinish exactly once; any way back to playing re-arms it.
type levelRun struct {
	machine *fsm.FSM
}

func newLevelRun(onFinish func()) *levelRun {
	return &levelRun{
		machine: fsm.NewFSM(
			runPlaying,
			fsm.Events{
				{Name: evFinish, Src: []string{runPlaying}, Dst: runFinished},
				{Name: evSettle, Src: []string{runFinished}, Dst: runSettled},
				{Name: evRestart, Src: []string{runFinished, runSettled}, Dst: runRestarting},
				{Name: evAdvance, Src: []string{runSettled}, Dst: runAdvancing},
				{Name: evReset, Src: []string{runFinished, runSettled, runRestarting, runAdvancing}, Dst: runPlaying},
			},
			fsm.Callbacks{
				"enter_" + runFinished: func(_ context.Context, _ *fsm.Event) { onFinish() },
			},
		),
	}
}

func (r *levelRun) Current() string { return r.machine.Current() }

// fire triggers ev when the current state allows it.
func (r *levelRun) fire(ev string) bool {
	if !r.machine.Can(ev) {
		return false
	}
	return r.machine.Event(context.Background(), ev) == nil
}
