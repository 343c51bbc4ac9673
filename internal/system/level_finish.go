package system

import (
	"fmt"
	"time"

	"github.com/gravitybox/game/internal/core/event"
	coresys "github.com/gravitybox/game/internal/core/system"
	"github.com/gravitybox/game/internal/settings"
	"go.uber.org/zap"
)

// LevelFinishSystem drives the level run machine and performs the finish
// actions once per finish. Phase 3 (PostUpdate).
type LevelFinishSystem struct {
	deps        *Deps
	autoRestart bool
	run         *levelRun
}

func NewLevelFinishSystem(deps *Deps, autoRestart bool) *LevelFinishSystem {
	s := &LevelFinishSystem{deps: deps, autoRestart: autoRestart}
	s.run = newLevelRun(s.onFinish)
	return s
}

func (s *LevelFinishSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

// State returns the level run state, for diagnostics.
func (s *LevelFinishSystem) State() string { return s.run.Current() }

func (s *LevelFinishSystem) Update(_ time.Duration) {
	lvl := s.deps.Level()
	active := lvl.Finished && !lvl.Restarting

	switch s.run.Current() {
	case runPlaying:
		if active {
			s.run.fire(evFinish)
			s.run.fire(evSettle)
		}
	case runFinished, runSettled:
		switch {
		case lvl.Restarting:
			s.run.fire(evRestart)
		case !lvl.Finished:
			s.run.fire(evReset)
		case lvl.ChangingLevel:
			s.run.fire(evAdvance)
		}
	case runRestarting, runAdvancing:
		if !lvl.Finished && !lvl.Restarting && !lvl.ChangingLevel {
			s.run.fire(evReset)
		}
	}
}

// onFinish runs the finish actions in order.
func (s *LevelFinishSystem) onFinish() {
	lvl := s.deps.Level()

	event.Post(s.deps.Scheduled, event.WriteRankToStorage{LevelID: lvl.ID})
	event.Post(s.deps.Scheduled, event.FlushSettings{})
	s.logFinish()
	s.updateLeaderboard()

	if s.autoRestart {
		lvl.RestartRequested = true
	} else if s.deps.Leaderboard.Loaded() {
		event.Post(s.deps.Scheduled, event.CalculateRank{})
	} else {
		// no leaderboard yet, nothing to rank against
		event.Post(s.deps.Scheduled, event.ShowNextLevel{})
	}

	r := s.deps.Rules
	if lvl.ID > r.HighestFinishedLevel() {
		r.SetHighestFinishedLevel(lvl.ID)
	}
}

func (s *LevelFinishSystem) logFinish() {
	id := s.deps.Level().ID
	r := s.deps.Rules
	count := r.FinishCount(id) + 1
	r.SetFinishCount(id, count)

	s.deps.Log.Info(fmt.Sprintf("level %d finished", id),
		zap.Int("level", id),
		zap.Duration("play_time", r.PlayTime(id)),
		zap.Int("finish_count", count),
		zap.Int("shots", s.deps.Map().Shots))

	// a replay must not report the time of every earlier attempt
	r.SetPlayTime(id, 0)
}

// updateLeaderboard stores the personal best and moves the player to the
// new bucket when the result improves on it.
func (s *LevelFinishSystem) updateLeaderboard() {
	id := s.deps.Level().ID
	shots := s.deps.Map().Shots
	r := s.deps.Rules
	prev := r.Highscore(id)
	improved := prev == settings.SkippedHighscore || shots < prev
	if !improved {
		return
	}

	if r.SoftBanned() {
		r.SetHighscore(id, shots)
		return
	}

	if prev != settings.NoHighscore && prev != settings.SkippedHighscore {
		s.deps.Leaderboard.Decrement(id, prev)
	}
	s.deps.Leaderboard.Increment(id, shots)
	r.SetHighscore(id, shots)
	s.deps.Log.Debug("personal best improved",
		zap.Int("level", id), zap.Int("previous", prev), zap.Int("shots", shots))
}
