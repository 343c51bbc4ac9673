package system

import (
	"time"

	"github.com/gravitybox/game/internal/component"
	"github.com/gravitybox/game/internal/core/ecs"
	"github.com/gravitybox/game/internal/core/event"
	coresys "github.com/gravitybox/game/internal/core/system"
	"github.com/gravitybox/game/internal/settings"
	"go.uber.org/zap"
)

// LevelFlowSystem loads, restarts and advances levels. Requests are acted
// on at the end of the tick after they were made, so every other system
// sees a Restarting or ChangingLevel flag for a full tick.
// Phase 5 (Cleanup), ahead of CleanupSystem.
type LevelFlowSystem struct {
	deps *Deps
}

func NewLevelFlowSystem(deps *Deps) *LevelFlowSystem {
	s := &LevelFlowSystem{deps: deps}
	event.Subscribe(deps.Tick, s.onRestart)
	event.Subscribe(deps.Tick, s.onSkip)
	event.Subscribe(deps.Scheduled, s.onShowNextLevel)
	return s
}

func (s *LevelFlowSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *LevelFlowSystem) Update(_ time.Duration) {
	lvl := s.deps.Level()
	switch {
	case lvl.Loading:
		s.Load(lvl.ID)
	case lvl.Restarting:
		s.Load(lvl.ID)
	case lvl.ChangingLevel:
		s.Load(s.deps.Levels.Next(lvl.ID))
	case lvl.RestartRequested:
		lvl.RestartRequested = false
		lvl.Restarting = true
		r := s.deps.Rules
		r.SetRestartCount(r.RestartCount() + 1)
	}
}

func (s *LevelFlowSystem) onRestart(event.RestartLevel) {
	lvl := s.deps.Level()
	if lvl.Loading || lvl.Restarting || lvl.ChangingLevel {
		return
	}
	lvl.RestartRequested = true
}

// onSkip leaves the level unfinished. A skipped level gets a sentinel
// highscore so its first real finish always counts as an improvement.
func (s *LevelFlowSystem) onSkip(event.SkipLevel) {
	lvl := s.deps.Level()
	if !lvl.Playing() {
		return
	}
	r := s.deps.Rules
	if r.Highscore(lvl.ID) == settings.NoHighscore {
		r.SetHighscore(lvl.ID, settings.SkippedHighscore)
	}
	lvl.Skipping = true
	lvl.ChangingLevel = true
	event.Post(s.deps.Scheduled, event.FlushSettings{})
	s.deps.Log.Info("level skipped", zap.Int("level", lvl.ID))
}

func (s *LevelFlowSystem) onShowNextLevel(event.ShowNextLevel) {
	lvl := s.deps.Level()
	if !lvl.Finished || lvl.Restarting || lvl.ChangingLevel {
		return
	}
	lvl.ChangingLevel = true
}

// Load (re)builds level id: collectibles, finish zone, player spawn, and a
// fresh run.
func (s *LevelFlowSystem) Load(id int) {
	w, st := s.deps.World, s.deps.Stores

	// Old collectibles stop matching right away; their entities go at cleanup.
	var stale []ecs.EntityID
	st.Collectible.Each(func(e ecs.EntityID, _ *component.Collectible) {
		stale = append(stale, e)
	})
	for _, e := range stale {
		st.Collectible.Remove(e)
		w.MarkForDestruction(e)
	}

	lvl := s.deps.Level()
	lvl.Reset()
	lvl.ID = id

	m := s.deps.Map()
	m.Reset()

	player := s.deps.Player()
	player.Reset()
	body := s.deps.PlayerBody()
	body.Reset()

	def := s.deps.Levels.Get(id)
	if def == nil {
		s.deps.Log.Error("level not defined", zap.Int("level", id))
		*s.deps.FinishZone() = component.FinishZone{}
		return
	}

	*s.deps.FinishZone() = def.FinishZone()
	body.Position = def.Spawn
	for _, pos := range def.Collectibles {
		e := w.CreateEntity()
		st.Collectible.Add(e)
		st.Body.Add(e).Position = pos
	}
	m.Collectibles = len(def.Collectibles)
	lvl.CanFinish = m.Collectibles == 0

	s.deps.Log.Info("level loaded",
		zap.Int("level", id), zap.Int("collectibles", m.Collectibles),
		zap.Int("highscore", s.deps.Rules.Highscore(id)))
}
