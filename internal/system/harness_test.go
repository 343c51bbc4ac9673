package system

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/gravitybox/game/internal/component"
	"github.com/gravitybox/game/internal/config"
	"github.com/gravitybox/game/internal/core/async"
	"github.com/gravitybox/game/internal/core/ecs"
	"github.com/gravitybox/game/internal/core/event"
	coresys "github.com/gravitybox/game/internal/core/system"
	"github.com/gravitybox/game/internal/data"
	"github.com/gravitybox/game/internal/leaderboard"
	"github.com/gravitybox/game/internal/settings"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testLevels = `
levels:
  - id: 1
    spawn: {x: 0, y: 0}
    finish: {x: 10, y: -1, w: 2, h: 2}
  - id: 2
    spawn: {x: 0, y: 0}
    finish: {x: 10, y: -1, w: 2, h: 2}
    collectibles:
      - {x: 5, y: 0}
  - id: 3
    spawn: {x: 0, y: 0}
    finish: {x: 10, y: -1, w: 2, h: 2}
`

const tickDT = 16 * time.Millisecond

type fakeProbe struct{ up bool }

func (p *fakeProbe) Connected() bool { return p.up }

// flakyRemote fails full reads while fail is set.
type flakyRemote struct {
	*leaderboard.MemoryRemote
	fail  bool
	reads int
}

func (f *flakyRemote) ReadAll(ctx context.Context) (*leaderboard.Shots, error) {
	f.reads++
	if f.fail {
		return nil, errors.New("unavailable")
	}
	return f.MemoryRemote.ReadAll(ctx)
}

type harness struct {
	t        *testing.T
	deps     *Deps
	runner   *coresys.Runner
	sys      *Systems
	remote   *flakyRemote
	probe    *fakeProbe
	snapshot *leaderboard.FileStore
	commands chan Command
	now      time.Time
}

type harnessOption func(*config.Config)

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	cfg := config.Default()
	cfg.Game.Gravity = 0
	cfg.Game.FinishDwell = 100 * time.Millisecond
	cfg.Game.FlushInterval = 0
	cfg.Leaderboard.SettleDelay = 50 * time.Millisecond
	cfg.Leaderboard.Cooldown = time.Hour
	for _, o := range opts {
		o(cfg)
	}

	levels, err := data.ParseLevelTable([]byte(testLevels))
	require.NoError(t, err)

	w := ecs.NewWorld()
	st := NewStores(w)
	SpawnSingletons(w, st, 1)
	handles, err := ResolveHandles(w, st)
	require.NoError(t, err)

	h := &harness{
		t:        t,
		remote:   &flakyRemote{MemoryRemote: leaderboard.NewMemoryRemote(nil)},
		probe:    &fakeProbe{},
		snapshot: leaderboard.NewFileStore(filepath.Join(t.TempDir(), "leaderboard.yaml")),
		commands: make(chan Command, 16),
		now:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	tick := event.NewBus("tick")
	scheduled := event.NewBus("scheduled")
	disp := async.NewInline(256)
	log := zap.NewNop()

	h.deps = &Deps{
		World:       w,
		Stores:      st,
		Handles:     handles,
		Tick:        tick,
		Scheduled:   scheduled,
		Dispatcher:  disp,
		Rules:       settings.NewRules(settings.NewMemoryStore()),
		Leaderboard: leaderboard.NewController(h.snapshot, h.remote, disp, scheduled, log),
		Levels:      levels,
		Game:        cfg.Game,
		Sync:        cfg.Leaderboard,
		Now:         func() time.Time { return h.now },
		Log:         log,
	}
	h.runner = coresys.NewRunner(tick, scheduled)
	h.sys = RegisterAll(h.runner, h.deps, Options{
		Probe:    h.probe,
		Commands: h.commands,
		Snapshot: h.snapshot,
	})
	h.sys.LevelFlow.Load(1)
	return h
}

func (h *harness) step(n int) {
	for i := 0; i < n; i++ {
		h.runner.Tick(tickDT)
	}
}

// stepUntil ticks until cond holds, failing after limit ticks.
func (h *harness) stepUntil(limit int, cond func() bool) {
	h.t.Helper()
	for i := 0; i < limit; i++ {
		if cond() {
			return
		}
		h.step(1)
	}
	require.True(h.t, cond(), "condition not met after %d ticks", limit)
}

func (h *harness) moveTo(x, y float64) {
	body := h.deps.PlayerBody()
	body.Position = component.Vec2{X: x, Y: y}
	body.Velocity = component.Vec2{}
}

func (h *harness) enterFinishZone() {
	h.moveTo(11, 0)
}

// seed installs the same distribution locally and remotely.
func (h *harness) seed(s *leaderboard.Shots) {
	h.deps.Leaderboard.Replace(s.Clone())
	h.remote.MemoryRemote = leaderboard.NewMemoryRemote(s)
}

func (h *harness) remoteShots() *leaderboard.Shots {
	h.deps.Dispatcher.Drain()
	s, err := h.remote.MemoryRemote.ReadAll(context.Background())
	require.NoError(h.t, err)
	return s
}

// scheduledCounter counts the finish pipeline's scheduled events.
type scheduledCounter struct {
	writeRank, flush, showNext, calcRank int
}

func countScheduled(bus *event.Bus) *scheduledCounter {
	c := &scheduledCounter{}
	event.Subscribe(bus, func(event.WriteRankToStorage) { c.writeRank++ })
	event.Subscribe(bus, func(event.FlushSettings) { c.flush++ })
	event.Subscribe(bus, func(event.ShowNextLevel) { c.showNext++ })
	event.Subscribe(bus, func(event.CalculateRank) { c.calcRank++ })
	return c
}
