package system

import (
	"fmt"
	"time"

	"github.com/gravitybox/game/internal/component"
	"github.com/gravitybox/game/internal/config"
	"github.com/gravitybox/game/internal/core/async"
	"github.com/gravitybox/game/internal/core/ecs"
	"github.com/gravitybox/game/internal/core/event"
	"github.com/gravitybox/game/internal/data"
	"github.com/gravitybox/game/internal/leaderboard"
	"github.com/gravitybox/game/internal/scripting"
	"github.com/gravitybox/game/internal/settings"
	"go.uber.org/zap"
)

// Stores holds one component store per component type.
type Stores struct {
	Level       *ecs.Store[component.Level]
	Map         *ecs.Store[component.Map]
	FinishZone  *ecs.Store[component.FinishZone]
	Player      *ecs.Store[component.Player]
	Body        *ecs.Store[component.Body]
	Network     *ecs.Store[component.Network]
	Collectible *ecs.Store[component.Collectible]
}

func NewStores(w *ecs.World) *Stores {
	return &Stores{
		Level:       ecs.NewComponentStore[component.Level](w),
		Map:         ecs.NewComponentStore[component.Map](w),
		FinishZone:  ecs.NewComponentStore[component.FinishZone](w),
		Player:      ecs.NewComponentStore[component.Player](w),
		Body:        ecs.NewComponentStore[component.Body](w),
		Network:     ecs.NewComponentStore[component.Network](w),
		Collectible: ecs.NewComponentStore[component.Collectible](w),
	}
}

// Handles are the singleton entities holding global state. They are
// resolved once at composition time and handed to every system.
type Handles struct {
	Level   ecs.EntityID // Level, Map, FinishZone
	Player  ecs.EntityID // Player, Body
	Network ecs.EntityID // Network
}

// SpawnSingletons creates the level, player and network entities with
// default components. The level starts in Loading state.
func SpawnSingletons(w *ecs.World, st *Stores, initialLevel int) {
	level := w.CreateEntity()
	lvl := st.Level.Add(level)
	lvl.ID = initialLevel
	lvl.Loading = true
	st.Map.Add(level)
	st.FinishZone.Add(level)

	player := w.CreateEntity()
	st.Player.Add(player)
	st.Body.Add(player)

	network := w.CreateEntity()
	st.Network.Add(network)
}

// ResolveHandles finds every singleton entity and checks that it carries
// the components systems expect.
func ResolveHandles(w *ecs.World, st *Stores) (Handles, error) {
	var h Handles
	var err error
	if h.Level, err = ecs.FindSingleton(w, st.Level); err != nil {
		return h, fmt.Errorf("level singleton: %w", err)
	}
	if h.Player, err = ecs.FindSingleton(w, st.Player); err != nil {
		return h, fmt.Errorf("player singleton: %w", err)
	}
	if h.Network, err = ecs.FindSingleton(w, st.Network); err != nil {
		return h, fmt.Errorf("network singleton: %w", err)
	}
	if _, err := st.Map.Get(h.Level); err != nil {
		return h, fmt.Errorf("level map: %w", err)
	}
	if _, err := st.FinishZone.Get(h.Level); err != nil {
		return h, fmt.Errorf("level finish zone: %w", err)
	}
	if _, err := st.Body.Get(h.Player); err != nil {
		return h, fmt.Errorf("player body: %w", err)
	}
	return h, nil
}

// Deps holds shared dependencies injected into all systems.
type Deps struct {
	World       *ecs.World
	Stores      *Stores
	Handles     Handles
	Tick        *event.Bus
	Scheduled   *event.Bus
	Dispatcher  *async.Dispatcher
	Rules       *settings.Rules
	Leaderboard *leaderboard.Controller
	Levels      *data.LevelTable
	Scripting   *scripting.Engine // optional
	Game        config.GameConfig
	Sync        config.LeaderboardConfig
	Now         func() time.Time
	Log         *zap.Logger
}

// Handles were validated by ResolveHandles, so these lookups cannot miss.

func (d *Deps) Level() *component.Level {
	c, _ := d.Stores.Level.Lookup(d.Handles.Level)
	return c
}

func (d *Deps) Map() *component.Map {
	c, _ := d.Stores.Map.Lookup(d.Handles.Level)
	return c
}

func (d *Deps) FinishZone() *component.FinishZone {
	c, _ := d.Stores.FinishZone.Lookup(d.Handles.Level)
	return c
}

func (d *Deps) Player() *component.Player {
	c, _ := d.Stores.Player.Lookup(d.Handles.Player)
	return c
}

func (d *Deps) PlayerBody() *component.Body {
	c, _ := d.Stores.Body.Lookup(d.Handles.Player)
	return c
}

func (d *Deps) Network() *component.Network {
	c, _ := d.Stores.Network.Lookup(d.Handles.Network)
	return c
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// rankOf places shots on the level board, through the rank script when one
// is loaded.
func (d *Deps) rankOf(level, shots int) leaderboard.Rank {
	snap := d.Leaderboard.Snapshot()
	if d.Scripting != nil {
		return d.Scripting.CalcRank(snap.Buckets(level), shots)
	}
	return snap.Rank(level, shots)
}
