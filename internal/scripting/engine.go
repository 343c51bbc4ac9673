package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gravitybox/game/internal/leaderboard"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for tunable game formulas.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	e := newEngine(log)

	// Core scripts first, then feature directories
	for _, sub := range []string{"core", "rank"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			e.vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return e, nil
}

// NewEngineFromSource creates an engine from an in-memory chunk.
func NewEngineFromSource(src string, log *zap.Logger) (*Engine, error) {
	e := newEngine(log)
	if err := e.vm.DoString(src); err != nil {
		e.vm.Close()
		return nil, fmt.Errorf("load script: %w", err)
	}
	return e, nil
}

func newEngine(log *zap.Logger) *Engine {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	return &Engine{vm: vm, log: log}
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// CalcRank calls the Lua calc_rank function. Falls back to the built-in
// formula when the script is missing or fails.
func (e *Engine) CalcRank(buckets []leaderboard.Bucket, shots int) leaderboard.Rank {
	fallback := func() leaderboard.Rank { return leaderboard.RankFromBuckets(buckets, shots) }

	fn := e.vm.GetGlobal("calc_rank")
	if fn == lua.LNil {
		return fallback()
	}

	t := e.vm.NewTable()
	t.RawSetString("shots", lua.LNumber(shots))
	bt := e.vm.NewTable()
	for _, b := range buckets {
		row := e.vm.NewTable()
		row.RawSetString("shots", lua.LNumber(b.Shots))
		row.RawSetString("players", lua.LNumber(b.Players))
		bt.Append(row)
	}
	t.RawSetString("buckets", bt)

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua calc_rank error", zap.Error(err))
		return fallback()
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		e.log.Error("lua calc_rank returned non-table")
		return fallback()
	}

	return leaderboard.Rank{
		Position:   lInt(rt, "position"),
		Percentage: float64(lua.LVAsNumber(rt.RawGetString("percentage"))),
		NewRecord:  lua.LVAsBool(rt.RawGetString("new_record")),
	}
}

// FinishDwellMillis calls the optional Lua finish_dwell_ms(level_id) hook,
// returning def when it is not defined.
func (e *Engine) FinishDwellMillis(levelID, def int) int {
	if e.vm.GetGlobal("finish_dwell_ms") == lua.LNil {
		return def
	}
	if v := e.callIntFunc("finish_dwell_ms", levelID); v > 0 {
		return v
	}
	return def
}

// lInt reads an integer field from a Lua table.
func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

// callIntFunc calls a Lua function with int args and returns an int result.
func (e *Engine) callIntFunc(name string, args ...int) int {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		e.log.Error("lua function not found", zap.String("name", name))
		return 0
	}

	lArgs := make([]lua.LValue, len(args))
	for i, a := range args {
		lArgs[i] = lua.LNumber(a)
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lArgs...); err != nil {
		e.log.Error("lua call error", zap.String("func", name), zap.Error(err))
		return 0
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)
	return int(lua.LVAsNumber(result))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
