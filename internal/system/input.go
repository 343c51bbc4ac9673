package system

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gravitybox/game/internal/core/event"
	coresys "github.com/gravitybox/game/internal/core/system"
	"go.uber.org/zap"
)

// CommandKind names a player command.
type CommandKind int

const (
	CmdShoot CommandKind = iota
	CmdFlip
	CmdRestart
	CmdSkip
	CmdStatus
)

// Command is one player action read off the console.
type Command struct {
	Kind   CommandKind
	DX, DY float64
}

// ParseCommand parses a console line: "shoot <dx> <dy>", "flip", "restart",
// "skip" or "status".
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}
	switch fields[0] {
	case "shoot", "s":
		if len(fields) != 3 {
			return Command{}, fmt.Errorf("usage: shoot <dx> <dy>")
		}
		dx, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return Command{}, fmt.Errorf("shoot dx: %w", err)
		}
		dy, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return Command{}, fmt.Errorf("shoot dy: %w", err)
		}
		return Command{Kind: CmdShoot, DX: dx, DY: dy}, nil
	case "flip", "f":
		return Command{Kind: CmdFlip}, nil
	case "restart", "r":
		return Command{Kind: CmdRestart}, nil
	case "skip":
		return Command{Kind: CmdSkip}, nil
	case "status":
		return Command{Kind: CmdStatus}, nil
	}
	return Command{}, fmt.Errorf("unknown command %q", fields[0])
}

// CommandSystem drains the console command queue and turns each command
// into a tick event. Phase 0 (Input).
type CommandSystem struct {
	deps       *Deps
	queue      <-chan Command
	maxPerTick int
}

func NewCommandSystem(deps *Deps, queue <-chan Command, maxPerTick int) *CommandSystem {
	return &CommandSystem{deps: deps, queue: queue, maxPerTick: maxPerTick}
}

func (s *CommandSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *CommandSystem) Update(_ time.Duration) {
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case cmd, ok := <-s.queue:
			if !ok {
				return
			}
			s.dispatch(cmd)
		default:
			return
		}
	}
}

func (s *CommandSystem) dispatch(cmd Command) {
	switch cmd.Kind {
	case CmdShoot:
		event.Post(s.deps.Tick, event.Shoot{DX: cmd.DX, DY: cmd.DY})
	case CmdFlip:
		event.Post(s.deps.Tick, event.FlipGravity{})
	case CmdRestart:
		event.Post(s.deps.Tick, event.RestartLevel{})
	case CmdSkip:
		event.Post(s.deps.Tick, event.SkipLevel{})
	case CmdStatus:
		s.logStatus()
	}
}

func (s *CommandSystem) logStatus() {
	lvl, m, body := s.deps.Level(), s.deps.Map(), s.deps.PlayerBody()
	s.deps.Log.Info("status",
		zap.Int("level", lvl.ID),
		zap.Bool("finished", lvl.Finished),
		zap.Int("shots", m.Shots),
		zap.Int("collected", m.Collected),
		zap.Int("collectibles", m.Collectibles),
		zap.Float64("x", body.Position.X),
		zap.Float64("y", body.Position.Y),
		zap.Int("highscore", s.deps.Rules.Highscore(lvl.ID)),
		zap.Int("rank", s.deps.Rules.Rank(lvl.ID)),
		zap.Bool("leaderboard_loaded", s.deps.Leaderboard.Loaded()),
		zap.Bool("online", s.deps.Network().Connected))
}
