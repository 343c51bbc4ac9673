package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gravitybox/game/internal/config"
	"github.com/gravitybox/game/internal/core/async"
	"github.com/gravitybox/game/internal/core/ecs"
	"github.com/gravitybox/game/internal/core/event"
	coresys "github.com/gravitybox/game/internal/core/system"
	"github.com/gravitybox/game/internal/data"
	"github.com/gravitybox/game/internal/leaderboard"
	"github.com/gravitybox/game/internal/remote"
	"github.com/gravitybox/game/internal/scripting"
	"github.com/gravitybox/game/internal/settings"
	"github.com/gravitybox/game/internal/system"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(levels int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             GravityBox  v0.1.0            \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mlevels:\033[0m %d\n\n", levels)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printReady(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func run() error {
	cfgPath := flag.String("config", "", "path to the game config (default $GRAVITYBOX_CONFIG or config/gravitybox.toml)")
	flag.Parse()

	path := *cfgPath
	if path == "" {
		path = os.Getenv("GRAVITYBOX_CONFIG")
	}
	if path == "" {
		path = "config/gravitybox.toml"
	}

	// 1. Load config
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	// 3. Static content
	levels, err := data.LoadLevelTable(cfg.Game.LevelsFile)
	if err != nil {
		return fmt.Errorf("load levels: %w", err)
	}
	if levels.Get(cfg.Game.InitialLevel) == nil {
		return fmt.Errorf("initial level %d is not defined in %s", cfg.Game.InitialLevel, cfg.Game.LevelsFile)
	}
	printBanner(levels.Count())

	engine, err := scripting.NewEngine(cfg.Game.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("load scripts: %w", err)
	}
	defer engine.Close()

	// 4. Persistent settings
	store, err := settings.OpenFileStore(cfg.Storage.SettingsPath)
	if err != nil {
		return fmt.Errorf("open settings: %w", err)
	}
	rules := settings.NewRules(store)

	// 5. Leaderboard
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	disp := async.NewDispatcher(cfg.Leaderboard.CompletionBuffer, cfg.Leaderboard.RequestTimeout)
	tick := event.NewBus("tick")
	scheduled := event.NewBus("scheduled")

	var (
		lbRemote leaderboard.Remote
		probe    system.Probe
	)
	if cfg.Leaderboard.Enabled {
		client := remote.NewClient(cfg.Leaderboard.Endpoint, log)
		lbRemote = client
		probe = client
		go client.Maintain(ctx, cfg.Leaderboard.ProbeInterval)
	}

	snapshot := leaderboard.NewFileStore(cfg.Leaderboard.SnapshotPath)
	board := leaderboard.NewController(snapshot, lbRemote, disp, scheduled, log)
	if err := board.LoadLocal(); err != nil {
		log.Warn("local leaderboard snapshot unusable, waiting for sync", zap.Error(err))
	}

	// 6. World and singletons
	w := ecs.NewWorld()
	stores := system.NewStores(w)
	system.SpawnSingletons(w, stores, cfg.Game.InitialLevel)
	handles, err := system.ResolveHandles(w, stores)
	if err != nil {
		return fmt.Errorf("resolve singletons: %w", err)
	}

	deps := &system.Deps{
		World:       w,
		Stores:      stores,
		Handles:     handles,
		Tick:        tick,
		Scheduled:   scheduled,
		Dispatcher:  disp,
		Rules:       rules,
		Leaderboard: board,
		Levels:      levels,
		Scripting:   engine,
		Game:        cfg.Game,
		Sync:        cfg.Leaderboard,
		Log:         log,
	}

	// 7. Systems
	commands := make(chan system.Command, cfg.Game.CommandQueueSize)
	go readConsole(os.Stdin, commands, log)

	runner := coresys.NewRunner(tick, scheduled)
	systems := system.RegisterAll(runner, deps, system.Options{
		Probe:    probe,
		Commands: commands,
		Snapshot: snapshot,
	})

	// 8. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Game.TickRate)
	defer ticker.Stop()

	printSection("ready")
	printReady(fmt.Sprintf("level %d", cfg.Game.InitialLevel))
	printReady(fmt.Sprintf("game loop (tick: %s)", cfg.Game.TickRate))
	if cfg.Leaderboard.Enabled {
		printReady(fmt.Sprintf("leaderboard %s", cfg.Leaderboard.Endpoint))
	}
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Game.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()),
				zap.Uint64("ticks", runner.Ticks()))
			cancel()
			disp.Close()
			systems.Persistence.Shutdown()
			log.Info("game stopped")
			return nil
		}
	}
}

// readConsole parses one command per line and queues it for the game loop.
// Unparseable lines are reported and skipped.
func readConsole(r io.Reader, out chan<- system.Command, log *zap.Logger) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		cmd, err := system.ParseCommand(line)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		select {
		case out <- cmd:
		default:
			log.Warn("command queue full, dropping", zap.String("line", line))
		}
	}
	if err := sc.Err(); err != nil {
		log.Warn("console closed", zap.Error(err))
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
