package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gravitybox/game/internal/config"
	"github.com/gravitybox/game/internal/leaderboard"
	"github.com/gravitybox/game/internal/persist"
	"github.com/gravitybox/game/internal/remote"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", "", "path to the service config (default $LEADERBOARDD_CONFIG or config/leaderboardd.toml)")
	flag.Parse()

	path := *cfgPath
	if path == "" {
		path = os.Getenv("LEADERBOARDD_CONFIG")
	}
	if path == "" {
		path = "config/leaderboardd.toml"
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	var backend leaderboard.Remote
	healthy := func(context.Context) error { return nil }
	switch cfg.Server.Backend {
	case "postgres":
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		if _, err := persist.RunMigrations(ctx, db.Pool, log); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		healthy = db.Healthy
		repo := persist.NewLeaderboardRepo(db)
		backend = repo
		if cfg.Server.AuditRetention > 0 && cfg.Server.PruneInterval > 0 {
			g.Go(func() error {
				pruneLoop(gctx, repo, cfg.Server, log)
				return nil
			})
		}
	default:
		backend = leaderboard.NewMemoryRemote(nil)
		log.Warn("using in-memory leaderboard, counts are lost on restart")
	}

	mux := http.NewServeMux()
	ws := remote.NewServer(backend, cfg.Server.WriteTimeout, log)
	mux.Handle("/ws", ws)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := healthy(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:              cfg.Server.BindAddress,
		Handler:           mux,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
	}

	g.Go(func() error {
		log.Info("leaderboard service listening",
			zap.String("addr", cfg.Server.BindAddress),
			zap.String("backend", cfg.Server.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		ws.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("leaderboard service stopped")
	return nil
}

// pruneLoop drops adjustment audit rows older than the retention window.
func pruneLoop(ctx context.Context, repo *persist.LeaderboardRepo, cfg config.ServerConfig, log *zap.Logger) {
	ticker := time.NewTicker(cfg.PruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.PruneAdjustments(ctx, cfg.AuditRetention)
			if err != nil {
				log.Warn("prune leaderboard adjustments failed", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("pruned leaderboard adjustments", zap.Int64("rows", n))
			}
		}
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
		zapCfg.DisableCaller = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
