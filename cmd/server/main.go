package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cardclash/battle-server-go/internal/catalog"
	"github.com/cardclash/battle-server-go/internal/config"
	"github.com/cardclash/battle-server-go/internal/engine"
	"github.com/cardclash/battle-server-go/internal/server"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting battle server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	cat, pool, err := loadCatalog(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to load card catalog", zap.Error(err))
	}
	if pool != nil {
		defer pool.Close()
	}
	logger.Info("card catalog loaded", zap.Int("cards", cat.Size()))

	var recorder *engine.Recorder
	if cfg.Replay.Enabled {
		recorder, err = engine.NewRecorder(cfg.Replay.Dir, logger)
		if err != nil {
			logger.Fatal("failed to initialize replay recorder", zap.Error(err))
		}
		logger.Info("replay recorder initialized", zap.String("dir", cfg.Replay.Dir))
	}

	battleEngine := engine.NewBattleEngine(cat, logger)
	srv := server.New(battleEngine, recorder, logger, cfg.Server.TurnTimer)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx, cfg.Server.Address)
	}()

	logger.Info("battle server initialized",
		zap.String("address", cfg.Server.Address),
		zap.Duration("turn_timer", cfg.Server.TurnTimer),
		zap.Bool("database", cfg.Database.Enabled),
	)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", zap.Error(err))
		}
	}

	logger.Info("shutting down gracefully...")
	cancel()
	<-errCh

	logger.Info("battle server stopped")
}

// loadCatalog prefers the database card store when enabled and falls back to
// the embedded basic set.
func loadCatalog(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*catalog.Catalog, *pgxpool.Pool, error) {
	if !cfg.Enabled {
		cat, err := catalog.BasicSet()
		return cat, nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	repo := catalog.NewRepository(pool, logger)
	cat, err := repo.LoadCatalog(ctx)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	if cat.Size() == 0 {
		pool.Close()
		logger.Warn("database card store is empty, falling back to embedded set")
		cat, err := catalog.BasicSet()
		return cat, nil, err
	}
	return cat, pool, nil
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
