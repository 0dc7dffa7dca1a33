package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sabscarpenter/skytravel/internal/config"
	"github.com/sabscarpenter/skytravel/internal/database"
	"github.com/sabscarpenter/skytravel/internal/holds"
	"github.com/sabscarpenter/skytravel/internal/logger"
	"github.com/sabscarpenter/skytravel/internal/metrics"
	"github.com/sabscarpenter/skytravel/internal/schedule"
	"github.com/sabscarpenter/skytravel/internal/search"
)

// env is what every subcommand needs: config, a logger and a pool.
type env struct {
	cfg   *config.Config
	log   *logger.ZapLogger
	pool  *pgxpool.Pool
	store *schedule.PostgresStore
}

func connect(ctx context.Context) (*env, error) {
	cfg := config.Load()
	if databaseURL != "" {
		cfg.DatabaseURL = databaseURL
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log := logger.New(cfg.LogLevel)
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &env{cfg: cfg, log: log, pool: pool, store: schedule.NewPostgresStore(pool)}, nil
}

func (e *env) Close() {
	e.pool.Close()
	e.log.Sync()
}

// A private registry keeps one-shot commands from touching global state.
func (e *env) metrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

func (e *env) engine() *search.Engine {
	return search.NewEngine(e.store, nil, e.metrics(), e.log)
}

func (e *env) holds() *holds.Manager {
	return holds.NewManager(holds.NewPostgresRepository(e.pool), e.store, e.metrics(), e.log)
}
