package main

import (
	"context"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/sabscarpenter/skytravel/internal/activities"
	"github.com/sabscarpenter/skytravel/internal/config"
	"github.com/sabscarpenter/skytravel/internal/database"
	"github.com/sabscarpenter/skytravel/internal/holds"
	"github.com/sabscarpenter/skytravel/internal/logger"
	"github.com/sabscarpenter/skytravel/internal/metrics"
	"github.com/sabscarpenter/skytravel/internal/payment"
	"github.com/sabscarpenter/skytravel/internal/schedule"
	"github.com/sabscarpenter/skytravel/internal/workflows"
)

// authorizationLatency simulates the round trip to the payment provider
const authorizationLatency = 500 * time.Millisecond

func main() {
	ctx := context.Background()
	cfg := config.Load()

	log := logger.New(cfg.LogLevel)
	defer log.Sync()

	// Connect to database
	log.Info("Connecting to database...")
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	log.Info("Connected to database")

	store := schedule.NewPostgresStore(pool)
	manager := holds.NewManager(holds.NewPostgresRepository(pool), store, metrics.New(prometheus.DefaultRegisterer), log)

	// Connect to Temporal
	log.Info("Connecting to Temporal...", "host", cfg.TemporalHost)
	c, err := client.Dial(client.Options{
		HostPort: cfg.TemporalHost,
		Logger:   log,
	})
	if err != nil {
		log.Error("Failed to connect to Temporal", "error", err)
		os.Exit(1)
	}
	defer c.Close()
	log.Info("Connected to Temporal")

	// Create worker
	w := worker.New(c, cfg.TaskQueue, worker.Options{})

	// Register workflows
	w.RegisterWorkflow(workflows.CheckoutWorkflow)

	// Register activities; method names become the activity types
	authority := payment.NewSimulatedAuthority(cfg.PaymentFailureRate, authorizationLatency, log)
	w.RegisterActivity(activities.New(manager, authority))

	log.Info("Starting Temporal worker...", "taskQueue", cfg.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Error("Worker failed", "error", err)
		os.Exit(1)
	}
}
