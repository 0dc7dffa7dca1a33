package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.temporal.io/sdk/client"
	"golang.org/x/sync/errgroup"

	"github.com/sabscarpenter/skytravel/internal/cache"
	"github.com/sabscarpenter/skytravel/internal/config"
	"github.com/sabscarpenter/skytravel/internal/database"
	"github.com/sabscarpenter/skytravel/internal/handlers"
	"github.com/sabscarpenter/skytravel/internal/holds"
	"github.com/sabscarpenter/skytravel/internal/logger"
	"github.com/sabscarpenter/skytravel/internal/metrics"
	"github.com/sabscarpenter/skytravel/internal/ratelimit"
	"github.com/sabscarpenter/skytravel/internal/router"
	"github.com/sabscarpenter/skytravel/internal/schedule"
	"github.com/sabscarpenter/skytravel/internal/search"
	"github.com/sabscarpenter/skytravel/internal/service"
	"github.com/sabscarpenter/skytravel/internal/websocket"
)

var _ holds.Notifier = (*websocket.Hub)(nil)

func main() {
	cfg := config.Load()

	log := logger.New(cfg.LogLevel)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		log.Error("Failed to apply schema", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to database")

	m := metrics.New(prometheus.DefaultRegisterer)
	store := schedule.NewPostgresStore(pool)

	var itineraryCache cache.Cache = cache.NewNoOpCache()
	if cfg.SearchCacheEnabled {
		redisCache, err := cache.NewRedisCache(cache.RedisConfig{Addr: cfg.RedisAddr, TTL: cfg.SearchCacheTTL})
		if err != nil {
			log.Warn("Search cache disabled, redis unreachable", "addr", cfg.RedisAddr, "error", err)
		} else {
			itineraryCache = redisCache
			log.Info("Search cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.SearchCacheTTL.String())
		}
	}
	defer itineraryCache.Close()

	hub := websocket.NewHub(log)

	engine := search.NewEngine(store, itineraryCache, m, log)
	manager := holds.NewManager(holds.NewPostgresRepository(pool), store, m, log)
	manager.SetNotifier(hub)

	// Checkout endpoints answer 503 when Temporal is unreachable; search and
	// direct booking keep working.
	var temporalClient client.Client
	temporalClient, err = client.Dial(client.Options{
		HostPort: cfg.TemporalHost,
		Logger:   log,
	})
	if err != nil {
		log.Warn("Temporal unavailable, checkout workflow disabled", "host", cfg.TemporalHost, "error", err)
		temporalClient = nil
	} else {
		defer temporalClient.Close()
		log.Info("Connected to Temporal", "host", cfg.TemporalHost)
	}

	bookingService := service.NewBookingService(engine, manager, store, temporalClient, cfg.TaskQueue, log)
	h := handlers.NewHandler(bookingService, log)

	limiter := ratelimit.NewClientLimiter(ratelimit.Config{
		RequestsPerSecond: cfg.SearchRateLimit,
		BurstSize:         cfg.SearchRateBurst,
	})

	r := router.SetupRouter(h, router.Options{
		Hub:           hub,
		SearchLimiter: limiter,
		Gatherer:      prometheus.DefaultGatherer,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("API Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		hub.Run()
		return nil
	})

	g.Go(func() error {
		return holds.NewReaper(manager, cfg.HoldSweepInterval, log).Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		hub.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("Server stopped")
}
