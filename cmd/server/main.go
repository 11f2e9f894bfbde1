package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/hoops-valuation/internal/api"
	"github.com/stitts-dev/hoops-valuation/internal/api/handlers"
	"github.com/stitts-dev/hoops-valuation/internal/api/middleware"
	"github.com/stitts-dev/hoops-valuation/internal/compensation"
	"github.com/stitts-dev/hoops-valuation/internal/providers"
	"github.com/stitts-dev/hoops-valuation/internal/services"
	"github.com/stitts-dev/hoops-valuation/internal/valuation"
	"github.com/stitts-dev/hoops-valuation/pkg/config"
	"github.com/stitts-dev/hoops-valuation/pkg/database"
	"github.com/stitts-dev/hoops-valuation/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Setup logging
	log := logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Connect to Redis. Valuations are served uncached when it is down.
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opt)
	defer redisClient.Close()

	var cache services.Cache
	cacheService := services.NewCacheService(redisClient)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := cacheService.Ping(pingCtx); err != nil {
		log.Warnf("Redis unavailable, caching disabled: %v", err)
	} else {
		cache = cacheService
	}
	cancelPing()

	// Compensation index
	var loader compensation.Loader
	switch cfg.CompensationSource {
	case "csv":
		loader = compensation.NewCSVLoader(cfg.CompensationCSVPath)
	default:
		loader = compensation.NewStore(db)
	}
	index := compensation.NewIndex(loader, log)

	// Season stats provider
	var (
		provider providers.StatsProvider
		lister   services.PlayerLister
	)
	switch cfg.StatsProvider {
	case "balldontlie":
		provider = providers.NewBallDontLieClient(providers.BallDontLieConfig{
			APIKey:            cfg.BallDontLieAPIKey,
			RequestsPerMinute: cfg.BallDontLieRateLimit,
			HistorySeasons:    cfg.HistorySeasons,
			Timeout:           cfg.ExternalAPITimeout,
		}, log)
	default:
		store := providers.NewSeasonStatsStore(db)
		provider = store
		lister = store
	}

	breaker := services.NewCircuitBreakerService(cfg.CircuitBreakerThreshold, 30*time.Second, log)
	engine := valuation.NewEngine(cfg.ValuationWorkers)

	valuationService := services.NewValuationService(
		engine,
		index,
		provider,
		lister,
		breaker,
		cache,
		services.ValuationServiceConfig{
			ProviderName:   cfg.StatsProvider,
			CacheTTL:       cfg.ValuationCacheTTL,
			PopulationMode: services.PopulationMode(cfg.PopulationMode),
			Workers:        cfg.ValuationWorkers,
		},
		log,
	)

	// Warm the index so the first request doesn't pay for the load
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), cfg.ExternalAPITimeout)
	if table, err := index.Snapshot(loadCtx); err != nil {
		log.Errorf("Failed to load compensation index: %v", err)
	} else {
		log.Infof("Loaded %d compensation records", table.Len())
	}
	cancelLoad()

	refresher := services.NewIndexRefresher(index, cfg.CompensationRefreshSchedule, time.Minute, log)
	if err := refresher.Start(); err != nil {
		log.Errorf("Failed to start compensation refresher: %v", err)
	}
	defer refresher.Stop()

	checks := map[string]handlers.Pinger{"database": db}
	if cache != nil {
		checks["redis"] = cacheService
	}
	health := handlers.NewHealthHandler(index, checks)

	router := api.NewRouter(valuationService, health,
		middleware.RequestID(),
		middleware.RequestLogger(),
	)

	// Log all registered routes
	log.Info("=== REGISTERED ROUTES ===")
	for _, route := range router.Routes() {
		log.Infof("%s %s", route.Method, route.Path)
	}
	log.Info("=========================")

	// Setup server. Season valuations can fan out to many upstream fetches.
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	svcLog := logger.WithService("hoops-valuation")
	go func() {
		svcLog.WithFields(logrus.Fields{
			"port":            cfg.Port,
			"stats_provider":  cfg.StatsProvider,
			"population_mode": cfg.PopulationMode,
		}).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	svcLog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	svcLog.Info("Server exited")
}
