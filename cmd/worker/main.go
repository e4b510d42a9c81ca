package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/itinerary-microservice/internal/config"
	"github.com/itinerary-microservice/internal/domain/repository"
	"github.com/itinerary-microservice/internal/infrastructure/poicatalog"
	"github.com/itinerary-microservice/internal/optimizer"
	"github.com/itinerary-microservice/internal/pkg/geo"
	"github.com/itinerary-microservice/internal/pkg/logger"
	"github.com/itinerary-microservice/internal/repository/cache"
	"github.com/itinerary-microservice/internal/repository/postgres"
	redisRepo "github.com/itinerary-microservice/internal/repository/redis"
	"github.com/itinerary-microservice/internal/usecase"
	"github.com/itinerary-microservice/internal/worker"
	"github.com/itinerary-microservice/internal/worker/optimization"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Check if worker is enabled
	if !cfg.Worker.Enabled {
		fmt.Println("Worker is disabled in configuration. Set WORKER_ENABLED=true to enable.")
		os.Exit(0)
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level, "itinerary-worker")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Itinerary Optimization Worker")
	log.Info("Configuration loaded",
		zap.String("consumer_group", cfg.Worker.ConsumerGroup),
		zap.Int("max_retries", cfg.Worker.MaxRetries),
		zap.Duration("block_timeout", cfg.Worker.BlockTimeout))

	// Воркер и API должны видеть одни и те же маршруты
	if cfg.Storage.Driver != "postgres" {
		log.Fatal("Worker requires the postgres storage driver", zap.String("driver", cfg.Storage.Driver))
	}

	// 3. Connect to PostgreSQL
	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close PostgreSQL connection", zap.Error(err))
		}
	}()

	// 4. Connect to Redis
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	streamClient, err := cache.NewRedisStreams(&cfg.Redis, cfg.Optimizer.Workers, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis Streams", zap.Error(err))
	}
	defer func() {
		if err := streamClient.Close(); err != nil {
			log.Error("Failed to close Redis Streams connection", zap.Error(err))
		}
	}()

	// 5. Initialize repositories
	cacheRepo := cache.NewCacheRepository(redisClient)
	streamRepo := redisRepo.NewStreamRepository(streamClient, log)

	var poiGateway repository.POIGateway
	if cfg.POIGateway.Driver == "postgres" {
		poiGateway = postgres.NewPOIGateway(db)
	} else {
		poiGateway = poicatalog.NewClient(&cfg.POIGateway, log)
	}
	poiGateway = cache.NewCachedPOIGateway(poiGateway, cacheRepo, cfg.Cache.POICacheTTL, log)

	// 6. Initialize use cases
	estimator := geo.NewEstimator(nil)
	itineraryUC := usecase.NewItineraryUseCase(
		postgres.NewItineraryRepository(db),
		poiGateway,
		cacheRepo,
		streamRepo,
		optimizer.New(estimator, cfg.Optimizer.Workers, log),
		estimator,
		cfg.Itinerary,
		cfg.Cache.ItineraryCacheTTL,
		log,
	)

	// 7. Initialize workers
	optimizationWorker := optimization.NewOptimizationWorker(
		streamRepo,
		itineraryUC,
		&cfg.Worker,
		log,
	)

	// 8. Create worker manager and register workers
	workerManager := worker.NewWorkerManager(worker.DefaultShutdownTimeout, log)
	workerManager.Register(optimizationWorker)

	// 9. Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Received shutdown signal")

	// Cancel context to stop workers
	cancel()

	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	log.Info("Worker shutdown complete")
}
