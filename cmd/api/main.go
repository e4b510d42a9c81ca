package main

// @title Itinerary Microservice API
// @version 1.0.0
// @description Микросервис для планирования многодневных маршрутов по точкам интереса.
// @description
// @description Основные возможности:
// @description - Создание маршрутов по дням и управление точками
// @description - Оптимизация порядка посещения (время, расстояние, живописность, рейтинг)
// @description - Статистика маршрута и подсказки POI рядом с днём или в городе
// @description - Асинхронная оптимизация через Redis Streams

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/itinerary-microservice/docs"
	"github.com/itinerary-microservice/internal/config"
	httpDelivery "github.com/itinerary-microservice/internal/delivery/http"
	"github.com/itinerary-microservice/internal/delivery/http/handler"
	"github.com/itinerary-microservice/internal/domain/repository"
	"github.com/itinerary-microservice/internal/infrastructure/poicatalog"
	"github.com/itinerary-microservice/internal/optimizer"
	"github.com/itinerary-microservice/internal/pkg/geo"
	"github.com/itinerary-microservice/internal/pkg/logger"
	"github.com/itinerary-microservice/internal/repository/cache"
	"github.com/itinerary-microservice/internal/repository/memory"
	"github.com/itinerary-microservice/internal/repository/postgres"
	redisRepo "github.com/itinerary-microservice/internal/repository/redis"
	"github.com/itinerary-microservice/internal/usecase"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level, "itinerary-api")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Itinerary Microservice")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.String("poi_gateway_driver", cfg.POIGateway.Driver),
	)

	healthChecks := make(map[string]httpDelivery.HealthChecker)

	// 3. Connect to PostgreSQL (нужен для postgres хранилища и postgres каталога POI)
	var db *postgres.DB
	if cfg.Storage.Driver == "postgres" || cfg.POIGateway.Driver == "postgres" {
		db, err = postgres.New(&cfg.Database, log)
		if err != nil {
			log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Failed to close PostgreSQL connection", zap.Error(err))
			}
		}()
		healthChecks["postgres"] = db.Health
		log.Info("PostgreSQL connected")
	}

	// 4. Connect to Redis. Без Redis сервис работает без кеша и асинхронной оптимизации
	var (
		cacheRepo    repository.CacheRepository
		streamRepo   repository.StreamRepository
		streamClient *goredis.Client
	)
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Warn("Redis unavailable, running without cache and async optimization", zap.Error(err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Failed to close Redis connection", zap.Error(err))
			}
		}()
		healthChecks["redis"] = redisClient.Health
		cacheRepo = cache.NewCacheRepository(redisClient)

		streamClient, err = cache.NewRedisStreams(&cfg.Redis, cfg.Optimizer.Workers, log)
		if err != nil {
			log.Warn("Redis Streams unavailable, async optimization disabled", zap.Error(err))
		} else {
			defer func() {
				if err := streamClient.Close(); err != nil {
					log.Error("Failed to close Redis Streams connection", zap.Error(err))
				}
			}()
			streamRepo = redisRepo.NewStreamRepository(streamClient, log)
		}
		log.Info("Redis connected")
	}

	// 5. Initialize Repositories
	var itineraryRepo repository.ItineraryRepository
	switch cfg.Storage.Driver {
	case "postgres":
		itineraryRepo = postgres.NewItineraryRepository(db)
	case "memory":
		itineraryRepo = memory.NewItineraryRepository(log)
	default:
		log.Fatal("Unknown storage driver", zap.String("driver", cfg.Storage.Driver))
	}

	var poiGateway repository.POIGateway
	switch cfg.POIGateway.Driver {
	case "http":
		poiGateway = poicatalog.NewClient(&cfg.POIGateway, log)
	case "postgres":
		poiGateway = postgres.NewPOIGateway(db)
	default:
		log.Fatal("Unknown POI gateway driver", zap.String("driver", cfg.POIGateway.Driver))
	}
	if cacheRepo != nil {
		poiGateway = cache.NewCachedPOIGateway(poiGateway, cacheRepo, cfg.Cache.POICacheTTL, log)
	}

	log.Info("Repositories initialized")

	// 6. Initialize Use Cases
	estimator := geo.NewEstimator(nil)
	itineraryUC := usecase.NewItineraryUseCase(
		itineraryRepo,
		poiGateway,
		cacheRepo,
		streamRepo,
		optimizer.New(estimator, cfg.Optimizer.Workers, log),
		estimator,
		cfg.Itinerary,
		cfg.Cache.ItineraryCacheTTL,
		log,
	)

	log.Info("Use cases initialized")

	// 7. Initialize HTTP Handlers
	itineraryHandler := handler.NewItineraryHandler(itineraryUC, log)

	// 8. Initialize HTTP Server
	server := httpDelivery.NewServer(cfg, log, itineraryHandler, healthChecks)

	// 9. Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 10. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	log.Info("Server stopped successfully")
}
