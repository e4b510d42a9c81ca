package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Cache      CacheConfig
	Log        LogConfig
	Storage    StorageConfig
	POIGateway POIGatewayConfig
	Itinerary  ItineraryConfig
	Optimizer  OptimizerConfig
	Worker     WorkerConfig
}

type ServerConfig struct {
	Host string
	Port int
	Env  string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CacheConfig struct {
	ItineraryCacheTTL time.Duration
	POICacheTTL       time.Duration
}

type LogConfig struct {
	Level string
}

// StorageConfig selects the itinerary store: "postgres" or "memory".
type StorageConfig struct {
	Driver string
}

// POIGatewayConfig selects the POI catalog: "http" or "postgres".
type POIGatewayConfig struct {
	Driver         string
	BaseURL        string
	RequestTimeout time.Duration
}

type ItineraryConfig struct {
	MinDays             int
	MaxDays             int
	DefaultVisitMinutes int
}

type OptimizerConfig struct {
	Workers int
}

type WorkerConfig struct {
	Enabled       bool
	ConsumerGroup string
	BlockTimeout  time.Duration
	MaxRetries    int
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// .env is optional, the environment alone is enough
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("API_HOST"),
			Port: viper.GetInt("API_PORT"),
			Env:  viper.GetString("API_ENV"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			DBName:          viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxConns:        viper.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(viper.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(viper.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Cache: CacheConfig{
			ItineraryCacheTTL: time.Duration(viper.GetInt("ITINERARY_CACHE_TTL")) * time.Second,
			POICacheTTL:       time.Duration(viper.GetInt("POI_CACHE_TTL")) * time.Second,
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Storage: StorageConfig{
			Driver: viper.GetString("STORAGE_DRIVER"),
		},
		POIGateway: POIGatewayConfig{
			Driver:         viper.GetString("POI_GATEWAY_DRIVER"),
			BaseURL:        viper.GetString("POI_GATEWAY_BASE_URL"),
			RequestTimeout: time.Duration(viper.GetInt("POI_GATEWAY_TIMEOUT")) * time.Second,
		},
		Itinerary: ItineraryConfig{
			MinDays:             viper.GetInt("ITINERARY_MIN_DAYS"),
			MaxDays:             viper.GetInt("ITINERARY_MAX_DAYS"),
			DefaultVisitMinutes: viper.GetInt("DEFAULT_VISIT_MINUTES"),
		},
		Optimizer: OptimizerConfig{
			Workers: viper.GetInt("OPTIMIZER_WORKERS"),
		},
		Worker: WorkerConfig{
			Enabled:       viper.GetBool("WORKER_ENABLED"),
			ConsumerGroup: viper.GetString("WORKER_CONSUMER_GROUP"),
			BlockTimeout:  time.Duration(viper.GetInt("WORKER_BLOCK_TIMEOUT")) * time.Millisecond,
			MaxRetries:    viper.GetInt("WORKER_MAX_RETRIES"),
		},
	}

	cfg.applyDefaults()

	return cfg, nil
}

// Set default values if not provided
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Cache.ItineraryCacheTTL == 0 {
		c.Cache.ItineraryCacheTTL = 10 * time.Minute
	}
	if c.Cache.POICacheTTL == 0 {
		c.Cache.POICacheTTL = 24 * time.Hour
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "postgres"
	}
	if c.POIGateway.Driver == "" {
		c.POIGateway.Driver = "http"
	}
	if c.POIGateway.RequestTimeout == 0 {
		c.POIGateway.RequestTimeout = 5 * time.Second
	}
	if c.Itinerary.MinDays == 0 {
		c.Itinerary.MinDays = 1
	}
	if c.Itinerary.MaxDays == 0 {
		c.Itinerary.MaxDays = 30
	}
	if c.Itinerary.DefaultVisitMinutes == 0 {
		c.Itinerary.DefaultVisitMinutes = 60
	}
	if c.Optimizer.Workers == 0 {
		c.Optimizer.Workers = 4
	}
	if c.Worker.ConsumerGroup == "" {
		c.Worker.ConsumerGroup = "itinerary-optimize-workers"
	}
	if c.Worker.BlockTimeout == 0 {
		c.Worker.BlockTimeout = 1000 * time.Millisecond
	}
	if c.Worker.MaxRetries == 0 {
		c.Worker.MaxRetries = 3
	}
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
