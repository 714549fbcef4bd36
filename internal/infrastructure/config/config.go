// Package config loads service configuration from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	DriverFile     = "file"
	DriverMongo    = "mongo"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=24h"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`

	Marketplace MarketplaceConfig
	Storage     StorageConfig
	Mongo       MongoConfig
	Redis       RedisConfig
	Postgres    PostgresConfig
	NATS        NATSConfig
	Login       LoginConfig
}

type MarketplaceConfig struct {
	MinBudget       int64         `env:"MIN_BUDGET,        default=500"`
	MinDeadlineDays int           `env:"MIN_DEADLINE_DAYS, default=3"`
	PersistTimeout  time.Duration `env:"PERSIST_TIMEOUT,   default=5s"`
	ExecutorsFile   string        `env:"EXECUTORS_FILE"`
	EventWorkers    int           `env:"EVENT_WORKERS,     default=4"`
}

type StorageConfig struct {
	Driver       string `env:"STORAGE_DRIVER,      default=file"`
	LocalPath    string `env:"LOCAL_SNAPSHOT_PATH, default=data/marketplace.json"`
	SyncSchedule string `env:"SYNC_SCHEDULE,       default=@every 30s"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=order_marketplace"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type PostgresConfig struct {
	DSN string `env:"POSTGRES_DSN"`
}

type NATSConfig struct {
	URL string `env:"NATS_URL"`
}

type LoginConfig struct {
	Rate  float64 `env:"LOGIN_RATE,  default=1"`
	Burst int     `env:"LOGIN_BURST, default=5"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverFile, DriverMongo, DriverRedis:
	case DriverPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("config: POSTGRES_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.Marketplace.MinBudget < 0 || c.Marketplace.MinDeadlineDays < 0 {
		return errors.New("config: MIN_BUDGET and MIN_DEADLINE_DAYS must not be negative")
	}
	if c.Login.Rate <= 0 || c.Login.Burst <= 0 {
		return errors.New("config: LOGIN_RATE and LOGIN_BURST must be positive")
	}
	return nil
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
