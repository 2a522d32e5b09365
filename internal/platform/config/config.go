package config

import (
	"os"
	"strconv"
	"time"
)

// Config aggregates all runtime configuration. Built once in main from the
// environment so the rest of the code never touches os.Getenv.
type Config struct {
	Server   Server
	Database Database
	Redis    Redis
	Kafka    Kafka
	Engine   Engine
	Tree     Tree
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr        string
	Environment string
	// SeedDemo loads demo family data on startup. Only honored in the
	// databaseless development mode.
	SeedDemo bool
}

// Database holds PostgreSQL connection settings. An empty URL means the
// service runs on in-memory stores (useful for local development and tests).
type Database struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Redis holds cache connection settings. An empty URL disables Redis and the
// tree cache falls back to the in-process implementation.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka holds event stream settings. Empty brokers disable event publishing.
type Kafka struct {
	Brokers         string
	Topic           string
	Acks            string
	Retries         int
	DeliveryTimeout time.Duration
}

// Engine configures the background analysis worker.
type Engine struct {
	QueueSize int
	Workers   int
}

// Tree configures the family tree builder cache.
type Tree struct {
	CacheTTL time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:        envString("LINEAGE_ADDR", ":8080"),
			Environment: envString("LINEAGE_ENV", "development"),
			SeedDemo:    envBool("LINEAGE_SEED_DEMO", false),
		},
		Database: Database{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: Redis{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers:         os.Getenv("KAFKA_BROKERS"),
			Topic:           envString("KAFKA_TOPIC", "lineage.analysis.events"),
			Acks:            envString("KAFKA_ACKS", "all"),
			Retries:         envInt("KAFKA_RETRIES", 3),
			DeliveryTimeout: envDuration("KAFKA_DELIVERY_TIMEOUT", 10*time.Second),
		},
		Engine: Engine{
			QueueSize: envInt("ENGINE_QUEUE_SIZE", 256),
			Workers:   envInt("ENGINE_WORKERS", 4),
		},
		Tree: Tree{
			CacheTTL: envDuration("TREE_CACHE_TTL", 30*time.Minute),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
