package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr        string
	Environment string

	// DatabaseURL selects the postgres store; empty runs in memory.
	DatabaseURL string
	// DatabaseTxTimeout bounds each store transaction.
	DatabaseTxTimeout time.Duration

	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	// AdminToken guards operator endpoints; empty disables them.
	AdminToken string

	// PolicyFile is an optional YAML risk policy.
	PolicyFile string

	Redis RedisConfig
	Kafka KafkaConfig
	Sweep SweepConfig
}

// RedisConfig configures the distributed item locker. An empty URL keeps
// locking in-process.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	LockTTL      time.Duration
	// LockMaxWait bounds how long a write waits for a held item lock.
	LockMaxWait time.Duration
}

// KafkaConfig configures the event publisher. No brokers disables publishing.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// SweepConfig configures the periodic re-derivation sweep.
type SweepConfig struct {
	Enabled     bool
	Interval    time.Duration
	Concurrency int
}

// IsDevelopment reports whether the server runs with development defaults.
func (s Server) IsDevelopment() bool {
	return s.Environment == "" || s.Environment == "development"
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:          getEnv("COMPLYTRACK_ADDR", ":8080"),
		Environment:   getEnv("COMPLYTRACK_ENV", "development"),
		DatabaseURL:   os.Getenv("COMPLYTRACK_DATABASE_URL"),
		JWTSigningKey: os.Getenv("COMPLYTRACK_JWT_SIGNING_KEY"),
		JWTIssuer:     getEnv("COMPLYTRACK_JWT_ISSUER", "complytrack"),
		JWTAudience:   getEnv("COMPLYTRACK_JWT_AUDIENCE", "complytrack-api"),
		AdminToken:    os.Getenv("COMPLYTRACK_ADMIN_TOKEN"),
		PolicyFile:    os.Getenv("COMPLYTRACK_POLICY_FILE"),
		Redis: RedisConfig{
			URL: os.Getenv("COMPLYTRACK_REDIS_URL"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("COMPLYTRACK_KAFKA_BROKERS")),
			Topic:   getEnv("COMPLYTRACK_KAFKA_TOPIC", "complytrack.events"),
		},
	}

	var err error
	if cfg.Redis.PoolSize, err = intEnv("COMPLYTRACK_REDIS_POOL_SIZE", 10); err != nil {
		return Server{}, err
	}
	if cfg.Redis.MinIdleConns, err = intEnv("COMPLYTRACK_REDIS_MIN_IDLE_CONNS", 2); err != nil {
		return Server{}, err
	}
	if cfg.Redis.DialTimeout, err = durationEnv("COMPLYTRACK_REDIS_DIAL_TIMEOUT", 5*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.Redis.ReadTimeout, err = durationEnv("COMPLYTRACK_REDIS_READ_TIMEOUT", 3*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.Redis.WriteTimeout, err = durationEnv("COMPLYTRACK_REDIS_WRITE_TIMEOUT", 3*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.Redis.LockTTL, err = durationEnv("COMPLYTRACK_REDIS_LOCK_TTL", 10*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.Redis.LockMaxWait, err = durationEnv("COMPLYTRACK_REDIS_LOCK_MAX_WAIT", 5*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.DatabaseTxTimeout, err = durationEnv("COMPLYTRACK_DATABASE_TX_TIMEOUT", 5*time.Second); err != nil {
		return Server{}, err
	}

	cfg.Sweep.Enabled = getEnv("COMPLYTRACK_SWEEP_ENABLED", "true") == "true"
	if cfg.Sweep.Interval, err = durationEnv("COMPLYTRACK_SWEEP_INTERVAL", 15*time.Minute); err != nil {
		return Server{}, err
	}
	if cfg.Sweep.Concurrency, err = intEnv("COMPLYTRACK_SWEEP_CONCURRENCY", 4); err != nil {
		return Server{}, err
	}

	if cfg.JWTSigningKey == "" {
		if !cfg.IsDevelopment() {
			return Server{}, fmt.Errorf("COMPLYTRACK_JWT_SIGNING_KEY is required outside development")
		}
		// Use a default for development - should be overridden in production
		cfg.JWTSigningKey = "dev-secret-key-change-in-production"
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, v)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for part := range strings.SplitSeq(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
