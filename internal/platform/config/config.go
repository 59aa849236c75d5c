package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreRedis    = "redis"
)

// Email providers.
const (
	EmailMock = "mock"
	EmailSES  = "ses"
)

// Server captures process level configuration.
type Server struct {
	Addr              string
	Environment       string
	LogLevel          string
	PlatformSimDomain string
	PublicBaseURL     string

	HTTP     HTTPConfig
	Store    StoreConfig
	Redis    RedisConfig
	Email    EmailConfig
	Dispatch DispatchConfig
	Kafka    KafkaConfig
	Ingest   IngestConfig
}

// HTTPConfig holds listener timeouts. WriteTimeout must cover a dispatch,
// whose send phase runs inside the request.
type HTTPConfig struct {
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

// StoreConfig selects and configures the snapshot persister.
type StoreConfig struct {
	Backend     string
	FilePath    string
	DatabaseURL string
	SQLitePath  string
	RedisKey    string
}

// RedisConfig configures the go-redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// EmailConfig selects the simulation email transport.
type EmailConfig struct {
	Provider      string
	AWSRegion     string
	FromLocalPart string
}

// DispatchConfig bounds the send phase of a campaign dispatch.
type DispatchConfig struct {
	Concurrency    int
	RecordAttempts int
	RecordBackoff  time.Duration
}

// KafkaConfig enables audit streaming when Brokers is non-empty.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// IngestConfig rate limits anonymous tracking endpoints per client IP.
type IngestConfig struct {
	RatePerSecond float64
	Burst         int
}

func (s Server) IsProduction() bool {
	return s.Environment == "production"
}

// LoadDotEnv preloads variables from the given files (default ".env") when
// present. Variables already in the environment win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:              getEnv("PHISHSIM_ADDR", ":8080"),
		Environment:       getEnv("ENVIRONMENT", "development"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		PlatformSimDomain: getEnv("PLATFORM_SIM_DOMAIN", "sim.phishsim.local"),
		PublicBaseURL:     strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		Store: StoreConfig{
			Backend:     getEnv("STORE_BACKEND", StoreFile),
			FilePath:    getEnv("STORE_FILE_PATH", "data/phishsim-state.json"),
			DatabaseURL: os.Getenv("DATABASE_URL"),
			SQLitePath:  getEnv("SQLITE_PATH", "data/phishsim.db"),
			RedisKey:    getEnv("STORE_REDIS_KEY", "phishsim:state"),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Email: EmailConfig{
			Provider:      getEnv("EMAIL_PROVIDER", EmailMock),
			AWSRegion:     getEnv("AWS_REGION", "us-east-1"),
			FromLocalPart: getEnv("SES_FROM_LOCALPART", "security-notice"),
		},
		Kafka: KafkaConfig{
			AuditTopic: getEnv("AUDIT_TOPIC", "phishsim.audit"),
		},
	}

	var errs []error
	var err error
	if cfg.Redis.PoolSize, err = getInt("REDIS_POOL_SIZE", 10); err != nil {
		errs = append(errs, err)
	}
	if cfg.Redis.MinIdleConns, err = getInt("REDIS_MIN_IDLE_CONNS", 2); err != nil {
		errs = append(errs, err)
	}
	if cfg.Redis.DialTimeout, err = getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.Redis.ReadTimeout, err = getDuration("REDIS_READ_TIMEOUT", 3*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.Redis.WriteTimeout, err = getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.Dispatch.Concurrency, err = getInt("DISPATCH_CONCURRENCY", 4); err != nil {
		errs = append(errs, err)
	}
	if cfg.Dispatch.RecordAttempts, err = getInt("DISPATCH_RECORD_ATTEMPTS", 3); err != nil {
		errs = append(errs, err)
	}
	if cfg.Dispatch.RecordBackoff, err = getDuration("DISPATCH_RECORD_BACKOFF", 100*time.Millisecond); err != nil {
		errs = append(errs, err)
	}
	if cfg.HTTP.ReadHeaderTimeout, err = getDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.HTTP.ReadTimeout, err = getDuration("HTTP_READ_TIMEOUT", 15*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.HTTP.WriteTimeout, err = getDuration("HTTP_WRITE_TIMEOUT", 2*time.Minute); err != nil {
		errs = append(errs, err)
	}
	if cfg.HTTP.IdleTimeout, err = getDuration("HTTP_IDLE_TIMEOUT", time.Minute); err != nil {
		errs = append(errs, err)
	}
	if cfg.Ingest.Burst, err = getInt("INGEST_RATE_BURST", 20); err != nil {
		errs = append(errs, err)
	}
	if raw := os.Getenv("INGEST_RATE_RPS"); raw != "" {
		if cfg.Ingest.RatePerSecond, err = strconv.ParseFloat(raw, 64); err != nil {
			errs = append(errs, fmt.Errorf("INGEST_RATE_RPS: %w", err))
		}
	} else {
		cfg.Ingest.RatePerSecond = 10
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.Kafka.Brokers = append(cfg.Kafka.Brokers, b)
			}
		}
	}

	if err := errors.Join(errs...); err != nil {
		return Server{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements.
func (s Server) Validate() error {
	var errs []error
	switch s.Store.Backend {
	case StoreMemory, StoreFile, StoreSQLite:
	case StorePostgres:
		if s.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	case StoreRedis:
		if s.Redis.URL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", s.Store.Backend))
	}
	switch s.Email.Provider {
	case EmailMock, EmailSES:
	default:
		errs = append(errs, fmt.Errorf("unknown EMAIL_PROVIDER %q", s.Email.Provider))
	}
	if s.Dispatch.Concurrency < 1 {
		errs = append(errs, errors.New("DISPATCH_CONCURRENCY must be at least 1"))
	}
	if s.Ingest.RatePerSecond <= 0 || s.Ingest.Burst < 1 {
		errs = append(errs, errors.New("INGEST_RATE_RPS and INGEST_RATE_BURST must be positive"))
	}
	if s.PlatformSimDomain == "" {
		errs = append(errs, errors.New("PLATFORM_SIM_DOMAIN is required"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}
