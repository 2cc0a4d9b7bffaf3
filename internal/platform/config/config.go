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

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	EventBusInProcess = "inprocess"
	EventBusNATS      = "nats"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName   string
	HTTPPort      string
	PostgresDSN   string
	StorageDriver string
	AutoMigrate   bool
	LogLevel      string

	EventBus   string
	NATSURL    string
	NATSStream string

	JWTSecret   string
	JWTTTL      time.Duration
	AdminEmails []string

	LedgerMaxAttempts int
	LedgerRetryBase   time.Duration

	WorkerPollInterval         time.Duration
	EnableNotificationConsumer bool
}

// Load reads the process environment. A .env file in the working directory,
// or the file named by ENV_FILE, is applied first without overriding
// variables that are already set.
func Load() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		ServiceName:   envString("SERVICE_NAME", "stackit"),
		HTTPPort:      envString("HTTP_PORT", "8080"),
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		StorageDriver: strings.ToLower(envString("STORAGE_DRIVER", StorageMemory)),
		AutoMigrate:   envBool("AUTO_MIGRATE", true),
		LogLevel:      strings.ToLower(envString("LOG_LEVEL", "info")),

		EventBus:   strings.ToLower(envString("EVENT_BUS", EventBusInProcess)),
		NATSURL:    envString("NATS_URL", "nats://localhost:4222"),
		NATSStream: envString("NATS_STREAM", "STACKIT_QA"),

		JWTSecret:   os.Getenv("JWT_SECRET"),
		JWTTTL:      envDuration("JWT_TTL", 7*24*time.Hour),
		AdminEmails: envList("ADMIN_EMAILS"),

		LedgerMaxAttempts: envInt("LEDGER_MAX_ATTEMPTS", 4),
		LedgerRetryBase:   envDuration("LEDGER_RETRY_BASE", 5*time.Millisecond),

		WorkerPollInterval:         envDuration("WORKER_POLL_INTERVAL", time.Second),
		EnableNotificationConsumer: envBool("ENABLE_NOTIFICATION_CONSUMER", true),
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StorageDriver {
	case StorageMemory:
	case StoragePostgres:
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required when STORAGE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}
	switch c.EventBus {
	case EventBusInProcess, EventBusNATS:
	default:
		return fmt.Errorf("unsupported EVENT_BUS %q", c.EventBus)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.LedgerMaxAttempts < 1 {
		return errors.New("LEDGER_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

func loadEnvFile() error {
	path := strings.TrimSpace(os.Getenv("ENV_FILE"))
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func envString(name string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envList(name string) []string {
	var values []string
	for _, value := range strings.Split(os.Getenv(name), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			values = append(values, value)
		}
	}
	return values
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
