package configs

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// FeedConfig holds the remote XML feed settings.
type FeedConfig struct {
	URL            string
	Provider       string
	DefaultState   string
	Timeout        time.Duration
	Retries        int
	RetryBaseDelay time.Duration
}

// DBconfig holds the database settings.
type DBconfig struct {
	URL string
}

// SyncConfig holds the tunables of the reconciliation run.
type SyncConfig struct {
	SnapshotPageSize     int
	WriteBatchSize       int
	WriteConcurrency     int
	DescriptionHashLimit int
}

// RabbitMQConfig holds the optional run report publisher settings.
type RabbitMQConfig struct {
	Enabled bool
	URL     string
}

type StdoutLogConfig struct {
	Level string
}

type FluentBitConfig struct {
	Host    string
	Port    int
	Enabled bool
	Level   string
}

// AppConfig holds the whole application configuration.
type AppConfig struct {
	AppName      string
	Feed         FeedConfig
	Database     DBconfig
	Sync         SyncConfig
	RabbitMQ     RabbitMQConfig
	FluentBit    FluentBitConfig
	StdoutLogger StdoutLogConfig
}

// LoadConfig reads the configuration from environment variables, optionally
// seeded from a .env file.
func LoadConfig(envPath ...string) (*AppConfig, error) {
	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		// A missing .env file is fine in containers; everything can come
		// from the real environment.
		log.Printf("Info: Could not load .env file (path: %v): %v.\n", envPath, err)
	}

	cfg := &AppConfig{}

	cfg.AppName = getEnvAsString("APP_NAME", "imobiliaria-sync")

	cfg.Feed.URL = os.Getenv("FEED_URL")
	if cfg.Feed.URL == "" {
		return nil, fmt.Errorf("FEED_URL environment variable is required")
	}

	cfg.Feed.Provider = os.Getenv("XML_PROVIDER")
	if cfg.Feed.Provider == "" {
		return nil, fmt.Errorf("XML_PROVIDER environment variable is required")
	}

	cfg.Database.URL = os.Getenv("DATABASE_URL")
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	cfg.Feed.DefaultState = getEnvAsString("DEFAULT_UF", "PR")
	cfg.Feed.Timeout = getEnvAsDuration("FETCH_TIMEOUT", 120*time.Second)
	cfg.Feed.Retries = getEnvAsInt("FETCH_RETRIES", 3)
	cfg.Feed.RetryBaseDelay = getEnvAsDuration("FETCH_RETRY_BASE_DELAY", 2*time.Second)

	cfg.Sync.SnapshotPageSize = getEnvAsInt("SNAPSHOT_PAGE_SIZE", 500)
	cfg.Sync.WriteBatchSize = getEnvAsInt("WRITE_BATCH_SIZE", 50)
	cfg.Sync.WriteConcurrency = getEnvAsInt("WRITE_CONCURRENCY", 4)
	cfg.Sync.DescriptionHashLimit = getEnvAsInt("DESCRIPTION_HASH_LIMIT", 500)

	cfg.RabbitMQ.Enabled = getEnvAsBool("RABBITMQ_ENABLED", false)
	if cfg.RabbitMQ.Enabled {
		cfg.RabbitMQ.URL = os.Getenv("RABBITMQ_URL")
		if cfg.RabbitMQ.URL == "" {
			return nil, fmt.Errorf("RABBITMQ_URL environment variable is required when RABBITMQ_ENABLED is true")
		}
	}

	cfg.FluentBit.Enabled = getEnvAsBool("FLUENTBIT_ENABLED", false)
	if cfg.FluentBit.Enabled {
		cfg.FluentBit.Host = os.Getenv("FLUENTBIT_HOST")
		if cfg.FluentBit.Host == "" {
			log.Println("WARNING: FLUENTBIT_ENABLED is true, but FLUENTBIT_HOST is not set. Disabling Fluent Bit.")
			cfg.FluentBit.Enabled = false
		}

		cfg.FluentBit.Port = getEnvAsInt("FLUENTBIT_PORT", 24224)
		cfg.FluentBit.Level = getEnvAsString("FLUENTBIT_LOG_LEVEL", "info")
	}

	cfg.StdoutLogger.Level = getEnvAsString("STDOUT_LOG_LEVEL", "debug")

	return cfg, nil
}

// getEnvAsString reads an environment variable or returns the default.
func getEnvAsString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as int or returns the default.
// Logs when the variable exists but cannot be parsed.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as int: %v. Using default value: %d\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return valueInt
}

// getEnvAsBool reads an environment variable as bool or returns the default.
func getEnvAsBool(key string, defaultValue bool) bool {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valBool, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as bool: %v. Using default value: %t\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return valBool
}

// getEnvAsDuration reads an environment variable as a duration string
// ("30s", "2m") or returns the default.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valDur, err := time.ParseDuration(valStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as duration: %v. Using default value: %s\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return valDur
}
