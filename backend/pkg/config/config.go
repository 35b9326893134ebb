package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	bomerrors "bom-server/backend/pkg/errors"
)

// Store backends understood by internal/store
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreNeo4j    = "neo4j"
	StoreS3       = "s3"
)

// Config holds all application configuration
type Config struct {
	// App
	Port     string
	Env      string
	LogLevel string

	// Persistence
	StoreBackend    string
	SaveDebounce    time.Duration
	ShutdownTimeout time.Duration

	// SQLite
	SQLitePath string

	// Postgres
	PostgresDSN string

	// Neo4j
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	// S3
	S3Bucket    string
	S3Region    string
	S3Endpoint  string // optional, e.g. MinIO
	S3Key       string
	S3PathStyle bool

	// Client
	ServerURL string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8000"),
		Env:             getEnv("ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", ""),
		StoreBackend:    strings.ToLower(getEnv("STORE_BACKEND", StoreMemory)),
		SaveDebounce:    time.Duration(getEnvInt("SAVE_DEBOUNCE_MS", 250)) * time.Millisecond,
		ShutdownTimeout: time.Duration(getEnvInt("SHUTDOWN_TIMEOUT_SEC", 5)) * time.Second,
		SQLitePath:      getEnv("SQLITE_PATH", "data/bom.db"),
		PostgresDSN:     getEnv("POSTGRES_DSN", "postgres://localhost/bom?sslmode=disable"),
		Neo4jURI:        getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:       getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:   getEnv("NEO4J_PASSWORD", "password"),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Region:        getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:      getEnv("S3_ENDPOINT", ""),
		S3Key:           getEnv("S3_KEY", "bom/snapshot.json"),
		S3PathStyle:     strings.EqualFold(getEnv("S3_PATH_STYLE", "false"), "true"),
		ServerURL:       getEnv("BOM_SERVER_URL", "http://localhost:8000"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.Port == "" {
		return bomerrors.NewConfigMissingRequired("PORT")
	}
	if c.SaveDebounce < 0 {
		return bomerrors.NewConfigValidationFailed("SAVE_DEBOUNCE_MS", "must not be negative")
	}
	if c.ShutdownTimeout <= 0 {
		return bomerrors.NewConfigValidationFailed("SHUTDOWN_TIMEOUT_SEC", "must be positive")
	}

	switch c.StoreBackend {
	case StoreMemory:
	case StoreSQLite:
		if c.SQLitePath == "" {
			return bomerrors.NewConfigMissingRequired("SQLITE_PATH")
		}
	case StorePostgres:
		if c.PostgresDSN == "" {
			return bomerrors.NewConfigMissingRequired("POSTGRES_DSN")
		}
	case StoreNeo4j:
		if c.Neo4jURI == "" {
			return bomerrors.NewConfigMissingRequired("NEO4J_URI")
		}
		if c.Neo4jUser == "" {
			return bomerrors.NewConfigMissingRequired("NEO4J_USER")
		}
		if c.Neo4jPassword == "" {
			return bomerrors.NewConfigMissingRequired("NEO4J_PASSWORD")
		}
	case StoreS3:
		if c.S3Bucket == "" {
			return bomerrors.NewConfigMissingRequired("S3_BUCKET")
		}
		if c.S3Key == "" {
			return bomerrors.NewConfigMissingRequired("S3_KEY")
		}
	default:
		return bomerrors.NewConfigValidationFailed("STORE_BACKEND", fmt.Sprintf("unknown backend %q", c.StoreBackend))
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
