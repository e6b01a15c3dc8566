package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Catalog drivers
const (
	CatalogCSV      = "csv"
	CatalogPostgres = "postgres"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL     PostgreSQLConfig
	Server         ServerConfig
	Search         SearchConfig
	Catalog        CatalogConfig
	Conversation   ConversationConfig
	Image          ImageConfig
	Redis          RedisConfig
	Logging        LoggingConfig
	VocabularyFile string
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, preferred when set
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
	AutoMigrate        bool
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int
	Host            string
	GinMode         string
	AllowedOrigins  string
	ShutdownTimeout time.Duration
}

// SearchConfig holds search-related configuration
type SearchConfig struct {
	DefaultLimit     int
	MaxLimit         int
	Timeout          time.Duration // bound on one catalog lookup
	ImageConcurrency int
}

// CatalogConfig selects the catalog backend
type CatalogConfig struct {
	Driver  string // csv or postgres
	CSVPath string
}

// ConversationConfig holds chat behaviour settings
type ConversationConfig struct {
	MaxClarifications int // questions per signal before searching anyway
	SessionTTL        time.Duration
}

// ImageConfig holds image lookup configuration
type ImageConfig struct {
	Enabled     bool
	SearchURL   string
	Timeout     time.Duration
	CacheTTL    time.Duration
	NegativeTTL time.Duration
	Placeholder string
}

// RedisConfig holds the optional image cache backend
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "phone_catalog"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
			AutoMigrate:        getEnvAsBool("PG_AUTO_MIGRATE", false),
		},
		Server: ServerConfig{
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:         getEnv("GIN_MODE", "release"),
			AllowedOrigins:  getEnv("CORS_ALLOWED_ORIGINS", "*"),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Search: SearchConfig{
			DefaultLimit:     getEnvAsInt("SEARCH_DEFAULT_LIMIT", 10),
			MaxLimit:         getEnvAsInt("SEARCH_MAX_LIMIT", 50),
			Timeout:          getEnvAsDuration("SEARCH_TIMEOUT", 5*time.Second),
			ImageConcurrency: getEnvAsInt("SEARCH_IMAGE_CONCURRENCY", 4),
		},
		Catalog: CatalogConfig{
			Driver:  strings.ToLower(getEnv("CATALOG_DRIVER", CatalogCSV)),
			CSVPath: getEnv("CATALOG_CSV_PATH", "data/smartphones.csv"),
		},
		Conversation: ConversationConfig{
			MaxClarifications: getEnvAsInt("CHAT_MAX_CLARIFICATIONS", 2),
			SessionTTL:        getEnvAsDuration("CHAT_SESSION_TTL", 30*time.Minute),
		},
		Image: ImageConfig{
			Enabled:     getEnvAsBool("IMAGE_SEARCH_ENABLED", getEnv("IMAGE_SEARCH_URL", "") != ""),
			SearchURL:   getEnv("IMAGE_SEARCH_URL", ""),
			Timeout:     getEnvAsDuration("IMAGE_SEARCH_TIMEOUT", 3*time.Second),
			CacheTTL:    getEnvAsDuration("IMAGE_CACHE_TTL", time.Hour),
			NegativeTTL: getEnvAsDuration("IMAGE_NEGATIVE_TTL", 5*time.Minute),
			Placeholder: getEnv("IMAGE_PLACEHOLDER", "https://placehold.co/200x200/000000/FFFFFF?text=No+Image"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Prefix:   getEnv("REDIS_PREFIX", "phonefinder:"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		VocabularyFile: getEnv("VOCABULARY_FILE", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the services cannot run with
func (c *Config) Validate() error {
	switch c.Catalog.Driver {
	case CatalogCSV:
		if c.Catalog.CSVPath == "" {
			return fmt.Errorf("CATALOG_CSV_PATH is required for the csv catalog")
		}
	case CatalogPostgres:
	default:
		return fmt.Errorf("unknown CATALOG_DRIVER %q (want %s or %s)", c.Catalog.Driver, CatalogCSV, CatalogPostgres)
	}
	if c.Search.DefaultLimit <= 0 || c.Search.MaxLimit < c.Search.DefaultLimit {
		return fmt.Errorf("invalid search limits: default %d, max %d", c.Search.DefaultLimit, c.Search.MaxLimit)
	}
	if c.Search.Timeout <= 0 {
		return fmt.Errorf("SEARCH_TIMEOUT must be positive")
	}
	if c.Conversation.MaxClarifications < 1 {
		return fmt.Errorf("CHAT_MAX_CLARIFICATIONS must be at least 1")
	}
	if c.Image.Enabled && c.Image.SearchURL == "" {
		return fmt.Errorf("IMAGE_SEARCH_URL is required when image search is enabled")
	}
	return nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Int("default", defaultValue).Msg("invalid integer value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Bool("default", defaultValue).Msg("invalid boolean value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Dur("default", defaultValue).Msg("invalid duration value, using default")
		return defaultValue
	}
	return value
}
