package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete service configuration.
type Config struct {
	Environment string         `mapstructure:"environment"`
	Server      ServerConfig   `mapstructure:"server"`
	Storage     StorageConfig  `mapstructure:"storage"`
	Database    DatabaseConfig `mapstructure:"database"`
	OCR         OCRConfig      `mapstructure:"ocr"`
	Explain     ExplainConfig  `mapstructure:"explain"`
	Cache       CacheConfig    `mapstructure:"cache"`
	Upload      UploadConfig   `mapstructure:"upload"`
	Logging     LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// StorageConfig selects the report store backend.
type StorageConfig struct {
	// Backend is "sqlite" or "postgres".
	Backend    string `mapstructure:"backend"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// DatabaseConfig holds PostgreSQL settings, used when the storage
// backend is "postgres".
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// OCRConfig holds settings for the OCR collaborator service.
type OCRConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MinConfidence float64       `mapstructure:"min_confidence"`
}

// ExplainConfig holds settings for the explanation collaborator.
type ExplainConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RateLimit   float64       `mapstructure:"rate_limit"`
	RateBurst   int           `mapstructure:"rate_burst"`
	MaxFailures uint32        `mapstructure:"max_failures"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
}

// CacheConfig holds explanation cache tier settings.
type CacheConfig struct {
	RedisURL     string        `mapstructure:"redis_url"`
	RedisEnabled bool          `mapstructure:"redis_enabled"`
	LocalSize    int           `mapstructure:"local_size"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
}

// UploadConfig bounds incoming report files.
type UploadConfig struct {
	MaxSizeMB    int      `mapstructure:"max_size_mb"`
	AllowedTypes []string `mapstructure:"allowed_types"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Manager loads and validates configuration using Viper. Each manager
// owns its own Viper instance so tests can load independent configs.
type Manager struct {
	v      *viper.Viper
	config *Config
}

// NewManager creates a configuration manager and loads configuration
// from file, environment, and defaults.
func NewManager() (*Manager, error) {
	m := &Manager{v: viper.New()}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

func (m *Manager) loadConfig() error {
	m.v.SetConfigName("config")
	m.v.SetConfigType("yaml")
	m.v.AddConfigPath(".")
	m.v.AddConfigPath("./config")
	m.v.AddConfigPath("/etc/lab-clarity/")

	m.v.SetEnvPrefix("LABCLARITY")
	m.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.v.AutomaticEnv()

	m.setDefaults()

	// Config file is optional; defaults and env vars suffice.
	if err := m.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := m.v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

func (m *Manager) setDefaults() {
	m.v.SetDefault("environment", "development")

	m.v.SetDefault("server.host", "0.0.0.0")
	m.v.SetDefault("server.port", 8080)
	m.v.SetDefault("server.read_timeout", "30s")
	m.v.SetDefault("server.write_timeout", "30s")
	m.v.SetDefault("server.idle_timeout", "120s")
	m.v.SetDefault("server.allowed_origins", []string{"*"})

	m.v.SetDefault("storage.backend", "sqlite")
	m.v.SetDefault("storage.sqlite_path", "data/reports.db")

	m.v.SetDefault("database.host", "localhost")
	m.v.SetDefault("database.port", 5432)
	m.v.SetDefault("database.database", "lab_clarity")
	m.v.SetDefault("database.username", "postgres")
	m.v.SetDefault("database.password", "")
	m.v.SetDefault("database.ssl_mode", "disable")
	m.v.SetDefault("database.max_open_conns", 25)
	m.v.SetDefault("database.conn_max_lifetime", "5m")

	m.v.SetDefault("ocr.base_url", "http://localhost:8090")
	m.v.SetDefault("ocr.timeout", "60s")
	m.v.SetDefault("ocr.min_confidence", 0.3)

	m.v.SetDefault("explain.base_url", "")
	m.v.SetDefault("explain.api_key", "")
	m.v.SetDefault("explain.timeout", "20s")
	m.v.SetDefault("explain.rate_limit", 5)
	m.v.SetDefault("explain.rate_burst", 10)
	m.v.SetDefault("explain.max_failures", 5)
	m.v.SetDefault("explain.open_timeout", "60s")

	m.v.SetDefault("cache.redis_url", "redis://localhost:6379")
	m.v.SetDefault("cache.redis_enabled", false)
	m.v.SetDefault("cache.local_size", 512)
	m.v.SetDefault("cache.default_ttl", "24h")

	m.v.SetDefault("upload.max_size_mb", 10)
	m.v.SetDefault("upload.allowed_types", []string{"application/pdf", "image/png", "image/jpeg"})

	m.v.SetDefault("logging.level", "info")
	m.v.SetDefault("logging.format", "json")
}

// GetConfig returns the complete configuration.
func (m *Manager) GetConfig() *Config {
	return m.config
}

// Reload reloads the configuration.
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the loaded configuration.
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	switch config.Storage.Backend {
	case "sqlite":
		if config.Storage.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case "postgres":
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if config.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if config.Database.Username == "" {
			return fmt.Errorf("database username is required")
		}
	default:
		return fmt.Errorf("unknown storage backend: %s", config.Storage.Backend)
	}

	if config.OCR.BaseURL == "" {
		return fmt.Errorf("OCR base URL is required")
	}
	if config.OCR.MinConfidence < 0 || config.OCR.MinConfidence > 1 {
		return fmt.Errorf("OCR min confidence must be in [0, 1]: %f", config.OCR.MinConfidence)
	}

	if config.Upload.MaxSizeMB <= 0 {
		return fmt.Errorf("upload max size must be positive: %d", config.Upload.MaxSizeMB)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// GetDatabaseConnectionString returns the PostgreSQL connection string.
func (m *Manager) GetDatabaseConnectionString() string {
	db := m.config.Database
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		db.Host, db.Port, db.Username, db.Password, db.Database, db.SSLMode)
}

// GetDatabaseURL returns the PostgreSQL connection URL, the form the
// migration tooling expects.
func (m *Manager) GetDatabaseURL() string {
	db := m.config.Database
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(db.Username), url.QueryEscape(db.Password), db.Host, db.Port, db.Database, db.SSLMode)
}

// IsProduction returns true when running in production mode.
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}
