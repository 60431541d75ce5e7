// file: internal/config/config.go
// version: 2.0.0
// guid: 09cf2769-e24c-4659-a930-abe5da46d8d3

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/jdfalk/cliqbook/internal/apperrors"
	"github.com/jdfalk/cliqbook/internal/catalog"
	"github.com/jdfalk/cliqbook/internal/database"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Config holds application configuration
type Config struct {
	DatabaseType  string `yaml:"database_type"` // "pebble" (default), "sqlite", "redis" or "memory"
	DatabasePath  string `yaml:"database_path"`
	EnableSQLite  bool   `yaml:"enable_sqlite3_i_know_the_risks"` // Must be true to use SQLite (safety flag)
	RedisAddr     string `yaml:"redis_addr,omitempty"`
	RedisPassword string `yaml:"-"`
	RedisDB       int    `yaml:"redis_db"`

	FixturesDir   string        `yaml:"fixtures_dir,omitempty"`
	FixturesURL   string        `yaml:"fixtures_url,omitempty"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout"`
	WatchFixtures bool          `yaml:"watch_fixtures"`

	LogLevel  string `yaml:"log_level"`
	LogPretty bool   `yaml:"log_pretty"`

	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	SessionTTL         time.Duration `yaml:"session_ttl"`
	BcryptCost         int           `yaml:"bcrypt_cost"`
	MaxBookFileBytes   int64         `yaml:"max_book_file_bytes"`
	MaxCoverBytes      int64         `yaml:"max_cover_bytes"`
	LoginRatePerMinute int           `yaml:"login_rate_per_minute"`
	SecureCookies      bool          `yaml:"secure_cookies"`
	MaxConnections     int           `yaml:"max_connections"`

	// An empty MetricsUsername leaves /metrics unauthenticated.
	MetricsUsername string `yaml:"metrics_username,omitempty"`
	MetricsPassword string `yaml:"-"`

	BackupDir  string `yaml:"backup_dir"`
	MaxBackups int    `yaml:"max_backups"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database_type", "pebble")
	v.SetDefault("database_path", "cliqbook.db")
	v.SetDefault("enable_sqlite3_i_know_the_risks", false)
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("fetch_timeout", "10s")
	v.SetDefault("watch_fixtures", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)
	v.SetDefault("host", "localhost")
	v.SetDefault("port", 8080)
	v.SetDefault("session_ttl", "24h")
	v.SetDefault("bcrypt_cost", bcrypt.DefaultCost)
	v.SetDefault("max_book_file_bytes", catalog.DefaultMaxBookFileBytes)
	v.SetDefault("max_cover_bytes", catalog.DefaultMaxCoverBytes)
	v.SetDefault("login_rate_per_minute", 10)
	v.SetDefault("secure_cookies", false)
	v.SetDefault("max_connections", 0)
	v.SetDefault("backup_dir", "backups")
	v.SetDefault("max_backups", 10)
}

// Load reads the configuration from v. Defaults must already be registered.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		DatabaseType:       strings.ToLower(strings.TrimSpace(v.GetString("database_type"))),
		DatabasePath:       v.GetString("database_path"),
		EnableSQLite:       v.GetBool("enable_sqlite3_i_know_the_risks"),
		RedisAddr:          v.GetString("redis_addr"),
		RedisPassword:      v.GetString("redis_password"),
		RedisDB:            v.GetInt("redis_db"),
		FixturesDir:        v.GetString("fixtures_dir"),
		FixturesURL:        v.GetString("fixtures_url"),
		FetchTimeout:       v.GetDuration("fetch_timeout"),
		WatchFixtures:      v.GetBool("watch_fixtures"),
		LogLevel:           v.GetString("log_level"),
		LogPretty:          v.GetBool("log_pretty"),
		Host:               v.GetString("host"),
		Port:               v.GetInt("port"),
		SessionTTL:         v.GetDuration("session_ttl"),
		BcryptCost:         v.GetInt("bcrypt_cost"),
		MaxBookFileBytes:   v.GetInt64("max_book_file_bytes"),
		MaxCoverBytes:      v.GetInt64("max_cover_bytes"),
		LoginRatePerMinute: v.GetInt("login_rate_per_minute"),
		SecureCookies:      v.GetBool("secure_cookies"),
		MaxConnections:     v.GetInt("max_connections"),
		MetricsUsername:    v.GetString("metrics_username"),
		MetricsPassword:    v.GetString("metrics_password"),
		BackupDir:          v.GetString("backup_dir"),
		MaxBackups:         v.GetInt("max_backups"),
	}

	// Normalize database type
	if cfg.DatabaseType == "sqlite3" {
		cfg.DatabaseType = "sqlite"
	}
	if cfg.DatabaseType == "" {
		cfg.DatabaseType = "pebble"
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch c.DatabaseType {
	case "pebble", "sqlite", "redis", "memory":
	default:
		return apperrors.Invalid("database_type", fmt.Sprintf("unknown type %q", c.DatabaseType))
	}
	if c.DatabaseType == "sqlite" && !c.EnableSQLite {
		return apperrors.Invalid("enable_sqlite3_i_know_the_risks", "must be true to use sqlite")
	}
	if c.WatchFixtures && c.FixturesDir == "" {
		return apperrors.Invalid("watch_fixtures", "requires fixtures_dir")
	}
	if c.Port < 0 || c.Port > 65535 {
		return apperrors.Invalid("port", "must be between 0 and 65535")
	}
	if c.SessionTTL <= 0 {
		return apperrors.Invalid("session_ttl", "must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return apperrors.Invalid("bcrypt_cost", fmt.Sprintf("must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.MaxBookFileBytes <= 0 {
		return apperrors.Invalid("max_book_file_bytes", "must be positive")
	}
	if c.MaxCoverBytes <= 0 {
		return apperrors.Invalid("max_cover_bytes", "must be positive")
	}
	if c.LoginRatePerMinute < 0 {
		return apperrors.Invalid("login_rate_per_minute", "must not be negative")
	}
	if c.MaxConnections < 0 {
		return apperrors.Invalid("max_connections", "must not be negative")
	}
	if c.MetricsUsername != "" && c.MetricsPassword == "" {
		return apperrors.Invalid("metrics_password", "required when metrics_username is set")
	}
	return nil
}

// StoreOptions returns the options for database.Open.
func (c Config) StoreOptions() database.Options {
	return database.Options{
		Type:          c.DatabaseType,
		Path:          c.DatabasePath,
		EnableSQLite:  c.EnableSQLite,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
	}
}

// UploadLimits returns the admin upload size limits.
func (c Config) UploadLimits() catalog.UploadLimits {
	return catalog.UploadLimits{BookFile: c.MaxBookFileBytes, Cover: c.MaxCoverBytes}
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
