// Package config provides configuration management for the GLTP records service.
package config

import (
	"fmt"
	"time"
)

// Record source kinds
const (
	SourceKindFile     = "file"
	SourceKindHTTP     = "http"
	SourceKindPostgres = "postgres"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Records    RecordsConfig    `mapstructure:"records" validate:"required"`
	HTTPClient HTTPClientConfig `mapstructure:"http_client"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Server     ServerConfig     `mapstructure:"server"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	AWS        AWSConfig        `mapstructure:"aws"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration.
// The database is optional; it backs the postgres record source and record persistence.
type DatabaseConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	Host               string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port               int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required_if=Enabled true"`
	User               string `mapstructure:"user" validate:"required_if=Enabled true"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"omitempty,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"omitempty,gt=0"`
}

// RecordsConfig selects where the records document and the map catalog come from
type RecordsConfig struct {
	Source      string `mapstructure:"source" validate:"required,sourcekind"`
	URL         string `mapstructure:"url" validate:"omitempty,url"`
	File        string `mapstructure:"file"`
	APIToken    string `mapstructure:"api_token"`
	CatalogURL  string `mapstructure:"catalog_url" validate:"omitempty,url"`
	CatalogFile string `mapstructure:"catalog_file"`
	Persist     bool   `mapstructure:"persist"`
}

// HTTPClientConfig configures the outbound HTTP client
type HTTPClientConfig struct {
	TimeoutSeconds      int     `mapstructure:"timeout_seconds" validate:"omitempty,gt=0"`
	MaxRetries          int     `mapstructure:"max_retries" validate:"gte=0"`
	RetryWaitMinMillis  int     `mapstructure:"retry_wait_min_ms" validate:"gte=0"`
	RetryWaitMaxMillis  int     `mapstructure:"retry_wait_max_ms" validate:"gte=0"`
	RateLimit           float64 `mapstructure:"rate_limit" validate:"gte=0"`
	CircuitBreakerLimit int     `mapstructure:"circuit_breaker_limit" validate:"gte=0"`
}

// CacheConfig configures the aggregation result cache
type CacheConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	TTLSeconds int  `mapstructure:"ttl_seconds" validate:"omitempty,gt=0"`
}

// SchedulerConfig configures periodic refreshes
type SchedulerConfig struct {
	Enabled                bool   `mapstructure:"enabled"`
	RecordsIntervalSeconds int    `mapstructure:"records_interval_seconds" validate:"omitempty,gt=0"`
	CatalogCron            string `mapstructure:"catalog_cron" validate:"omitempty,cronspec"`
}

// ServerConfig configures the HTTP API and health endpoints
type ServerConfig struct {
	Address       string `mapstructure:"address" validate:"required"`
	HealthAddress string `mapstructure:"health_address"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

// AWSConfig locates the optional secrets overlay
type AWSConfig struct {
	Region     string `mapstructure:"region"`
	SecretName string `mapstructure:"secret_name"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// CacheTTL returns the result cache expiry
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// HealthAddress returns the health listener address, defaulting to :8081
func (c *Config) HealthAddress() string {
	if c.Server.HealthAddress != "" {
		return c.Server.HealthAddress
	}
	return ":8081"
}
