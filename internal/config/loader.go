package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix         = "GLTP_RECORDS"
	defaultConfigPath = "config/config.yaml"
)

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional fields.
// A missing file is not an error; defaults and environment variables still apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// setDefaults registers every key so environment overrides apply even when the file omits it
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "gltp-records")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "gltp_records")
	v.SetDefault("database.user", "gltp")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 2)

	v.SetDefault("records.source", SourceKindFile)
	v.SetDefault("records.url", "")
	v.SetDefault("records.file", "data/replay_stats.json")
	v.SetDefault("records.api_token", "")
	v.SetDefault("records.catalog_url", "")
	v.SetDefault("records.catalog_file", "")
	v.SetDefault("records.persist", false)

	v.SetDefault("http_client.timeout_seconds", 30)
	v.SetDefault("http_client.max_retries", 3)
	v.SetDefault("http_client.retry_wait_min_ms", 100)
	v.SetDefault("http_client.retry_wait_max_ms", 5000)
	v.SetDefault("http_client.rate_limit", 5.0)
	v.SetDefault("http_client.circuit_breaker_limit", 5)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl_seconds", 300)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.records_interval_seconds", 60)
	v.SetDefault("scheduler.catalog_cron", "0 */6 * * *")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.health_address", ":8081")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("aws.region", "")
	v.SetDefault("aws.secret_name", "")
}
