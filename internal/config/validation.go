package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	// Registration only fails for empty tags or nil funcs
	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("sourcekind", validateSourceKind)
	_ = v.RegisterValidation("cronspec", validateCronSpec)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	if err := cv.validator.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func validateSourceKind(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case SourceKindFile, SourceKindHTTP, SourceKindPostgres:
		return true
	default:
		return false
	}
}

// validateCronSpec accepts standard five-field specs and descriptors such as @every 1h
func validateCronSpec(fl validator.FieldLevel) bool {
	_, err := cron.ParseStandard(fl.Field().String())
	return err == nil
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	switch cfg.Records.Source {
	case SourceKindHTTP:
		if cfg.Records.URL == "" {
			return fmt.Errorf("records.url is required when records.source is %q", SourceKindHTTP)
		}
	case SourceKindFile:
		if cfg.Records.File == "" {
			return fmt.Errorf("records.file is required when records.source is %q", SourceKindFile)
		}
	case SourceKindPostgres:
		if !cfg.Database.Enabled {
			return fmt.Errorf("records.source %q requires database.enabled", SourceKindPostgres)
		}
		if cfg.Records.Persist {
			return fmt.Errorf("records.persist cannot be used with records.source %q", SourceKindPostgres)
		}
	}

	if cfg.Records.Persist && !cfg.Database.Enabled {
		return fmt.Errorf("records.persist requires database.enabled")
	}

	if cfg.Records.CatalogURL != "" && cfg.Records.CatalogFile != "" {
		return fmt.Errorf("records.catalog_url and records.catalog_file are mutually exclusive")
	}

	if cfg.Database.Enabled && cfg.Database.MaxIdleConnections > cfg.Database.MaxConnections {
		return fmt.Errorf("max_idle_connections cannot exceed max_connections")
	}

	if cfg.HTTPClient.RetryWaitMinMillis > cfg.HTTPClient.RetryWaitMaxMillis {
		return fmt.Errorf("http_client.retry_wait_min_ms cannot exceed retry_wait_max_ms")
	}

	if cfg.Server.HealthAddress != "" && cfg.Server.HealthAddress == cfg.Server.Address {
		return fmt.Errorf("server.health_address must differ from server.address")
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var b strings.Builder
	for _, fieldError := range validationErrors {
		field := fieldError.StructNamespace()
		switch fieldError.Tag() {
		case "required", "required_if":
			fmt.Fprintf(&b, "- Field '%s' is required\n", field)
		case "url":
			fmt.Fprintf(&b, "- Field '%s' must be a valid URL, got '%v'\n", field, fieldError.Value())
		case "min", "max", "gt", "gte", "lt", "lte":
			fmt.Fprintf(&b, "- Field '%s' validation failed: numeric constraint %s violated\n", field, fieldError.Tag())
		case "environment":
			fmt.Fprintf(&b, "- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			fmt.Fprintf(&b, "- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "sourcekind":
			fmt.Fprintf(&b, "- Field '%s' must be one of: file, http, postgres\n", field)
		case "cronspec":
			fmt.Fprintf(&b, "- Field '%s' is not a valid cron expression: '%v'\n", field, fieldError.Value())
		case "oneof":
			fmt.Fprintf(&b, "- Field '%s' has invalid value '%v'\n", field, fieldError.Value())
		default:
			fmt.Fprintf(&b, "- Field '%s' failed validation: %s\n", field, fieldError.Tag())
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", b.String())
}

// ValidateEnvironment validates environment-specific requirements
func ValidateEnvironment(cfg *Config) error {
	if !cfg.IsProduction() {
		return nil
	}

	if cfg.Database.Enabled && cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("production environment requires database SSL mode to be 'require' or 'verify-full'")
	}

	if cfg.Records.Source == SourceKindHTTP && !strings.HasPrefix(cfg.Records.URL, "https://") {
		return fmt.Errorf("production environment requires an https records url")
	}

	if isTestCredential(cfg.Database.Password) || isTestCredential(cfg.Records.APIToken) {
		return fmt.Errorf("production environment should not use test credentials")
	}

	return nil
}

var testCredentialPattern = regexp.MustCompile(`(?i)test|demo|example|placeholder|YOUR_`)

// isTestCredential checks if a credential looks like a test credential
func isTestCredential(credential string) bool {
	return credential != "" && testCredentialPattern.MatchString(credential)
}
