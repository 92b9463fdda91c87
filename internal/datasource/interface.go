// Package datasource fetches the records document and the map catalog.
package datasource

import (
	"context"
	"errors"

	"github.com/yourusername/gltp-records/internal/catalog"
	"github.com/yourusername/gltp-records/internal/models"
)

// RecordSource defines the interface for fetching raw records
type RecordSource interface {
	// FetchRecords retrieves the current records document
	FetchRecords(ctx context.Context) (*Document, error)

	// Name returns the name of the source
	Name() string
}

// CatalogSource defines the interface for fetching the map catalog
type CatalogSource interface {
	// FetchCatalog retrieves and parses the map spreadsheet export
	FetchCatalog(ctx context.Context) (*catalog.ParseResult, error)

	// Name returns the name of the source
	Name() string
}

// Document is a decoded records document
type Document struct {
	Records  []models.RawRecord
	Rejected []RejectedEntry
}

// RejectedEntry is a document entry that could not be decoded into a RawRecord
type RejectedEntry struct {
	Index int    `json:"index"`
	Key   string `json:"key,omitempty"`
	Err   error  `json:"-"`
}

// DataSourceError represents errors from data source operations
type DataSourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string // Error message
	Err     error  // Underlying error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

// Unwrap exposes the underlying error
func (e DataSourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
	ErrCodeUnknown              = "unknown"
)

// Sentinel errors wrapped by DataSourceError
var (
	ErrRateLimitExceeded    = errors.New("rate limit exceeded")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrNotFound             = errors.New("data not found")
	ErrServerError          = errors.New("server error")
	ErrCircuitOpen          = errors.New("circuit breaker open")
)

// NewDataSourceError creates a new data source error
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
