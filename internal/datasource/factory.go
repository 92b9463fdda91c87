package datasource

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/gltp-records/internal/config"
	"github.com/yourusername/gltp-records/internal/repository"
)

// Factory creates sources based on configuration
type Factory struct {
	logger     *logrus.Logger
	config     *config.Config
	httpClient *RateLimitedHTTPClient
}

// NewFactory creates a new data source factory. The HTTP client is created lazily.
func NewFactory(cfg *config.Config, logger *logrus.Logger) *Factory {
	return &Factory{
		logger: logger,
		config: cfg,
	}
}

// HTTPClient returns the shared rate-limited client
func (f *Factory) HTTPClient() *RateLimitedHTTPClient {
	if f.httpClient == nil {
		f.httpClient = NewRateLimitedHTTPClient(HTTPClientConfigFrom(f.config.HTTPClient), f.logger)
	}
	return f.httpClient
}

// NewRecordSource creates the configured record source. repo is required for the postgres source.
func (f *Factory) NewRecordSource(repo repository.RecordRepository) (RecordSource, error) {
	rc := f.config.Records

	switch rc.Source {
	case config.SourceKindFile:
		if rc.File == "" {
			return nil, fmt.Errorf("records file is required")
		}
		return NewFileRecordSource(rc.File), nil

	case config.SourceKindHTTP:
		if rc.URL == "" {
			return nil, fmt.Errorf("records url is required")
		}
		return NewHTTPRecordSource(f.HTTPClient(), rc.URL, rc.APIToken), nil

	case config.SourceKindPostgres:
		if repo == nil {
			return nil, fmt.Errorf("record repository is required for the %s source", config.SourceKindPostgres)
		}
		return NewStoredRecordSource(repo), nil

	default:
		return nil, fmt.Errorf("unknown record source: %s", rc.Source)
	}
}

// NewCatalogSource creates the configured catalog source, or nil when none is configured
func (f *Factory) NewCatalogSource() CatalogSource {
	rc := f.config.Records

	switch {
	case rc.CatalogURL != "":
		return NewHTTPCatalogSource(f.HTTPClient(), rc.CatalogURL)
	case rc.CatalogFile != "":
		return NewFileCatalogSource(rc.CatalogFile)
	default:
		if f.logger != nil {
			f.logger.Debug("No map catalog configured; map ids are not checked")
		}
		return nil
	}
}
