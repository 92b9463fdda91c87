package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/yourusername/gltp-records/internal/catalog"
)

// maxDocumentBytes bounds how much of a response body is read
const maxDocumentBytes = 64 << 20

// HTTPRecordSource fetches the records document from a URL
type HTTPRecordSource struct {
	httpClient *RateLimitedHTTPClient
	url        string
	token      string
}

// NewHTTPRecordSource creates an HTTP record source. token, when set, is sent as a bearer token.
func NewHTTPRecordSource(httpClient *RateLimitedHTTPClient, url, token string) *HTTPRecordSource {
	return &HTTPRecordSource{
		httpClient: httpClient,
		url:        url,
		token:      token,
	}
}

// FetchRecords downloads and decodes the records document
func (s *HTTPRecordSource) FetchRecords(ctx context.Context) (*Document, error) {
	headers := map[string]string{"Accept": "application/json"}
	if s.token != "" {
		headers["Authorization"] = "Bearer " + s.token
	}

	body, err := fetchBody(ctx, s.httpClient, s.Name(), s.url, headers)
	if err != nil {
		return nil, err
	}

	doc, err := DecodeRecords(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode records from %s: %w", s.url, err)
	}
	return doc, nil
}

// Name returns the name of the source
func (s *HTTPRecordSource) Name() string {
	return "http"
}

// HTTPCatalogSource fetches the map spreadsheet CSV export from a URL
type HTTPCatalogSource struct {
	httpClient *RateLimitedHTTPClient
	url        string
}

// NewHTTPCatalogSource creates an HTTP catalog source
func NewHTTPCatalogSource(httpClient *RateLimitedHTTPClient, url string) *HTTPCatalogSource {
	return &HTTPCatalogSource{httpClient: httpClient, url: url}
}

// FetchCatalog downloads and parses the export
func (s *HTTPCatalogSource) FetchCatalog(ctx context.Context) (*catalog.ParseResult, error) {
	resp, err := s.httpClient.Get(ctx, s.url, map[string]string{"Accept": "text/csv"})
	if err != nil {
		return nil, NewDataSourceError(s.Name(), ErrCodeNetworkError, "failed to fetch catalog", err)
	}
	defer resp.Body.Close()

	if err := statusError(s.Name(), resp); err != nil {
		return nil, err
	}

	res, err := catalog.ParseCSV(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, NewDataSourceError(s.Name(), ErrCodeInvalidData, "failed to parse catalog", err)
	}
	return res, nil
}

// Name returns the name of the source
func (s *HTTPCatalogSource) Name() string {
	return "catalog_http"
}

func fetchBody(ctx context.Context, client *RateLimitedHTTPClient, source, url string, headers map[string]string) ([]byte, error) {
	resp, err := client.Get(ctx, url, headers)
	if err != nil {
		return nil, NewDataSourceError(source, ErrCodeNetworkError, "request failed", err)
	}
	defer resp.Body.Close()

	if err := statusError(source, resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, NewDataSourceError(source, ErrCodeNetworkError, "failed to read response body", err)
	}
	return body, nil
}

// statusError maps a non-2xx response onto a DataSourceError
func statusError(source string, resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return NewDataSourceError(source, ErrCodeAuthenticationFailed, resp.Status, ErrAuthenticationFailed)
	case resp.StatusCode == http.StatusNotFound:
		return NewDataSourceError(source, ErrCodeNotFound, resp.Status, ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return NewDataSourceError(source, ErrCodeRateLimitExceeded, resp.Status, ErrRateLimitExceeded)
	case resp.StatusCode >= 500:
		return NewDataSourceError(source, ErrCodeServerError, resp.Status, ErrServerError)
	default:
		return NewDataSourceError(source, ErrCodeUnknown, fmt.Sprintf("unexpected status %s", resp.Status), nil)
	}
}
