package datasource

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/yourusername/gltp-records/internal/catalog"
)

// FileRecordSource reads the records document from a local file
type FileRecordSource struct {
	path string
}

// NewFileRecordSource creates a file-backed record source
func NewFileRecordSource(path string) *FileRecordSource {
	return &FileRecordSource{path: path}
}

// FetchRecords reads and decodes the file
func (s *FileRecordSource) FetchRecords(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewDataSourceError(s.Name(), ErrCodeNotFound, "records file "+s.path+" does not exist", ErrNotFound)
		}
		return nil, NewDataSourceError(s.Name(), ErrCodeUnknown, "failed to read records file", err)
	}

	doc, err := DecodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}
	return doc, nil
}

// Name returns the name of the source
func (s *FileRecordSource) Name() string {
	return "file"
}

// FileCatalogSource reads the map spreadsheet export from a local file
type FileCatalogSource struct {
	path string
}

// NewFileCatalogSource creates a file-backed catalog source
func NewFileCatalogSource(path string) *FileCatalogSource {
	return &FileCatalogSource{path: path}
}

// FetchCatalog reads and parses the export
func (s *FileCatalogSource) FetchCatalog(ctx context.Context) (*catalog.ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, NewDataSourceError(s.Name(), ErrCodeNotFound, "failed to read catalog file "+s.path, err)
	}

	res, err := catalog.ParseCSV(bytes.NewReader(data))
	if err != nil {
		return nil, NewDataSourceError(s.Name(), ErrCodeInvalidData, "failed to parse catalog", err)
	}
	return res, nil
}

// Name returns the name of the source
func (s *FileCatalogSource) Name() string {
	return "catalog_file"
}
