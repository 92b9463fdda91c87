package datasource

import (
	"context"

	"github.com/yourusername/gltp-records/internal/models"
	"github.com/yourusername/gltp-records/internal/repository"
)

// StoredRecordSource serves records previously persisted to the database.
// Records are converted back to their wire shape so they are normalized like fetched ones.
type StoredRecordSource struct {
	repo repository.RecordRepository
}

// NewStoredRecordSource creates a database-backed record source
func NewStoredRecordSource(repo repository.RecordRepository) *StoredRecordSource {
	return &StoredRecordSource{repo: repo}
}

// FetchRecords loads every stored record
func (s *StoredRecordSource) FetchRecords(ctx context.Context) (*Document, error) {
	records, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, NewDataSourceError(s.Name(), ErrCodeUnknown, "failed to load stored records", err)
	}

	doc := &Document{Records: make([]models.RawRecord, 0, len(records))}
	for i, rec := range records {
		raw := rec.ToRaw()
		raw.Position = i
		doc.Records = append(doc.Records, raw)
	}
	return doc, nil
}

// Name returns the name of the source
func (s *StoredRecordSource) Name() string {
	return "postgres"
}
