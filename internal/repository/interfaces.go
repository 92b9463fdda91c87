package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/yourusername/gltp-records/internal/models"
)

// RecordRepository defines the interface for record data access
type RecordRepository interface {
	// Insert stores one record. It returns models.ErrDuplicateKey when the id already exists.
	Insert(ctx context.Context, record *models.Record) error
	// InsertBatch stores records, skipping ids that already exist, and returns the number inserted.
	InsertBatch(ctx context.Context, records []models.Record) (int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Record, error)
	GetByMapID(ctx context.Context, mapID string) ([]models.Record, error)
	GetByOwner(ctx context.Context, ownerID string) ([]models.Record, error)
	GetAll(ctx context.Context) ([]models.Record, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
