package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/gltp-records/internal/database"
	"github.com/yourusername/gltp-records/internal/models"
)

const recordColumns = "id, map_id, map_name, owner_id, owner_name, participants, time_ns, completed_at, mode, quote"

var recordColumnNames = []string{
	"id", "map_id", "map_name", "owner_id", "owner_name",
	"participants", "time_ns", "completed_at", "mode", "quote",
}

// PostgresRecordRepository implements RecordRepository for PostgreSQL
type PostgresRecordRepository struct {
	db *database.DB
}

// NewPostgresRecordRepository creates a new record repository
func NewPostgresRecordRepository(db *database.DB) RecordRepository {
	return &PostgresRecordRepository{db: db}
}

// Insert inserts a single record
func (r *PostgresRecordRepository) Insert(ctx context.Context, record *models.Record) error {
	query := `
		INSERT INTO records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`

	commandTag, err := r.db.GetPool().Exec(ctx, query, recordRow(record)...)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return models.ErrDuplicateKey
	}

	return nil
}

// InsertBatch copies records into a staging table and merges them, skipping known ids
func (r *PostgresRecordRepository) InsertBatch(ctx context.Context, records []models.Record) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	rows := make([][]interface{}, len(records))
	for i := range records {
		rows[i] = recordRow(&records[i])
	}

	var inserted int64
	err := r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			"CREATE TEMP TABLE records_staging (LIKE records INCLUDING DEFAULTS) ON COMMIT DROP",
		); err != nil {
			return fmt.Errorf("failed to create staging table: %w", err)
		}

		copyCount, err := tx.CopyFrom(ctx, pgx.Identifier{"records_staging"}, recordColumnNames, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("failed to copy records: %w", err)
		}
		if copyCount != int64(len(records)) {
			return fmt.Errorf("copied %d rows, expected %d", copyCount, len(records))
		}

		commandTag, err := tx.Exec(ctx, `
			INSERT INTO records (`+recordColumns+`)
			SELECT DISTINCT ON (id) `+recordColumns+` FROM records_staging
			ON CONFLICT (id) DO NOTHING
		`)
		if err != nil {
			return fmt.Errorf("failed to merge staged records: %w", err)
		}
		inserted = commandTag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to batch insert records: %w", err)
	}

	return inserted, nil
}

// GetByID retrieves one record
func (r *PostgresRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE id = $1`

	record, err := scanRecord(r.db.GetPool().QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query record: %w", err)
	}

	return record, nil
}

// GetByMapID retrieves every record of a map, fastest first
func (r *PostgresRecordRepository) GetByMapID(ctx context.Context, mapID string) ([]models.Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM records
		WHERE map_id = $1
		ORDER BY time_ns, completed_at, owner_id, id
	`
	return r.queryRecords(ctx, query, mapID)
}

// GetByOwner retrieves every record credited to a player, most recent first
func (r *PostgresRecordRepository) GetByOwner(ctx context.Context, ownerID string) ([]models.Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM records
		WHERE owner_id = $1
		ORDER BY completed_at DESC, id
	`
	return r.queryRecords(ctx, query, ownerID)
}

// GetAll retrieves every stored record
func (r *PostgresRecordRepository) GetAll(ctx context.Context) ([]models.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records ORDER BY map_id, time_ns, completed_at, id`
	return r.queryRecords(ctx, query)
}

// Count returns the number of stored records
func (r *PostgresRecordRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetPool().QueryRow(ctx, "SELECT COUNT(*) FROM records").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// Delete deletes a record
func (r *PostgresRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	commandTag, err := r.db.GetPool().Exec(ctx, "DELETE FROM records WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *PostgresRecordRepository) queryRecords(ctx context.Context, query string, args ...interface{}) ([]models.Record, error) {
	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, *record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	return records, nil
}

// recordRow flattens a record into column order
func recordRow(record *models.Record) []interface{} {
	participants := record.Participants
	if participants == nil {
		participants = []models.Player{}
	}
	return []interface{}{
		record.ID,
		record.MapID,
		record.MapName,
		record.Owner.ID,
		record.Owner.Name,
		participants,
		int64(record.Time),
		record.Timestamp.UTC(),
		record.Mode.String(),
		record.Quote,
	}
}

func scanRecord(row pgx.Row) (*models.Record, error) {
	var (
		record models.Record
		timeNs int64
		mode   string
	)

	err := row.Scan(
		&record.ID, &record.MapID, &record.MapName, &record.Owner.ID, &record.Owner.Name,
		&record.Participants, &timeNs, &record.Timestamp, &mode, &record.Quote,
	)
	if err != nil {
		return nil, err
	}

	parsed, err := models.ParseMode(mode)
	if err != nil {
		return nil, err
	}
	record.Mode = parsed
	record.Time = time.Duration(timeNs)
	record.Timestamp = record.Timestamp.UTC()

	return &record, nil
}
