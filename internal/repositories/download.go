package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/protokoll/internal/models"
	"github.com/desertthunder/protokoll/internal/shared"
)

// DownloadRepository implements [models.Repository] for [models.DownloadRecord].
type DownloadRepository struct {
	db *sql.DB
}

// NewDownloadRepository creates a new [DownloadRepository] with the given database connection
func NewDownloadRepository(db *sql.DB) *DownloadRepository {
	return &DownloadRepository{db: db}
}

// Create inserts a record with a generated ID
func (r *DownloadRepository) Create(record *models.DownloadRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO downloads (id, protocol_id, kind, path, size, created_at) VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query, id, record.ProtocolID().String(), string(record.Kind()), record.Path(), record.Size(), record.CreatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert download: %w", err)
	}

	record.SetID(id)
	return nil
}

func (r *DownloadRepository) Get(id string) (*models.DownloadRecord, error) {
	query := `
		SELECT id, protocol_id, kind, path, size, created_at
		FROM downloads
		WHERE id = ?
	`

	record, err := scanDownload(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: download %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query download: %w", err)
	}
	return record, nil
}

// List returns the newest downloads first; a non-positive limit uses the default of 50.
func (r *DownloadRepository) List(limit int) ([]*models.DownloadRecord, error) {
	query := `
		SELECT id, protocol_id, kind, path, size, created_at
		FROM downloads
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, listLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query downloads: %w", err)
	}
	defer rows.Close()

	var records []*models.DownloadRecord
	for rows.Next() {
		record, err := scanDownload(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan download: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

func (r *DownloadRepository) Delete(id string) error {
	return deleteByID(r.db, "downloads", id)
}

func scanDownload(row scanner) (*models.DownloadRecord, error) {
	var (
		id         string
		protocolID string
		kind       string
		path       string
		size       int64
		createdAt  time.Time
	)

	if err := row.Scan(&id, &protocolID, &kind, &path, &size, &createdAt); err != nil {
		return nil, err
	}
	return models.RestoreDownloadRecord(id, models.ProtocolID(protocolID), models.ArtifactKind(kind), path, size, createdAt), nil
}
