package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/protokoll/internal/models"
	"github.com/desertthunder/protokoll/internal/shared"
)

// GeneratedRepository implements [models.Repository] for [models.GeneratedRecord].
type GeneratedRepository struct {
	db *sql.DB
}

// NewGeneratedRepository creates a new [GeneratedRepository] with the given database connection
func NewGeneratedRepository(db *sql.DB) *GeneratedRepository {
	return &GeneratedRepository{db: db}
}

// Create inserts a record with a generated ID
func (r *GeneratedRepository) Create(record *models.GeneratedRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO generated_protocols (id, protocol_id, title, content_length, created_at) VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query, id, record.ProtocolID().String(), record.Title(), record.ContentLength(), record.CreatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert generated protocol: %w", err)
	}

	record.SetID(id)
	return nil
}

func (r *GeneratedRepository) Get(id string) (*models.GeneratedRecord, error) {
	query := `
		SELECT id, protocol_id, title, content_length, created_at
		FROM generated_protocols
		WHERE id = ?
	`

	record, err := scanGenerated(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: generated protocol %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query generated protocol: %w", err)
	}
	return record, nil
}

// List returns the newest records first; a non-positive limit uses the default of 50.
func (r *GeneratedRepository) List(limit int) ([]*models.GeneratedRecord, error) {
	query := `
		SELECT id, protocol_id, title, content_length, created_at
		FROM generated_protocols
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`
	return r.query(query, listLimit(limit))
}

// ListByProtocol returns every record for a backend protocol id, newest first.
func (r *GeneratedRepository) ListByProtocol(id models.ProtocolID) ([]*models.GeneratedRecord, error) {
	query := `
		SELECT id, protocol_id, title, content_length, created_at
		FROM generated_protocols
		WHERE protocol_id = ?
		ORDER BY created_at DESC, rowid DESC
	`
	return r.query(query, id.String())
}

func (r *GeneratedRepository) Delete(id string) error {
	return deleteByID(r.db, "generated_protocols", id)
}

func (r *GeneratedRepository) query(query string, args ...any) ([]*models.GeneratedRecord, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query generated protocols: %w", err)
	}
	defer rows.Close()

	var records []*models.GeneratedRecord
	for rows.Next() {
		record, err := scanGenerated(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generated protocol: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGenerated(row scanner) (*models.GeneratedRecord, error) {
	var (
		id            string
		protocolID    string
		title         string
		contentLength int
		createdAt     time.Time
	)

	if err := row.Scan(&id, &protocolID, &title, &contentLength, &createdAt); err != nil {
		return nil, err
	}
	return models.RestoreGeneratedRecord(id, models.ProtocolID(protocolID), title, contentLength, createdAt), nil
}
