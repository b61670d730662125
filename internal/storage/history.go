package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielbnavia/navia-doc-validator/internal/models"
)

// ErrRecordNotFound is returned when a history lookup matches nothing.
var ErrRecordNotFound = errors.New("validation record not found")

// HistoryStore persists completed relay calls. Writes are best-effort at the
// call site: a failed insert is logged by the caller and never fails the
// relay response.
type HistoryStore struct {
	db *sql.DB
}

// NewHistoryStore wraps an open database connection.
func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// Insert records one relay completion and returns the new record id.
func (s *HistoryStore) Insert(ctx context.Context, rec models.ValidationRecord) (int64, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO validations
			(file_name, file_size, media_type, success, validation_status, result, error, input_tokens, output_tokens, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.FileName, rec.FileSize, rec.MediaType, rec.Success, rec.ValidationStatus,
		rec.Result, rec.Error, rec.InputTokens, rec.OutputTokens, rec.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert validation record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted record id: %w", err)
	}
	return id, nil
}

// List returns the most recent records, newest first.
func (s *HistoryStore) List(ctx context.Context, limit int) ([]models.ValidationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, file_name, file_size, media_type, success, validation_status, result, error, input_tokens, output_tokens, created_at
		 FROM validations ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list validation records: %w", err)
	}
	defer rows.Close()

	var records []models.ValidationRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate validation records: %w", err)
	}
	return records, nil
}

// Get fetches one record by id.
func (s *HistoryStore) Get(ctx context.Context, id int64) (models.ValidationRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, file_name, file_size, media_type, success, validation_status, result, error, input_tokens, output_tokens, created_at
		 FROM validations WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ValidationRecord{}, ErrRecordNotFound
	}
	return rec, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (models.ValidationRecord, error) {
	var rec models.ValidationRecord
	err := row.Scan(&rec.ID, &rec.FileName, &rec.FileSize, &rec.MediaType, &rec.Success,
		&rec.ValidationStatus, &rec.Result, &rec.Error, &rec.InputTokens, &rec.OutputTokens, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ValidationRecord{}, err
		}
		return models.ValidationRecord{}, fmt.Errorf("scan validation record: %w", err)
	}
	return rec, nil
}
