package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/opendxi/backend/internal/apperrors"
	"github.com/opendxi/backend/internal/types"
)

// Repository handles sprint store operations.
type Repository struct {
	db *DB
}

// NewRepository creates a new repository.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

const sprintColumns = `id, sprint_start, sprint_end, payload_json, content_hash, created_at, updated_at`

// GetSprint loads the record for a window, or nil when none exists.
func (r *Repository) GetSprint(window types.SprintWindow) (*SprintRecord, error) {
	record, err := scanSprint(r.db.QueryRow(`
		SELECT `+sprintColumns+`
		FROM sprints
		WHERE sprint_start = ? AND sprint_end = ?
	`, window.StartDate, window.EndDate))

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sprint: %w", err)
	}
	return record, nil
}

// SaveSprint writes a freshly computed payload for a window inside one
// transaction. The existence re-check runs here, not before the fetch:
// another caller may have populated the window while the fetch was in
// flight.
//
//   - no existing record: insert
//   - existing record, force: replace the payload in place
//   - existing record, no force: the other caller won; return its record
//     and discard the fresh payload
//
// A unique-constraint failure on insert surfaces as a conflict error the
// loader recovers from by re-reading.
func (r *Repository) SaveSprint(window types.SprintWindow, payloadJSON []byte, force bool) (*SprintRecord, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := scanSprint(tx.QueryRow(`
		SELECT `+sprintColumns+`
		FROM sprints
		WHERE sprint_start = ? AND sprint_end = ?
	`, window.StartDate, window.EndDate))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to re-check sprint: %w", err)
	}

	if existing != nil {
		if !force {
			return existing, tx.Commit()
		}

		existing.PayloadJSON = payloadJSON
		existing.ContentHash = ContentHash(payloadJSON)
		existing.UpdatedAt = time.Now().UTC()

		if _, err := tx.Exec(`
			UPDATE sprints SET payload_json = ?, content_hash = ?, updated_at = ?
			WHERE id = ?
		`, existing.PayloadJSON, existing.ContentHash, existing.UpdatedAt, existing.ID); err != nil {
			return nil, fmt.Errorf("failed to update sprint: %w", err)
		}
		return existing, tx.Commit()
	}

	record := NewSprintRecord(window, payloadJSON)
	if _, err := tx.Exec(`
		INSERT INTO sprints (`+sprintColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, record.ID, record.StartDate, record.EndDate, record.PayloadJSON,
		record.ContentHash, record.CreatedAt, record.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.NewConflictError(
				fmt.Sprintf("sprint %s to %s already populated", window.StartDate, window.EndDate), err)
		}
		return nil, fmt.Errorf("failed to insert sprint: %w", err)
	}
	return record, tx.Commit()
}

// ListSprints returns all cached records, newest update first, without
// payload bodies.
func (r *Repository) ListSprints() ([]*SprintRecord, error) {
	rows, err := r.db.Query(`
		SELECT id, sprint_start, sprint_end, content_hash, created_at, updated_at
		FROM sprints
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sprints: %w", err)
	}
	defer rows.Close()

	var records []*SprintRecord
	for rows.Next() {
		var record SprintRecord
		if err := rows.Scan(&record.ID, &record.StartDate, &record.EndDate,
			&record.ContentHash, &record.CreatedAt, &record.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sprint row: %w", err)
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}

// StoreStats summarizes the cache contents for monitoring.
type StoreStats struct {
	EntryCount   int    `json:"entry_count"`
	TotalBytes   int64  `json:"total_bytes"`
	OldestUpdate string `json:"oldest_update,omitempty"`
	NewestUpdate string `json:"newest_update,omitempty"`
}

// GetStoreStats returns entry counts, stored bytes, and entry age bounds.
func (r *Repository) GetStoreStats() (StoreStats, error) {
	var stats StoreStats
	var oldest, newest sql.NullString
	err := r.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(LENGTH(payload_json)), 0),
			MIN(updated_at),
			MAX(updated_at)
		FROM sprints
	`).Scan(&stats.EntryCount, &stats.TotalBytes, &oldest, &newest)
	if err != nil {
		return StoreStats{}, fmt.Errorf("failed to query store stats: %w", err)
	}
	stats.OldestUpdate = oldest.String
	stats.NewestUpdate = newest.String
	return stats, nil
}

func scanSprint(row *sql.Row) (*SprintRecord, error) {
	var record SprintRecord
	err := row.Scan(&record.ID, &record.StartDate, &record.EndDate,
		&record.PayloadJSON, &record.ContentHash, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// isUniqueViolation reports whether err is the sqlite unique-constraint
// failure raised when a concurrent writer inserted the same window first.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
