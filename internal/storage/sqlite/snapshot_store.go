package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/willibrandon/pageview/internal/models"
)

// DefaultHistoryLimit is the number of rows GetHistory returns when no limit
// is given.
const DefaultHistoryLimit = 50

// ParseRecord is one stored parse summary.
type ParseRecord struct {
	ID             int64
	SessionID      string
	Path           string
	ParsedAt       time.Time
	PageCount      int
	PageSize       int
	FileSize       int64
	FreeBytes      int64
	AvgUtilization float64
	SkippedPages   int
	DurationMs     float64
	ChangeCounter  int64
}

// SnapshotStore records parse summaries.
type SnapshotStore struct {
	db *DB
}

// NewSnapshotStore creates a store backed by db.
func NewSnapshotStore(db *DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// NewSessionID returns an identifier grouping the parses of one process run.
func NewSessionID() string {
	return uuid.NewString()
}

// normalizePath makes relative and absolute spellings of a file match.
func normalizePath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// Save stores a summary of info and returns the new row id.
func (s *SnapshotStore) Save(ctx context.Context, sessionID, path string, info *models.DatabaseInfo, dur time.Duration) (int64, error) {
	if info == nil {
		return 0, fmt.Errorf("save parse history: nil database info")
	}

	result, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO parse_history (
			session_id, path, parsed_at, page_count, page_size, file_size,
			free_bytes, avg_utilization, skipped_pages, duration_ms, change_counter
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		sessionID,
		normalizePath(path),
		time.Now().UTC(),
		info.PageCount(),
		info.PageSize(),
		int64(info.TotalFileSize()),
		int64(info.TotalFreeSpace()),
		info.AverageUtilization(),
		info.SkippedCount(),
		float64(dur)/float64(time.Millisecond),
		int64(info.Header().FileChangeCounter),
	)
	if err != nil {
		return 0, fmt.Errorf("save parse history: %w", err)
	}
	return result.LastInsertId()
}

// GetHistory returns the newest records for path, newest first.
func (s *SnapshotStore) GetHistory(ctx context.Context, path string, limit int) ([]ParseRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, session_id, path, parsed_at, page_count, page_size, file_size,
			free_bytes, avg_utilization, skipped_pages, duration_ms, change_counter
		FROM parse_history
		WHERE path = ?
		ORDER BY parsed_at DESC, id DESC
		LIMIT ?
	`, normalizePath(path), limit)
	if err != nil {
		return nil, fmt.Errorf("query parse history: %w", err)
	}
	defer rows.Close()

	var records []ParseRecord
	for rows.Next() {
		var r ParseRecord
		if err := rows.Scan(
			&r.ID, &r.SessionID, &r.Path, &r.ParsedAt, &r.PageCount, &r.PageSize, &r.FileSize,
			&r.FreeBytes, &r.AvgUtilization, &r.SkippedPages, &r.DurationMs, &r.ChangeCounter,
		); err != nil {
			return nil, fmt.Errorf("scan parse history: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Count returns the number of records stored for path.
func (s *SnapshotStore) Count(ctx context.Context, path string) (int, error) {
	var count int
	err := s.db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM parse_history WHERE path = ?", normalizePath(path),
	).Scan(&count)
	return count, err
}

// Prune keeps the newest keep records across all files and deletes the rest.
// A non-positive keep disables pruning.
func (s *SnapshotStore) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}

	result, err := s.db.conn.ExecContext(ctx, `
		DELETE FROM parse_history
		WHERE id NOT IN (
			SELECT id FROM parse_history
			ORDER BY parsed_at DESC, id DESC
			LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune parse history: %w", err)
	}
	return result.RowsAffected()
}
