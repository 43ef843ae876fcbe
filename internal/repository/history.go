package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/geotrace/geotrace-go/internal/model"
)

// HistoryRepository persists lookup history rows.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create inserts one history row. The snapshot is stored as JSON, or NULL
// when the lookup produced nothing.
func (r *HistoryRepository) Create(ctx context.Context, entry *model.HistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}

	var geo any
	if entry.Geo != nil {
		raw, err := json.Marshal(entry.Geo)
		if err != nil {
			return fmt.Errorf("encoding geo snapshot: %w", err)
		}
		geo = raw
	}

	query := `INSERT INTO search_history (id, user_id, ip, geo, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, entry.ID, entry.UserID, entry.IP, geo, entry.CreatedAt); err != nil {
		return fmt.Errorf("inserting history entry: %w", err)
	}
	return nil
}

// ListByUser returns at most limit rows owned by userID, newest first.
func (r *HistoryRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.HistoryEntry, error) {
	query := `SELECT id, user_id, ip, geo, created_at FROM search_history
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	entries := []model.HistoryEntry{}
	for rows.Next() {
		var (
			e   model.HistoryEntry
			geo []byte
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.IP, &geo, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		if len(geo) > 0 {
			var snap model.GeoSnapshot
			if err := json.Unmarshal(geo, &snap); err != nil {
				return nil, fmt.Errorf("decoding geo snapshot: %w", err)
			}
			e.Geo = &snap
		}
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history rows: %w", err)
	}

	return entries, nil
}

// DeleteByIDs removes the listed rows owned by userID and reports how many
// were deleted. IDs belonging to other users match nothing.
func (r *HistoryRepository) DeleteByIDs(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := `DELETE FROM search_history WHERE user_id = ? AND id IN (` + placeholders + `)`

	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting history entries: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}
	return n, nil
}
