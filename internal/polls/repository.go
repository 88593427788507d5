package polls

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classpulse/livepoll/internal/models"
)

// Repository stores poll history in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a poll history repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save inserts a finished poll. Options are kept as a JSON array.
func (r *Repository) Save(ctx context.Context, rec models.PollRecord) error {
	options, err := json.Marshal(rec.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	const query = `INSERT INTO poll_history (id, question, options, duration_seconds, created_at)
		VALUES ($1, $2, $3::jsonb, $4, $5)`
	if _, err := r.pool.Exec(ctx, query, rec.ID, rec.Question, string(options), rec.Duration, rec.CreatedAt); err != nil {
		return fmt.Errorf("insert poll history: %w", err)
	}
	return nil
}

// ListRecent returns up to limit finished polls, newest first.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]models.PollRecord, error) {
	const query = `SELECT id, question, options, duration_seconds, created_at
		FROM poll_history ORDER BY created_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query poll history: %w", err)
	}
	defer rows.Close()

	list := make([]models.PollRecord, 0, limit)
	for rows.Next() {
		var rec models.PollRecord
		var options []byte
		if err := rows.Scan(&rec.ID, &rec.Question, &options, &rec.Duration, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan poll history: %w", err)
		}
		if err := json.Unmarshal(options, &rec.Options); err != nil {
			return nil, fmt.Errorf("decode options of %s: %w", rec.ID, err)
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}
