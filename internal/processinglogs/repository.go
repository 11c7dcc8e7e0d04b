package processinglogs

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository appends processing log entries. Entries are write-once: there
// is no update or delete path.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a processing logs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert appends a stage-transition entry for a video. Callers treat
// failures as best-effort: they are logged, never propagated.
func (r *Repository) Insert(ctx context.Context, videoID uuid.UUID, status string, message *string) error {
	const q = `INSERT INTO processing_logs (video_id, status, message) VALUES ($1, $2, $3)`
	if _, err := r.pool.Exec(ctx, q, videoID, status, message); err != nil {
		return fmt.Errorf("insert processing log: %w", err)
	}
	return nil
}
