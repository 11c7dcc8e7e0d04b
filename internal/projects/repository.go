package projects

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shortreel/backend/internal/models"
)

// ErrFinalized is returned when a write targets a project already in a
// terminal state. Completed and error projects are never transitioned again.
var ErrFinalized = fmt.Errorf("project is already finalized")

// Repository handles project persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a projects repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new pending project for a submitted URL.
func (r *Repository) Create(ctx context.Context, videoURL string, metadata map[string]any) (*models.Project, error) {
	metaJSON, err := json.Marshal(orEmptyMap(metadata))
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	const q = `INSERT INTO projects (video_url, screenshots, status, metadata)
		VALUES ($1, '[]'::jsonb, $2, $3)
		RETURNING id, created_at, updated_at`
	p := &models.Project{
		VideoURL:    videoURL,
		Screenshots: []string{},
		Status:      models.StatusPending,
		Metadata:    orEmptyMap(metadata),
	}
	err = r.pool.QueryRow(ctx, q, videoURL, models.StatusPending, metaJSON).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

// UpdateStatus transitions a non-terminal project to status, optionally
// recording an error message. The status value is validated before any
// write; a terminal project is left untouched and ErrFinalized returned.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status, errorMessage *string) error {
	if !status.Valid() {
		return models.ErrInvalidStatus(status)
	}
	const q = `UPDATE projects
		SET status = $1, error_message = $2, updated_at = NOW()
		WHERE id = $3 AND status NOT IN ('completed', 'error')`
	tag, err := r.pool.Exec(ctx, q, status, errorMessage, id)
	if err != nil {
		return fmt.Errorf("update project status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFinalized
	}
	return nil
}

// Complete finalizes a project in place: video path, ordered screenshot
// URLs, result metadata, status=completed. Refuses terminal projects.
func (r *Repository) Complete(ctx context.Context, id uuid.UUID, videoPath string, screenshots []string, metadata map[string]any) error {
	shotsJSON, err := json.Marshal(orEmptySlice(screenshots))
	if err != nil {
		return fmt.Errorf("marshal screenshots: %w", err)
	}
	metaJSON, err := json.Marshal(orEmptyMap(metadata))
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	const q = `UPDATE projects
		SET status = $1, video_path = $2, screenshots = $3, metadata = $4, error_message = NULL, updated_at = NOW()
		WHERE id = $5 AND status NOT IN ('completed', 'error')`
	tag, err := r.pool.Exec(ctx, q, models.StatusCompleted, videoPath, shotsJSON, metaJSON, id)
	if err != nil {
		return fmt.Errorf("complete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFinalized
	}
	return nil
}

// GetByID returns a project by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	const q = `SELECT id, video_url, video_path, screenshots, status, error_message, metadata, created_at, updated_at
		FROM projects WHERE id = $1`
	var (
		p         models.Project
		shotsJSON []byte
		metaJSON  []byte
	)
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&p.ID, &p.VideoURL, &p.VideoPath, &shotsJSON, &p.Status, &p.ErrorMessage, &metaJSON, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(shotsJSON, &p.Screenshots); err != nil {
		return nil, fmt.Errorf("unmarshal screenshots: %w", err)
	}
	if err := json.Unmarshal(metaJSON, &p.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return &p, nil
}

func orEmptyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func orEmptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
