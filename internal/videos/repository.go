package videos

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shortreel/backend/internal/models"
)

// Repository handles video persistence. youtube_id is the idempotency key:
// a second run for the same source video updates the existing row.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a videos repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert inserts a video row keyed by youtube_id, or merges into the
// existing one. Incoming non-null fields overwrite; nulls keep prior values
// (COALESCE on the update path).
func (r *Repository) Upsert(ctx context.Context, v *models.Video) (*models.Video, error) {
	const q = `INSERT INTO videos (youtube_url, youtube_id, video_path, transcription, translation, thumbnail_url, duration)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (youtube_id) DO UPDATE SET
			youtube_url   = EXCLUDED.youtube_url,
			video_path    = COALESCE(EXCLUDED.video_path, videos.video_path),
			transcription = COALESCE(EXCLUDED.transcription, videos.transcription),
			translation   = COALESCE(EXCLUDED.translation, videos.translation),
			thumbnail_url = COALESCE(EXCLUDED.thumbnail_url, videos.thumbnail_url),
			duration      = COALESCE(EXCLUDED.duration, videos.duration),
			updated_at    = NOW()
		RETURNING id, youtube_url, youtube_id, video_path, transcription, translation, thumbnail_url, duration, created_at, updated_at`
	var out models.Video
	err := r.pool.QueryRow(ctx, q,
		v.YouTubeURL, v.YouTubeID, v.VideoPath, v.Transcription, v.Translation, v.ThumbnailURL, v.Duration,
	).Scan(
		&out.ID, &out.YouTubeURL, &out.YouTubeID, &out.VideoPath, &out.Transcription,
		&out.Translation, &out.ThumbnailURL, &out.Duration, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert video: %w", err)
	}
	return &out, nil
}

// UpdatePath sets the stored artifact URL for the downloaded media.
func (r *Repository) UpdatePath(ctx context.Context, id uuid.UUID, videoPath string) error {
	const q = `UPDATE videos SET video_path = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.pool.Exec(ctx, q, videoPath, id)
	if err != nil {
		return fmt.Errorf("update video path: %w", err)
	}
	return nil
}

// UpdateTranscript sets the transcription and translation text.
func (r *Repository) UpdateTranscript(ctx context.Context, id uuid.UUID, transcription, translation string) error {
	const q = `UPDATE videos SET transcription = $1, translation = $2, updated_at = NOW() WHERE id = $3`
	_, err := r.pool.Exec(ctx, q, transcription, translation, id)
	if err != nil {
		return fmt.Errorf("update video transcript: %w", err)
	}
	return nil
}

// GetByYouTubeID returns the video for a platform video ID, or nil when none
// exists yet.
func (r *Repository) GetByYouTubeID(ctx context.Context, youtubeID string) (*models.Video, error) {
	const q = `SELECT id, youtube_url, youtube_id, video_path, transcription, translation, thumbnail_url, duration, created_at, updated_at
		FROM videos WHERE youtube_id = $1`
	var v models.Video
	err := r.pool.QueryRow(ctx, q, youtubeID).Scan(
		&v.ID, &v.YouTubeURL, &v.YouTubeID, &v.VideoPath, &v.Transcription,
		&v.Translation, &v.ThumbnailURL, &v.Duration, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}
