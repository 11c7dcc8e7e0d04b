package models

import (
	"time"

	"github.com/google/uuid"
)

// Video holds durable metadata and derived text artifacts for one source
// video. YouTubeID is the idempotency key: reprocessing the same source
// updates the existing row instead of inserting a duplicate.
type Video struct {
	ID            uuid.UUID `json:"id"`
	YouTubeURL    string    `json:"youtube_url"`
	YouTubeID     string    `json:"youtube_id"`
	VideoPath     *string   `json:"video_path,omitempty"`
	Transcription *string   `json:"transcription,omitempty"`
	Translation   *string   `json:"translation,omitempty"`
	ThumbnailURL  *string   `json:"thumbnail_url,omitempty"`
	Duration      *int      `json:"duration,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
