package models

import (
	"time"

	"github.com/google/uuid"
)

// ProcessingLog is an append-only audit entry for a stage transition of a
// video. Entries are never updated or deleted.
type ProcessingLog struct {
	ID        uuid.UUID `json:"id"`
	VideoID   uuid.UUID `json:"video_id"`
	Status    string    `json:"status"`
	Message   *string   `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
