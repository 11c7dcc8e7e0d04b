package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the project processing status.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// validStatuses lists every status accepted for persistence.
var validStatuses = []Status{StatusPending, StatusProcessing, StatusCompleted, StatusError}

// Valid reports whether s is one of the four accepted status values.
func (s Status) Valid() bool {
	for _, v := range validStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether s is a terminal status. Completed and error
// projects are never transitioned again; a fresh request creates a new row.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// ErrInvalidStatus builds the rejection error for a status outside the enum.
func ErrInvalidStatus(s Status) error {
	parts := make([]string, len(validStatuses))
	for i, v := range validStatuses {
		parts[i] = string(v)
	}
	return fmt.Errorf("invalid status value %q: must be one of %s", s, strings.Join(parts, ", "))
}

// Project tracks the overall pipeline run for one submitted URL.
type Project struct {
	ID           uuid.UUID      `json:"id"`
	VideoURL     string         `json:"video_url"`
	VideoPath    *string        `json:"video_path,omitempty"`
	Screenshots  []string       `json:"screenshots"`
	Status       Status         `json:"status"`
	ErrorMessage *string        `json:"error_message,omitempty"`
	Metadata     map[string]any `json:"metadata"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
