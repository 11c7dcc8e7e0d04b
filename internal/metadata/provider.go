package metadata

import (
	"context"
	"errors"
	"fmt"
)

// MaxDurationSeconds is the hard business limit on source video length.
const MaxDurationSeconds = 180

// ErrDurationExceeded is returned for videos longer than MaxDurationSeconds.
var ErrDurationExceeded = fmt.Errorf("video exceeds %d seconds", MaxDurationSeconds)

// ErrDurationUnknown is returned when a provider resolved no usable
// duration. Downstream frame spacing divides by the duration, so an
// unknown length cannot be processed.
var ErrDurationUnknown = errors.New("video duration could not be determined")

// Normalized provider failure modes. Each maps a platform-specific failure
// to a message suitable for direct display.
var (
	ErrVideoTakenDown   = errors.New("video was removed for a terms of service violation")
	ErrVideoPrivate     = errors.New("video is private")
	ErrVideoUnavailable = errors.New("video is unavailable")
	ErrLoginRequired    = errors.New("video requires a signed-in session to access")
	ErrVideoNotFound    = errors.New("video not found")
)

// VideoInfo is the stable internal shape for resolved video metadata,
// independent of which provider produced it.
type VideoInfo struct {
	ID           string
	Title        string
	Channel      string
	Duration     int // seconds
	ThumbnailURL string
	ViewCount    int64
	Description  string
}

// Provider resolves a source URL to video metadata without downloading media.
type Provider interface {
	Fetch(ctx context.Context, url string) (*VideoInfo, error)
}

// CheckDuration enforces the duration limit on resolved metadata. A zero or
// negative duration is rejected rather than treated as within the limit.
func CheckDuration(info *VideoInfo) error {
	if info.Duration <= 0 {
		return ErrDurationUnknown
	}
	if info.Duration > MaxDurationSeconds {
		return ErrDurationExceeded
	}
	return nil
}
