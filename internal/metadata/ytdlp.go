package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// ytdlpInfo is the subset of yt-dlp's -J output we consume.
type ytdlpInfo struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Channel     string  `json:"channel"`
	Uploader    string  `json:"uploader"`
	Duration    float64 `json:"duration"`
	Thumbnail   string  `json:"thumbnail"`
	ViewCount   int64   `json:"view_count"`
	Description string  `json:"description"`
}

// YtdlpProvider resolves metadata by invoking the yt-dlp extractor.
type YtdlpProvider struct {
	binary     string
	cookieFile string // optional Netscape cookie file for authenticated access
	logger     *zap.Logger
}

// NewYtdlpProvider creates a yt-dlp metadata provider. cookieFile may be
// empty when no pre-authenticated cookies are configured.
func NewYtdlpProvider(cookieFile string, logger *zap.Logger) *YtdlpProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YtdlpProvider{binary: "yt-dlp", cookieFile: cookieFile, logger: logger}
}

// Fetch resolves URL to video metadata. On a login-required failure exactly
// one retry is attempted with the alternate player client before the
// normalized error is surfaced.
func (p *YtdlpProvider) Fetch(ctx context.Context, url string) (*VideoInfo, error) {
	info, err := p.extract(ctx, url, false)
	if errors.Is(err, ErrLoginRequired) {
		p.logger.Warn("metadata fetch requires login, retrying with alternate client", zap.String("url", url))
		info, err = p.extract(ctx, url, true)
	}
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (p *YtdlpProvider) extract(ctx context.Context, url string, alternateClient bool) (*VideoInfo, error) {
	args := []string{"-J", "--skip-download", "--no-warnings"}
	if p.cookieFile != "" {
		args = append(args, "--cookies", p.cookieFile)
	}
	if alternateClient {
		args = append(args, "--extractor-args", "youtube:player_client=android")
	}
	args = append(args, url)

	cmd := exec.CommandContext(ctx, p.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if normalized := normalizeExtractorError(stderr.String()); normalized != nil {
			return nil, normalized
		}
		return nil, fmt.Errorf("fetch video metadata: %w: %s", err, firstLine(stderr.String()))
	}

	var raw ytdlpInfo
	if err := json.Unmarshal(stdout.Bytes(), &raw); err != nil {
		return nil, fmt.Errorf("parse extractor output: %w", err)
	}
	if raw.ID == "" {
		return nil, ErrVideoUnavailable
	}

	channel := raw.Channel
	if channel == "" {
		channel = raw.Uploader
	}
	return &VideoInfo{
		ID:           raw.ID,
		Title:        raw.Title,
		Channel:      channel,
		Duration:     int(raw.Duration),
		ThumbnailURL: raw.Thumbnail,
		ViewCount:    raw.ViewCount,
		Description:  raw.Description,
	}, nil
}

// normalizeExtractorError maps yt-dlp stderr output to one of the normalized
// failure modes, or nil when the output matches none of them.
func normalizeExtractorError(stderr string) error {
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "terms of service"):
		return ErrVideoTakenDown
	case strings.Contains(lower, "private video"):
		return ErrVideoPrivate
	case strings.Contains(lower, "sign in to") || strings.Contains(lower, "login required") ||
		strings.Contains(lower, "use --cookies"):
		return ErrLoginRequired
	case strings.Contains(lower, "video unavailable"):
		return ErrVideoUnavailable
	}
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
