package screenshot

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shortreel/backend/pkg/storage"
)

// Uploader stores a local file and returns its public URL.
type Uploader interface {
	UploadFile(ctx context.Context, localPath, contentType string) (string, error)
}

// Service extracts still frames from a local video and uploads them.
type Service struct {
	dir      string
	uploader Uploader
	logger   *zap.Logger

	// extractFrame writes a single frame of videoPath at ts seconds to
	// outPath. Swapped out in tests.
	extractFrame func(ctx context.Context, videoPath string, ts int, outPath string) error
}

// NewService creates a screenshot service staging frames in dir.
func NewService(dir string, uploader Uploader, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create screenshot dir: %w", err)
	}
	return &Service{
		dir:          dir,
		uploader:     uploader,
		logger:       logger,
		extractFrame: ffmpegExtractFrame,
	}, nil
}

// Timestamps returns n frame positions evenly spaced within the clip:
// duration/(n+1) spacing, so frames never land on the very first or very
// last second.
func Timestamps(duration, n int) []int {
	ts := make([]int, n)
	for i := 0; i < n; i++ {
		ts[i] = duration * (i + 1) / (n + 1)
	}
	return ts
}

// Generate extracts n frames from videoPath, uploads each as JPEG and
// returns their public URLs in timestamp order. Each local frame file is
// removed right after its upload succeeds. A failure on any frame aborts
// the stage; frames already uploaded are not rolled back.
func (s *Service) Generate(ctx context.Context, videoPath string, duration, n int) ([]string, error) {
	urls := make([]string, 0, n)
	for _, ts := range Timestamps(duration, n) {
		framePath := filepath.Join(s.dir, uuid.New().String()+".jpg")

		if err := s.extractFrame(ctx, videoPath, ts, framePath); err != nil {
			return nil, fmt.Errorf("screenshot generation failed at %ds: %w", ts, err)
		}

		url, err := s.uploader.UploadFile(ctx, framePath, storage.ContentTypeJPEG)
		if err != nil {
			_ = os.Remove(framePath)
			return nil, fmt.Errorf("screenshot generation failed at %ds: %w", ts, err)
		}
		if err := os.Remove(framePath); err != nil {
			s.logger.Warn("failed to remove frame file", zap.String("path", framePath), zap.Error(err))
		}

		urls = append(urls, url)
	}
	return urls, nil
}

func ffmpegExtractFrame(ctx context.Context, videoPath string, ts int, outPath string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-ss", strconv.Itoa(ts),
		"-i", videoPath,
		"-frames:v", "1",
		"-q:v", "2",
		"-y",
		outPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, lastLine(stderr.String()))
	}
	if _, err := os.Stat(outPath); err != nil {
		return fmt.Errorf("frame file not produced: %s", outPath)
	}
	return nil
}

func lastLine(s string) string {
	lines := bytes.Split(bytes.TrimSpace([]byte(s)), []byte("\n"))
	if len(lines) == 0 {
		return ""
	}
	return string(bytes.TrimSpace(lines[len(lines)-1]))
}
