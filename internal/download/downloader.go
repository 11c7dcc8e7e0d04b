package download

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

// Downloader stages source media into a local scratch directory with yt-dlp.
type Downloader struct {
	binary     string
	dir        string
	cookieFile string
	logger     *zap.Logger
}

// NewDownloader creates a downloader writing into dir. cookieFile may be
// empty when no pre-authenticated cookies are configured.
func NewDownloader(dir, cookieFile string, logger *zap.Logger) (*Downloader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}
	return &Downloader{binary: "yt-dlp", dir: dir, cookieFile: cookieFile, logger: logger}, nil
}

// Download fetches the best mp4 rendition of url and returns the local path
// <dir>/<videoID>.mp4. A missing output file after yt-dlp returns is a
// download error.
func (d *Downloader) Download(ctx context.Context, url, videoID string) (string, error) {
	args := []string{
		"-f", "best[ext=mp4]",
		"-o", filepath.Join(d.dir, "%(id)s.%(ext)s"),
		"--no-warnings",
		"--user-agent", browserUserAgent,
		"--add-headers", "Accept-Language:en-us,en;q=0.5",
	}
	if d.cookieFile != "" {
		args = append(args, "--cookies", d.cookieFile)
	}
	args = append(args, url)

	cmd := exec.CommandContext(ctx, d.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	d.logger.Info("downloading video", zap.String("url", url), zap.String("video_id", videoID))
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("video download failed: %w: %s", err, firstLine(stderr.String()))
	}

	outputPath := filepath.Join(d.dir, videoID+".mp4")
	if _, err := os.Stat(outputPath); err != nil {
		return "", fmt.Errorf("downloaded file not found: %s", outputPath)
	}

	d.logger.Info("video downloaded", zap.String("path", outputPath))
	return outputPath, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
