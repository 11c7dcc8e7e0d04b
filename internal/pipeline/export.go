package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Exporter writes a human-readable markdown record of each completed run to
// a local output directory. Purely a convenience artifact: failures never
// affect the pipeline outcome.
type Exporter struct {
	dir string
}

// NewExporter creates a markdown exporter writing into dir.
func NewExporter(dir string) *Exporter {
	return &Exporter{dir: dir}
}

// Write renders the run's transcript and translation to
// <dir>/<videoID>_<timestamp>.md and returns the file path.
func (e *Exporter) Write(videoID, url, transcription, translation string) (string, error) {
	if err := os.MkdirAll(e.dir, 0o750); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	now := time.Now()
	content := fmt.Sprintf(`# YouTube Transcription & Translation

## Source
- URL: %s
- Processed at: %s

## Transcription
%s

## Translation
%s
`, url, now.Format("2006-01-02 15:04:05"), transcription, translation)

	path := filepath.Join(e.dir, fmt.Sprintf("%s_%s.md", videoID, now.Format("20060102_150405")))
	if err := os.WriteFile(path, []byte(content), 0o640); err != nil {
		return "", fmt.Errorf("write markdown export: %w", err)
	}
	return path, nil
}
