package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shortreel/backend/internal/metadata"
	"github.com/shortreel/backend/internal/models"
	"github.com/shortreel/backend/internal/validation"
	"github.com/shortreel/backend/pkg/metrics"
	"github.com/shortreel/backend/pkg/storage"
)

// MetadataProvider resolves a source URL to video metadata.
type MetadataProvider interface {
	Fetch(ctx context.Context, url string) (*metadata.VideoInfo, error)
}

// Downloader stages source media locally and returns its path.
type Downloader interface {
	Download(ctx context.Context, url, videoID string) (string, error)
}

// Uploader stores a local file and returns its public URL.
type Uploader interface {
	UploadFile(ctx context.Context, localPath, contentType string) (string, error)
}

// ScreenshotService extracts and uploads n frames, returning their URLs in
// timestamp order.
type ScreenshotService interface {
	Generate(ctx context.Context, videoPath string, duration, n int) ([]string, error)
}

// Transcriber produces (transcription, translation) for local media.
type Transcriber interface {
	TranscribeAndTranslate(ctx context.Context, mediaPath string) (string, string, error)
}

// ProjectStore persists pipeline run records.
type ProjectStore interface {
	Create(ctx context.Context, videoURL string, metadata map[string]any) (*models.Project, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status, errorMessage *string) error
	Complete(ctx context.Context, id uuid.UUID, videoPath string, screenshots []string, metadata map[string]any) error
}

// VideoStore persists per-source-video records keyed by youtube_id.
type VideoStore interface {
	Upsert(ctx context.Context, v *models.Video) (*models.Video, error)
	UpdatePath(ctx context.Context, id uuid.UUID, videoPath string) error
	UpdateTranscript(ctx context.Context, id uuid.UUID, transcription, translation string) error
}

// LogStore appends stage-transition audit entries.
type LogStore interface {
	Insert(ctx context.Context, videoID uuid.UUID, status string, message *string) error
}

// Result is the success payload of a full pipeline run.
type Result struct {
	Success       bool      `json:"success"`
	ProjectID     uuid.UUID `json:"project_id"`
	VideoID       uuid.UUID `json:"video_id"`
	VideoPath     string    `json:"video_path"`
	Screenshots   []string  `json:"screenshots"`
	Transcription string    `json:"transcription"`
	Translation   string    `json:"translation"`
	Status        string    `json:"status"`
}

// Pipeline sequences the ingestion stages and owns the single top-level
// failure boundary: once a project exists, any stage error is written back
// to it before the error is surfaced.
type Pipeline struct {
	meta        MetadataProvider
	downloader  Downloader
	uploader    Uploader
	shots       ScreenshotService
	transcriber Transcriber
	projects    ProjectStore
	videos      VideoStore
	logs        LogStore
	exporter    *Exporter
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// New wires a pipeline. exporter and m may be nil.
func New(
	meta MetadataProvider,
	downloader Downloader,
	uploader Uploader,
	shots ScreenshotService,
	transcriber Transcriber,
	projects ProjectStore,
	videos VideoStore,
	logs LogStore,
	exporter *Exporter,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		meta:        meta,
		downloader:  downloader,
		uploader:    uploader,
		shots:       shots,
		transcriber: transcriber,
		projects:    projects,
		videos:      videos,
		logs:        logs,
		exporter:    exporter,
		metrics:     m,
		logger:      logger,
	}
}

// Run executes one synchronous pipeline pass for youtubeURL. Errors before
// project creation (bad URL, metadata failure, duration limit) surface
// directly; errors after it are first compensated into the project record
// and, when a video row exists, into the processing log.
func (p *Pipeline) Run(ctx context.Context, youtubeURL string, numScreenshots int) (*Result, error) {
	if p.metrics != nil {
		p.metrics.ActivePipelines.Inc()
		defer p.metrics.ActivePipelines.Dec()
	}

	if err := validation.ValidateURL(youtubeURL); err != nil {
		return nil, p.rejected(err)
	}

	start := time.Now()
	info, err := p.meta.Fetch(ctx, youtubeURL)
	if err != nil {
		return nil, p.rejected(err)
	}
	p.observe("metadata", start)

	if err := metadata.CheckDuration(info); err != nil {
		return nil, p.rejected(err)
	}

	project, err := p.projects.Create(ctx, youtubeURL, map[string]any{
		"requested_screenshots": numScreenshots,
		"title":                 info.Title,
		"channel":               info.Channel,
		"duration":              info.Duration,
		"thumbnail":             info.ThumbnailURL,
	})
	if err != nil {
		return nil, p.rejected(err)
	}

	result, err := p.process(ctx, project, info, youtubeURL, numScreenshots)
	if err != nil {
		p.fail(ctx, project.ID, result, err)
		if p.metrics != nil {
			p.metrics.PipelineRuns.WithLabelValues("error").Inc()
		}
		return nil, err
	}
	if p.metrics != nil {
		p.metrics.PipelineRuns.WithLabelValues("completed").Inc()
	}
	return result, nil
}

// process runs every stage after project creation. The returned Result is
// partially populated on failure so the boundary knows whether a video row
// exists for error logging.
func (p *Pipeline) process(ctx context.Context, project *models.Project, info *metadata.VideoInfo, youtubeURL string, numScreenshots int) (*Result, error) {
	result := &Result{ProjectID: project.ID}

	if err := p.projects.UpdateStatus(ctx, project.ID, models.StatusProcessing, nil); err != nil {
		return result, err
	}

	video, err := p.videos.Upsert(ctx, &models.Video{
		YouTubeURL:   youtubeURL,
		YouTubeID:    info.ID,
		ThumbnailURL: optional(info.ThumbnailURL),
		Duration:     optionalInt(info.Duration),
	})
	if err != nil {
		return result, err
	}
	result.VideoID = video.ID

	p.logStage(ctx, video.ID, "processing", "processing started")

	start := time.Now()
	localPath, err := p.downloader.Download(ctx, youtubeURL, info.ID)
	if err != nil {
		return result, err
	}
	p.observe("download", start)
	defer func() {
		if err := os.Remove(localPath); err != nil {
			p.logger.Warn("failed to remove downloaded file", zap.String("path", localPath), zap.Error(err))
		}
	}()

	start = time.Now()
	videoURL, err := p.uploader.UploadFile(ctx, localPath, storage.ContentTypeVideoMP4)
	if err != nil {
		return result, err
	}
	p.observe("upload", start)
	result.VideoPath = videoURL

	if err := p.videos.UpdatePath(ctx, video.ID, videoURL); err != nil {
		return result, err
	}

	start = time.Now()
	screenshots, err := p.shots.Generate(ctx, localPath, info.Duration, numScreenshots)
	if err != nil {
		return result, err
	}
	p.observe("screenshots", start)
	result.Screenshots = screenshots

	start = time.Now()
	transcription, translation, err := p.transcriber.TranscribeAndTranslate(ctx, localPath)
	if err != nil {
		return result, err
	}
	p.observe("transcribe", start)

	if err := p.videos.UpdateTranscript(ctx, video.ID, transcription, translation); err != nil {
		return result, err
	}

	err = p.projects.Complete(ctx, project.ID, videoURL, screenshots, map[string]any{
		"video_id":              video.ID.String(),
		"requested_screenshots": numScreenshots,
		"duration":              info.Duration,
		"thumbnail_url":         info.ThumbnailURL,
	})
	if err != nil {
		return result, err
	}

	p.logStage(ctx, video.ID, "completed", "processing completed")

	if p.exporter != nil {
		if path, err := p.exporter.Write(info.ID, youtubeURL, transcription, translation); err != nil {
			p.logger.Warn("markdown export failed", zap.Error(err))
		} else {
			p.logger.Debug("markdown export written", zap.String("path", path))
		}
	}

	result.Success = true
	result.Transcription = transcription
	result.Translation = translation
	result.Status = string(models.StatusCompleted)
	return result, nil
}

// fail is the compensation path: mark the project errored and, when a video
// row was created in this run, append an error log entry. Both writes are
// best-effort; the original error is what callers see.
func (p *Pipeline) fail(ctx context.Context, projectID uuid.UUID, result *Result, cause error) {
	msg := cause.Error()
	if err := p.projects.UpdateStatus(ctx, projectID, models.StatusError, &msg); err != nil {
		p.logger.Error("failed to record project error state",
			zap.String("project_id", projectID.String()), zap.Error(err))
	}
	if result != nil && result.VideoID != uuid.Nil {
		p.logStage(ctx, result.VideoID, "error", msg)
	}
	p.logger.Error("pipeline run failed", zap.String("project_id", projectID.String()), zap.Error(cause))
}

// logStage appends a processing log entry, swallowing failures after
// diagnostic output. Audit logging is best-effort, never a hard failure.
func (p *Pipeline) logStage(ctx context.Context, videoID uuid.UUID, status, message string) {
	if err := p.logs.Insert(ctx, videoID, status, &message); err != nil {
		p.logger.Warn("processing log write failed",
			zap.String("video_id", videoID.String()),
			zap.String("status", status),
			zap.Error(err))
	}
}

func (p *Pipeline) rejected(err error) error {
	if p.metrics != nil {
		p.metrics.PipelineRuns.WithLabelValues("rejected").Inc()
	}
	return err
}

func (p *Pipeline) observe(stage string, start time.Time) {
	if p.metrics != nil {
		p.metrics.ObserveStage(stage, start)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalInt(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}
