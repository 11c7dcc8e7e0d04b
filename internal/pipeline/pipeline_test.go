package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/shortreel/backend/internal/metadata"
	"github.com/shortreel/backend/internal/models"
)

type fakeMetadata struct {
	info *metadata.VideoInfo
	err  error
}

func (f *fakeMetadata) Fetch(context.Context, string) (*metadata.VideoInfo, error) {
	return f.info, f.err
}

type fakeDownloader struct {
	err error
}

func (f *fakeDownloader) Download(_ context.Context, _, videoID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "/tmp/" + videoID + ".mp4", nil
}

type fakeUploader struct {
	err error
}

func (f *fakeUploader) UploadFile(_ context.Context, localPath, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://store.example/" + strings.TrimPrefix(localPath, "/tmp/"), nil
}

type fakeShots struct {
	err error
}

func (f *fakeShots) Generate(_ context.Context, _ string, _, n int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	urls := make([]string, n)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://store.example/shot-%d.jpg", i+1)
	}
	return urls, nil
}

type fakeTranscriber struct {
	err error
}

func (f *fakeTranscriber) TranscribeAndTranslate(context.Context, string) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	return "こんにちは", "Hello", nil
}

// fakeProjectStore mirrors the SQL repository's terminal-state guard.
type fakeProjectStore struct {
	mu       sync.Mutex
	projects map[uuid.UUID]*models.Project
}

func newFakeProjectStore() *fakeProjectStore {
	return &fakeProjectStore{projects: make(map[uuid.UUID]*models.Project)}
}

func (s *fakeProjectStore) Create(_ context.Context, videoURL string, meta map[string]any) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &models.Project{
		ID:          uuid.New(),
		VideoURL:    videoURL,
		Screenshots: []string{},
		Status:      models.StatusPending,
		Metadata:    meta,
	}
	s.projects[p.ID] = p
	return p, nil
}

func (s *fakeProjectStore) UpdateStatus(_ context.Context, id uuid.UUID, status models.Status, errorMessage *string) error {
	if !status.Valid() {
		return models.ErrInvalidStatus(status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return errors.New("project not found")
	}
	if p.Status.Terminal() {
		return errors.New("project is already finalized")
	}
	p.Status = status
	p.ErrorMessage = errorMessage
	return nil
}

func (s *fakeProjectStore) Complete(_ context.Context, id uuid.UUID, videoPath string, screenshots []string, meta map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return errors.New("project not found")
	}
	if p.Status.Terminal() {
		return errors.New("project is already finalized")
	}
	p.Status = models.StatusCompleted
	p.VideoPath = &videoPath
	p.Screenshots = screenshots
	p.Metadata = meta
	return nil
}

func (s *fakeProjectStore) only(t *testing.T) *models.Project {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.projects) != 1 {
		t.Fatalf("expected exactly 1 project, got %d", len(s.projects))
	}
	for _, p := range s.projects {
		return p
	}
	return nil
}

// fakeVideoStore keys rows by youtube_id like the real table's unique index.
type fakeVideoStore struct {
	mu     sync.Mutex
	byYTID map[string]*models.Video
}

func newFakeVideoStore() *fakeVideoStore {
	return &fakeVideoStore{byYTID: make(map[string]*models.Video)}
}

func (s *fakeVideoStore) Upsert(_ context.Context, v *models.Video) (*models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byYTID[v.YouTubeID]
	if !ok {
		row := *v
		row.ID = uuid.New()
		s.byYTID[v.YouTubeID] = &row
		out := row
		return &out, nil
	}
	existing.YouTubeURL = v.YouTubeURL
	if v.VideoPath != nil {
		existing.VideoPath = v.VideoPath
	}
	if v.Transcription != nil {
		existing.Transcription = v.Transcription
	}
	if v.Translation != nil {
		existing.Translation = v.Translation
	}
	if v.ThumbnailURL != nil {
		existing.ThumbnailURL = v.ThumbnailURL
	}
	if v.Duration != nil {
		existing.Duration = v.Duration
	}
	out := *existing
	return &out, nil
}

func (s *fakeVideoStore) UpdatePath(_ context.Context, id uuid.UUID, videoPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.byYTID {
		if v.ID == id {
			v.VideoPath = &videoPath
			return nil
		}
	}
	return errors.New("video not found")
}

func (s *fakeVideoStore) UpdateTranscript(_ context.Context, id uuid.UUID, transcription, translation string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.byYTID {
		if v.ID == id {
			v.Transcription = &transcription
			v.Translation = &translation
			return nil
		}
	}
	return errors.New("video not found")
}

type logEntry struct {
	videoID uuid.UUID
	status  string
	message string
}

type fakeLogStore struct {
	mu      sync.Mutex
	entries []logEntry
	err     error
}

func (s *fakeLogStore) Insert(_ context.Context, videoID uuid.UUID, status string, message *string) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := ""
	if message != nil {
		msg = *message
	}
	s.entries = append(s.entries, logEntry{videoID: videoID, status: status, message: msg})
	return nil
}

type fixture struct {
	pipeline *Pipeline
	meta     *fakeMetadata
	dl       *fakeDownloader
	up       *fakeUploader
	shots    *fakeShots
	tr       *fakeTranscriber
	projects *fakeProjectStore
	videos   *fakeVideoStore
	logs     *fakeLogStore
}

func newFixture() *fixture {
	f := &fixture{
		meta: &fakeMetadata{info: &metadata.VideoInfo{
			ID:           "abc123",
			Title:        "Sample clip",
			Channel:      "Sample Channel",
			Duration:     42,
			ThumbnailURL: "https://img.example/abc123.jpg",
		}},
		dl:       &fakeDownloader{},
		up:       &fakeUploader{},
		shots:    &fakeShots{},
		tr:       &fakeTranscriber{},
		projects: newFakeProjectStore(),
		videos:   newFakeVideoStore(),
		logs:     &fakeLogStore{},
	}
	f.pipeline = New(f.meta, f.dl, f.up, f.shots, f.tr, f.projects, f.videos, f.logs, nil, nil, nil)
	return f
}

func TestRunSuccess(t *testing.T) {
	f := newFixture()

	result, err := f.pipeline.Run(context.Background(), "https://www.youtube.com/watch?v=abc123", 2)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !result.Success {
		t.Error("expected success")
	}
	if result.Status != "completed" {
		t.Errorf("status = %q, want completed", result.Status)
	}
	if len(result.Screenshots) != 2 {
		t.Fatalf("expected 2 screenshots, got %d", len(result.Screenshots))
	}
	for i, url := range result.Screenshots {
		want := fmt.Sprintf("https://store.example/shot-%d.jpg", i+1)
		if url != want {
			t.Errorf("screenshots[%d] = %s, want %s", i, url, want)
		}
	}
	if result.Transcription == "" || result.Translation == "" {
		t.Error("transcription and translation must be non-empty")
	}
	if result.VideoPath != "https://store.example/abc123.mp4" {
		t.Errorf("video path = %s", result.VideoPath)
	}

	project := f.projects.only(t)
	if project.Status != models.StatusCompleted {
		t.Errorf("project status = %s, want completed", project.Status)
	}
	if len(project.Screenshots) != 2 {
		t.Errorf("project screenshots = %v", project.Screenshots)
	}

	video := f.videos.byYTID["abc123"]
	if video == nil {
		t.Fatal("video record missing")
	}
	if video.Transcription == nil || video.Translation == nil {
		t.Error("video transcript fields not set")
	}

	var statuses []string
	for _, e := range f.logs.entries {
		statuses = append(statuses, e.status)
	}
	if len(statuses) != 2 || statuses[0] != "processing" || statuses[1] != "completed" {
		t.Errorf("log statuses = %v, want [processing completed]", statuses)
	}
}

func TestRunRejectsLongVideo(t *testing.T) {
	f := newFixture()
	f.meta.info.Duration = 181

	_, err := f.pipeline.Run(context.Background(), "https://www.youtube.com/watch?v=abc123", 3)
	if !errors.Is(err, metadata.ErrDurationExceeded) {
		t.Fatalf("expected ErrDurationExceeded, got %v", err)
	}
	if !strings.Contains(err.Error(), "exceeds 180 seconds") {
		t.Errorf("error should name the limit: %v", err)
	}
	if len(f.projects.projects) != 0 {
		t.Error("no project should be created for a rejected video")
	}
}

func TestRunRejectsUnknownDuration(t *testing.T) {
	f := newFixture()
	f.meta.info.Duration = 0

	_, err := f.pipeline.Run(context.Background(), "https://www.youtube.com/watch?v=abc123", 3)
	if !errors.Is(err, metadata.ErrDurationUnknown) {
		t.Fatalf("expected ErrDurationUnknown, got %v", err)
	}
	if len(f.projects.projects) != 0 {
		t.Error("no project should be created when the duration is unknown")
	}
}

func TestRunRejectsMalformedURL(t *testing.T) {
	f := newFixture()

	_, err := f.pipeline.Run(context.Background(), "not-a-url", 3)
	if err == nil {
		t.Fatal("expected error for malformed URL")
	}
	if len(f.projects.projects) != 0 {
		t.Error("no project should be persisted for a malformed URL")
	}
	if len(f.videos.byYTID) != 0 {
		t.Error("no video should be persisted for a malformed URL")
	}
}

func TestRunScreenshotFailureCompensation(t *testing.T) {
	f := newFixture()
	f.shots.err = errors.New("screenshot generation failed: frame 2")

	_, err := f.pipeline.Run(context.Background(), "https://www.youtube.com/watch?v=abc123", 3)
	if err == nil {
		t.Fatal("expected screenshot failure to propagate")
	}

	project := f.projects.only(t)
	if project.Status != models.StatusError {
		t.Errorf("project status = %s, want error", project.Status)
	}
	if project.ErrorMessage == nil || *project.ErrorMessage == "" {
		t.Error("project error_message must be non-empty")
	}

	// A video row existed by the time the stage failed, so an error log
	// entry must be appended.
	last := f.logs.entries[len(f.logs.entries)-1]
	if last.status != "error" || last.message == "" {
		t.Errorf("last log entry = %+v, want error with message", last)
	}
}

func TestRunMetadataFailureLeavesNoRecords(t *testing.T) {
	f := newFixture()
	f.meta.info = nil
	f.meta.err = metadata.ErrVideoPrivate

	_, err := f.pipeline.Run(context.Background(), "https://www.youtube.com/watch?v=abc123", 3)
	if !errors.Is(err, metadata.ErrVideoPrivate) {
		t.Fatalf("expected ErrVideoPrivate, got %v", err)
	}
	if len(f.projects.projects) != 0 || len(f.videos.byYTID) != 0 {
		t.Error("no records should exist after a metadata failure")
	}
}

func TestRunIdempotentVideoRecord(t *testing.T) {
	f := newFixture()

	for i := 0; i < 2; i++ {
		if _, err := f.pipeline.Run(context.Background(), "https://www.youtube.com/watch?v=abc123", 1); err != nil {
			t.Fatalf("run %d: %v", i+1, err)
		}
	}

	if len(f.videos.byYTID) != 1 {
		t.Errorf("expected exactly one video row for abc123, got %d", len(f.videos.byYTID))
	}
	// Each request creates its own project record.
	if len(f.projects.projects) != 2 {
		t.Errorf("expected 2 project rows, got %d", len(f.projects.projects))
	}
}

func TestTerminalProjectNotRetransitioned(t *testing.T) {
	f := newFixture()
	f.tr.err = errors.New("transcription or translation failed")

	_, err := f.pipeline.Run(context.Background(), "https://www.youtube.com/watch?v=abc123", 1)
	if err == nil {
		t.Fatal("expected transcriber failure")
	}

	project := f.projects.only(t)
	if project.Status != models.StatusError {
		t.Fatalf("project status = %s, want error", project.Status)
	}

	// Once terminal, further transitions are refused by the store.
	if err := f.projects.UpdateStatus(context.Background(), project.ID, models.StatusProcessing, nil); err == nil {
		t.Error("terminal project must not be re-transitioned")
	}
	if project.Status != models.StatusError {
		t.Errorf("project status changed to %s after refusal", project.Status)
	}
}

func TestInvalidStatusRejectedBeforeWrite(t *testing.T) {
	store := newFakeProjectStore()
	p, err := store.Create(context.Background(), "https://www.youtube.com/watch?v=abc123", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.UpdateStatus(context.Background(), p.ID, models.Status("done"), nil); err == nil {
		t.Fatal("invalid status must be rejected")
	}
	if p.Status != models.StatusPending {
		t.Errorf("status mutated to %s despite rejection", p.Status)
	}
}

func TestLogWriteFailuresAreSwallowed(t *testing.T) {
	f := newFixture()
	f.logs.err = errors.New("log table on fire")

	result, err := f.pipeline.Run(context.Background(), "https://www.youtube.com/watch?v=abc123", 1)
	if err != nil {
		t.Fatalf("log write failures must not fail the run: %v", err)
	}
	if !result.Success {
		t.Error("expected success despite log failures")
	}
}

func TestRunDownloadFailureCompensation(t *testing.T) {
	f := newFixture()
	f.dl.err = errors.New("video download failed: network")

	_, err := f.pipeline.Run(context.Background(), "https://www.youtube.com/watch?v=abc123", 3)
	if err == nil {
		t.Fatal("expected download failure to propagate")
	}
	project := f.projects.only(t)
	if project.Status != models.StatusError {
		t.Errorf("project status = %s, want error", project.Status)
	}
}
