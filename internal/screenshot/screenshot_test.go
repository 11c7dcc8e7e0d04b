package screenshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"testing"
)

func TestTimestamps(t *testing.T) {
	tests := []struct {
		duration int
		n        int
		want     []int
	}{
		{42, 2, []int{14, 28}},
		{120, 3, []int{30, 60, 90}},
		{90, 1, []int{45}},
		{10, 4, []int{2, 4, 6, 8}},
		{60, 0, []int{}},
	}
	for _, tt := range tests {
		got := Timestamps(tt.duration, tt.n)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Timestamps(%d, %d) = %v, want %v", tt.duration, tt.n, got, tt.want)
		}
	}
}

type fakeUploader struct {
	uploads []string
	failAt  int // fail on the n-th call (1-based); 0 = never
}

func (f *fakeUploader) UploadFile(_ context.Context, localPath, contentType string) (string, error) {
	if contentType != "image/jpeg" {
		return "", fmt.Errorf("unexpected content type %s", contentType)
	}
	if f.failAt > 0 && len(f.uploads)+1 == f.failAt {
		return "", errors.New("upload refused")
	}
	f.uploads = append(f.uploads, localPath)
	return fmt.Sprintf("https://store.example/frame-%d.jpg", len(f.uploads)), nil
}

func newTestService(t *testing.T, up Uploader) *Service {
	t.Helper()
	svc, err := NewService(t.TempDir(), up, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	svc.extractFrame = func(_ context.Context, _ string, _ int, outPath string) error {
		return os.WriteFile(outPath, []byte("jpeg"), 0o600)
	}
	return svc
}

func TestGenerateCountAndOrder(t *testing.T) {
	up := &fakeUploader{}
	svc := newTestService(t, up)

	urls, err := svc.Generate(context.Background(), "/tmp/video.mp4", 42, 3)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(urls) != 3 {
		t.Fatalf("expected 3 URLs, got %d", len(urls))
	}
	for i, url := range urls {
		want := fmt.Sprintf("https://store.example/frame-%d.jpg", i+1)
		if url != want {
			t.Errorf("urls[%d] = %s, want %s (timestamp order)", i, url, want)
		}
	}
	// Frame files are removed after upload.
	for _, path := range up.uploads {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("frame file %s should have been removed", path)
		}
	}
}

func TestGenerateAbortsOnUploadFailure(t *testing.T) {
	up := &fakeUploader{failAt: 2}
	svc := newTestService(t, up)

	_, err := svc.Generate(context.Background(), "/tmp/video.mp4", 90, 3)
	if err == nil {
		t.Fatal("expected error on second upload")
	}
	if len(up.uploads) != 1 {
		t.Errorf("expected exactly 1 completed upload before abort, got %d", len(up.uploads))
	}
}

func TestGenerateAbortsOnExtractFailure(t *testing.T) {
	up := &fakeUploader{}
	svc := newTestService(t, up)
	svc.extractFrame = func(context.Context, string, int, string) error {
		return errors.New("ffmpeg exploded")
	}

	_, err := svc.Generate(context.Background(), "/tmp/video.mp4", 60, 2)
	if err == nil {
		t.Fatal("expected extract error to propagate")
	}
	if len(up.uploads) != 0 {
		t.Errorf("no uploads expected, got %d", len(up.uploads))
	}
}
