package validation

import "testing"

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://www.youtube.com/watch?v=abc123", false},
		{"https://youtu.be/abc123", false},
		{"https://www.youtube.com/shorts/abc123", false},
		{"http://example.com/path?query=1", false},
		{"not-a-url", true},
		{"", true},
		{"   ", true},
		{"ftp://example.com/video", true},
		{"http://", true},
		{"https://www.youtube.com/watch", true},
		{"https://www.youtube.com/watch?v=", true},
	}

	for _, tt := range tests {
		err := ValidateURL(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
	}
}
