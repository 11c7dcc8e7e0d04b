package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultAPIBaseURL = "https://www.googleapis.com/youtube/v3"

// APIProvider resolves metadata through the YouTube Data API v3.
type APIProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewAPIProvider creates a YouTube Data API metadata provider.
func NewAPIProvider(apiKey string, logger *zap.Logger) *APIProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIProvider{
		apiKey:  apiKey,
		baseURL: defaultAPIBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

// apiVideoList mirrors the videos.list response fields we consume.
type apiVideoList struct {
	Items []struct {
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
			Description  string `json:"description"`
			Thumbnails   struct {
				High struct {
					URL string `json:"url"`
				} `json:"high"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"` // ISO 8601, e.g. PT2M30S
		} `json:"contentDetails"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// Fetch resolves URL to video metadata via videos.list.
func (p *APIProvider) Fetch(ctx context.Context, rawURL string) (*VideoInfo, error) {
	videoID, err := ExtractVideoID(rawURL)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/videos?part=snippet,contentDetails,statistics&id=%s&key=%s",
		p.baseURL, url.QueryEscape(videoID), url.QueryEscape(p.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("youtube api request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube api status: %d", resp.StatusCode)
	}

	var list apiVideoList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decode youtube api response: %w", err)
	}
	if len(list.Items) == 0 {
		return nil, ErrVideoNotFound
	}

	item := list.Items[0]
	duration, err := ParseISO8601Duration(item.ContentDetails.Duration)
	if err != nil {
		return nil, fmt.Errorf("parse video duration: %w", err)
	}
	viewCount, _ := strconv.ParseInt(item.Statistics.ViewCount, 10, 64)

	return &VideoInfo{
		ID:           videoID,
		Title:        item.Snippet.Title,
		Channel:      item.Snippet.ChannelTitle,
		Duration:     duration,
		ThumbnailURL: item.Snippet.Thumbnails.High.URL,
		ViewCount:    viewCount,
		Description:  item.Snippet.Description,
	}, nil
}

// ExtractVideoID pulls the video ID out of the common YouTube URL shapes
// (watch?v=, youtu.be/, shorts/, embed/).
func ExtractVideoID(rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	host := strings.TrimPrefix(parsed.Hostname(), "www.")
	switch host {
	case "youtu.be":
		if id := strings.Trim(parsed.Path, "/"); id != "" {
			return id, nil
		}
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		if id := parsed.Query().Get("v"); id != "" {
			return id, nil
		}
		for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
			if strings.HasPrefix(parsed.Path, prefix) {
				if id := strings.Trim(strings.TrimPrefix(parsed.Path, prefix), "/"); id != "" {
					return id, nil
				}
			}
		}
	}
	return "", fmt.Errorf("could not extract video ID from URL: %s", rawURL)
}

// ParseISO8601Duration converts an ISO 8601 duration (PT#H#M#S) to seconds.
func ParseISO8601Duration(s string) (int, error) {
	if !strings.HasPrefix(s, "PT") {
		return 0, fmt.Errorf("unsupported duration format: %q", s)
	}
	total := 0
	num := 0
	hasDigits := false
	for _, r := range s[2:] {
		switch {
		case r >= '0' && r <= '9':
			num = num*10 + int(r-'0')
			hasDigits = true
		case r == 'H':
			total += num * 3600
			num = 0
			hasDigits = false
		case r == 'M':
			total += num * 60
			num = 0
			hasDigits = false
		case r == 'S':
			total += num
			num = 0
			hasDigits = false
		default:
			return 0, fmt.Errorf("unsupported duration format: %q", s)
		}
	}
	if hasDigits {
		return 0, fmt.Errorf("unsupported duration format: %q", s)
	}
	return total, nil
}
