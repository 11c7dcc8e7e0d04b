package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateURL checks that rawURL is a well-formed http(s) URL, and for
// youtube.com URLs that a video ID parameter is present. It performs no
// network I/O; reachability is the metadata provider's problem.
func ValidateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("URL is required")
	}

	rawURL = strings.TrimSpace(rawURL)

	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format")
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL must start with http or https")
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	if strings.Contains(parsed.Host, "youtube.com") && strings.HasPrefix(parsed.Path, "/watch") {
		if parsed.Query().Get("v") == "" {
			return fmt.Errorf("YouTube URL must contain a valid video ID")
		}
	}

	return nil
}
