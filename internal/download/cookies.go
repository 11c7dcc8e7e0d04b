package download

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteCookieFile converts a "name=value; name2=value2" cookie blob into a
// Netscape-format cookie file for yt-dlp and returns its path. An empty blob
// returns an empty path and no error. Callers treat failures here as
// best-effort: downloads proceed unauthenticated.
func WriteCookieFile(dir, cookieBlob string) (string, error) {
	if strings.TrimSpace(cookieBlob) == "" {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create cookie dir: %w", err)
	}

	var b strings.Builder
	b.WriteString("# Netscape HTTP Cookie File\n")
	b.WriteString("# https://curl.haxx.se/rfc/cookie_spec.html\n")
	b.WriteString("# This is a generated file!  Do not edit.\n\n")
	for _, cookie := range strings.Split(cookieBlob, ";") {
		cookie = strings.TrimSpace(cookie)
		name, value, ok := strings.Cut(cookie, "=")
		if !ok || name == "" {
			continue
		}
		fmt.Fprintf(&b, ".youtube.com\tTRUE\t/\tTRUE\t2147483647\t%s\t%s\n", name, value)
	}

	path := filepath.Join(dir, "youtube.com_cookies.txt")
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return "", fmt.Errorf("write cookie file: %w", err)
	}
	return path, nil
}
