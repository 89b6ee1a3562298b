package artifacts

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	videoIDPattern = regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})`)
	validVideoID   = regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`)
)

// ExtractVideoID accepts a bare 11-character id or a YouTube URL
// (youtu.be, watch?v=, /embed/, /v/) and returns the id, or "" if none is found.
// The result is always a plain 11-character id, safe to use in a file name.
func ExtractVideoID(s string) string {
	s = strings.TrimSpace(s)
	if validVideoID.MatchString(s) {
		return s
	}

	if u, err := url.Parse(s); err == nil {
		switch u.Hostname() {
		case "youtu.be":
			if id := strings.TrimPrefix(u.Path, "/"); validVideoID.MatchString(id) {
				return id
			}
		case "www.youtube.com", "youtube.com":
			switch {
			case u.Path == "/watch":
				if id := u.Query().Get("v"); validVideoID.MatchString(id) {
					return id
				}
			case strings.HasPrefix(u.Path, "/embed/"), strings.HasPrefix(u.Path, "/v/"):
				parts := strings.Split(u.Path, "/")
				if len(parts) > 2 && validVideoID.MatchString(parts[2]) {
					return parts[2]
				}
			}
		}
	}

	if m := videoIDPattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}
