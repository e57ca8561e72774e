package fingerprint

import "regexp"

// Matches watch URLs, short youtu.be links and embed URLs. Video IDs are
// always exactly 11 characters of [A-Za-z0-9_-].
var youtubeIDRe = regexp.MustCompile(`(?:v=|youtu\.be/|embed/)([A-Za-z0-9_-]{11})`)

// ExtractVideoID pulls the canonical 11-character video ID out of any common
// YouTube URL shape. Returns "" when the URL carries no recognizable ID.
func ExtractVideoID(rawURL string) string {
	m := youtubeIDRe.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return m[1]
}
