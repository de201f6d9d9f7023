// Package youtube validates YouTube links and builds the embed and thumbnail
// URLs derived from a video ID.
package youtube

import (
	"fmt"
	"regexp"
	"strings"
)

// The v parameter may follow other query parameters, and the ID must end at
// a query, fragment or the end of the link.
var (
	validURL  = regexp.MustCompile(`^(https?://)?((www|m)\.)?(youtube\.com/watch\?([^#]*&)?v=|youtu\.be/)([a-zA-Z0-9_-]{11})([?&#].*)?$`)
	idPattern = regexp.MustCompile(`(?:youtube\.com/watch\?(?:[^#]*&)?v=|youtu\.be/)([a-zA-Z0-9_-]{11})(?:[?&#]|$)`)
)

// Thumbnail qualities served by i.ytimg.com.
const (
	QualityMax     = "maxresdefault"
	QualityHigh    = "hqdefault"
	QualityMedium  = "mqdefault"
	QualityStd     = "sddefault"
	QualityDefault = "default"
)

func IsValidURL(raw string) bool {
	return validURL.MatchString(strings.TrimSpace(raw))
}

// ExtractVideoID returns the 11 character video ID, or "" when the input does
// not contain one.
func ExtractVideoID(raw string) string {
	m := idPattern.FindStringSubmatch(raw)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func EmbedURL(videoID string) string {
	return "https://www.youtube.com/embed/" + videoID
}

func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

func ThumbnailURL(videoID, quality string) string {
	switch quality {
	case QualityMax, QualityHigh, QualityMedium, QualityStd, QualityDefault:
	default:
		quality = QualityHigh
	}
	return fmt.Sprintf("https://i.ytimg.com/vi/%s/%s.jpg", videoID, quality)
}
