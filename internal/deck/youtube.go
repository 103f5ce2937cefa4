package deck

import (
	"fmt"
	"regexp"
	"strings"
)

// youtubeIDRegex matches watch, embed, v/, shorts-style and youtu.be links.
var youtubeIDRegex = regexp.MustCompile(`(?:https?://)?(?:www\.|m\.)?(?:youtube\.com/(?:[^/\n\s]+/\S+/|(?:v|e(?:mbed)?|shorts)/|\S*?[?&]v=)|youtu\.be/)([a-zA-Z0-9_-]{11})`)

// bareIDRegex matches an already extracted id.
var bareIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

// ExtractYouTubeID returns the 11-character video id from a YouTube URL
// or a bare id.
func ExtractYouTubeID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if bareIDRegex.MatchString(s) {
		return s, true
	}
	m := youtubeIDRegex.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// YouTubeThumbnailURLs returns thumbnail URLs for id, highest resolution first.
func YouTubeThumbnailURLs(id string) []string {
	return []string{
		fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", id),
		fmt.Sprintf("https://img.youtube.com/vi/%s/hqdefault.jpg", id),
		fmt.Sprintf("https://img.youtube.com/vi/%s/0.jpg", id),
	}
}

// YouTubePreviewURL is the thumbnail shown by the editor.
func YouTubePreviewURL(id string) string {
	return fmt.Sprintf("https://img.youtube.com/vi/%s/0.jpg", id)
}

// YouTubeWatchURL is the canonical watch link for id.
func YouTubeWatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}
