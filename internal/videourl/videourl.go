// Package videourl finds and validates YouTube video URLs inside arbitrary text.
package videourl

import (
	"regexp"
	"strings"
)

const (
	// maxValidateLen bounds worst-case matching cost for whole-string validation.
	maxValidateLen = 2048
	// maxScanLen bounds worst-case matching cost for free-text extraction.
	maxScanLen = 10000
)

// urlBody recognizes the canonical video URL family with an 11-character ID:
// watch?v=, live/, embed/, shorts/, and the youtu.be short-domain form.
const urlBody = `(?:https?://)?(?:www\.)?(?:youtube\.com/(?:watch\?v=|live/|embed/|shorts/)|youtu\.be/)[A-Za-z0-9_-]{11}`

var (
	validPattern = regexp.MustCompile(`^` + urlBody + `(?:[?&/#]\S*)?$`)
	scanPattern  = regexp.MustCompile(urlBody + `[^\s<>"'|\\^{}\[\]]*`)
)

// urlStarts are the only prefixes an extracted substring may begin with.
var urlStarts = []string{"https://", "http://", "www.", "youtube.com", "youtu.be"}

// IsValid reports whether the trimmed candidate is exactly one recognized
// video URL form.
func IsValid(candidate string) bool {
	if len(candidate) > maxValidateLen {
		return false
	}
	return validPattern.MatchString(strings.TrimSpace(candidate))
}

// Extract returns the first video URL found anywhere in text, normalized to an
// explicit https scheme. The second return is false when nothing safe matched.
func Extract(text string) (string, bool) {
	if len(text) > maxScanLen {
		return "", false
	}

	match := scanPattern.FindString(text)
	if match == "" {
		return "", false
	}
	if !hasRecognizedStart(match) {
		return "", false
	}

	if !strings.HasPrefix(match, "http://") && !strings.HasPrefix(match, "https://") {
		match = "https://" + match
	}
	return match, true
}

// hasRecognizedStart rejects matches embedded in a larger token, e.g. a hostile
// domain ending in youtube.com.
func hasRecognizedStart(match string) bool {
	for _, start := range urlStarts {
		if strings.HasPrefix(match, start) {
			return true
		}
	}
	return false
}
