package transcript

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// excerptLen bounds diagnostic body excerpts carried inside failure messages.
const excerptLen = 100

var (
	titleTag      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	h1Tag         = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)
	bodyTag       = regexp.MustCompile(`(?is)<body[^>]*>(.*?)</body>`)
	anyTag        = regexp.MustCompile(`<[^>]*>`)
	runWhitespace = regexp.MustCompile(`\s+`)
)

// ParseBody turns a raw 200-status response body into a decoded JSON object.
// Bodies that are not JSON objects come back as errors whose message carries a
// classification marker plus a diagnostic excerpt.
func ParseBody(body string) (map[string]any, error) {
	trimmed := strings.TrimSpace(body)

	if strings.HasPrefix(trimmed, "{") {
		var payload map[string]any
		if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
			return nil, fmt.Errorf("invalid JSON response from endpoint: %s", excerpt(trimmed))
		}
		return payload, nil
	}

	if isHTML(trimmed) {
		return nil, fmt.Errorf("HTML error page from endpoint: %s", htmlErrorTitle(trimmed))
	}

	return nil, fmt.Errorf("non-JSON response from endpoint: %s", excerpt(trimmed))
}

// isHTML detects upstream error pages served in place of JSON.
func isHTML(body string) bool {
	lowered := strings.ToLower(body)
	return strings.Contains(lowered, "<html") || strings.Contains(lowered, "<!doctype")
}

// htmlErrorTitle extracts a human-readable title from an HTML error page,
// preferring <title>, then <h1>, then <body> text.
func htmlErrorTitle(body string) string {
	for _, re := range []*regexp.Regexp{titleTag, h1Tag, bodyTag} {
		match := re.FindStringSubmatch(body)
		if match == nil {
			continue
		}
		text := strings.TrimSpace(anyTag.ReplaceAllString(match[1], " "))
		text = runWhitespace.ReplaceAllString(text, " ")
		if text != "" {
			return excerpt(text)
		}
	}
	return "upstream error page"
}

// excerpt truncates diagnostic text to a bounded length.
func excerpt(text string) string {
	if len(text) <= excerptLen {
		return text
	}
	return text[:excerptLen] + "…"
}
