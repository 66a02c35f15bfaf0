package transcript

import "strings"

// The upstream contract evolved without versioning, so both response fields go
// by several historical names. Precedence is declarative: first present wins.
var (
	titleAliases   = []string{"title", "processedTitle", "videoTitle"}
	contentAliases = []string{"content", "processedContent", "transcript", "finalContent"}
)

// firstString returns the first alias whose value is a non-blank string.
func firstString(payload map[string]any, aliases []string) string {
	for _, key := range aliases {
		if value, ok := payload[key].(string); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
