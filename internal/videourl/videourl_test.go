package videourl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsValidAcceptsCanonicalForms(t *testing.T) {
	valid := []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtube.com/watch?v=dQw4w9WgXcQ",
		"http://youtube.com/watch?v=dQw4w9WgXcQ",
		"youtube.com/watch?v=dQw4w9WgXcQ",
		"www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ",
		"youtu.be/dQw4w9WgXcQ?t=5",
		"https://www.youtube.com/live/dQw4w9WgXcQ",
		"https://www.youtube.com/embed/dQw4w9WgXcQ",
		"https://www.youtube.com/shorts/dQw4w9WgXcQ",
		"  https://youtu.be/dQw4w9WgXcQ  ",
	}
	for _, candidate := range valid {
		require.True(t, IsValid(candidate), "expected valid: %q", candidate)
	}
}

func TestIsValidRejectsNonVideoInput(t *testing.T) {
	invalid := []string{
		"",
		"not a url",
		"https://vimeo.com/123456",
		"https://www.youtube.com/watch?v=short",
		"check this https://youtu.be/dQw4w9WgXcQ",
		"https://www.youtube.com/playlist?list=PL123",
	}
	for _, candidate := range invalid {
		require.False(t, IsValid(candidate), "expected invalid: %q", candidate)
	}
}

func TestIsValidRejectsOversizedInput(t *testing.T) {
	oversized := "https://youtu.be/dQw4w9WgXcQ?" + strings.Repeat("a", maxValidateLen)
	require.False(t, IsValid(oversized))
}

func TestExtractFindsURLInsideText(t *testing.T) {
	url, ok := Extract("check this out: https://youtu.be/dQw4w9WgXcQ?t=5")
	require.True(t, ok)
	require.Equal(t, "https://youtu.be/dQw4w9WgXcQ?t=5", url)
}

func TestExtractNormalizesProtocolLessMatch(t *testing.T) {
	url, ok := Extract("youtube.com/watch?v=dQw4w9WgXcQ")
	require.True(t, ok)
	require.Equal(t, "https://youtube.com/watch?v=dQw4w9WgXcQ", url)
}

func TestExtractReturnsFirstMatch(t *testing.T) {
	text := "first https://youtu.be/dQw4w9WgXcQ then https://youtu.be/aaaaaaaaaaa"
	url, ok := Extract(text)
	require.True(t, ok)
	require.Equal(t, "https://youtu.be/dQw4w9WgXcQ", url)
}

func TestExtractRejectsOversizedInput(t *testing.T) {
	text := strings.Repeat("x", maxScanLen) + " https://youtu.be/dQw4w9WgXcQ"
	_, ok := Extract(text)
	require.False(t, ok)
}

func TestExtractRejectsTextWithoutURL(t *testing.T) {
	_, ok := Extract("nothing to see here")
	require.False(t, ok)
}

func TestExtractStopsAtWhitespace(t *testing.T) {
	url, ok := Extract("see https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=10s for details")
	require.True(t, ok)
	require.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=10s", url)
}
