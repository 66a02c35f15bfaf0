package transcript

import "strings"

// languageNames maps configured language codes to the display names the
// workflow prompt expects. Unknown codes pass through unchanged.
var languageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"nl": "Dutch",
	"pl": "Polish",
	"sv": "Swedish",
	"ru": "Russian",
	"uk": "Ukrainian",
	"ja": "Japanese",
	"ko": "Korean",
	"zh": "Chinese",
	"ar": "Arabic",
	"hi": "Hindi",
	"tr": "Turkish",
}

// LanguageName resolves a language code to its display name.
func LanguageName(code string) string {
	if name, ok := languageNames[strings.ToLower(strings.TrimSpace(code))]; ok {
		return name
	}
	return code
}
