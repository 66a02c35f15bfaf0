// Package config resolves, loads, validates, and persists tubenote settings.
package config

// Settings is the fully materialized runtime configuration used by tubenote.
// Values come from defaults, then the settings file, then the environment.
type Settings struct {
	Endpoint          string `json:"endpoint" env:"TUBENOTE_ENDPOINT"`
	AuthStartEndpoint string `json:"auth_start_endpoint" env:"TUBENOTE_AUTH_START_ENDPOINT"`
	AuthPollEndpoint  string `json:"auth_poll_endpoint" env:"TUBENOTE_AUTH_POLL_ENDPOINT"`
	Token             string `json:"token" env:"TUBENOTE_TOKEN"`
	Language          string `json:"language" env:"TUBENOTE_LANGUAGE"`
	SendMethod        string `json:"send_method" env:"TUBENOTE_SEND_METHOD"`
	IncludeTitle      bool   `json:"include_title"`
	ShowCredits       bool   `json:"show_credits"`
	NotesFile         string `json:"notes_file" env:"TUBENOTE_NOTES_FILE"`
	ClipboardCmd      string `json:"clipboard_cmd"`

	RequestTimeoutSeconds int `json:"request_timeout_seconds"`
	CountdownSeconds      int `json:"countdown_seconds"`

	LogLevel string `json:"log_level" env:"TUBENOTE_LOG_LEVEL"`
}

// ClipboardArgv parses the configured clipboard-read command into argv form.
func (s Settings) ClipboardArgv() ([]string, error) {
	return parseArgv(s.ClipboardCmd)
}

// Warning is a non-fatal load/validation message.
type Warning struct {
	Message string
}
