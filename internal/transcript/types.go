// Package transcript implements the webhook fetch pipeline: request
// construction, response parsing, error classification, and result
// normalization against the configured workflow endpoint.
package transcript

// ErrorTitle is the reserved sentinel title marking a failure result. Callers
// branch on this value instead of catching errors.
const ErrorTitle = "Processing Error"

// Request is the outbound webhook payload for one transcript fetch. Immutable
// once built; RequestID is unique per call and used only for traceability.
type Request struct {
	VideoURL      string `json:"video_url"`
	Source        string `json:"source"`
	Timestamp     string `json:"timestamp"`
	Language      string `json:"language"`
	IncludeTitle  bool   `json:"include_title"`
	Token         string `json:"token"`
	UserAgent     string `json:"user_agent"`
	ClientVersion string `json:"plugin_version"`
	RequestID     string `json:"request_id"`
	CreditsCheck  bool   `json:"credits_check"`
}

// Result is the normalized output callers insert into a note.
type Result struct {
	Title   string
	Content string
}

// Failed reports whether this result carries the failure sentinel.
func (r Result) Failed() bool {
	return r.Title == ErrorTitle
}

// AccountInfo is optional advisory account data attached to a success
// response. Absence of any field is valid.
type AccountInfo struct {
	CreditsRemaining *float64 `json:"credits_remaining"`
	PlanType         string   `json:"plan_type"`
	RequestCost      *float64 `json:"request_cost"`
}
