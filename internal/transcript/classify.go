package transcript

import (
	"fmt"
	"net/http"
	"strings"
)

// Kind is one bucket of the failure taxonomy.
type Kind string

const (
	KindMissingToken        Kind = "missing_token"
	KindMalformedToken      Kind = "malformed_token"
	KindInsufficientCredits Kind = "insufficient_credits"
	KindInvalidToken        Kind = "invalid_or_expired_token"
	KindUpstreamHTML        Kind = "upstream_html_error"
	KindUpstreamNonJSON     Kind = "upstream_non_json"
	KindMalformedJSON       Kind = "malformed_json"
	KindServerError         Kind = "server_error_5xx"
	KindEndpointNotFound    Kind = "endpoint_not_found"
	KindForbidden           Kind = "forbidden"
	KindUnauthorized        Kind = "unauthorized"
	KindPaymentRequired     Kind = "payment_required"
	KindUnknown             Kind = "unknown"
)

// Classification is a classified failure and its canonical user-facing message.
type Classification struct {
	Kind    Kind
	Message string
}

// AuthOrBilling reports whether this failure also warrants a transient
// status-bar notice. Transport noise stays out of the status surface.
func (c Classification) AuthOrBilling() bool {
	switch c.Kind {
	case KindMissingToken, KindMalformedToken, KindInvalidToken,
		KindInsufficientCredits, KindUnauthorized, KindPaymentRequired, KindForbidden:
		return true
	default:
		return false
	}
}

// messageRules map raw failure text to kinds. Order matters: token checks run
// before body-shape and generic status checks.
var messageRules = []struct {
	marker string
	kind   Kind
}{
	{"no token configured", KindMissingToken},
	{"token looks too short", KindMalformedToken},
	{"insufficient credits", KindInsufficientCredits},
	{"invalid token", KindInvalidToken},
	{"expired token", KindInvalidToken},
	{"token expired", KindInvalidToken},
	{"html error page", KindUpstreamHTML},
	{"invalid json response", KindMalformedJSON},
	{"non-json response", KindUpstreamNonJSON},
}

var statusKinds = map[int]Kind{
	http.StatusUnauthorized:    KindUnauthorized,
	http.StatusPaymentRequired: KindPaymentRequired,
	http.StatusForbidden:       KindForbidden,
	http.StatusNotFound:        KindEndpointNotFound,
}

// kindMessages is the canonical message table, one message per kind,
// symbol-prefixed for quick scanning.
var kindMessages = map[Kind]string{
	KindMissingToken:        "🔑 No access token configured. Run `tubenote auth` to sign in.",
	KindMalformedToken:      "🔑 The configured token looks malformed. Sign in again.",
	KindInsufficientCredits: "💳 Out of credits. Top up your plan to keep fetching transcripts.",
	KindInvalidToken:        "🔑 Token invalid or expired. Run `tubenote auth` to sign in again.",
	KindUpstreamHTML:        "❌ The transcript service returned an error page instead of data.",
	KindUpstreamNonJSON:     "❌ The transcript service sent an unexpected non-JSON reply.",
	KindMalformedJSON:       "❌ The transcript service sent a malformed reply.",
	KindServerError:         "❌ The transcript service hit an internal error. Try again in a minute.",
	KindEndpointNotFound:    "❌ Transcript endpoint not found. Check the endpoint URL in settings.",
	KindForbidden:           "⛔ Access denied by the transcript service.",
	KindUnauthorized:        "🔑 Authentication rejected by the transcript service. Sign in again.",
	KindPaymentRequired:     "💳 Payment required before more transcripts can be fetched.",
}

// Classify maps a raw failure signal to its taxonomy bucket. Classification is
// total: unrecognized input falls back to KindUnknown with the original
// message preserved verbatim.
func Classify(status int, raw string) Classification {
	lowered := strings.ToLower(raw)
	for _, rule := range messageRules {
		if strings.Contains(lowered, rule.marker) {
			return Classification{Kind: rule.kind, Message: kindMessages[rule.kind]}
		}
	}

	if kind, ok := statusKinds[status]; ok {
		return Classification{Kind: kind, Message: kindMessages[kind]}
	}
	if status >= 500 {
		return Classification{Kind: KindServerError, Message: kindMessages[KindServerError]}
	}

	return Classification{Kind: KindUnknown, Message: fmt.Sprintf("⚠️ Unexpected error: %s", raw)}
}
