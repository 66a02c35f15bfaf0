package transcript

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyMessageMarkers(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Kind
	}{
		{name: "missing token", raw: "no token configured", want: KindMissingToken},
		{name: "malformed token", raw: "token looks too short to be valid", want: KindMalformedToken},
		{name: "insufficient credits", raw: "Insufficient credits for this request", want: KindInsufficientCredits},
		{name: "invalid token", raw: "invalid token supplied", want: KindInvalidToken},
		{name: "expired token", raw: "request rejected: token expired", want: KindInvalidToken},
		{name: "html page", raw: "HTML error page from endpoint: Bad Gateway", want: KindUpstreamHTML},
		{name: "malformed json", raw: "invalid JSON response from endpoint: {...", want: KindMalformedJSON},
		{name: "non json", raw: "non-JSON response from endpoint: oops", want: KindUpstreamNonJSON},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			classified := Classify(0, tc.raw)
			require.Equal(t, tc.want, classified.Kind)
			require.Equal(t, kindMessages[tc.want], classified.Message)
		})
	}
}

func TestClassifyStatusCodes(t *testing.T) {
	require.Equal(t, KindUnauthorized, Classify(401, "request failed with status 401").Kind)
	require.Equal(t, KindPaymentRequired, Classify(402, "request failed with status 402").Kind)
	require.Equal(t, KindForbidden, Classify(403, "request failed with status 403").Kind)
	require.Equal(t, KindEndpointNotFound, Classify(404, "request failed with status 404").Kind)
	require.Equal(t, KindServerError, Classify(500, "request failed with status 500").Kind)
	require.Equal(t, KindServerError, Classify(503, "request failed with status 503").Kind)
}

func TestClassifyTokenRulesWinOverStatus(t *testing.T) {
	classified := Classify(401, "invalid token supplied")
	require.Equal(t, KindInvalidToken, classified.Kind)
}

func TestClassifyUnknownPreservesMessageVerbatim(t *testing.T) {
	classified := Classify(0, "connection reset by peer")
	require.Equal(t, KindUnknown, classified.Kind)
	require.Contains(t, classified.Message, "connection reset by peer")
}

func TestClassifyEveryKindHasOneCanonicalMessage(t *testing.T) {
	kinds := []Kind{
		KindMissingToken, KindMalformedToken, KindInsufficientCredits,
		KindInvalidToken, KindUpstreamHTML, KindUpstreamNonJSON,
		KindMalformedJSON, KindServerError, KindEndpointNotFound,
		KindForbidden, KindUnauthorized, KindPaymentRequired,
	}
	seen := map[string]Kind{}
	for _, kind := range kinds {
		message, ok := kindMessages[kind]
		require.True(t, ok, "kind %s has no message", kind)
		require.NotEmpty(t, message)
		previous, dup := seen[message]
		require.False(t, dup, "kinds %s and %s share a message", previous, kind)
		seen[message] = kind
	}
}

func TestAuthOrBillingSubset(t *testing.T) {
	require.True(t, Classification{Kind: KindMissingToken}.AuthOrBilling())
	require.True(t, Classification{Kind: KindInsufficientCredits}.AuthOrBilling())
	require.True(t, Classification{Kind: KindUnauthorized}.AuthOrBilling())
	require.False(t, Classification{Kind: KindServerError}.AuthOrBilling())
	require.False(t, Classification{Kind: KindUpstreamHTML}.AuthOrBilling())
	require.False(t, Classification{Kind: KindUnknown}.AuthOrBilling())
}
