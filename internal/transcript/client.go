package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tubenote/tubenote/internal/config"
	"github.com/tubenote/tubenote/internal/version"
)

const (
	// minTokenLen is the structural validity floor for stored tokens.
	minTokenLen = 16
	// lowCreditThreshold triggers the low-balance advisory status.
	lowCreditThreshold = 10
	// rawDumpLen bounds the raw-response dump embedded in empty-content results.
	rawDumpLen = 300
)

// Client owns one end-to-end transcript fetch against the workflow endpoint.
// Fetch never returns an error: every failure is converted into a Result
// carrying the ErrorTitle sentinel.
type Client struct {
	settings config.Settings
	httpc    *http.Client
	logger   *slog.Logger
	notify   func(text string)
}

// NewClient constructs a transcript client. notify receives transient advisory
// status text and may be nil.
func NewClient(settings config.Settings, logger *slog.Logger, notify func(string)) *Client {
	timeout := time.Duration(settings.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		settings: settings,
		httpc:    &http.Client{Timeout: timeout},
		logger:   logger,
		notify:   notify,
	}
}

// Fetch resolves one video URL into normalized note text.
func (c *Client) Fetch(ctx context.Context, videoURL string) Result {
	requestID := uuid.NewString()

	token := strings.TrimSpace(c.settings.Token)
	if token == "" {
		return c.failure(requestID, 0, "no token configured")
	}
	if len(token) < minTokenLen {
		return c.failure(requestID, 0, "token looks too short to be valid")
	}

	req := Request{
		VideoURL:      videoURL,
		Source:        "tubenote",
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Language:      LanguageName(c.settings.Language),
		IncludeTitle:  c.settings.IncludeTitle,
		Token:         token,
		UserAgent:     version.UserAgent(),
		ClientVersion: version.Version,
		RequestID:     requestID,
		CreditsCheck:  c.settings.ShowCredits,
	}

	status, body, err := c.send(ctx, req)
	if err != nil {
		return c.failure(requestID, 0, err.Error())
	}
	if status != http.StatusOK {
		return c.failure(requestID, status, fmt.Sprintf("request failed with status %d", status))
	}

	payload, err := ParseBody(body)
	if err != nil {
		return c.failure(requestID, 0, err.Error())
	}

	c.observeAccount(payload)

	if errText, ok := payload["error"].(string); ok && strings.TrimSpace(errText) != "" {
		return c.failure(requestID, 0, errText)
	}

	title := firstString(payload, titleAliases)
	if title == "" {
		title = "Untitled video"
	}

	content := firstString(payload, contentAliases)
	if content == "" {
		// Degraded success: the caller's non-nil contract holds, the content
		// explains the emptiness instead of signalling failure.
		c.log(slog.LevelWarn, "empty transcript content", requestID, videoURL, "")
		dump := body
		if len(dump) > rawDumpLen {
			dump = dump[:rawDumpLen] + "…"
		}
		return Result{
			Title: title,
			Content: fmt.Sprintf(
				"No transcript content came back from the endpoint.\n\nRaw response (truncated):\n```\n%s\n```\nRequest ID: %s",
				dump, requestID,
			),
		}
	}

	c.log(slog.LevelInfo, "transcript fetched", requestID, videoURL, "")
	return Result{Title: title, Content: content}
}

// send issues the webhook call as a JSON body or query parameters, per the
// configured method.
func (c *Client) send(ctx context.Context, payload Request) (int, string, error) {
	var httpReq *http.Request
	var err error

	if strings.EqualFold(strings.TrimSpace(c.settings.SendMethod), "get") {
		httpReq, err = http.NewRequestWithContext(ctx, http.MethodGet, c.settings.Endpoint, nil)
		if err != nil {
			return 0, "", fmt.Errorf("build request: %w", err)
		}
		query := httpReq.URL.Query()
		for key, value := range payload.queryValues() {
			query[key] = value
		}
		httpReq.URL.RawQuery = query.Encode()
	} else {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(payload); err != nil {
			return 0, "", fmt.Errorf("encode request: %w", err)
		}
		httpReq, err = http.NewRequestWithContext(ctx, http.MethodPost, c.settings.Endpoint, &buf)
		if err != nil {
			return 0, "", fmt.Errorf("build request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return 0, "", fmt.Errorf("call endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, string(body), nil
}

// queryValues renders the request as query parameters for the GET method.
func (r Request) queryValues() url.Values {
	values := url.Values{}
	values.Set("video_url", r.VideoURL)
	values.Set("source", r.Source)
	values.Set("timestamp", r.Timestamp)
	values.Set("language", r.Language)
	values.Set("include_title", strconv.FormatBool(r.IncludeTitle))
	values.Set("token", r.Token)
	values.Set("user_agent", r.UserAgent)
	values.Set("plugin_version", r.ClientVersion)
	values.Set("request_id", r.RequestID)
	values.Set("credits_check", strconv.FormatBool(r.CreditsCheck))
	return values
}

// failure classifies a raw failure and wraps it into a sentinel-titled result.
func (c *Client) failure(requestID string, status int, raw string) Result {
	classified := Classify(status, raw)
	c.log(slog.LevelError, "transcript fetch failed", requestID, "", raw)

	if classified.AuthOrBilling() && c.notify != nil {
		c.notify(classified.Message)
	}

	content := classified.Message
	if classified.Kind != KindUnknown {
		content += "\n\nDetails: " + raw
	}
	content += "\nRequest ID: " + requestID

	return Result{Title: ErrorTitle, Content: content}
}

// observeAccount surfaces advisory credit information independently of the
// fetch outcome.
func (c *Client) observeAccount(payload map[string]any) {
	info, ok := decodeAccountInfo(payload)
	if !ok || info.CreditsRemaining == nil {
		return
	}

	credits := *info.CreditsRemaining
	switch {
	case credits < lowCreditThreshold:
		c.notifyText(fmt.Sprintf("💳 Low credits: %g remaining", credits))
	case c.settings.ShowCredits:
		c.notifyText(fmt.Sprintf("✅ Credits remaining: %g", credits))
	}
}

// decodeAccountInfo extracts the optional user_info block from a response.
func decodeAccountInfo(payload map[string]any) (AccountInfo, bool) {
	raw, ok := payload["user_info"]
	if !ok {
		return AccountInfo{}, false
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return AccountInfo{}, false
	}
	var info AccountInfo
	if err := json.Unmarshal(encoded, &info); err != nil {
		return AccountInfo{}, false
	}
	return info, true
}

func (c *Client) notifyText(text string) {
	if c.notify == nil {
		return
	}
	c.notify(text)
}

func (c *Client) log(level slog.Level, message, requestID, videoURL, rawErr string) {
	if c.logger == nil {
		return
	}
	fields := []any{"request_id", requestID}
	if videoURL != "" {
		fields = append(fields, "video_url", videoURL)
	}
	if rawErr != "" {
		fields = append(fields, "error", rawErr)
	}
	c.logger.Log(context.Background(), level, message, fields...)
}
