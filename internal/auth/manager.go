// Package auth validates stored tokens and drives the device-code
// authorization flow against the workflow auth endpoints.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tubenote/tubenote/internal/config"
	"github.com/tubenote/tubenote/internal/fsm"
	"github.com/tubenote/tubenote/internal/transcript"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultMaxAttempts  = 60

	// validationVideoURL is the fixed, known-safe input used by the dry-run
	// validation call.
	validationVideoURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
)

var (
	// ErrDeviceFlowTimeout marks attempt-budget exhaustion without a decision.
	ErrDeviceFlowTimeout = errors.New("device authorization timed out")
	// ErrAuthorizationDenied marks an explicit denial from the auth endpoint.
	ErrAuthorizationDenied = errors.New("device authorization denied")
	// ErrFlowAborted marks a local cancel between poll attempts.
	ErrFlowAborted = errors.New("device authorization cancelled")
)

// Manager owns token validation and the device-code flow. ValidateToken never
// returns an error; flow methods do.
type Manager struct {
	settings config.Settings
	store    *config.Store
	httpc    *http.Client
	logger   *slog.Logger
	notify   func(string)

	mu      sync.Mutex
	state   fsm.State
	aborted bool

	validateWG sync.WaitGroup

	pollInterval time.Duration
	maxAttempts  int
}

// NewManager constructs an auth manager. notify receives user-visible status
// text and may be nil; store receives installed tokens and may be nil.
func NewManager(settings config.Settings, store *config.Store, logger *slog.Logger, notify func(string)) *Manager {
	timeout := time.Duration(settings.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Manager{
		settings:     settings,
		store:        store,
		httpc:        &http.Client{Timeout: timeout},
		logger:       logger,
		notify:       notify,
		state:        fsm.StateIdle,
		pollInterval: defaultPollInterval,
		maxAttempts:  defaultMaxAttempts,
	}
}

// State returns the current flow state snapshot.
func (m *Manager) State() fsm.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Abort requests flow cancellation; it is honored between poll attempts.
func (m *Manager) Abort() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aborted = true
}

// Wait blocks until background validation reporting has finished.
func (m *Manager) Wait() {
	m.validateWG.Wait()
}

// ValidateToken performs a lightweight dry-run call against the endpoint.
// True iff the call succeeds with status 200 and no error field; any
// transport or parse failure yields false.
func (m *Manager) ValidateToken(ctx context.Context, token string) bool {
	payload := map[string]any{
		"video_url":       validationVideoURL,
		"validation_only": true,
		"token":           token,
		"source":          "tubenote",
	}

	status, body, err := m.post(ctx, m.settings.Endpoint, payload)
	if err != nil {
		m.logDebug("token validation call failed", err)
		return false
	}
	if status != http.StatusOK {
		return false
	}

	parsed, err := transcript.ParseBody(body)
	if err != nil {
		m.logDebug("token validation parse failed", err)
		return false
	}
	if errText, ok := parsed["error"].(string); ok && strings.TrimSpace(errText) != "" {
		return false
	}
	return true
}

// HandleCallback processes the auth redirect parameters: a direct token is
// installed immediately and validated in the background; a device code is
// handed to the poll phase.
func (m *Manager) HandleCallback(ctx context.Context, token, code string) error {
	switch {
	case strings.TrimSpace(token) != "":
		return m.installDirect(ctx, strings.TrimSpace(token))
	case strings.TrimSpace(code) != "":
		polled, err := m.PollForToken(ctx, strings.TrimSpace(code))
		if err != nil {
			return err
		}
		return m.install(polled)
	default:
		return errors.New("callback carried neither token nor code")
	}
}

// installDirect stores the token now and reports validation asynchronously.
func (m *Manager) installDirect(ctx context.Context, token string) error {
	if err := m.install(token); err != nil {
		return err
	}

	m.validateWG.Add(1)
	go func() {
		defer m.validateWG.Done()
		if m.ValidateToken(ctx, token) {
			m.notifyText("✅ Signed in. Token verified.")
			return
		}
		m.notifyText("⚠️ Token installed but could not be verified.")
	}()
	return nil
}

// install persists the token through the settings store.
func (m *Manager) install(token string) error {
	if m.store == nil {
		return errors.New("no settings store configured")
	}
	if _, err := m.store.Update(func(s *config.Settings) { s.Token = token }); err != nil {
		return fmt.Errorf("install token: %w", err)
	}
	m.settings.Token = token
	return nil
}

// transition applies one flow event to the manager state.
func (m *Manager) transition(event fsm.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := fsm.Transition(m.state, event)
	if err != nil {
		return err
	}
	m.state = next
	return nil
}

// post issues one JSON POST and returns status plus raw body.
func (m *Manager) post(ctx context.Context, endpoint string, payload any) (int, string, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return 0, "", fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return 0, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpc.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("call %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, string(body), nil
}

func (m *Manager) isAborted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.aborted
}

func (m *Manager) notifyText(text string) {
	if m.notify == nil {
		return
	}
	m.notify(text)
}

func (m *Manager) logDebug(message string, err error) {
	if m.logger == nil || err == nil {
		return
	}
	m.logger.Debug(message, "error", err.Error())
}
