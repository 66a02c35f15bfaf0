package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tubenote/tubenote/internal/fsm"
)

// DeviceCodeSession is the short-lived pairing state for one authorization
// attempt. It lives only for the duration of polling.
type DeviceCodeSession struct {
	DeviceCode      string
	UserCode        string
	VerificationURL string
	CreatedAt       time.Time
}

type deviceCodeResponse struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURL string `json:"verification_url"`
	Error           string `json:"error"`
}

type pollResponse struct {
	Status string `json:"status"`
	Token  string `json:"token"`
	Error  string `json:"error"`
}

// StartDeviceFlow requests a fresh device/user code pair. On failure the flow
// does not enter the poll phase.
func (m *Manager) StartDeviceFlow(ctx context.Context) (DeviceCodeSession, error) {
	if err := m.transition(fsm.EventBegin); err != nil {
		return DeviceCodeSession{}, err
	}

	status, body, err := m.post(ctx, m.settings.AuthStartEndpoint, map[string]any{"source": "tubenote"})
	if err != nil {
		m.setState(fsm.StateFailed)
		return DeviceCodeSession{}, fmt.Errorf("request device code: %w", err)
	}
	if status != http.StatusOK {
		m.setState(fsm.StateFailed)
		return DeviceCodeSession{}, fmt.Errorf("device code endpoint returned status %d", status)
	}

	var decoded deviceCodeResponse
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		m.setState(fsm.StateFailed)
		return DeviceCodeSession{}, fmt.Errorf("decode device code response: %w", err)
	}
	if decoded.Error != "" {
		m.setState(fsm.StateFailed)
		return DeviceCodeSession{}, fmt.Errorf("device code request rejected: %s", decoded.Error)
	}
	if decoded.DeviceCode == "" || decoded.UserCode == "" || decoded.VerificationURL == "" {
		m.setState(fsm.StateFailed)
		return DeviceCodeSession{}, fmt.Errorf("device code response missing fields")
	}

	if err := m.transition(fsm.EventIssued); err != nil {
		return DeviceCodeSession{}, err
	}

	return DeviceCodeSession{
		DeviceCode:      decoded.DeviceCode,
		UserCode:        decoded.UserCode,
		VerificationURL: decoded.VerificationURL,
		CreatedAt:       time.Now(),
	}, nil
}

// PollForToken polls the auth endpoint until authorization, explicit denial,
// local abort, or attempt-budget exhaustion. Exhaustion is a timeout distinct
// from denial.
func (m *Manager) PollForToken(ctx context.Context, deviceCode string) (string, error) {
	if err := m.ensurePending(); err != nil {
		return "", err
	}

	limiter := rate.NewLimiter(rate.Every(m.pollInterval), 1)
	// Drain the initial burst so every attempt is wait-then-query.
	_ = limiter.Allow()

	var lastErr error
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			m.setState(fsm.StateFailed)
			return "", err
		}
		if m.isAborted() {
			m.setState(fsm.StateFailed)
			return "", ErrFlowAborted
		}

		token, err := m.pollOnce(ctx, deviceCode)
		switch {
		case err == errPollPending:
			continue
		case err == nil:
			if terr := m.transition(fsm.EventAuthorize); terr != nil {
				return "", terr
			}
			m.logInfo("device flow authorized", attempt)
			return token, nil
		case err == ErrAuthorizationDenied:
			m.setState(fsm.StateFailed)
			return "", err
		default:
			// Hard failure for this attempt only; the final attempt propagates.
			lastErr = err
			if attempt == m.maxAttempts {
				m.setState(fsm.StateFailed)
				return "", lastErr
			}
		}
	}

	m.setState(fsm.StateFailed)
	return "", ErrDeviceFlowTimeout
}

// errPollPending is the internal still-waiting signal between attempts.
var errPollPending = fmt.Errorf("authorization pending")

// pollOnce runs one status query. A nil error means authorized.
func (m *Manager) pollOnce(ctx context.Context, deviceCode string) (string, error) {
	status, body, err := m.post(ctx, m.settings.AuthPollEndpoint, map[string]any{
		"device_code": deviceCode,
		"source":      "tubenote",
	})
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("poll endpoint returned status %d", status)
	}

	var decoded pollResponse
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		return "", fmt.Errorf("decode poll response: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(decoded.Status)) {
	case "authorized":
		if decoded.Token == "" {
			return "", fmt.Errorf("authorized response carried no token")
		}
		return decoded.Token, nil
	case "pending":
		return "", errPollPending
	case "denied":
		return "", ErrAuthorizationDenied
	default:
		if decoded.Error != "" {
			return "", fmt.Errorf("authorization failed: %s", decoded.Error)
		}
		return "", fmt.Errorf("unexpected poll status %q", decoded.Status)
	}
}

// ensurePending walks the flow state to pending for callback-supplied codes
// that skipped StartDeviceFlow.
func (m *Manager) ensurePending() error {
	if m.State() == fsm.StatePending {
		return nil
	}
	if err := m.transition(fsm.EventBegin); err != nil {
		return err
	}
	return m.transition(fsm.EventIssued)
}

// setState force-sets a failure state outside normal transitions.
func (m *Manager) setState(state fsm.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
}

func (m *Manager) logInfo(message string, attempt int) {
	if m.logger == nil {
		return
	}
	m.logger.Info(message, "attempt", attempt)
}
