// Package doctor runs readiness diagnostics for settings, endpoint, token,
// notes file, and tooling.
package doctor

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/tubenote/tubenote/internal/config"
)

const minTokenLength = 16

// TokenValidator performs a live dry-run validation of a token.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) bool
}

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes settings/endpoint/token/notes/tooling checks for loaded
// settings. validator may be nil to skip the live token check.
func Run(ctx context.Context, loaded config.Loaded, validator TokenValidator) Report {
	checks := []Check{checkSettings(loaded)}

	checks = append(checks, checkEndpoint("endpoint", loaded.Settings.Endpoint))
	checks = append(checks, checkEndpoint("auth_poll_endpoint", loaded.Settings.AuthPollEndpoint))
	checks = append(checks, checkToken(ctx, loaded.Settings.Token, validator))
	checks = append(checks, checkNotesFile(loaded.Settings.NotesFile))

	argv, err := loaded.Settings.ClipboardArgv()
	if err != nil {
		checks = append(checks, Check{Name: "clipboard_cmd", Pass: false, Message: fmt.Sprintf("invalid command: %v", err)})
	} else {
		checks = append(checks, checkCommand(argv, "clipboard_cmd"))
	}

	return Report{Checks: checks}
}

// checkSettings reports where settings came from plus any load warnings.
func checkSettings(loaded config.Loaded) Check {
	message := fmt.Sprintf("loaded %q", loaded.Path)
	if !loaded.Exists {
		message = fmt.Sprintf("using defaults (%q not found)", loaded.Path)
	}
	if len(loaded.Warnings) > 0 {
		notes := make([]string, 0, len(loaded.Warnings))
		for _, w := range loaded.Warnings {
			notes = append(notes, w.Message)
		}
		return Check{Name: "settings", Pass: false, Message: message + "; " + strings.Join(notes, "; ")}
	}
	return Check{Name: "settings", Pass: true, Message: message}
}

// checkEndpoint validates that an endpoint is an absolute http(s) URL.
func checkEndpoint(name, raw string) Check {
	if strings.TrimSpace(raw) == "" {
		return Check{Name: name, Pass: false, Message: "endpoint is empty"}
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("not an http(s) URL: %q", raw)}
	}
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("%s://%s reachable by shape", parsed.Scheme, parsed.Host)}
}

// checkToken applies the structural rule first, then the optional live probe.
func checkToken(ctx context.Context, token string, validator TokenValidator) Check {
	if strings.TrimSpace(token) == "" {
		return Check{Name: "token", Pass: false, Message: "no token configured; run tubenote auth"}
	}
	if len(token) < minTokenLength {
		return Check{Name: "token", Pass: false, Message: "token looks too short to be valid"}
	}
	if validator == nil {
		return Check{Name: "token", Pass: true, Message: "structurally valid (live check skipped)"}
	}
	if !validator.ValidateToken(ctx, token) {
		return Check{Name: "token", Pass: false, Message: "endpoint rejected the token"}
	}
	return Check{Name: "token", Pass: true, Message: "verified against the endpoint"}
}

// checkNotesFile validates that the notes destination is writable.
func checkNotesFile(path string) Check {
	if path == "" {
		return Check{Name: "notes_file", Pass: true, Message: "not set; notes go to stdout"}
	}

	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return Check{Name: "notes_file", Pass: false, Message: fmt.Sprintf("notes dir missing: %s", dir)}
	}
	if !info.IsDir() {
		return Check{Name: "notes_file", Pass: false, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	probe := filepath.Join(dir, ".tubenote-doctor")
	f, err := os.OpenFile(probe, os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return Check{Name: "notes_file", Pass: false, Message: fmt.Sprintf("notes dir not writable: %s", dir)}
	}
	_ = f.Close()
	_ = os.Remove(probe)

	return Check{Name: "notes_file", Pass: true, Message: fmt.Sprintf("writable at %s", path)}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}
