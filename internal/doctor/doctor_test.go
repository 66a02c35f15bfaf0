package doctor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tubenote/tubenote/internal/config"
)

type stubValidator struct {
	ok     bool
	called bool
}

func (s *stubValidator) ValidateToken(context.Context, string) bool {
	s.called = true
	return s.ok
}

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "one", Pass: true, Message: "good"},
		{Name: "two", Pass: false, Message: "bad"},
	}}

	require.False(t, report.OK())
	text := report.String()
	require.Contains(t, text, "[OK] one: good")
	require.Contains(t, text, "[FAIL] two: bad")
}

func TestCheckSettingsReportsWarnings(t *testing.T) {
	loaded := config.Loaded{
		Path:     "/tmp/settings.json",
		Exists:   true,
		Warnings: []config.Warning{{Message: "send_method must be post or get"}},
	}

	check := checkSettings(loaded)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "send_method must be post or get")
}

func TestCheckSettingsDefaultsWhenMissing(t *testing.T) {
	check := checkSettings(config.Loaded{Path: "/tmp/settings.json"})
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "using defaults")
}

func TestCheckEndpoint(t *testing.T) {
	require.True(t, checkEndpoint("endpoint", "https://workflows.tubenote.app/webhook/transcript").Pass)
	require.False(t, checkEndpoint("endpoint", "").Pass)
	require.False(t, checkEndpoint("endpoint", "ftp://example.com").Pass)
	require.False(t, checkEndpoint("endpoint", "not a url").Pass)
}

func TestCheckTokenStructuralRules(t *testing.T) {
	validator := &stubValidator{ok: true}

	check := checkToken(context.Background(), "", validator)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "no token configured")
	require.False(t, validator.called)

	check = checkToken(context.Background(), "short", validator)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "too short")
	require.False(t, validator.called)
}

func TestCheckTokenLiveProbe(t *testing.T) {
	token := "long-enough-token-value"

	accepted := &stubValidator{ok: true}
	check := checkToken(context.Background(), token, accepted)
	require.True(t, check.Pass)
	require.True(t, accepted.called)

	rejected := &stubValidator{ok: false}
	check = checkToken(context.Background(), token, rejected)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "rejected")

	check = checkToken(context.Background(), token, nil)
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "live check skipped")
}

func TestCheckNotesFile(t *testing.T) {
	dir := t.TempDir()

	check := checkNotesFile(filepath.Join(dir, "notes.md"))
	require.True(t, check.Pass)

	check = checkNotesFile(filepath.Join(dir, "missing", "notes.md"))
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "notes dir missing")

	check = checkNotesFile("")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "stdout")
}

func TestCheckCommandEmpty(t *testing.T) {
	check := checkCommand(nil, "clipboard_cmd")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "command is empty")
}

func TestCheckBinaryFound(t *testing.T) {
	check := checkBinary("sh", "shell available")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "shell available")
}

func TestCheckBinaryMissing(t *testing.T) {
	check := checkBinary("definitely-not-a-real-binary", "unused")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "binary not found")
}

func TestCheckCommandUsesBinaryFromPath(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "fake-bin")
	require.NoError(t, os.WriteFile(scriptPath, []byte("#!/bin/sh\nexit 0\n"), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))

	check := checkCommand([]string{"fake-bin", "--no-newline"}, "clipboard_cmd")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "clipboard_cmd command is available")
}

func TestRunProducesAllChecks(t *testing.T) {
	dir := t.TempDir()
	settings := config.Default()
	settings.Token = "long-enough-token-value"
	settings.NotesFile = filepath.Join(dir, "notes.md")

	loaded := config.Loaded{Path: filepath.Join(dir, "settings.json"), Settings: settings, Exists: true}

	report := Run(context.Background(), loaded, &stubValidator{ok: true})
	require.Len(t, report.Checks, 6)
}
