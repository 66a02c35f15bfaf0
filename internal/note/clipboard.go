package note

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ReadClipboard runs the configured clipboard command and returns its
// trimmed output. Used as the URL source when fetch has no argument.
func ReadClipboard(ctx context.Context, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", fmt.Errorf("clipboard command argv cannot be empty")
	}

	cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, argv[0], argv[1:]...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("run clipboard command %s: %w", argv[0], err)
	}

	return strings.TrimSpace(stdout.String()), nil
}
