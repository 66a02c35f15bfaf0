// Package note applies fetch results to the note file and reads the
// clipboard URL source.
package note

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/tubenote/tubenote/internal/config"
)

const commandTimeout = 2 * time.Second

// Committer appends fetched transcripts to the configured notes file.
type Committer struct {
	settings config.Settings
	logger   *slog.Logger
	stdout   io.Writer
}

// NewCommitter constructs a note committer from runtime settings.
func NewCommitter(settings config.Settings, logger *slog.Logger) *Committer {
	return &Committer{settings: settings, logger: logger, stdout: os.Stdout}
}

// Format renders one note section. Failed fetches use the same shape, so
// the error report lands in the note exactly like a transcript would.
func Format(title, content string) string {
	return fmt.Sprintf("## %s\n\n%s\n", title, content)
}

// Commit appends the formatted section to the notes file, or prints it
// to stdout when no notes file is configured.
func (c *Committer) Commit(ctx context.Context, title, content string) error {
	section := Format(title, content)

	if c.settings.NotesFile == "" {
		if _, err := io.WriteString(c.stdout, section); err != nil {
			return fmt.Errorf("write note to stdout: %w", err)
		}
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	path := c.settings.NotesFile
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("ensure notes dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open notes file: %w", err)
	}
	defer f.Close()

	if err := prefixSeparator(f); err != nil {
		return err
	}

	if _, err := f.WriteString(section); err != nil {
		return fmt.Errorf("append note: %w", err)
	}

	if c.logger != nil {
		c.logger.Info("note committed", "path", path, "title", title)
	}
	return nil
}

// prefixSeparator keeps one blank line between existing content and the
// new section.
func prefixSeparator(f *os.File) error {
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat notes file: %w", err)
	}
	if info.Size() == 0 {
		return nil
	}
	if _, err := f.WriteString("\n"); err != nil {
		return fmt.Errorf("append note separator: %w", err)
	}
	return nil
}
