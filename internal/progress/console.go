package progress

import (
	"fmt"
	"io"
	"sync"
)

// ConsoleStatus renders transient status text on a terminal-style surface,
// rewriting a single line so countdown ticks do not scroll.
type ConsoleStatus struct {
	mu       sync.Mutex
	out      io.Writer
	lastLen  int
	disabled bool
}

// NewConsoleStatus creates a status line writer. A nil writer disables output.
func NewConsoleStatus(out io.Writer) *ConsoleStatus {
	return &ConsoleStatus{out: out, disabled: out == nil}
}

// PublishStatus rewrites the status line in place.
func (c *ConsoleStatus) PublishStatus(text string, _ Class) {
	if c.disabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	padding := c.lastLen - len(text)
	if padding < 0 {
		padding = 0
	}
	fmt.Fprintf(c.out, "\r%s%*s", text, padding, "")
	c.lastLen = len(text)
}

// ClearStatus erases the current status line.
func (c *ConsoleStatus) ClearStatus() {
	if c.disabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastLen == 0 {
		return
	}
	fmt.Fprintf(c.out, "\r%*s\r", c.lastLen, "")
	c.lastLen = 0
}
