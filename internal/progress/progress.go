// Package progress coordinates the countdown ticker, per-operation loading
// markers, and transient status publication for overlapping fetches.
package progress

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// MarkerID identifies one in-flight operation's loading marker.
type MarkerID string

// Class buckets status text by the symbol it carries.
type Class string

const (
	ClassLoading Class = "loading"
	ClassSuccess Class = "success"
	ClassFailure Class = "failure"
	ClassNeutral Class = "neutral"
)

const (
	// tickInterval is the countdown decrement period.
	tickInterval = time.Second
	// successClearAfter and failureClearAfter bound how long transient
	// statuses linger before auto-clear.
	successClearAfter = 5 * time.Second
	failureClearAfter = 8 * time.Second
)

// Listener receives published status updates. Implementations must not block.
type Listener interface {
	PublishStatus(text string, class Class)
	ClearStatus()
}

// noopListener preserves coordinator flow when no listener is wired.
type noopListener struct{}

func (noopListener) PublishStatus(string, Class) {}
func (noopListener) ClearStatus()                {}

// Coordinator owns the single countdown slot and the marker registry. Starting
// a new countdown supersedes the previous one; markers are independent and
// never serialize operations.
type Coordinator struct {
	logger   *slog.Logger
	listener Listener

	mu         sync.Mutex
	markers    map[MarkerID]struct{}
	generation int
	remaining  int
	lastStatus string
	clearTimer *time.Timer
}

// NewCoordinator constructs a coordinator with a safe default listener.
func NewCoordinator(logger *slog.Logger, listener Listener) *Coordinator {
	if listener == nil {
		listener = noopListener{}
	}
	return &Coordinator{
		logger:   logger,
		listener: listener,
		markers:  map[MarkerID]struct{}{},
	}
}

// StartCountdown begins a fresh countdown of total seconds, cancelling any
// previous ticker. At zero it switches to an indefinite processing message and
// stops.
func (c *Coordinator) StartCountdown(totalSeconds int) {
	if totalSeconds <= 0 {
		return
	}

	c.mu.Lock()
	c.generation++
	generation := c.generation
	c.remaining = totalSeconds
	c.mu.Unlock()

	c.Publish(countdownText(totalSeconds))

	go func() {
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()

		for range ticker.C {
			c.mu.Lock()
			if c.generation != generation {
				c.mu.Unlock()
				return
			}
			c.remaining--
			remaining := c.remaining
			c.mu.Unlock()

			if remaining <= 0 {
				c.Publish("⏳ Still processing…")
				return
			}
			c.Publish(countdownText(remaining))
		}
	}()
}

// StopCountdown cancels the active ticker without publishing anything.
func (c *Coordinator) StopCountdown() {
	c.mu.Lock()
	c.generation++
	c.remaining = 0
	c.mu.Unlock()
}

// CountdownRemaining returns the seconds left on the active countdown, zero
// when none is running.
func (c *Coordinator) CountdownRemaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remaining < 0 {
		return 0
	}
	return c.remaining
}

// AddMarker registers a loading marker scoped to one operation.
func (c *Coordinator) AddMarker(id MarkerID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.markers[id] = struct{}{}
}

// RemoveMarker drops a marker. Idempotent: removing an absent marker is a no-op.
func (c *Coordinator) RemoveMarker(id MarkerID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.markers, id)
}

// ActiveMarkers returns a sorted snapshot of in-flight operation markers.
func (c *Coordinator) ActiveMarkers() []MarkerID {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := make([]MarkerID, 0, len(c.markers))
	for id := range c.markers {
		snapshot = append(snapshot, id)
	}
	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i] < snapshot[j] })
	return snapshot
}

// Publish classifies status text by its symbol, forwards it to the listener,
// and schedules auto-clear for transient classes.
func (c *Coordinator) Publish(text string) {
	class := Classify(text)

	c.mu.Lock()
	c.lastStatus = text
	if c.clearTimer != nil {
		c.clearTimer.Stop()
		c.clearTimer = nil
	}
	var clearAfter time.Duration
	switch class {
	case ClassSuccess:
		clearAfter = successClearAfter
	case ClassFailure:
		clearAfter = failureClearAfter
	}
	if clearAfter > 0 {
		c.clearTimer = time.AfterFunc(clearAfter, func() {
			c.mu.Lock()
			cleared := c.lastStatus == text
			if cleared {
				c.lastStatus = ""
			}
			c.mu.Unlock()
			if cleared {
				c.listener.ClearStatus()
			}
		})
	}
	c.mu.Unlock()

	c.listener.PublishStatus(text, class)
	if c.logger != nil {
		c.logger.Debug("status published", "class", string(class), "text", text)
	}
}

// Status returns the most recently published status text.
func (c *Coordinator) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastStatus
}

// Classify buckets status text purely by which symbol it contains.
func Classify(text string) Class {
	switch {
	case strings.Contains(text, "⏳"):
		return ClassLoading
	case strings.Contains(text, "✅"):
		return ClassSuccess
	case strings.ContainsAny(text, "❌⚠⛔") || strings.Contains(text, "💳") || strings.Contains(text, "🔑"):
		return ClassFailure
	default:
		return ClassNeutral
	}
}

// countdownText formats the per-tick countdown status line.
func countdownText(remaining int) string {
	return fmt.Sprintf("⏳ Fetching transcript… ~%ds", remaining)
}
