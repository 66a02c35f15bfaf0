package progress

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingListener struct {
	mu      sync.Mutex
	updates []string
	clears  int
}

func (r *recordingListener) PublishStatus(text string, _ Class) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, text)
}

func (r *recordingListener) ClearStatus() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clears++
}

func (r *recordingListener) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.updates...)
}

func TestClassifyBySymbol(t *testing.T) {
	require.Equal(t, ClassLoading, Classify("⏳ Fetching transcript… ~20s"))
	require.Equal(t, ClassSuccess, Classify("✅ Transcript inserted"))
	require.Equal(t, ClassFailure, Classify("❌ The transcript service sent a malformed reply."))
	require.Equal(t, ClassFailure, Classify("⚠️ Unexpected error: boom"))
	require.Equal(t, ClassFailure, Classify("💳 Out of credits."))
	require.Equal(t, ClassFailure, Classify("🔑 Token invalid or expired."))
	require.Equal(t, ClassNeutral, Classify("plain text"))
}

func TestStartCountdownPublishesInitialTick(t *testing.T) {
	listener := &recordingListener{}
	coordinator := NewCoordinator(nil, listener)

	coordinator.StartCountdown(25)
	defer coordinator.StopCountdown()

	updates := listener.snapshot()
	require.NotEmpty(t, updates)
	require.Equal(t, "⏳ Fetching transcript… ~25s", updates[0])
	require.Equal(t, 25, coordinator.CountdownRemaining())
}

func TestSecondCountdownSupersedesFirst(t *testing.T) {
	listener := &recordingListener{}
	coordinator := NewCoordinator(nil, listener)

	coordinator.StartCountdown(100)
	coordinator.StartCountdown(30)
	defer coordinator.StopCountdown()

	require.Equal(t, 30, coordinator.CountdownRemaining())

	// The superseded ticker must never publish again; wait past one tick.
	time.Sleep(1200 * time.Millisecond)
	for _, update := range listener.snapshot() {
		if strings.Contains(update, "~100s") || strings.Contains(update, "~99s") {
			require.Fail(t, "superseded countdown still publishing", update)
		}
	}
	require.LessOrEqual(t, coordinator.CountdownRemaining(), 29)
}

func TestStopCountdownHaltsTicker(t *testing.T) {
	listener := &recordingListener{}
	coordinator := NewCoordinator(nil, listener)

	coordinator.StartCountdown(10)
	coordinator.StopCountdown()
	require.Zero(t, coordinator.CountdownRemaining())

	before := len(listener.snapshot())
	time.Sleep(1200 * time.Millisecond)
	require.Equal(t, before, len(listener.snapshot()))
}

func TestCountdownReachesStillProcessing(t *testing.T) {
	listener := &recordingListener{}
	coordinator := NewCoordinator(nil, listener)

	coordinator.StartCountdown(1)

	require.Eventually(t, func() bool {
		updates := listener.snapshot()
		return len(updates) > 0 && updates[len(updates)-1] == "⏳ Still processing…"
	}, 3*time.Second, 50*time.Millisecond)

	// Ticker stopped at zero: no further updates.
	count := len(listener.snapshot())
	time.Sleep(1200 * time.Millisecond)
	require.Equal(t, count, len(listener.snapshot()))
}

func TestMarkersAreIndependentAndIdempotent(t *testing.T) {
	coordinator := NewCoordinator(nil, nil)

	coordinator.AddMarker("fetch-1")
	coordinator.AddMarker("fetch-2")
	require.Equal(t, []MarkerID{"fetch-1", "fetch-2"}, coordinator.ActiveMarkers())

	coordinator.RemoveMarker("fetch-1")
	require.Equal(t, []MarkerID{"fetch-2"}, coordinator.ActiveMarkers())

	// Second removal is a no-op.
	coordinator.RemoveMarker("fetch-1")
	require.Equal(t, []MarkerID{"fetch-2"}, coordinator.ActiveMarkers())

	coordinator.RemoveMarker("fetch-2")
	require.Empty(t, coordinator.ActiveMarkers())
	coordinator.RemoveMarker("never-added")
	require.Empty(t, coordinator.ActiveMarkers())
}

func TestPublishSchedulesAutoClearForTransientClasses(t *testing.T) {
	listener := &recordingListener{}
	coordinator := NewCoordinator(nil, listener)

	coordinator.Publish("✅ Transcript inserted")
	require.Equal(t, "✅ Transcript inserted", coordinator.Status())

	// Newer status cancels the pending clear of the old one.
	coordinator.Publish("⏳ Fetching transcript… ~25s")
	require.Equal(t, "⏳ Fetching transcript… ~25s", coordinator.Status())

	listener.mu.Lock()
	clears := listener.clears
	listener.mu.Unlock()
	require.Zero(t, clears)
}

func TestConsoleStatusRewritesAndClears(t *testing.T) {
	var buf strings.Builder
	console := NewConsoleStatus(&buf)

	console.PublishStatus("⏳ working", ClassLoading)
	console.PublishStatus("✅ ok", ClassSuccess)
	console.ClearStatus()

	output := buf.String()
	require.Contains(t, output, "⏳ working")
	require.Contains(t, output, "✅ ok")
	require.True(t, strings.HasPrefix(output, "\r"))
}

func TestConsoleStatusNilWriterIsSafe(t *testing.T) {
	console := NewConsoleStatus(nil)
	console.PublishStatus("⏳ working", ClassLoading)
	console.ClearStatus()
}
