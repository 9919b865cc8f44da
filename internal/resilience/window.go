package resilience

import (
	"sync"
	"time"

	"github.com/LavishGent/billboard/internal/config"
)

// ErrorWindow is a bounded, time-ordered record of primary-provider failures.
// It holds at most capacity timestamps; recording past capacity overwrites the oldest.
// All methods are safe for concurrent use.
type ErrorWindow struct {
	mu        sync.Mutex
	times     []time.Time
	head      int
	size      int
	window    time.Duration
	threshold int
}

// NewErrorWindow creates an error window sized from the health gate configuration.
func NewErrorWindow(cfg config.HealthGateConfig) *ErrorWindow {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = config.DefaultHealthGateCapacity
	}
	window := cfg.Window
	if window <= 0 {
		window = config.DefaultHealthGateWindow
	}
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = config.DefaultHealthGateLimit
	}

	return &ErrorWindow{
		times:     make([]time.Time, capacity),
		window:    window,
		threshold: threshold,
	}
}

// RecordFailure appends now. When the window is full the oldest entry is evicted.
func (w *ErrorWindow) RecordFailure(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	capacity := len(w.times)
	if w.size == capacity {
		w.times[w.head] = now
		w.head = (w.head + 1) % capacity
		return
	}
	w.times[(w.head+w.size)%capacity] = now
	w.size++
}

// CountRecentFailures drops entries at or before now-window and returns how many remain.
func (w *ErrorWindow) CountRecentFailures(now time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(now)
	return w.size
}

func (w *ErrorWindow) pruneLocked(now time.Time) {
	cutoff := now.Add(-w.window)
	capacity := len(w.times)
	// Insertion order is chronological, so stop at the first entry inside the window.
	for w.size > 0 && !w.times[w.head].After(cutoff) {
		w.times[w.head] = time.Time{}
		w.head = (w.head + 1) % capacity
		w.size--
	}
}

// Len returns the number of retained timestamps without pruning.
func (w *ErrorWindow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Oldest returns the oldest retained timestamp, or false when empty.
func (w *ErrorWindow) Oldest() (time.Time, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.size == 0 {
		return time.Time{}, false
	}
	return w.times[w.head], true
}

// Reset forgets every recorded failure.
func (w *ErrorWindow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	clear(w.times)
	w.head = 0
	w.size = 0
}

// Capacity returns how many failure timestamps the window retains.
func (w *ErrorWindow) Capacity() int { return len(w.times) }

// Threshold returns the failure count at which the primary is bypassed.
func (w *ErrorWindow) Threshold() int { return w.threshold }

// Window returns how long a recorded failure keeps counting.
func (w *ErrorWindow) Window() time.Duration { return w.window }
