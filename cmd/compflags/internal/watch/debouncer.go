// Package watch re-resolves a file's settings whenever its project tree
// changes and reports the record each time it differs from the last one.
package watch

import (
	"maps"
	"slices"
	"sync"
	"time"
)

// MaxPending is the number of pending directories that forces an
// immediate flush, bounding memory during bulk file creation.
const MaxPending = 1000

// Debouncer coalesces rapid change events into one batched callback.
// Events arriving within the window of each other are grouped, so an editor
// save followed by a formatter run triggers a single re-resolution.
type Debouncer struct {
	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	window  time.Duration
	onFlush func(dirs []string)
	stopped bool
}

// NewDebouncer creates a debouncer with the given window. onFlush receives
// the sorted set of directories touched since the previous flush.
func NewDebouncer(window time.Duration, onFlush func(dirs []string)) *Debouncer {
	return &Debouncer{
		pending: make(map[string]struct{}),
		window:  window,
		onFlush: onFlush,
	}
}

// Add records a change in dir and restarts the window.
func (d *Debouncer) Add(dir string) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.pending[dir] = struct{}{}

	if len(d.pending) >= MaxPending {
		d.stopTimerLocked()
		dirs := d.drainLocked()
		d.mu.Unlock()
		d.emit(dirs)
		return
	}

	// A timer that already fired may still run flush; it finds nothing
	// pending or flushes the new batch early, both harmless.
	d.stopTimerLocked()
	d.timer = time.AfterFunc(d.window, d.FlushNow)
	d.mu.Unlock()
}

// FlushNow delivers pending directories without waiting for the window.
func (d *Debouncer) FlushNow() {
	d.mu.Lock()
	d.stopTimerLocked()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	dirs := d.drainLocked()
	d.mu.Unlock()
	d.emit(dirs)
}

// Stop stops the debouncer after flushing what is pending. Later Adds are
// ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.stopTimerLocked()
	dirs := d.drainLocked()
	d.mu.Unlock()
	d.emit(dirs)
}

// PendingCount returns the number of directories waiting to be flushed.
func (d *Debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

func (d *Debouncer) stopTimerLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// drainLocked empties the pending set. Caller must hold d.mu.
func (d *Debouncer) drainLocked() []string {
	if len(d.pending) == 0 {
		return nil
	}
	dirs := slices.Sorted(maps.Keys(d.pending))
	d.pending = make(map[string]struct{})
	return dirs
}

// emit calls the handler outside the lock.
func (d *Debouncer) emit(dirs []string) {
	if len(dirs) > 0 && d.onFlush != nil {
		d.onFlush(dirs)
	}
}
