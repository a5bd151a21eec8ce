package rollover

import (
	"sync"
	"time"

	"github.com/boardledger/boardledger/internal/metrics"
)

// Debouncer runs the last function scheduled for a key once the key has been
// quiet for the configured delay. Scheduling again cancels the pending run.
type Debouncer struct {
	delay   time.Duration
	mu      sync.Mutex
	pending map[string]*scheduled
	stopped bool
}

type scheduled struct {
	timer *time.Timer
	fn    func()
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay, pending: make(map[string]*scheduled)}
}

func (d *Debouncer) Schedule(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if previous, ok := d.pending[key]; ok {
		previous.timer.Stop()
	} else {
		metrics.RolloverPending.Inc()
	}

	entry := &scheduled{fn: fn}
	entry.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// A timer that fired while being replaced must not run.
		if d.pending[key] != entry {
			d.mu.Unlock()
			return
		}
		delete(d.pending, key)
		metrics.RolloverPending.Dec()
		d.mu.Unlock()
		fn()
	})
	d.pending[key] = entry
}

// Cancel drops the pending run for key and reports whether there was one.
func (d *Debouncer) Cancel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	entry, ok := d.pending[key]
	if !ok {
		return false
	}
	entry.timer.Stop()
	delete(d.pending, key)
	metrics.RolloverPending.Dec()
	return true
}

func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Stop cancels every pending run and ignores later Schedule calls.
func (d *Debouncer) Stop() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	cancelled := len(d.pending)
	for key, entry := range d.pending {
		entry.timer.Stop()
		delete(d.pending, key)
	}
	metrics.RolloverPending.Sub(float64(cancelled))
	return cancelled
}

// Flush runs every pending function now, on the caller's goroutine, and returns how many ran.
func (d *Debouncer) Flush() int {
	d.mu.Lock()
	due := make([]func(), 0, len(d.pending))
	for key, entry := range d.pending {
		// A timer that already fired finds its entry gone and returns without running.
		entry.timer.Stop()
		due = append(due, entry.fn)
		delete(d.pending, key)
	}
	metrics.RolloverPending.Sub(float64(len(due)))
	d.mu.Unlock()

	for _, fn := range due {
		fn()
	}
	return len(due)
}
