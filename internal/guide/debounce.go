package guide

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period before a typed query is searched.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer delays a call until its input has been quiet for a window.
// Every Trigger cancels the pending call and schedules a new one with the
// latest value, so at most one call runs per quiet period.
type Debouncer struct {
	window  time.Duration
	fn      func(string)
	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	pending bool
	value   string
	stopped bool
}

// NewDebouncer creates a debouncer invoking fn after window of quiet.
// fn runs on a timer goroutine.
func NewDebouncer(window time.Duration, fn func(string)) *Debouncer {
	return &Debouncer{
		window: window,
		fn:     fn,
	}
}

// Trigger records value and restarts the quiet period.
func (d *Debouncer) Trigger(value string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	d.pending = true
	d.value = value

	gen := d.gen
	d.timer = time.AfterFunc(d.window, func() {
		d.fire(gen)
	})
}

// fire runs fn unless a later Trigger superseded generation gen.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || !d.pending || gen != d.gen {
		d.mu.Unlock()
		return
	}
	value := d.value
	d.pending = false
	d.mu.Unlock()

	d.fn(value)
}

// Flush runs the pending call immediately on the calling goroutine.
// It reports whether a call was pending.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if d.stopped || !d.pending {
		d.mu.Unlock()
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	value := d.value
	d.pending = false
	d.mu.Unlock()

	d.fn(value)
	return true
}

// Cancel drops the pending call, if any, and reports whether there was one.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	had := d.pending
	d.pending = false
	return had
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Stop cancels any pending call. Later triggers are ignored.
// Safe to call multiple times.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
	}
}
