package guide

import (
	"sync"
	"testing"
	"time"
)

type callRecorder struct {
	mu    sync.Mutex
	calls []string
	done  chan string
}

func newCallRecorder() *callRecorder {
	return &callRecorder{done: make(chan string, 16)}
}

func (r *callRecorder) record(v string) {
	r.mu.Lock()
	r.calls = append(r.calls, v)
	r.mu.Unlock()
	r.done <- v
}

func (r *callRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestDebouncer_CoalescesBurst(t *testing.T) {
	rec := newCallRecorder()
	d := NewDebouncer(30*time.Millisecond, rec.record)
	defer d.Stop()

	for _, v := range []string{"ג", "גב", "גבו", "גבול"} {
		d.Trigger(v)
	}

	select {
	case v := <-rec.done:
		if v != "גבול" {
			t.Errorf("Expected latest value, got %q", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for debounced call")
	}

	time.Sleep(60 * time.Millisecond)
	if rec.count() != 1 {
		t.Errorf("Expected exactly one call, got %d", rec.count())
	}
	if d.Pending() {
		t.Error("Expected nothing pending after the call")
	}
}

func TestDebouncer_Flush(t *testing.T) {
	rec := newCallRecorder()
	d := NewDebouncer(time.Hour, rec.record)
	defer d.Stop()

	if d.Flush() {
		t.Error("Expected flush without pending call to report false")
	}

	d.Trigger("x")
	if !d.Pending() {
		t.Error("Expected pending call")
	}
	if !d.Flush() {
		t.Error("Expected flush to run the pending call")
	}
	if rec.count() != 1 || rec.calls[0] != "x" {
		t.Errorf("Expected one call with 'x', got %v", rec.calls)
	}
	if d.Flush() {
		t.Error("Expected second flush to report false")
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	tests := []struct {
		name      string
		trigger   bool
		wantFound bool
	}{
		{"pending call", true, true},
		{"nothing pending", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newCallRecorder()
			d := NewDebouncer(20*time.Millisecond, rec.record)
			defer d.Stop()

			if tt.trigger {
				d.Trigger("x")
			}
			if got := d.Cancel(); got != tt.wantFound {
				t.Errorf("Cancel() = %v, want %v", got, tt.wantFound)
			}

			time.Sleep(80 * time.Millisecond)
			if rec.count() != 0 {
				t.Errorf("Expected no calls after cancel, got %v", rec.calls)
			}

			d.Trigger("y")
			if !d.Flush() || rec.calls[0] != "y" {
				t.Errorf("Expected triggers after cancel to work, got %v", rec.calls)
			}
		})
	}
}

func TestDebouncer_Stop(t *testing.T) {
	rec := newCallRecorder()
	d := NewDebouncer(20*time.Millisecond, rec.record)

	d.Trigger("x")
	d.Stop()
	d.Stop()
	d.Trigger("y")

	time.Sleep(80 * time.Millisecond)
	if rec.count() != 0 {
		t.Errorf("Expected no calls after stop, got %v", rec.calls)
	}
	if d.Flush() {
		t.Error("Expected flush after stop to report false")
	}
}

func TestDebouncer_SeparateQuietPeriods(t *testing.T) {
	rec := newCallRecorder()
	d := NewDebouncer(10*time.Millisecond, rec.record)
	defer d.Stop()

	for _, v := range []string{"a", "b"} {
		d.Trigger(v)
		select {
		case got := <-rec.done:
			if got != v {
				t.Errorf("Expected %q, got %q", v, got)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("Timed out waiting for %q", v)
		}
	}
}
