package studyguide

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestGuideWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guide.html")

	var calls atomic.Int32
	w, err := NewGuideWatcher(path, 10*time.Millisecond, func() { calls.Add(1) })
	if err != nil {
		t.Fatalf("NewGuideWatcher failed: %v", err)
	}
	defer func() { _ = w.Stop() }()

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if calls.Load() != 0 {
		t.Errorf("Expected no calls for other files, got %d", calls.Load())
	}

	if err := os.WriteFile(path, []byte("<html></html>"), 0644); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for change notification")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestGuideWatcher_StopIsIdempotent(t *testing.T) {
	w, err := NewGuideWatcher(filepath.Join(t.TempDir(), "guide.html"), time.Millisecond, func() {})
	if err != nil {
		t.Fatalf("NewGuideWatcher failed: %v", err)
	}
	if !filepath.IsAbs(w.Path()) {
		t.Errorf("Expected absolute path, got %s", w.Path())
	}

	if err := w.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Second stop failed: %v", err)
	}
}

func TestGuideWatcher_MissingDirectory(t *testing.T) {
	w, err := NewGuideWatcher(filepath.Join(t.TempDir(), "nope", "guide.html"), time.Millisecond, func() {})
	if err != nil {
		t.Fatalf("NewGuideWatcher failed: %v", err)
	}
	defer func() { _ = w.Stop() }()

	if err := w.Start(context.Background()); err == nil {
		t.Error("Expected error watching a missing directory")
	}
}
