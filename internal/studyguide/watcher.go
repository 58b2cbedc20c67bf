package studyguide

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sha1n/mcp-guide-search/internal/guide"
)

// DefaultReloadDebounce is the quiet period between the last change of the
// guide file and the reload.
const DefaultReloadDebounce = 250 * time.Millisecond

// GuideWatcher reports changes of a single file. It watches the parent
// directory so editors that replace the file on save are followed.
type GuideWatcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	debouncer *guide.Debouncer
	stopCh    chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewGuideWatcher creates a watcher calling onChange once the file at path
// has been quiet for window after a write, create or rename.
func NewGuideWatcher(path string, window time.Duration, onChange func()) (*GuideWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve guide path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &GuideWatcher{
		fsWatcher: fsw,
		path:      filepath.Clean(abs),
		debouncer: guide.NewDebouncer(window, func(string) { onChange() }),
		stopCh:    make(chan struct{}),
	}, nil
}

// Start begins watching. Events are handled on a background goroutine until
// ctx is cancelled or Stop is called.
func (w *GuideWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.startOnce.Do(func() {
		go w.loop(ctx)
	})
	slog.Info("Watching guide file", "path", w.path)
	return nil
}

func (w *GuideWatcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Guide watcher error", "error", err)
		}
	}
}

func (w *GuideWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	slog.Debug("Guide file changed", "path", event.Name, "op", event.Op.String())
	w.debouncer.Trigger(event.Name)
}

// Path returns the watched file path.
func (w *GuideWatcher) Path() string {
	return w.path
}

// Stop stops watching and drops a pending change notification.
// Safe to call multiple times.
func (w *GuideWatcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.debouncer.Stop()
		err = w.fsWatcher.Close()
	})
	return err
}
