package studyguide

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sha1n/mcp-guide-search/internal/config"
	"github.com/sha1n/mcp-guide-search/internal/domain"
	"github.com/sha1n/mcp-guide-search/internal/guide"
	"github.com/sha1n/mcp-guide-search/internal/page"
)

// ContextRadius is the number of runes shown on each side of the active
// highlight in navigation excerpts.
const ContextRadius = 60

var (
	// ErrNotReady is returned while no guide has been loaded.
	ErrNotReady = errors.New("study guide is not loaded")

	// ErrResultOutOfRange is returned by OpenResult for an index outside
	// the current results.
	ErrResultOutOfRange = errors.New("result index out of range")
)

// Snapshot is the state of the search widget after an operation.
type Snapshot struct {
	Query  string
	Views  []guide.ResultView
	Status guide.Status
	// Context is an excerpt around the active highlight, if any.
	Context string
	// ContextTitle is the title of the entry holding the active highlight.
	ContextTitle string
	Visible      bool
}

// Block is a guide block as shown after jumping to a result.
type Block struct {
	Entry    domain.IndexEntry
	Rendered string
	Flashing bool
}

// Service loads the study guide and runs the search widget over it.
// Operations are serialized; a reload replaces the widget and drops the
// live session.
type Service struct {
	guideSettings  *config.GuideSettings
	searchSettings *config.SearchSettings
	phraseBonus    guide.PhraseBonus
	reloadDebounce time.Duration

	mu       sync.Mutex
	title    string
	index    []domain.IndexEntry
	engine   *guide.Engine
	page     *page.Page
	widget   *guide.Widget
	watcher  *GuideWatcher
	loadedAt time.Time
	ready    bool
	closed   bool
}

// NewService creates a new study guide service.
func NewService(guideSettings *config.GuideSettings, searchSettings *config.SearchSettings) (*Service, error) {
	if guideSettings == nil || searchSettings == nil {
		return nil, fmt.Errorf("settings cannot be nil")
	}

	phraseBonus, err := guide.ParsePhraseBonus(searchSettings.PhraseBonus)
	if err != nil {
		return nil, err
	}

	return &Service{
		guideSettings:  guideSettings,
		searchSettings: searchSettings,
		phraseBonus:    phraseBonus,
		reloadDebounce: DefaultReloadDebounce,
	}, nil
}

// Initialize starts the file watcher when enabled and loads the guide.
// The watcher is started first so a guide that appears later is still
// picked up; in that case the load error is returned and the service stays
// not ready until the file shows up.
func (s *Service) Initialize(ctx context.Context) error {
	if s.guideSettings.Watch {
		w, err := NewGuideWatcher(s.guideSettings.Path, s.reloadDebounce, func() {
			if err := s.Reload(); err != nil {
				slog.Error("Guide reload failed", "error", err)
			}
		})
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			_ = w.Stop()
			return err
		}
		s.mu.Lock()
		s.watcher = w
		s.mu.Unlock()
	}

	return s.Reload()
}

// Reload reads the guide file and swaps in a fresh index, page and widget.
// The previous widget is shut down first, which removes its highlights.
func (s *Service) Reload() error {
	doc, err := page.LoadFile(s.guideSettings.Path)
	if err != nil {
		return err
	}

	index := guide.BuildIndex(doc.Blocks)
	matcher, err := guide.NewMatcher(s.searchSettings.Matcher, index)
	if err != nil {
		return fmt.Errorf("failed to create matcher: %w", err)
	}

	engine := guide.NewEngine(index,
		guide.WithMatcher(matcher),
		guide.WithPhraseBonus(s.phraseBonus),
	)
	pg := page.New(doc.Title, index)
	widget := guide.NewWidget(engine, pg,
		guide.WithDebounce(s.searchSettings.Debounce),
		guide.WithSnippetLength(s.searchSettings.SnippetLength),
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		widget.Shutdown()
		_ = engine.Close()
		return fmt.Errorf("service is closed")
	}

	s.releaseLocked()
	s.title = doc.Title
	s.index = index
	s.engine = engine
	s.page = pg
	s.widget = widget
	s.loadedAt = time.Now()
	s.ready = true

	slog.Info("Study guide loaded",
		"path", s.guideSettings.Path,
		"title", doc.Title,
		"entries", len(index),
		"matcher", s.searchSettings.Matcher,
	)
	return nil
}

// releaseLocked shuts down the live widget and engine.
func (s *Service) releaseLocked() {
	if s.widget != nil {
		s.widget.Shutdown()
		s.widget = nil
	}
	if s.engine != nil {
		if err := s.engine.Close(); err != nil {
			slog.Warn("Failed to close search engine", "error", err)
		}
		s.engine = nil
	}
}

// IsReady reports whether a guide is loaded.
func (s *Service) IsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Title returns the title of the loaded guide.
func (s *Service) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

// LoadedAt returns the time of the last successful load.
func (s *Service) LoadedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadedAt
}

// Search opens the overlay and runs query immediately.
func (s *Service) Search(query string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return Snapshot{}, ErrNotReady
	}
	s.widget.Open()
	s.widget.Search(query)
	return s.snapshotLocked(), nil
}

// Next focuses the next highlight.
func (s *Service) Next() (Snapshot, error) {
	return s.navigate(true)
}

// Previous focuses the previous highlight.
func (s *Service) Previous() (Snapshot, error) {
	return s.navigate(false)
}

func (s *Service) navigate(forward bool) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return Snapshot{}, ErrNotReady
	}
	if forward {
		s.widget.Next()
	} else {
		s.widget.Previous()
	}
	return s.snapshotLocked(), nil
}

// OpenResult jumps to result i (zero-based) and returns its block with the
// highlights rendered in style. The overlay is closed; highlights stay.
func (s *Service) OpenResult(i int, style page.MarkStyle) (Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return Block{}, ErrNotReady
	}

	results := s.widget.Results()
	if !s.widget.JumpToResult(i) {
		return Block{}, fmt.Errorf("%w: %d of %d", ErrResultOutOfRange, i+1, len(results))
	}

	ref := results[i].Entry.SourceRef
	return Block{
		Entry:    results[i].Entry,
		Rendered: s.page.Render(ref, style),
		Flashing: s.page.Flashing(ref),
	}, nil
}

// Clear drops the results and highlights.
func (s *Service) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return ErrNotReady
	}
	s.widget.Clear()
	return nil
}

// OpenOverlay shows the overlay again with the current results.
func (s *Service) OpenOverlay() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return ErrNotReady
	}
	s.widget.Open()
	return nil
}

// CloseOverlay hides the overlay, keeping results and highlights.
func (s *Service) CloseOverlay() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return ErrNotReady
	}
	s.widget.Close()
	return nil
}

// Snapshot returns the current widget state.
func (s *Service) Snapshot() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return Snapshot{}, ErrNotReady
	}
	return s.snapshotLocked(), nil
}

func (s *Service) snapshotLocked() Snapshot {
	snap := Snapshot{
		Query:   s.widget.Query(),
		Views:   s.widget.Views(),
		Status:  s.widget.Status(),
		Visible: s.page.Visible(),
	}
	if snap.Status.HasCurrent {
		current := snap.Status.Current
		snap.Context, _ = s.page.Context(current.Mark, ContextRadius, page.MarkdownStyle)
		if e, ok := s.page.Entry(current.SourceRef); ok {
			snap.ContextTitle = e.Title
		}
	}
	return snap
}

// Entries returns the index entries, optionally limited to one category.
func (s *Service) Entries(category domain.Category) ([]domain.IndexEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return nil, ErrNotReady
	}
	if category == domain.CategoryUnknown {
		return s.index, nil
	}

	var out []domain.IndexEntry
	for _, e := range s.index {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out, nil
}

// Page returns the rendering surface of the loaded guide. A reload
// replaces it.
func (s *Service) Page() (*page.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return nil, ErrNotReady
	}
	return s.page, nil
}

// Close stops the watcher and shuts the widget down.
func (s *Service) Close() error {
	s.mu.Lock()
	w := s.watcher
	s.watcher = nil
	s.closed = true
	s.ready = false
	s.releaseLocked()
	s.mu.Unlock()

	// Stop outside the lock: a pending reload may be waiting for it.
	if w != nil {
		if err := w.Stop(); err != nil {
			return fmt.Errorf("failed to stop watcher: %w", err)
		}
	}
	return nil
}
