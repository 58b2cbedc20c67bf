// Package guide implements search over the content blocks of a study guide.
//
// BuildIndex turns the blocks supplied by the document layer into immutable
// IndexEntry values. Engine answers free-text queries with multi-term AND
// matching and a fixed relevance score. Controller marks every occurrence of
// the query terms on a Surface and moves a cursor over those marks. Widget
// ties them together behind a debounced input path. Nothing here performs
// I/O; rendering is delegated to the caller's Surface.
package guide

import (
	"sync"
	"time"

	"github.com/sha1n/mcp-guide-search/internal/domain"
)

// DefaultSnippetLength is the preview length of result snippets in runes.
const DefaultSnippetLength = 100

// Widget is the search widget: an engine, a highlight controller and the
// surface they render to. It is safe for concurrent use; debounced
// searches run on the debouncer's goroutine.
type Widget struct {
	mu            sync.Mutex
	engine        *Engine
	surface       Surface
	controller    *Controller
	debouncer     *Debouncer
	debounce      time.Duration
	snippetLength int
	query         string
	results       []domain.SearchResult
	views         []ResultView
	shown         bool
	closed        bool
}

// Option configures a Widget.
type Option func(*Widget)

// WithDebounce sets the quiet period of Input.
func WithDebounce(d time.Duration) Option {
	return func(w *Widget) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithSnippetLength sets the result preview length.
func WithSnippetLength(n int) Option {
	return func(w *Widget) {
		if n > 0 {
			w.snippetLength = n
		}
	}
}

// NewWidget creates a widget searching with engine and rendering to surface.
// A nil surface discards rendering.
func NewWidget(engine *Engine, surface Surface, opts ...Option) *Widget {
	if surface == nil {
		surface = NopSurface{}
	}
	w := &Widget{
		engine:        engine,
		surface:       surface,
		debounce:      DefaultDebounce,
		snippetLength: DefaultSnippetLength,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.controller = NewController(surface)
	w.debouncer = NewDebouncer(w.debounce, func(q string) {
		w.search(q)
	})
	return w
}

// Input schedules a search for query after the debounce period. A newer
// Input replaces a pending one. The search runs on the debouncer's
// goroutine; callers with their own event loop debounce there and call
// Search instead.
func (w *Widget) Input(query string) {
	w.debouncer.Trigger(query)
}

// Flush runs a pending Input immediately.
func (w *Widget) Flush() bool {
	return w.debouncer.Flush()
}

// Search runs query immediately, renders the results list and rebuilds the
// highlight session. A pending Input is dropped.
func (w *Widget) Search(query string) []domain.SearchResult {
	w.debouncer.Cancel()
	return w.search(query)
}

func (w *Widget) search(query string) []domain.SearchResult {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	w.controller.Clear()

	results := w.engine.Search(query)
	w.query = query
	w.results = results
	w.views = BuildViews(results, w.snippetLength)

	switch {
	case len(Terms(query)) == 0:
		state := ListIdle
		if w.shown {
			state = ListNoMatches
		}
		w.surface.RenderResults(nil, state)
	case len(results) == 0:
		w.surface.RenderResults(nil, ListNoMatches)
	default:
		w.surface.RenderResults(w.views, ListResults)
		w.shown = true
	}

	w.controller.OnQuery(results)
	return results
}

// BuildViews creates the result rows for results.
func BuildViews(results []domain.SearchResult, snippetLength int) []ResultView {
	if len(results) == 0 {
		return nil
	}
	views := make([]ResultView, 0, len(results))
	var terms []string
	query := ""
	for i, r := range results {
		if terms == nil || r.Query != query {
			query = r.Query
			terms = Terms(query)
		}
		snippet := Truncate(r.Entry.Body, snippetLength)
		views = append(views, ResultView{
			Rank:           i + 1,
			Label:          r.Entry.Category.Label(),
			Title:          r.Entry.Title,
			TitleMatches:   FindMatches(r.Entry.Title, terms),
			Snippet:        snippet,
			SnippetMatches: FindMatches(snippet, terms),
			Ref:            r.Entry.SourceRef,
			Score:          r.Score,
		})
	}
	return views
}

// Next focuses the next highlight.
func (w *Widget) Next() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.controller.Next()
}

// Previous focuses the previous highlight.
func (w *Widget) Previous() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.controller.Previous()
}

// JumpToResult reveals result i and closes the overlay.
func (w *Widget) JumpToResult(i int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.controller.JumpToResult(i)
}

// Clear drops the results and the highlight session.
func (w *Widget) Clear() {
	w.debouncer.Cancel()
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clearLocked()
}

func (w *Widget) clearLocked() {
	w.controller.Clear()
	w.query = ""
	w.results = nil
	w.views = nil
	w.surface.RenderResults(nil, ListIdle)
}

// Open shows the search overlay.
func (w *Widget) Open() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.surface.SetVisible(true)
}

// Close hides the search overlay. Results and highlights are kept.
func (w *Widget) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.surface.SetVisible(false)
}

// Shutdown cancels pending input and releases the highlight session.
// The widget ignores searches afterwards.
func (w *Widget) Shutdown() {
	w.debouncer.Stop()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.clearLocked()
	w.closed = true
}

// Query returns the query of the current results.
func (w *Widget) Query() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.query
}

// Results returns the current results.
func (w *Widget) Results() []domain.SearchResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.results
}

// Views returns the current result rows.
func (w *Widget) Views() []ResultView {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.views
}

// Status describes the navigation state.
type Status struct {
	State       State
	Counter     string
	Cursor      int
	Count       int
	CanPrevious bool
	CanNext     bool
	Current     Highlight
	HasCurrent  bool
}

// Status returns the navigation state.
func (w *Widget) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	current, ok := w.controller.Current()
	return Status{
		State:       w.controller.State(),
		Counter:     w.controller.Counter(),
		Cursor:      w.controller.Cursor(),
		Count:       w.controller.Count(),
		CanPrevious: w.controller.CanPrevious(),
		CanNext:     w.controller.CanNext(),
		Current:     current,
		HasCurrent:  ok,
	}
}

// Engine returns the widget's engine.
func (w *Widget) Engine() *Engine {
	return w.engine
}
