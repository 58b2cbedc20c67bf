package guide

import (
	"fmt"

	"github.com/sha1n/mcp-guide-search/internal/domain"
)

// MarkID identifies a region marked on a Surface. The zero value means no
// region was marked.
type MarkID int

// ListState describes what the results list shows.
type ListState int

const (
	// ListIdle shows nothing.
	ListIdle ListState = iota
	// ListResults shows ranked results.
	ListResults
	// ListNoMatches shows the "no results" message.
	ListNoMatches
)

// ResultView is the rendering model of one result row.
type ResultView struct {
	Rank           int
	Label          string
	Title          string
	TitleMatches   []Match
	Snippet        string
	SnippetMatches []Match
	Ref            domain.SourceRef
	Score          int
}

// Surface is the rendering side of the widget. Implementations mark and
// unmark text regions of blocks, render the results list and status, and
// bring blocks into view. All calls are total: invalid input is ignored.
type Surface interface {
	// Mark highlights runes [start, end) of the block text at ref.
	Mark(ref domain.SourceRef, start, end int) MarkID
	// Unmark removes a mark, restoring the block text exactly.
	Unmark(id MarkID)
	// SetActive flags a mark as the current one, or clears the flag.
	SetActive(id MarkID, active bool)
	// Reveal brings the block at ref into view.
	Reveal(ref domain.SourceRef)
	// RenderResults replaces the results list.
	RenderResults(results []ResultView, state ListState)
	// SetStatus updates the match counter and navigation affordances.
	SetStatus(counter string, canPrevious, canNext bool)
	// SetVisible opens or closes the search overlay.
	SetVisible(visible bool)
}

// NopSurface discards all rendering calls.
type NopSurface struct{}

func (NopSurface) Mark(domain.SourceRef, int, int) MarkID { return 0 }
func (NopSurface) Unmark(MarkID) {}
func (NopSurface) SetActive(MarkID, bool) {}
func (NopSurface) Reveal(domain.SourceRef) {}
func (NopSurface) RenderResults([]ResultView, ListState) {}
func (NopSurface) SetStatus(string, bool, bool) {}
func (NopSurface) SetVisible(bool) {}

// State is the highlight session state.
type State int

const (
	// StateIdle means no session is live.
	StateIdle State = iota
	// StateActive means a session with at least one highlight is live.
	StateActive
)

// String returns the state name.
func (s State) String() string {
	if s == StateActive {
		return "active"
	}
	return "idle"
}

// Highlight is one marked occurrence of a query term.
type Highlight struct {
	SourceRef domain.SourceRef
	Mark      MarkID
	Start     int
	End       int
	Term      string
	Active    bool
}

// Controller owns the highlight session and its navigation cursor.
// A Controller is not safe for concurrent use; Widget serializes access.
type Controller struct {
	surface    Surface
	results    []domain.SearchResult
	highlights []Highlight
	cursor     int
}

// NewController creates an idle controller rendering to surface.
func NewController(surface Surface) *Controller {
	if surface == nil {
		surface = NopSurface{}
	}
	return &Controller{surface: surface, cursor: -1}
}

// OnQuery replaces the session with highlights for results. The previous
// session is torn down first. Highlights follow result rank, then position
// in the block, then term order. It returns the number of highlights.
func (c *Controller) OnQuery(results []domain.SearchResult) int {
	c.teardown()
	c.results = results

	var terms []string
	query := ""
	for _, r := range results {
		if terms == nil || r.Query != query {
			query = r.Query
			terms = Terms(query)
		}
		for _, m := range FindMatches(r.Entry.Body, terms) {
			id := c.surface.Mark(r.Entry.SourceRef, m.Start, m.End)
			c.highlights = append(c.highlights, Highlight{
				SourceRef: r.Entry.SourceRef,
				Mark:      id,
				Start:     m.Start,
				End:       m.End,
				Term:      m.Term,
			})
		}
	}

	c.publish()
	return len(c.highlights)
}

// Next focuses the following highlight, wrapping to the first.
// It reports false when there is nothing to navigate.
func (c *Controller) Next() bool {
	n := len(c.highlights)
	if n == 0 {
		return false
	}
	c.cursor = (c.cursor + 1) % n
	c.activate()
	return true
}

// Previous focuses the preceding highlight, wrapping to the last.
func (c *Controller) Previous() bool {
	n := len(c.highlights)
	if n == 0 {
		return false
	}
	if c.cursor <= 0 {
		c.cursor = n - 1
	} else {
		c.cursor--
	}
	c.activate()
	return true
}

// JumpToResult reveals the block of result i and closes the overlay.
// The highlight cursor is not moved. Out of range indices are ignored.
func (c *Controller) JumpToResult(i int) bool {
	if i < 0 || i >= len(c.results) {
		return false
	}
	c.surface.Reveal(c.results[i].Entry.SourceRef)
	c.surface.SetVisible(false)
	return true
}

// Clear releases every highlight and returns to idle. Calling it again has
// no further effect.
func (c *Controller) Clear() {
	c.teardown()
	c.publish()
}

func (c *Controller) teardown() {
	for _, h := range c.highlights {
		c.surface.Unmark(h.Mark)
	}
	c.highlights = nil
	c.results = nil
	c.cursor = -1
}

func (c *Controller) activate() {
	for i := range c.highlights {
		active := i == c.cursor
		c.highlights[i].Active = active
		c.surface.SetActive(c.highlights[i].Mark, active)
	}
	c.surface.Reveal(c.highlights[c.cursor].SourceRef)
	c.publish()
}

func (c *Controller) publish() {
	c.surface.SetStatus(c.Counter(), c.CanPrevious(), c.CanNext())
}

// State returns the session state.
func (c *Controller) State() State {
	if len(c.highlights) > 0 {
		return StateActive
	}
	return StateIdle
}

// Count returns the number of highlights.
func (c *Controller) Count() int {
	return len(c.highlights)
}

// Cursor returns the focused highlight index, or -1.
func (c *Controller) Cursor() int {
	return c.cursor
}

// Counter renders the cursor as "<n>/<count>", or "0/0" without highlights.
func (c *Controller) Counter() string {
	if len(c.highlights) == 0 {
		return "0/0"
	}
	return fmt.Sprintf("%d/%d", c.cursor+1, len(c.highlights))
}

// CanPrevious reports whether the previous affordance is enabled.
func (c *Controller) CanPrevious() bool {
	return len(c.highlights) > 0 && c.cursor != 0
}

// CanNext reports whether the next affordance is enabled.
func (c *Controller) CanNext() bool {
	return len(c.highlights) > 0 && c.cursor != len(c.highlights)-1
}

// Current returns the focused highlight.
func (c *Controller) Current() (Highlight, bool) {
	if c.cursor < 0 || c.cursor >= len(c.highlights) {
		return Highlight{}, false
	}
	return c.highlights[c.cursor], true
}

// Highlights returns a copy of the session highlights.
func (c *Controller) Highlights() []Highlight {
	out := make([]Highlight, len(c.highlights))
	copy(out, c.highlights)
	return out
}

// Results returns the results of the live session.
func (c *Controller) Results() []domain.SearchResult {
	return c.results
}
