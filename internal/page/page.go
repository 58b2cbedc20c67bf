package page

import (
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/sha1n/mcp-guide-search/internal/domain"
	"github.com/sha1n/mcp-guide-search/internal/guide"
)

// FlashDuration is how long a revealed block stays flashed.
const FlashDuration = time.Second

// MarkStyle holds the markers spliced around marked text by Render.
type MarkStyle struct {
	Open        string
	Close       string
	ActiveOpen  string
	ActiveClose string
	// EscapeHTML escapes the unmarked and marked text.
	EscapeHTML bool
}

// Mark styles for the supported outputs.
var (
	MarkdownStyle = MarkStyle{Open: "**", Close: "**", ActiveOpen: "**[", ActiveClose: "]**"}
	HTMLStyle     = MarkStyle{
		Open:        `<mark>`,
		Close:       `</mark>`,
		ActiveOpen:  `<mark class="active">`,
		ActiveClose: `</mark>`,
		EscapeHTML:  true,
	}
	PlainStyle = MarkStyle{}
)

func (s MarkStyle) text(t string) string {
	if s.EscapeHTML {
		return html.EscapeString(t)
	}
	return t
}

func (s MarkStyle) wrap(t string, active bool) string {
	if active {
		return s.ActiveOpen + s.text(t) + s.ActiveClose
	}
	return s.Open + s.text(t) + s.Close
}

// Segment is a run of block text that is either fully marked or unmarked.
type Segment struct {
	Text   string
	Mark   guide.MarkID
	Active bool
}

// Marked reports whether the segment is inside a mark.
func (s Segment) Marked() bool {
	return s.Mark != 0
}

type block struct {
	entry domain.IndexEntry
	runes []rune
}

type mark struct {
	id     guide.MarkID
	ref    domain.SourceRef
	start  int
	end    int
	active bool
}

// Page is an in-memory rendering surface over the indexed blocks of a
// guide. Block text is fixed at construction; marks are kept beside it so
// removing a mark restores the text exactly. Page is safe for concurrent
// use.
type Page struct {
	mu    sync.RWMutex
	title string
	order []domain.SourceRef
	text  map[domain.SourceRef]*block
	marks map[guide.MarkID]*mark
	last  guide.MarkID

	focused    domain.SourceRef
	flashed    domain.SourceRef
	flashUntil time.Time
	now        func() time.Time

	results     []guide.ResultView
	listState   guide.ListState
	counter     string
	canPrevious bool
	canNext     bool
	visible     bool
}

var _ guide.Surface = (*Page)(nil)

// PageOption configures a Page.
type PageOption func(*Page)

// WithClock sets the time source used for flashing.
func WithClock(now func() time.Time) PageOption {
	return func(p *Page) {
		if now != nil {
			p.now = now
		}
	}
}

// New creates a page holding the body text of entries.
func New(title string, entries []domain.IndexEntry, opts ...PageOption) *Page {
	p := &Page{
		title:   title,
		order:   make([]domain.SourceRef, 0, len(entries)),
		text:    make(map[domain.SourceRef]*block, len(entries)),
		marks:   make(map[guide.MarkID]*mark),
		now:     time.Now,
		counter: "0/0",
	}
	for _, e := range entries {
		if _, dup := p.text[e.SourceRef]; dup {
			continue
		}
		p.order = append(p.order, e.SourceRef)
		p.text[e.SourceRef] = &block{entry: e, runes: []rune(e.Body)}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Title returns the document title.
func (p *Page) Title() string {
	return p.title
}

// Refs returns the block references in document order.
func (p *Page) Refs() []domain.SourceRef {
	out := make([]domain.SourceRef, len(p.order))
	copy(out, p.order)
	return out
}

// Entry returns the indexed entry of the block at ref.
func (p *Page) Entry(ref domain.SourceRef) (domain.IndexEntry, bool) {
	b, ok := p.text[ref]
	if !ok {
		return domain.IndexEntry{}, false
	}
	return b.entry, true
}

// Text returns the unmarked text of the block at ref.
func (p *Page) Text(ref domain.SourceRef) (string, bool) {
	b, ok := p.text[ref]
	if !ok {
		return "", false
	}
	return b.entry.Body, true
}

// Mark marks runes [start, end) of the block at ref. The range is clamped
// to the block; empty ranges and unknown blocks are not marked and yield 0.
func (p *Page) Mark(ref domain.SourceRef, start, end int) guide.MarkID {
	p.mu.Lock()
	defer p.mu.Unlock()

	b, ok := p.text[ref]
	if !ok {
		return 0
	}
	start = max(start, 0)
	end = min(end, len(b.runes))
	if start >= end {
		return 0
	}

	p.last++
	p.marks[p.last] = &mark{id: p.last, ref: ref, start: start, end: end}
	return p.last
}

// Unmark removes a mark. Unknown ids are ignored.
func (p *Page) Unmark(id guide.MarkID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.marks, id)
}

// SetActive sets the active flag of a mark.
func (p *Page) SetActive(id guide.MarkID, active bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := p.marks[id]; ok {
		m.active = active
	}
}

// Reveal focuses the block at ref and flashes it for FlashDuration.
func (p *Page) Reveal(ref domain.SourceRef) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.text[ref]; !ok {
		return
	}
	p.focused = ref
	p.flashed = ref
	p.flashUntil = p.now().Add(FlashDuration)
}

// Focused returns the most recently revealed block.
func (p *Page) Focused() (domain.SourceRef, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.focused, p.focused != ""
}

// Flashing reports whether the block at ref is inside its flash period.
func (p *Page) Flashing(ref domain.SourceRef) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return ref != "" && ref == p.flashed && p.now().Before(p.flashUntil)
}

// RenderResults stores the results list.
func (p *Page) RenderResults(results []guide.ResultView, state guide.ListState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = results
	p.listState = state
}

// Results returns the results list and its state.
func (p *Page) Results() ([]guide.ResultView, guide.ListState) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.results, p.listState
}

// SetStatus stores the counter and navigation affordances.
func (p *Page) SetStatus(counter string, canPrevious, canNext bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counter = counter
	p.canPrevious = canPrevious
	p.canNext = canNext
}

// Status returns the counter and navigation affordances.
func (p *Page) Status() (counter string, canPrevious, canNext bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.counter, p.canPrevious, p.canNext
}

// SetVisible opens or closes the search overlay.
func (p *Page) SetVisible(visible bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visible = visible
}

// Visible reports whether the search overlay is open.
func (p *Page) Visible() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.visible
}

// MarkCount returns the number of live marks.
func (p *Page) MarkCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.marks)
}

// Segments splits the block at ref into marked and unmarked runs. A mark
// overlapping an earlier one is not applied.
func (p *Page) Segments(ref domain.SourceRef) []Segment {
	p.mu.RLock()
	defer p.mu.RUnlock()

	b, ok := p.text[ref]
	if !ok {
		return nil
	}
	return segments(b.runes, p.blockMarks(ref))
}

// Render returns the text of the block at ref with style markers around
// every mark.
func (p *Page) Render(ref domain.SourceRef, style MarkStyle) string {
	return renderSegments(p.Segments(ref), style)
}

// Context returns the text around mark id, radius runes on each side, with
// the mark rendered in style. Cut ends carry guide.Ellipsis.
func (p *Page) Context(id guide.MarkID, radius int, style MarkStyle) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	m, ok := p.marks[id]
	if !ok {
		return "", false
	}
	runes := p.text[m.ref].runes
	radius = max(radius, 0)
	from := max(m.start-radius, 0)
	to := min(m.end+radius, len(runes))

	var sb strings.Builder
	if from > 0 {
		sb.WriteString(guide.Ellipsis)
	}
	sb.WriteString(style.text(string(runes[from:m.start])))
	sb.WriteString(style.wrap(string(runes[m.start:m.end]), m.active))
	sb.WriteString(style.text(string(runes[m.end:to])))
	if to < len(runes) {
		sb.WriteString(guide.Ellipsis)
	}
	return sb.String(), true
}

func (p *Page) blockMarks(ref domain.SourceRef) []*mark {
	var out []*mark
	for _, m := range p.marks {
		if m.ref == ref {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].start != out[j].start {
			return out[i].start < out[j].start
		}
		return out[i].id < out[j].id
	})
	return out
}

func segments(runes []rune, marks []*mark) []Segment {
	var out []Segment
	pos := 0
	for _, m := range marks {
		if m.start < pos {
			continue
		}
		if m.start > pos {
			out = append(out, Segment{Text: string(runes[pos:m.start])})
		}
		out = append(out, Segment{Text: string(runes[m.start:m.end]), Mark: m.id, Active: m.active})
		pos = m.end
	}
	if pos < len(runes) {
		out = append(out, Segment{Text: string(runes[pos:])})
	}
	return out
}

func renderSegments(segs []Segment, style MarkStyle) string {
	var sb strings.Builder
	for _, s := range segs {
		if s.Marked() {
			sb.WriteString(style.wrap(s.Text, s.Active))
		} else {
			sb.WriteString(style.text(s.Text))
		}
	}
	return sb.String()
}

// MatchSegments splits text into runs marked by matches. Matches must be
// ordered; a match overlapping an earlier one is not applied.
func MatchSegments(text string, matches []guide.Match) []Segment {
	runes := []rune(text)
	marks := make([]*mark, 0, len(matches))
	for i, m := range matches {
		start := max(m.Start, 0)
		end := min(m.End, len(runes))
		if start >= end {
			continue
		}
		marks = append(marks, &mark{id: guide.MarkID(i + 1), start: start, end: end})
	}
	return segments(runes, marks)
}

// Decorate renders text with style markers around matches, as used for
// result titles and snippets.
func Decorate(text string, matches []guide.Match, style MarkStyle) string {
	return renderSegments(MatchSegments(text, matches), style)
}
