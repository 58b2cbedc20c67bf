package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sha1n/mcp-guide-search/internal/domain"
	"github.com/sha1n/mcp-guide-search/internal/guide"
	"github.com/sha1n/mcp-guide-search/internal/page"
	"github.com/sha1n/mcp-guide-search/internal/studyguide"
)

// Service is the part of the study guide service the browser drives.
type Service interface {
	Title() string
	Search(query string) (studyguide.Snapshot, error)
	Next() (studyguide.Snapshot, error)
	Previous() (studyguide.Snapshot, error)
	OpenResult(i int, style page.MarkStyle) (studyguide.Block, error)
	Clear() error
	OpenOverlay() error
	CloseOverlay() error
	Snapshot() (studyguide.Snapshot, error)
	Page() (*page.Page, error)
}

type mode int

const (
	modeSearch mode = iota
	modeRead
)

// searchMsg carries a debounced query.
type searchMsg struct {
	query string
}

type flashDoneMsg struct{}

// Model is the bubbletea model of the browser.
type Model struct {
	svc       Service
	styles    *Styles
	keys      *KeyMap
	input     textinput.Model
	debounce  time.Duration
	debouncer *guide.Debouncer
	send      func(tea.Msg)

	mode     mode
	snap     studyguide.Snapshot
	selected int
	reading  domain.SourceRef
	err      error
	width    int
}

// Option configures a Model.
type Option func(*Model)

// WithDebounce sets the quiet period before typed input is searched.
func WithDebounce(d time.Duration) Option {
	return func(m *Model) {
		if d >= 0 {
			m.debounce = d
		}
	}
}

// WithSender sets where debounced searches are delivered. Run uses the
// program's Send.
func WithSender(send func(tea.Msg)) Option {
	return func(m *Model) {
		m.send = send
	}
}

// WithStyles sets the styles.
func WithStyles(s *Styles) Option {
	return func(m *Model) {
		if s != nil {
			m.styles = s
		}
	}
}

// NewModel creates a browser over svc.
func NewModel(svc Service, opts ...Option) *Model {
	ti := textinput.New()
	ti.Placeholder = "חיפוש במדריך..."
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 50

	m := &Model{
		svc:      svc,
		styles:   DefaultStyles(),
		keys:     DefaultKeyMap(),
		input:    ti,
		debounce: guide.DefaultDebounce,
		mode:     modeSearch,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.debouncer = guide.NewDebouncer(m.debounce, func(query string) {
		if m.send != nil {
			m.send(searchMsg{query: query})
		}
	})

	if err := svc.OpenOverlay(); err != nil {
		m.err = err
	}
	m.refresh()
	return m
}

// Close stops pending searches.
func (m *Model) Close() {
	m.debouncer.Stop()
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-12, 20)
		return m, nil

	case searchMsg:
		// Superseded by later typing or a clear
		if msg.query != m.input.Value() {
			return m, nil
		}
		m.apply(m.svc.Search(msg.query))
		m.selected = 0
		return m, nil

	case flashDoneMsg:
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.debouncer.Stop()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Next):
		m.apply(m.svc.Next())
		m.follow()
		return m, nil
	case key.Matches(msg, m.keys.Previous):
		m.apply(m.svc.Previous())
		m.follow()
		return m, nil
	}

	if m.mode == modeRead {
		return m.handleReadKey(msg)
	}
	return m.handleSearchKey(msg)
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.snap.Views)-1 {
			m.selected++
		}
		return m, nil
	case key.Matches(msg, m.keys.Open):
		return m.open()
	case key.Matches(msg, m.keys.Back):
		return m.back()
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if value := m.input.Value(); value != before {
		m.debouncer.Trigger(value)
	}
	return m, cmd
}

func (m *Model) handleReadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Search):
		if err := m.svc.OpenOverlay(); err != nil {
			m.err = err
			return m, nil
		}
		m.mode = modeSearch
		m.refresh()
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Back):
		if err := m.svc.Clear(); err != nil {
			m.err = err
		}
		m.refresh()
		return m, nil
	}
	return m, nil
}

// open jumps to the selected result. Ignored while a typed query is still
// waiting to be searched since the list on screen is about to change.
func (m *Model) open() (tea.Model, tea.Cmd) {
	if m.debouncer.Pending() || len(m.snap.Views) == 0 {
		return m, nil
	}

	block, err := m.svc.OpenResult(m.selected, page.PlainStyle)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.reading = block.Entry.SourceRef
	m.mode = modeRead
	m.input.Blur()
	m.refresh()

	return m, tea.Tick(page.FlashDuration, func(time.Time) tea.Msg {
		return flashDoneMsg{}
	})
}

// back clears the search, or closes the overlay when there is nothing to
// clear.
func (m *Model) back() (tea.Model, tea.Cmd) {
	if m.input.Value() != "" || m.snap.Query != "" || len(m.snap.Views) > 0 {
		m.input.Reset()
		if err := m.svc.Clear(); err != nil {
			m.err = err
		}
		m.selected = 0
		m.refresh()
		return m, nil
	}

	if err := m.svc.CloseOverlay(); err != nil {
		m.err = err
		return m, nil
	}
	m.mode = modeRead
	m.input.Blur()
	m.refresh()
	return m, nil
}

// follow keeps the view on the active highlight: the reader switches to its
// block and the list selects its result.
func (m *Model) follow() {
	if !m.snap.Status.HasCurrent {
		return
	}
	ref := m.snap.Status.Current.SourceRef
	if m.mode == modeRead {
		m.reading = ref
		return
	}
	for i, v := range m.snap.Views {
		if v.Ref == ref {
			m.selected = i
			return
		}
	}
}

func (m *Model) refresh() {
	m.apply(m.svc.Snapshot())
}

func (m *Model) apply(snap studyguide.Snapshot, err error) {
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.snap = snap
	if m.selected >= len(snap.Views) {
		m.selected = max(len(snap.Views)-1, 0)
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render(m.svc.Title()))
	b.WriteString("\n\n")

	if m.mode == modeSearch {
		b.WriteString(m.searchView())
	} else {
		b.WriteString(m.readView())
	}

	b.WriteString("\n")
	b.WriteString(m.statusLine())
	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(m.styles.Error.Render(m.err.Error()))
	}
	return b.String()
}

func (m *Model) searchView() string {
	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, m.styles.Label.Render("Search: "), m.input.View()))
	b.WriteString("\n\n")

	if len(m.snap.Views) == 0 {
		if strings.TrimSpace(m.snap.Query) != "" {
			b.WriteString(m.styles.Muted.Render(fmt.Sprintf("No results for %q", m.snap.Query)))
		} else {
			b.WriteString(m.styles.Muted.Render("Type to search the guide"))
		}
		b.WriteString("\n")
		return b.String()
	}

	for i, v := range m.snap.Views {
		cursor := "  "
		rank := fmt.Sprintf("%d.", v.Rank)
		if i == m.selected {
			cursor = m.styles.Selected.Render("> ")
			rank = m.styles.Selected.Render(rank)
		}
		fmt.Fprintf(&b, "%s%s %s %s\n", cursor, rank, m.styles.Label.Render("["+v.Label+"]"), m.highlight(v.Title, v.TitleMatches))
		if v.Snippet != "" {
			fmt.Fprintf(&b, "     %s\n", m.highlight(v.Snippet, v.SnippetMatches))
		}
	}
	return b.String()
}

func (m *Model) readView() string {
	if m.reading == "" {
		return m.styles.Muted.Render("Press / to search the guide") + "\n"
	}

	p, err := m.svc.Page()
	if err != nil {
		return m.styles.Error.Render(err.Error()) + "\n"
	}
	entry, ok := p.Entry(m.reading)
	if !ok {
		return m.styles.Muted.Render("Press / to search the guide") + "\n"
	}

	var body strings.Builder
	for _, s := range p.Segments(m.reading) {
		switch {
		case s.Active:
			body.WriteString(m.styles.Active.Render(s.Text))
		case s.Marked():
			body.WriteString(m.styles.Match.Render(s.Text))
		default:
			body.WriteString(s.Text)
		}
	}

	frame := m.styles.Block
	if p.Flashing(m.reading) {
		frame = m.styles.Flash
	}
	if m.width > 4 {
		frame = frame.Width(m.width - 4)
	}

	header := fmt.Sprintf("%s %s", m.styles.Label.Render("["+entry.Category.Label()+"]"), m.styles.Selected.Render(entry.Title))
	return header + "\n" + frame.Render(body.String()) + "\n"
}

func (m *Model) highlight(text string, matches []guide.Match) string {
	var b strings.Builder
	for _, s := range page.MatchSegments(text, matches) {
		if s.Marked() {
			b.WriteString(m.styles.Match.Render(s.Text))
		} else {
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

func (m *Model) statusLine() string {
	counter := m.styles.Counter.Render("Match " + m.snap.Status.Counter)
	var hint string
	if m.mode == modeSearch {
		hint = help(m.keys.Next, m.keys.Previous, m.keys.Open, m.keys.Back, m.keys.Quit)
	} else {
		hint = help(m.keys.Next, m.keys.Previous, m.keys.Search, m.keys.Back, m.keys.Quit)
	}
	return counter + "  " + m.styles.Muted.Render(hint)
}
