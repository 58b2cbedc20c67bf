package guide

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/sha1n/mcp-guide-search/internal/domain"
)

// Score weights.
const (
	TitleWeight  = 10
	MatchWeight  = 1
	PhraseWeight = 5
)

// PhraseBonus selects how the whole-query bonus is applied.
type PhraseBonus int

const (
	// PhraseBonusPerTerm adds PhraseWeight once for every matched term when
	// the whole query occurs in the entry. This is the default.
	PhraseBonusPerTerm PhraseBonus = iota
	// PhraseBonusOnce adds PhraseWeight once per query.
	PhraseBonusOnce
)

// ParsePhraseBonus parses "per_term" or "once". An empty string selects
// PhraseBonusPerTerm.
func ParsePhraseBonus(s string) (PhraseBonus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "per_term":
		return PhraseBonusPerTerm, nil
	case "once":
		return PhraseBonusOnce, nil
	default:
		return PhraseBonusPerTerm, fmt.Errorf("unknown phrase bonus mode: %s", s)
	}
}

// String returns the configuration name of the mode.
func (p PhraseBonus) String() string {
	if p == PhraseBonusOnce {
		return "once"
	}
	return "per_term"
}

// SearchableText is the folded text a query is matched against.
func SearchableText(e domain.IndexEntry) string {
	return Fold(e.Title + " " + e.Body)
}

type searchDoc struct {
	title string
	text  string
}

// Engine ranks index entries against free-text queries.
type Engine struct {
	entries     []domain.IndexEntry
	docs        []searchDoc
	matcher     Matcher
	phraseBonus PhraseBonus
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMatcher sets the candidate matcher. The default is a ScanMatcher.
func WithMatcher(m Matcher) EngineOption {
	return func(e *Engine) {
		if m != nil {
			e.matcher = m
		}
	}
}

// WithPhraseBonus sets the phrase bonus mode.
func WithPhraseBonus(p PhraseBonus) EngineOption {
	return func(e *Engine) {
		e.phraseBonus = p
	}
}

// NewEngine creates an engine over index. The index is not copied and must
// not be modified afterwards.
func NewEngine(index []domain.IndexEntry, opts ...EngineOption) *Engine {
	e := &Engine{
		entries: index,
		docs:    make([]searchDoc, len(index)),
	}
	for i, entry := range index {
		e.docs[i] = searchDoc{
			title: Fold(entry.Title),
			text:  SearchableText(entry),
		}
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.matcher == nil {
		e.matcher = NewScanMatcher(index)
	}
	return e
}

// Search runs query against index with the default engine configuration.
func Search(index []domain.IndexEntry, query string) []domain.SearchResult {
	return NewEngine(index).Search(query)
}

// Entries returns the indexed entries.
func (e *Engine) Entries() []domain.IndexEntry {
	return e.entries
}

// PhraseBonus returns the configured phrase bonus mode.
func (e *Engine) PhraseBonus() PhraseBonus {
	return e.phraseBonus
}

// Search returns the entries containing every query term, highest score
// first. Ties keep index order. An empty query yields no results.
func (e *Engine) Search(query string) []domain.SearchResult {
	terms := Terms(query)
	if len(terms) == 0 {
		return []domain.SearchResult{}
	}

	candidates, err := e.matcher.Match(terms)
	if err != nil {
		slog.Warn("Matcher failed, falling back to scan", "error", err)
		candidates = allPositions(len(e.docs))
	}

	phrase := Fold(strings.TrimSpace(query))
	results := make([]domain.SearchResult, 0, len(candidates))
	for _, pos := range candidates {
		if pos < 0 || pos >= len(e.docs) {
			continue
		}
		score, ok := e.score(e.docs[pos], terms, phrase)
		if !ok {
			continue
		}
		results = append(results, domain.SearchResult{
			Entry: e.entries[pos],
			Score: score,
			Query: query,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results
}

// score returns false when any term is missing from the entry.
func (e *Engine) score(doc searchDoc, terms []string, phrase string) (int, bool) {
	phraseHit := strings.Contains(doc.text, phrase)
	score := 0

	for _, term := range terms {
		if !strings.Contains(doc.text, term) {
			return 0, false
		}
		if strings.Contains(doc.title, term) {
			score += TitleWeight
		}
		score += MatchWeight
		if phraseHit && e.phraseBonus == PhraseBonusPerTerm {
			score += PhraseWeight
		}
	}

	if phraseHit && e.phraseBonus == PhraseBonusOnce {
		score += PhraseWeight
	}

	return score, true
}

// Close releases the matcher if it holds resources.
func (e *Engine) Close() error {
	if c, ok := e.matcher.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func allPositions(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
