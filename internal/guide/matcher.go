package guide

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/single"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/sha1n/mcp-guide-search/internal/domain"
)

// Matcher selects candidate index positions for a set of folded terms.
// Candidates may be a superset of the qualifying entries; the Engine checks
// every term again before scoring. Positions are returned in index order.
type Matcher interface {
	Match(terms []string) ([]int, error)
}

// Matcher names accepted by NewMatcher.
const (
	MatcherScan  = "scan"
	MatcherBleve = "bleve"
)

// NewMatcher creates the matcher registered under name.
func NewMatcher(name string, index []domain.IndexEntry) (Matcher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", MatcherScan:
		return NewScanMatcher(index), nil
	case MatcherBleve:
		return NewBleveMatcher(index)
	default:
		return nil, fmt.Errorf("unknown matcher: %s", name)
	}
}

// ScanMatcher tests every entry with a substring scan.
type ScanMatcher struct {
	texts []string
}

// NewScanMatcher creates a scan matcher over index.
func NewScanMatcher(index []domain.IndexEntry) *ScanMatcher {
	texts := make([]string, len(index))
	for i, e := range index {
		texts[i] = SearchableText(e)
	}
	return &ScanMatcher{texts: texts}
}

// Match returns the positions whose text contains every term.
func (m *ScanMatcher) Match(terms []string) ([]int, error) {
	var out []int
	for i, text := range m.texts {
		if containsAll(text, terms) {
			out = append(out, i)
		}
	}
	return out, nil
}

func containsAll(text string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(text, t) {
			return false
		}
	}
	return true
}

const (
	// matcherField holds the folded searchable text of an entry.
	matcherField = "text"

	// foldedAnalyzer keeps the whole field as one lowercased token so
	// wildcard queries behave as substring tests.
	foldedAnalyzer = "folded_keyword"
)

// matcherDocument is the bleve document stored per entry.
type matcherDocument struct {
	Text string `json:"text"`
}

// BleveMatcher finds candidates with an in-memory bleve index. Each term
// becomes a "*term*" wildcard query on a single-token field; all terms are
// combined with a conjunction.
type BleveMatcher struct {
	index bleve.Index
	size  int
}

// NewBleveMatcher indexes the searchable text of every entry in memory.
func NewBleveMatcher(index []domain.IndexEntry) (*BleveMatcher, error) {
	indexMapping, err := createMatcherMapping()
	if err != nil {
		return nil, fmt.Errorf("failed to create matcher mapping: %w", err)
	}

	idx, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		return nil, fmt.Errorf("failed to create matcher index: %w", err)
	}

	batch := idx.NewBatch()
	for i, e := range index {
		if err := batch.Index(strconv.Itoa(i), matcherDocument{Text: SearchableText(e)}); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("failed to index entry %d: %w", i, err)
		}
	}
	if batch.Size() > 0 {
		if err := idx.Batch(batch); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("batch index failed: %w", err)
		}
	}

	return &BleveMatcher{index: idx, size: len(index)}, nil
}

// createMatcherMapping creates the mapping for matcher documents.
func createMatcherMapping() (mapping.IndexMapping, error) {
	indexMapping := bleve.NewIndexMapping()
	err := indexMapping.AddCustomAnalyzer(foldedAnalyzer, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     single.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, err
	}

	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = foldedAnalyzer
	textField.Store = false
	textField.IncludeInAll = false
	textField.IncludeTermVectors = false

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt(matcherField, textField)

	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = foldedAnalyzer

	return indexMapping, nil
}

// Match returns candidate positions in index order.
func (m *BleveMatcher) Match(terms []string) ([]int, error) {
	if len(terms) == 0 || m.size == 0 {
		return nil, nil
	}

	queries := make([]query.Query, 0, len(terms))
	for _, term := range terms {
		q := bleve.NewWildcardQuery("*" + escapeWildcard(term) + "*")
		q.SetField(matcherField)
		queries = append(queries, q)
	}

	req := bleve.NewSearchRequestOptions(bleve.NewConjunctionQuery(queries...), m.size, 0, false)
	res, err := m.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("matcher search failed: %w", err)
	}

	out := make([]int, 0, len(res.Hits))
	for _, hit := range res.Hits {
		pos, err := strconv.Atoi(hit.ID)
		if err != nil {
			return nil, fmt.Errorf("unexpected document id %q: %w", hit.ID, err)
		}
		out = append(out, pos)
	}
	sort.Ints(out)

	return out, nil
}

// escapeWildcard turns literal wildcard characters into single-rune
// wildcards. The query then matches a superset, which the engine narrows.
func escapeWildcard(term string) string {
	return strings.NewReplacer("*", "?", "?", "?").Replace(term)
}

// Close releases the in-memory index.
func (m *BleveMatcher) Close() error {
	return m.index.Close()
}
