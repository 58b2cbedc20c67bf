package guide

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/sha1n/mcp-guide-search/internal/domain"
)

func entry(title, body string, ordinal int) domain.IndexEntry {
	return domain.IndexEntry{
		Category:  domain.CategoryTopic,
		Title:     title,
		Body:      body,
		SourceRef: domain.SourceRef(fmt.Sprintf("topic-%d", ordinal)),
		Ordinal:   ordinal,
	}
}

func sampleIndex() []domain.IndexEntry {
	return BuildIndex([]domain.ContentBlock{
		{Category: domain.CategoryTopic, Heading: "סדרות", RawText: "סדרות: גבול של סדרה, סדרות מונוטוניות", SourceRef: "sequences"},
		{Category: domain.CategoryDefinition, RawText: "הגדרה: גבול של סדרה: לכל אפסילון קיים N", SourceRef: "def-limit"},
		{Category: domain.CategoryTheorem, RawText: "משפט: סדרה מונוטונית וחסומה מתכנסת", SourceRef: "thm-monotone"},
		{Category: domain.CategoryProperty, RawText: "תכונה: אריתמטיקה של גבולות: גבול סכום הוא סכום הגבולות", SourceRef: "prop-arith"},
		{Category: domain.CategoryNotation, RawText: "סימון: lim a_n", SourceRef: "not-lim"},
	})
}

func TestSearch_EmptyQuery(t *testing.T) {
	for _, q := range []string{"", "   ", "\t\n"} {
		results := Search(sampleIndex(), q)
		if results == nil {
			t.Errorf("Expected non-nil empty results for %q", q)
		}
		if len(results) != 0 {
			t.Errorf("Expected no results for %q, got %d", q, len(results))
		}
	}
}

func TestSearch_EmptyIndex(t *testing.T) {
	results := Search(BuildIndex(nil), "גבול")
	if len(results) != 0 {
		t.Errorf("Expected no results on empty index, got %d", len(results))
	}
}

func TestSearch_AndSemantics(t *testing.T) {
	index := sampleIndex()
	queries := []string{"גבול", "גבול סדרה", "סדרה מונוטונית", "LIM", "גבול אפסילון", "לא קיים בכלל"}

	for _, q := range queries {
		terms := Terms(q)
		results := Search(index, q)
		returned := make(map[domain.SourceRef]bool)

		for _, r := range results {
			returned[r.Entry.SourceRef] = true
			text := SearchableText(r.Entry)
			for _, term := range terms {
				if !strings.Contains(text, term) {
					t.Errorf("Query %q: result %s is missing term %q", q, r.Entry.SourceRef, term)
				}
			}
		}

		// Every entry containing all terms must be returned.
		for _, e := range index {
			if containsAll(SearchableText(e), terms) && !returned[e.SourceRef] {
				t.Errorf("Query %q: qualifying entry %s was not returned", q, e.SourceRef)
			}
		}
	}
}

func TestSearch_Deterministic(t *testing.T) {
	index := sampleIndex()
	first := Search(index, "גבול סדרה")
	second := Search(index, "גבול סדרה")
	if !reflect.DeepEqual(first, second) {
		t.Error("Expected identical results for identical searches")
	}
}

func TestSearch_CarriesQueryVerbatim(t *testing.T) {
	results := Search(sampleIndex(), "  גבול  ")
	if len(results) == 0 {
		t.Fatal("Expected results")
	}
	for _, r := range results {
		if r.Query != "  גבול  " {
			t.Errorf("Expected verbatim query, got %q", r.Query)
		}
	}
}

func TestSearch_DefinitionScenario(t *testing.T) {
	index := BuildIndex([]domain.ContentBlock{
		{Category: domain.CategoryDefinition, RawText: "הגדרה: גבול של סדרה: סדרה מתכנסת לגבול L אם..."},
	})
	if index[0].Title != "גבול של סדרה" {
		t.Fatalf("Expected extracted title 'גבול של סדרה', got %q", index[0].Title)
	}

	results := Search(index, "גבול")
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	// 10 (title) + 1 (match) + 5 (phrase)
	if results[0].Score != 16 {
		t.Errorf("Expected score 16, got %d", results[0].Score)
	}
}

func TestSearch_TitleMatchRanksFirst(t *testing.T) {
	index := []domain.IndexEntry{
		entry("Alpha", "x y in the body only", 0),
		entry("x y", "x y again", 1),
	}

	results := Search(index, "x y")
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Entry.Ordinal != 1 {
		t.Errorf("Expected title match first, got ordinal %d", results[0].Entry.Ordinal)
	}
	// per term: 10 + 1 + 5, twice
	if results[0].Score != 32 {
		t.Errorf("Expected score 32, got %d", results[0].Score)
	}
	// per term: 1 + 5, twice
	if results[1].Score != 12 {
		t.Errorf("Expected score 12, got %d", results[1].Score)
	}
}

func TestSearch_TitleBonusMonotonicity(t *testing.T) {
	index := []domain.IndexEntry{
		entry("other", "term in body", 0),
		entry("term", "term in body", 1),
	}

	results := Search(index, "term")
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if diff := results[0].Score - results[1].Score; diff < TitleWeight {
		t.Errorf("Expected title match to score at least %d more, got %d", TitleWeight, diff)
	}
}

func TestSearch_PhraseBonusModes(t *testing.T) {
	index := []domain.IndexEntry{entry("x y", "x y", 0)}

	perTerm := NewEngine(index).Search("x y")
	once := NewEngine(index, WithPhraseBonus(PhraseBonusOnce)).Search("x y")

	if perTerm[0].Score != 32 {
		t.Errorf("Expected per-term score 32, got %d", perTerm[0].Score)
	}
	if once[0].Score != 27 {
		t.Errorf("Expected once score 27, got %d", once[0].Score)
	}
}

func TestSearch_NoPhraseBonusWhenPhraseAbsent(t *testing.T) {
	index := []domain.IndexEntry{entry("title", "y then x", 0)}

	results := Search(index, "x y")
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].Score != 2 {
		t.Errorf("Expected score 2 without phrase bonus, got %d", results[0].Score)
	}
}

func TestSearch_TiesKeepIndexOrder(t *testing.T) {
	index := []domain.IndexEntry{
		entry("a", "common", 0),
		entry("b", "common", 1),
		entry("c", "common", 2),
	}

	results := Search(index, "common")
	for i, r := range results {
		if r.Entry.Ordinal != i {
			t.Errorf("Position %d: expected ordinal %d, got %d", i, i, r.Entry.Ordinal)
		}
	}
}

func TestSearch_CaseInsensitive(t *testing.T) {
	index := []domain.IndexEntry{entry("Cauchy", "Cauchy SEQUENCE", 0)}

	if len(Search(index, "cauchy sequence")) != 1 {
		t.Error("Expected lowercase query to match")
	}
	if len(Search(index, "CAUCHY Sequence")) != 1 {
		t.Error("Expected mixed-case query to match")
	}
}

func TestParsePhraseBonus(t *testing.T) {
	tests := []struct {
		input   string
		want    PhraseBonus
		wantErr bool
	}{
		{"", PhraseBonusPerTerm, false},
		{"per_term", PhraseBonusPerTerm, false},
		{"ONCE", PhraseBonusOnce, false},
		{"twice", PhraseBonusPerTerm, true},
	}

	for _, tt := range tests {
		got, err := ParsePhraseBonus(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePhraseBonus(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParsePhraseBonus(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}

	if PhraseBonusOnce.String() != "once" || PhraseBonusPerTerm.String() != "per_term" {
		t.Error("Unexpected phrase bonus names")
	}
}

type failingMatcher struct{}

func (failingMatcher) Match([]string) ([]int, error) {
	return nil, errors.New("matcher down")
}

func TestEngine_MatcherFailureFallsBackToScan(t *testing.T) {
	index := sampleIndex()
	want := Search(index, "גבול")

	got := NewEngine(index, WithMatcher(failingMatcher{})).Search("גבול")
	if !reflect.DeepEqual(want, got) {
		t.Error("Expected fallback scan to produce the default results")
	}
}

type supersetMatcher struct{ n int }

func (m supersetMatcher) Match([]string) ([]int, error) {
	return allPositions(m.n), nil
}

func TestEngine_VerifiesMatcherCandidates(t *testing.T) {
	index := sampleIndex()
	want := Search(index, "מונוטונית")

	got := NewEngine(index, WithMatcher(supersetMatcher{n: len(index)})).Search("מונוטונית")
	if !reflect.DeepEqual(want, got) {
		t.Errorf("Expected superset candidates to be narrowed, got %d results want %d", len(got), len(want))
	}
}

func TestEngine_IgnoresOutOfRangeCandidates(t *testing.T) {
	index := sampleIndex()
	got := NewEngine(index, WithMatcher(supersetMatcher{n: len(index) + 3})).Search("סדרה")
	if len(got) != len(Search(index, "סדרה")) {
		t.Error("Expected out-of-range candidates to be skipped")
	}
}
