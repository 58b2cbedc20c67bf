package guide

import (
	"reflect"
	"testing"

	"github.com/sha1n/mcp-guide-search/internal/domain"
)

func TestNewMatcher(t *testing.T) {
	index := sampleIndex()

	m, err := NewMatcher("", index)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, ok := m.(*ScanMatcher); !ok {
		t.Errorf("Expected default matcher to be a scan matcher, got %T", m)
	}

	m, err = NewMatcher("bleve", index)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	bm, ok := m.(*BleveMatcher)
	if !ok {
		t.Fatalf("Expected bleve matcher, got %T", m)
	}
	if err := bm.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	if _, err := NewMatcher("fuzzy", index); err == nil {
		t.Error("Expected error for unknown matcher")
	}
}

func TestBleveMatcher_AgreesWithScan(t *testing.T) {
	index := append(sampleIndex(),
		entry("Wildcards", "a*b and a?b are literal", 5),
		entry("Mixed Case", "Cauchy Sequence", 6),
	)

	bm, err := NewBleveMatcher(index)
	if err != nil {
		t.Fatalf("NewBleveMatcher failed: %v", err)
	}
	defer func() {
		if err := bm.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	}()

	scan := NewEngine(index)
	bleveEngine := NewEngine(index, WithMatcher(bm))

	queries := []string{
		"גבול",
		"גבול סדרה",
		"סדרה מונוטונית",
		"lim",
		"a_n",
		"a*b",
		"a?b",
		"cauchy sequence",
		"SEQUENCE",
		"אין כזה",
		"",
	}

	for _, q := range queries {
		want := scan.Search(q)
		got := bleveEngine.Search(q)
		if !reflect.DeepEqual(want, got) {
			t.Errorf("Query %q: bleve results differ from scan\nwant %v\ngot  %v", q, want, got)
		}
	}
}

func TestBleveMatcher_Candidates(t *testing.T) {
	index := []domain.IndexEntry{
		entry("one", "alpha beta", 0),
		entry("two", "beta gamma", 1),
		entry("three", "gamma alpha", 2),
	}

	bm, err := NewBleveMatcher(index)
	if err != nil {
		t.Fatalf("NewBleveMatcher failed: %v", err)
	}
	defer func() { _ = bm.Close() }()

	got, err := bm.Match([]string{"alpha"})
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if !reflect.DeepEqual(got, []int{0, 2}) {
		t.Errorf("Expected [0 2], got %v", got)
	}

	got, err = bm.Match([]string{"alpha", "gamma"})
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if !reflect.DeepEqual(got, []int{2}) {
		t.Errorf("Expected [2], got %v", got)
	}
}

func TestBleveMatcher_EmptyIndex(t *testing.T) {
	bm, err := NewBleveMatcher(nil)
	if err != nil {
		t.Fatalf("NewBleveMatcher failed: %v", err)
	}
	defer func() { _ = bm.Close() }()

	got, err := bm.Match([]string{"x"})
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected no candidates, got %v", got)
	}
}

func TestEngine_CloseReleasesBleveMatcher(t *testing.T) {
	bm, err := NewBleveMatcher(sampleIndex())
	if err != nil {
		t.Fatalf("NewBleveMatcher failed: %v", err)
	}
	e := NewEngine(sampleIndex(), WithMatcher(bm))
	if err := e.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	if err := NewEngine(sampleIndex()).Close(); err != nil {
		t.Errorf("Closing a scan engine should be a no-op, got %v", err)
	}
}

func TestEscapeWildcard(t *testing.T) {
	if got := escapeWildcard("a*b?c"); got != "a?b?c" {
		t.Errorf("Expected 'a?b?c', got %q", got)
	}
}
