package guide

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Ellipsis is appended to text shortened by Truncate.
const Ellipsis = "..."

// skippedElements hold payloads that are not part of the readable text.
var skippedElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
}

// CleanText extracts the readable text of an HTML fragment. Script and style
// payloads and comments are dropped, entities are decoded, whitespace runs
// are collapsed to a single space and the result is trimmed.
// Plain text passes through with only whitespace normalisation.
func CleanText(raw string) string {
	z := html.NewTokenizer(strings.NewReader(raw))
	var sb strings.Builder
	depth := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			return CollapseWhitespace(sb.String())
		case html.StartTagToken:
			name, _ := z.TagName()
			if skippedElements[atom.Lookup(name)] {
				depth++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if skippedElements[atom.Lookup(name)] && depth > 0 {
				depth--
			}
		case html.TextToken:
			if depth == 0 {
				sb.Write(z.Text())
			}
		}
	}
}

// CollapseWhitespace replaces every whitespace run with a single space and
// trims both ends.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Fold lowercases s rune by rune. The rune count is preserved, so rune
// offsets into the folded string are valid for the original.
func Fold(s string) string {
	return strings.Map(unicode.ToLower, s)
}

// Terms splits a query into folded search terms. An empty or
// whitespace-only query yields no terms.
func Terms(query string) []string {
	return strings.Fields(Fold(query))
}

// Truncate shortens s to at most n runes, trims trailing whitespace and
// appends Ellipsis. Strings that fit are returned unchanged.
func Truncate(s string, n int) string {
	if n < 0 {
		n = 0
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimRightFunc(string(runes[:n]), unicode.IsSpace) + Ellipsis
}

// truncateRunes cuts s to n runes without adding an ellipsis.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// Match is one occurrence of a term in a text, as rune offsets [Start, End).
type Match struct {
	Start int
	End   int
	// Term is the folded term that matched.
	Term string
}

// FindMatches returns the case-insensitive occurrences of terms in text,
// ordered by position and, at equal positions, by term order. Occurrences
// overlapping an earlier one are dropped so the result can be marked
// without nesting.
func FindMatches(text string, terms []string) []Match {
	if text == "" || len(terms) == 0 {
		return nil
	}

	type candidate struct {
		Match
		order int
	}

	haystack := []rune(Fold(text))
	var all []candidate
	for order, term := range terms {
		needle := []rune(term)
		if len(needle) == 0 {
			continue
		}
		for i := 0; i+len(needle) <= len(haystack); {
			if hasRunePrefix(haystack[i:], needle) {
				all = append(all, candidate{Match{Start: i, End: i + len(needle), Term: term}, order})
				i += len(needle)
				continue
			}
			i++
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Start != all[j].Start {
			return all[i].Start < all[j].Start
		}
		return all[i].order < all[j].order
	})

	var matches []Match
	end := 0
	for _, c := range all {
		if c.Start < end {
			continue
		}
		matches = append(matches, c.Match)
		end = c.End
	}
	return matches
}

func hasRunePrefix(s, prefix []rune) bool {
	if len(prefix) > len(s) {
		return false
	}
	for i := range prefix {
		if s[i] != prefix[i] {
			return false
		}
	}
	return true
}
