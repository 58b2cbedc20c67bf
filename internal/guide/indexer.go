package guide

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sha1n/mcp-guide-search/internal/domain"
)

// TitleMaxRunes bounds titles extracted from block text.
const TitleMaxRunes = 50

// labelPatterns find "<label>: <title>" prefixes, with ':' or whitespace
// after the label and the title running to the next ':' or the end.
var labelPatterns = func() map[domain.Category]*regexp.Regexp {
	patterns := make(map[domain.Category]*regexp.Regexp)
	for _, c := range domain.Categories() {
		if !c.Labelled() {
			continue
		}
		patterns[c] = regexp.MustCompile(regexp.QuoteMeta(c.Label()) + `\s*[:\s]\s*([^:]*)`)
	}
	return patterns
}()

// BuildIndex creates one IndexEntry per block, in input order. No block is
// dropped: blocks without text still produce an entry.
func BuildIndex(blocks []domain.ContentBlock) []domain.IndexEntry {
	entries := make([]domain.IndexEntry, 0, len(blocks))
	counters := make(map[domain.Category]int)

	for _, b := range blocks {
		ordinal := counters[b.Category]
		counters[b.Category]++

		body := CleanText(b.RawText)
		entries = append(entries, domain.IndexEntry{
			Category:  b.Category,
			Title:     resolveTitle(b, body, ordinal),
			Body:      body,
			SourceRef: b.SourceRef,
			Ordinal:   ordinal,
		})
	}

	return entries
}

func resolveTitle(b domain.ContentBlock, body string, ordinal int) string {
	if heading := CleanText(b.Heading); heading != "" {
		return heading
	}

	switch {
	case b.Category == domain.CategoryTopic:
		return fmt.Sprintf("%s %d", b.Category.Label(), ordinal+1)
	case b.Category.Labelled():
		if title := labelledTitle(b.Category, body); title != "" {
			return title
		}
		return b.Category.Label()
	default:
		return strings.TrimSpace(truncateRunes(body, TitleMaxRunes))
	}
}

func labelledTitle(c domain.Category, body string) string {
	pattern, ok := labelPatterns[c]
	if !ok {
		return ""
	}
	m := pattern.FindStringSubmatch(body)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(truncateRunes(strings.TrimSpace(m[1]), TitleMaxRunes))
}
