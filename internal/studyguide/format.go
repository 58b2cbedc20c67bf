package studyguide

import (
	"fmt"
	"strings"

	"github.com/sha1n/mcp-guide-search/internal/domain"
	"github.com/sha1n/mcp-guide-search/internal/page"
)

// FormatSearch renders search results as markdown.
func FormatSearch(snap Snapshot) string {
	if len(snap.Views) == 0 {
		return fmt.Sprintf("No results found for query: %s", snap.Query)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d results for '%s' (%d matches):\n\n", len(snap.Views), snap.Query, snap.Status.Count))

	for _, v := range snap.Views {
		sb.WriteString(fmt.Sprintf("### %d. [%s] %s\n", v.Rank, v.Label, page.Decorate(v.Title, v.TitleMatches, page.MarkdownStyle)))
		sb.WriteString(fmt.Sprintf("**Score**: %d\n", v.Score))
		sb.WriteString(fmt.Sprintf("**Ref**: %s\n\n", v.Ref))
		if v.Snippet != "" {
			sb.WriteString("> ")
			sb.WriteString(page.Decorate(v.Snippet, v.SnippetMatches, page.MarkdownStyle))
			sb.WriteString("\n\n")
		}
	}

	sb.WriteString(FormatStatus(snap))
	return sb.String()
}

// FormatStatus renders the match counter and navigation affordances.
func FormatStatus(snap Snapshot) string {
	st := snap.Status
	return fmt.Sprintf("Match %s (previous: %s, next: %s)\n", st.Counter, enabled(st.CanPrevious), enabled(st.CanNext))
}

func enabled(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

// FormatNavigation renders the active highlight in its context.
func FormatNavigation(snap Snapshot) string {
	if !snap.Status.HasCurrent {
		return "No matches to navigate. Run search_guide first."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Match %s in %s (%s)\n\n", snap.Status.Counter, snap.ContextTitle, snap.Status.Current.SourceRef))
	sb.WriteString("> ")
	sb.WriteString(snap.Context)
	sb.WriteString("\n\n")
	sb.WriteString(FormatStatus(snap))
	return sb.String()
}

// FormatBlock renders an opened result.
func FormatBlock(b Block) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## [%s] %s\n", b.Entry.Category.Label(), b.Entry.Title))
	sb.WriteString(fmt.Sprintf("**Ref**: %s\n\n", b.Entry.SourceRef))
	sb.WriteString(b.Rendered)
	sb.WriteString("\n")
	return sb.String()
}

// FormatEntries renders an index listing.
func FormatEntries(entries []domain.IndexEntry) string {
	if len(entries) == 0 {
		return "The guide has no entries."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d entries:\n\n", len(entries)))
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("- %s #%d [%s] %s (%s)\n", e.Category, e.Ordinal+1, e.Category.Label(), e.Title, e.SourceRef))
	}
	return sb.String()
}
