package domain

// SourceRef is an opaque back-reference to the location of a block in the
// rendered document. The loader uses the element id, or "<category>-<n>"
// when the element has none.
type SourceRef string

// ContentBlock is a block of the study guide as supplied by the document
// layer. It is read-only to the search core.
type ContentBlock struct {
	// Category is the block type.
	Category Category

	// RawText is the block content. It may contain markup; embedded
	// script and style payloads are dropped during indexing.
	RawText string

	// Heading is the explicit title supplied by the document, if any.
	Heading string

	// SourceRef locates the block in the document.
	SourceRef SourceRef
}

// IndexEntry is the indexed form of a ContentBlock. Entries are created
// once by the indexer and never modified afterwards.
type IndexEntry struct {
	Category Category
	Title    string
	// Body is the cleaned block text with whitespace runs collapsed.
	Body      string
	SourceRef SourceRef
	// Ordinal is the zero-based position of the block among blocks of the
	// same category. It is an identifier only and never affects ranking.
	Ordinal int
}

// SearchResult is one ranked match of a query. Results are recreated on
// every query.
type SearchResult struct {
	Entry IndexEntry
	Score int
	// Query is the query string exactly as the user typed it.
	Query string
}
