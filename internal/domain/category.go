package domain

import "strings"

// Category classifies a content block of the study guide.
type Category int

// Block categories. CategoryUnknown is only produced for input that names
// none of the known categories.
const (
	CategoryUnknown Category = iota
	CategoryTopic
	CategoryDefinition
	CategoryTheorem
	CategoryProperty
	CategoryNotation
)

// categoryNames are the HTML class names the guide marks blocks with.
var categoryNames = map[Category]string{
	CategoryTopic:      "topic",
	CategoryDefinition: "definition",
	CategoryTheorem:    "theorem",
	CategoryProperty:   "property",
	CategoryNotation:   "notation",
}

// categoryLabels is the fixed localized label table used for result display
// and for locating labelled titles inside block text.
var categoryLabels = map[Category]string{
	CategoryTopic:      "נושא",
	CategoryDefinition: "הגדרה",
	CategoryTheorem:    "משפט",
	CategoryProperty:   "תכונה",
	CategoryNotation:   "סימון",
}

// Categories returns the known categories in display order.
func Categories() []Category {
	return []Category{
		CategoryTopic,
		CategoryDefinition,
		CategoryTheorem,
		CategoryProperty,
		CategoryNotation,
	}
}

// ParseCategory maps a class name (case-insensitive) to its Category.
// Unrecognized names yield CategoryUnknown.
func ParseCategory(name string) Category {
	name = strings.ToLower(strings.TrimSpace(name))
	for c, n := range categoryNames {
		if n == name {
			return c
		}
	}
	return CategoryUnknown
}

// String returns the class name of the category.
func (c Category) String() string {
	if n, ok := categoryNames[c]; ok {
		return n
	}
	return "unknown"
}

// Label returns the localized display label, or "" for CategoryUnknown.
func (c Category) Label() string {
	return categoryLabels[c]
}

// Labelled reports whether blocks of this category carry an inline
// "<label>: <title>" prefix in their text.
func (c Category) Labelled() bool {
	switch c {
	case CategoryDefinition, CategoryTheorem, CategoryProperty, CategoryNotation:
		return true
	default:
		return false
	}
}

// Labels returns a copy of the category to label table.
func Labels() map[Category]string {
	out := make(map[Category]string, len(categoryLabels))
	for c, l := range categoryLabels {
		out[c] = l
	}
	return out
}
