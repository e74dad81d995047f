package types

import (
	"cmp"
	"slices"
	"strings"
)

// MatchType classifies how a query matched a symbol. Higher values rank first
// when relevancy scores tie.
type MatchType int

const (
	NoMatch MatchType = iota
	ParentNameMatch
	NameMatch
	BothMatch
)

func (m MatchType) String() string {
	switch m {
	case ParentNameMatch:
		return "parent_name"
	case NameMatch:
		return "name"
	case BothMatch:
		return "both"
	default:
		return "none"
	}
}

// DocsetRef is the view of an owning docset carried by a search result.
// The docset outlives every result derived from it within one query cycle.
type DocsetRef interface {
	Name() string
	Title() string
}

// SearchResult represents a single symbol match with its relevance information
type SearchResult struct {
	// Identification
	Name       string
	ParentName string // Owning class/namespace, used to disambiguate overloads
	Type       string // Normalized symbol type, e.g. "Method"

	// Location within the docset's Documents directory
	URLPath     string
	URLFragment string

	Docset DocsetRef

	// Scoring, meaningful only within one query's result set
	Score     float64
	MatchType MatchType
}

// DocsetName returns the owning docset name, or "" when unset.
func (sr *SearchResult) DocsetName() string {
	if sr.Docset == nil {
		return ""
	}
	return sr.Docset.Name()
}

// Validate checks if the search result is valid
func (sr *SearchResult) Validate() error {
	if sr.Name == "" {
		return ErrEmptyResultName
	}

	if sr.Docset == nil {
		return ErrMissingDocset
	}

	return nil
}

// CompareResults orders results by descending score, then case-insensitive
// name, then case-insensitive parent name. Remaining ties are broken by
// docset name, URL path and fragment so the order never depends on the order
// in which concurrent searches finished.
func CompareResults(a, b SearchResult) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	if c := compareFold(a.Name, b.Name); c != 0 {
		return c
	}
	if c := compareFold(a.ParentName, b.ParentName); c != 0 {
		return c
	}
	if c := strings.Compare(a.DocsetName(), b.DocsetName()); c != 0 {
		return c
	}
	if c := strings.Compare(a.URLPath, b.URLPath); c != 0 {
		return c
	}
	return strings.Compare(a.URLFragment, b.URLFragment)
}

// SortResults sorts results in place by CompareResults.
func SortResults(results []SearchResult) {
	slices.SortStableFunc(results, CompareResults)
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
