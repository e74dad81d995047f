package types

import "strings"

const (
	prefixSeparator  = ':'
	keywordSeparator = ","
)

// SearchQuery is a parsed user query: an optional list of docset keyword
// filters and the core text matched against symbol names.
type SearchQuery struct {
	query         string
	keywords      []string
	keywordPrefix string
}

// NewSearchQuery creates a query from core text and keyword filters.
func NewSearchQuery(query string, keywords []string) SearchQuery {
	q := SearchQuery{query: query}
	q.setKeywords(keywords)
	return q
}

// ParseQuery parses the "kw1,kw2:core text" form.
//
// The first ':' separates keywords from the core text only when it is not the
// first character and is not immediately followed by another ':'.
func ParseQuery(s string) SearchQuery {
	sepAt := strings.IndexByte(s, prefixSeparator)
	next := sepAt + 1

	if sepAt > 0 && (next >= len(s) || s[next] != prefixSeparator) {
		keywordStr := strings.TrimSpace(s[:sepAt])
		return NewSearchQuery(strings.TrimSpace(s[next:]), strings.Split(keywordStr, keywordSeparator))
	}

	return NewSearchQuery(strings.TrimSpace(s), nil)
}

func (q *SearchQuery) setKeywords(keywords []string) {
	if len(keywords) == 0 {
		return
	}
	q.keywords = append([]string(nil), keywords...)
	q.keywordPrefix = strings.Join(q.keywords, keywordSeparator) + string(prefixSeparator)
}

// String reproduces the raw query form.
func (q SearchQuery) String() string {
	if len(q.keywords) == 0 {
		return q.query
	}
	return q.keywordPrefix + q.query
}

// Query returns the core text.
func (q SearchQuery) Query() string {
	return q.query
}

// WithQuery returns a copy with the core text replaced and keywords kept.
func (q SearchQuery) WithQuery(query string) SearchQuery {
	return NewSearchQuery(query, q.keywords)
}

// Keywords returns a copy of the keyword filters in their original order.
func (q SearchQuery) Keywords() []string {
	return append([]string(nil), q.keywords...)
}

// HasKeywords reports whether the query carries a docset filter.
func (q SearchQuery) HasKeywords() bool {
	return len(q.keywords) > 0
}

// MatchesKeywords reports whether any of the candidate docset keywords is one
// of this query's filters, ignoring case.
func (q SearchQuery) MatchesKeywords(candidates []string) bool {
	for _, candidate := range candidates {
		for _, kw := range q.keywords {
			if strings.EqualFold(candidate, kw) {
				return true
			}
		}
	}
	return false
}

// KeywordPrefixSize returns the length of the "kw1,kw2:" prefix, 0 without keywords.
func (q SearchQuery) KeywordPrefixSize() int {
	return len(q.keywordPrefix)
}

// IsEmpty reports whether both the core text and keywords are empty.
func (q SearchQuery) IsEmpty() bool {
	return q.query == "" && len(q.keywords) == 0
}
