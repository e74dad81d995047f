package docset

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/dshills/dashdocs-mcp/internal/relevancy"
	"github.com/dshills/dashdocs-mcp/internal/storage"
	"github.com/dshills/dashdocs-mcp/pkg/types"
)

const (
	// MaxResultsCount caps the rows returned for short queries.
	MaxResultsCount = 1000
	// shortQueryLength is the rune count below which MaxResultsCount applies.
	shortQueryLength = 3
)

// Search returns the docset entries matching query. In fuzzy mode rows are
// ranked by relevancy; otherwise query is a case-insensitive substring and
// shorter names rank first.
//
// The token is polled once per row. A canceled search stops early and returns
// what it read so far with a nil error; callers must check the token before
// trusting the result as complete.
func (d *Docset) Search(ctx context.Context, query string, token *types.CancellationToken) ([]types.SearchResult, error) {
	fuzzy := d.IsFuzzySearchEnabled()
	params := storage.SearchParams{Query: query, Fuzzy: fuzzy}
	if utf8.RuneCountInString(query) < shortQueryLength {
		params.Limit = MaxResultsCount
	}

	var results []types.SearchResult
	err := d.index.Search(ctx, params, func(row storage.Row) bool {
		if token.IsCanceled() {
			return false
		}
		results = append(results, d.newResult(row, fuzzy))
		return true
	})
	if err != nil {
		if token.IsCanceled() {
			return results, nil
		}
		return nil, fmt.Errorf("search %s: %w", d.name, err)
	}

	return results, nil
}

func (d *Docset) newResult(row storage.Row, fuzzy bool) types.SearchResult {
	result := types.SearchResult{
		Name:        row.Name,
		ParentName:  relevancy.ParseToken(row.Name).ParentName,
		Type:        NormalizeType(row.Type),
		URLPath:     row.Path,
		URLFragment: row.Fragment,
		Docset:      d,
	}

	if fuzzy {
		r := relevancy.Decode(row.Score)
		result.Score = r.Score
		result.MatchType = r.MatchType
	} else {
		result.Score = float64(row.Score)
		result.MatchType = types.NameMatch
	}

	return result
}

// Revalidate re-checks a result of this docset against a new query without
// touching the index, using the same predicate and score as Search.
func (d *Docset) Revalidate(query string, previous types.SearchResult) (types.SearchResult, bool) {
	if d.IsFuzzySearchEnabled() {
		r := relevancy.Decode(relevancy.Score(query, previous.Name))
		if !r.Matched() {
			return types.SearchResult{}, false
		}
		previous.Score = r.Score
		previous.MatchType = r.MatchType
		return previous, true
	}

	if !containsFoldASCII(previous.Name, query) {
		return types.SearchResult{}, false
	}
	previous.Score = -float64(utf8.RuneCountInString(previous.Name))
	previous.MatchType = types.NameMatch
	return previous, true
}

// Refinable reports whether every match of query is also a match of prefix,
// so a complete result set for prefix can be narrowed instead of searching
// again. Substring matching always qualifies. Fuzzy matching qualifies unless
// query contains characters that split it into name and parent parts.
func (d *Docset) Refinable(prefix, query string) bool {
	if !strings.HasPrefix(query, prefix) {
		return false
	}
	if !d.IsFuzzySearchEnabled() {
		return true
	}
	return !relevancy.HasQualifier(query)
}

// containsFoldASCII mirrors SQLite LIKE: case folding applies to ASCII only.
func containsFoldASCII(s, substr string) bool {
	return strings.Contains(lowerASCII(s), lowerASCII(substr))
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

// RelatedLinks lists the entries on the page u points to, such as the
// sections of a guide. A page with a single entry has no related links.
func (d *Docset) RelatedLinks(ctx context.Context, u *url.URL) ([]types.SearchResult, error) {
	page, ok := d.pagePath(u)
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrURLOutsideOfDocset, u)
	}

	rows, err := d.index.Related(ctx, page)
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	results := make([]types.SearchResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, types.SearchResult{
			Name:        row.Name,
			ParentName:  relevancy.ParseToken(row.Name).ParentName,
			Type:        NormalizeType(row.Type),
			URLPath:     row.Path,
			URLFragment: row.Fragment,
			Docset:      d,
		})
	}
	return results, nil
}
