package searcher

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/dashdocs-mcp/pkg/types"
)

const (
	// DefaultCacheSize is the number of queries remembered per docset.
	DefaultCacheSize = 10
)

// Strategy is the search entry point of a single docset.
type Strategy interface {
	// Search returns every match of query. A canceled token may cut the
	// result short; such results must not be treated as complete.
	Search(ctx context.Context, query string, token *types.CancellationToken) ([]types.SearchResult, error)
	// Revalidate re-scores a previous result against query, reporting
	// whether it still matches.
	Revalidate(query string, previous types.SearchResult) (types.SearchResult, bool)
	// Refinable reports whether the matches of query are a subset of the
	// matches of prefix.
	Refinable(prefix, query string) bool
}

// Stats contains cache counters
type Stats struct {
	Entries     int
	Hits        int64 // exact query found
	Refinements int64 // served by narrowing a cached prefix
	Misses      int64 // forwarded to the wrapped strategy
}

// CachingStrategy wraps a Strategy with a per-query result cache. When the
// user extends a query, results cached for a shorter prefix are narrowed in
// memory instead of scanning the index again.
type CachingStrategy struct {
	next      Strategy
	resultCap int
	cache     *lru.Cache[string, []types.SearchResult]

	hits        atomic.Int64
	refinements atomic.Int64
	misses      atomic.Int64
}

// NewCachingStrategy creates a cache of size queries in front of next.
// Result sets with resultCap or more entries may have been truncated by the
// index and are never narrowed.
func NewCachingStrategy(next Strategy, size, resultCap int) *CachingStrategy {
	if size <= 0 {
		size = DefaultCacheSize
	}

	cache, err := lru.New[string, []types.SearchResult](size)
	if err != nil {
		// This should never happen with valid size parameter
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	return &CachingStrategy{
		next:      next,
		resultCap: resultCap,
		cache:     cache,
	}
}

// Search serves query from the cache when possible.
func (c *CachingStrategy) Search(ctx context.Context, query string, token *types.CancellationToken) ([]types.SearchResult, error) {
	if cached, ok := c.cache.Get(query); ok {
		c.hits.Add(1)
		return slices.Clone(cached), nil
	}

	if cached, ok := c.lookupPrefix(query); ok {
		refined := make([]types.SearchResult, 0, len(cached))
		for _, result := range cached {
			if token.IsCanceled() {
				return refined, nil
			}
			if r, ok := c.next.Revalidate(query, result); ok {
				refined = append(refined, r)
			}
		}

		c.refinements.Add(1)
		c.cache.Add(query, refined)
		return slices.Clone(refined), nil
	}

	c.misses.Add(1)
	results, err := c.next.Search(ctx, query, token)
	if err != nil {
		return nil, err
	}

	if !token.IsCanceled() {
		c.cache.Add(query, slices.Clone(results))
	}
	return results, nil
}

// lookupPrefix finds the longest cached prefix of query whose result set is
// known to be complete and can be narrowed to query.
func (c *CachingStrategy) lookupPrefix(query string) ([]types.SearchResult, bool) {
	for prefix := trimLastRune(query); prefix != ""; prefix = trimLastRune(prefix) {
		cached, ok := c.cache.Get(prefix)
		if !ok {
			continue
		}
		if len(cached) >= c.resultCap || !c.next.Refinable(prefix, query) {
			continue
		}
		return cached, true
	}
	return nil, false
}

func trimLastRune(s string) string {
	_, size := utf8.DecodeLastRuneInString(s)
	return s[:len(s)-size]
}

// Revalidate delegates to the wrapped strategy.
func (c *CachingStrategy) Revalidate(query string, previous types.SearchResult) (types.SearchResult, bool) {
	return c.next.Revalidate(query, previous)
}

// Refinable delegates to the wrapped strategy.
func (c *CachingStrategy) Refinable(prefix, query string) bool {
	return c.next.Refinable(prefix, query)
}

// Purge drops every cached result set.
func (c *CachingStrategy) Purge() {
	c.cache.Purge()
}

// Stats returns cache counters
func (c *CachingStrategy) Stats() Stats {
	return Stats{
		Entries:     c.cache.Len(),
		Hits:        c.hits.Load(),
		Refinements: c.refinements.Load(),
		Misses:      c.misses.Load(),
	}
}
