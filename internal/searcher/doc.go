// Package searcher defines the per-docset search Strategy and a caching
// decorator for incremental, as-you-type queries.
//
// # Basic Usage
//
//	d, _ := docset.Open(path, docset.Options{})
//	s := searcher.NewCachingStrategy(d, searcher.DefaultCacheSize, docset.MaxResultsCount)
//
//	token := types.NewCancellationToken()
//	results, err := s.Search(ctx, "htt", token)
//	results, err = s.Search(ctx, "http", token) // narrowed from "htt"
//
// # Cache Discipline
//
// Result sets are cached under the exact query text in a bounded LRU. For a
// new query the cache is probed with the query itself, then with ever shorter
// prefixes, dropping one rune at a time. A cached prefix is reused only when:
//
//   - its result set is smaller than the result cap, so it was not truncated
//   - the wrapped strategy reports the query as Refinable from that prefix
//
// Reused results are re-scored one by one with Revalidate and the narrowed
// set is cached under the new query. Result sets produced while the token was
// canceled are never cached.
//
// The cache does not observe changes to the wrapped strategy; call Purge
// after switching search modes.
package searcher
