// Package types provides shared type definitions for the dashdocs MCP server.
//
// This package defines the value types that flow between the docset loader,
// the search strategies and the registry: parsed search queries, ranked
// search results, cancellation tokens and the canonical symbol taxonomy.
//
// # Search Queries
//
// A raw query typed by the user may carry a docset filter prefix:
//
//	q := types.ParseQuery("go,python:open")
//	q.Keywords() // ["go", "python"]
//	q.Query()    // "open"
//	q.String()   // "go,python:open"
//
// A colon at position 0 or a doubled colon is not a filter separator, so C++
// and Ruby style names survive intact:
//
//	types.ParseQuery("std::string").Query() // "std::string"
//	types.ParseQuery(":find").Query()       // ":find"
//
// # Search Results
//
// SearchResult values are immutable once produced. Their total order
// (CompareResults) is score descending, then case-insensitive name, then
// case-insensitive parent name, with further deterministic tie-breaks so that
// results merged from concurrently searched docsets always sort the same way:
//
//	types.SortResults(results)
//
// Scores are only comparable within the result set of a single query.
//
// # Cancellation
//
// A CancellationToken is shared by pointer between every task spawned for one
// logical query:
//
//	token := types.NewCancellationToken()
//	go worker(token)
//	token.Cancel() // observed by worker on its next IsCanceled poll
package types
