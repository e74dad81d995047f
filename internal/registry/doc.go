// Package registry owns the set of loaded docsets and runs searches across
// all of them.
//
// # Basic Usage
//
//	reg := registry.New(registry.Options{Logger: logger, CacheEnabled: true})
//	defer reg.Close()
//
//	stats, err := reg.LoadDir(ctx, "/home/user/.local/share/Zeal/docsets")
//	fmt.Printf("Loaded %d of %d docsets\n", stats.Loaded, stats.Found)
//
//	results, err := reg.Query(ctx, "go:http.get")
//
// # Interactive Search
//
// Search is meant to be called on every keystroke. Each call cancels the
// previous search and starts a new generation:
//
//	gen := reg.Search("fmt.Sprin")
//	c := <-reg.Results()
//	if c.Generation == gen {
//	    render(c.Results)
//	}
//
// A completion is published only while its generation is the newest and its
// cancellation token is untouched, so results of an abandoned query never
// reach the caller. The Results channel keeps at most one completion.
//
// # Fan-out
//
// The core text of the query is sent to every docset, or only to docsets
// whose keywords match the query's "kw1,kw2:" prefix. Docsets are searched
// concurrently on an errgroup limited to Options.Workers. A docset whose
// search fails contributes no results and a warning. The partial lists are
// merged and sorted by types.CompareResults.
//
// # Membership
//
// Loading a docset whose name is already registered replaces the old one in
// a single step. Subscribers receive EventAboutToUnload, EventUnloaded and
// EventLoaded in that order. The replaced docset is closed after in-flight
// reads on it finish.
package registry
