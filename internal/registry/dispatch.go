package registry

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/dashdocs-mcp/internal/storage"
	"github.com/dshills/dashdocs-mcp/pkg/types"
)

// Completion is the merged, sorted outcome of one asynchronous search.
type Completion struct {
	Generation uint64
	Query      types.SearchQuery
	Results    []types.SearchResult
}

// pending is the search generation currently running.
type pending struct {
	generation uint64
	token      *types.CancellationToken
	cancel     context.CancelFunc
}

func (p *pending) stop() {
	p.token.Cancel()
	p.cancel()
}

// Search starts an asynchronous search for raw, canceling the previous one,
// and returns the generation of the new search. The completion is delivered
// on Results unless a newer search or Cancel supersedes it first.
//
// A query whose core text is empty completes immediately with no results.
func (r *Registry) Search(raw string) uint64 {
	query := types.ParseQuery(raw)
	ctx, cancel := context.WithCancel(context.Background())
	p := &pending{token: types.NewCancellationToken(), cancel: cancel}

	r.searchMu.Lock()
	if r.inflight != nil {
		r.inflight.stop()
	}
	r.generation++
	p.generation = r.generation
	r.inflight = p
	r.searchMu.Unlock()

	if query.Query() == "" {
		r.complete(p, Completion{Generation: p.generation, Query: query})
		return p.generation
	}

	go func() {
		results := r.dispatch(ctx, query, p.token)
		r.complete(p, Completion{Generation: p.generation, Query: query, Results: results})
	}()

	return p.generation
}

// Cancel stops the running search. Its completion is never delivered.
func (r *Registry) Cancel() {
	r.searchMu.Lock()
	defer r.searchMu.Unlock()

	if r.inflight != nil {
		r.inflight.stop()
		r.inflight = nil
	}
}

// Results delivers search completions. Only the newest undelivered
// completion is kept; an older one still waiting is dropped.
func (r *Registry) Results() <-chan Completion {
	return r.results
}

// complete publishes c if p is still the latest, uncanceled generation.
// The check happens under the lock that issues generations, so a superseded
// search can never publish after its successor started.
func (r *Registry) complete(p *pending, c Completion) {
	r.searchMu.Lock()
	defer r.searchMu.Unlock()

	defer p.cancel()

	if r.inflight != p || p.token.IsCanceled() {
		return
	}
	r.inflight = nil

	select {
	case <-r.results:
	default:
	}
	// Every send happens under searchMu after draining, so this never blocks.
	r.results <- c
}

// Query runs a search synchronously. Canceling ctx cancels the search and
// returns ctx.Err(). It does not interact with the asynchronous generation
// started by Search.
func (r *Registry) Query(ctx context.Context, raw string) ([]types.SearchResult, error) {
	query := types.ParseQuery(raw)
	if query.Query() == "" {
		return nil, nil
	}

	token := types.NewCancellationToken()
	stop := context.AfterFunc(ctx, token.Cancel)
	defer stop()

	results := r.dispatch(ctx, query, token)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// targets returns the entries a query applies to: every docset, or only
// those carrying one of the query's keywords.
func (r *Registry) targets(query types.SearchQuery) []*entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		if query.HasKeywords() && !query.MatchesKeywords(e.docset.Keywords()) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// dispatch fans the query out to every target docset, bounded by the worker
// limit, and merges the results in rank order. A docset that fails
// contributes nothing. The result is meaningless once token is canceled.
func (r *Registry) dispatch(ctx context.Context, query types.SearchQuery, token *types.CancellationToken) []types.SearchResult {
	r.modeMu.RLock()
	defer r.modeMu.RUnlock()

	targets := r.targets(query)
	parts := make([][]types.SearchResult, len(targets))

	var g errgroup.Group
	g.SetLimit(r.workers)

	for i, e := range targets {
		if token.IsCanceled() {
			break
		}

		g.Go(func() error {
			if token.IsCanceled() {
				return nil
			}

			results, err := e.strategy.Search(ctx, query.Query(), token)
			if err != nil {
				if token.IsCanceled() {
					return nil
				}
				if errors.Is(err, storage.ErrClosed) {
					r.logger.Debug("docset closed during search", "docset", e.docset.Name())
					return nil
				}
				r.logger.Warn("docset search failed", "docset", e.docset.Name(), "error", err)
				return nil
			}

			parts[i] = results
			return nil
		})
	}

	// Workers never return errors; failures are logged per docset.
	_ = g.Wait()

	if token.IsCanceled() {
		return nil
	}

	total := 0
	for _, p := range parts {
		total += len(p)
	}
	merged := make([]types.SearchResult, 0, total)
	for _, p := range parts {
		merged = append(merged, p...)
	}
	types.SortResults(merged)

	return merged
}
