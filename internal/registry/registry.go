package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"slices"
	"sync"

	"github.com/dshills/dashdocs-mcp/internal/docset"
	"github.com/dshills/dashdocs-mcp/internal/searcher"
	"github.com/dshills/dashdocs-mcp/pkg/types"
)

var (
	// ErrClosed is returned when the registry is used after Close
	ErrClosed = errors.New("registry is closed")
	// ErrScanInProgress is returned by LoadDir while another scan runs
	ErrScanInProgress = errors.New("docset scan already in progress")
)

// Options contains configuration for the registry
type Options struct {
	Logger       *slog.Logger
	Workers      int  // Concurrent docset searches and opens (default: runtime.NumCPU())
	FuzzySearch  bool // Initial search mode of every loaded docset
	CacheEnabled bool // Wrap each docset in a prefix cache
	CacheSize    int  // Queries cached per docset (default: searcher.DefaultCacheSize)
}

// Release is the latest published version of a docset.
type Release struct {
	Version  string
	Revision int
}

// entry is a registered docset and the strategy searches go through.
type entry struct {
	docset   *docset.Docset
	strategy searcher.Strategy
	cache    *searcher.CachingStrategy // nil when caching is disabled
}

// Registry owns the loaded docsets, keyed by unique name, and dispatches
// searches across them.
type Registry struct {
	logger  *slog.Logger
	workers int
	opts    Options

	mu      sync.RWMutex
	entries map[string]*entry
	fuzzy   bool
	closed  bool

	// loadMu serializes membership changes so a replace is observed as one step.
	loadMu   sync.Mutex
	scanLock ScanLock

	// modeMu is held shared by running searches and exclusively while the
	// search mode changes, so no result computed in the old mode is cached
	// after the purge.
	modeMu sync.RWMutex

	listenersMu  sync.RWMutex
	listeners    map[int]func(Event)
	nextListener int

	searchMu   sync.Mutex
	generation uint64
	inflight   *pending
	results    chan Completion
}

// New creates an empty registry.
func New(opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Registry{
		logger:    logger,
		workers:   workers,
		opts:      opts,
		entries:   make(map[string]*entry),
		fuzzy:     opts.FuzzySearch,
		listeners: make(map[int]func(Event)),
		results:   make(chan Completion, 1),
	}
}

func (r *Registry) newEntry(d *docset.Docset) *entry {
	e := &entry{docset: d, strategy: d}
	if r.opts.CacheEnabled {
		e.cache = searcher.NewCachingStrategy(d, r.opts.CacheSize, docset.MaxResultsCount)
		e.strategy = e.cache
	}
	return e
}

// Load opens the bundle at path and registers it, replacing any docset with
// the same name. An invalid bundle is not registered.
func (r *Registry) Load(path string) (*docset.Docset, error) {
	if r.isClosed() {
		return nil, ErrClosed
	}

	d, err := docset.Open(path, r.docsetOptions())
	if err != nil {
		r.logger.Warn("cannot load docset, please reinstall it", "path", path, "error", err)
		return nil, err
	}

	if err := r.add(d); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

func (r *Registry) docsetOptions() docset.Options {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return docset.Options{Logger: r.logger, FuzzySearch: r.fuzzy}
}

// add registers d. A same-named docset is swapped out in a single critical
// section, so concurrent searches see either the old or the new one.
func (r *Registry) add(d *docset.Docset) error {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	name := d.Name()

	r.mu.RLock()
	old := r.entries[name]
	closed := r.closed
	fuzzy := r.fuzzy
	r.mu.RUnlock()

	if closed {
		return ErrClosed
	}
	// The mode may have changed while d was opening.
	d.SetFuzzySearchEnabled(fuzzy)

	if old != nil {
		r.notify(Event{Kind: EventAboutToUnload, Name: name, Path: old.docset.Path()})
	}

	r.mu.Lock()
	r.entries[name] = r.newEntry(d)
	r.mu.Unlock()

	if old != nil {
		r.closeEntry(old)
		r.notify(Event{Kind: EventUnloaded, Name: name, Path: old.docset.Path()})
	}

	r.logger.Info("docset loaded", "name", name, "path", d.Path(), "schema", d.Schema().String())
	r.notify(Event{Kind: EventLoaded, Name: name, Path: d.Path()})
	return nil
}

func (r *Registry) closeEntry(e *entry) {
	if err := e.docset.Close(); err != nil {
		r.logger.Warn("cannot close docset", "name", e.docset.Name(), "error", err)
	}
}

// Unload removes and closes the named docset. It reports whether the
// docset was registered.
func (r *Registry) Unload(name string) bool {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	r.mu.RLock()
	e := r.entries[name]
	r.mu.RUnlock()

	if e == nil {
		return false
	}

	r.notify(Event{Kind: EventAboutToUnload, Name: name, Path: e.docset.Path()})

	r.mu.Lock()
	delete(r.entries, name)
	r.mu.Unlock()

	r.closeEntry(e)
	r.logger.Info("docset unloaded", "name", name)
	r.notify(Event{Kind: EventUnloaded, Name: name, Path: e.docset.Path()})
	return true
}

// UnloadPath removes the docset loaded from the bundle at path.
func (r *Registry) UnloadPath(path string) bool {
	path = filepath.Clean(path)

	r.mu.RLock()
	var name string
	for n, e := range r.entries {
		if filepath.Clean(e.docset.Path()) == path {
			name = n
			break
		}
	}
	r.mu.RUnlock()

	if name == "" {
		return false
	}
	return r.Unload(name)
}

// Docset returns the named docset.
func (r *Registry) Docset(name string) (*docset.Docset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrDocsetNotFound, name)
	}
	return e.docset, nil
}

// Docsets returns the loaded docsets ordered by name.
func (r *Registry) Docsets() []*docset.Docset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*docset.Docset, 0, len(r.entries))
	for _, name := range r.sortedNamesLocked() {
		out = append(out, r.entries[name].docset)
	}
	return out
}

// Names returns the loaded docset names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNamesLocked()
}

func (r *Registry) sortedNamesLocked() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Count returns the number of loaded docsets.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Contains reports whether a docset with name is loaded.
func (r *Registry) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// IsFuzzySearchEnabled reports the current search mode.
func (r *Registry) IsFuzzySearchEnabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fuzzy
}

// SetFuzzySearchEnabled switches every docset between fuzzy and substring
// search. The in-flight search is canceled and all caches are purged.
func (r *Registry) SetFuzzySearchEnabled(enabled bool) {
	r.Cancel()

	r.modeMu.Lock()
	defer r.modeMu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.fuzzy = enabled
	for _, e := range r.entries {
		e.docset.SetFuzzySearchEnabled(enabled)
		if e.cache != nil {
			e.cache.Purge()
		}
	}
}

// CacheStats returns the prefix cache counters per docset. Docsets without
// a cache are omitted.
func (r *Registry) CacheStats() map[string]searcher.Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[string]searcher.Stats)
	for name, e := range r.entries {
		if e.cache != nil {
			stats[name] = e.cache.Stats()
		}
	}
	return stats
}

// CheckUpdates compares every loaded docset with its latest release and
// returns the names of the docsets that have an update available, in order.
// Docsets missing from latest are marked up to date.
func (r *Registry) CheckUpdates(latest map[string]Release) []string {
	var outdated []string
	for _, d := range r.Docsets() {
		rel, ok := latest[d.Name()]
		if !ok {
			d.SetUpdateAvailable(false)
			continue
		}
		if d.CheckUpdate(rel.Version, rel.Revision) {
			outdated = append(outdated, d.Name())
		}
	}
	return outdated
}

func (r *Registry) isClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

// Close cancels the running search and closes every docset. Further loads
// fail with ErrClosed.
func (r *Registry) Close() error {
	r.Cancel()

	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	entries := r.entries
	r.entries = make(map[string]*entry)
	r.mu.Unlock()

	var errs []error
	for _, e := range entries {
		if err := e.docset.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
