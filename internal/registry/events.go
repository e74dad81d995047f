package registry

import "slices"

// EventKind identifies a registry membership change.
type EventKind int

const (
	// EventLoaded is sent after a docset became searchable.
	EventLoaded EventKind = iota
	// EventAboutToUnload is sent while the docset is still registered.
	EventAboutToUnload
	// EventUnloaded is sent after the docset was removed and closed.
	EventUnloaded
)

func (k EventKind) String() string {
	switch k {
	case EventLoaded:
		return "loaded"
	case EventAboutToUnload:
		return "about_to_unload"
	case EventUnloaded:
		return "unloaded"
	default:
		return "unknown"
	}
}

// Event describes a membership change of one docset.
type Event struct {
	Kind EventKind
	Name string
	Path string
}

// Subscribe registers fn for membership events and returns a function that
// removes it. Listeners run synchronously on the goroutine that changed the
// registry, after the registry lock is released, so they may call read
// methods such as Docset or Names but must not Load or Unload.
func (r *Registry) Subscribe(fn func(Event)) (unsubscribe func()) {
	r.listenersMu.Lock()
	defer r.listenersMu.Unlock()

	id := r.nextListener
	r.nextListener++
	r.listeners[id] = fn

	return func() {
		r.listenersMu.Lock()
		defer r.listenersMu.Unlock()
		delete(r.listeners, id)
	}
}

func (r *Registry) notify(ev Event) {
	r.listenersMu.RLock()
	ids := make([]int, 0, len(r.listeners))
	for id := range r.listeners {
		ids = append(ids, id)
	}
	fns := make([]func(Event), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, r.listeners[id])
	}
	r.listenersMu.RUnlock()

	r.logger.Debug("docset event", "event", ev.Kind.String(), "name", ev.Name)
	for _, fn := range fns {
		fn(ev)
	}
}
