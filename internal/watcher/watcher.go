// Package watcher keeps the registry in sync with the docset directory.
//
// Bundles that appear below the root (downloaded, extracted or moved in) are
// loaded once the directory has been quiet for the debounce interval; bundles
// that are removed or renamed away are unloaded. Directories that are not
// bundles are watched recursively, bundle contents are not.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/dashdocs-mcp/internal/docset"
	"github.com/dshills/dashdocs-mcp/internal/registry"
)

const (
	// DefaultDebounce is the quiet period before a new bundle is loaded.
	DefaultDebounce = 500 * time.Millisecond
	// DefaultRetries is how often a failed load is retried; an extraction may
	// still be writing the bundle when the first attempt runs.
	DefaultRetries = 3
)

// Loader is the part of the registry the watcher drives.
type Loader interface {
	Load(path string) (*docset.Docset, error)
	UnloadPath(path string) bool
}

// Config contains configuration for the watcher
type Config struct {
	Logger   *slog.Logger
	Debounce time.Duration // Quiet period before loading (default: DefaultDebounce)
	Retries  int           // Extra load attempts for incomplete bundles (default: DefaultRetries)
}

// action is what an event asks the watcher to do.
type action int

const (
	actionNone action = iota
	actionLoad
	actionUnload
	actionWatch
)

// Watcher turns file system events below a docset root into registry loads
// and unloads.
type Watcher struct {
	root     string
	loader   Loader
	logger   *slog.Logger
	debounce time.Duration
	retries  int

	fsw    *fsnotify.Watcher
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Debounce timers keyed by bundle path
	timersMu sync.Mutex
	timers   map[string]*time.Timer
}

// New watches root and every non-bundle directory below it. Bundles already
// present are left to the initial registry scan.
func New(root string, loader Loader, cfg Config) (*Watcher, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	retries := cfg.Retries
	if retries < 0 {
		retries = 0
	} else if retries == 0 {
		retries = DefaultRetries
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		root:     filepath.Clean(root),
		loader:   loader,
		logger:   logger.With("component", "watcher"),
		debounce: debounce,
		retries:  retries,
		fsw:      fsw,
		ctx:      ctx,
		cancel:   cancel,
		timers:   make(map[string]*time.Timer),
	}

	if err := fsw.Add(w.root); err != nil {
		cancel()
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", w.root, err)
	}
	w.watchTree(w.root, false)

	return w, nil
}

// Start runs the event loop until Close.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Close stops the watcher and drops pending loads.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.fsw.Close()
	w.wg.Wait()

	w.timersMu.Lock()
	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
	w.timersMu.Unlock()

	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	switch classify(event) {
	case actionLoad:
		w.schedule(event.Name, 0)
	case actionUnload:
		w.stopTimer(event.Name)
		if w.loader.UnloadPath(event.Name) {
			w.logger.Info("docset removed", "path", event.Name)
		}
	case actionWatch:
		if err := w.fsw.Add(event.Name); err != nil {
			w.logger.Warn("cannot watch directory", "path", event.Name, "error", err)
			return
		}
		// The directory may have been moved in with bundles already inside.
		w.watchTree(event.Name, true)
	}
}

// classify maps a raw event to an action. Hidden entries are ignored.
func classify(event fsnotify.Event) action {
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return actionNone
	}
	bundle := registry.IsBundlePath(event.Name)

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if bundle {
			return actionUnload
		}
	case event.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil || !info.IsDir() {
			return actionNone
		}
		if bundle {
			return actionLoad
		}
		return actionWatch
	}

	return actionNone
}

// watchTree adds watches below dir. When schedule is set, bundles found on
// the way are queued for loading.
func (w *Watcher) watchTree(dir string, schedule bool) {
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			w.logger.Warn("skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if path == dir || !info.IsDir() {
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") {
			return filepath.SkipDir
		}
		if registry.IsBundlePath(path) {
			if schedule {
				w.schedule(path, 0)
			}
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("cannot watch directory", "path", path, "error", err)
		}
		return nil
	})
	if err != nil {
		w.logger.Warn("cannot walk directory", "path", dir, "error", err)
	}
}

// schedule (re)arms the debounce timer of a bundle.
func (w *Watcher) schedule(path string, attempt int) {
	w.timersMu.Lock()
	defer w.timersMu.Unlock()

	if w.ctx.Err() != nil {
		return
	}
	if timer, exists := w.timers[path]; exists {
		timer.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(w.debounce, func() {
		w.timersMu.Lock()
		if w.timers[path] != timer {
			// Superseded by a later event
			w.timersMu.Unlock()
			return
		}
		delete(w.timers, path)
		w.timersMu.Unlock()

		w.load(path, attempt)
	})
	w.timers[path] = timer
}

func (w *Watcher) stopTimer(path string) {
	w.timersMu.Lock()
	defer w.timersMu.Unlock()

	if timer, exists := w.timers[path]; exists {
		timer.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) load(path string, attempt int) {
	if w.ctx.Err() != nil {
		return
	}

	_, err := w.loader.Load(path)
	if err == nil {
		w.logger.Info("docset added", "path", path)
		return
	}

	if _, statErr := os.Stat(path); statErr != nil {
		// Gone again before it could be loaded.
		return
	}
	if attempt < w.retries {
		w.logger.Debug("retrying docset load", "path", path, "attempt", attempt+1, "error", err)
		w.schedule(path, attempt+1)
		return
	}
	w.logger.Warn("giving up on docset", "path", path, "error", err)
}

// Pending reports the number of bundles waiting for their debounce timer.
func (w *Watcher) Pending() int {
	w.timersMu.Lock()
	defer w.timersMu.Unlock()
	return len(w.timers)
}
