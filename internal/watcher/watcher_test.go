package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/dashdocs-mcp/internal/docset"
	"github.com/dshills/dashdocs-mcp/internal/docsettest"
	"github.com/dshills/dashdocs-mcp/internal/registry"
)

// mockLoader implements Loader for testing
type mockLoader struct {
	mu       sync.Mutex
	loads    []string
	unloads  []string
	failures int // Number of leading Load calls that fail
}

func (m *mockLoader) Load(path string) (*docset.Docset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loads = append(m.loads, path)
	if m.failures > 0 {
		m.failures--
		return nil, errors.New("incomplete bundle")
	}
	return nil, nil
}

func (m *mockLoader) UnloadPath(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.unloads = append(m.unloads, path)
	return true
}

func (m *mockLoader) loaded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.loads)
}

func (m *mockLoader) unloaded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.unloads)
}

func startWatcher(t *testing.T, root string, loader Loader) *Watcher {
	t.Helper()

	w, err := New(root, loader, Config{Debounce: 20 * time.Millisecond})
	require.NoError(t, err)
	w.Start()
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func bundle(name string) docsettest.Bundle {
	return docsettest.Bundle{
		Dir:     name,
		Plist:   map[string]any{"CFBundleName": name},
		Entries: []docsettest.Entry{{Name: "foo", Type: "func", Path: "foo.html"}},
	}
}

func TestClassify(t *testing.T) {
	dir := t.TempDir()
	bundleDir := filepath.Join(dir, "Go.docset")
	plainDir := filepath.Join(dir, "vendor")
	file := filepath.Join(dir, "Go.docset.tgz")
	require.NoError(t, os.Mkdir(bundleDir, 0o755))
	require.NoError(t, os.Mkdir(plainDir, 0o755))
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	tests := []struct {
		name      string
		path      string
		operation fsnotify.Op
		want      action
	}{
		{"create bundle", bundleDir, fsnotify.Create, actionLoad},
		{"create directory", plainDir, fsnotify.Create, actionWatch},
		{"create file", file, fsnotify.Create, actionNone},
		{"create vanished", filepath.Join(dir, "Gone.docset"), fsnotify.Create, actionNone},
		{"remove bundle", filepath.Join(dir, "Old.docset"), fsnotify.Remove, actionUnload},
		{"rename bundle", filepath.Join(dir, "Old.docset"), fsnotify.Rename, actionUnload},
		{"remove directory", filepath.Join(dir, "old"), fsnotify.Remove, actionNone},
		{"write bundle", bundleDir, fsnotify.Write, actionNone},
		{"chmod bundle", bundleDir, fsnotify.Chmod, actionNone},
		{"hidden bundle", filepath.Join(dir, ".Go.docset"), fsnotify.Remove, actionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(fsnotify.Event{Name: tt.path, Op: tt.operation})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewMissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), &mockLoader{}, Config{})
	assert.Error(t, err)
}

func TestWatcherLoadsNewBundle(t *testing.T) {
	root := t.TempDir()
	loader := &mockLoader{}
	startWatcher(t, root, loader)

	path := docsettest.Create(t, root, bundle("Go"))

	require.Eventually(t, func() bool {
		return slices.Contains(loader.loaded(), path)
	}, 5*time.Second, 10*time.Millisecond)

	// Debounced into a single load
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, loader.loaded(), 1)
}

func TestWatcherUnloadsRemovedBundle(t *testing.T) {
	root := t.TempDir()
	path := docsettest.Create(t, root, bundle("Go"))

	loader := &mockLoader{}
	startWatcher(t, root, loader)

	require.NoError(t, os.RemoveAll(path))

	require.Eventually(t, func() bool {
		return slices.Contains(loader.unloaded(), path)
	}, 5*time.Second, 10*time.Millisecond)
	assert.Empty(t, loader.loaded())
}

func TestWatcherRenamedBundle(t *testing.T) {
	root := t.TempDir()
	oldPath := docsettest.Create(t, root, bundle("Go"))

	loader := &mockLoader{}
	startWatcher(t, root, loader)

	newPath := filepath.Join(root, "Golang.docset")
	require.NoError(t, os.Rename(oldPath, newPath))

	require.Eventually(t, func() bool {
		return slices.Contains(loader.unloaded(), oldPath) && slices.Contains(loader.loaded(), newPath)
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatcherNestedDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "existing"), 0o755))

	loader := &mockLoader{}
	startWatcher(t, root, loader)

	// Directory watched at startup
	first := docsettest.Create(t, filepath.Join(root, "existing"), bundle("Go"))
	// Directory created after startup, bundle may land before its watch
	second := docsettest.Create(t, filepath.Join(root, "new", "deeper"), bundle("C"))

	require.Eventually(t, func() bool {
		loads := loader.loaded()
		return slices.Contains(loads, first) && slices.Contains(loads, second)
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatcherIgnoresHidden(t *testing.T) {
	root := t.TempDir()
	loader := &mockLoader{}
	startWatcher(t, root, loader)

	docsettest.Create(t, filepath.Join(root, ".cache"), bundle("Go"))
	require.NoError(t, os.Mkdir(filepath.Join(root, ".Tmp.docset"), 0o755))

	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, loader.loaded())
}

func TestWatcherRetriesIncompleteBundle(t *testing.T) {
	root := t.TempDir()
	loader := &mockLoader{failures: 2}
	startWatcher(t, root, loader)

	path := docsettest.Create(t, root, bundle("Go"))

	require.Eventually(t, func() bool {
		return len(loader.loaded()) == 3
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{path, path, path}, loader.loaded())

	time.Sleep(100 * time.Millisecond)
	assert.Len(t, loader.loaded(), 3)
}

func TestWatcherGivesUp(t *testing.T) {
	root := t.TempDir()
	loader := &mockLoader{failures: 100}

	w, err := New(root, loader, Config{Debounce: 10 * time.Millisecond, Retries: -1})
	require.NoError(t, err)
	w.Start()
	t.Cleanup(func() { _ = w.Close() })

	docsettest.Create(t, root, bundle("Go"))

	require.Eventually(t, func() bool {
		return len(loader.loaded()) == 1
	}, 5*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, loader.loaded(), 1)
}

func TestCloseDropsPending(t *testing.T) {
	root := t.TempDir()
	loader := &mockLoader{}

	w, err := New(root, loader, Config{Debounce: time.Hour})
	require.NoError(t, err)
	w.Start()

	docsettest.Create(t, root, bundle("Go"))
	require.Eventually(t, func() bool { return w.Pending() == 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, w.Close())
	assert.Zero(t, w.Pending())
	assert.Empty(t, loader.loaded())
}

func TestWatcherWithRegistry(t *testing.T) {
	root := t.TempDir()
	reg := registry.New(registry.Options{})
	t.Cleanup(func() { _ = reg.Close() })

	// Long enough for the fixture to be written before the first attempt
	w, err := New(root, reg, Config{Debounce: 200 * time.Millisecond, Retries: 10})
	require.NoError(t, err)
	w.Start()
	t.Cleanup(func() { _ = w.Close() })

	path := docsettest.Create(t, root, bundle("Go"))
	require.Eventually(t, func() bool { return reg.Contains("Go") }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.RemoveAll(path))
	require.Eventually(t, func() bool { return !reg.Contains("Go") }, 5*time.Second, 10*time.Millisecond)
}
