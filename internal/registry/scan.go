package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/dashdocs-mcp/internal/docset"
)

// Statistics contains statistics about a directory scan
type Statistics struct {
	Found         int
	Loaded        int
	Failed        int
	Duration      time.Duration
	ErrorMessages []string
}

// LoadDir recursively loads every docset bundle below root. A directory
// named *.docset is loaded as a bundle; any other directory is descended
// into. Bundles are opened concurrently and registered in path order, so when
// two bundles share a name the one sorting last wins.
//
// Invalid bundles are logged and counted; they never abort the scan.
func (r *Registry) LoadDir(ctx context.Context, root string) (*Statistics, error) {
	if r.isClosed() {
		return nil, ErrClosed
	}
	if !r.scanLock.TryAcquire() {
		return nil, ErrScanInProgress
	}
	defer r.scanLock.Release()

	startTime := time.Now()
	stats := &Statistics{
		ErrorMessages: make([]string, 0),
	}

	bundles, err := r.discoverBundles(root)
	if err != nil {
		return nil, fmt.Errorf("failed to discover docsets: %w", err)
	}
	stats.Found = len(bundles)

	opened := r.openBundles(ctx, bundles, stats)

	for _, d := range opened {
		if d == nil {
			continue
		}
		if err := r.add(d); err != nil {
			_ = d.Close()
			stats.Failed++
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", d.Path(), err))
			continue
		}
		stats.Loaded++
	}

	stats.Duration = time.Since(startTime)
	r.logger.Info("docset scan finished",
		"root", root,
		"found", stats.Found,
		"loaded", stats.Loaded,
		"failed", stats.Failed,
		"duration", stats.Duration)

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	return stats, nil
}

// discoverBundles finds all docset bundles below root in lexical order
func (r *Registry) discoverBundles(root string) ([]string, error) {
	var bundles []string

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			r.logger.Warn("skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if path == root {
			return nil
		}

		// Docsets are often symlinked into the docset root
		if info.Mode()&os.ModeSymlink != 0 && IsBundlePath(path) {
			if target, err := os.Stat(path); err == nil && target.IsDir() {
				bundles = append(bundles, path)
			}
			return nil
		}

		if !info.IsDir() {
			return nil
		}

		// Skip hidden directories
		if strings.HasPrefix(info.Name(), ".") {
			return filepath.SkipDir
		}

		if IsBundlePath(path) {
			bundles = append(bundles, path)
			return filepath.SkipDir
		}
		return nil
	})

	return bundles, err
}

// openBundles opens bundles concurrently. The returned slice is parallel to
// bundles with nil for every bundle that failed to open.
func (r *Registry) openBundles(ctx context.Context, bundles []string, stats *Statistics) []*docset.Docset {
	opened := make([]*docset.Docset, len(bundles))
	opts := r.docsetOptions()

	var failed int32
	var mu sync.Mutex // Protect stats.ErrorMessages

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, path := range bundles {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			d, err := docset.Open(path, opts)
			if err != nil {
				atomic.AddInt32(&failed, 1)
				r.logger.Warn("cannot load docset, please reinstall it", "path", path, "error", err)
				mu.Lock()
				stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", path, err))
				mu.Unlock()
				// Continue with other bundles
				return nil
			}
			opened[i] = d
			return nil
		})
	}

	// Only cancellation is reported; it leaves the remaining slots nil.
	_ = g.Wait()

	stats.Failed = int(failed)
	return opened
}

// IsBundlePath reports whether path names a docset bundle directory.
func IsBundlePath(path string) bool {
	return strings.EqualFold(filepath.Ext(filepath.Clean(path)), docset.Extension)
}
