// Package docset loads Dash/Zeal docset bundles and searches their indexes.
//
// A bundle is a directory named <Name>.docset:
//
//	Name.docset/
//	  meta.json                      optional feed metadata
//	  icon.png                       optional
//	  Contents/Info.plist            required
//	  Contents/Resources/docSet.dsidx
//	  Contents/Resources/Documents/  HTML pages
//
// Open either returns a fully valid Docset or an error wrapping
// types.ErrInvalidDocset. After Open, a Docset is safe for concurrent use.
package docset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dshills/dashdocs-mcp/internal/storage"
	"github.com/dshills/dashdocs-mcp/pkg/types"
)

const (
	// Extension is the bundle directory suffix.
	Extension = ".docset"

	// NotFoundPageURL is used as the index page when none can be determined.
	NotFoundPageURL = "about:blank"

	cheatsheetFamily = "cheatsheet"
	tocFamilyMarker  = "dashtoc"
)

// Options configures Open.
type Options struct {
	Logger      *slog.Logger
	FuzzySearch bool
}

// Docset is a loaded, valid docset bundle.
type Docset struct {
	name     string
	title    string
	keywords []string
	version  string
	revision int
	feedURL  string

	path              string
	iconPath          string
	indexFilePath     string
	javaScriptEnabled bool

	baseURL      *url.URL
	indexFileURL *url.URL

	index  *storage.Index
	logger *slog.Logger

	fuzzy           atomic.Bool
	updateAvailable atomic.Bool

	census func() (*typeInfo, error)

	symbolsMu sync.Mutex
	symbols   map[types.SymbolType][]types.Symbol
}

// typeInfo is the per-type symbol census, computed once.
type typeInfo struct {
	counts map[types.SymbolType]int
	// raw lists the type strings stored in the index for each canonical type.
	raw map[types.SymbolType][]string
}

func invalid(path, reason string, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %s: %s: %w", types.ErrInvalidDocset, path, reason, err)
	}
	return fmt.Errorf("%w: %s: %s", types.ErrInvalidDocset, path, reason)
}

// Open loads the bundle at path.
func Open(path string, opts Options) (*Docset, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, invalid(path, "cannot access bundle", err)
	}
	if !info.IsDir() {
		return nil, invalid(path, "not a directory", nil)
	}

	d := &Docset{
		path:    path,
		logger:  logger.With("docset", filepath.Base(path)),
		symbols: make(map[types.SymbolType][]types.Symbol),
	}
	d.fuzzy.Store(opts.FuzzySearch)

	meta, err := readMetadata(path)
	if err != nil {
		d.logger.Warn("ignoring docset metadata", "error", err)
	}
	d.applyMetadata(meta)
	d.iconPath = findIcon(path)

	pl, err := readInfoPlist(path)
	if err != nil {
		return nil, invalid(path, "missing or unreadable Info.plist", err)
	}
	d.applyNames(pl)

	ctx := context.Background()
	index, err := storage.OpenIndex(ctx, filepath.Join(path, "Contents", "Resources", "docSet.dsidx"))
	if err != nil {
		return nil, invalid(path, "cannot open index", err)
	}

	if err := index.EnsureNameIndex(ctx); err != nil {
		d.logger.Warn("cannot create name index", "error", err)
	}

	docs := d.DocumentPath()
	if fi, err := os.Stat(docs); err != nil || !fi.IsDir() {
		_ = index.Close()
		return nil, invalid(path, "missing Documents directory", err)
	}
	d.index = index
	d.baseURL = fileURL(docs)

	d.applyKeywords(meta, pl)
	if v, ok := pl.lookupBool(plistJavaScriptEnabled); ok {
		d.javaScriptEnabled = v
	}
	d.resolveIndexFile(meta, pl)

	d.census = sync.OnceValues(d.loadTypeInfo)
	if _, err := d.census(); err != nil {
		d.logger.Warn("cannot count symbols", "error", err)
	}

	return d, nil
}

func (d *Docset) applyMetadata(meta *Metadata) {
	if meta == nil {
		return
	}

	d.name = meta.Name
	d.title = meta.Title
	d.version = meta.Version
	d.revision = int(meta.Revision)
	d.feedURL = meta.FeedURL
	if meta.Extra.IsJavaScriptEnabled != nil {
		d.javaScriptEnabled = *meta.Extra.IsJavaScriptEnabled
	}
}

// applyNames fills in name and title when meta.json did not provide them.
func (d *Docset) applyNames(pl infoPlist) {
	if d.name == "" {
		if bundleName, ok := pl.lookupString(plistBundleName); ok && bundleName != "" {
			d.name = strings.ReplaceAll(bundleName, " ", "_")
			if d.title == "" {
				d.title = bundleName
			}
		} else {
			d.name = strings.TrimSuffix(filepath.Base(d.path), Extension)
		}
	}

	if d.title == "" {
		d.title = strings.ReplaceAll(d.name, "_", " ")
	}

	if family, _ := pl.lookupString(plistDocSetFamily); family == cheatsheetFamily {
		d.name += "cheats"
	}
}

func (d *Docset) applyKeywords(meta *Metadata, pl infoPlist) {
	var keywords []string
	if meta != nil {
		keywords = append(keywords, meta.Extra.Keywords...)
	}

	for _, key := range []string{plistPlatformFamily, plistDocSetPluginKeyword, plistDocSetKeyword} {
		if kw, ok := pl.lookupString(key); ok {
			keywords = append(keywords, kw)
		}
	}
	if family, ok := pl.lookupString(plistDocSetFamily); ok && !strings.Contains(family, tocFamilyMarker) {
		keywords = append(keywords, family)
	}

	seen := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		d.keywords = append(d.keywords, kw)
	}
}

// resolveIndexFile picks the start page: the Info.plist index, then the
// meta.json index, then index.html. Candidates must exist on disk.
func (d *Docset) resolveIndexFile(meta *Metadata, pl infoPlist) {
	var candidates []string
	if p, ok := pl.lookupString(plistIndexFilePath); ok {
		candidates = append(candidates, p)
	}
	if meta != nil {
		candidates = append(candidates, meta.Extra.IndexFilePath)
	}
	candidates = append(candidates, "index.html")

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if _, err := os.Stat(filepath.Join(d.DocumentPath(), filepath.FromSlash(candidate))); err == nil {
			d.indexFilePath = candidate
			d.indexFileURL = d.PageURL(candidate, "")
			return
		}
	}

	d.logger.Warn("cannot determine index file")
	d.indexFileURL, _ = url.Parse(NotFoundPageURL)
}

func findIcon(bundle string) string {
	matches, err := filepath.Glob(filepath.Join(bundle, "icon.*"))
	if err != nil {
		return ""
	}
	slices.Sort(matches)
	for _, m := range matches {
		if fi, err := os.Stat(m); err == nil && fi.Mode().IsRegular() {
			return m
		}
	}
	return ""
}

// Close releases the index. In-flight searches finish first.
func (d *Docset) Close() error {
	return d.index.Close()
}

func (d *Docset) Name() string          { return d.name }
func (d *Docset) Title() string         { return d.title }
func (d *Docset) Version() string       { return d.version }
func (d *Docset) Revision() int         { return d.revision }
func (d *Docset) FeedURL() string       { return d.feedURL }
func (d *Docset) Path() string          { return d.path }
func (d *Docset) IconPath() string      { return d.iconPath }
func (d *Docset) IndexFilePath() string { return d.indexFilePath }

// Keywords returns the docset's filter keywords.
func (d *Docset) Keywords() []string {
	return slices.Clone(d.keywords)
}

// Schema reports the on-disk index layout.
func (d *Docset) Schema() storage.Schema {
	return d.index.Schema()
}

// DocumentPath is the directory holding the docset's HTML pages.
func (d *Docset) DocumentPath() string {
	return filepath.Join(d.path, "Contents", "Resources", "Documents")
}

// IndexFileURL returns the start page, or NotFoundPageURL.
func (d *Docset) IndexFileURL() *url.URL {
	u := *d.indexFileURL
	return &u
}

// BaseURL returns the file URL of DocumentPath.
func (d *Docset) BaseURL() *url.URL {
	u := *d.baseURL
	return &u
}

func (d *Docset) IsJavaScriptEnabled() bool {
	return d.javaScriptEnabled
}

func (d *Docset) IsFuzzySearchEnabled() bool {
	return d.fuzzy.Load()
}

// SetFuzzySearchEnabled switches between fuzzy and substring search.
// Cached results computed in the other mode must be discarded by the caller.
func (d *Docset) SetFuzzySearchEnabled(enabled bool) {
	d.fuzzy.Store(enabled)
}

func (d *Docset) IsUpdateAvailable() bool {
	return d.updateAvailable.Load()
}

func (d *Docset) SetUpdateAvailable(available bool) {
	d.updateAvailable.Store(available)
}

// SymbolCounts returns the number of symbols per canonical type.
func (d *Docset) SymbolCounts() (map[types.SymbolType]int, error) {
	info, err := d.census()
	if err != nil {
		return nil, err
	}
	counts := make(map[types.SymbolType]int, len(info.counts))
	for k, v := range info.counts {
		counts[k] = v
	}
	return counts, nil
}

// SymbolCount returns the number of symbols of one canonical type.
func (d *Docset) SymbolCount(symbolType types.SymbolType) int {
	info, err := d.census()
	if err != nil {
		return 0
	}
	return info.counts[symbolType]
}

func (d *Docset) loadTypeInfo() (*typeInfo, error) {
	raw, err := d.index.CountByType(context.Background())
	if err != nil {
		return nil, err
	}

	info := &typeInfo{
		counts: make(map[types.SymbolType]int),
		raw:    make(map[types.SymbolType][]string),
	}
	for rawType, count := range raw {
		if rawType == "" {
			d.logger.Warn("skipping symbols with empty type", "count", count)
			continue
		}
		t := NormalizeType(rawType)
		info.counts[t] += count
		info.raw[t] = append(info.raw[t], rawType)
	}
	for _, r := range info.raw {
		slices.Sort(r)
	}

	return info, nil
}

// Symbols lists the symbols of a canonical type ordered by name. Results are
// loaded on first use and cached.
func (d *Docset) Symbols(ctx context.Context, symbolType types.SymbolType) ([]types.Symbol, error) {
	d.symbolsMu.Lock()
	defer d.symbolsMu.Unlock()

	if symbols, ok := d.symbols[symbolType]; ok {
		return slices.Clone(symbols), nil
	}

	info, err := d.census()
	if err != nil {
		return nil, err
	}

	var symbols []types.Symbol
	for _, rawType := range info.raw[symbolType] {
		rows, err := d.index.SymbolsByType(ctx, rawType)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			symbols = append(symbols, types.Symbol{
				Name: row.Name,
				Type: symbolType,
				URL:  d.PageURL(row.Path, row.Fragment),
			})
		}
	}
	slices.SortStableFunc(symbols, func(a, b types.Symbol) int {
		return strings.Compare(a.Name, b.Name)
	})

	d.symbols[symbolType] = symbols
	return slices.Clone(symbols), nil
}

// IsInvalid reports whether err came from loading an invalid bundle.
func IsInvalid(err error) bool {
	return errors.Is(err, types.ErrInvalidDocset)
}
