package searcher

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/dashdocs-mcp/internal/docset"
	"github.com/dshills/dashdocs-mcp/internal/docsettest"
	"github.com/dshills/dashdocs-mcp/pkg/types"
)

func openDocset(t testing.TB, fuzzy bool, entries []docsettest.Entry) *docset.Docset {
	t.Helper()

	path := docsettest.Create(t, t.TempDir(), docsettest.Bundle{
		Dir:     "Sample",
		Plist:   map[string]any{"CFBundleName": "Sample"},
		Entries: entries,
	})
	d, err := docset.Open(path, docset.Options{FuzzySearch: fuzzy})
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

var sampleEntries = []docsettest.Entry{
	{Name: "QString", Type: "cl", Path: "qstring.html"},
	{Name: "QString::arg", Type: "clm", Path: "qstring.html", Fragment: "arg"},
	{Name: "QString::append", Type: "clm", Path: "qstring.html", Fragment: "append"},
	{Name: "QStringList", Type: "cl", Path: "qstringlist.html"},
	{Name: "QStringRef::at", Type: "clm", Path: "qstringref.html", Fragment: "at"},
	{Name: "std::string", Type: "cl", Path: "string.html"},
	{Name: "strstr", Type: "func", Path: "strstr.html"},
	{Name: "Strategy", Type: "Guide", Path: "strategy.html"},
}

func TestCachingStrategyWithDocset(t *testing.T) {
	// Each sequence simulates typing; every step must equal a cold search.
	sequences := []string{"qstring", "str", "std::s", "qs.ar", "strat"}

	for _, fuzzy := range []bool{false, true} {
		t.Run(fmt.Sprintf("fuzzy=%v", fuzzy), func(t *testing.T) {
			cold := openDocset(t, fuzzy, sampleEntries)
			cached := NewCachingStrategy(openDocset(t, fuzzy, sampleEntries), DefaultCacheSize, docset.MaxResultsCount)
			ctx := context.Background()

			for _, seq := range sequences {
				for i := 1; i <= len(seq); i++ {
					q := seq[:i]
					want, err := cold.Search(ctx, q, types.NewCancellationToken())
					require.NoError(t, err)
					got, err := cached.Search(ctx, q, types.NewCancellationToken())
					require.NoError(t, err)

					types.SortResults(want)
					types.SortResults(got)
					require.Equal(t, len(want), len(got), q)
					for j := range want {
						assert.Equal(t, want[j].Name, got[j].Name, q)
						assert.Equal(t, want[j].Score, got[j].Score, q)
						assert.Equal(t, want[j].MatchType, got[j].MatchType, q)
					}
				}
			}

			stats := cached.Stats()
			assert.Positive(t, stats.Refinements)
		})
	}
}

func BenchmarkCachingStrategyTyping(b *testing.B) {
	entries := make([]docsettest.Entry, 0, 500)
	for i := range 500 {
		entries = append(entries, docsettest.Entry{
			Name: fmt.Sprintf("pkg%d.Function%d", i%20, i),
			Type: "func",
			Path: fmt.Sprintf("pkg%d.html", i%20),
		})
	}
	d := openDocset(b, true, entries)
	ctx := context.Background()
	query := "pkg1.func"

	b.Run("cold", func(b *testing.B) {
		for b.Loop() {
			for i := 1; i <= len(query); i++ {
				_, _ = d.Search(ctx, query[:i], types.NewCancellationToken())
			}
		}
	})

	b.Run("cached", func(b *testing.B) {
		for b.Loop() {
			c := NewCachingStrategy(d, DefaultCacheSize, docset.MaxResultsCount)
			for i := 1; i <= len(query); i++ {
				_, _ = c.Search(ctx, query[:i], types.NewCancellationToken())
			}
		}
	})
}
