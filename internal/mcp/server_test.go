package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/dashdocs-mcp/internal/docsettest"
	"github.com/dshills/dashdocs-mcp/internal/registry"
)

type toolHandler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func bundle(name, keyword string, entries ...docsettest.Entry) docsettest.Bundle {
	return docsettest.Bundle{
		Dir: name,
		Plist: map[string]any{
			"CFBundleName":         name,
			"DocSetPlatformFamily": keyword,
		},
		Entries: entries,
	}
}

func goBundle() docsettest.Bundle {
	return bundle("Go", "go",
		docsettest.Entry{Name: "foo", Type: "func", Path: "foo.html"},
		docsettest.Entry{Name: "foobar", Type: "func", Path: "foobar.html"},
		docsettest.Entry{Name: "http.Get", Type: "func", Path: "http.html", Fragment: "Get"},
		docsettest.Entry{Name: "http.Client", Type: "Type", Path: "http.html", Fragment: "Client"},
	)
}

func cBundle() docsettest.Bundle {
	return bundle("C", "c",
		docsettest.Entry{Name: "xfooy", Type: "Macro", Path: "xfooy.html"},
		docsettest.Entry{Name: "printf", Type: "func", Path: "printf.html"},
	)
}

func newTestServer(t *testing.T) (*Server, *registry.Registry) {
	t.Helper()

	reg := registry.New(registry.Options{CacheEnabled: true, CacheSize: 4})
	t.Cleanup(func() { _ = reg.Close() })

	root := t.TempDir()
	for _, b := range []docsettest.Bundle{goBundle(), cBundle()} {
		_, err := reg.Load(docsettest.Create(t, root, b))
		require.NoError(t, err)
	}

	server, err := NewServer(reg, nil)
	require.NoError(t, err)
	return server, reg
}

func call(t *testing.T, handler toolHandler, args map[string]interface{}) map[string]interface{} {
	t.Helper()

	result, err := handler(context.Background(), request(args))
	require.NoError(t, err)
	require.Len(t, result.Content, 1)

	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &response))
	return response
}

func callError(t *testing.T, handler toolHandler, args map[string]interface{}) *MCPError {
	t.Helper()

	_, err := handler(context.Background(), request(args))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	return mcpErr
}

func request(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func names(items interface{}) []string {
	var out []string
	for _, item := range items.([]interface{}) {
		out = append(out, item.(map[string]interface{})["name"].(string))
	}
	return out
}

func TestNewServer(t *testing.T) {
	server, _ := newTestServer(t)

	assert.NotNil(t, server.mcp, "MCP server should be initialized")
	assert.NotNil(t, server.registry, "Registry should be set")
	assert.NotNil(t, server.unsubscribe, "Server should listen for docset changes")
}

func TestToolSchemas(t *testing.T) {
	tools := []mcp.Tool{
		searchDocsetsTool(),
		listDocsetsTool(),
		listSymbolsTool(),
		relatedLinksTool(),
		loadDocsetTool(),
		setSearchModeTool(),
	}

	var got []string
	for _, tool := range tools {
		got = append(got, tool.Name)
		assert.Equal(t, "object", tool.InputSchema.Type)
		for _, required := range tool.InputSchema.Required {
			assert.Contains(t, tool.InputSchema.Properties, required, "%s: required property must be declared", tool.Name)
		}
	}

	assert.Equal(t, []string{
		"search_docsets",
		"list_docsets",
		"list_symbols",
		"related_links",
		"load_docset",
		"set_search_mode",
	}, got)
}

func TestHandleSearchDocsets(t *testing.T) {
	server, _ := newTestServer(t)

	t.Run("merges results across docsets", func(t *testing.T) {
		resp := call(t, server.handleSearchDocsets, map[string]interface{}{"query": "foo"})

		assert.Equal(t, float64(3), resp["total"])
		assert.ElementsMatch(t, []string{"foo", "foobar", "xfooy"}, names(resp["results"]))

		first := resp["results"].([]interface{})[0].(map[string]interface{})
		assert.Equal(t, "foo", first["name"])
		assert.Equal(t, float64(1), first["rank"])
		assert.Equal(t, "Go", first["docset"])
		assert.Equal(t, "Function", first["type"])
		assert.Contains(t, first["url"], "file://")
		assert.Contains(t, first["url"], "foo.html")
	})

	t.Run("keyword prefix restricts docsets", func(t *testing.T) {
		resp := call(t, server.handleSearchDocsets, map[string]interface{}{"query": "c:foo"})
		assert.Equal(t, []string{"xfooy"}, names(resp["results"]))
	})

	t.Run("docset filter", func(t *testing.T) {
		resp := call(t, server.handleSearchDocsets, map[string]interface{}{"query": "foo", "docset": "Go"})
		assert.Equal(t, float64(2), resp["total"])
		assert.ElementsMatch(t, []string{"foo", "foobar"}, names(resp["results"]))
	})

	t.Run("limit keeps total", func(t *testing.T) {
		resp := call(t, server.handleSearchDocsets, map[string]interface{}{"query": "foo", "limit": float64(1)})
		assert.Equal(t, float64(3), resp["total"])
		assert.Len(t, resp["results"], 1)
	})

	t.Run("parent name", func(t *testing.T) {
		resp := call(t, server.handleSearchDocsets, map[string]interface{}{"query": "http.Get"})
		first := resp["results"].([]interface{})[0].(map[string]interface{})
		assert.Equal(t, "http.Get", first["name"])
		assert.Equal(t, "http", first["parent_name"])
		assert.Contains(t, first["url"], "#Get")
	})

	t.Run("no matches", func(t *testing.T) {
		resp := call(t, server.handleSearchDocsets, map[string]interface{}{"query": "zzz"})
		assert.Equal(t, float64(0), resp["total"])
		assert.Empty(t, resp["results"])
	})

	errorTests := []struct {
		name string
		args map[string]interface{}
		code int
	}{
		{"missing query", map[string]interface{}{}, ErrorCodeEmptyQuery},
		{"blank query", map[string]interface{}{"query": "   "}, ErrorCodeEmptyQuery},
		{"keywords only", map[string]interface{}{"query": "go:"}, ErrorCodeEmptyQuery},
		{"limit too small", map[string]interface{}{"query": "foo", "limit": float64(0)}, ErrorCodeInvalidParams},
		{"limit too large", map[string]interface{}{"query": "foo", "limit": float64(maxSearchLimit + 1)}, ErrorCodeInvalidParams},
		{"unknown docset", map[string]interface{}{"query": "foo", "docset": "Rust"}, ErrorCodeDocsetNotFound},
	}

	for _, tt := range errorTests {
		t.Run(tt.name, func(t *testing.T) {
			mcpErr := callError(t, server.handleSearchDocsets, tt.args)
			assert.Equal(t, tt.code, mcpErr.Code)
		})
	}
}

func TestHandleListDocsets(t *testing.T) {
	server, _ := newTestServer(t)

	resp := call(t, server.handleListDocsets, map[string]interface{}{})

	assert.Equal(t, float64(2), resp["count"])
	assert.Equal(t, false, resp["fuzzy"])
	assert.Equal(t, []string{"C", "Go"}, names(resp["docsets"]))

	goDocset := resp["docsets"].([]interface{})[1].(map[string]interface{})
	assert.Equal(t, "Go", goDocset["title"])
	assert.Equal(t, float64(4), goDocset["symbols"])
	assert.Equal(t, "dash", goDocset["schema"])
	assert.Contains(t, goDocset["keywords"], "go")
	assert.Equal(t, false, goDocset["update_available"])
	assert.True(t, filepath.IsAbs(goDocset["path"].(string)))
}

func TestHandleListSymbols(t *testing.T) {
	server, _ := newTestServer(t)

	t.Run("counts per type", func(t *testing.T) {
		resp := call(t, server.handleListSymbols, map[string]interface{}{"docset": "Go"})
		assert.Equal(t, map[string]interface{}{
			"Function": float64(3),
			"Type":     float64(1),
		}, resp["counts"])
	})

	t.Run("symbols of a type", func(t *testing.T) {
		resp := call(t, server.handleListSymbols, map[string]interface{}{
			"docset": "Go",
			"type":   "Function",
			"limit":  float64(2),
		})
		assert.Equal(t, float64(3), resp["total"])
		assert.Equal(t, []string{"foo", "foobar"}, names(resp["symbols"]))
	})

	t.Run("unknown type", func(t *testing.T) {
		resp := call(t, server.handleListSymbols, map[string]interface{}{"docset": "Go", "type": "Class"})
		assert.Equal(t, float64(0), resp["total"])
		assert.Empty(t, resp["symbols"])
	})

	t.Run("unknown docset", func(t *testing.T) {
		mcpErr := callError(t, server.handleListSymbols, map[string]interface{}{"docset": "Rust"})
		assert.Equal(t, ErrorCodeDocsetNotFound, mcpErr.Code)
	})

	t.Run("missing docset", func(t *testing.T) {
		mcpErr := callError(t, server.handleListSymbols, map[string]interface{}{})
		assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
	})

	t.Run("bad limit", func(t *testing.T) {
		mcpErr := callError(t, server.handleListSymbols, map[string]interface{}{
			"docset": "Go",
			"type":   "Function",
			"limit":  float64(maxSymbolsLimit + 1),
		})
		assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
	})
}

func TestHandleRelatedLinks(t *testing.T) {
	server, reg := newTestServer(t)

	d, err := reg.Docset("Go")
	require.NoError(t, err)

	t.Run("page with several entries", func(t *testing.T) {
		resp := call(t, server.handleRelatedLinks, map[string]interface{}{
			"url": d.PageURL("http.html", "Get").String(),
		})
		assert.Equal(t, "Go", resp["docset"])
		assert.ElementsMatch(t, []string{"http.Client", "http.Get"}, names(resp["links"]))
	})

	t.Run("single entry page", func(t *testing.T) {
		resp := call(t, server.handleRelatedLinks, map[string]interface{}{
			"url": d.PageURL("foo.html", "").String(),
		})
		assert.Empty(t, resp["links"])
	})

	t.Run("outside loaded docsets", func(t *testing.T) {
		mcpErr := callError(t, server.handleRelatedLinks, map[string]interface{}{
			"url": "https://example.com/http.html",
		})
		assert.Equal(t, ErrorCodeURLOutOfDocsets, mcpErr.Code)
	})

	t.Run("missing url", func(t *testing.T) {
		mcpErr := callError(t, server.handleRelatedLinks, map[string]interface{}{})
		assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
	})
}

func TestHandleLoadDocset(t *testing.T) {
	t.Run("single bundle", func(t *testing.T) {
		server, reg := newTestServer(t)

		path := docsettest.Create(t, t.TempDir(), bundle("Python", "python",
			docsettest.Entry{Name: "open", Type: "func", Path: "open.html"},
		))

		resp := call(t, server.handleLoadDocset, map[string]interface{}{"path": path})
		assert.Equal(t, []interface{}{"Python"}, resp["loaded"])
		assert.Equal(t, float64(3), resp["count"])
		assert.True(t, reg.Contains("Python"))
	})

	t.Run("directory scan", func(t *testing.T) {
		server, reg := newTestServer(t)

		root := t.TempDir()
		docsettest.Create(t, root, bundle("Python", "python",
			docsettest.Entry{Name: "open", Type: "func", Path: "open.html"},
		))
		require.NoError(t, os.MkdirAll(filepath.Join(root, "Broken.docset"), 0o755))

		resp := call(t, server.handleLoadDocset, map[string]interface{}{"path": root})
		assert.Equal(t, float64(2), resp["found"])
		assert.Equal(t, float64(1), resp["loaded"])
		assert.Equal(t, float64(1), resp["failed"])
		assert.Equal(t, []interface{}{"Python"}, resp["new"])
		assert.Len(t, resp["errors"], 1)
		assert.True(t, reg.Contains("Python"))
	})

	t.Run("invalid bundle", func(t *testing.T) {
		server, _ := newTestServer(t)

		path := filepath.Join(t.TempDir(), "Broken.docset")
		require.NoError(t, os.MkdirAll(path, 0o755))

		mcpErr := callError(t, server.handleLoadDocset, map[string]interface{}{"path": path})
		assert.Equal(t, ErrorCodeInvalidDocset, mcpErr.Code)
	})

	pathTests := []struct {
		name string
		path string
	}{
		{"relative path", "docsets"},
		{"missing path", filepath.Join(os.TempDir(), "dashdocs-does-not-exist")},
	}

	for _, tt := range pathTests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newTestServer(t)
			mcpErr := callError(t, server.handleLoadDocset, map[string]interface{}{"path": tt.path})
			assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
		})
	}
}

func TestHandleSetSearchMode(t *testing.T) {
	server, reg := newTestServer(t)

	resp := call(t, server.handleSetSearchMode, map[string]interface{}{"fuzzy": true})
	assert.Equal(t, true, resp["fuzzy"])
	assert.True(t, reg.IsFuzzySearchEnabled())

	// Fuzzy matching finds subsequences that substring matching misses.
	search := call(t, server.handleSearchDocsets, map[string]interface{}{"query": "fbr"})
	assert.Contains(t, names(search["results"]), "foobar")

	resp = call(t, server.handleSetSearchMode, map[string]interface{}{"fuzzy": false})
	assert.Equal(t, false, resp["fuzzy"])
	assert.False(t, reg.IsFuzzySearchEnabled())

	search = call(t, server.handleSearchDocsets, map[string]interface{}{"query": "fbr"})
	assert.Empty(t, search["results"])

	mcpErr := callError(t, server.handleSetSearchMode, map[string]interface{}{"fuzzy": "yes"})
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestValidatePath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	tests := []struct {
		name string
		path string
		want error
	}{
		{"valid", dir, nil},
		{"empty", "", ErrPathRequired},
		{"relative", "relative/path", ErrPathNotAbsolute},
		{"missing", filepath.Join(dir, "missing"), ErrPathNotFound},
		{"file", file, ErrNotDirectory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePath(tt.path)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
