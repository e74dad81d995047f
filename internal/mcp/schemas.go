package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	defaultSearchLimit  = 20
	maxSearchLimit      = 100
	defaultSymbolsLimit = 100
	maxSymbolsLimit     = 1000
)

// searchDocsetsTool returns the tool definition for search_docsets
func searchDocsetsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_docsets",
		Description: "Search API symbols across all loaded Dash/Zeal docsets, ranked by relevance",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Symbol to look for. Prefix with comma-separated docset keywords to restrict the search, e.g. 'go,python:open'",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     defaultSearchLimit,
					"minimum":     1,
					"maximum":     maxSearchLimit,
				},
				"docset": map[string]interface{}{
					"type":        "string",
					"description": "Only return results from the docset with this name",
				},
			},
			Required: []string{"query"},
		},
	}
}

// listDocsetsTool returns the tool definition for list_docsets
func listDocsetsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_docsets",
		Description: "List the loaded docsets with their keywords, versions and symbol counts",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// listSymbolsTool returns the tool definition for list_symbols
func listSymbolsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_symbols",
		Description: "Count a docset's symbols per type, or list the symbols of one type",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"docset": map[string]interface{}{
					"type":        "string",
					"description": "Docset name as reported by list_docsets",
				},
				"type": map[string]interface{}{
					"type":        "string",
					"description": "Symbol type such as Class, Function or Method. Omit to get counts per type",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of symbols to return (1-1000)",
					"default":     defaultSymbolsLimit,
					"minimum":     1,
					"maximum":     maxSymbolsLimit,
				},
			},
			Required: []string{"docset"},
		},
	}
}

// relatedLinksTool returns the tool definition for related_links
func relatedLinksTool() mcp.Tool {
	return mcp.Tool{
		Name:        "related_links",
		Description: "List the other entries documented on the page a result URL points to",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"url": map[string]interface{}{
					"type":        "string",
					"description": "file:// URL of a search result",
				},
			},
			Required: []string{"url"},
		},
	}
}

// loadDocsetTool returns the tool definition for load_docset
func loadDocsetTool() mcp.Tool {
	return mcp.Tool{
		Name:        "load_docset",
		Description: "Load a .docset bundle, or every bundle below a directory",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to a .docset bundle or a directory containing bundles",
				},
			},
			Required: []string{"path"},
		},
	}
}

// setSearchModeTool returns the tool definition for set_search_mode
func setSearchModeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "set_search_mode",
		Description: "Switch between fuzzy matching and case-insensitive substring matching",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"fuzzy": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, rank symbols by fuzzy relevance; otherwise match substrings",
				},
			},
			Required: []string{"fuzzy"},
		},
	}
}
