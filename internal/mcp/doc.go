// Package mcp implements the Model Context Protocol (MCP) server for dashdocs.
//
// The MCP server exposes the loaded Dash/Zeal docsets to AI coding assistants
// through six tools:
//   - search_docsets: Rank API symbols across every loaded docset
//   - list_docsets: Describe the loaded docsets
//   - list_symbols: Count or list a docset's symbols by type
//   - related_links: List the other entries documented on a result's page
//   - load_docset: Load a bundle or scan a directory for bundles
//   - set_search_mode: Switch between fuzzy and substring matching
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server is typically started via the serve command:
//
//	dashdocs serve
//
// It then listens on stdin for MCP protocol messages and writes responses to
// stdout. Logs go to stderr.
//
// # Tool: search_docsets
//
//	Request:
//	{
//	  "name": "search_docsets",
//	  "arguments": {
//	    "query": "go:http.get",
//	    "limit": 5
//	  }
//	}
//
//	Response:
//	{
//	  "query": "go:http.get",
//	  "fuzzy": false,
//	  "total": 1,
//	  "results": [
//	    {
//	      "rank": 1,
//	      "name": "http.Get",
//	      "parent_name": "http",
//	      "type": "Function",
//	      "docset": "Go",
//	      "url": "file:///home/me/.dashdocs/docsets/Go.docset/Contents/Resources/Documents/pkg/net/http/index.html#Get",
//	      "score": -8,
//	      "match_type": "name"
//	    }
//	  ]
//	}
//
// The text before a single colon is a comma-separated list of docset
// keywords. Only docsets carrying one of them are searched.
//
// # Notifications
//
// When a docset is loaded, replaced or unloaded, for example by the
// directory watcher, every connected client receives a
// notifications/dashdocs/docsets_changed notification naming the docset.
//
// # MCP Client Configuration
//
//	{
//	  "mcpServers": {
//	    "dashdocs": {
//	      "command": "/usr/local/bin/dashdocs",
//	      "args": ["serve", "--watch"],
//	      "env": {
//	        "DASHDOCS_DOCSET_PATH": "/home/me/.dashdocs/docsets"
//	      }
//	    }
//	  }
//	}
//
// # Error Handling
//
// Handler failures are returned as MCPError values:
//
//	{
//	  "error": {
//	    "code": -32001,
//	    "message": "docset not found",
//	    "data": {
//	      "param": "docset",
//	      "value": "Rust"
//	    }
//	  }
//	}
//
// Error codes:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (index, filesystem, etc.)
//   - -32001: Docset not found
//   - -32002: Directory scan in progress
//   - -32003: Invalid docset bundle
//   - -32004: Empty query
//   - -32005: URL outside of the loaded docsets
package mcp
