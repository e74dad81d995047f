package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/dashdocs-mcp/internal/docset"
	"github.com/dshills/dashdocs-mcp/internal/registry"
	"github.com/dshills/dashdocs-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams   = -32602 // Invalid method parameters
	ErrorCodeInternalError   = -32603 // Internal JSON-RPC error
	ErrorCodeDocsetNotFound  = -32001 // No docset with the given name is loaded
	ErrorCodeScanInProgress  = -32002 // Another directory scan is already running
	ErrorCodeInvalidDocset   = -32003 // Bundle failed to load
	ErrorCodeEmptyQuery      = -32004 // Query parameter is empty
	ErrorCodeURLOutOfDocsets = -32005 // URL does not belong to a loaded docset
)

// handleSearchDocsets handles the search_docsets tool invocation
func (s *Server) handleSearchDocsets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract and validate parameters
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	raw, ok := args["query"].(string)
	if !ok || types.ParseQuery(raw).Query() == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", defaultSearchLimit)
	if limit < 1 || limit > maxSearchLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("limit must be between 1 and %d", maxSearchLimit), map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	only := getStringDefault(args, "docset", "")
	if only != "" && !s.registry.Contains(only) {
		return nil, newMCPError(ErrorCodeDocsetNotFound, "docset not found", map[string]interface{}{
			"param": "docset",
			"value": only,
		})
	}

	results, err := s.registry.Query(ctx, raw)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	total := 0
	items := make([]map[string]interface{}, 0, min(limit, len(results)))
	for _, r := range results {
		if only != "" && r.DocsetName() != only {
			continue
		}
		total++
		if len(items) == limit {
			continue
		}
		items = append(items, resultItem(len(items)+1, r))
	}

	response := map[string]interface{}{
		"query":   raw,
		"fuzzy":   s.registry.IsFuzzySearchEnabled(),
		"total":   total,
		"results": items,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

func resultItem(rank int, r types.SearchResult) map[string]interface{} {
	item := map[string]interface{}{
		"rank":       rank,
		"name":       r.Name,
		"type":       r.Type,
		"docset":     r.DocsetName(),
		"score":      r.Score,
		"match_type": r.MatchType.String(),
	}
	if r.ParentName != "" {
		item["parent_name"] = r.ParentName
	}
	if d, ok := r.Docset.(*docset.Docset); ok {
		item["url"] = d.ResultURL(r).String()
	}
	return item
}

// handleListDocsets handles the list_docsets tool invocation
func (s *Server) handleListDocsets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docsets := s.registry.Docsets()

	items := make([]map[string]interface{}, 0, len(docsets))
	for _, d := range docsets {
		symbols := 0
		if counts, err := d.SymbolCounts(); err == nil {
			for _, n := range counts {
				symbols += n
			}
		}

		items = append(items, map[string]interface{}{
			"name":             d.Name(),
			"title":            d.Title(),
			"version":          d.Version(),
			"revision":         d.Revision(),
			"keywords":         d.Keywords(),
			"schema":           d.Schema().String(),
			"symbols":          symbols,
			"index_url":        d.IndexFileURL().String(),
			"update_available": d.IsUpdateAvailable(),
			"path":             d.Path(),
		})
	}

	response := map[string]interface{}{
		"count":   len(items),
		"fuzzy":   s.registry.IsFuzzySearchEnabled(),
		"docsets": items,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListSymbols handles the list_symbols tool invocation
func (s *Server) handleListSymbols(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract and validate parameters
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	name, ok := args["docset"].(string)
	if !ok || name == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "docset parameter is required", map[string]interface{}{
			"param":  "docset",
			"reason": "missing or empty",
		})
	}

	d, err := s.registry.Docset(name)
	if err != nil {
		return nil, newMCPError(ErrorCodeDocsetNotFound, "docset not found", map[string]interface{}{
			"param": "docset",
			"value": name,
		})
	}

	symbolType := getStringDefault(args, "type", "")
	if symbolType == "" {
		counts, err := d.SymbolCounts()
		if err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "failed to count symbols", map[string]interface{}{
				"error": err.Error(),
			})
		}
		response := map[string]interface{}{
			"docset": name,
			"counts": counts,
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}

	limit := getIntDefault(args, "limit", defaultSymbolsLimit)
	if limit < 1 || limit > maxSymbolsLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("limit must be between 1 and %d", maxSymbolsLimit), map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	symbols, err := d.Symbols(ctx, symbolType)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list symbols", map[string]interface{}{
			"error": err.Error(),
		})
	}

	items := make([]map[string]interface{}, 0, min(limit, len(symbols)))
	for _, sym := range symbols[:min(limit, len(symbols))] {
		items = append(items, map[string]interface{}{
			"name": sym.Name,
			"url":  sym.URL.String(),
		})
	}

	response := map[string]interface{}{
		"docset":  name,
		"type":    symbolType,
		"total":   len(symbols),
		"symbols": items,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleRelatedLinks handles the related_links tool invocation
func (s *Server) handleRelatedLinks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract and validate parameters
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	raw, ok := args["url"].(string)
	if !ok || raw == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "url parameter is required", map[string]interface{}{
			"param":  "url",
			"reason": "missing or empty",
		})
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid url", map[string]interface{}{
			"param":  "url",
			"reason": err.Error(),
		})
	}

	for _, d := range s.registry.Docsets() {
		links, err := d.RelatedLinks(ctx, u)
		if errors.Is(err, types.ErrURLOutsideOfDocset) {
			continue
		}
		if err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "failed to find related links", map[string]interface{}{
				"error": err.Error(),
			})
		}

		items := make([]map[string]interface{}, 0, len(links))
		for _, link := range links {
			items = append(items, map[string]interface{}{
				"name": link.Name,
				"type": link.Type,
				"url":  d.ResultURL(link).String(),
			})
		}

		response := map[string]interface{}{
			"docset": d.Name(),
			"links":  items,
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}

	return nil, newMCPError(ErrorCodeURLOutOfDocsets, "url does not belong to a loaded docset", map[string]interface{}{
		"param": "url",
		"value": raw,
	})
}

// handleLoadDocset handles the load_docset tool invocation
func (s *Server) handleLoadDocset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract and validate parameters
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	// Validate path exists and is accessible
	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	if registry.IsBundlePath(path) {
		d, err := s.registry.Load(path)
		if err != nil {
			return nil, newMCPError(ErrorCodeInvalidDocset, "failed to load docset", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
		}

		response := map[string]interface{}{
			"loaded": []string{d.Name()},
			"count":  s.registry.Count(),
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}

	before := s.registry.Names()
	stats, err := s.registry.LoadDir(ctx, path)
	if errors.Is(err, registry.ErrScanInProgress) {
		return nil, newMCPError(ErrorCodeScanInProgress, "another docset scan is running", nil)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to scan directory", map[string]interface{}{
			"error": err.Error(),
		})
	}

	var added []string
	for _, name := range s.registry.Names() {
		if !slices.Contains(before, name) {
			added = append(added, name)
		}
	}

	// Format response
	response := map[string]interface{}{
		"found":       stats.Found,
		"loaded":      stats.Loaded,
		"failed":      stats.Failed,
		"new":         added,
		"count":       s.registry.Count(),
		"duration_ms": stats.Duration.Milliseconds(),
	}

	if len(stats.ErrorMessages) > 0 {
		// Include first few errors
		errorCount := len(stats.ErrorMessages)
		if errorCount > 5 {
			response["errors"] = stats.ErrorMessages[:5]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSetSearchMode handles the set_search_mode tool invocation
func (s *Server) handleSetSearchMode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract and validate parameters
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	fuzzy, ok := args["fuzzy"].(bool)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "fuzzy parameter is required", map[string]interface{}{
			"param":  "fuzzy",
			"reason": "missing or not a boolean",
		})
	}

	s.registry.SetFuzzySearchEnabled(fuzzy)
	s.logger.Info("search mode changed", "fuzzy", fuzzy)

	response := map[string]interface{}{
		"fuzzy": s.registry.IsFuzzySearchEnabled(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validatePath checks if a path exists and is an accessible directory
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	// Check if path is absolute
	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	// Check if path exists
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	// Check if it's a directory
	if !info.IsDir() {
		return ErrNotDirectory
	}

	// Check if directory is readable
	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
)
