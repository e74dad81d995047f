package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/dshills/dashdocs-mcp/internal/docset"
	"github.com/dshills/dashdocs-mcp/pkg/types"
)

var (
	// ANSI colors for terminal output
	colorHeader  = color.New(color.FgHiMagenta, color.Bold)
	colorBold    = color.New(color.Bold)
	colorCyan    = color.New(color.FgCyan)
	colorFaint   = color.New(color.Faint)
	colorWarning = color.New(color.FgYellow)
)

// resultJSON is the machine readable form of a search result.
type resultJSON struct {
	Name       string  `json:"name"`
	ParentName string  `json:"parent_name,omitempty"`
	Type       string  `json:"type"`
	Docset     string  `json:"docset"`
	URL        string  `json:"url,omitempty"`
	Score      float64 `json:"score"`
	MatchType  string  `json:"match_type"`
}

func resultURL(r types.SearchResult) string {
	if d, ok := r.Docset.(*docset.Docset); ok {
		return d.ResultURL(r).String()
	}
	return ""
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeResultsJSON(w io.Writer, results []types.SearchResult) error {
	out := make([]resultJSON, 0, len(results))
	for _, r := range results {
		out = append(out, resultJSON{
			Name:       r.Name,
			ParentName: r.ParentName,
			Type:       r.Type,
			Docset:     r.DocsetName(),
			URL:        resultURL(r),
			Score:      r.Score,
			MatchType:  r.MatchType.String(),
		})
	}
	return writeJSON(w, out)
}

func writeResultsTable(w io.Writer, query string, results []types.SearchResult) {
	if len(results) == 0 {
		colorWarning.Fprintf(w, "No results for '%s'\n", query)
		return
	}

	colorHeader.Fprintf(w, "Results for '%s'\n", query)
	for i, r := range results {
		colorBold.Fprintf(w, "%3d. %s", i+1, r.Name)
		colorCyan.Fprintf(w, "  %s", r.Type)
		colorFaint.Fprintf(w, "  [%s]\n", r.DocsetName())
		if u := resultURL(r); u != "" {
			fmt.Fprintf(w, "     %s\n", u)
		}
	}
}
