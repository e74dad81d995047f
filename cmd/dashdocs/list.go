package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the loaded docsets",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output docsets as JSON")
	rootCmd.AddCommand(listCmd)
}

type docsetJSON struct {
	Name     string   `json:"name"`
	Title    string   `json:"title"`
	Version  string   `json:"version,omitempty"`
	Revision int      `json:"revision,omitempty"`
	Keywords []string `json:"keywords"`
	Symbols  int      `json:"symbols"`
	Path     string   `json:"path"`
}

func runList(cmd *cobra.Command, _ []string) error {
	cfg, _, reg, err := setup(cmd)
	if err != nil {
		return err
	}
	defer reg.Close()

	docsets := reg.Docsets()
	items := make([]docsetJSON, 0, len(docsets))
	for _, d := range docsets {
		item := docsetJSON{
			Name:     d.Name(),
			Title:    d.Title(),
			Version:  d.Version(),
			Revision: d.Revision(),
			Keywords: d.Keywords(),
			Path:     d.Path(),
		}
		counts, err := d.SymbolCounts()
		if err != nil {
			return fmt.Errorf("failed to count symbols of %s: %w", d.Name(), err)
		}
		for _, n := range counts {
			item.Symbols += n
		}
		items = append(items, item)
	}

	out := cmd.OutOrStdout()
	if listJSON {
		return writeJSON(out, items)
	}

	if len(items) == 0 {
		colorWarning.Fprintf(out, "No docsets found in %s\n", cfg.DocsetPath)
		return nil
	}

	colorHeader.Fprintf(out, "%d docsets in %s\n", len(items), cfg.DocsetPath)
	for _, item := range items {
		colorBold.Fprintf(out, "%-24s", item.Name)
		fmt.Fprintf(out, " %-32s", item.Title)
		colorCyan.Fprintf(out, " %7d symbols", item.Symbols)
		colorFaint.Fprintf(out, "  %s\n", strings.Join(item.Keywords, ","))
	}
	return nil
}
