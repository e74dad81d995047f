package main

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"
)

var (
	symbolsLimit int
	symbolsJSON  bool
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols <docset> [type]",
	Short: "Count or list the symbols of a docset",
	Long: `Without a type, prints how many symbols of each type the docset has.
With a type such as Function or Class, lists those symbols by name.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSymbols,
}

func init() {
	symbolsCmd.Flags().IntVarP(&symbolsLimit, "limit", "n", 0, "maximum number of symbols (0 = all)")
	symbolsCmd.Flags().BoolVar(&symbolsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(symbolsCmd)
}

func runSymbols(cmd *cobra.Command, args []string) error {
	_, _, reg, err := setup(cmd)
	if err != nil {
		return err
	}
	defer reg.Close()

	d, err := reg.Docset(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		counts, err := d.SymbolCounts()
		if err != nil {
			return fmt.Errorf("failed to count symbols: %w", err)
		}
		if symbolsJSON {
			return writeJSON(out, counts)
		}

		colorHeader.Fprintf(out, "%s\n", d.Title())
		for _, t := range slices.Sorted(maps.Keys(counts)) {
			colorCyan.Fprintf(out, "%-20s", t)
			fmt.Fprintf(out, " %d\n", counts[t])
		}
		return nil
	}

	symbols, err := d.Symbols(cmd.Context(), args[1])
	if err != nil {
		return fmt.Errorf("failed to list symbols: %w", err)
	}
	if symbolsLimit > 0 && len(symbols) > symbolsLimit {
		symbols = symbols[:symbolsLimit]
	}

	if symbolsJSON {
		items := make([]map[string]string, 0, len(symbols))
		for _, s := range symbols {
			items = append(items, map[string]string{"name": s.Name, "url": s.URL.String()})
		}
		return writeJSON(out, items)
	}

	for _, s := range symbols {
		colorBold.Fprintf(out, "%s", s.Name)
		colorFaint.Fprintf(out, "  %s\n", s.URL)
	}
	return nil
}
