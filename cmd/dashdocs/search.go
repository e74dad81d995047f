package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/dashdocs-mcp/internal/registry"
)

var (
	searchLimit       int
	searchJSON        bool
	searchInteractive bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the loaded docsets",
	Long: `Searches API symbols across all loaded docsets.

Prefix the query with comma-separated docset keywords and a colon to search
only the matching docsets:

  dashdocs search go,python:open

With --interactive, every line read from stdin is a new query. A query that is
still running when the next line arrives is abandoned.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if searchInteractive {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "maximum number of results (0 = all)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().BoolVarP(&searchInteractive, "interactive", "i", false, "read queries from stdin")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	_, _, reg, err := setup(cmd)
	if err != nil {
		return err
	}
	defer reg.Close()

	if searchInteractive {
		return interactiveSearch(cmd, reg, cmd.InOrStdin())
	}

	query := strings.Join(args, " ")
	results, err := reg.Query(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if searchLimit > 0 && len(results) > searchLimit {
		results = results[:searchLimit]
	}

	if searchJSON {
		return writeResultsJSON(cmd.OutOrStdout(), results)
	}
	writeResultsTable(cmd.OutOrStdout(), query, results)
	return nil
}

// interactiveSearch issues a search per input line and prints completions as
// they arrive. Only the newest query's results are ever printed.
func interactiveSearch(cmd *cobra.Command, reg *registry.Registry, in io.Reader) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	var latest uint64
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func(lines chan<- string) {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}(lines)

	pending := false
	for {
		select {
		case <-ctx.Done():
			reg.Cancel()
			return nil
		case line, ok := <-lines:
			if !ok {
				if !pending {
					return drainScanErr(scanErr)
				}
				// Wait for the last query before exiting.
				lines = nil
				continue
			}
			latest = reg.Search(line)
			pending = true
		case c := <-reg.Results():
			if c.Generation != latest {
				continue
			}
			pending = false
			results := c.Results
			if searchLimit > 0 && len(results) > searchLimit {
				results = results[:searchLimit]
			}
			if searchJSON {
				if err := writeResultsJSON(out, results); err != nil {
					return err
				}
			} else {
				writeResultsTable(out, c.Query.String(), results)
			}
			if lines == nil {
				return drainScanErr(scanErr)
			}
		}
	}
}

func drainScanErr(errs <-chan error) error {
	select {
	case err := <-errs:
		return err
	default:
		return nil
	}
}
