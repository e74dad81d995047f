package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/dshills/dashdocs-mcp/internal/registry"
)

var updatesCmd = &cobra.Command{
	Use:   "updates <releases.toml>",
	Short: "Report docsets with newer releases",
	Long: `Compares the loaded docsets against a release list and prints the ones
that have a newer version or revision. The release list maps docset names to
their latest release:

  [Go]
  version = "1.23.1"
  revision = 2

  [Python_3]
  version = "3.13"`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdates,
}

func init() {
	rootCmd.AddCommand(updatesCmd)
}

type releaseTOML struct {
	Version  string `toml:"version"`
	Revision int    `toml:"revision"`
}

func readReleases(path string) (map[string]registry.Release, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read releases: %w", err)
	}

	var raw map[string]releaseTOML
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse releases %s: %w", path, err)
	}

	releases := make(map[string]registry.Release, len(raw))
	for name, r := range raw {
		releases[name] = registry.Release{Version: r.Version, Revision: r.Revision}
	}
	return releases, nil
}

func runUpdates(cmd *cobra.Command, args []string) error {
	releases, err := readReleases(args[0])
	if err != nil {
		return err
	}

	_, _, reg, err := setup(cmd)
	if err != nil {
		return err
	}
	defer reg.Close()

	out := cmd.OutOrStdout()
	outdated := reg.CheckUpdates(releases)
	if len(outdated) == 0 {
		colorHeader.Fprintln(out, "All docsets are up to date")
		return nil
	}

	for _, name := range outdated {
		d, err := reg.Docset(name)
		if err != nil {
			continue
		}
		latest := releases[name]
		colorBold.Fprintf(out, "%-24s", name)
		fmt.Fprintf(out, " %s/%d", d.Version(), d.Revision())
		colorWarning.Fprintf(out, " -> %s/%d\n", latest.Version, latest.Revision)
	}
	return nil
}
