package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/dashdocs-mcp/internal/mcp"
	"github.com/dshills/dashdocs-mcp/internal/storage"
	"github.com/dshills/dashdocs-mcp/internal/watcher"
)

var watch bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server on stdio.

All bundles below the docset directory are loaded first. With --watch, bundles
added to or removed from the directory later are loaded and unloaded while the
server runs.

MCP client configuration:
  {
    "mcpServers": {
      "dashdocs": {
        "command": "/path/to/dashdocs",
        "args": ["serve", "--watch"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&watch, "watch", false, "load and unload bundles as the docset directory changes")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, logger, reg, err := setup(cmd)
	if err != nil {
		return err
	}
	defer reg.Close()

	logger.Info("dashdocs MCP server starting",
		"version", version,
		"build_mode", storage.BuildMode,
		"driver", storage.DriverName,
		"docsets", reg.Count(),
		"fuzzy", reg.IsFuzzySearchEnabled())

	if cmd.Flags().Changed("watch") {
		cfg.Watch = watch
	}
	if cfg.Watch {
		w, err := watcher.New(cfg.DocsetPath, reg, watcher.Config{
			Logger:   logger,
			Debounce: cfg.Debounce(),
		})
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", cfg.DocsetPath, err)
		}
		w.Start()
		defer w.Close()
	}

	server, err := mcp.NewServer(reg, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	logger.Info("MCP server ready, listening on stdio")
	err = server.Serve(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
