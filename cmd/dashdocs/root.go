package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dshills/dashdocs-mcp/internal/config"
	"github.com/dshills/dashdocs-mcp/internal/registry"
	"github.com/dshills/dashdocs-mcp/internal/storage"
)

var (
	configPath string
	docsetPath string
	logLevel   string
	fuzzy      bool
	workers    int
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:   "dashdocs",
	Short: "Search Dash and Zeal docsets",
	Long: `dashdocs loads Dash/Zeal docset bundles and searches their API symbols.

Settings come from ~/.dashdocs/config.toml, DASHDOCS_* environment
variables and command line flags, in increasing order of precedence.`,
	Version:      version,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.SetVersionTemplate(versionText())

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default ~/.dashdocs/config.toml)")
	flags.StringVar(&docsetPath, "docsets", "", "directory containing .docset bundles")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.BoolVar(&fuzzy, "fuzzy", false, "rank symbols by fuzzy relevance instead of substring match")
	flags.IntVar(&workers, "workers", 0, "concurrent docset searches (0 = number of CPUs)")
	flags.BoolVar(&noColor, "no-color", false, "disable colored output")
}

func versionText() string {
	return fmt.Sprintf("Dashdocs MCP Server\nVersion: %s\nBuild Time: %s\nBuild Mode: %s\nSQLite Driver: %s\n",
		version, buildTime, storage.BuildMode, storage.DriverName)
}

// loadConfig reads the file and environment settings, then applies the flags
// the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("docsets") {
		cfg.DocsetPath = docsetPath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("fuzzy") {
		cfg.FuzzySearch = fuzzy
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger writes text logs to stderr; stdout is reserved for command
// output and the MCP protocol.
func newLogger(cfg *config.Config) *slog.Logger {
	level, _ := cfg.SlogLevel()
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openRegistry creates a registry and loads every bundle below the
// configured docset directory, creating the directory if needed.
func openRegistry(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*registry.Registry, *registry.Statistics, error) {
	if err := os.MkdirAll(cfg.DocsetPath, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create docset directory: %w", err)
	}

	reg := registry.New(registry.Options{
		Logger:       logger,
		Workers:      cfg.Workers,
		FuzzySearch:  cfg.FuzzySearch,
		CacheEnabled: cfg.CacheEnabled,
		CacheSize:    cfg.CacheSize,
	})

	stats, err := reg.LoadDir(ctx, cfg.DocsetPath)
	if err != nil {
		_ = reg.Close()
		return nil, nil, err
	}
	return reg, stats, nil
}

// setup is the common prologue of the commands that need loaded docsets.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, *registry.Registry, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := newLogger(cfg)

	reg, stats, err := openRegistry(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	for _, msg := range stats.ErrorMessages {
		logger.Warn("docset not loaded", "error", msg)
	}
	return cfg, logger, reg, nil
}
