package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mcpatlas-go/internal/cache"
	"mcpatlas-go/internal/config"
	"mcpatlas-go/internal/dispatcher"
	"mcpatlas-go/internal/export"
	"mcpatlas-go/internal/httpengine"
	"mcpatlas-go/internal/logs"
	"mcpatlas-go/internal/mcpserve"
	"mcpatlas-go/internal/scrape"
	"mcpatlas-go/internal/stdio"
	"mcpatlas-go/internal/vault"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitConfigError = 2
	exitInternal    = 3
)

var (
	configDir         string
	logLevel          string
	logToFile         bool
	logDir            string
	listTools         bool
	demo              bool
	mcpMode           bool
	workers           int
	toolResponseLimit int

	version = "v0.1.0" // injected by -ldflags during build
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "mcpatlas",
		Short:        "MCP gateway for Atlassian products and a local learning-resource vault",
		Version:      version,
		RunE:         run,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "user-config", "Configuration directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides config")
	rootCmd.PersistentFlags().BoolVar(&logToFile, "log-to-file", false, "Enable logging to a rotating file")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Custom log directory path")
	rootCmd.PersistentFlags().BoolVar(&listTools, "list-tools", false, "Print the registered tool names and exit")
	rootCmd.PersistentFlags().BoolVar(&demo, "demo", false, "Run a self-contained demonstration on in-memory data")
	rootCmd.PersistentFlags().BoolVar(&mcpMode, "mcp", false, "Speak full MCP JSON-RPC framing instead of the plain line protocol")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 4, "Dispatch worker pool size")
	rootCmd.PersistentFlags().IntVar(&toolResponseLimit, "tool-response-limit", 0, "Tool response limit in characters (0 = from config)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitFailure)
	}
}

func run(_ *cobra.Command, _ []string) error {
	logger, err := setupLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: logger setup failed: %v\n", err)
		os.Exit(exitInternal)
	}
	defer func() { _ = logger.Sync() }()

	resolver := config.NewResolver(configDir, logger)
	resolver.ListToolsOnly = listTools || demo
	cfg, err := resolver.Load()
	if err != nil {
		logger.Error("configuration rejected", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitConfigError)
	}
	if logLevel != "" {
		cfg.Preferences.LogLevel = logLevel
	}
	if toolResponseLimit > 0 {
		cfg.Preferences.ToolResponseLimit = toolResponseLimit
	}

	d, cleanup, err := buildDispatcher(cfg, logger)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		os.Exit(exitInternal)
	}
	defer cleanup()

	switch {
	case listTools:
		for _, name := range d.ListTools() {
			fmt.Println(name)
		}
		return nil

	case demo:
		out, err := d.Demo(context.Background())
		if err != nil {
			logger.Error("demo failed", zap.Error(err))
			os.Exit(exitFailure)
		}
		fmt.Print(out)
		return nil

	case mcpMode:
		logger.Info("starting MCP stdio server",
			zap.String("instance", cfg.InstanceName),
			zap.Strings("live", productNames(cfg)))
		if err := mcpserve.Serve(d, version, logger); err != nil {
			logger.Error("MCP server failed", zap.Error(err))
			os.Exit(exitInternal)
		}
		return nil

	default:
		logger.Info("starting stdio driver",
			zap.String("instance", cfg.InstanceName),
			zap.Strings("live", productNames(cfg)),
			zap.Int("workers", workers))

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		driver := stdio.New(d, workers, logger)
		if err := driver.Run(ctx, os.Stdin, os.Stdout); err != nil {
			logger.Error("stdio driver failed", zap.Error(err))
			os.Exit(exitInternal)
		}
		return nil
	}
}

// buildDispatcher wires the shared engine, the vault, the scrape cache and
// the exporter. The scrape cache is best-effort: a broken cache file logs a
// warning and scraping just skips caching.
func buildDispatcher(cfg *config.RuntimeConfig, logger *zap.Logger) (*dispatcher.Dispatcher, func(), error) {
	engine := httpengine.New(cfg, logger)
	store, err := vault.NewStore(logger)
	if err != nil {
		return nil, nil, err
	}

	var cacheMgr *cache.Manager
	cleanup := func() {}
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = filepath.Join(configDir, "data")
	}
	cacheMgr, err = cache.Open(filepath.Join(dataDir, "scrape.db"), 2*time.Hour, logger)
	if err != nil {
		logger.Warn("scrape cache unavailable", zap.Error(err))
		cacheMgr = nil
	} else {
		cleanup = func() { _ = cacheMgr.Close() }
	}

	scraper := scrape.New(engine, cacheMgr, logger)
	d := dispatcher.New(cfg, engine, store, scraper, export.New(logger), logger)
	return d, cleanup, nil
}

func setupLogger() (*zap.Logger, error) {
	lc := logs.DefaultLogConfig()
	if logLevel != "" {
		lc.Level = logLevel
	}
	lc.EnableFile = logToFile
	lc.LogDir = logDir
	return logs.SetupLogger(lc)
}

func productNames(cfg *config.RuntimeConfig) []string {
	live := cfg.LiveProducts()
	names := make([]string, len(live))
	for i, p := range live {
		names[i] = string(p)
	}
	return names
}
