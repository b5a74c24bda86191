package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/imamik/funcanvas/internal/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "funcanvas",
	Short: "Compose images, shapes and text on a canvas and export the result",
	Long: `funcanvas places images with stackable filters, shapes and text on a fixed
1600x1200 canvas and exports the content cropped to its bounding box.

Scenes can be stored by name and rendered again later.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	configPath string
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default: ./.funcanvas.yaml, then the XDG config dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(filtersCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(scenesCmd)
	rootCmd.AddCommand(batchCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads the configuration, lets override adjust it from flags and
// validates the result.
func loadConfig(override func(*config.Config)) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		cfg.Verbose = true
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger := setupLogger(cfg.Verbose)
	logger.Debug("configuration loaded", "file", config.FindConfigFile(configPath))
	return cfg, logger, nil
}
