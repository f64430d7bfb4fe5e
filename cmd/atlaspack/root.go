package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/atlas"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// cfg is loaded from configPath before any subcommand runs.
	cfg = defaultPackConfig()
)

var rootCmd = &cobra.Command{
	Use:   "atlaspack",
	Short: "Pack images into power-of-two texture atlases",
	Long: `atlaspack places images into a square power-of-two texture using a
quadtree allocator and writes the atlas together with a JSON manifest of
every region. It can also simulate allocation churn to measure how the
allocator behaves under load.`,
	Version:       atlas.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(verbose)
		if configPath == "" {
			return nil
		}
		loaded, err := loadPackConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML configuration file")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setupLogging routes atlas logs to stderr.
func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	atlas.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
