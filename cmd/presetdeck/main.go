package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	debugPath  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "presetdeck",
		Short: "Run analytics chart presets against fixtures or a live backend",
		Long: `presetdeck resolves chart presets into validated specs, executes them
against the built-in fixtures or a live analytics endpoint, and shows the
results in a terminal workspace.`,
		SilenceUsage: true,
		RunE:         runTUI,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: ~/.config/presetdeck/config.toml)")
	rootCmd.PersistentFlags().StringVar(&debugPath, "debug", "", "Write transport debug log (JSONL) to the specified file path")

	rootCmd.AddCommand(newTUICmd(), newPresetsCmd(), newRunCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal workspace (default)",
		Args:  cobra.NoArgs,
		RunE:  runTUI,
	}
}
