package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nixlim/presetdeck/internal/config"
	"github.com/nixlim/presetdeck/internal/contract"
	"github.com/nixlim/presetdeck/internal/preset"
)

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the preset catalogue and each preset's adjustable options",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cat, err := preset.Build(cfg.Catalogue.Path)
			if err != nil {
				return fmt.Errorf("catalogue error: %w", err)
			}
			printCatalogue(cmd.OutOrStdout(), cat, cfg)
			return nil
		},
	}
}

func printCatalogue(out io.Writer, cat *preset.Catalogue, cfg config.Config) {
	for _, p := range cat.List() {
		marker := " "
		if p.ID == cfg.Workspace.DefaultPreset {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %-20s %s [%s]\n", marker, p.ID, p.Title, p.Template.ChartType)

		o := p.Overrides
		d := p.DefaultOverrides()
		if o.TimeRange != nil {
			fmt.Fprintf(out, "    time range: %s\n", optionList(timeRangeIDs(o.TimeRange.Options), d.TimeRangeID))
		}
		if o.Split != nil {
			fmt.Fprintf(out, "    split:      %s (default %t)\n", o.Split.Label, o.Split.Default)
		}
		if o.Measure != nil {
			fmt.Fprintf(out, "    measure:    %s\n", optionList(measureIDs(o.Measure.Options), d.MeasureOptionID))
		}
	}
}

func timeRangeIDs(opts []contract.TimeRangeOption) []string {
	ids := make([]string, len(opts))
	for i, o := range opts {
		ids[i] = o.ID
	}
	return ids
}

func measureIDs(opts []contract.MeasureOption) []string {
	ids := make([]string, len(opts))
	for i, o := range opts {
		ids[i] = o.ID
	}
	return ids
}

// optionList joins ids, marking the default with a trailing asterisk.
func optionList(ids []string, def string) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id
		if id == def {
			out[i] += "*"
		}
	}
	return strings.Join(out, ", ")
}
