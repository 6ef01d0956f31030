package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nixlim/presetdeck/internal/contract"
	"github.com/nixlim/presetdeck/internal/events"
	"github.com/nixlim/presetdeck/internal/export"
	"github.com/nixlim/presetdeck/internal/visual"
	"github.com/nixlim/presetdeck/internal/workspace"
)

type runOptions struct {
	presetID  string
	timeRange string
	split     bool
	measure   string
	mode      string
	xlsxPath  string
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one preset and print the result summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := workspace.OverridePatch{}
			if opts.timeRange != "" {
				patch[workspace.FieldTimeRange] = opts.timeRange
			}
			if cmd.Flags().Changed("split") {
				patch[workspace.FieldSplit] = opts.split
			}
			if opts.measure != "" {
				patch[workspace.FieldMeasure] = opts.measure
			}
			return runOnce(cmd.OutOrStdout(), opts, patch)
		},
	}

	cmd.Flags().StringVarP(&opts.presetID, "preset", "p", "", "Preset id (default: workspace.default_preset)")
	cmd.Flags().StringVarP(&opts.timeRange, "time-range", "t", "", "Time range option id")
	cmd.Flags().BoolVar(&opts.split, "split", false, "Enable or disable the preset's split")
	cmd.Flags().StringVarP(&opts.measure, "measure", "m", "", "Measure option id")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "Transport mode: fixture or live (default: transport.mode)")
	cmd.Flags().StringVar(&opts.xlsxPath, "xlsx", "", "Also export the result to this XLSX file")
	return cmd
}

func runOnce(out io.Writer, opts runOptions, patch workspace.OverridePatch) error {
	a, err := newApp(opts.mode)
	if err != nil {
		return err
	}
	defer func() { _ = a.close() }()

	presetID := opts.presetID
	if presetID == "" {
		presetID = a.cfg.Workspace.DefaultPreset
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runID, diags, err := a.ws.SelectPresetWith(ctx, presetID, patch)
	if err != nil {
		return err
	}
	a.ws.Wait()

	s := a.ws.Snapshot()
	if s.RunID != runID {
		return fmt.Errorf("run %s was superseded", runID)
	}
	printRun(out, s, diags)

	if s.Status != workspace.StatusReady {
		if s.Status == workspace.StatusCancelled {
			return errors.New("run cancelled")
		}
		return fmt.Errorf("run failed: %s %s", s.Category, s.Error)
	}

	if opts.xlsxPath != "" && s.Result != nil {
		r := export.Report{
			PresetID:   s.PresetID,
			Title:      s.Preset.Title,
			Hash:       s.Hash,
			Badges:     s.Badges,
			Model:      visual.BuildModel(*s.Result, nil, nil),
			Runs:       a.recorder.Recent(100),
			ExportedAt: time.Now(),
		}
		if err := export.SaveAs(opts.xlsxPath, r); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		fmt.Fprintf(out, "exported %s\n", opts.xlsxPath)
	}
	return nil
}

func printRun(out io.Writer, s workspace.State, overrideDiags []contract.Diagnostic) {
	title := s.PresetID
	if s.Preset != nil {
		title = s.Preset.Title
	}
	fmt.Fprintf(out, "%s (%s)\n", title, s.PresetID)
	fmt.Fprintf(out, "  status: %s  mode: %s  run: %s\n", s.Status, s.Mode, s.RunID)
	if s.Hash != "" {
		fmt.Fprintf(out, "  hash:   %s\n", s.Hash)
	}
	if len(s.Badges) > 0 {
		labels := make([]string, len(s.Badges))
		for i, b := range s.Badges {
			labels[i] = b.String()
		}
		fmt.Fprintf(out, "  badges: %s\n", strings.Join(labels, ", "))
	}
	if s.Error != "" {
		fmt.Fprintf(out, "  error:  %s %s\n", s.Category, s.Error)
	}

	diags := append(append([]contract.Diagnostic(nil), overrideDiags...), s.Diagnostics...)
	for _, d := range diags {
		fmt.Fprintf(out, "  ! %s\n", d)
	}

	if s.Result == nil {
		return
	}
	for _, sr := range s.Result.Series {
		line := fmt.Sprintf("  %-24s %-18s", sr.Label, sr.Unit)
		if sr.Summary != nil {
			line += fmt.Sprintf(" total %-8s latest %-8s peak %s",
				summaryValue(sr.Summary.Total), summaryValue(sr.Summary.Latest), summaryValue(sr.Summary.Peak))
		}
		fmt.Fprintln(out, strings.TrimRight(line, " "))
	}
}

func summaryValue(v *float64) string {
	if v == nil {
		return "-"
	}
	return events.FormatCount(*v)
}
