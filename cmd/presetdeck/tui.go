package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nixlim/presetdeck/internal/tui"
)

func runTUI(cmd *cobra.Command, args []string) error {
	a, err := newApp("")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := a.ws.SelectPreset(ctx, a.cfg.Workspace.DefaultPreset); err != nil {
		fmt.Fprintf(os.Stderr, "presetdeck: default preset: %v\n", err)
	}

	shutdownMgr := tui.NewShutdownManager()
	shutdownMgr.CancelRuns = a.ws.Close
	shutdownMgr.CloseRecorder = a.closeRecorder
	shutdownMgr.Cleanup = a.closeDebug

	var once sync.Once
	shutdown := func() {
		once.Do(func() { _ = shutdownMgr.Shutdown() })
	}
	defer shutdown()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	log.SetOutput(io.Discard)

	exportDir, _ := os.Getwd()
	model := tui.NewModel(a.cfg, a.ws,
		tui.WithContext(ctx),
		tui.WithEventProvider(a.eventBuf),
		tui.WithHistory(a.recorder),
		tui.WithExportDir(exportDir),
		tui.WithPersistenceFlag(a.isPersistent),
		tui.WithOnShutdown(shutdown),
	)

	p := tea.NewProgram(model, tea.WithAltScreen())

	go func() {
		select {
		case <-sigCh:
			shutdown()
			p.Quit()
		case <-ctx.Done():
			return
		}
	}()

	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
