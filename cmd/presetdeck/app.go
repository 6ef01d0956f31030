package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/nixlim/presetdeck/internal/config"
	"github.com/nixlim/presetdeck/internal/contract"
	"github.com/nixlim/presetdeck/internal/events"
	"github.com/nixlim/presetdeck/internal/preset"
	"github.com/nixlim/presetdeck/internal/runlog"
	"github.com/nixlim/presetdeck/internal/storage"
	"github.com/nixlim/presetdeck/internal/transport"
	"github.com/nixlim/presetdeck/internal/workspace"
)

// app holds everything a command needs once the config is loaded.
type app struct {
	cfg          config.Config
	catalogue    *preset.Catalogue
	ws           *workspace.Workspace
	recorder     runlog.Recorder
	isPersistent bool
	eventBuf     *events.RingBuffer
	debugFile    *os.File
}

func loadConfig() (config.Config, error) {
	var (
		res *config.LoadResult
		err error
	)
	if configPath != "" {
		res, err = config.LoadFrom(configPath)
	} else {
		res, err = config.Load()
	}
	if err != nil {
		return config.Config{}, fmt.Errorf("config error: %w", err)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "presetdeck: config warning: %s\n", w)
	}
	return res.Config, nil
}

func parseMode(s string, cfg config.Config) (transport.Mode, error) {
	switch transport.Mode(s) {
	case transport.ModeFixture:
		return transport.ModeFixture, nil
	case transport.ModeLive:
		if cfg.Transport.Endpoint == "" {
			return "", errors.New("live mode needs transport.endpoint in the config")
		}
		return transport.ModeLive, nil
	default:
		return "", fmt.Errorf("mode must be fixture or live, got %q", s)
	}
}

// newApp wires config, catalogue, transport, storage and the workspace.
// modeOverride replaces the configured transport mode when non-empty.
func newApp(modeOverride string) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if modeOverride != "" {
		cfg.Transport.Mode = modeOverride
	}
	mode, err := parseMode(cfg.Transport.Mode, cfg)
	if err != nil {
		return nil, err
	}

	cat, err := preset.Build(cfg.Catalogue.Path)
	if err != nil {
		return nil, fmt.Errorf("catalogue error: %w", err)
	}

	a := &app{cfg: cfg, catalogue: cat}

	fixtures := transport.NewFixtures()
	if cfg.Fixtures.Dir != "" {
		if _, err := fixtures.AddDir(cfg.Fixtures.Dir); err != nil {
			return nil, fmt.Errorf("fixtures error: %w", err)
		}
	}

	clientOpts := []transport.Option{
		transport.WithFixtures(fixtures),
		transport.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Transport.TimeoutSeconds) * time.Second}),
		transport.WithRetry(cfg.Transport.MaxAttempts, time.Duration(cfg.Transport.BaseDelayMS)*time.Millisecond),
	}
	if cfg.Transport.Endpoint != "" {
		clientOpts = append(clientOpts, transport.WithEndpoint(cfg.Transport.Endpoint))
	}
	if cfg.Transport.ViewTokenSecret != "" {
		ttl := time.Duration(cfg.Transport.ViewTokenTTLSeconds) * time.Second
		clientOpts = append(clientOpts, transport.WithTokenSigner(transport.NewTokenSigner(cfg.Transport.ViewTokenSecret, ttl)))
	}
	if debugPath != "" {
		f, err := os.OpenFile(debugPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open debug log %q: %w", debugPath, err)
		}
		a.debugFile = f
		clientOpts = append(clientOpts, transport.WithLogger(transport.NewFileLogger(f)))
	}
	client := transport.New(clientOpts...)

	rec, isPersistent, err := storage.NewRecorder(cfg.Storage)
	if err != nil {
		a.closeDebug()
		return nil, fmt.Errorf("storage error: %w", err)
	}
	a.recorder = rec
	a.isPersistent = isPersistent

	a.eventBuf = events.NewRingBuffer(cfg.Display.EventBufferSize)
	rec.OnRecord(func(r runlog.RunRecord) {
		a.eventBuf.Add(events.FormatRun(r))
	})

	a.ws = workspace.New(cat, client,
		workspace.WithMode(mode),
		workspace.WithOrg(cfg.Transport.OrgID),
		workspace.WithCache(cfg.Transport.BypassCache, cfg.Transport.CacheTTLSeconds),
		workspace.WithStrictIntegrity(cfg.Workspace.StrictIntegrity),
		workspace.WithRecorder(rec),
		workspace.WithDiagnosticSink(func(d contract.Diagnostic) {
			a.eventBuf.Add(events.FormatDiagnostic(a.ws.Snapshot().PresetID, d, time.Now()))
		}),
	)
	return a, nil
}

func (a *app) closeRecorder() error {
	if c, ok := a.recorder.(storage.Closer); ok {
		return c.Close()
	}
	return nil
}

func (a *app) closeDebug() {
	if a.debugFile != nil {
		_ = a.debugFile.Close()
		a.debugFile = nil
	}
}

// close cancels any run in flight and releases storage and the debug log.
func (a *app) close() error {
	a.ws.Close()
	err := a.closeRecorder()
	a.closeDebug()
	return err
}
