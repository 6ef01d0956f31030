package workspace

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nixlim/presetdeck/internal/contract"
	"github.com/nixlim/presetdeck/internal/preset"
	"github.com/nixlim/presetdeck/internal/runlog"
	"github.com/nixlim/presetdeck/internal/spechash"
	"github.com/nixlim/presetdeck/internal/transport"
)

var (
	ErrClosed   = errors.New("workspace is closed")
	ErrNoPreset = errors.New("no preset selected")
)

// Executor runs a chart request. *transport.Client satisfies it.
type Executor interface {
	Execute(ctx context.Context, req transport.Request) (*transport.Response, error)
}

// Listener receives a snapshot after every state change. Listeners are
// called outside the workspace lock.
type Listener func(State)

// Workspace owns one State and orchestrates resolution and execution. At
// most one run is in flight: starting a run cancels its predecessor first.
type Workspace struct {
	mu        sync.Mutex
	state     State
	catalogue *preset.Catalogue
	client    Executor
	recorder  runlog.Recorder
	sink      func(contract.Diagnostic)
	listeners []Listener

	orgID       string
	bypassCache bool
	cacheTTL    int
	strict      bool
	now         func() time.Time
	newID       func() string

	cancel   context.CancelFunc
	cancelID string
	closed   bool
	wg       sync.WaitGroup
}

type Option func(*Workspace)

func WithMode(m transport.Mode) Option {
	return func(w *Workspace) { w.state.Mode = m }
}

func WithOrg(orgID string) Option {
	return func(w *Workspace) { w.orgID = orgID }
}

// WithCache forwards cache hints to the live backend.
func WithCache(bypass bool, ttlSeconds int) Option {
	return func(w *Workspace) {
		w.bypassCache = bypass
		w.cacheTTL = ttlSeconds
	}
}

// WithStrictIntegrity controls whether badge/spec drift fails the run
// (true, the default) or is only reported as a diagnostic.
func WithStrictIntegrity(strict bool) Option {
	return func(w *Workspace) { w.strict = strict }
}

func WithRecorder(r runlog.Recorder) Option {
	return func(w *Workspace) { w.recorder = r }
}

// WithDiagnosticSink receives every diagnostic the workspace emits, in order.
func WithDiagnosticSink(fn func(contract.Diagnostic)) Option {
	return func(w *Workspace) { w.sink = fn }
}

func WithClock(now func() time.Time) Option {
	return func(w *Workspace) { w.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(w *Workspace) { w.newID = fn }
}

func New(catalogue *preset.Catalogue, client Executor, opts ...Option) *Workspace {
	w := &Workspace{
		catalogue: catalogue,
		client:    client,
		recorder:  runlog.NewMemoryRecorder(0),
		strict:    true,
		now:       time.Now,
		newID:     uuid.NewString,
		state:     State{Status: StatusIdle, Mode: transport.ModeFixture},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Workspace) Catalogue() *preset.Catalogue {
	return w.catalogue
}

func (w *Workspace) Recorder() runlog.Recorder {
	return w.recorder
}

// OnChange registers a listener for state changes.
func (w *Workspace) OnChange(fn Listener) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

func (w *Workspace) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// SelectPreset activates a preset with its default overrides and runs it.
func (w *Workspace) SelectPreset(ctx context.Context, id string) (string, error) {
	p, ok := w.catalogue.Get(id)
	if !ok {
		return "", fmt.Errorf("unknown preset %q", id)
	}
	if err := w.dispatch(SelectPreset{Preset: p, Overrides: p.DefaultOverrides()}); err != nil {
		return "", err
	}
	return w.Run(ctx)
}

// SelectPresetWith activates a preset, applies patch on top of its defaults
// and runs it once. Dropped fields are reported the same way UpdateOverrides
// reports them.
func (w *Workspace) SelectPresetWith(ctx context.Context, id string, patch OverridePatch) (string, []contract.Diagnostic, error) {
	p, ok := w.catalogue.Get(id)
	if !ok {
		return "", nil, fmt.Errorf("unknown preset %q", id)
	}
	if err := w.dispatch(SelectPreset{Preset: p, Overrides: p.DefaultOverrides()}); err != nil {
		return "", nil, err
	}

	var diags []contract.Diagnostic
	if len(patch) > 0 {
		w.mu.Lock()
		if w.closed {
			w.mu.Unlock()
			return "", nil, ErrClosed
		}
		w.state, diags = Reduce(w.state, UpdateOverrides{Patch: patch})
		snapshot := w.state
		w.mu.Unlock()

		w.notify(snapshot)
		w.emit(diags)
	}

	runID, err := w.Run(ctx)
	return runID, diags, err
}

// ResetOverrides restores the active preset's defaults and reruns it.
func (w *Workspace) ResetOverrides(ctx context.Context) (string, error) {
	s := w.Snapshot()
	if s.Preset == nil {
		return "", ErrNoPreset
	}
	p := *s.Preset
	if err := w.dispatch(ResetOverrides{Preset: p, Overrides: p.DefaultOverrides()}); err != nil {
		return "", err
	}
	return w.Run(ctx)
}

// UpdateOverrides applies a partial update. Fields the active preset does not
// declare are dropped, one diagnostic each. A run is started only when the
// overrides actually changed.
func (w *Workspace) UpdateOverrides(ctx context.Context, patch OverridePatch) ([]contract.Diagnostic, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, ErrClosed
	}
	before := w.state.Overrides
	next, diags := Reduce(w.state, UpdateOverrides{Patch: patch})
	w.state = next
	changed := !sameOverrides(before, next.Overrides)
	snapshot := w.state
	w.mu.Unlock()

	w.notify(snapshot)
	w.emit(diags)
	if !changed || snapshot.Preset == nil {
		return diags, nil
	}
	_, err := w.Run(ctx)
	return diags, err
}

// SetMode switches between fixture and live execution and reruns.
func (w *Workspace) SetMode(ctx context.Context, m transport.Mode) (string, error) {
	if err := w.dispatch(SetMode{Mode: m}); err != nil {
		return "", err
	}
	if w.Snapshot().Preset == nil {
		return "", nil
	}
	return w.Run(ctx)
}

// Run resolves the active preset and executes it in the background. It
// returns the new run id. Any run already in flight is cancelled before the
// new one is issued.
func (w *Workspace) Run(ctx context.Context) (string, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return "", ErrClosed
	}
	s := w.state
	if s.Preset == nil {
		w.mu.Unlock()
		return "", ErrNoPreset
	}
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}

	p := *s.Preset
	res := preset.Resolve(p, s.Overrides, w.now().UTC().Truncate(time.Minute))
	drifts := preset.CheckIntegrity(p, res.Spec, s.Badges)
	hash, hashErr := spechash.Hash(res.Spec)
	runID := w.newID()
	started := w.now()

	w.state, _ = Reduce(w.state, RunStart{RunID: runID, Spec: res.Spec, Hash: hash})

	rec := runlog.RunRecord{
		RunID:     runID,
		PresetID:  p.ID,
		Hash:      hash,
		Mode:      string(s.Mode),
		Overrides: s.Overrides.Clone(),
		StartedAt: started,
	}

	var driftDiags []contract.Diagnostic
	for _, d := range drifts {
		driftDiags = append(driftDiags, contract.Diagnostic{
			Code:    contract.DiagIntegrityDrift,
			Field:   string(d.Kind),
			Message: d.Message,
		})
	}

	var failure *RunFailure
	switch {
	case hashErr != nil:
		failure = &RunFailure{RunID: runID, Message: hashErr.Error(), Category: transport.CategoryInvalidSpec}
	case len(drifts) > 0 && w.strict:
		msgs := make([]string, 0, len(drifts))
		for _, d := range drifts {
			msgs = append(msgs, d.String())
		}
		failure = &RunFailure{
			RunID:    runID,
			Message:  "badges disagree with the resolved spec: " + strings.Join(msgs, "; "),
			Category: transport.CategoryInvalidSpec,
		}
	}
	if failure != nil {
		w.state, _ = Reduce(w.state, *failure)
		snapshot := w.state
		w.mu.Unlock()

		log.Printf("WARNING: run %s for preset %q rejected: %s", runID, p.ID, failure.Message)
		w.notify(snapshot)
		w.emit(driftDiags)
		rec.Status = runlog.StatusError
		rec.Category = string(failure.Category)
		rec.Error = failure.Message
		rec.Duration = w.now().Sub(started)
		w.recorder.RecordRun(rec)
		return runID, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.cancelID = runID
	req := transport.Request{
		Mode:            s.Mode,
		Spec:            res.Spec,
		Fixture:         p.Fixture,
		OrgID:           w.orgID,
		BypassCache:     w.bypassCache,
		CacheTTLSeconds: w.cacheTTL,
		RunID:           runID,
	}
	snapshot := w.state
	w.wg.Add(1)
	w.mu.Unlock()

	w.notify(snapshot)
	go w.execute(runCtx, cancel, req, rec, driftDiags)
	return runID, nil
}

func (w *Workspace) execute(ctx context.Context, cancel context.CancelFunc, req transport.Request, rec runlog.RunRecord, drift []contract.Diagnostic) {
	defer w.wg.Done()
	defer cancel()

	resp, err := w.client.Execute(ctx, req)

	var (
		action Action
		emit   []contract.Diagnostic
	)
	switch {
	case err == nil:
		diags := append(append([]contract.Diagnostic(nil), resp.Diagnostics...), drift...)
		action = RunSuccess{
			RunID:       req.RunID,
			Result:      resp.Result,
			Spec:        req.Spec,
			Hash:        resp.Hash,
			Diagnostics: diags,
		}
		emit = diags
		rec.Status = runlog.StatusReady
		rec.Attempts = resp.Attempts
		rec.SeriesCount = len(resp.Result.Series)
		for _, d := range resp.Diagnostics {
			if d.Code == contract.DiagPartialData {
				rec.Partial = true
			}
		}

	case transport.CategoryOf(err) == transport.CategoryAborted:
		action = RunCancelled{RunID: req.RunID}
		rec.Status = runlog.StatusCancelled
		rec.Attempts = attemptsOf(err)

	default:
		cat := transport.CategoryOf(err)
		msg := messageOf(err)
		action = RunFailure{RunID: req.RunID, Message: msg, Category: cat}
		rec.Status = runlog.StatusError
		rec.Category = string(cat)
		rec.Error = msg
		rec.Attempts = attemptsOf(err)
		log.Printf("WARNING: run %s for preset %q failed: %v", req.RunID, rec.PresetID, err)
	}

	w.mu.Lock()
	before := w.state
	w.state, _ = Reduce(w.state, action)
	if w.cancelID == req.RunID {
		w.cancel = nil
		w.cancelID = ""
	}
	applied := before.RunID == req.RunID && before.Status == StatusLoading
	snapshot := w.state
	w.mu.Unlock()

	rec.Duration = w.now().Sub(rec.StartedAt)
	if applied {
		w.notify(snapshot)
		w.emit(emit)
	}
	w.recorder.RecordRun(rec)
}

// Cancel aborts the run in flight, if any.
func (w *Workspace) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
	}
}

// Wait blocks until every started run has finished.
func (w *Workspace) Wait() {
	w.wg.Wait()
}

// Close cancels any run in flight and waits for it to settle. Further calls
// return ErrClosed.
func (w *Workspace) Close() {
	w.mu.Lock()
	w.closed = true
	if w.cancel != nil {
		w.cancel()
	}
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *Workspace) dispatch(a Action) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	var diags []contract.Diagnostic
	w.state, diags = Reduce(w.state, a)
	snapshot := w.state
	w.mu.Unlock()

	w.notify(snapshot)
	w.emit(diags)
	return nil
}

func (w *Workspace) notify(s State) {
	w.mu.Lock()
	listeners := make([]Listener, len(w.listeners))
	copy(listeners, w.listeners)
	w.mu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
}

func (w *Workspace) emit(diags []contract.Diagnostic) {
	if w.sink == nil {
		return
	}
	for _, d := range diags {
		w.sink(d)
	}
}

func sameOverrides(a, b contract.Overrides) bool {
	if a.TimeRangeID != b.TimeRangeID || a.MeasureOptionID != b.MeasureOptionID {
		return false
	}
	if (a.SplitEnabled == nil) != (b.SplitEnabled == nil) {
		return false
	}
	return a.SplitEnabled == nil || *a.SplitEnabled == *b.SplitEnabled
}

func messageOf(err error) string {
	var te *transport.Error
	if errors.As(err, &te) && te.Message != "" {
		if te.Err != nil {
			return te.Message + ": " + te.Err.Error()
		}
		return te.Message
	}
	return err.Error()
}

func attemptsOf(err error) int {
	var te *transport.Error
	if errors.As(err, &te) {
		return te.Attempts
	}
	return 0
}
