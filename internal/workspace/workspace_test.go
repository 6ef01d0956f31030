package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nixlim/presetdeck/internal/contract"
	"github.com/nixlim/presetdeck/internal/preset"
	"github.com/nixlim/presetdeck/internal/runlog"
	"github.com/nixlim/presetdeck/internal/transport"
)

var anchor = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

// fakeExecutor returns sampleResult immediately, except for runs listed in
// block, which wait for their context to be cancelled.
type fakeExecutor struct {
	mu    sync.Mutex
	reqs  []transport.Request
	ctxs  map[string]context.Context
	block map[string]bool
	err   error
}

func (f *fakeExecutor) Execute(ctx context.Context, req transport.Request) (*transport.Response, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	if f.ctxs == nil {
		f.ctxs = make(map[string]context.Context)
	}
	f.ctxs[req.RunID] = ctx
	blocked := f.block[req.RunID]
	err := f.err
	f.mu.Unlock()

	if blocked {
		<-ctx.Done()
		return nil, &transport.Error{Category: transport.CategoryAborted, Err: ctx.Err()}
	}
	if err != nil {
		return nil, err
	}
	return &transport.Response{Result: sampleResult(), Hash: "h", Attempts: 1}, nil
}

func (f *fakeExecutor) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

func sequentialIDs() func() string {
	var n int32
	return func() string {
		return fmt.Sprintf("run-%d", atomic.AddInt32(&n, 1))
	}
}

func newTestWorkspace(client Executor, opts ...Option) *Workspace {
	base := []Option{
		WithClock(func() time.Time { return anchor }),
		WithIDGenerator(sequentialIDs()),
	}
	return New(preset.Default(), client, append(base, opts...)...)
}

func TestWorkspace_SelectPresetRunsFixture(t *testing.T) {
	rec := runlog.NewMemoryRecorder(0)
	w := newTestWorkspace(transport.New(), WithRecorder(rec))
	defer w.Close()

	if _, err := w.SelectPreset(context.Background(), "live_flow"); err != nil {
		t.Fatalf("SelectPreset: %v", err)
	}
	w.Wait()

	s := w.Snapshot()
	if s.Status != StatusReady {
		t.Fatalf("want ready, got %s (%s)", s.Status, s.Error)
	}
	if s.Result == nil || len(s.Result.Series) == 0 {
		t.Fatal("want a result")
	}
	if !s.Spec.TimeWindow.From.Equal(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("want window from 2024-01-31, got %s", s.Spec.TimeWindow.From)
	}
	if len(s.Diagnostics) != 1 || s.Diagnostics[0].Code != contract.DiagPartialData {
		t.Errorf("live_flow fixture should be flagged partial, got %v", s.Diagnostics)
	}

	runs := rec.Recent(0)
	if len(runs) != 1 || runs[0].Status != runlog.StatusReady || !runs[0].Partial {
		t.Errorf("unexpected run log %+v", runs)
	}
}

func TestWorkspace_UnknownPreset(t *testing.T) {
	w := newTestWorkspace(&fakeExecutor{})
	if _, err := w.SelectPreset(context.Background(), "nope"); err == nil {
		t.Fatal("want error for unknown preset")
	}
	if _, err := w.Run(context.Background()); err != ErrNoPreset {
		t.Fatalf("want ErrNoPreset, got %v", err)
	}
}

func TestWorkspace_NewRunCancelsPredecessor(t *testing.T) {
	exec := &fakeExecutor{block: map[string]bool{"run-1": true}}
	rec := runlog.NewMemoryRecorder(0)
	w := newTestWorkspace(exec, WithRecorder(rec))
	defer w.Close()

	if _, err := w.SelectPreset(context.Background(), "live_flow"); err != nil {
		t.Fatal(err)
	}
	id, err := w.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	w.Wait()

	s := w.Snapshot()
	if s.RunID != id || s.Status != StatusReady {
		t.Fatalf("want %s ready, got %s %s", id, s.RunID, s.Status)
	}

	exec.mu.Lock()
	first := exec.ctxs["run-1"]
	exec.mu.Unlock()
	if first == nil || first.Err() == nil {
		t.Error("first run's context should have been cancelled")
	}

	statuses := map[runlog.Status]int{}
	for _, r := range rec.Recent(0) {
		statuses[r.Status]++
	}
	if statuses[runlog.StatusCancelled] != 1 || statuses[runlog.StatusReady] != 1 {
		t.Errorf("want one cancelled and one ready run, got %v", statuses)
	}
}

func TestWorkspace_LiveAbortKeepsPriorResult(t *testing.T) {
	body, err := json.Marshal(sampleResult())
	if err != nil {
		t.Fatal(err)
	}
	var hits int32
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.Write(body)
			return
		}
		close(started)
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	client := transport.New(transport.WithEndpoint(srv.URL), transport.WithRetry(3, 0))
	w := newTestWorkspace(client, WithMode(transport.ModeLive))
	defer w.Close()

	if _, err := w.SelectPreset(context.Background(), "live_flow"); err != nil {
		t.Fatal(err)
	}
	w.Wait()
	first := w.Snapshot()
	if first.Status != StatusReady {
		t.Fatalf("first run: want ready, got %s (%s)", first.Status, first.Error)
	}

	if _, err := w.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("second request never reached the server")
	}
	w.Cancel()
	w.Wait()

	s := w.Snapshot()
	if s.Status != StatusCancelled {
		t.Fatalf("want cancelled, got %s", s.Status)
	}
	if s.Error != "" || s.Category != "" {
		t.Errorf("cancellation must not surface an error, got %q/%q", s.Error, s.Category)
	}
	if s.Result != first.Result {
		t.Error("cancellation must keep the prior result")
	}
}

func TestWorkspace_FailureSurfacesCategory(t *testing.T) {
	exec := &fakeExecutor{err: &transport.Error{Category: transport.CategoryInvalidResult, Message: "result failed validation"}}
	w := newTestWorkspace(exec)
	defer w.Close()

	w.SelectPreset(context.Background(), "event_mix")
	w.Wait()

	s := w.Snapshot()
	if s.Status != StatusError || s.Category != transport.CategoryInvalidResult {
		t.Fatalf("want INVALID_RESULT error, got %s %s", s.Status, s.Category)
	}
	if s.Error != "result failed validation" {
		t.Errorf("unexpected error message %q", s.Error)
	}
}

func TestWorkspace_UpdateOverrides(t *testing.T) {
	exec := &fakeExecutor{}
	var sunk []contract.Diagnostic
	w := newTestWorkspace(exec, WithDiagnosticSink(func(d contract.Diagnostic) { sunk = append(sunk, d) }))
	defer w.Close()

	w.SelectPreset(context.Background(), "engagement_heatmap")
	w.Wait()
	calls := exec.calls()

	diags, err := w.UpdateOverrides(context.Background(), OverridePatch{FieldMeasure: "visitors"})
	if err != nil {
		t.Fatal(err)
	}
	w.Wait()
	if len(diags) != 1 || len(sunk) != 1 {
		t.Fatalf("want one diagnostic returned and sunk, got %v / %v", diags, sunk)
	}
	if exec.calls() != calls {
		t.Error("a dropped-only update must not start a run")
	}

	if _, err := w.UpdateOverrides(context.Background(), OverridePatch{FieldTimeRange: "last_7d"}); err != nil {
		t.Fatal(err)
	}
	w.Wait()
	if exec.calls() != calls+1 {
		t.Errorf("a real change should start one run, got %d calls", exec.calls()-calls)
	}
	exec.mu.Lock()
	last := exec.reqs[len(exec.reqs)-1]
	exec.mu.Unlock()
	if want := anchor.AddDate(0, 0, -7); !last.Spec.TimeWindow.From.Equal(want) {
		t.Errorf("want from %s, got %s", want, last.Spec.TimeWindow.From)
	}
	if last.Fixture != "engagement_heatmap" {
		t.Errorf("want fixture engagement_heatmap, got %q", last.Fixture)
	}
}

func TestWorkspace_IntegrityDrift(t *testing.T) {
	for _, strict := range []bool{true, false} {
		t.Run(fmt.Sprintf("strict=%t", strict), func(t *testing.T) {
			exec := &fakeExecutor{}
			w := newTestWorkspace(exec, WithStrictIntegrity(strict))
			defer w.Close()

			w.SelectPreset(context.Background(), "live_flow")
			w.Wait()
			calls := exec.calls()

			w.mu.Lock()
			p := *w.state.Preset
			w.state.Badges = preset.Badges(p, contract.Overrides{TimeRangeID: "last_7d"})
			w.mu.Unlock()

			if _, err := w.Run(context.Background()); err != nil {
				t.Fatal(err)
			}
			w.Wait()
			s := w.Snapshot()

			if strict {
				if s.Status != StatusError || s.Category != transport.CategoryInvalidSpec {
					t.Fatalf("want INVALID_SPEC failure, got %s %s", s.Status, s.Category)
				}
				if exec.calls() != calls {
					t.Error("a drifting spec must not reach the backend")
				}
				return
			}
			if s.Status != StatusReady {
				t.Fatalf("want ready, got %s (%s)", s.Status, s.Error)
			}
			found := false
			for _, d := range s.Diagnostics {
				if d.Code == contract.DiagIntegrityDrift {
					found = true
				}
			}
			if !found {
				t.Errorf("want integrity_drift diagnostic, got %v", s.Diagnostics)
			}
		})
	}
}

func TestWorkspace_OnChangeAndClose(t *testing.T) {
	w := newTestWorkspace(&fakeExecutor{})

	var (
		mu       sync.Mutex
		statuses []Status
	)
	w.OnChange(func(s State) {
		mu.Lock()
		defer mu.Unlock()
		statuses = append(statuses, s.Status)
	})

	w.SelectPreset(context.Background(), "conversion_rate")
	w.Wait()
	w.Close()

	mu.Lock()
	defer mu.Unlock()
	want := []Status{StatusIdle, StatusLoading, StatusReady}
	if len(statuses) != len(want) {
		t.Fatalf("want transitions %v, got %v", want, statuses)
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Errorf("transition %d: want %s, got %s", i, want[i], statuses[i])
		}
	}

	if _, err := w.Run(context.Background()); err != ErrClosed {
		t.Errorf("want ErrClosed after Close, got %v", err)
	}
}

func TestWorkspace_SelectPresetWithRunsOnce(t *testing.T) {
	exec := &fakeExecutor{}
	rec := runlog.NewMemoryRecorder(0)
	w := newTestWorkspace(exec, WithRecorder(rec))
	defer w.Close()

	_, diags, err := w.SelectPresetWith(context.Background(), "live_flow", OverridePatch{
		FieldTimeRange: "last_7d",
		FieldMeasure:   "nope",
	})
	if err != nil {
		t.Fatal(err)
	}
	w.Wait()

	if exec.calls() != 1 {
		t.Errorf("want exactly 1 run, got %d", exec.calls())
	}
	if len(diags) != 1 || diags[0].Code != contract.DiagOverrideDropped || diags[0].Field != string(FieldMeasure) {
		t.Errorf("want one dropped measure override, got %v", diags)
	}

	s := w.Snapshot()
	if s.Overrides.TimeRangeID != "last_7d" || s.Overrides.MeasureOptionID != "visitors" {
		t.Errorf("unexpected overrides %+v", s.Overrides)
	}
	if runs := rec.Recent(0); len(runs) != 1 || runs[0].Overrides.TimeRangeID != "last_7d" {
		t.Errorf("run log should hold one run with the patched overrides, got %+v", runs)
	}

	if _, _, err := w.SelectPresetWith(context.Background(), "missing", nil); err == nil {
		t.Error("want error for unknown preset")
	}
}
