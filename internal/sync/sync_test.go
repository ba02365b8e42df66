package sync

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dabbslondon/tourney-tracker/internal/epoch"
	"github.com/dabbslondon/tourney-tracker/internal/storage"
)

func testOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	cfg := storage.NewConfig(t.TempDir())
	mapper := epoch.FromSignificantEvents(nil)
	return New(Config{Storage: cfg}, nil, nil, nil, mapper, zap.NewNop().Sugar())
}

func TestOrchestratorStartsIdle(t *testing.T) {
	o := testOrchestrator(t)
	if o.IsRunning() {
		t.Error("expected a freshly built orchestrator not to be running")
	}
	if o.State().Status != RefreshIdle {
		t.Errorf("expected idle status, got %q", o.State().Status)
	}
}

func TestRunWithoutClientFailsGracefully(t *testing.T) {
	o := testOrchestrator(t)
	window := DateWindow{From: time.Now().AddDate(0, -1, 0), To: time.Now()}

	_, err := o.Run(context.Background(), window)
	if err != nil {
		t.Fatalf("Run should report failure via state, not a returned error: %v", err)
	}

	state := o.State()
	if state.Status != RefreshFailed {
		t.Errorf("expected failed status with no source client configured, got %q", state.Status)
	}
	if state.Phase != PhaseDone {
		t.Errorf("expected phase done after a completed (failed) run, got %q", state.Phase)
	}
	if len(state.Errors) == 0 {
		t.Error("expected at least one recorded error")
	}
}

func TestRunRejectsConcurrentInvocation(t *testing.T) {
	o := testOrchestrator(t)
	o.stateMu.Lock()
	o.state.Status = RefreshRunning
	o.stateMu.Unlock()

	_, err := o.Run(context.Background(), DateWindow{From: time.Now(), To: time.Now()})
	if err == nil {
		t.Error("expected Run to reject a second concurrent invocation")
	}
}

func TestRunHonorsCancelledContext(t *testing.T) {
	o := testOrchestrator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Run(ctx, DateWindow{From: time.Now(), To: time.Now()})
	if err == nil {
		t.Error("expected Run to report the cancellation")
	}
	if o.State().Status != RefreshFailed {
		t.Errorf("expected failed status after cancellation, got %q", o.State().Status)
	}
}
