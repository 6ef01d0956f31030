package tui

import (
	"context"
	"log"
	"time"
)

// ShutdownManager coordinates graceful shutdown of the workspace and the
// run history.
type ShutdownManager struct {
	// DrainTimeout bounds how long in-flight runs may take to settle after
	// being cancelled.
	DrainTimeout time.Duration

	// CancelRuns cancels and waits for any run in flight.
	CancelRuns func()

	// CloseRecorder flushes and closes the run history store.
	CloseRecorder func() error

	// Cleanup performs any additional cleanup (e.g., closing the debug log).
	Cleanup func()
}

// NewShutdownManager creates a ShutdownManager with a 5-second drain timeout.
func NewShutdownManager() *ShutdownManager {
	return &ShutdownManager{
		DrainTimeout: 5 * time.Second,
	}
}

// Shutdown runs in order:
// 1. Cancel in-flight runs and wait for them (up to DrainTimeout)
// 2. Flush and close the run history
// 3. Run cleanup
func (sm *ShutdownManager) Shutdown() error {
	var drainErr error
	if sm.CancelRuns != nil {
		ctx, cancel := context.WithTimeout(context.Background(), sm.DrainTimeout)
		done := make(chan struct{})
		go func() {
			sm.CancelRuns()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			log.Printf("WARNING: runs did not settle within %s", sm.DrainTimeout)
			drainErr = ctx.Err()
		}
		cancel()
	}

	var closeErr error
	if sm.CloseRecorder != nil {
		closeErr = sm.CloseRecorder()
	}

	if sm.Cleanup != nil {
		sm.Cleanup()
	}

	if closeErr != nil {
		return closeErr
	}
	return drainErr
}
