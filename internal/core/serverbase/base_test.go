// SPDX-License-Identifier: MPL-2.0

package serverbase

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBase_Lifecycle(t *testing.T) {
	t.Parallel()

	b := NewBase()
	if b.State() != StateCreated {
		t.Fatalf("State() = %s, want created", b.State())
	}
	if err := b.TransitionToStarting(context.Background()); err != nil {
		t.Fatalf("TransitionToStarting() error = %v", err)
	}
	if err := b.TransitionToStarting(context.Background()); err == nil {
		t.Error("second TransitionToStarting() returned nil")
	}

	b.TransitionToRunning()
	if !b.IsRunning() {
		t.Errorf("State() = %s, want running", b.State())
	}
	if err := b.WaitForReady(context.Background()); err != nil {
		t.Errorf("WaitForReady() error = %v", err)
	}

	if !b.TransitionToStopping() {
		t.Error("TransitionToStopping() = false, want true")
	}
	select {
	case <-b.Context().Done():
	default:
		t.Error("Context() not canceled by TransitionToStopping")
	}
	if b.TransitionToStopping() {
		t.Error("second TransitionToStopping() = true")
	}

	b.TransitionToStopped()
	if b.State() != StateStopped || !b.State().IsTerminal() {
		t.Errorf("State() = %s, want stopped", b.State())
	}
	select {
	case <-b.Done():
	default:
		t.Error("Done() not closed after stop")
	}
}

func TestBase_FailedStaysFailed(t *testing.T) {
	t.Parallel()

	b := NewBase()
	_ = b.TransitionToStarting(context.Background())
	boom := errors.New("boom")
	b.TransitionToFailed(boom)
	b.TransitionToStopped()

	if b.State() != StateFailed {
		t.Errorf("State() = %s, want failed", b.State())
	}
	if !errors.Is(b.LastError(), boom) {
		t.Errorf("LastError() = %v", b.LastError())
	}
	select {
	case err := <-b.Err():
		if !errors.Is(err, boom) {
			t.Errorf("Err() = %v", err)
		}
	default:
		t.Error("Err() empty after failure")
	}
	if err := b.WaitForReady(context.Background()); !errors.Is(err, boom) {
		t.Errorf("WaitForReady() error = %v, want boom", err)
	}
}

func TestBase_CanceledBeforeStart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBase()
	if err := b.TransitionToStarting(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("TransitionToStarting() error = %v, want context.Canceled", err)
	}
	if b.State() != StateFailed {
		t.Errorf("State() = %s, want failed", b.State())
	}
}

func TestBase_StopBeforeStart(t *testing.T) {
	t.Parallel()

	b := NewBase()
	if b.TransitionToStopping() {
		t.Error("TransitionToStopping() = true for a created server")
	}
	if b.State() != StateStopped {
		t.Errorf("State() = %s, want stopped", b.State())
	}
}

func TestBase_WaitForReadyTimeout(t *testing.T) {
	t.Parallel()

	b := NewBase()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := b.WaitForReady(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitForReady() error = %v, want DeadlineExceeded", err)
	}
}

func TestState_String(t *testing.T) {
	t.Parallel()

	tests := map[State]string{
		StateCreated: "created", StateStarting: "starting", StateRunning: "running",
		StateStopping: "stopping", StateStopped: "stopped", StateFailed: "failed", State(42): "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}
