// SPDX-License-Identifier: MPL-2.0

package serverbase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrorChannelSize is the buffer of the channel returned by Err.
const ErrorChannelSize = 1

// Base holds lifecycle state for a server. Concrete servers embed it.
type Base struct {
	state atomic.Int32

	mu      sync.Mutex
	lastErr error

	ctx       context.Context
	cancel    context.CancelFunc
	startedCh chan struct{}
	doneCh    chan struct{}
	doneOnce  sync.Once
	errCh     chan error
}

// NewBase creates a Base in StateCreated.
func NewBase() *Base {
	b := &Base{
		startedCh: make(chan struct{}),
		doneCh:    make(chan struct{}),
		errCh:     make(chan error, ErrorChannelSize),
	}
	b.state.Store(int32(StateCreated))
	return b
}

// State returns the current state.
func (b *Base) State() State {
	return State(b.state.Load())
}

// IsRunning reports whether the server is running.
func (b *Base) IsRunning() bool {
	return b.State() == StateRunning
}

// Err returns a channel that receives the error that failed the server.
func (b *Base) Err() <-chan error {
	return b.errCh
}

// LastError returns the error that caused StateFailed, or nil.
func (b *Base) LastError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// Context is canceled when the server stops or fails. It is nil before
// TransitionToStarting.
func (b *Base) Context() context.Context {
	return b.ctx
}

// Done is closed once the server reaches a terminal state.
func (b *Base) Done() <-chan struct{} {
	return b.doneCh
}

// TransitionToStarting moves Created to Starting. A canceled ctx fails the
// server instead.
func (b *Base) TransitionToStarting(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		err = fmt.Errorf("context canceled before start: %w", err)
		b.TransitionToFailed(err)
		return err
	}
	if !b.state.CompareAndSwap(int32(StateCreated), int32(StateStarting)) {
		return fmt.Errorf("cannot start server in state %s", b.State())
	}
	b.ctx, b.cancel = context.WithCancel(context.WithoutCancel(ctx))
	return nil
}

// TransitionToRunning moves Starting to Running and releases WaitForReady.
func (b *Base) TransitionToRunning() {
	if b.state.CompareAndSwap(int32(StateStarting), int32(StateRunning)) {
		close(b.startedCh)
	}
}

// TransitionToFailed records err and moves to Failed.
func (b *Base) TransitionToFailed(err error) {
	b.mu.Lock()
	b.lastErr = err
	b.mu.Unlock()

	b.state.Store(int32(StateFailed))
	if b.cancel != nil {
		b.cancel()
	}
	select {
	case b.errCh <- err:
	default:
	}
	b.markDone()
}

// TransitionToStopping moves Starting or Running to Stopping and cancels
// Context. It returns false when there is nothing to stop.
func (b *Base) TransitionToStopping() bool {
	for {
		current := b.State()
		switch current {
		case StateCreated:
			if b.state.CompareAndSwap(int32(StateCreated), int32(StateStopped)) {
				b.markDone()
				return false
			}
		case StateStarting, StateRunning:
			if b.state.CompareAndSwap(int32(current), int32(StateStopping)) {
				if b.cancel != nil {
					b.cancel()
				}
				return true
			}
		default:
			return false
		}
	}
}

// TransitionToStopped marks the server stopped. A failed server stays
// failed.
func (b *Base) TransitionToStopped() {
	for {
		current := b.State()
		if current == StateFailed {
			return
		}
		if b.state.CompareAndSwap(int32(current), int32(StateStopped)) {
			break
		}
	}
	if b.cancel != nil {
		b.cancel()
	}
	b.markDone()
}

// WaitForReady blocks until the server runs or ctx ends.
func (b *Base) WaitForReady(ctx context.Context) error {
	select {
	case <-b.startedCh:
		return nil
	case <-b.doneCh:
		if err := b.LastError(); err != nil {
			return err
		}
		return fmt.Errorf("server stopped before it was ready")
	case <-ctx.Done():
		return fmt.Errorf("waiting for server ready: %w", ctx.Err())
	}
}

func (b *Base) markDone() {
	b.doneOnce.Do(func() { close(b.doneCh) })
}
