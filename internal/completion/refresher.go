// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package completion keeps the shell's completion index fresh.
//
// A Refresher runs an ordered list of Tasks against a metadata Source on a
// single background goroutine. Calling Refresh while a pass is running does
// not start a second worker; it marks the pass for restart. The flag is only
// checked between tasks, so a slow discovery call is never interrupted. A
// restarted pass keeps what earlier passes collected, and the finished Index
// is handed to the callbacks only after a full uninterrupted pass.
package completion

import (
	"context"
	"iter"
	"sync"

	"go.uber.org/zap"

	"athenacli/cli/internal/backend"
)

// Acknowledgements returned by Refresh.
const (
	Started   = "Auto-completion refresh started in the background."
	Restarted = "Auto-completion refresh restarted."
)

// Source is the metadata a refresh reads. backend.Backend satisfies it.
type Source interface {
	Database() string
	Databases(ctx context.Context) ([]string, error)
	Tables(ctx context.Context) iter.Seq2[string, error]
	TableColumns(ctx context.Context) iter.Seq2[backend.Column, error]
	PreQualifiedIdentifiers() bool
}

// Task populates part of an Index.
type Task struct {
	Name string
	Run  func(ctx context.Context, idx *Index, src Source) error
}

// Refresher coordinates background refresh passes.
type Refresher struct {
	tasks  []Task
	logger *zap.Logger

	mu      sync.Mutex
	running bool
	restart bool
	done    chan struct{}
}

// NewRefresher returns a Refresher that runs tasks in the given order.
func NewRefresher(logger *zap.Logger, tasks ...Task) *Refresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{tasks: tasks, logger: logger}
}

// Refresh starts a background pass over src, or asks the running one to
// restart. callbacks receive the finished index; those passed while a pass is
// already running are ignored, as that pass already has its callbacks.
func (r *Refresher) Refresh(ctx context.Context, src Source, callbacks ...func(*Index)) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		r.restart = true
		return Restarted
	}
	r.running = true
	r.restart = false
	r.done = make(chan struct{})
	go r.work(ctx, src, callbacks, r.done)
	return Started
}

// IsRefreshing reports whether a worker is active.
func (r *Refresher) IsRefreshing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Wait blocks until the current worker, if any, has exited.
func (r *Refresher) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (r *Refresher) work(ctx context.Context, src Source, callbacks []func(*Index), done chan struct{}) {
	defer close(done)

	idx := NewIndex()
	for {
		if !r.pass(ctx, idx, src) {
			r.logger.Debug("completion refresh cancelled")
			r.stop()
			return
		}
		for _, cb := range callbacks {
			cb(idx)
		}

		// A refresh requested while callbacks ran gets one more pass on a
		// copy; the index already handed out is never touched again.
		r.mu.Lock()
		if r.restart {
			r.restart = false
			r.mu.Unlock()
			idx = idx.Clone()
			continue
		}
		r.running = false
		r.mu.Unlock()
		return
	}
}

// pass runs the tasks until one full pass completes without a restart
// request. It returns false when ctx is cancelled.
func (r *Refresher) pass(ctx context.Context, idx *Index, src Source) bool {
	for {
		restarted := false
		for _, t := range r.tasks {
			if ctx.Err() != nil {
				return false
			}
			if err := t.Run(ctx, idx, src); err != nil {
				r.logger.Warn("completion refresh task failed", zap.String("task", t.Name), zap.Error(err))
			}
			if r.takeRestart() {
				restarted = true
				break
			}
		}
		if !restarted {
			return true
		}
		r.logger.Debug("completion refresh restarted")
	}
}

func (r *Refresher) takeRestart() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.restart {
		r.restart = false
		return true
	}
	return false
}

func (r *Refresher) stop() {
	r.mu.Lock()
	r.running = false
	r.restart = false
	r.mu.Unlock()
}
