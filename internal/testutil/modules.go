package testutil

import (
	"context"
	"sync/atomic"

	"github.com/vk/pipegrid/internal/registry"
)

// SpyModule registers a single argument-less action that records every
// invocation. Tests use it to prove that a step did or did not execute.
type SpyModule struct {
	// Name is the action name to register.
	Name string

	// Err, when non-nil, is returned by every invocation, making the action
	// a deterministic failer.
	Err error

	// OnRun, when set, runs on each invocation with the job's context.
	OnRun func(ec registry.ExecContext)

	calls atomic.Int32
}

// Calls reports how many times the action executed, across all jobs.
func (m *SpyModule) Calls() int {
	return int(m.calls.Load())
}

// Register implements registry.Module.
func (m *SpyModule) Register(r *registry.Registry) {
	r.RegisterAction(m.Name, &registry.Action{
		Fn: func(ctx context.Context, ec registry.ExecContext, input any) error {
			m.calls.Add(1)
			if m.OnRun != nil {
				m.OnRun(ec)
			}
			return m.Err
		},
	})
}
