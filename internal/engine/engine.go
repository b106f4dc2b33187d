package engine

import (
	"context"
	"sync"

	"github.com/vk/pipegrid/internal/config"
	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/matrix"
	"github.com/vk/pipegrid/internal/registry"
)

// Options tune one engine run.
type Options struct {
	// Workers bounds how many jobs execute concurrently. Values below 1 are
	// clamped to 1.
	Workers int

	// FailFast cancels the whole run on the first job failure, transitioning
	// still-running and not-yet-started sibling jobs to Failure. Off by
	// default: matrix cells are independent and a failing cell does not
	// disturb its siblings.
	FailFast bool
}

// Engine runs one immutable pipeline declaration to completion.
type Engine struct {
	pipeline *config.Pipeline
	registry *registry.Registry
	opts     Options
	progress *Progress
}

// New builds an engine for one run.
func New(pipeline *config.Pipeline, reg *registry.Registry, opts Options) *Engine {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Engine{
		pipeline: pipeline,
		registry: reg,
		opts:     opts,
		progress: newProgress(),
	}
}

// Progress exposes the live per-job state for the status server.
func (e *Engine) Progress() *Progress {
	return e.progress
}

// Run expands the matrix and executes every job. It blocks until all jobs
// have a result, so callers observe a completed run: the returned slice has
// exactly one JobResult per matrix cell, in the deterministic expansion
// order. The error is non-nil iff any job failed; the results are returned
// either way so the caller can render the full report.
func (e *Engine) Run(ctx context.Context) ([]*JobResult, error) {
	logger := ctxlog.FromContext(ctx)

	specs, err := matrix.Expand(e.pipeline.Axes)
	if err != nil {
		return nil, err
	}
	e.progress.register(specs)
	logger.Info("🚀 Starting matrix execution.", "jobs", len(specs), "workers", e.opts.Workers, "fail_fast", e.opts.FailFast)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int, len(specs))
	for i := range specs {
		jobs <- i
	}
	close(jobs)

	results := make([]*JobResult, len(specs))
	var wg sync.WaitGroup
	wg.Add(e.opts.Workers)
	for w := 0; w < e.opts.Workers; w++ {
		go func(workerID int) {
			defer wg.Done()
			for i := range jobs {
				spec := specs[i]
				jobCtx := ctxlog.With(runCtx, "workerID", workerID, "job", spec.ID())
				e.progress.start(spec.ID())

				result := e.runJob(jobCtx, spec)
				results[i] = result
				e.progress.finish(spec.ID(), result.Status)

				if result.Status == Failure && e.opts.FailFast {
					ctxlog.FromContext(jobCtx).Warn("Fail-fast enabled, canceling sibling jobs.")
					cancel()
				}
			}
		}(w)
	}

	// Synchronization barrier: nothing downstream (report, publication) may
	// observe a partial set of results.
	wg.Wait()
	logger.Info("🏁 All jobs completed.")

	var failed []string
	for _, r := range results {
		if r.Status == Failure {
			failed = append(failed, r.Spec.ID())
		}
	}
	if len(failed) > 0 {
		return results, &RunError{Failed: failed, Total: len(results)}
	}
	return results, nil
}
