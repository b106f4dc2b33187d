package app

import (
	"context"
	"errors"

	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/engine"
	"github.com/vk/pipegrid/internal/publish"
)

// Run executes the loaded pipeline: matrix expansion, concurrent job
// execution, the final report and, when configured, the selective
// publication. The returned error is non-nil iff the run must exit non-zero:
// any job failed, a configuration error surfaced, or a fatal publication
// failure occurred.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	eng := engine.New(a.model.Pipeline, a.registry, engine.Options{
		Workers:  cfg.Workers,
		FailFast: cfg.FailFast,
	})

	if cfg.StatusPort > 0 {
		srv := newStatusServer(cfg.StatusPort, eng.Progress())
		srv.start(ctx)
		defer srv.shutdown(ctx)
	}

	results, runErr := eng.Run(ctx)
	if results == nil {
		// Expansion never happened: a configuration error, fatal before any
		// job could start.
		return runErr
	}

	renderReport(a.outW, results)

	pubErr := a.runPublication(ctx, results)

	if runErr != nil && pubErr != nil {
		return errors.Join(runErr, pubErr)
	}
	if runErr != nil {
		return runErr
	}
	return pubErr
}

// runPublication evaluates the publish rule, if any, against the completed
// run. Ambiguous selection is a configuration error and always fatal; a sink
// failure is fatal per the rule's own setting.
func (a *App) runPublication(ctx context.Context, results []*engine.JobResult) error {
	rule := a.model.Pipeline.Publish
	if rule == nil {
		a.logger.Debug("No publish rule declared, skipping publication.")
		return nil
	}

	sink := publish.NewHTTPSink(rule.URL)
	defer sink.Close()

	publisher := publish.New(rule, sink)
	attempted, err := publisher.Run(ctx, results)
	if err == nil {
		return nil
	}

	var ambiguous *publish.AmbiguousTargetError
	if errors.As(err, &ambiguous) {
		return err
	}
	if !attempted || rule.FatalPublish() {
		return err
	}
	a.logger.Error("Publication failed; configured as non-fatal, run result unaffected.", "error", err)
	return nil
}
