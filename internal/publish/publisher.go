package publish

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/pipegrid/internal/config"
	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/engine"
	"github.com/vk/pipegrid/internal/matrix"
)

// AmbiguousTargetError reports a selection predicate matching more than one
// matrix cell. This is a configuration error: the predicate must isolate
// exactly one cell, and nothing is published when it does not.
type AmbiguousTargetError struct {
	Matches []string
}

func (e *AmbiguousTargetError) Error() string {
	return fmt.Sprintf("publication target is ambiguous: when expression matches %d jobs (%s)",
		len(e.Matches), strings.Join(e.Matches, ", "))
}

// Publisher evaluates the publication rule against a completed run.
type Publisher struct {
	cfg  *config.Publish
	sink Sink
}

// New builds a publisher for one publish rule and sink.
func New(cfg *config.Publish, sink Sink) *Publisher {
	return &Publisher{cfg: cfg, sink: sink}
}

// Run applies the selection predicate to every job of a completed run and,
// when exactly one cell matches and that cell succeeded, forwards its
// artifact to the sink. It must only ever be called with the full result
// set: the engine's Run has already barriered on all jobs.
//
// The returned bool reports whether a publication was attempted. Sink errors
// are returned as-is; the caller decides their fatality per configuration.
func (p *Publisher) Run(ctx context.Context, results []*engine.JobResult) (bool, error) {
	logger := ctxlog.FromContext(ctx)

	var matches []*engine.JobResult
	for _, r := range results {
		ok, err := p.selects(r.Spec)
		if err != nil {
			return false, fmt.Errorf("evaluating publish when expression for job '%s': %w", r.Spec.ID(), err)
		}
		if ok {
			matches = append(matches, r)
		}
	}

	switch len(matches) {
	case 0:
		logger.Info("No job matched the publication predicate, nothing to publish.")
		return false, nil
	case 1:
		// fall through
	default:
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = m.Spec.ID()
		}
		return false, &AmbiguousTargetError{Matches: ids}
	}

	representative := matches[0]
	if representative.Status != engine.Success {
		logger.Warn("Representative job did not succeed, withholding publication.",
			"job", representative.Spec.ID())
		return false, nil
	}

	ref, err := p.artifactRef(representative.Spec)
	if err != nil {
		return false, err
	}

	artifact := Artifact{Job: representative.Spec.ID(), Ref: ref}
	logger.Info("📤 Publishing artifact.", "job", artifact.Job, "artifact", artifact.Ref)
	if err := p.sink.Publish(ctx, artifact); err != nil {
		return true, fmt.Errorf("publishing artifact '%s' for job '%s': %w", artifact.Ref, artifact.Job, err)
	}
	logger.Info("✅ Artifact published.")
	return true, nil
}

// selects evaluates the when predicate for one matrix cell. The predicate
// sees only the cell's axis values; it is pure by construction.
func (p *Publisher) selects(spec *matrix.JobSpec) (bool, error) {
	val, diags := p.cfg.When.Value(evalContext(spec))
	if diags.HasErrors() {
		return false, diags
	}
	boolVal, err := convert.Convert(val, cty.Bool)
	if err != nil || boolVal.IsNull() {
		return false, fmt.Errorf("when expression must produce a boolean")
	}
	return boolVal.True(), nil
}

// artifactRef evaluates the artifact expression in the representative job's
// variable view, so references like "coverage-${matrix.os}.xml" resolve.
func (p *Publisher) artifactRef(spec *matrix.JobSpec) (string, error) {
	val, diags := p.cfg.Artifact.Value(evalContext(spec))
	if diags.HasErrors() {
		return "", fmt.Errorf("evaluating publish artifact expression: %w", diags)
	}
	strVal, err := convert.Convert(val, cty.String)
	if err != nil || strVal.IsNull() {
		return "", fmt.Errorf("publish artifact expression must produce a string")
	}
	return strVal.AsString(), nil
}

func evalContext(spec *matrix.JobSpec) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"matrix": spec.Variables()},
	}
}
