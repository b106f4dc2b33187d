package engine

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/pipegrid/internal/config"
	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/matrix"
	"github.com/vk/pipegrid/internal/registry"
)

// runJob executes the pipeline's step template for one matrix cell against a
// fresh execution context. Steps run strictly in order; the first failure
// halts the sequence and every remaining step stays unexecuted, including
// steps whose run conditions would pass. A canceled context is treated the
// same way as a failing step.
func (e *Engine) runJob(ctx context.Context, spec *matrix.JobSpec) *JobResult {
	logger := ctxlog.FromContext(ctx)
	logger.Info("▶️ Starting job")

	ec := NewExecContext(e.pipeline.Environment, e.pipeline.Workdir)

	for _, step := range e.pipeline.Steps {
		stepLogger := logger.With("step", step.Name)

		if err := ctx.Err(); err != nil {
			stepLogger.Warn("Job canceled, halting remaining steps.", "error", err)
			ec.AppendOutcome(StepOutcome{
				Step:       step.Name,
				Status:     Failure,
				Diagnostic: fmt.Sprintf("job canceled: %v", err),
			})
			break
		}

		evalCtx := buildEvalContext(spec, ec.Outcomes())

		run, err := shouldRun(step, evalCtx)
		if err != nil {
			stepLogger.Error("Run condition evaluation failed.", "error", err)
			ec.AppendOutcome(StepOutcome{Step: step.Name, Status: Failure, Diagnostic: err.Error()})
			break
		}
		if !run {
			stepLogger.Info("⏭️ Step skipped by run condition.")
			ec.AppendOutcome(StepOutcome{Step: step.Name, Status: Skipped})
			continue
		}

		// Steps outside the shared session start over from the job's initial
		// environment and working directory.
		if !step.ContinueSession {
			ec.Reset()
		}

		stepLogger.Debug("Executing step action.", "action", step.Action)
		if err := e.executeStep(ctx, step, ec, evalCtx); err != nil {
			stepLogger.Error("Step failed.", "error", err)
			ec.AppendOutcome(StepOutcome{Step: step.Name, Status: Failure, Diagnostic: err.Error()})
			break
		}

		stepLogger.Debug("Step succeeded.")
		ec.AppendOutcome(StepOutcome{Step: step.Name, Status: Success})
	}

	result := &JobResult{
		Spec:     spec,
		Outcomes: ec.Outcomes(),
		Status:   Finalize(ec.Outcomes()),
	}
	if result.Status == Success {
		logger.Info("✅ Job succeeded")
	} else {
		logger.Warn("❌ Job failed")
	}
	return result
}

// executeStep prepares an action's input from the step's arguments and runs
// it. Argument decoding errors are step failures: they are local to one job
// and must not unwind past it.
func (e *Engine) executeStep(ctx context.Context, step *config.Step, ec *ExecContext, evalCtx *hcl.EvalContext) error {
	action, err := e.registry.Lookup(step.Action)
	if err != nil {
		return err
	}

	var input any
	if action.NewInput != nil {
		input = action.NewInput()
		if err := registry.DecodeArgs(step.Arguments, evalCtx, input); err != nil {
			return fmt.Errorf("decoding arguments for step '%s': %w", step.Name, err)
		}
	}
	return action.Fn(ctx, ec, input)
}

// shouldRun evaluates a step's run condition against the job's variables and
// the outcomes recorded so far. A missing condition always runs.
func shouldRun(step *config.Step, evalCtx *hcl.EvalContext) (bool, error) {
	if step.RunIf == nil {
		return true, nil
	}
	val, diags := step.RunIf.Value(evalCtx)
	if diags.HasErrors() {
		return false, fmt.Errorf("evaluating run_if for step '%s': %w", step.Name, diags)
	}
	// gohcl decodes an absent optional expression as a static null.
	if val.IsNull() {
		return true, nil
	}
	boolVal, err := convert.Convert(val, cty.Bool)
	if err != nil || boolVal.IsNull() {
		return false, fmt.Errorf("run_if for step '%s' must produce a boolean", step.Name)
	}
	return boolVal.True(), nil
}

// buildEvalContext constructs the expression scope for one step of one job:
// `matrix` holds the cell's axis values, `outcome` the lowercase status of
// every prior step by name. Both are read-only views; conditions stay pure.
func buildEvalContext(spec *matrix.JobSpec, outcomes []StepOutcome) *hcl.EvalContext {
	outcomeAttrs := make(map[string]cty.Value, len(outcomes))
	for _, o := range outcomes {
		outcomeAttrs[o.Step] = cty.StringVal(o.Status.String())
	}
	outcomeVal := cty.EmptyObjectVal
	if len(outcomeAttrs) > 0 {
		outcomeVal = cty.ObjectVal(outcomeAttrs)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"matrix":  spec.Variables(),
			"outcome": outcomeVal,
		},
	}
}
