package engine

import "github.com/vk/pipegrid/internal/matrix"

// Status is the terminal state of one step, or of a whole job.
type Status int

const (
	// Success: the step's action ran and returned no error, or every
	// non-skipped step of the job succeeded.
	Success Status = iota
	// Failure: the action returned an error, the step could not be prepared,
	// or the job was canceled mid-sequence.
	Failure
	// Skipped: the step's run condition evaluated to false. Never applied to
	// a whole job.
	Skipped
)

// String renders the status in the lowercase form exposed to run conditions
// as `outcome.<step>`.
func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Skipped:
		return "skipped"
	}
	return "unknown"
}

// StepOutcome records the terminal state of one step. Outcomes are appended
// to the execution context's log and never mutated.
type StepOutcome struct {
	Step       string
	Status     Status
	Diagnostic string
}

// Finalize computes a job's final status from its ordered outcome log:
// Success iff no outcome is a Failure. Skipped steps never contribute to
// failure, so an all-skipped job is a Success. Pure function, no side
// effects.
func Finalize(outcomes []StepOutcome) Status {
	for _, o := range outcomes {
		if o.Status == Failure {
			return Failure
		}
	}
	return Success
}

// JobResult is the immutable record of one completed job.
type JobResult struct {
	Spec     *matrix.JobSpec
	Outcomes []StepOutcome
	Status   Status
}

// FirstFailure returns the first failing step's outcome, for the final
// report's diagnostics.
func (r *JobResult) FirstFailure() (StepOutcome, bool) {
	for _, o := range r.Outcomes {
		if o.Status == Failure {
			return o, true
		}
	}
	return StepOutcome{}, false
}
