package engine

import (
	"fmt"
	"sort"
)

// ExecContext is the mutable state shared by the steps of one job: an
// environment map, a working directory and the ordered log of step outcomes.
// Each job owns exactly one ExecContext; contexts of different jobs share no
// state, which is what lets matrix cells run concurrently in any
// interleaving.
//
// The zero snapshot taken at construction backs session semantics: steps not
// marked session-continuing are reset to it before executing, while
// continuing steps observe exactly the state left by the previously executed
// step. The outcome log survives resets.
//
// ExecContext is not safe for concurrent use. Steps within a job are
// strictly sequential, so it never needs to be.
type ExecContext struct {
	initialEnv     map[string]string
	initialWorkdir string

	env      map[string]string
	workdir  string
	outcomes []StepOutcome
}

// NewExecContext builds a context seeded with the pipeline-level environment
// and initial working directory. The seed maps are copied; the caller may
// reuse them across jobs.
func NewExecContext(env map[string]string, workdir string) *ExecContext {
	initial := make(map[string]string, len(env))
	for k, v := range env {
		initial[k] = v
	}
	current := make(map[string]string, len(initial))
	for k, v := range initial {
		current[k] = v
	}
	return &ExecContext{
		initialEnv:     initial,
		initialWorkdir: workdir,
		env:            current,
		workdir:        workdir,
	}
}

// Setenv sets an environment variable visible to subsequently executed steps
// of the same job.
func (ec *ExecContext) Setenv(key, value string) {
	ec.env[key] = value
}

// Getenv reads an environment variable.
func (ec *ExecContext) Getenv(key string) (string, bool) {
	v, ok := ec.env[key]
	return v, ok
}

// Environ renders the environment as KEY=VALUE pairs in sorted order, ready
// for exec.Cmd.Env. Sorting keeps process invocations deterministic.
func (ec *ExecContext) Environ() []string {
	pairs := make([]string, 0, len(ec.env))
	for k, v := range ec.env {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(pairs)
	return pairs
}

// Chdir sets the working directory for subsequently executed steps.
func (ec *ExecContext) Chdir(path string) {
	ec.workdir = path
}

// Workdir returns the current working directory.
func (ec *ExecContext) Workdir() string {
	return ec.workdir
}

// Reset restores the environment and working directory to the job's initial
// snapshot. The outcome log is untouched.
func (ec *ExecContext) Reset() {
	ec.env = make(map[string]string, len(ec.initialEnv))
	for k, v := range ec.initialEnv {
		ec.env[k] = v
	}
	ec.workdir = ec.initialWorkdir
}

// AppendOutcome appends one step outcome to the job's log.
func (ec *ExecContext) AppendOutcome(o StepOutcome) {
	ec.outcomes = append(ec.outcomes, o)
}

// Outcomes returns a copy of the outcome log in execution order.
func (ec *ExecContext) Outcomes() []StepOutcome {
	out := make([]StepOutcome, len(ec.outcomes))
	copy(out, ec.outcomes)
	return out
}
