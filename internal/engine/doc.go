// Package engine executes an expanded matrix pipeline: jobs run concurrently
// on a bounded worker pool, steps within a job run strictly in order against
// a job-private execution context, and the run completes only when every job
// has a result. Failure of one step halts its job; failure of one job leaves
// sibling jobs untouched unless fail-fast is enabled.
package engine
