// Package registry holds the step action handlers compiled into the binary.
// Actions are the opaque executable units of the engine: the engine knows how
// to decode their arguments and run them against a job's execution context,
// and nothing about what they do.
package registry
