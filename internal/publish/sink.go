// Package publish selects the single representative job of a completed run
// and forwards its artifact to the external reporting sink. Selection is
// deliberate about doing nothing: a predicate matching no job, or matching a
// failed job, is a no-op rather than an error, so partial or failing data
// never reaches the sink and no two matrix cells can both claim to report.
package publish

import "context"

// Artifact is the reference handed to the reporting sink: which job produced
// it and the artifact it designated.
type Artifact struct {
	Job string
	Ref string
}

// Sink receives at most one artifact per engine run.
type Sink interface {
	Publish(ctx context.Context, artifact Artifact) error
}
