package config

import (
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/pipegrid/internal/matrix"
)

// Model is the unified, format-agnostic representation of one pipeline
// declaration. It is immutable for the duration of a run: loaders build it
// once at startup and nothing mutates it afterwards.
type Model struct {
	Pipeline *Pipeline
}

// Pipeline is a matrix of axes crossed with an ordered step template, plus an
// optional publication rule.
type Pipeline struct {
	Name string

	// Axes declare the build matrix. Empty means a single unparameterized job.
	Axes []matrix.Axis

	// Environment seeds the initial execution context of every job.
	Environment map[string]string

	// Workdir is the initial working directory of every job. Empty means the
	// process working directory.
	Workdir string

	Steps   []*Step
	Publish *Publish
}

// Step is the format-agnostic representation of one `step` block.
type Step struct {
	// Action names the registered action handler, e.g. "shell".
	Action string
	Name   string

	// Arguments holds the raw attribute expressions of the step's arguments
	// block, evaluated against the owning job's variables at execution time.
	Arguments map[string]hcl.Expression

	// RunIf gates execution. Nil means the step always runs. The expression
	// sees `matrix` (the job's axis values) and `outcome` (statuses of prior
	// steps by name).
	RunIf hcl.Expression

	// ContinueSession marks the step as sharing shell state with the
	// previously executed step. Steps without it start from the job's initial
	// environment and working directory.
	ContinueSession bool
}

// Publish selects at most one representative job whose artifact is forwarded
// to the reporting sink.
type Publish struct {
	// When must match exactly one JobSpec; it sees only `matrix`.
	When hcl.Expression

	// Artifact is evaluated in the selected job's variable view and names the
	// artifact to upload.
	Artifact hcl.Expression

	// URL is the reporting sink endpoint.
	URL string

	// Fatal controls whether a sink publication failure fails the run.
	// Nil means the default: fatal.
	Fatal *bool
}

// FatalPublish resolves the Fatal option against its default.
func (p *Publish) FatalPublish() bool {
	if p.Fatal == nil {
		return true
	}
	return *p.Fatal
}

// Validate checks the structural invariants loaders cannot express in their
// schemas. Axis validity itself is checked by matrix.Expand.
func (m *Model) Validate() error {
	if m.Pipeline == nil {
		return errors.New("configuration declares no pipeline")
	}
	p := m.Pipeline
	if len(p.Steps) == 0 {
		return fmt.Errorf("pipeline %q declares no steps", p.Name)
	}
	names := make(map[string]bool, len(p.Steps))
	for i, s := range p.Steps {
		if s.Name == "" {
			return fmt.Errorf("pipeline %q: step %d has no name", p.Name, i)
		}
		if s.Action == "" {
			return fmt.Errorf("pipeline %q: step %q has no action", p.Name, s.Name)
		}
		if names[s.Name] {
			return fmt.Errorf("pipeline %q: duplicate step name %q", p.Name, s.Name)
		}
		names[s.Name] = true
	}
	if p.Publish != nil {
		if p.Publish.When == nil {
			return fmt.Errorf("pipeline %q: publish block requires a when expression", p.Name)
		}
		if p.Publish.Artifact == nil {
			return fmt.Errorf("pipeline %q: publish block requires an artifact expression", p.Name)
		}
		if p.Publish.URL == "" {
			return fmt.Errorf("pipeline %q: publish block requires a sink url", p.Name)
		}
	}
	return nil
}
