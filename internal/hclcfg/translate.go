package hclcfg

import (
	"github.com/hashicorp/hcl/v2"

	"github.com/vk/pipegrid/internal/config"
	"github.com/vk/pipegrid/internal/matrix"
)

// translatePipeline converts the HCL-specific schema into the format-agnostic
// model consumed by the engine.
func (l *Loader) translatePipeline(p *pipelineBlock) (*config.Model, error) {
	pipeline := &config.Pipeline{
		Name:        p.Name,
		Workdir:     p.Workdir,
		Environment: p.Environment,
	}

	if p.Matrix != nil {
		for _, a := range p.Matrix.Axes {
			pipeline.Axes = append(pipeline.Axes, matrix.Axis{Name: a.Name, Values: a.Values})
		}
	}

	for _, s := range p.Steps {
		step, err := l.translateStep(s)
		if err != nil {
			return nil, err
		}
		pipeline.Steps = append(pipeline.Steps, step)
	}

	if p.Publish != nil {
		pipeline.Publish = &config.Publish{
			When:     p.Publish.When,
			Artifact: p.Publish.Artifact,
			URL:      p.Publish.URL,
			Fatal:    p.Publish.Fatal,
		}
	}

	return &config.Model{Pipeline: pipeline}, nil
}

// translateStep converts a step block, flattening its arguments block into
// the model's expression map.
func (l *Loader) translateStep(s *stepBlock) (*config.Step, error) {
	args := map[string]hcl.Expression{}
	if s.Arguments != nil {
		extracted, err := extractBodyAttributes(s.Arguments.Body)
		if err != nil {
			return nil, err
		}
		args = extracted
	}
	return &config.Step{
		Action:          s.Action,
		Name:            s.Name,
		Arguments:       args,
		RunIf:           s.RunIf,
		ContinueSession: s.ContinueSession,
	}, nil
}
