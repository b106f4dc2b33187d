package yamlcfg

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"github.com/vk/pipegrid/internal/config"
	"github.com/vk/pipegrid/internal/matrix"
)

// translateWorkflow converts the YAML document into the format-agnostic
// model. Expression strings are compiled here, so a malformed condition is a
// configuration error raised before any job starts.
func (l *Loader) translateWorkflow(wf *workflowFile, filename string) (*config.Model, error) {
	pipeline := &config.Pipeline{
		Name:        wf.Name,
		Workdir:     wf.Workdir,
		Environment: wf.Environment,
	}

	axes, err := translateMatrix(&wf.Matrix)
	if err != nil {
		return nil, err
	}
	pipeline.Axes = axes

	for i := range wf.Steps {
		step, err := translateStep(&wf.Steps[i], filename)
		if err != nil {
			return nil, err
		}
		pipeline.Steps = append(pipeline.Steps, step)
	}

	if wf.Publish != nil {
		pub, err := translatePublish(wf.Publish, filename)
		if err != nil {
			return nil, err
		}
		pipeline.Publish = pub
	}

	return &config.Model{Pipeline: pipeline}, nil
}

// translateMatrix reads the matrix mapping in document order: keys are axis
// names, values are sequences of scalars.
func translateMatrix(node *yaml.Node) ([]matrix.Axis, error) {
	if node.IsZero() {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("matrix must be a mapping of axis name to value list")
	}
	var axes []matrix.Axis
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		var values []string
		if err := valNode.Decode(&values); err != nil {
			return nil, fmt.Errorf("matrix axis %q: values must be a list of scalars: %w", keyNode.Value, err)
		}
		axes = append(axes, matrix.Axis{Name: keyNode.Value, Values: values})
	}
	return axes, nil
}

func translateStep(s *stepNode, filename string) (*config.Step, error) {
	step := &config.Step{
		Action:          s.Action,
		Name:            s.Name,
		Arguments:       map[string]hcl.Expression{},
		ContinueSession: s.ContinueSession,
	}

	if s.Command != "" {
		if s.Action != "" && s.Action != "shell" {
			return nil, fmt.Errorf("step %q: command shorthand conflicts with action %q", s.Name, s.Action)
		}
		step.Action = "shell"
		step.Arguments["command"] = literalExpr(cty.StringVal(s.Command))
	}

	if !s.Arguments.IsZero() {
		var raw map[string]any
		if err := s.Arguments.Decode(&raw); err != nil {
			return nil, fmt.Errorf("step %q: arguments must be a mapping: %w", s.Name, err)
		}
		for name, v := range raw {
			val, err := anyToCty(v)
			if err != nil {
				return nil, fmt.Errorf("step %q: argument %q: %w", s.Name, name, err)
			}
			step.Arguments[name] = literalExpr(val)
		}
	}

	if s.RunIf != "" {
		expr, err := parseExpr(s.RunIf, filename)
		if err != nil {
			return nil, fmt.Errorf("step %q: run_if: %w", s.Name, err)
		}
		step.RunIf = expr
	}

	return step, nil
}

func translatePublish(p *publishNode, filename string) (*config.Publish, error) {
	if p.When == "" {
		return nil, fmt.Errorf("publish requires a when expression")
	}
	when, err := parseExpr(p.When, filename)
	if err != nil {
		return nil, fmt.Errorf("publish when: %w", err)
	}
	pub := &config.Publish{
		When:  when,
		URL:   p.URL,
		Fatal: p.Fatal,
	}
	if p.Artifact != "" {
		artifact, err := parseTemplate(p.Artifact, filename)
		if err != nil {
			return nil, fmt.Errorf("publish artifact: %w", err)
		}
		pub.Artifact = artifact
	}
	return pub, nil
}

// parseExpr compiles an HCL expression string, as used for run_if and when
// conditions embedded in YAML.
func parseExpr(src, filename string) (hcl.Expression, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), filename, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid expression %q: %w", src, diags)
	}
	return expr, nil
}

// parseTemplate compiles a string that may interpolate matrix values, like
// "coverage-${matrix.os}.xml". Plain strings compile to constants.
func parseTemplate(src, filename string) (hcl.Expression, error) {
	expr, diags := hclsyntax.ParseTemplate([]byte(src), filename, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid template %q: %w", src, diags)
	}
	return expr, nil
}

// literalExpr wraps a literal YAML value as a constant HCL expression, so the
// engine's argument decoding is format-agnostic.
func literalExpr(val cty.Value) hcl.Expression {
	return hcl.StaticExpr(val, hcl.Range{})
}

// anyToCty converts decoded YAML scalars, sequences and mappings into cty
// values.
func anyToCty(v any) (cty.Value, error) {
	switch t := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case string:
		return cty.StringVal(t), nil
	case bool:
		return cty.BoolVal(t), nil
	case int:
		return cty.NumberIntVal(int64(t)), nil
	case int64:
		return cty.NumberIntVal(t), nil
	case float64:
		return cty.NumberFloatVal(t), nil
	case []any:
		if len(t) == 0 {
			return cty.EmptyTupleVal, nil
		}
		vals := make([]cty.Value, len(t))
		for i, elem := range t {
			val, err := anyToCty(elem)
			if err != nil {
				return cty.NilVal, err
			}
			vals[i] = val
		}
		return cty.TupleVal(vals), nil
	case map[string]any:
		attrs := make(map[string]cty.Value, len(t))
		for name, elem := range t {
			val, err := anyToCty(elem)
			if err != nil {
				return cty.NilVal, err
			}
			attrs[name] = val
		}
		return cty.ObjectVal(attrs), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported YAML value of type %T", v)
	}
}
