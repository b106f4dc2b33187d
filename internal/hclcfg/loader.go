// Package hclcfg is the HCL implementation of config.Loader. HCL is the
// primary declaration format: run conditions, publication predicates and
// step arguments are native expressions evaluated later against each job's
// variables.
package hclcfg

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/pipegrid/internal/config"
	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses one pipeline declaration from a .hcl file, or from a directory
// searched recursively for .hcl files. Exactly one pipeline block must exist
// across all discovered files.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path", path)

	files, err := l.discover(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files found at %s", path)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	var pipelines []*pipelineBlock
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		var r root
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &r); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}
		pipelines = append(pipelines, r.Pipelines...)
	}

	if len(pipelines) != 1 {
		return nil, fmt.Errorf("expected exactly one pipeline block, found %d", len(pipelines))
	}

	model, err := l.translatePipeline(pipelines[0])
	if err != nil {
		return nil, err
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("HCL loading complete.", "pipeline", model.Pipeline.Name, "steps", len(model.Pipeline.Steps))
	return model, nil
}

// discover resolves the path to the list of .hcl files to parse.
func (l *Loader) discover(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	return fsutil.FindFilesByExtension(path, ".hcl")
}

// extractBodyAttributes flattens an arguments block into the expression map
// carried by the model. Arguments blocks hold only attributes.
func extractBodyAttributes(body hcl.Body) (map[string]hcl.Expression, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("arguments block must contain only attributes: %w", diags)
	}
	out := make(map[string]hcl.Expression, len(attrs))
	for name, attr := range attrs {
		out[name] = attr.Expr
	}
	return out, nil
}
