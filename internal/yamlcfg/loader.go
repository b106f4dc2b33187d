// Package yamlcfg is the YAML implementation of config.Loader, for workflow
// files in the shape popularized by forge CI runners: a flat document with
// steps, an environment map and an optional matrix. Conditional expressions
// (`run_if`, `when`) are HCL expression strings; argument values are YAML
// literals. Both normalize into the same format-agnostic model as the HCL
// loader, so the engine never knows which format a pipeline came from.
package yamlcfg

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vk/pipegrid/internal/config"
	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/fsutil"
)

// Loader is the YAML-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new YAML configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// workflowFile mirrors the YAML document structure. The matrix keeps its raw
// node so axis declaration order survives (a decoded Go map would lose it).
type workflowFile struct {
	Name        string            `yaml:"name"`
	Workdir     string            `yaml:"workdir"`
	Environment map[string]string `yaml:"environment"`
	Matrix      yaml.Node         `yaml:"matrix"`
	Steps       []stepNode        `yaml:"steps"`
	Publish     *publishNode      `yaml:"publish"`
}

type stepNode struct {
	Name            string    `yaml:"name"`
	Action          string    `yaml:"action"`
	RunIf           string    `yaml:"run_if"`
	ContinueSession bool      `yaml:"continue_session"`
	Arguments       yaml.Node `yaml:"arguments"`

	// Command is shorthand for a shell step: `command: make test` is
	// equivalent to action "shell" with a command argument.
	Command string `yaml:"command"`
}

type publishNode struct {
	When     string `yaml:"when"`
	Artifact string `yaml:"artifact"`
	URL      string `yaml:"url"`
	Fatal    *bool  `yaml:"fatal"`
}

// Load parses one workflow declaration from a .yml/.yaml file, or from a
// directory searched recursively. Exactly one workflow file must exist.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "path", path)

	files, err := l.discover(path)
	if err != nil {
		return nil, err
	}
	if len(files) != 1 {
		return nil, fmt.Errorf("expected exactly one workflow file at %s, found %d", path, len(files))
	}

	data, err := os.ReadFile(files[0])
	if err != nil {
		return nil, fmt.Errorf("reading workflow file %s: %w", files[0], err)
	}

	var wf workflowFile
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parsing workflow file %s: %w", files[0], err)
	}

	model, err := l.translateWorkflow(&wf, files[0])
	if err != nil {
		return nil, fmt.Errorf("workflow file %s: %w", files[0], err)
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("YAML loading complete.", "pipeline", model.Pipeline.Name, "steps", len(model.Pipeline.Steps))
	return model, nil
}

func (l *Loader) discover(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	ymls, err := fsutil.FindFilesByExtension(path, ".yml")
	if err != nil {
		return nil, err
	}
	yamls, err := fsutil.FindFilesByExtension(path, ".yaml")
	if err != nil {
		return nil, err
	}
	return append(ymls, yamls...), nil
}
