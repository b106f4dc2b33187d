// Package env provides the action that mutates the owning job's execution
// context: environment variables and working directory. Mutations are
// visible to subsequently executed steps of the same job only.
package env

import (
	"context"

	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the env action.
type Input struct {
	Set     map[string]string `hcl:"set,optional"`
	Workdir string            `hcl:"workdir,optional"`
}

// OnRunEnv applies the requested context mutations.
func OnRunEnv(ctx context.Context, ec registry.ExecContext, input any) error {
	in := input.(*Input)
	logger := ctxlog.FromContext(ctx)

	for k, v := range in.Set {
		logger.Debug("Setting environment variable.", "key", k)
		ec.Setenv(k, v)
	}
	if in.Workdir != "" {
		logger.Debug("Changing working directory.", "workdir", in.Workdir)
		ec.Chdir(in.Workdir)
	}
	return nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("env", &registry.Action{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunEnv,
	})
}
