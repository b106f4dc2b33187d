// Package print provides a diagnostic action that logs a message, useful for
// tracing matrix values through a pipeline without running real commands.
package print

import (
	"context"

	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the print action.
type Input struct {
	Message string `hcl:"message"`
}

// OnRunPrint logs the message through the job's logger.
func OnRunPrint(ctx context.Context, ec registry.ExecContext, input any) error {
	in := input.(*Input)
	ctxlog.FromContext(ctx).Info(in.Message)
	return nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("print", &registry.Action{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunPrint,
	})
}
