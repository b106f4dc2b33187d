package registry

import (
	"context"
	"fmt"
	"log/slog"
)

// ExecContext is the mutable per-job state an action may read and write. It
// is implemented by the engine's execution context; actions never see state
// belonging to another job.
type ExecContext interface {
	Setenv(key, value string)
	Getenv(key string) (string, bool)
	Environ() []string
	Chdir(path string)
	Workdir() string
}

// ActionFunc executes one step against the owning job's context. The input
// is the struct produced by the action's NewInput, populated from the step's
// arguments block. A non-nil error marks the step as failed.
type ActionFunc func(ctx context.Context, ec ExecContext, input any) error

// Action holds the compiled Go parts of one step action.
type Action struct {
	// NewInput returns a fresh pointer to the action's argument struct, or
	// nil for actions without arguments.
	NewInput func() any
	Fn       ActionFunc
}

// Module is the interface all action modules implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry maps action names to their handlers for a single application
// instance. Population happens once at startup; lookups afterwards are
// read-only, so no locking is needed.
type Registry struct {
	actions map[string]*Action
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{actions: make(map[string]*Action)}
}

// RegisterAction registers a handler under an action name. Registering the
// same name twice is a programmer error and panics.
func (r *Registry) RegisterAction(name string, action *Action) {
	if _, exists := r.actions[name]; exists {
		panic(fmt.Sprintf("action with name '%s' already registered", name))
	}
	slog.Debug("Registering action handler.", "name", name)
	r.actions[name] = action
}

// Lookup returns the handler for an action name.
func (r *Registry) Lookup(name string) (*Action, error) {
	action, ok := r.actions[name]
	if !ok {
		return nil, fmt.Errorf("unknown action '%s'", name)
	}
	return action, nil
}

// Names returns the registered action names, for startup logging.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	return names
}
