package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/pipegrid/internal/config"
	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/registry"
)

// App encapsulates the application's dependencies, configuration and
// lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	model    *config.Model
}

// New is the constructor for the main application. It loads and validates
// the pipeline declaration and registers all action modules. Configuration
// failures here are fatal before any job starts, so they panic; the
// entrypoint recovers them into a clean operator message.
func New(outW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, cfg.PipelinePath)
	if err != nil {
		panic(fmt.Errorf("failed to load pipeline declaration: %w", err))
	}
	logger.Debug("Pipeline declaration loaded into unified model.", "pipeline", model.Pipeline.Name)

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All action modules registered.", "count", len(modules), "actions", reg.Names())

	// Every declared step must resolve to a registered action. A mismatch is
	// a configuration error and aborts before any side-effecting action runs.
	for _, step := range model.Pipeline.Steps {
		if _, err := reg.Lookup(step.Action); err != nil {
			panic(fmt.Errorf("step '%s': %w", step.Name, err))
		}
	}
	logger.Debug("Step action validation passed.")

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		model:    model,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Model returns the loaded pipeline model. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}
