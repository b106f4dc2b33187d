package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sethvargo/go-envconfig"

	"github.com/vk/pipegrid/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes environment defaults and command-line arguments. It
// returns a populated app.Config, a boolean indicating if the program should
// exit cleanly, or an ExitError.
func Parse(ctx context.Context, args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	// Environment variables seed the defaults; flags override them.
	var defaults app.Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &defaults,
		Lookuper: envconfig.PrefixLookuper("PIPEGRID_", envconfig.OsLookuper()),
	}); err != nil {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("invalid environment configuration: %v", err)}
	}

	flagSet := flag.NewFlagSet("pipegrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
pipegrid - a declarative matrix pipeline engine.

Usage:
  pipegrid [options] [PIPELINE_PATH]

Arguments:
  PIPELINE_PATH
    Path to a pipeline file (.hcl, .yml, .yaml) or a directory containing
    declaration files.

Options:
`)
		flagSet.PrintDefaults()
	}

	pipelineFlag := flagSet.String("pipeline", defaults.PipelinePath, "Path to the pipeline file or directory.")
	pFlag := flagSet.String("p", "", "Path to the pipeline file or directory (shorthand).")
	statusPortFlag := flagSet.Int("status-port", defaults.StatusPort, "Port for the HTTP status server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", defaults.LogFormat, "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", defaults.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", defaults.Workers, "Number of concurrent workers for the engine.")
	failFastFlag := flagSet.Bool("fail-fast", defaults.FailFast, "Cancel all remaining jobs when the first job fails.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := *pipelineFlag
	if *pFlag != "" {
		path = *pFlag
	}
	if path == "" && flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Pipeline path determined.", "path", path)

	if path == "" {
		slog.Debug("No pipeline path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		PipelinePath: path,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
		StatusPort:   *statusPortFlag,
		Workers:      *workersFlag,
		FailFast:     *failFastFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
