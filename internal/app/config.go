package app

import "errors"

// Config holds everything an App instance needs to run. Defaults come from
// PIPEGRID_* environment variables (see internal/cli), overridden by flags.
type Config struct {
	// PipelinePath points at a pipeline file or a directory of declaration
	// files.
	PipelinePath string `env:"PIPELINE"`

	LogFormat  string `env:"LOG_FORMAT, default=json"`
	LogLevel   string `env:"LOG_LEVEL, default=info"`
	StatusPort int    `env:"STATUS_PORT, default=0"`
	Workers    int    `env:"WORKERS, default=4"`

	// FailFast cancels sibling jobs on the first job failure. The default
	// keeps matrix cells independent.
	FailFast bool `env:"FAIL_FAST, default=false"`
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.PipelinePath == "" {
		return nil, errors.New("PipelinePath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
