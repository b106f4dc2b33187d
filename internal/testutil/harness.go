package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/pipegrid/internal/app"
	"github.com/vk/pipegrid/internal/config"
	"github.com/vk/pipegrid/internal/hclcfg"
	"github.com/vk/pipegrid/internal/registry"
	"github.com/vk/pipegrid/internal/yamlcfg"
)

// HarnessResult holds the outcomes of a system test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
}

// RunPipelineTest provides a standardized harness for system tests: it
// writes the pipeline declaration to a temp dir, builds an App around the
// given action modules, runs it to completion and captures logs and errors.
// Startup panics (configuration errors) are recovered into Err so tests can
// assert on them.
func RunPipelineTest(t *testing.T, filename, content string, cfg *app.Config, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunPipelineTestWithContext(context.Background(), t, filename, content, cfg, modules...)
}

// RunPipelineTestWithContext is RunPipelineTest with a caller-provided
// context, for cancellation tests.
func RunPipelineTestWithContext(ctx context.Context, t *testing.T, filename, content string, cfg *app.Config, modules ...registry.Module) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	pipelinePath := filepath.Join(tmpDir, filename)
	require.NoError(t, os.WriteFile(pipelinePath, []byte(content), 0o600))

	if cfg == nil {
		cfg = &app.Config{}
	}
	cfg.PipelinePath = pipelinePath
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.Workers == 0 {
		cfg.Workers = 4
	}

	logBuffer := &SafeBuffer{}

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp = app.New(logBuffer, cfg, loaderFor(pipelinePath), modules...)
	}()

	if panicErr != nil {
		return &HarnessResult{
			LogOutput: logBuffer.String(),
			Err:       fmt.Errorf("application startup panicked | %v", panicErr),
		}
	}

	runErr := testApp.Run(ctx, cfg)

	if os.Getenv("PIPEGRID_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		App:       testApp,
	}
}

func loaderFor(path string) config.Loader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return yamlcfg.NewLoader()
	default:
		return hclcfg.NewLoader()
	}
}
