// Package shell provides the action that runs a command in a shell against
// the owning job's environment and working directory. This is the workhorse
// action: dependency installs, native builds and test invocations are all
// opaque shell commands to the engine.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the shell action.
type Input struct {
	Command string `hcl:"command"`
	Shell   string `hcl:"shell,optional"`
}

// tailLines bounds how much command output travels in a failure diagnostic.
const tailLines = 20

// OnRunShell executes the command with the job context's environment and
// working directory. The engine imposes no timeout of its own: a hanging
// command is bounded only by the run context's cancellation.
func OnRunShell(ctx context.Context, ec registry.ExecContext, input any) error {
	in := input.(*Input)
	logger := ctxlog.FromContext(ctx)

	sh := in.Shell
	if sh == "" {
		sh = "sh"
	}

	cmd := exec.CommandContext(ctx, sh, "-c", in.Command)
	cmd.Dir = ec.Workdir()
	cmd.Env = mergedEnv(ec)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	logger.Info("Running command.", "command", in.Command)
	err := cmd.Run()
	if out.Len() > 0 {
		logger.Debug("Command output.", "output", out.String())
	}
	if err != nil {
		return fmt.Errorf("command %q failed: %w\n%s", in.Command, err, tail(out.String()))
	}
	return nil
}

// mergedEnv overlays the job's variables on the ambient process environment.
// Commands still need PATH, HOME and the rest of the inherited environment;
// job state wins on conflict.
func mergedEnv(ec registry.ExecContext) []string {
	overlay := ec.Environ()
	shadowed := make(map[string]bool, len(overlay))
	for _, kv := range overlay {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			shadowed[kv[:i]] = true
		}
	}
	env := make([]string, 0, len(overlay))
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 && shadowed[kv[:i]] {
			continue
		}
		env = append(env, kv)
	}
	return append(env, overlay...)
}

// tail returns the last lines of command output for the failure diagnostic.
func tail(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > tailLines {
		lines = lines[len(lines)-tailLines:]
	}
	return strings.Join(lines, "\n")
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("shell", &registry.Action{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunShell,
	})
}
