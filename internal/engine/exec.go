package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
)

// ExecEngine drives a Docker-CLI-compatible binary via os/exec.
// Stdout/stderr of the child are attached to the engine's writers so the
// tool's native output reaches the user unchanged.
type ExecEngine struct {
	Binary string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecEngine creates an engine around the given binary ("docker",
// "podman", ...), attached to the current process's stdio.
func NewExecEngine(binary string) *ExecEngine {
	if binary == "" {
		binary = "docker"
	}
	return &ExecEngine{
		Binary: binary,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Build runs `<binary> build -t <tag> <contextDir>`.
func (e *ExecEngine) Build(ctx context.Context, contextDir, tag string) error {
	return e.invoke(ctx, "build", buildArgs(contextDir, tag), false)
}

// Run runs `<binary> run [opts...] <tag>` and blocks until the container exits.
func (e *ExecEngine) Run(ctx context.Context, tag string, opts RunOptions) error {
	return e.invoke(ctx, "run", runArgs(tag, opts), opts.Interactive)
}

func (e *ExecEngine) invoke(ctx context.Context, step string, args []string, stdin bool) error {
	slog.Debug("invoking container engine", "binary", e.Binary, "args", args)

	cmd := exec.CommandContext(ctx, e.Binary, args...)
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr
	if stdin {
		cmd.Stdin = e.Stdin
	}

	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Step: step, Code: exitErr.ExitCode(), Err: err}
	}
	return fmt.Errorf("%s %s: %w", e.Binary, step, err)
}

// buildArgs assembles the argument list for an image build.
func buildArgs(contextDir, tag string) []string {
	return []string{"build", "-t", tag, contextDir}
}

// runArgs assembles the argument list for a container run. The image tag
// always comes last.
func runArgs(tag string, opts RunOptions) []string {
	args := []string{"run"}
	if opts.Remove {
		args = append(args, "--rm")
	}
	if opts.Interactive {
		args = append(args, "-it")
	}
	for _, h := range opts.AddHosts {
		args = append(args, "--add-host", h)
	}
	for _, m := range opts.Mounts {
		args = append(args, "-v", m.Host+":"+m.Container)
	}
	return append(args, tag)
}
