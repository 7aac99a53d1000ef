package engine

import (
	"context"
	"fmt"
)

// Engine abstracts a container engine able to build images and run
// containers. Implementations: ExecEngine (docker/podman CLI).
type Engine interface {
	// Build creates an image from contextDir and tags it.
	Build(ctx context.Context, contextDir, tag string) error
	// Run starts a container from the tagged image and blocks until exit.
	Run(ctx context.Context, tag string, opts RunOptions) error
}

// Mount maps a host directory into the container filesystem.
type Mount struct {
	Host      string
	Container string
}

// RunOptions collects the flags passed to the engine's run operation.
type RunOptions struct {
	Remove      bool     // remove the container on exit
	Interactive bool     // allocate an interactive TTY
	AddHosts    []string // host:address pairs, e.g. "host.docker.internal:host-gateway"
	Mounts      []Mount
}

// ExitError reports a non-zero exit from an engine invocation. The exit
// code is propagated so the caller's own process can surface it.
type ExitError struct {
	Step string // "build" or "run"
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s failed with exit code %d", e.Step, e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }
