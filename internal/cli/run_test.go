package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"osextract/internal/engine"
	"osextract/internal/reporter"
)

// fakeEngine records invocations and returns scripted errors.
type fakeEngine struct {
	buildErr error
	runErr   error

	buildCalls int
	runCalls   int

	contextDir string
	buildTag   string
	runTag     string
	runOpts    engine.RunOptions
}

func (f *fakeEngine) Build(ctx context.Context, contextDir, tag string) error {
	f.buildCalls++
	f.contextDir = contextDir
	f.buildTag = tag
	return f.buildErr
}

func (f *fakeEngine) Run(ctx context.Context, tag string, opts engine.RunOptions) error {
	f.runCalls++
	f.runTag = tag
	f.runOpts = opts
	return f.runErr
}

func runTestPipeline(t *testing.T, eng *fakeEngine, outputDir string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rep := reporter.NewTextReporter(&out, false)
	err := runPipeline(context.Background(), eng, rep, "/build/ctx", outputDir, "osextract-logstash", false)
	return out.String(), err
}

func TestRunPipeline_Success(t *testing.T) {
	eng := &fakeEngine{}

	out, err := runTestPipeline(t, eng, "/data/out")
	if err != nil {
		t.Fatalf("runPipeline: %v", err)
	}

	if eng.buildCalls != 1 || eng.runCalls != 1 {
		t.Errorf("calls = build %d, run %d", eng.buildCalls, eng.runCalls)
	}
	if eng.contextDir != "/build/ctx" {
		t.Errorf("contextDir = %q", eng.contextDir)
	}
	if eng.buildTag != "osextract-logstash" || eng.runTag != "osextract-logstash" {
		t.Errorf("tags = %q / %q", eng.buildTag, eng.runTag)
	}
	if !strings.Contains(out, "/data/out/raw_data") {
		t.Errorf("completion message missing output path, got:\n%s", out)
	}
}

func TestRunPipeline_RunOptions(t *testing.T) {
	eng := &fakeEngine{}

	if _, err := runTestPipeline(t, eng, "/data/out"); err != nil {
		t.Fatalf("runPipeline: %v", err)
	}

	opts := eng.runOpts
	if !opts.Remove {
		t.Error("container must be removed on exit")
	}
	if len(opts.AddHosts) != 1 || opts.AddHosts[0] != "host.docker.internal:host-gateway" {
		t.Errorf("AddHosts = %v", opts.AddHosts)
	}
	if len(opts.Mounts) != 1 || opts.Mounts[0].Host != "/data/out" || opts.Mounts[0].Container != "/output" {
		t.Errorf("Mounts = %v", opts.Mounts)
	}
}

func TestRunPipeline_BuildFailureSkipsRun(t *testing.T) {
	buildErr := &engine.ExitError{Step: "build", Code: 2}
	eng := &fakeEngine{buildErr: buildErr}

	out, err := runTestPipeline(t, eng, "/data/out")
	if err == nil {
		t.Fatal("expected error")
	}
	if eng.runCalls != 0 {
		t.Errorf("run must never be invoked after a build failure, got %d calls", eng.runCalls)
	}

	var exitErr *engine.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 2 {
		t.Errorf("exit code not propagated: %v", err)
	}
	if strings.Contains(out, "Extraction complete") {
		t.Errorf("unexpected completion message:\n%s", out)
	}
}

func TestRunPipeline_RunFailureNoCompletion(t *testing.T) {
	eng := &fakeEngine{runErr: &engine.ExitError{Step: "run", Code: 137}}

	out, err := runTestPipeline(t, eng, "/data/out")
	if err == nil {
		t.Fatal("expected error")
	}

	var exitErr *engine.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 137 {
		t.Errorf("exit code not propagated: %v", err)
	}
	if strings.Contains(out, "raw_data") {
		t.Errorf("completion message must not be emitted on run failure:\n%s", out)
	}
}

func TestExecutableDir(t *testing.T) {
	dir, err := executableDir()
	if err != nil {
		t.Fatalf("executableDir: %v", err)
	}
	if dir == "" || dir == "." {
		t.Errorf("executableDir = %q", dir)
	}
}

func TestResolveInteractive(t *testing.T) {
	if !resolveInteractive("always") {
		t.Error("always should force interactive")
	}
	if resolveInteractive("never") {
		t.Error("never should disable interactive")
	}
	// auto under `go test` has no TTY on stdout
	if resolveInteractive("auto") {
		t.Error("auto without a TTY should not be interactive")
	}
}
