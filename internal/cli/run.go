package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"osextract/internal/config"
	"osextract/internal/engine"
	"osextract/internal/reporter"
	"osextract/internal/state"
)

const (
	// hostGatewayAlias resolves to the host's address inside the container,
	// so the containerized pipeline can reach OpenSearch on host loopback.
	hostGatewayAlias = "host.docker.internal"

	// containerOutputPath is where the extraction image writes its data.
	containerOutputPath = "/output"
)

func newRunCmd() *cobra.Command {
	var (
		contextDir  string
		outputDir   string
		interactive string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build the extraction image and run it against OpenSearch",
		Long:  "run builds the Logstash extraction image from the build context and runs it with the output directory bind-mounted, removing the container on exit. Any build or run failure aborts immediately with the engine's own exit status.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSettings(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			envOv, err := config.ParseEnv()
			if err != nil {
				return err
			}

			if contextDir == "" {
				contextDir, err = executableDir()
				if err != nil {
					return err
				}
			}
			if !cmd.Flags().Changed("output-dir") {
				outputDir = config.ResolveOutputDir(envOv.OutputDir, cfg.OutputDir)
			}

			tag := cfg.ImageTag
			if tag == "" {
				tag = config.DefaultImageTag
			}
			binary := cfg.Engine
			if binary == "" {
				binary = config.DefaultEngine
			}

			attached := resolveInteractive(interactive)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			rep := reporter.NewTextReporter(os.Stdout, isTerminal())
			eng := engine.NewExecEngine(binary)

			hist := openHistory(outputDir)
			var runID int64
			if hist != nil {
				defer func() { _ = hist.Close() }()
				runID, _ = hist.Begin(state.ModeContainer)
			}

			err = runPipeline(ctx, eng, rep, contextDir, outputDir, tag, attached)
			if hist != nil && runID > 0 {
				if err != nil {
					_ = hist.Fail(runID, err.Error())
				} else {
					_ = hist.Complete(runID, 0)
				}
			}
			return err
		},
	}

	cmd.Flags().StringVar(&contextDir, "context", "", "build context directory (defaults to the directory containing the osextract binary)")
	cmd.Flags().StringVar(&outputDir, "output-dir", config.DefaultOutputDir, "host directory mounted into the container for output")
	cmd.Flags().StringVar(&interactive, "interactive", "auto", "allocate an interactive TTY for the container: always, never, auto (detect TTY)")

	return cmd
}

// runPipeline is the build → run → report sequence. Strictly sequential,
// fail-fast: a build failure means the run is never attempted.
func runPipeline(ctx context.Context, eng engine.Engine, rep *reporter.TextReporter, contextDir, outputDir, tag string, attached bool) error {
	rep.Stepf("Building extraction image %s from %s", tag, contextDir)
	if err := eng.Build(ctx, contextDir, tag); err != nil {
		return fmt.Errorf("build image: %w", err)
	}

	rep.Infof("Container reaches OpenSearch at http://%s:9200", hostGatewayAlias)
	rep.Infof("Output directory: %s", outputDir)
	rep.Stepf("Running extraction container")

	opts := engine.RunOptions{
		Remove:      true,
		Interactive: attached,
		AddHosts:    []string{hostGatewayAlias + ":host-gateway"},
		Mounts:      []engine.Mount{{Host: outputDir, Container: containerOutputPath}},
	}
	if err := eng.Run(ctx, tag, opts); err != nil {
		return fmt.Errorf("run container: %w", err)
	}

	rep.Donef("Extraction complete. Data available under %s", filepath.Join(outputDir, "raw_data"))
	return nil
}

// executableDir resolves the directory containing the running binary,
// independent of the caller's working directory.
func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolve executable path: %w", err)
	}
	return filepath.Dir(resolved), nil
}

func resolveInteractive(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		return isTerminal()
	}
}
