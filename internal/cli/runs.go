package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"osextract/internal/config"
	"osextract/internal/reporter"
	"osextract/internal/state"
)

func newRunsCmd() *cobra.Command {
	var (
		outputDir string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded extraction runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSettings(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			envOv, err := config.ParseEnv()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("output-dir") {
				outputDir = config.ResolveOutputDir(envOv.OutputDir, cfg.OutputDir)
			}

			store, err := state.Open(state.DefaultPath(outputDir))
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.Recent(limit)
			if err != nil {
				return err
			}

			reporter.NewTextReporter(os.Stdout, isTerminal()).PrintRuns(runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&outputDir, "output-dir", config.DefaultOutputDir, "dataset root directory")
	cmd.Flags().IntVar(&limit, "limit", 20, "max runs to list")

	return cmd
}
