package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"osextract/internal/config"
	"osextract/internal/reporter"
	"osextract/internal/watch"
)

func newWatchCmd() *cobra.Command {
	var (
		outputDir string
		poll      bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the output directory as extracted files land",
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

			rawDir := filepath.Join(outputDir, "raw_data")
			rep := reporter.NewTextReporter(os.Stdout, isTerminal())

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			w := watch.New(rawDir, poll, func(s *watch.Stats) {
				rep.PrintWatchStats(s)
			})

			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("watch %s: %w", rawDir, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outputDir, "output-dir", config.DefaultOutputDir, "dataset root directory")
	cmd.Flags().BoolVar(&poll, "poll", false, "poll instead of using filesystem notifications")

	return cmd
}
