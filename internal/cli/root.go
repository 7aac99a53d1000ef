package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version, Commit and BuildDate are set via LDFLAGS at build time.
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var (
	verbose    bool
	configFile string
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "osextract",
		Short: "OpenSearch dataset extraction toolkit",
		Long:  "osextract pulls raw documents out of an OpenSearch index into a partitioned on-disk dataset, either through a containerized Logstash pipeline or natively via the scroll API.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))

			// optional .env for OPENSEARCH_* / OUTPUT_DIR overrides
			_ = godotenv.Load()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&configFile, "config", ".osextract.yml", "path to config file")

	root.AddCommand(newRunCmd())
	root.AddCommand(newExtractCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newRunsCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// isTerminal checks if stdout is a terminal.
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
