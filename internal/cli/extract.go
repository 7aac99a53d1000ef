package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"osextract/internal/config"
	"osextract/internal/extract"
	"osextract/internal/reporter"
	"osextract/internal/state"
)

func newExtractCmd() *cobra.Command {
	var (
		outputDir   string
		index       string
		batchSize   int
		scroll      time.Duration
		maxFileSize int64
		tuiMode     string
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract an index natively via the scroll API",
		Long:  "extract scrolls every document out of an OpenSearch index and writes raw NDJSON partitions under <output-dir>/raw_data, one directory per account_id with size-based file rotation.",
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
			if !cmd.Flags().Changed("index") && cfg.Extract.Index != "" {
				index = cfg.Extract.Index
			}
			if !cmd.Flags().Changed("batch-size") && cfg.Extract.BatchSize > 0 {
				batchSize = cfg.Extract.BatchSize
			}
			if !cmd.Flags().Changed("scroll") && cfg.Extract.ScrollKeepAlive > 0 {
				scroll = cfg.Extract.ScrollKeepAlive
			}
			if !cmd.Flags().Changed("max-file-size") && cfg.Extract.MaxFileSize > 0 {
				maxFileSize = cfg.Extract.MaxFileSize
			}

			clientCfg := extract.ClientConfig{
				Addresses: config.ResolveAddresses(envOv.Addresses, cfg.OpenSearch.Addresses),
				Username:  firstNonEmpty(envOv.Username, cfg.OpenSearch.Username),
				Password:  firstNonEmpty(envOv.Password, cfg.OpenSearch.Password),
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			return runExtract(ctx, cancel, clientCfg, extractParams{
				outputDir:   outputDir,
				index:       index,
				batchSize:   batchSize,
				scroll:      scroll,
				maxFileSize: maxFileSize,
				tuiMode:     tuiMode,
			})
		},
	}

	cmd.Flags().StringVar(&outputDir, "output-dir", config.DefaultOutputDir, "dataset root directory")
	cmd.Flags().StringVar(&index, "index", config.DefaultIndex, "index to extract")
	cmd.Flags().IntVar(&batchSize, "batch-size", config.DefaultBatchSize, "documents per scroll batch")
	cmd.Flags().DurationVar(&scroll, "scroll", config.DefaultScrollKeepAlive, "scroll context keepalive")
	cmd.Flags().Int64Var(&maxFileSize, "max-file-size", config.DefaultMaxFileSize, "partition file size cap in bytes before rotation")
	cmd.Flags().StringVar(&tuiMode, "tui", "auto", "live display: on, off, auto (detect TTY)")

	return cmd
}

type extractParams struct {
	outputDir   string
	index       string
	batchSize   int
	scroll      time.Duration
	maxFileSize int64
	tuiMode     string
}

type extractResult struct {
	total int64
	err   error
}

func runExtract(ctx context.Context, cancel context.CancelFunc, clientCfg extract.ClientConfig, p extractParams) error {
	isTTY := isTerminal()
	rep := reporter.NewTextReporter(os.Stdout, isTTY)

	useTUI := p.tuiMode == "on" || (p.tuiMode == "auto" && isTTY)

	rep.Stepf("Connecting to %v", clientCfg.Addresses)
	client, err := extract.Connect(ctx, clientCfg)
	if err != nil {
		return err
	}

	rawDir := filepath.Join(p.outputDir, "raw_data")
	writer := extract.NewPartitionWriter(rawDir, p.maxFileSize)

	var (
		mu     sync.Mutex
		latest extract.Progress
	)
	onProgress := func(pr extract.Progress) {
		mu.Lock()
		latest = pr
		mu.Unlock()
		if !useTUI && !pr.Done {
			rep.PrintBatch(pr.Batches, pr.BatchDocs, pr.TotalDocs)
		}
	}

	ex := extract.New(client, writer, extract.Config{
		Index:           p.index,
		BatchSize:       p.batchSize,
		ScrollKeepAlive: p.scroll,
	}, onProgress)

	hist := openHistory(p.outputDir)
	var runID int64
	if hist != nil {
		defer func() { _ = hist.Close() }()
		runID, _ = hist.Begin(state.ModeNative)
	}

	rep.Stepf("Extracting %s into %s", p.index, rawDir)

	var res extractResult
	if useTUI {
		getProgress := func() extract.Progress {
			mu.Lock()
			defer mu.Unlock()
			return latest
		}
		model := reporter.NewLiveModel(p.index, getProgress, cancel)
		prog := tea.NewProgram(model)

		resCh := make(chan extractResult, 1)
		go func() {
			total, err := ex.Run(ctx)
			resCh <- extractResult{total: total, err: err}
			prog.Send(reporter.DoneMsg{Total: total, Err: err})
		}()

		if _, err := prog.Run(); err != nil {
			slog.Warn("live display error", "error", err)
		}
		res = <-resCh
	} else {
		res.total, res.err = ex.Run(ctx)
	}

	if cerr := writer.Close(); cerr != nil && res.err == nil {
		res.err = cerr
	}

	if hist != nil && runID > 0 {
		if res.err != nil {
			_ = hist.Fail(runID, res.err.Error())
		} else {
			_ = hist.Complete(runID, res.total)
		}
	}

	if res.err != nil {
		return fmt.Errorf("extract %s: %w", p.index, res.err)
	}

	rep.Donef("Extraction complete. Total documents: %d", res.total)
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
