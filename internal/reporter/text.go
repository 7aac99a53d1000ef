package reporter

import (
	"fmt"
	"io"
	"os"
	"time"

	"osextract/internal/state"
	"osextract/internal/watch"
)

const (
	colorReset = "\033[0m"
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorDim   = "\033[2m"
)

// TextReporter writes human-readable output to a writer.
type TextReporter struct {
	w     io.Writer
	color bool
}

// NewTextReporter creates a text reporter.
// If w is nil, defaults to os.Stdout.
// color enables ANSI codes.
func NewTextReporter(w io.Writer, color bool) *TextReporter {
	if w == nil {
		w = os.Stdout
	}
	return &TextReporter{w: w, color: color}
}

func (r *TextReporter) c(code string) string {
	if !r.color {
		return ""
	}
	return code
}

// Stepf announces the next pipeline step.
func (r *TextReporter) Stepf(format string, args ...any) {
	fmt.Fprintf(r.w, "%s==>%s %s\n", r.c(colorCyan), r.c(colorReset), fmt.Sprintf(format, args...))
}

// Infof prints an informational line.
func (r *TextReporter) Infof(format string, args ...any) {
	fmt.Fprintf(r.w, "    %s\n", fmt.Sprintf(format, args...))
}

// Donef prints a success line.
func (r *TextReporter) Donef(format string, args ...any) {
	fmt.Fprintf(r.w, "%s✓%s %s\n", r.c(colorGreen), r.c(colorReset), fmt.Sprintf(format, args...))
}

// PrintBatch prints one extraction progress line.
func (r *TextReporter) PrintBatch(batch, docs int, total int64) {
	fmt.Fprintf(r.w, "  batch %d: %d docs (%d total)\n", batch, docs, total)
}

// PrintWatchStats renders an aggregate view of the output tree.
func (r *TextReporter) PrintWatchStats(s *watch.Stats) {
	fmt.Fprintf(r.w, "%s%s%s  %d files, %s\n",
		r.c(colorDim), time.Now().Format("15:04:05"), r.c(colorReset),
		s.Files, humanBytes(s.Bytes))
	for _, p := range s.Partitions {
		fmt.Fprintf(r.w, "  account_id=%s: %d files, %s\n", p.Account, p.Files, humanBytes(p.Bytes))
	}
}

// PrintRuns renders recorded run history, newest first.
func (r *TextReporter) PrintRuns(runs []state.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(r.w, "no recorded runs")
		return
	}

	fmt.Fprintf(r.w, "%-4s %-10s %-11s %-20s %-10s %s\n", "ID", "MODE", "STATUS", "STARTED", "DOCS", "ERROR")
	for _, run := range runs {
		status := run.Status
		switch status {
		case state.StatusCompleted:
			status = r.c(colorGreen) + status + r.c(colorReset)
		case state.StatusFailed:
			status = r.c(colorRed) + status + r.c(colorReset)
		}
		fmt.Fprintf(r.w, "%-4d %-10s %-11s %-20s %-10d %s\n",
			run.ID, run.Mode, status,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Docs, run.Error)
	}
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
