package cli

import (
	"log/slog"

	"osextract/internal/state"
)

// openHistory opens the run history store under outputDir. Recording
// history is best-effort: failures are logged and the extraction
// proceeds without it.
func openHistory(outputDir string) *state.Store {
	store, err := state.Open(state.DefaultPath(outputDir))
	if err != nil {
		slog.Warn("run history unavailable", "error", err)
		return nil
	}
	return store
}
