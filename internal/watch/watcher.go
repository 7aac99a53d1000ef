package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDefault is the debounce interval for file events.
const debounceDefault = 200 * time.Millisecond

// pollDefault is the polling interval when fsnotify is unavailable.
const pollDefault = 5 * time.Second

// PartitionStats aggregates one account partition directory.
type PartitionStats struct {
	Account string
	Files   int
	Bytes   int64
}

// Stats is a point-in-time view of the raw_data tree.
type Stats struct {
	Partitions []PartitionStats
	Files      int
	Bytes      int64
}

// Scan walks root and aggregates per-partition file counts and sizes.
// A missing root yields empty stats, not an error: the watcher can start
// before the extraction creates the directory.
func Scan(root string) (*Stats, error) {
	stats := &Stats{}

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return nil, err
	}

	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), "account_id=") {
			continue
		}
		ps := PartitionStats{Account: strings.TrimPrefix(e.Name(), "account_id=")}

		files, err := os.ReadDir(filepath.Join(root, e.Name()))
		if err != nil {
			continue
		}
		for _, f := range files {
			info, err := f.Info()
			if err != nil || info.IsDir() {
				continue
			}
			ps.Files++
			ps.Bytes += info.Size()
		}

		stats.Partitions = append(stats.Partitions, ps)
		stats.Files += ps.Files
		stats.Bytes += ps.Bytes
	}

	sort.Slice(stats.Partitions, func(i, j int) bool {
		return stats.Partitions[i].Account < stats.Partitions[j].Account
	})
	return stats, nil
}

// Watcher observes a raw_data directory and reports aggregate stats
// whenever files land. Partition subdirectories are added to the watch
// set as they appear.
type Watcher struct {
	root     string
	poll     bool
	interval time.Duration
	onChange func(*Stats)
}

// New creates a watcher over root. onChange is called with fresh stats
// after every (debounced) change.
func New(root string, poll bool, onChange func(*Stats)) *Watcher {
	return &Watcher{
		root:     root,
		poll:     poll,
		interval: pollDefault,
		onChange: onChange,
	}
}

// Run blocks until ctx is cancelled, emitting stats on changes. An
// initial snapshot is emitted before watching begins.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.emit(); err != nil {
		return err
	}

	if w.poll {
		return w.runPoll(ctx)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("fsnotify unavailable, falling back to polling", "error", err)
		return w.runPoll(ctx)
	}
	defer func() { _ = fw.Close() }()

	if err := w.addWatches(fw); err != nil {
		return err
	}

	var (
		debounce  *time.Timer
		debounceC <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = fw.Add(ev.Name)
				}
			}
			if debounce == nil {
				debounce = time.NewTimer(debounceDefault)
			} else {
				debounce.Reset(debounceDefault)
			}
			debounceC = debounce.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "error", err)

		case <-debounceC:
			debounceC = nil
			if err := w.emit(); err != nil {
				return err
			}
		}
	}
}

func (w *Watcher) runPoll(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.emit(); err != nil {
				return err
			}
		}
	}
}

// addWatches registers the root and any existing partition directories.
// The root may not exist yet; watch its parent so creation is seen.
func (w *Watcher) addWatches(fw *fsnotify.Watcher) error {
	if _, err := os.Stat(w.root); os.IsNotExist(err) {
		return fw.Add(filepath.Dir(w.root))
	}
	if err := fw.Add(w.root); err != nil {
		return err
	}
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			_ = fw.Add(filepath.Join(w.root, e.Name()))
		}
	}
	return nil
}

func (w *Watcher) emit() error {
	stats, err := Scan(w.root)
	if err != nil {
		return err
	}
	if w.onChange != nil {
		w.onChange(stats)
	}
	return nil
}
