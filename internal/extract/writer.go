package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PartitionWriter appends NDJSON documents under
// <root>/account_id=<id>/<id>-data-<unix_ts>.json, rotating the active
// file once it reaches maxSize bytes.
type PartitionWriter struct {
	root    string
	maxSize int64
	now     func() time.Time
	active  map[string]*partitionFile
}

type partitionFile struct {
	f    *os.File
	size int64
}

// NewPartitionWriter creates a writer rooted at dir.
func NewPartitionWriter(dir string, maxSize int64) *PartitionWriter {
	return &PartitionWriter{
		root:    dir,
		maxSize: maxSize,
		now:     time.Now,
		active:  make(map[string]*partitionFile),
	}
}

// Append writes one document as a single JSON line into the account's
// active partition file, rotating first if the file is full.
func (w *PartitionWriter) Append(accountID string, doc []byte) error {
	pf, err := w.activeFile(accountID)
	if err != nil {
		return err
	}

	n, err := pf.f.Write(append(doc, '\n'))
	pf.size += int64(n)
	if err != nil {
		return fmt.Errorf("write partition %s: %w", accountID, err)
	}
	return nil
}

func (w *PartitionWriter) activeFile(accountID string) (*partitionFile, error) {
	if pf, ok := w.active[accountID]; ok {
		if pf.size < w.maxSize {
			return pf, nil
		}
		_ = pf.f.Close()
		delete(w.active, accountID)
	}

	dir := filepath.Join(w.root, "account_id="+accountID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create partition dir: %w", err)
	}

	path, size, err := w.pickFile(dir, accountID)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open partition file: %w", err)
	}

	pf := &partitionFile{f: f, size: size}
	w.active[accountID] = pf
	return pf, nil
}

// pickFile resumes the newest partition file if it still has room,
// otherwise names a fresh one. Timestamps are bumped until the name is
// unused so rapid rotation within one second cannot reuse a full file.
func (w *PartitionWriter) pickFile(dir, accountID string) (string, int64, error) {
	pattern := filepath.Join(dir, accountID+"-data-*.json")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", 0, fmt.Errorf("scan partition dir: %w", err)
	}

	if len(matches) > 0 {
		latest := matches[len(matches)-1]
		if info, err := os.Stat(latest); err == nil && info.Size() < w.maxSize {
			return latest, info.Size(), nil
		}
	}

	ts := w.now().Unix()
	for {
		path := filepath.Join(dir, fmt.Sprintf("%s-data-%d.json", accountID, ts))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, 0, nil
		}
		ts++
	}
}

// Close flushes and closes all active partition files.
func (w *PartitionWriter) Close() error {
	var firstErr error
	for id, pf := range w.active {
		if err := pf.f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close partition %s: %w", id, err)
		}
		delete(w.active, id)
	}
	return firstErr
}
