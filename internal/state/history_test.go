package state

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "out", ".osextract", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_BeginComplete(t *testing.T) {
	s := openTestStore(t)

	id, err := s.Begin(ModeNative)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if id <= 0 {
		t.Fatalf("id = %d", id)
	}
	if err := s.Complete(id, 1234); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	runs, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("len(runs) = %d", len(runs))
	}
	r := runs[0]
	if r.Mode != ModeNative || r.Status != StatusCompleted || r.Docs != 1234 {
		t.Errorf("run = %+v", r)
	}
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		t.Errorf("timestamps not recorded: %+v", r)
	}
}

func TestStore_Fail(t *testing.T) {
	s := openTestStore(t)

	id, _ := s.Begin(ModeContainer)
	if err := s.Fail(id, "build failed with exit code 2"); err != nil {
		t.Fatalf("Fail: %v", err)
	}

	runs, _ := s.Recent(10)
	if runs[0].Status != StatusFailed {
		t.Errorf("status = %q", runs[0].Status)
	}
	if runs[0].Error != "build failed with exit code 2" {
		t.Errorf("error = %q", runs[0].Error)
	}
}

func TestStore_RecentOrderAndLimit(t *testing.T) {
	s := openTestStore(t)

	var last int64
	for i := 0; i < 5; i++ {
		id, err := s.Begin(ModeNative)
		if err != nil {
			t.Fatalf("Begin: %v", err)
		}
		_ = s.Complete(id, int64(i))
		last = id
	}

	runs, err := s.Recent(3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("len(runs) = %d, want 3", len(runs))
	}
	if runs[0].ID != last {
		t.Errorf("newest first expected, got id %d (last %d)", runs[0].ID, last)
	}
}

func TestStore_PersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id, _ := s1.Begin(ModeContainer)
	_ = s1.Complete(id, 7)
	_ = s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = s2.Close() }()

	runs, _ := s2.Recent(10)
	if len(runs) != 1 || runs[0].Docs != 7 {
		t.Errorf("runs after reopen = %+v", runs)
	}
}
