package reporter

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"osextract/internal/extract"
	"osextract/internal/state"
	"osextract/internal/watch"
)

func TestTextReporter_Stepf(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextReporter(&buf, false)

	r.Stepf("Building extraction image %s", "tag1")

	got := buf.String()
	if !strings.HasPrefix(got, "==> ") {
		t.Errorf("missing step prefix: %q", got)
	}
	if !strings.Contains(got, "tag1") {
		t.Errorf("missing formatted arg: %q", got)
	}
	if strings.Contains(got, "\033[") {
		t.Errorf("ANSI codes leaked with color off: %q", got)
	}
}

func TestTextReporter_ColorCodes(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextReporter(&buf, true)

	r.Donef("done")
	if !strings.Contains(buf.String(), colorGreen) {
		t.Errorf("expected green code: %q", buf.String())
	}
}

func TestTextReporter_PrintRuns(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextReporter(&buf, false)

	r.PrintRuns(nil)
	if !strings.Contains(buf.String(), "no recorded runs") {
		t.Errorf("empty case: %q", buf.String())
	}

	buf.Reset()
	r.PrintRuns([]state.Run{
		{ID: 3, Mode: state.ModeNative, Status: state.StatusCompleted, StartedAt: time.Now(), Docs: 42},
		{ID: 2, Mode: state.ModeContainer, Status: state.StatusFailed, StartedAt: time.Now(), Error: "run failed with exit code 137"},
	})
	out := buf.String()
	for _, want := range []string{"native", "container", "completed", "failed", "42", "exit code 137"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestTextReporter_PrintWatchStats(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextReporter(&buf, false)

	r.PrintWatchStats(&watch.Stats{
		Partitions: []watch.PartitionStats{{Account: "a1", Files: 2, Bytes: 2048}},
		Files:      2,
		Bytes:      2048,
	})
	out := buf.String()
	if !strings.Contains(out, "account_id=a1") {
		t.Errorf("missing partition line: %q", out)
	}
	if !strings.Contains(out, "2.0 KiB") {
		t.Errorf("missing human size: %q", out)
	}
}

func TestHumanBytes(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, c := range cases {
		if got := humanBytes(c.n); got != c.want {
			t.Errorf("humanBytes(%d) = %q, want %q", c.n, got, c.want)
		}
	}
}

func TestLiveModel_Progress(t *testing.T) {
	p := extract.Progress{Batches: 2, TotalDocs: 2000, Skipped: 3}
	m := NewLiveModel("tickets", func() extract.Progress { return p }, nil)

	next, _ := m.Update(tickMsg(time.Now()))
	m = next.(LiveModel)

	view := m.View()
	if !strings.Contains(view, "tickets") {
		t.Errorf("missing index in view:\n%s", view)
	}
	if !strings.Contains(view, "docs: 2000") || !strings.Contains(view, "skipped: 3") {
		t.Errorf("missing progress in view:\n%s", view)
	}
}

func TestLiveModel_Done(t *testing.T) {
	m := NewLiveModel("tickets", nil, nil)

	next, _ := m.Update(DoneMsg{Total: 99})
	m = next.(LiveModel)
	if !strings.Contains(m.View(), "extraction complete: 99 docs") {
		t.Errorf("view:\n%s", m.View())
	}

	next, _ = m.Update(DoneMsg{Err: errors.New("scroll: boom")})
	m = next.(LiveModel)
	if !strings.Contains(m.View(), "extraction failed") {
		t.Errorf("view:\n%s", m.View())
	}
}

func keyMsg(s string) tea.Msg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestLiveModel_CancelKey(t *testing.T) {
	cancelled := false
	m := NewLiveModel("tickets", nil, func() { cancelled = true })

	_, cmd := m.Update(keyMsg("q"))
	if !cancelled {
		t.Error("q should invoke cancel")
	}
	if cmd == nil {
		t.Error("q should quit the program")
	}
}
