package reporter

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"osextract/internal/extract"
)

var spinnerChars = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	runStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14")) // cyan
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

type tickMsg time.Time

// DoneMsg ends the live display. Sent by the caller when extraction
// finishes.
type DoneMsg struct {
	Total int64
	Err   error
}

// LiveModel is the Bubbletea model for live extraction progress.
type LiveModel struct {
	index       string
	getProgress func() extract.Progress
	cancelRun   func() // called on 'q' to cancel the extraction context

	progress extract.Progress
	start    time.Time
	frame    int
	done     bool
	err      error
	total    int64
}

// NewLiveModel creates a live progress model. getProgress is polled on
// every tick and must be safe for concurrent use.
func NewLiveModel(index string, getProgress func() extract.Progress, cancelRun func()) LiveModel {
	return LiveModel{
		index:       index,
		getProgress: getProgress,
		cancelRun:   cancelRun,
		start:       time.Now(),
	}
}

// Init implements tea.Model.
func (m LiveModel) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.cancelRun != nil {
				m.cancelRun()
			}
			return m, tea.Quit
		}

	case tickMsg:
		m.frame++
		if m.getProgress != nil {
			m.progress = m.getProgress()
		}
		return m, tickCmd()

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		m.total = msg.Total
		return m, tea.Quit
	}

	return m, nil
}

// View implements tea.Model.
func (m LiveModel) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("osextract — extracting %s", m.index)))
	b.WriteString("\n\n")

	elapsed := time.Since(m.start).Round(time.Second)

	switch {
	case m.done && m.err != nil:
		b.WriteString(failStyle.Render(fmt.Sprintf("✗ extraction failed: %v", m.err)))
		b.WriteString("\n")
	case m.done:
		b.WriteString(doneStyle.Render(fmt.Sprintf("✓ extraction complete: %d docs in %s", m.total, elapsed)))
		b.WriteString("\n")
	default:
		spinner := spinnerChars[m.frame%len(spinnerChars)]
		b.WriteString(runStyle.Render(fmt.Sprintf("%s scrolling", spinner)))
		b.WriteString("\n")
	}

	p := m.progress
	b.WriteString(dimStyle.Render(fmt.Sprintf("  batches: %d   docs: %d   skipped: %d   elapsed: %s",
		p.Batches, p.TotalDocs, p.Skipped, elapsed)))
	b.WriteString("\n")

	if !m.done {
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("q: cancel"))
		b.WriteString("\n")
	}

	return b.String()
}
