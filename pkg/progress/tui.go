package progress

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(lipgloss.Color("#FFFF00")).
			Bold(true).Padding(0, 1)

	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
)

type fileStartedMsg struct {
	name string
	size uint64
}

type bytesAdvancedMsg uint64

type fileFinishedMsg struct{}

// tuiModel renders one file's progress bar at a time using bubbles'
// progress component, the same way ui.go reaches for a bubbles widget
// rather than hand-rolling one.
type tuiModel struct {
	bar progress.Model

	name     string
	size     uint64
	received uint64
	done     bool
}

func newTuiModel() tuiModel {
	return tuiModel{bar: progress.New(progress.WithDefaultGradient())}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = msg.Width - 4
	case fileStartedMsg:
		m.name, m.size, m.received, m.done = msg.name, msg.size, 0, false
	case bytesAdvancedMsg:
		m.received += uint64(msg)
	case fileFinishedMsg:
		m.done = true
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.name == "" {
		return headerStyle.Render("nxdt-host") + "\nwaiting for a file...\n"
	}

	var frac float64
	if m.size > 0 {
		frac = float64(m.received) / float64(m.size)
	}

	status := "receiving"
	if m.done {
		status = "done"
	}

	return fmt.Sprintf(
		"%s\n%s\n%s %s\n%s\n",
		headerStyle.Render("nxdt-host"),
		m.name,
		m.bar.ViewAs(frac),
		status,
		footerStyle.Render(fmt.Sprintf("%d / %d bytes", m.received, m.size)),
	)
}

// BubbleTeaReporter drives a tuiModel through a running tea.Program.
type BubbleTeaReporter struct {
	program *tea.Program
}

// NewBubbleTeaReporter starts the TUI program in the background. Callers
// must call Close when done.
func NewBubbleTeaReporter() *BubbleTeaReporter {
	p := tea.NewProgram(newTuiModel())
	go func() {
		_, _ = p.Run()
	}()
	return &BubbleTeaReporter{program: p}
}

func (r *BubbleTeaReporter) StartFile(name string, size uint64) {
	r.program.Send(fileStartedMsg{name: name, size: size})
}

func (r *BubbleTeaReporter) Advance(n uint64) {
	r.program.Send(bytesAdvancedMsg(n))
}

func (r *BubbleTeaReporter) FinishFile() {
	r.program.Send(fileFinishedMsg{})
	// Give the program a tick to render the finished state before the
	// next StartFile (or Close) wipes it.
	time.Sleep(50 * time.Millisecond)
}

func (r *BubbleTeaReporter) Close() {
	r.program.Quit()
}
