package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"mdref/internal/driver"
)

// maxVisible bounds the request list; the rest is summarized.
const maxVisible = 20

type progressModel struct {
	title   string
	events  <-chan driver.Event
	spinner spinner.Model
	prog    progress.Model
	items   []requestItem
	index   map[string][]int
	width   int
	done    bool
}

type requestItem struct {
	label  string
	status driver.Status
}

type eventMsg driver.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders batch progress
// for the given request labels. It quits when events is closed.
func NewProgressModel(title string, labels []string, events <-chan driver.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]requestItem, 0, len(labels))
	index := make(map[string][]int, len(labels))
	for i, label := range labels {
		items = append(items, requestItem{label: label, status: driver.StatusQueued})
		index[label] = append(index[label], i)
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(driver.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	finished := m.finished()
	header := fmt.Sprintf("%s (%d/%d)", m.title, finished, len(m.items))
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	statusWidth := 10
	nameWidth := max(m.width-statusWidth-4, 20)
	for _, item := range m.visible() {
		status := styleStatus(item.status).Render(fmt.Sprintf("%10s", statusLabel(item.status)))
		b.WriteString(fmt.Sprintf("  %s %s\n", status, truncate(item.label, nameWidth)))
	}
	if hidden := len(m.items) - maxVisible; hidden > 0 {
		b.WriteString(fmt.Sprintf("  %10s %d more\n", "", hidden))
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

// visible keeps in-flight and failed requests on screen ahead of the rest.
func (m *progressModel) visible() []requestItem {
	if len(m.items) <= maxVisible {
		return m.items
	}
	out := make([]requestItem, 0, maxVisible)
	for _, pass := range []func(driver.Status) bool{
		func(s driver.Status) bool { return s == driver.StatusWorking || s == driver.StatusError },
		func(s driver.Status) bool { return s != driver.StatusWorking && s != driver.StatusError },
	} {
		for _, item := range m.items {
			if len(out) == maxVisible {
				return out
			}
			if pass(item.status) {
				out = append(out, item)
			}
		}
	}
	return out
}

func (m *progressModel) finished() int {
	n := 0
	for _, item := range m.items {
		if isFinal(item.status) {
			n++
		}
	}
	return n
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev driver.Event) tea.Cmd {
	// Requests sharing a label advance in order.
	for _, idx := range m.index[ev.Item] {
		if !isFinal(m.items[idx].status) {
			m.items[idx].status = ev.Status
			break
		}
	}
	return m.prog.SetPercent(float64(m.finished()) / float64(len(m.items)))
}

func isFinal(s driver.Status) bool {
	switch s {
	case driver.StatusDone, driver.StatusAbsent, driver.StatusError, driver.StatusSkipped:
		return true
	}
	return false
}

func statusLabel(s driver.Status) string {
	switch s {
	case driver.StatusWorking:
		return "resolving"
	case driver.StatusDone:
		return "found"
	default:
		return string(s)
	}
}

func styleStatus(s driver.Status) lipgloss.Style {
	switch s {
	case driver.StatusDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case driver.StatusAbsent:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	case driver.StatusError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case driver.StatusWorking:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	// The tail counts toward width.
	return runewidth.Truncate(value, width, "...")
}
