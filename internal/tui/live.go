package tui

import (
	"fmt"
	"math"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
)

// Progress is one accepted optimizer step, fed to the live view.
type Progress struct {
	Iteration int
	Cost      float64
}

type doneMsg struct{}

type liveModel struct {
	updates  <-chan Progress
	history  []float64
	last     Progress
	finished bool
}

func waitForProgress(ch <-chan Progress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return doneMsg{}
		}
		return p
	}
}

func (m liveModel) Init() tea.Cmd {
	return waitForProgress(m.updates)
}

func (m liveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case Progress:
		m.last = msg
		m.history = append(m.history, math.Log10(math.Max(msg.Cost, 1e-300)))
		return m, waitForProgress(m.updates)
	case doneMsg:
		m.finished = true
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m liveModel) View() string {
	s := TitleStyle.Render("calibrating") + "\n\n"
	s += fmt.Sprintf("%s %s   %s %s\n\n",
		LabelStyle.Render("iteration"), ValueStyle.Render(fmt.Sprintf("%d", m.last.Iteration)),
		LabelStyle.Render("cost"), ValueStyle.Render(fmt.Sprintf("%.6g", m.last.Cost)))
	if len(m.history) > 1 {
		s += asciigraph.Plot(m.history,
			asciigraph.Height(10),
			asciigraph.Width(60),
			asciigraph.Caption("log10 cost"))
		s += "\n"
	}
	if m.finished {
		s += "\n" + OKStyle.Render("done") + "\n"
	} else {
		s += "\n" + LabelStyle.Render("q to quit") + "\n"
	}
	return s
}

// RunLive displays optimizer progress until the channel closes.
func RunLive(updates <-chan Progress) error {
	p := tea.NewProgram(liveModel{updates: updates})
	_, err := p.Run()
	return err
}

// Notify forwards a progress update without blocking. Updates are dropped
// once the view has stopped reading, so a fit never stalls behind a
// closed or abandoned display.
func Notify(ch chan<- Progress, p Progress) {
	select {
	case ch <- p:
	default:
	}
}
