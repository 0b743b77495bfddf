package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/sysdyn/internal/dynamo"
	"github.com/san-kum/sysdyn/internal/sim"
)

const (
	chartWidth      = 64
	chartHeight     = 12
	historyCapacity = 600
)

var (
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	statsStyle    = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(42)
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	graphStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 2)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model is the live view: it owns a stepping runtime and a bounded history
// of reported values per variable.
type Model struct {
	model     *dynamo.Model
	cfg       dynamo.Config
	rt        *sim.Runtime
	modelName string
	names     []string
	history   [][]float64
	last      dynamo.Snapshot
	selected  int
	running   bool
	fps       int
	err       error
}

func NewModel(model *dynamo.Model, cfg dynamo.Config, modelName string, fps int) (Model, error) {
	if fps <= 0 {
		fps = 30
	}
	m := Model{
		model:     model,
		cfg:       cfg,
		modelName: modelName,
		running:   true,
		fps:       fps,
	}
	if err := m.restart(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m *Model) restart() error {
	rt, err := sim.New(m.model, m.cfg)
	if err != nil {
		return err
	}
	if err := rt.Init(); err != nil {
		return err
	}
	m.rt = rt
	m.names = rt.Names()
	m.history = make([][]float64, len(m.names))
	m.err = nil
	return nil
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			if err := m.restart(); err != nil {
				m.err = err
			}
			m.running = true
		case "tab":
			m.selected = (m.selected + 1) % len(m.names)
		}
	case TickMsg:
		if m.running && m.err == nil && !m.rt.Done() {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) step() {
	snap, err := m.rt.Step()
	if err != nil {
		m.err = err
		m.running = false
		return
	}
	m.last = snap
	for i := range m.names {
		m.history[i] = append(m.history[i], snap.At(i))
		if len(m.history[i]) > historyCapacity {
			m.history[i] = m.history[i][1:]
		}
	}
}

func (m Model) View() string {
	var chart string
	if hist := m.history[m.selected]; len(hist) > 1 {
		chart = asciigraph.Plot(hist,
			asciigraph.Height(chartHeight),
			asciigraph.Width(chartWidth),
			asciigraph.Caption(m.names[m.selected]),
		)
	} else {
		chart = "(waiting for data)"
	}
	chartView := graphStyle.Render(chart)

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.modelName)) + "\n")
	switch {
	case m.err != nil:
		s.WriteString(errorStyle.Render("ERROR") + "\n" + valueStyle.Render(m.err.Error()) + "\n\n")
	case m.rt.Phase() == sim.PhaseCompleted:
		s.WriteString("COMPLETED\n\n")
	case m.running:
		s.WriteString("RUNNING\n\n")
	default:
		s.WriteString("PAUSED\n\n")
	}
	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.4g", m.rt.Time())) + "\n\n")

	s.WriteString("VARIABLES\n")
	for i, name := range m.names {
		val := 0.0
		if m.last.Len() > 0 {
			val = m.last.At(i)
		}
		line := fmt.Sprintf("%-20s %12.5g", name, val)
		if i == m.selected {
			s.WriteString(selectedStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + labelStyle.Render(line) + "\n")
		}
	}
	s.WriteString(helpStyle.Render("\nSP:Pause R:Restart Tab:Variable Q:Quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top, chartView, statsStyle.Render(s.String()))
}
