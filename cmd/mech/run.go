package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"go.bug.st/serial"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/mech/pkg/control"
	"github.com/gwillem/mech/pkg/hardware"
	"github.com/gwillem/mech/pkg/mech"
	_ "github.com/gwillem/mech/pkg/transmission" // register built-in transmission types
)

type RunCommand struct {
	URDF   string `long:"urdf" default:"robot.urdf" description:"Robot description file"`
	Config string `long:"config" default:"mech.json" description:"Hardware config file"`
	Hz     int    `long:"hz" default:"100" description:"Control loop frequency"`
	Sim    bool   `long:"sim" description:"Run against the built-in simulator"`
}

const (
	headerHeight = 2 // title + blank line
	legendHeight = 2 // legend row + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
)

// Distinct colors assigned to joints in name order, cycling when a robot
// has more joints than colors.
var jointPalette = []string{"196", "208", "226", "46", "51", "201"}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	haltedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

func (c *RunCommand) Execute(args []string) error {
	description, err := os.ReadFile(c.URDF)
	if err != nil {
		return fmt.Errorf("read robot description: %w", err)
	}

	var (
		hw         control.Hardware
		controller control.Controller
	)
	if c.Sim {
		hw = hardware.NewSim(time.Second / time.Duration(c.Hz))
		controller = sweepController()
	} else {
		bus, err := openBus(c.Config)
		if err != nil {
			return err
		}
		defer bus.Close()
		hw = bus
		controller = holdController()
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	robot, err := mech.NewRobot(description, hw, logger)
	if err != nil {
		return fmt.Errorf("build robot: %w", err)
	}
	state := mech.NewRobotState(robot)

	// Enable every actuator a transmission drives.
	for _, t := range robot.Transmissions() {
		for _, name := range t.ActuatorNames() {
			robot.Actuator(name).Command.Enable = true
		}
	}

	loop, err := control.NewLoop(control.Config{
		State:      state,
		Hardware:   hw,
		Controller: controller,
		Hz:         c.Hz,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Start(ctx)

	model := initialRunModel(loop, jointNames(state))
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run UI: %w", err)
	}
	return nil
}

// openBus loads the hardware config, asking for a serial port when the
// config does not name one.
func openBus(path string) (*hardware.FeetechBus, error) {
	cfg, err := hardware.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if cfg.Port == "" {
		port, err := pickPort()
		if err != nil {
			return nil, err
		}
		cfg.Port = port
	}
	return hardware.OpenFeetech(cfg)
}

func pickPort() (string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return "", fmt.Errorf("list serial ports: %w", err)
	}

	var options []huh.Option[string]
	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}
		options = append(options, huh.NewOption(port, port))
	}
	if len(options) == 0 {
		return "", fmt.Errorf("no serial ports found")
	}

	var port string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which port is the servo bus on?").
				Options(options...).
				Value(&port),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return port, nil
}

// sweepController drives each joint with a slow phase-shifted sine effort.
// Used against the simulator so the chart shows motion out of the box.
func sweepController() control.Controller {
	return func(s *mech.RobotState, now time.Time) {
		t := float64(now.UnixNano()) / float64(time.Second)
		states := s.JointStates()
		for i := range states {
			phase := float64(i) * math.Pi / 3
			states[i].CommandedEffort = 5*math.Sin(2*math.Pi*0.2*t+phase) - 0.5*states[i].Velocity
		}
	}
}

// holdController captures each joint's position on its first cycle and
// holds it with a PD law. A safe default for real hardware.
func holdController() control.Controller {
	var targets map[string]float64
	return func(s *mech.RobotState, now time.Time) {
		states := s.JointStates()
		if targets == nil {
			targets = make(map[string]float64, len(states))
			for i := range states {
				targets[states[i].Joint.Name] = states[i].Position
			}
		}
		for i := range states {
			js := &states[i]
			err := targets[js.Joint.Name] - js.Position
			js.CommandedEffort = 2*err - 0.2*js.Velocity
		}
	}
}

func jointNames(s *mech.RobotState) []string {
	states := s.JointStates()
	names := make([]string, len(states))
	for i := range states {
		names[i] = states[i].Joint.Name
	}
	sort.Strings(names)
	return names
}

type runModel struct {
	loop       *control.Loop
	chart      *streamlinechart.Model
	jointNames []string
	colors     map[string]string
	width      int
	height     int
	logs       []string
	halted     bool
	quitting   bool
}

func initialRunModel(loop *control.Loop, joints []string) runModel {
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(-100, 100),
	)

	colors := make(map[string]string, len(joints))
	for i, name := range joints {
		color := jointPalette[i%len(jointPalette)]
		colors[name] = color
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
		chart.SetDataSetStyles(name, runes.ThinLineStyle, style)
	}

	return runModel{
		loop:       loop,
		chart:      &chart,
		jointNames: joints,
		colors:     colors,
	}
}

// Messages from the loop
type snapshotMsg control.Snapshot
type logMsg string

func waitForSnapshot(loop *control.Loop) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(<-loop.States())
	}
}

func waitForLog(loop *control.Loop) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-loop.Logs())
	}
}

func (m *runModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

func (m *runModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20 // default size before we know terminal size
	}
	width = m.width - borderSize - 2
	if width < 40 {
		width = 40
	}
	height = m.height - headerHeight - legendHeight - footerHeight - borderSize
	if height < 10 {
		height = 10
	}
	return width, height
}

func (m runModel) Init() tea.Cmd {
	return tea.Batch(
		waitForSnapshot(m.loop),
		waitForLog(m.loop),
	)
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w, h := m.chartSize()
		m.chart.Resize(w, h)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case snapshotMsg:
		snap := control.Snapshot(msg)
		m.halted = snap.Halted
		if snap.Positions != nil {
			for _, name := range m.jointNames {
				m.chart.PushDataSet(name, snap.Positions[name])
			}
			m.chart.DrawAll()
		}
		return m, waitForSnapshot(m.loop)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.loop)
	}

	return m, nil
}

func (m runModel) View() string {
	if m.quitting {
		return "Control loop stopped.\n"
	}

	var sb strings.Builder

	sb.WriteString(titleStyle.Render("mech run"))
	sb.WriteString(fmt.Sprintf(" - %d Hz", m.loop.Hz()))
	if m.halted {
		sb.WriteString("  " + haltedStyle.Render("HALTED"))
	}
	sb.WriteString("\n\n")

	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	sb.WriteString(m.renderLegend())
	sb.WriteString("\n")

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(m.width - 4)

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("Press 'q' to quit")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func (m runModel) renderLegend() string {
	parts := make([]string, 0, len(m.jointNames))
	for _, name := range m.jointNames {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(m.colors[name]))
		parts = append(parts, style.Render("── "+name))
	}
	return strings.Join(parts, "  ")
}
