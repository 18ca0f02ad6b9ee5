package drive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/tebot-dev/tebot/internal/device"
	"github.com/tebot-dev/tebot/internal/logging"
	"github.com/tebot-dev/tebot/internal/protocol"
	"github.com/tebot-dev/tebot/internal/transport"
	"github.com/tebot-dev/tebot/internal/ui"
)

// Defaults for Options
const (
	DefaultStep         = 10
	DefaultPollInterval = 100 * time.Millisecond
	stepIncrement       = 5
)

// Options configure the driving console
type Options struct {
	Step         int              // Steps sent per forward/backward key press
	PollInterval time.Duration    // How often controller state is refreshed
	Labels       ui.ChannelLabels // Telemetry channel names
	AutoConnect  bool             // Open the connection on start
}

// Messages
type tickMsg time.Time

type resultMsg struct {
	action string
	err    error
}

// Model is the Bubble Tea model of the driving console
type Model struct {
	ctrl   *device.Controller
	opts   Options
	logger *zap.Logger

	// Last polled controller view
	state    transport.State
	snapshot protocol.SensorSnapshot
	stats    device.Stats
	lastErr  error

	matrix      protocol.Matrix // Last matrix sent
	editing     bool
	matrixInput textinput.Model

	status    string
	statusErr bool

	Width    int
	Height   int
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
	editKeys editKeyMap
	quitting bool
}

// New creates a driving console for ctrl
func New(ctrl *device.Controller, opts Options) Model {
	if opts.Step <= 0 {
		opts.Step = DefaultStep
	}
	if opts.Step > protocol.MaxPayloadByte {
		opts.Step = protocol.MaxPayloadByte
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Labels == (ui.ChannelLabels{}) {
		opts.Labels = ui.DefaultChannelLabels
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ui.WarningColor)

	input := textinput.New()
	input.Placeholder = protocol.BlankMatrix
	input.CharLimit = len(protocol.BlankMatrix)
	input.Width = len(protocol.BlankMatrix) + 1
	input.Cursor.SetMode(cursor.CursorStatic)

	return Model{
		ctrl:        ctrl,
		opts:        opts,
		logger:      logging.Named("drive"),
		state:       ctrl.State(),
		matrixInput: input,
		spinner:     s,
		help:        help.New(),
		keys:        defaultKeyMap(),
		editKeys:    defaultEditKeyMap(),
	}
}

// Run starts the console full screen and blocks until the user quits or ctx ends.
// The connection is closed on exit.
func Run(ctx context.Context, ctrl *device.Controller, opts Options) error {
	p := tea.NewProgram(New(ctrl, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	_ = ctrl.CloseConnection()
	return err
}

// Step returns the current step count
func (m Model) Step() int {
	return m.opts.Step
}

// Status returns the last status line and whether it reports an error
func (m Model) Status() (string, bool) {
	return m.status, m.statusErr
}

// Editing reports whether the matrix editor is open
func (m Model) Editing() bool {
	return m.editing
}

// Init starts polling and, if requested, connecting
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.tick()}
	if m.opts.AutoConnect {
		cmds = append(cmds, m.connect())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateDriving(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.help.Width = msg.Width

	case tickMsg:
		m.refresh()
		return m, m.tick()

	case resultMsg:
		m.refresh()
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
			m.statusErr = true
		} else {
			m.status = msg.action
			m.statusErr = false
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// updateDriving handles keyboard input while driving
func (m Model) updateDriving(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Forward):
		steps := m.opts.Step
		return m, m.run(fmt.Sprintf("forward %d", steps), func() error { return m.ctrl.MoveForward(steps) })

	case key.Matches(msg, m.keys.Backward):
		steps := m.opts.Step
		return m, m.run(fmt.Sprintf("backward %d", steps), func() error { return m.ctrl.MoveBackward(steps) })

	case key.Matches(msg, m.keys.Left):
		return m, m.run("turn left", m.ctrl.TurnLeft)

	case key.Matches(msg, m.keys.Right):
		return m, m.run("turn right", m.ctrl.TurnRight)

	case key.Matches(msg, m.keys.StepUp):
		m.opts.Step = min(m.opts.Step+stepIncrement, protocol.MaxPayloadByte)
		m.status, m.statusErr = fmt.Sprintf("step %d", m.opts.Step), false

	case key.Matches(msg, m.keys.StepDown):
		m.opts.Step = max(m.opts.Step-stepIncrement, 1)
		m.status, m.statusErr = fmt.Sprintf("step %d", m.opts.Step), false

	case key.Matches(msg, m.keys.Ultrasonic):
		return m, m.run("ultrasonic request", func() error {
			_, err := m.ctrl.RequestUltrasonic()
			return err
		})

	case key.Matches(msg, m.keys.Matrix):
		m.editing = true
		m.matrixInput.SetValue(m.matrix.String())
		m.matrixInput.CursorEnd()
		return m, m.matrixInput.Focus()

	case key.Matches(msg, m.keys.Connect):
		if m.state == transport.StateOpen {
			return m, m.run("disconnect", m.ctrl.CloseConnection)
		}
		return m, m.connect()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	return m, nil
}

// updateEditing handles keyboard input in the matrix editor
func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.editKeys.Cancel):
		m.editing = false
		m.matrixInput.Blur()
		return m, nil

	case key.Matches(msg, m.editKeys.Send):
		value := strings.TrimSpace(m.matrixInput.Value())
		matrix, err := protocol.EncodeMatrix(value)
		if err != nil {
			m.status, m.statusErr = err.Error(), true
			return m, nil
		}
		m.editing = false
		m.matrixInput.Blur()
		m.matrix = matrix
		return m, m.run("matrix "+value, func() error { return m.ctrl.DisplayMatrix(value) })
	}

	var cmd tea.Cmd
	m.matrixInput, cmd = m.matrixInput.Update(msg)
	return m, cmd
}

// run executes a controller call off the update loop
func (m Model) run(action string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		err := fn()
		if err != nil {
			m.logger.Debug("console command failed", zap.String("action", action), zap.Error(err))
		}
		return resultMsg{action: action, err: err}
	}
}

func (m Model) connect() tea.Cmd {
	return m.run("connect "+m.ctrl.Endpoint(), func() error {
		return m.ctrl.OpenConnection(context.Background())
	})
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.PollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refresh copies the controller's current view into the model
func (m *Model) refresh() {
	m.state = m.ctrl.State()
	m.snapshot = m.ctrl.Snapshot()
	m.stats = m.ctrl.Stats()
	m.lastErr = m.ctrl.LastError()
}

// View renders the console
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	title := ui.HeaderTitleStyle.Render("TEBOT DRIVE")

	stateLine := ui.RenderState(m.state, m.ctrl.Endpoint())
	if m.state == transport.StateConnecting {
		stateLine = m.spinner.View() + " " + stateLine
	}
	stateLine = "  " + stateLine
	if m.state == transport.StateError && m.lastErr != nil {
		stateLine += "\n  " + ui.ErrorMessageStyle.Render(m.lastErr.Error())
	}

	panels := lipgloss.JoinHorizontal(lipgloss.Top,
		ui.RenderSnapshot(m.snapshot, m.opts.Labels),
		" ",
		ui.RenderMatrix(m.matrix),
	)

	info := ui.HelpStyle.Render(fmt.Sprintf("step %d", m.opts.Step)) + "  " + ui.RenderStats(m.stats)

	sections := []string{title, stateLine, "", panels, info}

	if m.editing {
		sections = append(sections, "", "  Matrix: "+m.matrixInput.View())
	}

	if m.status != "" {
		style := ui.ResultValueStyle
		if m.statusErr {
			style = ui.ErrorMessageStyle
		}
		sections = append(sections, "", "  "+style.Render(m.status))
	}

	var helpView string
	if m.editing {
		helpView = m.help.View(m.editKeys)
	} else {
		helpView = m.help.View(m.keys)
	}
	sections = append(sections, "", "  "+helpView)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
