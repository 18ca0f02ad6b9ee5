package drive

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tebot-dev/tebot/internal/device"
	"github.com/tebot-dev/tebot/internal/protocol"
	"github.com/tebot-dev/tebot/internal/transport"
)

// loopback is a transport.Adapter that opens instantly and records frames
type loopback struct {
	mu       sync.Mutex
	state    transport.State
	handlers []transport.Handler
	sent     [][]byte
}

func (l *loopback) Open(context.Context, string) error {
	l.set(transport.StateOpen)
	l.emit(transport.Event{Kind: transport.EventOpen})
	return nil
}

func (l *loopback) Close() error {
	if l.State() != transport.StateOpen {
		return nil
	}
	l.set(transport.StateClosed)
	l.emit(transport.Event{Kind: transport.EventClose})
	return nil
}

func (l *loopback) Send(frame []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != transport.StateOpen {
		return &transport.NotConnectedError{State: l.state}
	}
	l.sent = append(l.sent, append([]byte(nil), frame...))
	return nil
}

func (l *loopback) State() transport.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *loopback) Subscribe(h transport.Handler) {
	l.mu.Lock()
	l.handlers = append(l.handlers, h)
	l.mu.Unlock()
}

func (l *loopback) set(s transport.State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

func (l *loopback) emit(ev transport.Event) {
	l.mu.Lock()
	handlers := append([]transport.Handler(nil), l.handlers...)
	l.mu.Unlock()
	for _, h := range handlers {
		h(ev)
	}
}

func (l *loopback) last() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.sent) == 0 {
		return nil
	}
	return l.sent[len(l.sent)-1]
}

func (l *loopback) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sent)
}

func newConsole(t *testing.T, connected bool) (Model, *loopback) {
	t.Helper()
	lb := &loopback{}
	ctrl := device.NewController(lb, device.WithEndpoint("ws://robot:5000"))
	if connected {
		if err := ctrl.OpenConnection(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	return New(ctrl, Options{}), lb
}

// press feeds a key to the model and runs the resulting command, if any
func press(t *testing.T, m Model, msg tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd == nil {
		return m
	}
	if res, ok := cmd().(resultMsg); ok {
		next, _ = m.Update(res)
		m = next.(Model)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_DrivingKeys(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyMsg
		want []byte
	}{
		{"forward", tea.KeyMsg{Type: tea.KeyUp}, []byte{0x01, DefaultStep}},
		{"backward", tea.KeyMsg{Type: tea.KeyDown}, []byte{0x02, DefaultStep}},
		{"left", tea.KeyMsg{Type: tea.KeyLeft}, []byte{0x03}},
		{"right", runes("d"), []byte{0x04}},
		{"ultrasonic", runes("u"), []byte{0x06}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, lb := newConsole(t, true)
			m = press(t, m, tt.key)

			if got := lb.last(); !bytes.Equal(got, tt.want) {
				t.Errorf("sent % x, want % x", got, tt.want)
			}
			if status, isErr := m.Status(); isErr || status == "" {
				t.Errorf("Status() = %q, %v; want a success message", status, isErr)
			}
		})
	}
}

func TestModel_StepAdjust(t *testing.T) {
	m, lb := newConsole(t, true)

	m = press(t, m, runes("+"))
	if m.Step() != DefaultStep+stepIncrement {
		t.Errorf("Step() = %d, want %d", m.Step(), DefaultStep+stepIncrement)
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if got := lb.last(); !bytes.Equal(got, []byte{0x01, DefaultStep + stepIncrement}) {
		t.Errorf("sent % x after step increase", got)
	}

	for i := 0; i < 10; i++ {
		m = press(t, m, runes("-"))
	}
	if m.Step() != 1 {
		t.Errorf("Step() = %d, want floor of 1", m.Step())
	}

	for i := 0; i < 100; i++ {
		m = press(t, m, runes("+"))
	}
	if m.Step() != protocol.MaxPayloadByte {
		t.Errorf("Step() = %d, want cap of %d", m.Step(), protocol.MaxPayloadByte)
	}
}

func TestModel_NotConnected(t *testing.T) {
	m, lb := newConsole(t, false)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyUp})

	if lb.count() != 0 {
		t.Errorf("sent %d frames while closed, want 0", lb.count())
	}
	status, isErr := m.Status()
	if !isErr || !strings.Contains(status, "not connected") {
		t.Errorf("Status() = %q, %v; want a not connected error", status, isErr)
	}
}

func TestModel_ConnectToggle(t *testing.T) {
	m, _ := newConsole(t, false)

	m = press(t, m, runes("c"))
	if m.state != transport.StateOpen {
		t.Fatalf("state = %s after connect, want open", m.state)
	}

	m = press(t, m, runes("c"))
	if m.state != transport.StateClosed {
		t.Errorf("state = %s after disconnect, want closed", m.state)
	}
}

func TestModel_MatrixEditor(t *testing.T) {
	m, lb := newConsole(t, true)

	m = press(t, m, runes("m"))
	if !m.Editing() {
		t.Fatal("Editing() = false after pressing m")
	}

	// Keys go to the editor, not the driving bindings
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlU})
	m = press(t, m, runes("11111:1"))
	if lb.count() != 0 {
		t.Fatal("typing in the editor sent a frame")
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.Editing() {
		t.Error("invalid matrix should keep the editor open")
	}
	if _, isErr := m.Status(); !isErr {
		t.Error("invalid matrix should report an error")
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlU})
	m = press(t, m, runes("10001:01010:00100:01010:10001"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.Editing() {
		t.Error("editor should close after sending")
	}
	want := []byte{0x07, 17, 10, 4, 10, 17}
	if got := lb.last(); !bytes.Equal(got, want) {
		t.Errorf("sent % x, want % x", got, want)
	}
}

func TestModel_MatrixEditorCancel(t *testing.T) {
	m, lb := newConsole(t, true)

	m = press(t, m, runes("m"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEscape})

	if m.Editing() {
		t.Error("Editing() = true after esc")
	}
	if lb.count() != 0 {
		t.Error("cancel should not send anything")
	}
}

func TestModel_Quit(t *testing.T) {
	m, _ := newConsole(t, true)

	next, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("quit returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit command should produce tea.QuitMsg")
	}
	if view := next.(Model).View(); view != "" {
		t.Errorf("View() after quit = %q, want empty", view)
	}
}

func TestModel_TickRefreshesTelemetry(t *testing.T) {
	m, lb := newConsole(t, true)

	lb.emit(transport.Event{Kind: transport.EventMessage, Data: []byte{0, 0, 0, 0, 0, 1, 0, 0}})

	next, cmd := m.Update(tickMsg{})
	m = next.(Model)
	if cmd == nil {
		t.Error("tick should schedule the next tick")
	}
	if m.snapshot.IR() != 1 {
		t.Errorf("snapshot IR = %d, want 1", m.snapshot.IR())
	}

	view := m.View()
	for _, want := range []string{"TEBOT DRIVE", "open", "ws://robot:5000", "obstacle"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}
