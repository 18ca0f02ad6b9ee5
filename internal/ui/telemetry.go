package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tebot-dev/tebot/internal/device"
	"github.com/tebot-dev/tebot/internal/discovery"
	"github.com/tebot-dev/tebot/internal/protocol"
	"github.com/tebot-dev/tebot/internal/transport"
)

// ChannelLabels names the telemetry channels of a snapshot.
// Empty entries fall back to "ch<N>".
type ChannelLabels [protocol.SnapshotSize]string

// DefaultChannelLabels only names the IR channel
var DefaultChannelLabels = ChannelLabels{protocol.ChannelIR: "ir"}

func (l ChannelLabels) label(i int) string {
	if l[i] != "" {
		return l[i]
	}
	return fmt.Sprintf("ch%d", i)
}

// RenderSnapshot renders a snapshot as a labelled channel table.
// A non-zero IR channel is highlighted.
func RenderSnapshot(snap protocol.SensorSnapshot, labels ChannelLabels) string {
	lines := make([]string, 0, protocol.SnapshotSize+1)
	lines = append(lines, TroubleshootingTitleStyle.Render("Telemetry"))

	for i := 0; i < protocol.SnapshotSize; i++ {
		value := fmt.Sprintf("%3d  0x%02X", snap[i], snap[i])
		styled := ChannelValueStyle.Render(value)
		if i == protocol.ChannelIR && snap[i] != 0 {
			styled = IRAlertStyle.Render(value + "  obstacle")
		}
		lines = append(lines, ChannelKeyStyle.Render(labels.label(i)+":")+" "+styled)
	}

	return PanelStyle().Render(strings.Join(lines, "\n"))
}

// RenderMatrix renders a 5x5 LED matrix as a grid of markers
func RenderMatrix(m protocol.Matrix) string {
	rows := make([]string, 0, protocol.MatrixRows+1)
	rows = append(rows, TroubleshootingTitleStyle.Render("LED matrix"))

	for row := 0; row < protocol.MatrixRows; row++ {
		cells := make([]string, protocol.MatrixCols)
		for col := 0; col < protocol.MatrixCols; col++ {
			if m.Pixel(row, col) {
				cells[col] = LedOnStyle.Render(LedOnMarker)
			} else {
				cells[col] = LedOffStyle.Render(LedOffMarker)
			}
		}
		rows = append(rows, strings.Join(cells, " "))
	}

	return PanelStyle().Render(strings.Join(rows, "\n"))
}

// RenderState renders a connection state badge, e.g. "● open  ws://host:5000"
func RenderState(state transport.State, endpoint string) string {
	badge := lipgloss.NewStyle().
		Foreground(StateColor(state)).
		Bold(true).
		Render(LedOnMarker + " " + state.String())
	if endpoint == "" {
		return badge
	}
	return badge + "  " + lipgloss.NewStyle().Foreground(MutedColor).Render(endpoint)
}

// RenderStats renders controller counters on one line
func RenderStats(s device.Stats) string {
	return lipgloss.NewStyle().Foreground(MutedColor).Render(fmt.Sprintf(
		"sent %d · dropped %d · snapshots %d · bad telemetry %d",
		s.FramesSent, s.FramesDropped, s.SnapshotsReceived, s.DecodeErrors,
	))
}

// RenderRobots renders discovered robots as a table
func RenderRobots(robots []*discovery.Robot) string {
	if len(robots) == 0 {
		return HelpStyle.Render("No robots found")
	}

	nameWidth := len("NAME")
	for _, r := range robots {
		if len(r.Instance) > nameWidth {
			nameWidth = len(r.Instance)
		}
	}

	head := lipgloss.NewStyle().Foreground(MutedColor).Bold(true)
	nameStyle := lipgloss.NewStyle().Foreground(TextColor).Width(nameWidth + 2)
	kindStyle := lipgloss.NewStyle().Foreground(MutedColor).Width(8)

	lines := []string{
		head.Width(nameWidth+2).Render("NAME") + head.Width(8).Render("KIND") + head.Render("ENDPOINT"),
	}
	for _, r := range robots {
		kind := "robot"
		if r.IsSimulator() {
			kind = "sim"
		}
		lines = append(lines,
			nameStyle.Render(r.Instance)+kindStyle.Render(kind)+ResultValueStyle.Render(r.Endpoint()))
	}

	return strings.Join(lines, "\n")
}
