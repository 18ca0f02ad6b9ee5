package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/tebot-dev/tebot/internal/discovery"
	"github.com/tebot-dev/tebot/internal/protocol"
)

// Printer provides methods for printing UI components to a writer.
// This is the primary way tebotctl commands output styled content.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// Width returns the current terminal width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// SetWidth overrides the detected terminal width
func (p *Printer) SetWidth(width int) *Printer {
	p.width = clampWidth(width)
	return p
}

// Print writes content to the output
func (p *Printer) Print(content string) {
	_, _ = fmt.Fprint(p.out, content)
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params ...Field) {
	p.Println(NewHeader(title, command, params...).SetWidth(p.width).Render())
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details ...Field) {
	p.Println(NewSuccessResult(title, details...).SetWidth(p.width).Render())
}

// PrintWarning prints a warning result box
func (p *Printer) PrintWarning(title string, details ...Field) {
	p.Println(NewWarningResult(title, details...).SetWidth(p.width).Render())
}

// PrintError prints an error result box with troubleshooting tips derived from err
func (p *Printer) PrintError(title string, err error) {
	p.Println(NewFailureResult(title, err, TroubleshootingFor(err)).SetWidth(p.width).Render())
}

// PrintSnapshot prints a telemetry panel
func (p *Printer) PrintSnapshot(snap protocol.SensorSnapshot, labels ChannelLabels) {
	p.Println(RenderSnapshot(snap, labels))
}

// PrintMatrix prints an LED matrix preview
func (p *Printer) PrintMatrix(m protocol.Matrix) {
	p.Println(RenderMatrix(m))
}

// PrintRobots prints a discovery result table
func (p *Printer) PrintRobots(robots []*discovery.Robot) {
	p.Println(RenderRobots(robots))
}
