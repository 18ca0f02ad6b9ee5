package sim

import (
	"fmt"
	"sync"

	"github.com/tebot-dev/tebot/internal/protocol"
)

// Telemetry channel layout produced by the simulator.
// Only ChannelIR is part of the wire contract; the rest are simulator extras.
const (
	ChannelDistance = 0 // Distance to the wall ahead in steps (capped at 255)
	ChannelHeading  = 1 // Heading in quarter turns (0=north, 1=east, 2=south, 3=west)
	ChannelX        = 2 // X position, low byte
	ChannelY        = 3 // Y position, low byte
	ChannelCommands = 4 // Applied command count, low byte
	ChannelIR       = protocol.ChannelIR
	ChannelLEDs     = 6 // Number of lit LED pixels
	ChannelBumps    = 7 // Moves stopped by a wall, low byte
)

// Default arena settings
const (
	DefaultArenaSize   = 200
	DefaultIRThreshold = 10
)

// Heading is a compass direction in quarter turns
type Heading int

const (
	North Heading = iota
	East
	South
	West
)

// String returns the compass name
func (h Heading) String() string {
	switch h {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	default:
		return fmt.Sprintf("Heading(%d)", int(h))
	}
}

// State is a point-in-time copy of the simulated robot
type State struct {
	X, Y     int
	Heading  Heading
	Matrix   protocol.Matrix
	Commands int
	Bumps    int
}

// Robot is a simulated two-wheel robot in a square walled arena.
// The arena spans 0..Size on both axes; the robot starts in the centre
// facing north. It is safe for concurrent use.
type Robot struct {
	size        int
	irThreshold int

	mu    sync.Mutex
	state State
}

// NewRobot creates a robot in the centre of an arena of the given size
func NewRobot(size, irThreshold int) *Robot {
	if size <= 0 {
		size = DefaultArenaSize
	}
	if irThreshold <= 0 {
		irThreshold = DefaultIRThreshold
	}
	return &Robot{
		size:        size,
		irThreshold: irThreshold,
		state:       State{X: size / 2, Y: size / 2, Heading: North},
	}
}

// State returns a copy of the current robot state
func (r *Robot) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Apply executes one decoded command
func (r *Robot) Apply(cmd protocol.Command) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state.Commands++

	switch cmd.Op {
	case protocol.OpMoveForward:
		r.move(cmd.Steps)
	case protocol.OpMoveBackward:
		r.move(-cmd.Steps)
	case protocol.OpTurnLeft:
		r.state.Heading = (r.state.Heading + 3) % 4
	case protocol.OpTurnRight:
		r.state.Heading = (r.state.Heading + 1) % 4
	case protocol.OpDisplayMatrix:
		r.state.Matrix = cmd.Matrix
	}
}

// move advances along the heading, stopping at the arena walls
func (r *Robot) move(steps int) {
	dx, dy := r.state.Heading.delta()
	x := r.state.X + dx*steps
	y := r.state.Y + dy*steps

	cx, cy := clamp(x, 0, r.size), clamp(y, 0, r.size)
	if cx != x || cy != y {
		r.state.Bumps++
	}
	r.state.X, r.state.Y = cx, cy
}

// distance returns the number of steps to the wall ahead
func (r *Robot) distance() int {
	switch r.state.Heading {
	case North:
		return r.size - r.state.Y
	case East:
		return r.size - r.state.X
	case South:
		return r.state.Y
	default:
		return r.state.X
	}
}

// Snapshot renders the robot state as an 8-byte telemetry snapshot
func (r *Robot) Snapshot() protocol.SensorSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	dist := r.distance()
	var ir byte
	if dist < r.irThreshold {
		ir = 1
	}

	lit := 0
	for row := 0; row < protocol.MatrixRows; row++ {
		for col := 0; col < protocol.MatrixCols; col++ {
			if r.state.Matrix.Pixel(row, col) {
				lit++
			}
		}
	}

	var snap protocol.SensorSnapshot
	snap[ChannelDistance] = byte(clamp(dist, 0, protocol.MaxPayloadByte))
	snap[ChannelHeading] = byte(r.state.Heading)
	snap[ChannelX] = byte(r.state.X)
	snap[ChannelY] = byte(r.state.Y)
	snap[ChannelCommands] = byte(r.state.Commands)
	snap[ChannelIR] = ir
	snap[ChannelLEDs] = byte(lit)
	snap[ChannelBumps] = byte(r.state.Bumps)
	return snap
}

func (h Heading) delta() (dx, dy int) {
	switch h {
	case North:
		return 0, 1
	case East:
		return 1, 0
	case South:
		return 0, -1
	default:
		return -1, 0
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
