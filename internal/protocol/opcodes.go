package protocol

import "fmt"

// Opcode identifies a command frame. It is always the first byte on the wire.
type Opcode byte

// Command opcodes. 0x05 is unassigned.
const (
	OpMoveForward       Opcode = 0x01
	OpMoveBackward      Opcode = 0x02
	OpTurnLeft          Opcode = 0x03
	OpTurnRight         Opcode = 0x04
	OpRequestUltrasonic Opcode = 0x06
	OpDisplayMatrix     Opcode = 0x07
)

// Payload sizes in bytes
const (
	StepPayloadLen   = 1
	MatrixPayloadLen = MatrixRows
)

// MaxPayloadByte is the largest value a single payload byte can carry
const MaxPayloadByte = 0xFF

// payloadLens maps each known opcode to its declared payload length
var payloadLens = map[Opcode]int{
	OpMoveForward:       StepPayloadLen,
	OpMoveBackward:      StepPayloadLen,
	OpTurnLeft:          0,
	OpTurnRight:         0,
	OpRequestUltrasonic: 0,
	OpDisplayMatrix:     MatrixPayloadLen,
}

// Known reports whether op is in the opcode table
func (op Opcode) Known() bool {
	_, ok := payloadLens[op]
	return ok
}

// PayloadLen returns the declared payload length for op, or -1 if op is unknown
func (op Opcode) PayloadLen() int {
	n, ok := payloadLens[op]
	if !ok {
		return -1
	}
	return n
}

// String returns a human-readable opcode name
func (op Opcode) String() string {
	switch op {
	case OpMoveForward:
		return "move_forward"
	case OpMoveBackward:
		return "move_backward"
	case OpTurnLeft:
		return "turn_left"
	case OpTurnRight:
		return "turn_right"
	case OpRequestUltrasonic:
		return "request_ultrasonic"
	case OpDisplayMatrix:
		return "display_matrix"
	default:
		return fmt.Sprintf("unknown(0x%02X)", byte(op))
	}
}
