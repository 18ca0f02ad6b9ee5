package protocol

import (
	"encoding/hex"
	"fmt"
)

// Command is a decoded command frame
type Command struct {
	Op     Opcode
	Steps  int    // Step count for move commands
	Matrix Matrix // Row bitmaps for display commands
}

// String returns a debug representation of the command
func (c Command) String() string {
	switch c.Op {
	case OpMoveForward, OpMoveBackward:
		return fmt.Sprintf("%s(%d)", c.Op, c.Steps)
	case OpDisplayMatrix:
		return fmt.Sprintf("%s(%s)", c.Op, c.Matrix)
	default:
		return c.Op.String()
	}
}

// DecodeCommand parses a command frame, validating the opcode and payload length.
// This is the inverse of EncodeCommand and is what a controller on the
// receiving end applies to each inbound message.
func DecodeCommand(frame []byte) (Command, error) {
	if len(frame) == 0 {
		return Command{}, &DecodingError{Length: 0, Reason: "empty command frame"}
	}

	op := Opcode(frame[0])
	want := op.PayloadLen()
	if want < 0 {
		return Command{}, &DecodingError{
			Length: len(frame),
			Reason: fmt.Sprintf("unknown opcode 0x%02X", frame[0]),
		}
	}

	payload := frame[1:]
	if len(payload) != want {
		return Command{}, &DecodingError{
			Length: len(frame),
			Reason: fmt.Sprintf("%s payload is %d bytes, want %d", op, len(payload), want),
		}
	}

	cmd := Command{Op: op}
	switch op {
	case OpMoveForward, OpMoveBackward:
		cmd.Steps = int(payload[0])
	case OpDisplayMatrix:
		for i, b := range payload {
			if b > 0x1F {
				return Command{}, &DecodingError{
					Length: len(frame),
					Reason: fmt.Sprintf("matrix row %d has bits above column 0: 0x%02X", i+1, b),
				}
			}
		}
		copy(cmd.Matrix[:], payload)
	}

	return cmd, nil
}

// HexDump returns data as lowercase hex, capped at 256 bytes for logging
func HexDump(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if len(data) > 256 {
		return hex.EncodeToString(data[:256]) + "..."
	}
	return hex.EncodeToString(data)
}
