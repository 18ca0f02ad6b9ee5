package protocol

import (
	"fmt"
	"strconv"
)

// Frame is one encoded command: opcode byte followed by its payload.
// Frames map one-to-one onto transport messages.
type Frame []byte

// Opcode returns the frame's opcode byte (0 for an empty frame)
func (f Frame) Opcode() Opcode {
	if len(f) == 0 {
		return 0
	}
	return Opcode(f[0])
}

// Payload returns the bytes after the opcode
func (f Frame) Payload() []byte {
	if len(f) < 2 {
		return nil
	}
	return f[1:]
}

// String returns a debug representation of the frame
func (f Frame) String() string {
	return fmt.Sprintf("Frame{op=%s, payload=%s}", f.Opcode(), HexDump(f.Payload()))
}

// EncodeCommand builds a command frame from an opcode and payload values.
//
// Frame Structure:
//
//	[0]     opcode
//	[1..n]  payload bytes in declared order
//
// There is no length prefix, checksum or escaping. Each payload value must
// be in 0-255 and the number of values must match the opcode's declared
// payload length; anything else fails with *EncodingError.
func EncodeCommand(op Opcode, payload ...int) (Frame, error) {
	want := op.PayloadLen()
	if want < 0 {
		return nil, &EncodingError{
			Op:     op,
			Reason: "unknown opcode",
		}
	}
	if len(payload) != want {
		return nil, &EncodingError{
			Op:     op,
			Reason: fmt.Sprintf("payload length %d, want %d", len(payload), want),
		}
	}

	frame := make(Frame, 1+len(payload))
	frame[0] = byte(op)
	for i, v := range payload {
		if v < 0 || v > MaxPayloadByte {
			return nil, &EncodingError{
				Op:     op,
				Field:  fmt.Sprintf("payload[%d]", i),
				Value:  strconv.Itoa(v),
				Reason: "byte out of range 0-255",
			}
		}
		frame[1+i] = byte(v)
	}

	return frame, nil
}

// BuildMoveForward builds [0x01, steps]
func BuildMoveForward(steps int) (Frame, error) {
	return EncodeCommand(OpMoveForward, steps)
}

// BuildMoveBackward builds [0x02, steps]
func BuildMoveBackward(steps int) (Frame, error) {
	return EncodeCommand(OpMoveBackward, steps)
}

// BuildTurnLeft builds [0x03]
func BuildTurnLeft() Frame {
	return Frame{byte(OpTurnLeft)}
}

// BuildTurnRight builds [0x04]
func BuildTurnRight() Frame {
	return Frame{byte(OpTurnRight)}
}

// BuildRequestUltrasonic builds [0x06]
func BuildRequestUltrasonic() Frame {
	return Frame{byte(OpRequestUltrasonic)}
}

// BuildDisplayMatrix parses a matrix string and builds [0x07, row1..row5]
func BuildDisplayMatrix(matrix string) (Frame, error) {
	m, err := EncodeMatrix(matrix)
	if err != nil {
		return nil, err
	}
	return append(Frame{byte(OpDisplayMatrix)}, m[:]...), nil
}
