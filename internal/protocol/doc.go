// Package protocol implements the TeBot command and telemetry wire format.
//
// This package handles encoding of robot commands into binary frames and
// decoding of telemetry messages into sensor snapshots. All functions are
// pure: they hold no connection state and perform no I/O.
//
// # Protocol Overview
//
// One WebSocket binary message carries exactly one frame. There is no header,
// length prefix, checksum or escaping; the frame boundary is the message
// boundary.
//
// Outbound command frames:
//   - Byte 0: opcode
//   - Bytes 1+: opcode-specific payload
//
// Inbound telemetry messages:
//   - Exactly 8 bytes, one byte per sensor channel
//   - Channel 5: IR sensor
//
// # Opcodes
//
//	0x01  move forward        1 byte step count (0-255)
//	0x02  move backward       1 byte step count (0-255)
//	0x03  turn left           no payload
//	0x04  turn right          no payload
//	0x06  request ultrasonic  no payload
//	0x07  display LED matrix  5 bytes, one per row
//
// # LED Matrix Format
//
// Matrices are written as five colon-separated rows of five binary digits,
// for example "11111:10001:10001:10001:11111". Each row becomes one byte
// whose five low bits are the pixel states, bit 4 being the leftmost column.
//
// # Usage Example - Encoding
//
//	frame, err := protocol.BuildMoveForward(100)
//	if err != nil {
//	    return err
//	}
//	// frame == []byte{0x01, 100}
//	err = conn.WriteMessage(websocket.BinaryMessage, frame)
//
// # Usage Example - Decoding
//
//	snapshot, err := protocol.DecodeSnapshot(payload)
//	if err != nil {
//	    return err // *DecodingError, previous snapshot stays in place
//	}
//	fmt.Println("IR:", snapshot.IR())
//
// # Error Handling
//
// The package distinguishes between:
//   - Encoding errors: out-of-range payload bytes, malformed matrix strings,
//     unknown opcodes or wrong payload length
//   - Decoding errors: telemetry that is not exactly 8 bytes, or command
//     frames that do not match the opcode table
//
// Both match ErrEncoding / ErrDecoding via errors.Is.
//
// # Thread Safety
//
// All encoding and decoding functions are stateless and safe for concurrent use.
package protocol
