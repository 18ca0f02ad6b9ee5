package protocol

import (
	"encoding/hex"
	"fmt"
)

// SnapshotSize is the exact length of a telemetry message
const SnapshotSize = 8

// Sensor channels (indexes into a snapshot)
const (
	// ChannelIR carries the IR sensor reading
	ChannelIR = 5
)

// SensorSnapshot is the most recently decoded telemetry buffer.
// The zero value is the all-zero snapshot a controller starts with.
type SensorSnapshot [SnapshotSize]byte

// DecodeSnapshot decodes one telemetry message.
//
// The message must be exactly SnapshotSize bytes. Undersized or oversized
// input fails with *DecodingError rather than being truncated or padded, so
// callers can leave their previous snapshot untouched.
func DecodeSnapshot(raw []byte) (SensorSnapshot, error) {
	var s SensorSnapshot
	if len(raw) != SnapshotSize {
		return s, &DecodingError{
			Length: len(raw),
			Reason: fmt.Sprintf("telemetry must be exactly %d bytes", SnapshotSize),
		}
	}
	copy(s[:], raw)
	return s, nil
}

// Channel returns the value of channel i, or 0 if i is out of range
func (s SensorSnapshot) Channel(i int) byte {
	if i < 0 || i >= SnapshotSize {
		return 0
	}
	return s[i]
}

// IR returns the IR sensor channel
func (s SensorSnapshot) IR() byte {
	return s[ChannelIR]
}

// Bytes returns a copy of the snapshot as a slice
func (s SensorSnapshot) Bytes() []byte {
	out := make([]byte, SnapshotSize)
	copy(out, s[:])
	return out
}

// String returns a debug representation of the snapshot
func (s SensorSnapshot) String() string {
	return fmt.Sprintf("Snapshot{ir=%d, raw=%s}", s.IR(), hex.EncodeToString(s[:]))
}
