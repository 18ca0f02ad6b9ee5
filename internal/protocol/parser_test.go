package protocol

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestDecodeSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		raw     []byte
		wantIR  byte
		wantErr bool
	}{
		{
			name:   "IR channel set",
			raw:    []byte{0, 0, 0, 0, 0, 42, 0, 0},
			wantIR: 42,
		},
		{
			name:   "all channels set",
			raw:    []byte{1, 2, 3, 4, 5, 6, 7, 8},
			wantIR: 6,
		},
		{
			name:    "undersized",
			raw:     []byte{0, 0, 0, 0, 0, 42},
			wantErr: true,
		},
		{
			name:    "oversized",
			raw:     make([]byte, 9),
			wantErr: true,
		},
		{
			name:    "empty",
			raw:     nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := DecodeSnapshot(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrDecoding) {
					t.Fatalf("DecodeSnapshot() error = %v, want decoding error", err)
				}
				if !IsDecodingError(err) {
					t.Errorf("IsDecodingError(%v) = false", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeSnapshot() error = %v", err)
			}
			if s.IR() != tt.wantIR {
				t.Errorf("IR() = %d, want %d", s.IR(), tt.wantIR)
			}
			if !bytes.Equal(s.Bytes(), tt.raw) {
				t.Errorf("Bytes() = %v, want %v", s.Bytes(), tt.raw)
			}
		})
	}
}

func TestDecodeSnapshot_DoesNotAliasInput(t *testing.T) {
	raw := []byte{0, 0, 0, 0, 0, 9, 0, 0}
	s, err := DecodeSnapshot(raw)
	if err != nil {
		t.Fatalf("DecodeSnapshot() error = %v", err)
	}
	raw[5] = 100
	if s.IR() != 9 {
		t.Errorf("snapshot changed with input buffer: IR() = %d", s.IR())
	}
}

func TestSnapshotChannel(t *testing.T) {
	s := SensorSnapshot{10, 11, 12, 13, 14, 15, 16, 17}
	if s.Channel(0) != 10 || s.Channel(7) != 17 {
		t.Errorf("Channel() returned wrong values: %v", s)
	}
	if s.Channel(-1) != 0 || s.Channel(8) != 0 {
		t.Error("out-of-range channels should read 0")
	}
	if !strings.Contains(s.String(), "ir=15") {
		t.Errorf("String() = %s, want ir=15", s.String())
	}
}

func TestDecodeCommand(t *testing.T) {
	tests := []struct {
		name    string
		frame   []byte
		verify  func(t *testing.T, c Command)
		wantErr bool
	}{
		{
			name:  "move forward",
			frame: []byte{0x01, 100},
			verify: func(t *testing.T, c Command) {
				if c.Op != OpMoveForward || c.Steps != 100 {
					t.Errorf("got %s, want move_forward(100)", c)
				}
			},
		},
		{
			name:  "move backward",
			frame: []byte{0x02, 255},
			verify: func(t *testing.T, c Command) {
				if c.Op != OpMoveBackward || c.Steps != 255 {
					t.Errorf("got %s, want move_backward(255)", c)
				}
			},
		},
		{
			name:  "turn right",
			frame: []byte{0x04},
			verify: func(t *testing.T, c Command) {
				if c.Op != OpTurnRight {
					t.Errorf("got %s, want turn_right", c)
				}
			},
		},
		{
			name:  "display matrix",
			frame: []byte{0x07, 31, 17, 17, 17, 31},
			verify: func(t *testing.T, c Command) {
				if c.Matrix.String() != "11111:10001:10001:10001:11111" {
					t.Errorf("matrix = %s", c.Matrix)
				}
			},
		},
		{
			name:    "empty frame",
			frame:   []byte{},
			wantErr: true,
		},
		{
			name:    "unknown opcode",
			frame:   []byte{0x05},
			wantErr: true,
		},
		{
			name:    "move without steps",
			frame:   []byte{0x01},
			wantErr: true,
		},
		{
			name:    "turn with payload",
			frame:   []byte{0x03, 0x01},
			wantErr: true,
		},
		{
			name:    "matrix row too wide",
			frame:   []byte{0x07, 0x20, 0, 0, 0, 0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := DecodeCommand(tt.frame)
			if tt.wantErr {
				if !IsDecodingError(err) {
					t.Fatalf("DecodeCommand(%v) error = %v, want DecodingError", tt.frame, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeCommand(%v) error = %v", tt.frame, err)
			}
			tt.verify(t, c)
		})
	}
}

func TestDecodeCommand_InvertsBuilders(t *testing.T) {
	frames := []Frame{BuildTurnLeft(), BuildTurnRight(), BuildRequestUltrasonic()}
	for _, f := range frames {
		c, err := DecodeCommand(f)
		if err != nil {
			t.Fatalf("DecodeCommand(%v) error = %v", []byte(f), err)
		}
		if c.Op != f.Opcode() {
			t.Errorf("DecodeCommand(%v).Op = %s", []byte(f), c.Op)
		}
	}
}

func TestHexDump(t *testing.T) {
	if got := HexDump(nil); got != "" {
		t.Errorf("HexDump(nil) = %q, want empty", got)
	}
	if got := HexDump([]byte{0x07, 0x1f}); got != "071f" {
		t.Errorf("HexDump() = %q, want 071f", got)
	}
	long := HexDump(make([]byte, 300))
	if !strings.HasSuffix(long, "...") || len(long) != 512+3 {
		t.Errorf("HexDump(300 bytes) length = %d, want truncated to 256 bytes", len(long))
	}
}
