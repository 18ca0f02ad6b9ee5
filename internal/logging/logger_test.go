package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestInitialize_SilentWhenUnset(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	defer SetLogger(nil)

	if err := InitializeFromEnv(); err != nil {
		t.Fatalf("InitializeFromEnv() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("logger should be silent when TEBOT_LOG_LEVEL is unset")
	}
}

func TestInitialize_FromEnv(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "warn")
	defer SetLogger(nil)

	if err := InitializeFromEnv(); err != nil {
		t.Fatalf("InitializeFromEnv() error = %v", err)
	}
	core := GetLogger().Core()
	if !core.Enabled(zapcore.WarnLevel) {
		t.Error("warn should be enabled")
	}
	if core.Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
}

func TestLogConnectionAndFrame(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := zap.New(core)

	LogConnection(l, "connection open", "ws://localhost:5000", "open")
	LogFrame(l, "frame sent", "sent", []byte{0x01, 0x64}, zap.String("conn_id", "c1"))

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d log entries, want 2", len(entries))
	}

	if entries[0].Message != "connection open" || entries[0].Level != zapcore.InfoLevel {
		t.Errorf("connection entry = %s %q", entries[0].Level, entries[0].Message)
	}
	if got := entries[0].ContextMap()["event"]; got != "open" {
		t.Errorf("event field = %v, want open", got)
	}

	frame := entries[1].ContextMap()
	if got := frame["hex"]; got != "0164" {
		t.Errorf("hex field = %v, want 0164", got)
	}
	if got := frame["direction"]; got != "sent" {
		t.Errorf("direction field = %v, want sent", got)
	}
	if got := frame["conn_id"]; got != "c1" {
		t.Errorf("conn_id field = %v, want c1", got)
	}
}

func TestLogFrame_SkippedAboveDebug(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	LogFrame(zap.New(core), "frame sent", "sent", []byte{0x03})
	LogRawBytes(zap.New(core), "text ignored", []byte("hi"))

	if logs.Len() != 0 {
		t.Errorf("got %d entries at info level, want 0", logs.Len())
	}
}

func TestLogRawBytes(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	LogRawBytes(zap.New(core), "non-binary message ignored", []byte("hi\x00"))

	entries := logs.FilterMessage("non-binary message ignored").All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if got := fields["ascii"]; got != "hi." {
		t.Errorf("ascii field = %v, want %q", got, "hi.")
	}
	if got := fields["hex"]; got != "686900" {
		t.Errorf("hex field = %v, want 686900", got)
	}
}

func TestAsciiDump(t *testing.T) {
	if got := asciiDump([]byte("hi\x00")); got != "hi." {
		t.Errorf("asciiDump() = %q, want %q", got, "hi.")
	}
	if got := asciiDump(nil); got != "" {
		t.Errorf("asciiDump(nil) = %q, want empty", got)
	}
}
