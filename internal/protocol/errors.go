package protocol

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is matching
var (
	ErrEncoding = errors.New("encoding error")
	ErrDecoding = errors.New("decoding error")
)

// EncodingError reports a command payload that cannot be put on the wire.
// Commands failing with EncodingError are dropped before any transport I/O.
type EncodingError struct {
	Op     Opcode // Opcode being encoded
	Field  string // Offending field (e.g. "steps", "row 3")
	Value  string // Offending value as received
	Reason string // Human-readable reason
}

// Error implements the error interface
func (e *EncodingError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("encode %s: %s %q: %s", e.Op, e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("encode %s: %s", e.Op, e.Reason)
}

// Is lets errors.Is(err, ErrEncoding) match any EncodingError
func (e *EncodingError) Is(target error) bool {
	return target == ErrEncoding
}

// DecodingError reports an inbound message that does not match the expected shape.
// A snapshot is never partially applied from a message failing with DecodingError.
type DecodingError struct {
	Length int    // Length of the rejected message
	Reason string // Human-readable reason
}

// Error implements the error interface
func (e *DecodingError) Error() string {
	return fmt.Sprintf("decode %d-byte message: %s", e.Length, e.Reason)
}

// Is lets errors.Is(err, ErrDecoding) match any DecodingError
func (e *DecodingError) Is(target error) bool {
	return target == ErrDecoding
}

// IsEncodingError checks if an error is an encoding error
func IsEncodingError(err error) bool {
	var encErr *EncodingError
	return errors.As(err, &encErr)
}

// IsDecodingError checks if an error is a decoding error
func IsDecodingError(err error) bool {
	var decErr *DecodingError
	return errors.As(err, &decErr)
}
