package protocol

import (
	"fmt"
	"strings"
)

// LED matrix geometry
const (
	MatrixRows      = 5
	MatrixCols      = 5
	MatrixSeparator = ":"
)

// BlankMatrix is the all-off matrix string
const BlankMatrix = "00000:00000:00000:00000:00000"

// Matrix is a decoded 5x5 LED matrix, one byte per row.
// Bit 4 of each row is the leftmost column, bit 0 the rightmost.
type Matrix [MatrixRows]byte

// EncodeMatrix parses a colon-separated matrix string into row bytes.
//
// The string must contain exactly 5 groups of exactly 5 characters, each '0'
// or '1'. Each group is read as a base-2 number:
//
//	"00000" -> 0
//	"10001" -> 17
//	"11111" -> 31
func EncodeMatrix(s string) (Matrix, error) {
	var m Matrix

	rows := strings.Split(s, MatrixSeparator)
	if len(rows) != MatrixRows {
		return m, &EncodingError{
			Op:     OpDisplayMatrix,
			Field:  "matrix",
			Value:  s,
			Reason: fmt.Sprintf("want %d groups separated by %q, got %d", MatrixRows, MatrixSeparator, len(rows)),
		}
	}

	for i, row := range rows {
		if len(row) != MatrixCols {
			return m, &EncodingError{
				Op:     OpDisplayMatrix,
				Field:  fmt.Sprintf("row %d", i+1),
				Value:  row,
				Reason: fmt.Sprintf("want %d binary digits, got %d characters", MatrixCols, len(row)),
			}
		}

		var b byte
		for _, c := range row {
			switch c {
			case '0':
				b <<= 1
			case '1':
				b = b<<1 | 1
			default:
				return m, &EncodingError{
					Op:     OpDisplayMatrix,
					Field:  fmt.Sprintf("row %d", i+1),
					Value:  row,
					Reason: fmt.Sprintf("invalid character %q (want '0' or '1')", c),
				}
			}
		}
		m[i] = b
	}

	return m, nil
}

// String re-expands each row to five binary digits joined with ':'.
// For any valid matrix string s, EncodeMatrix(s) then String() returns s.
func (m Matrix) String() string {
	rows := make([]string, MatrixRows)
	for i, b := range m {
		rows[i] = fmt.Sprintf("%05b", b&0x1F)
	}
	return strings.Join(rows, MatrixSeparator)
}

// Pixel reports whether the LED at row, col is lit. Out-of-range positions are off.
func (m Matrix) Pixel(row, col int) bool {
	if row < 0 || row >= MatrixRows || col < 0 || col >= MatrixCols {
		return false
	}
	return m[row]&(1<<(MatrixCols-1-col)) != 0
}

// Bytes returns the rows as a payload slice
func (m Matrix) Bytes() []byte {
	out := make([]byte, MatrixRows)
	copy(out, m[:])
	return out
}
