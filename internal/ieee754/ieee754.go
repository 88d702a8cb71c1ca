// Package ieee754 decodes the little-endian IEEE 754 bit patterns used by the f32.const and f64.const
// instructions and by data that otherwise embeds floating point constants.
package ieee754

import (
	"encoding/binary"
	"io"
	"math"
)

// DecodeFloat32Bits reads 4 little-endian bytes from r and returns their raw bit pattern. Callers that need a
// float32 use math.Float32frombits on the result; the raw bits are kept separate so NaN payloads survive
// round-tripping, which a float32 comparison would not preserve.
func DecodeFloat32Bits(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// DecodeFloat64Bits reads 8 little-endian bytes from r and returns their raw bit pattern.
func DecodeFloat64Bits(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// DecodeFloat32 reads a float32 from r.
func DecodeFloat32(r io.Reader) (float32, error) {
	bits, err := DecodeFloat32Bits(r)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(bits), nil
}

// DecodeFloat64 reads a float64 from r.
func DecodeFloat64(r io.Reader) (float64, error) {
	bits, err := DecodeFloat64Bits(r)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}
