// Package leb128 implements LEB128 (Little Endian Base 128), the variable-length integer encoding used throughout
// the WebAssembly Binary Format for vector/section lengths, indices and constant immediates.
//
// Two decoding surfaces are provided: the Load* functions operate directly on a byte slice and make no
// allocations, for use in hot paths such as instruction decoding; the Decode* functions operate on an io.Reader
// for use against section sub-streams of unknown remaining length. Both reject encodings that overrun their target
// width the way validating WebAssembly decoders must: continuation bytes past the maximum length for the result
// type, or bits beyond the result width set in the final byte, are malformed encodings. Redundant zero-valued
// continuation groups within the maximum length (such as 0x80 0x00 for 0) are accepted.
//
// See https://www.w3.org/TR/wasm-core-1/#binary-int
package leb128

import (
	"errors"
	"fmt"
	"io"
)

// ErrOverflow is wrapped by any error returned because a LEB128 encoding exceeded the bit width being decoded, or
// used more continuation bytes than the format allows for that width.
var ErrOverflow = errors.New("leb128: overflow")

const (
	maxVarintLen32 = 5
	maxVarintLen33 = 5
	maxVarintLen64 = 10
)

// EncodeUint32 encodes v as unsigned LEB128.
func EncodeUint32(v uint32) []byte {
	return EncodeUint64(uint64(v))
}

// EncodeUint64 encodes v as unsigned LEB128.
func EncodeUint64(v uint64) (ret []byte) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			ret = append(ret, b|0x80)
		} else {
			ret = append(ret, b)
			return
		}
	}
}

// EncodeInt32 encodes v as signed LEB128.
func EncodeInt32(v int32) []byte {
	return EncodeInt64(int64(v))
}

// EncodeInt64 encodes v as signed LEB128.
func EncodeInt64(v int64) (ret []byte) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			ret = append(ret, b)
			return
		}
		ret = append(ret, b|0x80)
	}
}

// LoadUint32 decodes an unsigned 32-bit LEB128 value directly from buf, returning the decoded value, the number
// of bytes consumed, and an error if buf is empty, ends without a terminating byte, or overflows 32 bits.
func LoadUint32(buf []byte) (ret uint32, bytesRead uint64, err error) {
	v, n, err := loadUvarint(buf, 32)
	return uint32(v), n, err
}

// LoadUint64 decodes an unsigned 64-bit LEB128 value directly from buf.
func LoadUint64(buf []byte) (ret uint64, bytesRead uint64, err error) {
	return loadUvarint(buf, 64)
}

// LoadInt32 decodes a signed 32-bit LEB128 value directly from buf.
func LoadInt32(buf []byte) (ret int32, bytesRead uint64, err error) {
	v, n, err := loadVarint(buf, 32)
	return int32(v), n, err
}

// LoadInt64 decodes a signed 64-bit LEB128 value directly from buf.
func LoadInt64(buf []byte) (ret int64, bytesRead uint64, err error) {
	return loadVarint(buf, 64)
}

func loadUvarint(buf []byte, width uint) (result uint64, n uint64, err error) {
	var shift uint
	maxLen := maxVarintLen32
	if width == 64 {
		maxLen = maxVarintLen64
	}
	for i := 0; ; i++ {
		if i == maxLen {
			return 0, 0, fmt.Errorf("%w: exceeds %d bytes", ErrOverflow, maxLen)
		}
		if i >= len(buf) {
			return 0, 0, io.ErrUnexpectedEOF
		}
		b := buf[i]
		if shift == uint(maxLen-1)*7 {
			// Final permitted byte: every bit beyond width must be zero.
			var mask byte
			if width == 32 {
				mask = 0xf0
			} else {
				mask = 0xfe
			}
			if b&0x80 != 0 && (i+1) == maxLen {
				return 0, 0, fmt.Errorf("%w: exceeds %d bytes", ErrOverflow, maxLen)
			}
			if b&mask != 0 && b&0x80 == 0 {
				return 0, 0, fmt.Errorf("%w: unused bits set in final byte", ErrOverflow)
			}
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, uint64(i + 1), nil
		}
		shift += 7
	}
}

func loadVarint(buf []byte, width uint) (result int64, n uint64, err error) {
	var shift uint
	var b byte
	maxLen := maxVarintLen32
	if width == 64 {
		maxLen = maxVarintLen64
	}
	i := 0
	for ; ; i++ {
		if i == maxLen {
			return 0, 0, fmt.Errorf("%w: exceeds %d bytes", ErrOverflow, maxLen)
		}
		if i >= len(buf) {
			return 0, 0, io.ErrUnexpectedEOF
		}
		b = buf[i]
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	if shift < 64 && b&0x40 != 0 {
		result |= -1 << shift
	}
	if width < 64 {
		// The sign-extended result must round-trip through the requested width.
		asWidth := result << (64 - width) >> (64 - width)
		if asWidth != result {
			return 0, 0, fmt.Errorf("%w: does not fit in %d bits", ErrOverflow, width)
		}
	}
	return result, uint64(i + 1), nil
}

// byteReader adapts an io.Reader lacking ReadByte, avoiding an allocation for the common *bytes.Reader case.
type byteReader interface {
	io.Reader
	io.ByteReader
}

func asByteReader(r io.Reader) byteReader {
	if br, ok := r.(byteReader); ok {
		return br
	}
	return &singleByteReader{r}
}

type singleByteReader struct{ io.Reader }

func (s *singleByteReader) ReadByte() (byte, error) {
	var buf [1]byte
	_, err := io.ReadFull(s, buf[:])
	return buf[0], err
}

// DecodeUint32 decodes an unsigned 32-bit LEB128 value from r, returning the decoded value and the number of
// bytes consumed.
func DecodeUint32(r io.Reader) (uint32, uint64, error) {
	v, n, err := decodeUvarint(r, 32)
	return uint32(v), n, err
}

// DecodeUint64 decodes an unsigned 64-bit LEB128 value from r.
func DecodeUint64(r io.Reader) (uint64, uint64, error) {
	return decodeUvarint(r, 64)
}

// DecodeInt32 decodes a signed 32-bit LEB128 value from r.
func DecodeInt32(r io.Reader) (int32, uint64, error) {
	v, n, err := decodeVarint(r, 32)
	return int32(v), n, err
}

// DecodeInt64 decodes a signed 64-bit LEB128 value from r.
func DecodeInt64(r io.Reader) (int64, uint64, error) {
	return decodeVarint(r, 64)
}

// DecodeInt33AsInt64 decodes a signed 33-bit LEB128 value, the encoding used by the memarg-free block type
// immediate's s33 type index form, sign-extended into an int64.
func DecodeInt33AsInt64(r io.Reader) (int64, uint64, error) {
	return decodeVarintWidth(r, 33, maxVarintLen33)
}

func decodeUvarint(r io.Reader, width uint) (result uint64, n uint64, err error) {
	br := asByteReader(r)
	var shift uint
	maxLen := maxVarintLen32
	if width == 64 {
		maxLen = maxVarintLen64
	}
	for i := 0; ; i++ {
		if i == maxLen {
			return 0, 0, fmt.Errorf("%w: exceeds %d bytes", ErrOverflow, maxLen)
		}
		b, rerr := br.ReadByte()
		if rerr != nil {
			if rerr == io.EOF {
				rerr = io.ErrUnexpectedEOF
			}
			return 0, 0, rerr
		}
		if i == maxLen-1 && b&0x80 == 0 {
			// Final permitted byte: every bit beyond width must be zero.
			mask := byte(0xf0)
			if width == 64 {
				mask = 0xfe
			}
			if b&mask != 0 {
				return 0, 0, fmt.Errorf("%w: unused bits set in final byte", ErrOverflow)
			}
		}
		result |= uint64(b&0x7f) << shift
		n++
		if b&0x80 == 0 {
			return result, n, nil
		}
		shift += 7
	}
}

func decodeVarint(r io.Reader, width uint) (int64, uint64, error) {
	maxLen := maxVarintLen32
	if width == 64 {
		maxLen = maxVarintLen64
	}
	return decodeVarintWidth(r, width, maxLen)
}

func decodeVarintWidth(r io.Reader, width uint, maxLen int) (result int64, n uint64, err error) {
	br := asByteReader(r)
	var shift uint
	var b byte
	for i := 0; ; i++ {
		if i == maxLen {
			return 0, 0, fmt.Errorf("%w: exceeds %d bytes", ErrOverflow, maxLen)
		}
		b, err = br.ReadByte()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return 0, 0, err
		}
		result |= int64(b&0x7f) << shift
		shift += 7
		n++
		if b&0x80 == 0 {
			break
		}
	}
	if shift < 64 && b&0x40 != 0 {
		result |= -1 << shift
	}
	if width < 64 {
		asWidth := result << (64 - width) >> (64 - width)
		if asWidth != result {
			return 0, 0, fmt.Errorf("%w: does not fit in %d bits", ErrOverflow, width)
		}
	}
	return result, n, nil
}
