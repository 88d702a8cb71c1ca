package binary

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/crowmoor/wazerocore/internal/leb128"
	"github.com/crowmoor/wazerocore/internal/wasm"
)

// newByteSliceReader wraps a []byte as a *bytes.Reader, which satisfies unreadByter and so works with every
// helper in this file. Used for sub-payloads that have already been sliced out of their parent stream, such as
// a name section's subsections.
func newByteSliceReader(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}

// blockTypeEmpty is the sentinel byte distinguishing an empty BlockType from a one-byte ValueType.
const blockTypeEmpty = 0x40

func decodeValueType(r io.Reader) (wasm.ValueType, error) {
	b, err := readByte(r)
	if err != nil {
		return 0, fmt.Errorf("read value type: %w", err)
	}
	switch b {
	case wasm.ValueTypeI32, wasm.ValueTypeI64, wasm.ValueTypeF32, wasm.ValueTypeF64,
		wasm.ValueTypeFuncref, wasm.ValueTypeExternref:
		return b, nil
	default:
		return 0, fmt.Errorf("%w: invalid value type: %#x", errInvalidEncoding, b)
	}
}

func decodeValueTypes(r io.Reader, count uint32) ([]wasm.ValueType, error) {
	if count == 0 {
		return nil, nil
	}
	ret := make([]wasm.ValueType, count)
	for i := range ret {
		vt, err := decodeValueType(r)
		if err != nil {
			return nil, fmt.Errorf("read %d-th value type: %w", i, err)
		}
		ret[i] = vt
	}
	return ret, nil
}

// decodeRefType reads a ValueType restricted to the funcref/externref subset used by tables and ref.null/ref.func.
func decodeRefType(r io.Reader) (wasm.RefType, error) {
	b, err := readByte(r)
	if err != nil {
		return 0, fmt.Errorf("read ref type: %w", err)
	}
	switch b {
	case wasm.RefTypeFuncref, wasm.RefTypeExternref:
		return b, nil
	default:
		return 0, fmt.Errorf("%w: invalid ref type: %#x", errInvalidEncoding, b)
	}
}

// decodeBlockType reads the blocktype immediate of block/loop/if: either the empty sentinel, a single ValueType,
// or (per the reference-types/multi-value binary format) a signed 33-bit type index. This decoder only supports
// the first two forms, matching the MVP scope; a type-indexed block type is reported as ErrUnsupported since
// resolving it requires the type section, which isn't available to the instruction decoder in isolation.
func decodeBlockType(r io.Reader) (wasm.BlockType, error) {
	b, err := peekByte(r)
	if err != nil {
		return wasm.BlockType{}, fmt.Errorf("read block type: %w", err)
	}
	if b == blockTypeEmpty {
		_, _ = readByte(r)
		return wasm.BlockType{Empty: true}, nil
	}
	switch b {
	case wasm.ValueTypeI32, wasm.ValueTypeI64, wasm.ValueTypeF32, wasm.ValueTypeF64,
		wasm.ValueTypeFuncref, wasm.ValueTypeExternref:
		_, _ = readByte(r)
		return wasm.BlockType{ValType: b}, nil
	}
	return wasm.BlockType{}, fmt.Errorf("%w: function-type-indexed block types are not decoded", errUnsupported)
}

// decodeLimits reads the flag-byte form of Limits mandated by spec: bit 0 of the flag indicates a present Max.
func decodeLimits(r io.Reader) (wasm.Limits, error) {
	flag, err := readByte(r)
	if err != nil {
		return wasm.Limits{}, fmt.Errorf("read limits flag: %w", err)
	}
	min, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return wasm.Limits{}, fmt.Errorf("read limits min: %w", err)
	}
	lim := wasm.Limits{Min: min}
	if flag&0x01 != 0 {
		max, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return wasm.Limits{}, fmt.Errorf("read limits max: %w", err)
		}
		lim.Max = &max
	}
	return lim, nil
}

func decodeTableType(r io.Reader) (*wasm.TableType, error) {
	elemType, err := decodeRefType(r)
	if err != nil {
		return nil, fmt.Errorf("read table element type: %w", err)
	}
	limits, err := decodeLimits(r)
	if err != nil {
		return nil, fmt.Errorf("read table limits: %w", err)
	}
	return &wasm.TableType{ElemType: elemType, Limits: limits}, nil
}

func decodeMemoryType(r io.Reader) (*wasm.MemoryType, error) {
	limits, err := decodeLimits(r)
	if err != nil {
		return nil, fmt.Errorf("read memory limits: %w", err)
	}
	m := wasm.MemoryType(limits)
	return &m, nil
}

func decodeGlobalType(r io.Reader) (*wasm.GlobalType, error) {
	vt, err := decodeValueType(r)
	if err != nil {
		return nil, fmt.Errorf("read global value type: %w", err)
	}
	mutFlag, err := readByte(r)
	if err != nil {
		return nil, fmt.Errorf("read global mutability: %w", err)
	}
	return &wasm.GlobalType{ValType: vt, Mutable: mutFlag == 0x01}, nil
}

// decodeUTF8 reads a length-prefixed UTF-8 string, the encoding used for import/export names, custom section
// names, and the name section's identifiers.
func decodeUTF8(r io.Reader, contextErrorMsg string) (string, uint32, error) {
	size, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read %s size: %w", contextErrorMsg, err)
	}
	if size == 0 {
		return "", 0, nil
	}
	buf := make([]byte, size)
	if _, err = io.ReadFull(r, buf); err != nil {
		return "", 0, fmt.Errorf("failed to read %s: %w", contextErrorMsg, err)
	}
	if !utf8.Valid(buf) {
		return "", 0, fmt.Errorf("%s: invalid UTF-8", contextErrorMsg)
	}
	return string(buf), size, nil
}

func readByte(r io.Reader) (byte, error) {
	if br, ok := r.(io.ByteReader); ok {
		return br.ReadByte()
	}
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// peekByte is only valid against a *bytes.Reader or *sectionReader, both of which back onto a *bytes.Reader and
// so support UnreadByte after ReadByte.
type unreadByter interface {
	io.ByteReader
	UnreadByte() error
}

func peekByte(r io.Reader) (byte, error) {
	ur, ok := r.(unreadByter)
	if !ok {
		return readByte(r)
	}
	b, err := ur.ReadByte()
	if err != nil {
		return 0, err
	}
	_ = ur.UnreadByte()
	return b, nil
}
