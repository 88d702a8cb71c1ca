package binary

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crowmoor/wazerocore/internal/wasm"
)

func TestDecodeValueType(t *testing.T) {
	for _, b := range []byte{
		wasm.ValueTypeI32, wasm.ValueTypeI64, wasm.ValueTypeF32, wasm.ValueTypeF64,
		wasm.ValueTypeFuncref, wasm.ValueTypeExternref,
	} {
		vt, err := decodeValueType(bytes.NewReader([]byte{b}))
		require.NoError(t, err)
		require.Equal(t, b, vt)
	}

	_, err := decodeValueType(bytes.NewReader([]byte{0x00}))
	require.ErrorIs(t, err, errInvalidEncoding)
}

func TestDecodeBlockType(t *testing.T) {
	bt, err := decodeBlockType(bytes.NewReader([]byte{0x40}))
	require.NoError(t, err)
	require.True(t, bt.Empty)

	bt, err = decodeBlockType(bytes.NewReader([]byte{wasm.ValueTypeI32}))
	require.NoError(t, err)
	require.False(t, bt.Empty)
	require.Equal(t, wasm.ValueType(wasm.ValueTypeI32), bt.ValType)

	// A positive type-index form (multi-value block types) is a valid LEB128 byte but not one of the two forms
	// this decoder supports.
	_, err = decodeBlockType(bytes.NewReader([]byte{0x05}))
	require.ErrorIs(t, err, errUnsupported)
}

func TestDecodeLimits(t *testing.T) {
	// flag 0: min only.
	lim, err := decodeLimits(bytes.NewReader([]byte{0x00, 0x01}))
	require.NoError(t, err)
	require.Equal(t, uint32(1), lim.Min)
	require.Nil(t, lim.Max)

	// flag 1: min and max both present.
	lim, err = decodeLimits(bytes.NewReader([]byte{0x01, 0x01, 0x02}))
	require.NoError(t, err)
	require.Equal(t, uint32(1), lim.Min)
	require.NotNil(t, lim.Max)
	require.Equal(t, uint32(2), *lim.Max)
}

func TestDecodeUTF8_ZeroLength(t *testing.T) {
	s, n, err := decodeUTF8(bytes.NewReader([]byte{0x00}), "test")
	require.NoError(t, err)
	require.Equal(t, "", s)
	require.Equal(t, uint32(0), n)
}

func TestDecodeUTF8_InvalidBytes(t *testing.T) {
	_, _, err := decodeUTF8(bytes.NewReader([]byte{0x02, 0xff, 0xfe}), "test")
	require.Error(t, err)
}

func TestDecodeRefType(t *testing.T) {
	rt, err := decodeRefType(bytes.NewReader([]byte{wasm.RefTypeFuncref}))
	require.NoError(t, err)
	require.Equal(t, wasm.RefType(wasm.RefTypeFuncref), rt)

	_, err = decodeRefType(bytes.NewReader([]byte{wasm.ValueTypeI32}))
	require.ErrorIs(t, err, errInvalidEncoding)
}
