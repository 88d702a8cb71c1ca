package binary

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crowmoor/wazerocore/internal/wasm"
)

func TestDecodeConstantExpression_I32Const(t *testing.T) {
	expr, err := decodeConstantExpression(bytes.NewReader([]byte{wasm.OpcodeI32Const, 0x7f, wasm.OpcodeEnd}))
	require.NoError(t, err)
	require.Equal(t, wasm.OpcodeI32Const, expr.Opcode)
	require.Equal(t, int32(-1), expr.AsI32())
}

func TestDecodeConstantExpression_GlobalGet(t *testing.T) {
	expr, err := decodeConstantExpression(bytes.NewReader([]byte{wasm.OpcodeGlobalGet, 0x02, wasm.OpcodeEnd}))
	require.NoError(t, err)
	require.Equal(t, wasm.Index(2), expr.AsGlobalIndex())
}

func TestDecodeConstantExpression_MissingEnd(t *testing.T) {
	_, err := decodeConstantExpression(bytes.NewReader([]byte{wasm.OpcodeI32Const, 0x00, wasm.OpcodeNop}))
	require.ErrorIs(t, err, errMissingEnd)
}

func TestDecodeConstantExpression_InvalidOpcode(t *testing.T) {
	_, err := decodeConstantExpression(bytes.NewReader([]byte{wasm.OpcodeNop}))
	require.ErrorIs(t, err, errInvalidEncoding)
}
