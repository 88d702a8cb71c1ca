package binary

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crowmoor/wazerocore/internal/wasm"
)

func TestDecodeInstruction_SelectWithType(t *testing.T) {
	// select_with_type, one result type: i32.
	inst, err := decodeInstruction(bytes.NewReader([]byte{wasm.OpcodeSelectWithType, 0x01, wasm.ValueTypeI32}))
	require.NoError(t, err)
	require.Equal(t, wasm.ImmediateValueTypeVector, inst.Immediate.Kind)
	require.Equal(t, []wasm.ValueType{wasm.ValueTypeI32}, inst.Immediate.TypeVector)
}

func TestDecodeInstruction_SelectWithType_ZeroLength(t *testing.T) {
	inst, err := decodeInstruction(bytes.NewReader([]byte{wasm.OpcodeSelectWithType, 0x00}))
	require.NoError(t, err)
	require.Equal(t, wasm.ImmediateValueTypeVector, inst.Immediate.Kind)
	require.Empty(t, inst.Immediate.TypeVector)
}

func TestDecodeInstruction_BrTable(t *testing.T) {
	// br_table with two labels (0, 1) and default label 2.
	inst, err := decodeInstruction(bytes.NewReader([]byte{wasm.OpcodeBrTable, 0x02, 0x00, 0x01, 0x02}))
	require.NoError(t, err)
	require.Equal(t, wasm.ImmediateLabelIndexVector, inst.Immediate.Kind)
	require.Equal(t, []wasm.Index{0, 1, 2}, inst.Immediate.IndexVector)
}

func TestDecodeInstruction_MemArg(t *testing.T) {
	inst, err := decodeInstruction(bytes.NewReader([]byte{wasm.OpcodeI32Load, 0x02, 0x04}))
	require.NoError(t, err)
	require.Equal(t, wasm.ImmediateMemArg, inst.Immediate.Kind)
	require.Equal(t, wasm.MemArg{Align: 2, Offset: 4}, inst.Immediate.MemArg)
}

func TestDecodeInstruction_RefNull(t *testing.T) {
	inst, err := decodeInstruction(bytes.NewReader([]byte{wasm.OpcodeRefNull, wasm.RefTypeExternref}))
	require.NoError(t, err)
	require.Equal(t, wasm.ImmediateRefType, inst.Immediate.Kind)
	require.Equal(t, wasm.RefType(wasm.RefTypeExternref), inst.Immediate.RefType)
}

func TestDecodeInstruction_F32ConstPreservesNaNBits(t *testing.T) {
	// 0x7fc00001: a quiet NaN with a non-zero payload, little-endian encoded.
	inst, err := decodeInstruction(bytes.NewReader([]byte{wasm.OpcodeF32Const, 0x01, 0x00, 0xc0, 0x7f}))
	require.NoError(t, err)
	require.Equal(t, wasm.ImmediateF32Bits, inst.Immediate.Kind)
	require.Equal(t, uint32(0x7fc00001), inst.Immediate.F32Bits)
}

func TestDecodeInstruction_I64ConstNegative(t *testing.T) {
	inst, err := decodeInstruction(bytes.NewReader([]byte{wasm.OpcodeI64Const, 0x7f}))
	require.NoError(t, err)
	require.Equal(t, wasm.ImmediateI64, inst.Immediate.Kind)
	require.Equal(t, int64(-1), inst.Immediate.I64)
}

func TestDecodeInstruction_MiscTruncSat(t *testing.T) {
	inst, err := decodeInstruction(bytes.NewReader([]byte{wasm.OpcodeMiscPrefix, wasm.OpcodeMiscI32TruncSatF32S}))
	require.NoError(t, err)
	require.Equal(t, wasm.OpcodeMiscPrefix, inst.Opcode)
	require.Equal(t, wasm.OpcodeMiscI32TruncSatF32S, inst.Misc)
	require.Equal(t, wasm.ImmediateNone, inst.Immediate.Kind)
}

func TestDecodeInstruction_MiscTableGrow(t *testing.T) {
	inst, err := decodeInstruction(bytes.NewReader([]byte{wasm.OpcodeMiscPrefix, wasm.OpcodeMiscTableGrow, 0x03}))
	require.NoError(t, err)
	require.Equal(t, wasm.ImmediateTableIndex, inst.Immediate.Kind)
	require.Equal(t, wasm.Index(3), inst.Immediate.Index)
}

func TestDecodeInstruction_MiscDataDrop(t *testing.T) {
	inst, err := decodeInstruction(bytes.NewReader([]byte{wasm.OpcodeMiscPrefix, wasm.OpcodeMiscDataDrop, 0x05}))
	require.NoError(t, err)
	require.Equal(t, wasm.ImmediateDataIndex, inst.Immediate.Kind)
	require.Equal(t, wasm.Index(5), inst.Immediate.Index)
}

func TestDecodeInstruction_UnknownOpcode(t *testing.T) {
	_, err := decodeInstruction(bytes.NewReader([]byte{0xff}))
	require.ErrorIs(t, err, errInvalidEncoding)
}

func TestDecodeInstruction_BareArithmeticOpcode(t *testing.T) {
	inst, err := decodeInstruction(bytes.NewReader([]byte{wasm.OpcodeI32Add}))
	require.NoError(t, err)
	require.Equal(t, wasm.ImmediateNone, inst.Immediate.Kind)
}
