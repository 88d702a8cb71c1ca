package binary

import (
	"fmt"
	"io"

	"github.com/crowmoor/wazerocore/internal/ieee754"
	"github.com/crowmoor/wazerocore/internal/leb128"
	"github.com/crowmoor/wazerocore/internal/wasm"
)

// decodeInstruction reads one opcode byte and whatever immediate it carries, dispatching on the opcode's
// encoded shape. The function body loop in section_code.go calls this repeatedly until the opcode read is
// wasm.OpcodeEnd at nesting depth zero.
func decodeInstruction(r io.Reader) (wasm.Instruction, error) {
	op, err := readByte(r)
	if err != nil {
		return wasm.Instruction{}, fmt.Errorf("read opcode: %w", err)
	}

	if op == wasm.OpcodeMiscPrefix {
		return decodeMiscInstruction(r)
	}

	inst := wasm.Instruction{Opcode: op}
	switch op {
	case wasm.OpcodeBlock, wasm.OpcodeLoop, wasm.OpcodeIf:
		bt, err := decodeBlockType(r)
		if err != nil {
			return wasm.Instruction{}, fmt.Errorf("read block type for %s: %w", wasm.InstructionName(op), err)
		}
		inst.Immediate = wasm.Immediate{Kind: wasm.ImmediateBlockType, BlockType: bt}

	case wasm.OpcodeUnreachable, wasm.OpcodeNop, wasm.OpcodeElse, wasm.OpcodeEnd,
		wasm.OpcodeReturn, wasm.OpcodeDrop, wasm.OpcodeSelect, wasm.OpcodeRefIsNull:
		// no immediate

	case wasm.OpcodeBr, wasm.OpcodeBrIf:
		idx, err := decodeIndex(r)
		if err != nil {
			return wasm.Instruction{}, fmt.Errorf("read label index for %s: %w", wasm.InstructionName(op), err)
		}
		inst.Immediate = wasm.Immediate{Kind: wasm.ImmediateLabelIndex, Index: idx}

	case wasm.OpcodeBrTable:
		// vec(labelidx) followed by one more labelidx, the default target: stored as one vector with the
		// default as its last element so the encoding order is preserved without a second field.
		labels, err := decodeIndexVector(r)
		if err != nil {
			return wasm.Instruction{}, fmt.Errorf("read br_table labels: %w", err)
		}
		def, err := decodeIndex(r)
		if err != nil {
			return wasm.Instruction{}, fmt.Errorf("read br_table default label: %w", err)
		}
		inst.Immediate = wasm.Immediate{Kind: wasm.ImmediateLabelIndexVector, IndexVector: append(labels, def)}

	case wasm.OpcodeCall, wasm.OpcodeRefFunc:
		idx, err := decodeIndex(r)
		if err != nil {
			return wasm.Instruction{}, fmt.Errorf("read function index for %s: %w", wasm.InstructionName(op), err)
		}
		inst.Immediate = wasm.Immediate{Kind: wasm.ImmediateFuncIndex, Index: idx}

	case wasm.OpcodeCallIndirect:
		typeIdx, err := decodeIndex(r)
		if err != nil {
			return wasm.Instruction{}, fmt.Errorf("read call_indirect type index: %w", err)
		}
		tableIdx, err := decodeIndex(r)
		if err != nil {
			return wasm.Instruction{}, fmt.Errorf("read call_indirect table index: %w", err)
		}
		inst.Immediate = wasm.Immediate{Kind: wasm.ImmediateIndexPair, Pair: [2]wasm.Index{typeIdx, tableIdx}}

	case wasm.OpcodeSelectWithType:
		count, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return wasm.Instruction{}, fmt.Errorf("read select_with_type result count: %w", err)
		}
		types, err := decodeValueTypes(r, count)
		if err != nil {
			return wasm.Instruction{}, fmt.Errorf("read select_with_type result types: %w", err)
		}
		inst.Immediate = wasm.Immediate{Kind: wasm.ImmediateValueTypeVector, TypeVector: types}

	case wasm.OpcodeLocalGet, wasm.OpcodeLocalSet, wasm.OpcodeLocalTee:
		idx, err := decodeIndex(r)
		if err != nil {
			return wasm.Instruction{}, fmt.Errorf("read local index for %s: %w", wasm.InstructionName(op), err)
		}
		inst.Immediate = wasm.Immediate{Kind: wasm.ImmediateLocalIndex, Index: idx}

	case wasm.OpcodeGlobalGet, wasm.OpcodeGlobalSet:
		idx, err := decodeIndex(r)
		if err != nil {
			return wasm.Instruction{}, fmt.Errorf("read global index for %s: %w", wasm.InstructionName(op), err)
		}
		inst.Immediate = wasm.Immediate{Kind: wasm.ImmediateGlobalIndex, Index: idx}

	case wasm.OpcodeTableGet, wasm.OpcodeTableSet:
		idx, err := decodeIndex(r)
		if err != nil {
			return wasm.Instruction{}, fmt.Errorf("read table index for %s: %w", wasm.InstructionName(op), err)
		}
		inst.Immediate = wasm.Immediate{Kind: wasm.ImmediateTableIndex, Index: idx}

	case wasm.OpcodeI32Load, wasm.OpcodeI64Load, wasm.OpcodeF32Load, wasm.OpcodeF64Load,
		wasm.OpcodeI32Load8S, wasm.OpcodeI32Load8U, wasm.OpcodeI32Load16S, wasm.OpcodeI32Load16U,
		wasm.OpcodeI64Load8S, wasm.OpcodeI64Load8U, wasm.OpcodeI64Load16S, wasm.OpcodeI64Load16U,
		wasm.OpcodeI64Load32S, wasm.OpcodeI64Load32U,
		wasm.OpcodeI32Store, wasm.OpcodeI64Store, wasm.OpcodeF32Store, wasm.OpcodeF64Store,
		wasm.OpcodeI32Store8, wasm.OpcodeI32Store16, wasm.OpcodeI64Store8, wasm.OpcodeI64Store16, wasm.OpcodeI64Store32:
		ma, err := decodeMemArg(r)
		if err != nil {
			return wasm.Instruction{}, fmt.Errorf("read memarg for %s: %w", wasm.InstructionName(op), err)
		}
		inst.Immediate = wasm.Immediate{Kind: wasm.ImmediateMemArg, MemArg: ma}

	case wasm.OpcodeMemorySize, wasm.OpcodeMemoryGrow:
		// Encoded as a reserved memory index, always 0 in the MVP, but read as a ULEB128 u32 like every other
		// index immediate rather than assumed to be exactly one raw byte.
		idx, err := decodeIndex(r)
		if err != nil {
			return wasm.Instruction{}, fmt.Errorf("read reserved memory index for %s: %w", wasm.InstructionName(op), err)
		}
		inst.Immediate = wasm.Immediate{Kind: wasm.ImmediateMemoryIndex, Index: idx}

	case wasm.OpcodeI32Const:
		v, _, err := leb128.DecodeInt32(r)
		if err != nil {
			return wasm.Instruction{}, fmt.Errorf("read i32.const operand: %w", err)
		}
		inst.Immediate = wasm.Immediate{Kind: wasm.ImmediateI32, I32: v}

	case wasm.OpcodeI64Const:
		v, _, err := leb128.DecodeInt64(r)
		if err != nil {
			return wasm.Instruction{}, fmt.Errorf("read i64.const operand: %w", err)
		}
		inst.Immediate = wasm.Immediate{Kind: wasm.ImmediateI64, I64: v}

	case wasm.OpcodeF32Const:
		bits, err := ieee754.DecodeFloat32Bits(r)
		if err != nil {
			return wasm.Instruction{}, fmt.Errorf("read f32.const operand: %w", err)
		}
		inst.Immediate = wasm.Immediate{Kind: wasm.ImmediateF32Bits, F32Bits: bits}

	case wasm.OpcodeF64Const:
		bits, err := ieee754.DecodeFloat64Bits(r)
		if err != nil {
			return wasm.Instruction{}, fmt.Errorf("read f64.const operand: %w", err)
		}
		inst.Immediate = wasm.Immediate{Kind: wasm.ImmediateF64Bits, F64Bits: bits}

	case wasm.OpcodeRefNull:
		rt, err := decodeRefType(r)
		if err != nil {
			return wasm.Instruction{}, fmt.Errorf("read ref.null type: %w", err)
		}
		inst.Immediate = wasm.Immediate{Kind: wasm.ImmediateRefType, RefType: rt}

	default:
		// Every numeric/comparison/conversion opcode (i32.add, i32.eqz, f64.sqrt, ...) carries no immediate:
		// the operand count the opcode name suggests is all on the value stack, not the instruction stream.
		if !isBareOpcode(op) {
			return wasm.Instruction{}, fmt.Errorf("%w: unknown opcode %#x", errInvalidEncoding, op)
		}
	}

	return inst, nil
}

// decodeMiscInstruction handles the 0xFC secondary opcode family: a ULEB128-encoded secondary opcode selects
// among non-trapping float-to-int truncation (no immediate) and the bulk-memory/table operations.
func decodeMiscInstruction(r io.Reader) (wasm.Instruction, error) {
	misc, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return wasm.Instruction{}, fmt.Errorf("read misc opcode: %w", err)
	}
	if misc > 0xff {
		return wasm.Instruction{}, fmt.Errorf("%w: misc opcode %#x out of range", errInvalidEncoding, misc)
	}
	inst := wasm.Instruction{Opcode: wasm.OpcodeMiscPrefix, Misc: byte(misc)}

	switch byte(misc) {
	case wasm.OpcodeMiscI32TruncSatF32S, wasm.OpcodeMiscI32TruncSatF32U,
		wasm.OpcodeMiscI32TruncSatF64S, wasm.OpcodeMiscI32TruncSatF64U,
		wasm.OpcodeMiscI64TruncSatF32S, wasm.OpcodeMiscI64TruncSatF32U,
		wasm.OpcodeMiscI64TruncSatF64S, wasm.OpcodeMiscI64TruncSatF64U:
		// no immediate

	case wasm.OpcodeMiscMemoryInit:
		dataIdx, err := decodeIndex(r)
		if err != nil {
			return wasm.Instruction{}, fmt.Errorf("read memory.init data index: %w", err)
		}
		memIdx, err := decodeIndex(r) // reserved memory index, always 0 in the MVP encoding
		if err != nil {
			return wasm.Instruction{}, fmt.Errorf("read memory.init reserved memory index: %w", err)
		}
		inst.Immediate = wasm.Immediate{Kind: wasm.ImmediateIndexPair, Pair: [2]wasm.Index{dataIdx, memIdx}}

	case wasm.OpcodeMiscDataDrop:
		idx, err := decodeIndex(r)
		if err != nil {
			return wasm.Instruction{}, fmt.Errorf("read data.drop index: %w", err)
		}
		inst.Immediate = wasm.Immediate{Kind: wasm.ImmediateDataIndex, Index: idx}

	case wasm.OpcodeMiscMemoryCopy:
		dst, err := decodeIndex(r) // reserved destination memory index
		if err != nil {
			return wasm.Instruction{}, fmt.Errorf("read memory.copy reserved destination index: %w", err)
		}
		src, err := decodeIndex(r) // reserved source memory index
		if err != nil {
			return wasm.Instruction{}, fmt.Errorf("read memory.copy reserved source index: %w", err)
		}
		inst.Immediate = wasm.Immediate{Kind: wasm.ImmediateIndexPair, Pair: [2]wasm.Index{dst, src}}

	case wasm.OpcodeMiscMemoryFill:
		idx, err := decodeIndex(r) // reserved memory index
		if err != nil {
			return wasm.Instruction{}, fmt.Errorf("read memory.fill reserved memory index: %w", err)
		}
		inst.Immediate = wasm.Immediate{Kind: wasm.ImmediateMemoryIndex, Index: idx}

	case wasm.OpcodeMiscTableInit:
		elemIdx, err := decodeIndex(r)
		if err != nil {
			return wasm.Instruction{}, fmt.Errorf("read table.init elem index: %w", err)
		}
		tableIdx, err := decodeIndex(r)
		if err != nil {
			return wasm.Instruction{}, fmt.Errorf("read table.init table index: %w", err)
		}
		inst.Immediate = wasm.Immediate{Kind: wasm.ImmediateIndexPair, Pair: [2]wasm.Index{elemIdx, tableIdx}}

	case wasm.OpcodeMiscElemDrop:
		idx, err := decodeIndex(r)
		if err != nil {
			return wasm.Instruction{}, fmt.Errorf("read elem.drop index: %w", err)
		}
		inst.Immediate = wasm.Immediate{Kind: wasm.ImmediateElemIndex, Index: idx}

	case wasm.OpcodeMiscTableCopy:
		dst, err := decodeIndex(r)
		if err != nil {
			return wasm.Instruction{}, fmt.Errorf("read table.copy destination index: %w", err)
		}
		src, err := decodeIndex(r)
		if err != nil {
			return wasm.Instruction{}, fmt.Errorf("read table.copy source index: %w", err)
		}
		inst.Immediate = wasm.Immediate{Kind: wasm.ImmediateIndexPair, Pair: [2]wasm.Index{dst, src}}

	case wasm.OpcodeMiscTableGrow, wasm.OpcodeMiscTableSize, wasm.OpcodeMiscTableFill:
		idx, err := decodeIndex(r)
		if err != nil {
			return wasm.Instruction{}, fmt.Errorf("read table index: %w", err)
		}
		inst.Immediate = wasm.Immediate{Kind: wasm.ImmediateTableIndex, Index: idx}

	default:
		return wasm.Instruction{}, fmt.Errorf("%w: unknown misc opcode %#x", errInvalidEncoding, misc)
	}

	return inst, nil
}

// isBareOpcode reports whether op is a known opcode that carries no immediate: every arithmetic, comparison,
// and conversion instruction from i32.eqz through i64.extend32_s.
func isBareOpcode(op wasm.Opcode) bool {
	return wasm.InstructionName(op) != "" && op >= wasm.OpcodeI32Eqz && op <= wasm.OpcodeI64Extend32S
}

func decodeIndex(r io.Reader) (wasm.Index, error) {
	v, _, err := leb128.DecodeUint32(r)
	return v, err
}

func decodeIndexVector(r io.Reader) ([]wasm.Index, error) {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("read vector size: %w", err)
	}
	if count == 0 {
		return nil, nil
	}
	vec := make([]wasm.Index, count)
	for i := range vec {
		if vec[i], err = decodeIndex(r); err != nil {
			return nil, fmt.Errorf("read %d-th index: %w", i, err)
		}
	}
	return vec, nil
}

func decodeMemArg(r io.Reader) (wasm.MemArg, error) {
	align, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return wasm.MemArg{}, fmt.Errorf("read alignment: %w", err)
	}
	offset, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return wasm.MemArg{}, fmt.Errorf("read offset: %w", err)
	}
	return wasm.MemArg{Align: align, Offset: offset}, nil
}
