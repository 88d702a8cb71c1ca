package binary

import (
	"bytes"
	"fmt"
	"io"

	"github.com/crowmoor/wazerocore/internal/ieee754"
	"github.com/crowmoor/wazerocore/internal/leb128"
	"github.com/crowmoor/wazerocore/internal/wasm"
)

// decodeConstantExpression implements the EXPECT_CONST_OP -> EXPECT_END state machine: one constant-producing
// opcode, then its immediate, then a mandatory terminating end. Data retains exactly the immediate's raw bytes
// (not the opcode or the end), so a caller can re-decode i32/i64/f32/f64/global-index payloads lazily via the
// As* accessors on wasm.ConstantExpression without this package keeping every expression pre-decoded.
func decodeConstantExpression(r io.Reader) (*wasm.ConstantExpression, error) {
	opcode, err := readByte(r)
	if err != nil {
		return nil, fmt.Errorf("read opcode: %w", err)
	}

	var buf bytes.Buffer
	tee := io.TeeReader(r, &buf)

	switch opcode {
	case wasm.OpcodeI32Const:
		_, _, err = leb128.DecodeInt32(tee)
	case wasm.OpcodeI64Const:
		_, _, err = leb128.DecodeInt64(tee)
	case wasm.OpcodeF32Const:
		_, err = ieee754.DecodeFloat32Bits(tee)
	case wasm.OpcodeF64Const:
		_, err = ieee754.DecodeFloat64Bits(tee)
	case wasm.OpcodeGlobalGet:
		_, _, err = leb128.DecodeUint32(tee)
	case wasm.OpcodeRefNull:
		_, err = decodeRefType(tee)
	case wasm.OpcodeRefFunc:
		_, _, err = leb128.DecodeUint32(tee)
	default:
		return nil, fmt.Errorf("%w: invalid const expression opcode: %#x", errInvalidEncoding, opcode)
	}
	if err != nil {
		return nil, fmt.Errorf("read const expression value: %w", err)
	}

	end, err := readByte(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMissingEnd, err)
	}
	if end != wasm.OpcodeEnd {
		return nil, fmt.Errorf("%w: constant expression terminated by %#x, not end", errMissingEnd, end)
	}

	data := make([]byte, buf.Len())
	copy(data, buf.Bytes())
	return &wasm.ConstantExpression{Opcode: opcode, Data: data}, nil
}
