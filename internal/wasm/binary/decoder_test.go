package binary

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crowmoor/wazerocore/internal/arena"
	"github.com/crowmoor/wazerocore/internal/wasm"
)

func header() []byte {
	return []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
}

// addModule is the binary encoding of a module exporting one function, "add", of type (i32, i32) -> i32, whose
// body is local.get 0; local.get 1; i32.add; end.
func addModule() []byte {
	b := header()
	b = append(b, 0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f) // type section
	b = append(b, 0x03, 0x02, 0x01, 0x00)                              // function section
	b = append(b, 0x07, 0x07, 0x01, 0x03, 0x61, 0x64, 0x64, 0x00, 0x00) // export section: "add" func 0
	b = append(b, 0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b) // code section
	return b
}

// callIndirectModule encodes two functions of type () -> i32: function 0 returns the constant 42, function 1
// calls function 0 indirectly through a one-element table populated by an active element segment.
func callIndirectModule() []byte {
	b := header()
	b = append(b, 0x01, 0x05, 0x01, 0x60, 0x00, 0x01, 0x7f) // type section: type0 = () -> i32
	b = append(b, 0x03, 0x03, 0x02, 0x00, 0x00)             // function section: func0, func1 both type0
	b = append(b, 0x04, 0x04, 0x01, 0x70, 0x00, 0x01)       // table section: funcref, limits{min:1}
	b = append(b, 0x09, 0x07, 0x01, 0x00, 0x41, 0x00, 0x0b, 0x01, 0x00) // element section
	b = append(b, 0x0a, 0x0e, 0x02,
		0x04, 0x00, 0x41, 0x2a, 0x0b, // func0: i32.const 42; end
		0x07, 0x00, 0x41, 0x00, 0x11, 0x00, 0x00, 0x0b, // func1: i32.const 0; call_indirect 0 0; end
	)
	return b
}

func decodeBytes(t *testing.T, b []byte) (*wasm.Module, error) {
	t.Helper()
	ar := arena.New(0)
	return DecodeModule(bytes.NewReader(b), ar, zap.NewNop())
}

func TestDecodeModule_Empty(t *testing.T) {
	m, err := decodeBytes(t, header())
	require.NoError(t, err)
	require.Equal(t, uint32(1), m.Version)
	require.Empty(t, m.TypeSection)
	require.Empty(t, m.CodeSection)
}

func TestDecodeModule_Add(t *testing.T) {
	m, err := decodeBytes(t, addModule())
	require.NoError(t, err)

	require.Len(t, m.TypeSection, 1)
	require.Equal(t, []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32}, m.TypeSection[0].Params)
	require.Equal(t, []wasm.ValueType{wasm.ValueTypeI32}, m.TypeSection[0].Results)

	require.Len(t, m.ExportSection, 1)
	require.Equal(t, "add", m.ExportSection[0].Name)
	require.Equal(t, wasm.ExternTypeFunc, m.ExportSection[0].Type)
	require.Equal(t, wasm.Index(0), m.ExportSection[0].Index)

	require.Len(t, m.CodeSection, 1)
	body := m.CodeSection[0].Body
	require.Len(t, body, 4)
	require.Equal(t, wasm.OpcodeLocalGet, body[0].Opcode)
	require.Equal(t, wasm.Index(0), body[0].Immediate.Index)
	require.Equal(t, wasm.OpcodeLocalGet, body[1].Opcode)
	require.Equal(t, wasm.Index(1), body[1].Immediate.Index)
	require.Equal(t, wasm.OpcodeI32Add, body[2].Opcode)
	require.Equal(t, wasm.ImmediateNone, body[2].Immediate.Kind)
	require.Equal(t, wasm.OpcodeEnd, body[3].Opcode)
}

func TestDecodeModule_CallIndirect(t *testing.T) {
	m, err := decodeBytes(t, callIndirectModule())
	require.NoError(t, err)

	require.Len(t, m.TableSection, 1)
	require.Equal(t, wasm.RefTypeFuncref, m.TableSection[0].ElemType)

	require.Len(t, m.ElementSection, 1)
	elem := m.ElementSection[0]
	require.Equal(t, wasm.Index(0), elem.TableIndex)
	require.Equal(t, []wasm.Index{0}, elem.Init)
	require.Equal(t, int32(0), elem.OffsetExpr.AsI32())

	require.Len(t, m.CodeSection, 2)
	callInst := m.CodeSection[1].Body[1]
	require.Equal(t, wasm.OpcodeCallIndirect, callInst.Opcode)
	require.Equal(t, wasm.ImmediateIndexPair, callInst.Immediate.Kind)
	require.Equal(t, [2]wasm.Index{0, 0}, callInst.Immediate.Pair)
}

func TestDecodeModule_BadMagic(t *testing.T) {
	b := append([]byte{0x00, 0x61, 0x73, 0x00}, header()[4:]...)
	_, err := decodeBytes(t, b)
	require.Error(t, err)
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	require.Equal(t, ErrInvalidMagicByte, de.Kind)
}

func TestDecodeModule_BadVersion(t *testing.T) {
	b := append(append([]byte{}, header()[:4]...), 0x02, 0x00, 0x00, 0x00)
	_, err := decodeBytes(t, b)
	require.Error(t, err)
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	require.Equal(t, ErrInvalidWasmVersion, de.Kind)
}

func TestDecodeModule_TruncatedTypeSection(t *testing.T) {
	b := header()
	// Declares a length of 7 but supplies only 6 bytes before EOF.
	b = append(b, 0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01)
	_, err := decodeBytes(t, b)
	require.Error(t, err)
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	require.Contains(t, []ErrorKind{ErrEndOfStream, ErrMalformedSection}, de.Kind)
}

func TestDecodeModule_UnsupportedElementPrefix(t *testing.T) {
	b := header()
	b = append(b, 0x09, 0x02, 0x01, 0x01) // one element segment, prefix 1 (passive), not decoded
	_, err := decodeBytes(t, b)
	require.Error(t, err)
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	require.Equal(t, ErrUnsupported, de.Kind)
}

func TestDecodeModule_ReleasesArenaOnError(t *testing.T) {
	ar := arena.New(0)
	_, err := DecodeModule(bytes.NewReader([]byte{0x00}), ar, zap.NewNop())
	require.Error(t, err)
	require.Panics(t, func() { ar.AllocBytes([]byte("x")) })
}
