// Package wasm holds the decoded representation of a WebAssembly binary module. It knows nothing about how the
// bytes were produced: the shapes here are filled in by internal/wasm/binary and read by callers of the root
// decode package.
package wasm

import (
	"fmt"

	"github.com/crowmoor/wazerocore/internal/leb128"
)

// Index is the offset in an index namespace, not necessarily an absolute position in a Module section. This is
// because index namespaces are often preceded by a corresponding type in Module.ImportSection.
//
// For example, the function index namespace starts with any ExternTypeFunc in Module.ImportSection followed by
// Module.FunctionSection.
//
// See https://www.w3.org/TR/wasm-core-1/#binary-index
type Index = uint32

// Module is a WebAssembly binary representation, decoded in its entirety by a single binary.DecodeModule call.
//
// Differences from the specification:
//   - CustomSections is an ordered slice, not a map, because custom sections may repeat and callers observe them
//     in encounter order (the name section is the only one given special treatment, see NameSection).
//   - ExportSection is an ordered slice, not a map, for the same reason: export order is part of the decoded
//     result, even though export names must be unique.
//
// See https://www.w3.org/TR/wasm-core-1/#modules%E2%91%A8
type Module struct {
	// Version is the 4-byte little-endian value following the magic "\0asm" preamble. Retained for diagnostics;
	// decoding fails before this is populated if the value isn't the one supported value.
	Version uint32

	// TypeSection contains the unique FunctionType of functions imported or defined in this module.
	//
	// Note: In the Binary Format, this is SectionIDType.
	// See https://www.w3.org/TR/wasm-core-1/#types%E2%91%A0%E2%91%A0
	TypeSection []*FunctionType

	// ImportSection contains imported functions, tables, memories or globals required for instantiation.
	//
	// Note: In the Binary Format, this is SectionIDImport.
	// See https://www.w3.org/TR/wasm-core-1/#import-section%E2%91%A0
	ImportSection []*Import

	// FunctionSection contains the index in TypeSection of each function defined in this module.
	//
	// Note: FunctionSection is index correlated with CodeSection: given the same position, ex. 2, a function type
	// is at TypeSection[FunctionSection[2]], while its locals and body are at CodeSection[2].
	//
	// Note: In the Binary Format, this is SectionIDFunction.
	// See https://www.w3.org/TR/wasm-core-1/#function-section%E2%91%A0
	FunctionSection []Index

	// TableSection contains each table defined in this module.
	//
	// Note: In the Binary Format, this is SectionIDTable.
	// See https://www.w3.org/TR/wasm-core-1/#table-section%E2%91%A0
	TableSection []*TableType

	// MemorySection contains each memory defined in this module.
	//
	// Note: In the Binary Format, this is SectionIDMemory.
	// See https://www.w3.org/TR/wasm-core-1/#memory-section%E2%91%A0
	MemorySection []*MemoryType

	// GlobalSection contains each global defined in this module.
	//
	// Note: In the Binary Format, this is SectionIDGlobal.
	// See https://www.w3.org/TR/wasm-core-1/#global-section%E2%91%A0
	GlobalSection []*Global

	// ExportSection contains each export defined in this module, in encounter order.
	//
	// Note: In the Binary Format, this is SectionIDExport.
	// See https://www.w3.org/TR/wasm-core-1/#exports%E2%91%A0
	ExportSection []*Export

	// StartSection is the index of a function to call after instantiation, or nil if the module declares none.
	//
	// Note: In the Binary Format, this is SectionIDStart.
	// See https://www.w3.org/TR/wasm-core-1/#start-section%E2%91%A0
	StartSection *Index

	// ElementSection initializes TableSection entries with function indices, in the MVP binary encoding.
	//
	// Note: In the Binary Format, this is SectionIDElement.
	// See https://www.w3.org/TR/wasm-core-1/#element-section%E2%91%A0
	ElementSection []*ElementSegment

	// CodeSection is index-correlated with FunctionSection and contains each function's locals and decoded body.
	//
	// Note: In the Binary Format, this is SectionIDCode.
	// See https://www.w3.org/TR/wasm-core-1/#code-section%E2%91%A0
	CodeSection []*Code

	// DataSection initializes MemorySection contents at instantiation time.
	//
	// Note: In the Binary Format, this is SectionIDData.
	// See https://www.w3.org/TR/wasm-core-1/#data-section%E2%91%A0
	DataSection []*DataSegment

	// CustomSections holds every SectionIDCustom payload, in encounter order, including "name" if present (which is
	// additionally decoded into NameSection).
	CustomSections []*CustomSection

	// NameSection is set when a custom section named "name" was encountered.
	//
	// Note: This is nil only when the module has no custom section named "name". Malformed subsections are skipped,
	// leaving the corresponding NameSection fields empty.
	// See https://www.w3.org/TR/wasm-core-1/#name-section%E2%91%A0
	NameSection *NameSection
}

// FunctionType is a possibly empty function signature.
//
// See https://www.w3.org/TR/wasm-core-1/#function-types%E2%91%A0
type FunctionType struct {
	// Params are the possibly empty sequence of value types accepted by a function with this signature.
	Params []ValueType

	// Results are the possibly empty sequence of value types returned by a function with this signature.
	Results []ValueType
}

func (t *FunctionType) String() (ret string) {
	for _, v := range t.Params {
		ret += ValueTypeName(v)
	}
	if len(t.Params) == 0 {
		ret += "null"
	}
	ret += "_"
	for _, v := range t.Results {
		ret += ValueTypeName(v)
	}
	if len(t.Results) == 0 {
		ret += "null"
	}
	return
}

// ExternType indicates which of the Import.Desc* or Export.Index namespace an import or export refers to.
//
// See https://www.w3.org/TR/wasm-core-1/#external-types%E2%91%A0
type ExternType = byte

const (
	ExternTypeFunc   ExternType = 0x00
	ExternTypeTable  ExternType = 0x01
	ExternTypeMemory ExternType = 0x02
	ExternTypeGlobal ExternType = 0x03
)

// ExternTypeName returns the canonical name of an ExternType.
func ExternTypeName(t ExternType) string {
	switch t {
	case ExternTypeFunc:
		return "func"
	case ExternTypeTable:
		return "table"
	case ExternTypeMemory:
		return "memory"
	case ExternTypeGlobal:
		return "global"
	}
	return "unknown"
}

// Import is the binary representation of an import indicated by Type.
//
// See https://www.w3.org/TR/wasm-core-1/#binary-import
type Import struct {
	Type ExternType
	// Module is the possibly empty primary namespace of this import.
	Module string
	// Name is the possibly empty secondary namespace of this import.
	Name string
	// DescFunc is the index in Module.TypeSection when Type equals ExternTypeFunc.
	DescFunc Index
	// DescTable is the inlined TableType when Type equals ExternTypeTable.
	DescTable *TableType
	// DescMem is the inlined MemoryType when Type equals ExternTypeMemory.
	DescMem *MemoryType
	// DescGlobal is the inlined GlobalType when Type equals ExternTypeGlobal.
	DescGlobal *GlobalType
}

// Limits bounds the size of a Table or Memory.
//
// See https://www.w3.org/TR/wasm-core-1/#limits%E2%91%A6
type Limits struct {
	Min uint32
	Max *uint32
}

// TableType describes the limits and element type of a table.
//
// See https://www.w3.org/TR/wasm-core-1/#table-types%E2%91%A4
type TableType struct {
	ElemType RefType
	Limits   Limits
}

// MemoryType describes the limits, in pages, of linear memory.
type MemoryType = Limits

// GlobalType describes the value type and mutability of a global.
//
// See https://www.w3.org/TR/wasm-core-1/#global-types%E2%91%A4
type GlobalType struct {
	ValType ValueType
	Mutable bool
}

// Global is a module-defined global, combining its type with its initializer.
type Global struct {
	Type *GlobalType
	Init *ConstantExpression
}

// ConstantExpression is a single constant-producing opcode, retaining its raw immediate bytes. Use the As*
// accessors to decode the payload; each panics if called against the wrong Opcode.
//
// See https://www.w3.org/TR/wasm-core-1/#constant-expressions%E2%91%A0
type ConstantExpression struct {
	Opcode Opcode
	Data   []byte
}

// AsI32 reinterprets Data as the signed LEB128 payload of an i32.const. Panics if Opcode isn't OpcodeI32Const.
func (c *ConstantExpression) AsI32() int32 {
	if c.Opcode != OpcodeI32Const {
		panic(fmt.Sprintf("BUG: AsI32 called on opcode %#x", c.Opcode))
	}
	v, _, err := leb128.LoadInt32(c.Data)
	if err != nil {
		panic(fmt.Sprintf("BUG: malformed ConstantExpression.Data: %v", err))
	}
	return v
}

// AsI64 reinterprets Data as the signed LEB128 payload of an i64.const. Panics if Opcode isn't OpcodeI64Const.
func (c *ConstantExpression) AsI64() int64 {
	if c.Opcode != OpcodeI64Const {
		panic(fmt.Sprintf("BUG: AsI64 called on opcode %#x", c.Opcode))
	}
	v, _, err := leb128.LoadInt64(c.Data)
	if err != nil {
		panic(fmt.Sprintf("BUG: malformed ConstantExpression.Data: %v", err))
	}
	return v
}

// AsF32Bits reinterprets Data as the raw little-endian bit pattern of an f32.const.
func (c *ConstantExpression) AsF32Bits() uint32 {
	if c.Opcode != OpcodeF32Const {
		panic(fmt.Sprintf("BUG: AsF32Bits called on opcode %#x", c.Opcode))
	}
	return uint32(c.Data[0]) | uint32(c.Data[1])<<8 | uint32(c.Data[2])<<16 | uint32(c.Data[3])<<24
}

// AsF64Bits reinterprets Data as the raw little-endian bit pattern of an f64.const.
func (c *ConstantExpression) AsF64Bits() uint64 {
	if c.Opcode != OpcodeF64Const {
		panic(fmt.Sprintf("BUG: AsF64Bits called on opcode %#x", c.Opcode))
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(c.Data[i]) << (8 * i)
	}
	return v
}

// AsGlobalIndex reinterprets Data as the unsigned LEB128 index payload of a global.get.
func (c *ConstantExpression) AsGlobalIndex() Index {
	if c.Opcode != OpcodeGlobalGet {
		panic(fmt.Sprintf("BUG: AsGlobalIndex called on opcode %#x", c.Opcode))
	}
	v, _, err := leb128.LoadUint32(c.Data)
	if err != nil {
		panic(fmt.Sprintf("BUG: malformed ConstantExpression.Data: %v", err))
	}
	return v
}

// Export is the binary representation of an export indicated by Type.
//
// See https://www.w3.org/TR/wasm-core-1/#binary-export
type Export struct {
	Type ExternType
	// Name is what the host refers to this definition as.
	Name string
	// Index is the index of the definition to export; the index namespace is by Type.
	Index Index
}

// ElementSegment initializes a table with function indices at the offset given by OffsetExpr.
//
// Note: This repository decodes only active segments in the MVP encoding (segment prefix 0); every other prefix
// is rejected as ErrUnsupported. See DESIGN.md for the rationale.
type ElementSegment struct {
	TableIndex Index
	OffsetExpr *ConstantExpression
	Init       []Index
}

// Local is one run-length group of function-scoped locals sharing a ValueType, the binary encoding's unit of
// the vec(locals) that prefixes a function body.
//
// See https://www.w3.org/TR/wasm-core-1/#binary-local
type Local struct {
	Count   uint32
	ValType ValueType
}

// Code is an entry in Module.CodeSection containing a function's locals and its decoded instruction stream.
//
// See https://www.w3.org/TR/wasm-core-1/#binary-code
type Code struct {
	// Locals are the run-length encoded local declarations, in the order they appear in the binary.
	Locals []Local
	// NumLocals is the total count of locals across all Locals groups, for convenience.
	NumLocals uint32
	// Body is the decoded instruction sequence, always ending with OpcodeEnd.
	Body []Instruction
}

// DataSegment initializes a region of linear memory at instantiation time.
//
// See https://www.w3.org/TR/wasm-core-1/#data-section%E2%91%A0
type DataSegment struct {
	MemoryIndex      Index // always zero in WebAssembly 1.0 (MVP)
	OffsetExpression *ConstantExpression
	Init             []byte
}

// CustomSection is an opaque, unvalidated SectionIDCustom payload.
//
// See https://www.w3.org/TR/wasm-core-1/#custom-section%E2%91%A0
type CustomSection struct {
	Name string
	Data []byte
}

// NameSection represents the known custom name subsections defined in the WebAssembly Binary Format.
//
// See https://www.w3.org/TR/wasm-core-1/#name-section%E2%91%A0
type NameSection struct {
	// ModuleName is the symbolic identifier for a module, ex. "math". Can be empty.
	ModuleName string

	// FunctionNames associates a function index (in the function index namespace, imports first) with its
	// symbolic identifier, ex. "add". Only used for debugging; can be nil.
	FunctionNames NameMap
}

// NameMap associates an index with a name. Unique by NameAssoc.Index; NameAssoc.Name needn't be unique.
type NameMap []*NameAssoc

type NameAssoc struct {
	Index Index
	Name  string
}

// TypeOfFunction returns the FunctionType for the given function namespace index, or nil if the index is out of
// range. Note: the function index namespace is preceded by imported functions.
func (m *Module) TypeOfFunction(funcIdx Index) *FunctionType {
	typeSectionLength := uint32(len(m.TypeSection))
	if typeSectionLength == 0 {
		return nil
	}
	funcImportCount := Index(0)
	for _, imp := range m.ImportSection {
		if imp.Type == ExternTypeFunc {
			if funcIdx == funcImportCount {
				if imp.DescFunc >= typeSectionLength {
					return nil
				}
				return m.TypeSection[imp.DescFunc]
			}
			funcImportCount++
		}
	}
	funcSectionIdx := funcIdx - funcImportCount
	if funcSectionIdx >= uint32(len(m.FunctionSection)) {
		return nil
	}
	typeIdx := m.FunctionSection[funcSectionIdx]
	if typeIdx >= typeSectionLength {
		return nil
	}
	return m.TypeSection[typeIdx]
}

// SectionID identifies the sections of a Module in the WebAssembly Binary Format.
//
// See https://www.w3.org/TR/wasm-core-1/#sections%E2%91%A0
type SectionID = byte

const (
	SectionIDCustom SectionID = iota
	SectionIDType
	SectionIDImport
	SectionIDFunction
	SectionIDTable
	SectionIDMemory
	SectionIDGlobal
	SectionIDExport
	SectionIDStart
	SectionIDElement
	SectionIDCode
	SectionIDData
)

// SectionIDName returns the canonical name of a module section, or "unknown" for an ID this package doesn't
// recognize (which the decoder otherwise treats as an unknown section to skip).
func SectionIDName(sectionID SectionID) string {
	switch sectionID {
	case SectionIDCustom:
		return "custom"
	case SectionIDType:
		return "type"
	case SectionIDImport:
		return "import"
	case SectionIDFunction:
		return "function"
	case SectionIDTable:
		return "table"
	case SectionIDMemory:
		return "memory"
	case SectionIDGlobal:
		return "global"
	case SectionIDExport:
		return "export"
	case SectionIDStart:
		return "start"
	case SectionIDElement:
		return "element"
	case SectionIDCode:
		return "code"
	case SectionIDData:
		return "data"
	}
	return "unknown"
}

// ValueType is the binary encoding of a type such as i32.
//
// See https://www.w3.org/TR/wasm-core-1/#binary-valtype
type ValueType = byte

const (
	ValueTypeI32 ValueType = 0x7f
	ValueTypeI64 ValueType = 0x7e
	ValueTypeF32 ValueType = 0x7d
	ValueTypeF64 ValueType = 0x7c

	// ValueTypeFuncref is a reference-types-proposal value type; also usable as a RefType.
	ValueTypeFuncref ValueType = 0x70
	// ValueTypeExternref is a reference-types-proposal value type; also usable as a RefType.
	ValueTypeExternref ValueType = 0x6f
)

// RefType is the subset of ValueType usable for table element types and ref.null/ref.func immediates.
type RefType = byte

const (
	RefTypeFuncref   RefType = ValueTypeFuncref
	RefTypeExternref RefType = ValueTypeExternref
)

// ValueTypeName returns the type name of the given ValueType, matching the WebAssembly text format, or "unknown"
// for an undefined value.
func ValueTypeName(t ValueType) string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeFuncref:
		return "funcref"
	case ValueTypeExternref:
		return "externref"
	}
	return "unknown"
}

// BlockType is the immediate of a block-opening instruction (block, loop, if): either a single ValueType result,
// or the distinguished "empty" marker (encoded as 0x40).
//
// See https://www.w3.org/TR/wasm-core-1/#binary-blocktype
type BlockType struct {
	Empty   bool
	ValType ValueType
}

func (b BlockType) String() string {
	if b.Empty {
		return "empty"
	}
	return ValueTypeName(b.ValType)
}

// SectionElementCount returns the count of elements in a given section ID. For SectionIDCustom this is the number
// of custom sections encountered (including the name section), and for SectionIDStart it is 0 or 1.
func (m *Module) SectionElementCount(sectionID SectionID) uint32 {
	switch sectionID {
	case SectionIDCustom:
		return uint32(len(m.CustomSections))
	case SectionIDType:
		return uint32(len(m.TypeSection))
	case SectionIDImport:
		return uint32(len(m.ImportSection))
	case SectionIDFunction:
		return uint32(len(m.FunctionSection))
	case SectionIDTable:
		return uint32(len(m.TableSection))
	case SectionIDMemory:
		return uint32(len(m.MemorySection))
	case SectionIDGlobal:
		return uint32(len(m.GlobalSection))
	case SectionIDExport:
		return uint32(len(m.ExportSection))
	case SectionIDStart:
		if m.StartSection != nil {
			return 1
		}
		return 0
	case SectionIDElement:
		return uint32(len(m.ElementSection))
	case SectionIDCode:
		return uint32(len(m.CodeSection))
	case SectionIDData:
		return uint32(len(m.DataSection))
	default:
		panic(fmt.Errorf("BUG: unknown section: %d", sectionID))
	}
}
