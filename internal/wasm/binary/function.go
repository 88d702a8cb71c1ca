package binary

import (
	"fmt"
	"io"

	"github.com/crowmoor/wazerocore/internal/leb128"
	"github.com/crowmoor/wazerocore/internal/wasm"
)

// decodeFunctionType decodes one element of the type section: the 0x60 functype discriminator, then
// vec(valtype) params, then vec(valtype) results. Multi-value results (more than one result type) are always
// accepted; this repository does not gate the binary format behind an enabled-features flag since validating
// feature-vs-binary-format agreement is a type-checking concern out of scope per spec.md §1.
func decodeFunctionType(r io.Reader) (*wasm.FunctionType, error) {
	b, err := readByte(r)
	if err != nil {
		return nil, fmt.Errorf("read leading byte: %w", err)
	}
	if b != 0x60 {
		return nil, fmt.Errorf("%w: %#x != 0x60", errExpectedFuncType, b)
	}

	paramCount, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("could not read parameter count: %w", err)
	}
	paramTypes, err := decodeValueTypes(r, paramCount)
	if err != nil {
		return nil, fmt.Errorf("could not read parameter types: %w", err)
	}

	resultCount, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("could not read result count: %w", err)
	}
	resultTypes, err := decodeValueTypes(r, resultCount)
	if err != nil {
		return nil, fmt.Errorf("could not read result types: %w", err)
	}

	return &wasm.FunctionType{Params: paramTypes, Results: resultTypes}, nil
}
