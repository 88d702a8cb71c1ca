package binary

import (
	"fmt"
	"io"

	"github.com/crowmoor/wazerocore/internal/leb128"
	"github.com/crowmoor/wazerocore/internal/wasm"
)

// decodeElementSegment decodes one element segment. Only prefix 0, the WebAssembly 1.0 (MVP) encoding
// (table index implicitly 0, an offset InitExpression, then vec(funcidx)), is decoded. Prefixes 1-7, added by
// the reference-types and bulk-memory proposals for passive/declarative segments and explicit reftypes, are
// reported as ErrUnsupported rather than guessed at, per the open question in spec.md §9.
func decodeElementSegment(r io.Reader) (*wasm.ElementSegment, error) {
	prefix, err := readByte(r)
	if err != nil {
		return nil, fmt.Errorf("read element prefix: %w", err)
	}
	if prefix != 0 {
		return nil, fmt.Errorf("%w: element segment prefix %#x (only the MVP prefix 0 is decoded)", errUnsupported, prefix)
	}

	expr, err := decodeConstantExpression(r)
	if err != nil {
		return nil, fmt.Errorf("read offset expression: %w", err)
	}

	init, err := decodeFuncIndexVector(r)
	if err != nil {
		return nil, fmt.Errorf("read element init vector: %w", err)
	}

	return &wasm.ElementSegment{TableIndex: 0, OffsetExpr: expr, Init: init}, nil
}

func decodeFuncIndexVector(r io.Reader) ([]wasm.Index, error) {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("read vector size: %w", err)
	}
	if count == 0 {
		return nil, nil
	}
	vec := make([]wasm.Index, count)
	for i := range vec {
		if vec[i], _, err = leb128.DecodeUint32(r); err != nil {
			return nil, fmt.Errorf("read %d-th function index: %w", i, err)
		}
	}
	return vec, nil
}
