package binary

import (
	"fmt"
	"io"

	"github.com/crowmoor/wazerocore/internal/leb128"
	"github.com/crowmoor/wazerocore/internal/wasm"
)

func decodeExport(r io.Reader) (e *wasm.Export, err error) {
	e = &wasm.Export{}

	if e.Name, _, err = decodeUTF8(r, "export name"); err != nil {
		return nil, err
	}

	b, err := readByte(r)
	if err != nil {
		return nil, fmt.Errorf("read export kind: %w", err)
	}

	e.Type = b
	switch e.Type {
	case wasm.ExternTypeFunc, wasm.ExternTypeTable, wasm.ExternTypeMemory, wasm.ExternTypeGlobal:
		if e.Index, _, err = leb128.DecodeUint32(r); err != nil {
			return nil, fmt.Errorf("read export index: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: invalid byte for exportdesc: %#x", errInvalidEncoding, b)
	}
	return
}
