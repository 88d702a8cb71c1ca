package binary

import (
	"fmt"
	"io"

	"github.com/crowmoor/wazerocore/internal/arena"
	"github.com/crowmoor/wazerocore/internal/leb128"
	"github.com/crowmoor/wazerocore/internal/wasm"
)

// decodeDataSegment decodes one data segment. The init bytes are the largest payload a module typically carries,
// so they're copied through the call's Arena rather than left as a slice rooted in the input buffer: releasing
// the Arena is then the one place that frees every data segment's backing storage.
func decodeDataSegment(r io.Reader, ar *arena.Arena) (*wasm.DataSegment, error) {
	memIdx, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("read memory index: %w", err)
	}
	if memIdx != 0 {
		return nil, fmt.Errorf("invalid memory index: %d", memIdx)
	}

	expr, err := decodeConstantExpression(r)
	if err != nil {
		return nil, fmt.Errorf("read offset expression: %w", err)
	}

	size, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("read size of init vector: %w", err)
	}

	b := make([]byte, size)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("read bytes for init: %w", err)
	}

	return &wasm.DataSegment{MemoryIndex: memIdx, OffsetExpression: expr, Init: ar.Get(ar.AllocBytes(b))}, nil
}
