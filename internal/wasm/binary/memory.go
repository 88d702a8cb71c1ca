package binary

import (
	"io"

	"github.com/crowmoor/wazerocore/internal/wasm"
)

// decodeMemorySection decodes one element of the memory section: a bare Limits, identical to decodeMemoryType.
func decodeMemorySection(r io.Reader) (*wasm.MemoryType, error) {
	return decodeMemoryType(r)
}
