package binary

import (
	"fmt"
	"io"

	"github.com/crowmoor/wazerocore/internal/wasm"
)

func decodeGlobal(r io.Reader) (*wasm.Global, error) {
	gt, err := decodeGlobalType(r)
	if err != nil {
		return nil, fmt.Errorf("read global type: %w", err)
	}
	init, err := decodeConstantExpression(r)
	if err != nil {
		return nil, fmt.Errorf("read global init expression: %w", err)
	}
	return &wasm.Global{Type: gt, Init: init}, nil
}
