package binary

import (
	"io"

	"github.com/crowmoor/wazerocore/internal/wasm"
)

// decodeTableSection decodes one element of the table section vector. The element encoding is identical to an
// import's inlined table desc, so this delegates straight to decodeTableType; the vec(TableType) prefix is
// handled by decodeVector in decoder.go.
func decodeTableSection(r io.Reader) (*wasm.TableType, error) {
	return decodeTableType(r)
}
