// Package decode is the public entry point of this module: Parse decodes a WebAssembly binary module into a
// tree of plain Go structs, performing no validation beyond what the binary encoding itself requires.
package decode

import (
	"io"

	"go.uber.org/zap"

	"github.com/crowmoor/wazerocore/internal/arena"
	"github.com/crowmoor/wazerocore/internal/wasm"
	"github.com/crowmoor/wazerocore/internal/wasm/binary"
)

// Result holds a decoded Module together with the Arena holding its custom-section payloads and data-segment
// contents. Callers must call Release once the Module is no longer needed; using Module after Release is a
// programming error, consistent with how internal/arena treats use-after-release.
type Result struct {
	Module *wasm.Module

	ar *arena.Arena
}

// Release releases the Arena, dropping its copies of the custom-section payloads and data-segment contents. The
// Module's other fields are ordinary Go values that Release does not touch, and the Module's own references to
// the payloads stay readable; reads after Release are not detected. The Module must not be read afterward.
func (r *Result) Release() {
	r.ar.Release()
}

// Option configures a Parse call.
type Option func(*options)

type options struct {
	logger        *zap.Logger
	arenaCapacity int
}

// WithLogger directs section-skip and other diagnostic messages to log instead of a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.logger = log }
}

// WithArenaCapacityHint sizes the Arena's initial slab capacity. Only useful when the caller has a rough idea of
// how many data/custom sections the module holds; the default of 0 is fine for most callers.
func WithArenaCapacityHint(n int) Option {
	return func(o *options) { o.arenaCapacity = n }
}

// Parse decodes one WebAssembly binary module from r. The module envelope (magic and version) is validated
// before any section is read; on any error, the Arena allocated for the call has already been released and the
// returned Result is nil.
func Parse(r io.Reader, opts ...Option) (*Result, error) {
	o := &options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}

	ar := arena.New(o.arenaCapacity)
	m, err := binary.DecodeModule(r, ar, o.logger)
	if err != nil {
		return nil, err
	}
	return &Result{Module: m, ar: ar}, nil
}
