// Package arena implements the allocation arena backing a single decode call. The decoder copies custom-section
// payloads and data-segment contents into one Arena; other decoded values (strings, index vectors, instruction
// streams, structs) are ordinary Go allocations and are not tracked by it. Using the Arena itself after Release is
// a bug, not an edge case, so Arena panics instead of returning zero values silently. Slices already handed out by
// Get stay readable after Release; the Arena does not detect reads through them.
package arena

import "fmt"

// Bytes is a handle to a byte slice owned by an Arena.
type Bytes struct {
	id  uint32
	gen uint32
}

// Arena owns a flat pool of byte slices allocated during one Parse call. Each AllocBytes call makes its own copy
// of the source bytes; the Arena records it in a growable slice of slabs and hands back an index handle.
type Arena struct {
	slabs     [][]byte
	released  bool
	allocated int
}

// New returns an empty Arena. capacityHint sizes the initial backing slice and should roughly match the module's
// expected number of custom sections and data segments; zero is a fine default.
func New(capacityHint int) *Arena {
	return &Arena{slabs: make([][]byte, 0, capacityHint)}
}

// AllocBytes copies src into the arena and returns a handle to the copy. Copying (rather than retaining src)
// keeps the arena the sole owner, so Release can drop every slab without a caller holding a live alias into the
// original decode buffer.
func (a *Arena) AllocBytes(src []byte) Bytes {
	a.checkLive()
	cp := make([]byte, len(src))
	copy(cp, src)
	id := uint32(len(a.slabs))
	a.slabs = append(a.slabs, cp)
	a.allocated += len(cp)
	return Bytes{id: id, gen: 1}
}

// Get dereferences a Bytes handle. Panics if the arena has been released or the handle's id is beyond the slabs
// this arena holds; a handle from another arena whose id is in range is not detected.
func (a *Arena) Get(h Bytes) []byte {
	a.checkLive()
	if int(h.id) >= len(a.slabs) {
		panic(fmt.Sprintf("arena: handle %d does not belong to this arena", h.id))
	}
	return a.slabs[h.id]
}

// Allocated returns the total bytes copied into the arena so far, for diagnostics.
func (a *Arena) Allocated() int {
	return a.allocated
}

// Release drops every slab the arena holds. Subsequent Get or AllocBytes calls panic: a decode result that
// retains an Arena past Release is the programming error this package exists to catch.
func (a *Arena) Release() {
	a.slabs = nil
	a.released = true
}

func (a *Arena) checkLive() {
	if a.released {
		panic("arena: use after Release")
	}
}
