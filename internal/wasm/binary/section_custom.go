package binary

import (
	"fmt"
	"io"

	"github.com/crowmoor/wazerocore/internal/arena"
	"github.com/crowmoor/wazerocore/internal/leb128"
	"github.com/crowmoor/wazerocore/internal/wasm"
)

// nameSubsectionFunctionNames is the name subsection ID for function names. Alongside the module name subsection
// (ID 0), it is one of the two subsections this decoder materializes; local names are read past because nothing in
// this repository's scope consumes per-local debug names.
const nameSubsectionFunctionNames = 1

// decodeCustomSection reads the remainder of the section as the custom payload: a length-prefixed name, then
// opaque bytes. The section sub-stream's remaining length after the name read is exactly the data length.
func decodeCustomSection(r *sectionReader, ar *arena.Arena) (*wasm.CustomSection, error) {
	name, _, err := decodeUTF8(r, "custom section name")
	if err != nil {
		return nil, fmt.Errorf("read custom section name: %w", err)
	}
	data := make([]byte, r.BytesLeft())
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("read custom section data: %w", err)
	}
	return &wasm.CustomSection{Name: name, Data: ar.Get(ar.AllocBytes(data))}, nil
}

// decodeNameSection parses the well-known "name" custom section's module-name and function-name subsections. Any
// other subsection ID, or a malformed one, is skipped: the name section is auxiliary debug information and a
// failure to decode it must never fail the whole module decode.
func decodeNameSection(data []byte) *wasm.NameSection {
	r := newByteSliceReader(data)
	ns := &wasm.NameSection{}
	for {
		subsectionID, err := readByte(r)
		if err != nil {
			break // EOF: no more subsections, which is the common case.
		}
		size, _, err := leb128.DecodeUint32(r)
		if err != nil {
			break
		}
		sub := make([]byte, size)
		if _, err := io.ReadFull(r, sub); err != nil {
			break
		}
		switch subsectionID {
		case 0: // module name
			if name, _, err := decodeUTF8(newByteSliceReader(sub), "module name"); err == nil {
				ns.ModuleName = name
			}
		case nameSubsectionFunctionNames:
			if names, err := decodeNameMap(sub); err == nil {
				ns.FunctionNames = names
			}
		default:
			// local names and any future subsection kind: not materialized, silently skipped.
		}
	}
	return ns
}

func decodeNameMap(data []byte) (wasm.NameMap, error) {
	r := newByteSliceReader(data)
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, err
	}
	ret := make(wasm.NameMap, count)
	for i := range ret {
		idx, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return nil, err
		}
		name, _, err := decodeUTF8(r, "name")
		if err != nil {
			return nil, err
		}
		ret[i] = &wasm.NameAssoc{Index: idx, Name: name}
	}
	return ret, nil
}
