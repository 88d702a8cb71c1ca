// Package binary implements the WebAssembly binary format decoder: DecodeModule reads the 8-byte envelope then
// every section, filling in a *wasm.Module. No validation beyond what the binary encoding itself requires is
// performed here; type-checking the decoded module is a separate, out-of-scope concern.
package binary

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/crowmoor/wazerocore/internal/arena"
	"github.com/crowmoor/wazerocore/internal/leb128"
	"github.com/crowmoor/wazerocore/internal/wasm"
)

// DecodeModule reads a complete WebAssembly binary module from r. On success, the returned Module's custom-section
// payloads and data-segment contents are copied into ar, which the caller must Release once done with the Module;
// every other field is an ordinary Go allocation. On failure ar has already been released and the returned Module
// is nil.
func DecodeModule(r io.Reader, ar *arena.Arena, log *zap.Logger) (*wasm.Module, error) {
	if log == nil {
		log = zap.NewNop()
	}

	buf, err := io.ReadAll(r)
	if err != nil {
		ar.Release()
		return nil, newDecodeError(ErrIO, 0, false, 0, err)
	}
	br := bytes.NewReader(buf)

	m, err := decodeModule(br, ar, log)
	if err != nil {
		ar.Release()
		return nil, err
	}
	return m, nil
}

func decodeModule(br *bytes.Reader, ar *arena.Arena, log *zap.Logger) (*wasm.Module, error) {
	magic := make([]byte, 4)
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, newDecodeError(ErrInvalidMagicByte, 0, false, 0, err)
	}
	if !bytes.Equal(magic, Magic) {
		return nil, newDecodeError(ErrInvalidMagicByte, 0, false, 0, fmt.Errorf("got %#x, want %#x", magic, Magic))
	}

	versionBytes := make([]byte, 4)
	if _, err := io.ReadFull(br, versionBytes); err != nil {
		return nil, newDecodeError(ErrInvalidWasmVersion, 0, false, 4, err)
	}
	ver := binary.LittleEndian.Uint32(versionBytes)
	if !bytes.Equal(versionBytes, version) {
		return nil, newDecodeError(ErrInvalidWasmVersion, 0, false, 4, fmt.Errorf("got version %d, want 1", ver))
	}

	m := &wasm.Module{Version: ver}

	for {
		idByte, err := br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return m, nil // success terminator: EndOfStream between sections
			}
			return nil, newDecodeError(ErrIO, 0, false, int64(br.Size())-int64(br.Len()), err)
		}
		sectionID := wasm.SectionID(idByte)

		length, _, err := leb128.DecodeUint32(br)
		if err != nil {
			return nil, decodeErrorFor(sectionID, int64(br.Size())-int64(br.Len()), err)
		}

		sr, err := newSectionReader(br, length)
		if err != nil {
			return nil, decodeErrorFor(sectionID, int64(br.Size())-int64(br.Len()), err)
		}

		if err := decodeSection(m, sectionID, sr, ar, log); err != nil {
			return nil, decodeErrorFor(sectionID, int64(br.Size())-int64(br.Len()), err)
		}

		if err := sr.AssertEnd(); err != nil {
			return nil, newDecodeError(ErrMalformedSection, sectionID, true, int64(br.Size())-int64(br.Len()), err)
		}
	}
}

func decodeErrorFor(sectionID wasm.SectionID, offset int64, err error) error {
	return newDecodeError(classify(err), sectionID, true, offset, err)
}

// decodeSection dispatches one section body to its decoder and appends/assigns the result onto m. Unknown
// section IDs (reserved for proposals this decoder doesn't implement) are logged and their bytes skipped.
func decodeSection(m *wasm.Module, id wasm.SectionID, r *sectionReader, ar *arena.Arena, log *zap.Logger) error {
	switch id {
	case wasm.SectionIDCustom:
		cs, err := decodeCustomSection(r, ar)
		if err != nil {
			return err
		}
		m.CustomSections = append(m.CustomSections, cs)
		if cs.Name == "name" {
			m.NameSection = decodeNameSection(cs.Data)
		}

	case wasm.SectionIDType:
		return decodeVector(r, &m.TypeSection, decodeFunctionType)

	case wasm.SectionIDImport:
		return decodeVector(r, &m.ImportSection, decodeImport)

	case wasm.SectionIDFunction:
		count, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return fmt.Errorf("read function section vector size: %w", err)
		}
		m.FunctionSection = make([]wasm.Index, count)
		for i := range m.FunctionSection {
			if m.FunctionSection[i], _, err = leb128.DecodeUint32(r); err != nil {
				return fmt.Errorf("read %d-th type index: %w", i, err)
			}
		}

	case wasm.SectionIDTable:
		return decodeVector(r, &m.TableSection, decodeTableSection)

	case wasm.SectionIDMemory:
		return decodeVector(r, &m.MemorySection, decodeMemorySection)

	case wasm.SectionIDGlobal:
		return decodeVector(r, &m.GlobalSection, decodeGlobal)

	case wasm.SectionIDExport:
		return decodeVector(r, &m.ExportSection, decodeExport)

	case wasm.SectionIDStart:
		idx, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return fmt.Errorf("read start function index: %w", err)
		}
		m.StartSection = &idx

	case wasm.SectionIDElement:
		return decodeVector(r, &m.ElementSection, decodeElementSegment)

	case wasm.SectionIDCode:
		count, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return fmt.Errorf("read code section vector size: %w", err)
		}
		m.CodeSection = make([]*wasm.Code, count)
		for i := range m.CodeSection {
			if m.CodeSection[i], err = decodeCode(r); err != nil {
				return fmt.Errorf("read %d-th code entry: %w", i, err)
			}
		}

	case wasm.SectionIDData:
		count, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return fmt.Errorf("read data section vector size: %w", err)
		}
		m.DataSection = make([]*wasm.DataSegment, count)
		for i := range m.DataSection {
			if m.DataSection[i], err = decodeDataSegment(r, ar); err != nil {
				return fmt.Errorf("read %d-th data segment: %w", i, err)
			}
		}

	default:
		log.Info("skipping unknown section", zap.Int("id", int(id)), zap.Int64("bytes", r.BytesLeft()))
		if _, err := io.CopyN(io.Discard, r, r.BytesLeft()); err != nil {
			return fmt.Errorf("skip unknown section: %w", err)
		}
	}
	return nil
}

// decodeVector reads a ULEB128 count then count elements via decodeOne, a shape shared by every vector-prefixed
// section (type, import, table, memory, global, export, element).
func decodeVector[T any](r *sectionReader, dst *[]T, decodeOne func(io.Reader) (T, error)) error {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return fmt.Errorf("read vector size: %w", err)
	}
	vec := make([]T, count)
	for i := range vec {
		v, err := decodeOne(r)
		if err != nil {
			return fmt.Errorf("read %d-th element: %w", i, err)
		}
		vec[i] = v
	}
	*dst = vec
	return nil
}
