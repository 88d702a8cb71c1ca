package binary

import (
	"errors"
	"fmt"
	"io"

	"github.com/crowmoor/wazerocore/internal/leb128"
	"github.com/crowmoor/wazerocore/internal/wasm"
)

// decodeCode decodes one entry of the code section: a byte-length-prefixed function body consisting of a
// run-length-encoded local declaration list followed by an instruction stream terminated by end.
func decodeCode(r *sectionReader) (*wasm.Code, error) {
	size, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("read code entry size: %w", err)
	}
	if int64(size) > r.remaining {
		return nil, fmt.Errorf("%w: code entry size %d exceeds remaining section bytes", errMalformedSection, size)
	}
	body, err := newSectionReader(r.r, size)
	if err != nil {
		return nil, fmt.Errorf("bound code entry body: %w", err)
	}
	// body shares r's underlying *bytes.Reader, so reads through body already advance the stream; only r's own
	// declared-length bookkeeping needs the manual adjustment once the whole entry has been consumed.
	r.remaining -= int64(size)

	locals, numLocals, err := decodeLocals(body)
	if err != nil {
		return nil, fmt.Errorf("read locals: %w", err)
	}

	insts, err := decodeInstructionsToEnd(body)
	if err != nil {
		return nil, fmt.Errorf("read function body: %w", err)
	}

	if err := body.AssertEnd(); err != nil {
		return nil, fmt.Errorf("%w: %s", errMalformedSection, err)
	}

	return &wasm.Code{Locals: locals, NumLocals: numLocals, Body: insts}, nil
}

func decodeLocals(r *sectionReader) ([]wasm.Local, uint32, error) {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, 0, fmt.Errorf("read locals vector size: %w", err)
	}
	if count == 0 {
		return nil, 0, nil
	}
	locals := make([]wasm.Local, count)
	var numLocals uint64
	for i := range locals {
		n, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return nil, 0, fmt.Errorf("read %d-th local group count: %w", i, err)
		}
		vt, err := decodeValueType(r)
		if err != nil {
			return nil, 0, fmt.Errorf("read %d-th local group type: %w", i, err)
		}
		locals[i] = wasm.Local{Count: n, ValType: vt}
		numLocals += uint64(n)
	}
	if numLocals > 0x7fffffff {
		return nil, 0, fmt.Errorf("%w: too many locals: %d", errInvalidEncoding, numLocals)
	}
	return locals, uint32(numLocals), nil
}

// decodeInstructionsToEnd reads instructions, tracking block nesting so that the top-level end (which closes the
// function body itself, not a block/loop/if) terminates the loop. That terminal end is appended to Body like every
// other instruction: every returned Body ends with an end opcode.
func decodeInstructionsToEnd(r *sectionReader) ([]wasm.Instruction, error) {
	var insts []wasm.Instruction
	depth := 0
	for {
		inst, err := decodeInstruction(r)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("%w: function body exhausted before a top-level end", errMissingEndForBody)
			}
			return nil, err
		}
		switch inst.Opcode {
		case wasm.OpcodeBlock, wasm.OpcodeLoop, wasm.OpcodeIf:
			depth++
		case wasm.OpcodeEnd:
			if depth == 0 {
				insts = append(insts, inst)
				return insts, nil
			}
			depth--
		}
		insts = append(insts, inst)
	}
}
