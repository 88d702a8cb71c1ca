package binary

import (
	"errors"
	"fmt"
	"io"

	"github.com/crowmoor/wazerocore/internal/leb128"
	"github.com/crowmoor/wazerocore/internal/wasm"
)

// leb128ErrOverflow lets classify recognize an overflow without internal/wasm/binary importing leb128 twice under
// different names across files.
var leb128ErrOverflow = leb128.ErrOverflow

// ErrorKind classifies every way DecodeModule can fail, so callers can branch on the failure category instead of
// string-matching an error message.
type ErrorKind int

const (
	ErrInvalidMagicByte ErrorKind = iota
	ErrInvalidWasmVersion
	ErrExpectedFuncType
	ErrMissingEndForExpression
	ErrMissingEndForBody
	ErrMalformedSection
	ErrInvalidEncoding
	ErrOverflow
	ErrEndOfStream
	ErrOutOfMemory
	ErrIO
	ErrUnsupported
)

func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidMagicByte:
		return "invalid magic byte"
	case ErrInvalidWasmVersion:
		return "invalid wasm version"
	case ErrExpectedFuncType:
		return "expected func type"
	case ErrMissingEndForExpression:
		return "missing end for expression"
	case ErrMissingEndForBody:
		return "missing end for body"
	case ErrMalformedSection:
		return "malformed section"
	case ErrInvalidEncoding:
		return "invalid encoding"
	case ErrOverflow:
		return "overflow"
	case ErrEndOfStream:
		return "end of stream"
	case ErrOutOfMemory:
		return "out of memory"
	case ErrIO:
		return "io error"
	case ErrUnsupported:
		return "unsupported"
	}
	return "unknown"
}

// DecodeError is the single error type every public decode failure surfaces as. It carries enough context
// (section and byte offset) to locate the failure in the source without requiring callers to parse a message.
type DecodeError struct {
	Kind      ErrorKind
	SectionID wasm.SectionID
	// HasSectionID distinguishes "no section yet" (envelope errors) from SectionID 0, which is SectionIDCustom.
	HasSectionID bool
	Offset       int64
	Err          error
}

func (e *DecodeError) Error() string {
	if e.HasSectionID {
		return fmt.Sprintf("wasm: %s in section %s at offset %d: %v", e.Kind, wasm.SectionIDName(e.SectionID), e.Offset, e.Err)
	}
	return fmt.Sprintf("wasm: %s at offset %d: %v", e.Kind, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is reports whether target is a *DecodeError with the same Kind, so callers can write
// errors.Is(err, &binary.DecodeError{Kind: binary.ErrInvalidMagicByte}).
func (e *DecodeError) Is(target error) bool {
	var de *DecodeError
	if errors.As(target, &de) {
		return de.Kind == e.Kind
	}
	return false
}

func newDecodeError(kind ErrorKind, sectionID wasm.SectionID, hasSection bool, offset int64, cause error) *DecodeError {
	return &DecodeError{Kind: kind, SectionID: sectionID, HasSectionID: hasSection, Offset: offset, Err: cause}
}

// Sentinels wrapped by section/instruction decoders below the driver. The driver inspects the error chain with
// errors.Is to classify these into the right ErrorKind when it builds the final DecodeError, the same two-layer
// scheme the teacher uses (fmt.Errorf("%w: ...", ErrInvalidByte) deep in a decoder, interpreted by its caller).
var (
	errInvalidEncoding   = errors.New("invalid encoding")
	errUnsupported       = errors.New("unsupported")
	errExpectedFuncType  = errors.New("expected func type discriminator 0x60")
	errMissingEnd        = errors.New("missing end opcode")
	errMissingEndForBody = errors.New("missing end opcode for function body")
	errMalformedSection  = errors.New("malformed section")
)

// classify maps a raw decoder error to the ErrorKind the driver should report, preferring the most specific
// sentinel found anywhere in the error chain and falling back to io-related kinds.
func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, errInvalidEncoding):
		return ErrInvalidEncoding
	case errors.Is(err, errUnsupported):
		return ErrUnsupported
	case errors.Is(err, errExpectedFuncType):
		return ErrExpectedFuncType
	case errors.Is(err, errMissingEnd):
		return ErrMissingEndForExpression
	case errors.Is(err, errMissingEndForBody):
		return ErrMissingEndForBody
	case errors.Is(err, errMalformedSection):
		return ErrMalformedSection
	case errors.Is(err, leb128ErrOverflow):
		return ErrOverflow
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return ErrEndOfStream
	default:
		return ErrIO
	}
}
