package binary

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crowmoor/wazerocore/internal/wasm"
)

func TestDecodeError_IsMatchesByKind(t *testing.T) {
	e1 := newDecodeError(ErrInvalidMagicByte, 0, false, 0, errors.New("boom"))
	e2 := newDecodeError(ErrInvalidMagicByte, wasm.SectionIDType, true, 10, errors.New("different cause"))
	e3 := newDecodeError(ErrUnsupported, 0, false, 0, errors.New("boom"))

	require.ErrorIs(t, e1, e2)
	require.False(t, errors.Is(e1, e3))
}

func TestDecodeError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	e := newDecodeError(ErrInvalidEncoding, 0, false, 0, cause)
	require.ErrorIs(t, e, cause)
}

func TestClassify(t *testing.T) {
	require.Equal(t, ErrInvalidEncoding, classify(errInvalidEncoding))
	require.Equal(t, ErrUnsupported, classify(errUnsupported))
	require.Equal(t, ErrExpectedFuncType, classify(errExpectedFuncType))
	require.Equal(t, ErrMissingEndForExpression, classify(errMissingEnd))
	require.Equal(t, ErrMissingEndForBody, classify(errMissingEndForBody))
	require.Equal(t, ErrMalformedSection, classify(errMalformedSection))
	require.Equal(t, ErrOverflow, classify(leb128ErrOverflow))
}

func TestErrorKindString(t *testing.T) {
	require.Equal(t, "invalid magic byte", ErrInvalidMagicByte.String())
	require.Equal(t, "unknown", ErrorKind(999).String())
}
