package ieee754

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeFloat32Bits(t *testing.T) {
	for _, c := range []struct {
		name  string
		input []byte
		want  uint32
	}{
		{name: "zero", input: []byte{0x00, 0x00, 0x00, 0x00}, want: 0},
		{name: "one", input: []byte{0x00, 0x00, 0x80, 0x3f}, want: math.Float32bits(1)},
		{name: "negative", input: []byte{0x00, 0x00, 0x80, 0xbf}, want: math.Float32bits(-1)},
		{name: "nan payload preserved", input: []byte{0x01, 0x00, 0xc0, 0x7f}, want: 0x7fc00001},
	} {
		t.Run(c.name, func(t *testing.T) {
			got, err := DecodeFloat32Bits(bytes.NewReader(c.input))
			require.NoError(t, err)
			require.Equal(t, c.want, got)
		})
	}

	_, err := DecodeFloat32Bits(bytes.NewReader([]byte{0x00, 0x00}))
	require.Error(t, err)
}

func TestDecodeFloat64Bits(t *testing.T) {
	for _, c := range []struct {
		name  string
		input []byte
		want  uint64
	}{
		{name: "zero", input: []byte{0, 0, 0, 0, 0, 0, 0, 0}, want: 0},
		{name: "one", input: []byte{0, 0, 0, 0, 0, 0, 0xf0, 0x3f}, want: math.Float64bits(1)},
	} {
		t.Run(c.name, func(t *testing.T) {
			got, err := DecodeFloat64Bits(bytes.NewReader(c.input))
			require.NoError(t, err)
			require.Equal(t, c.want, got)
		})
	}
}

func TestDecodeFloat32AndFloat64(t *testing.T) {
	f32, err := DecodeFloat32(bytes.NewReader([]byte{0x00, 0x00, 0x80, 0x3f}))
	require.NoError(t, err)
	require.Equal(t, float32(1), f32)

	f64, err := DecodeFloat64(bytes.NewReader([]byte{0, 0, 0, 0, 0, 0, 0xf0, 0x3f}))
	require.NoError(t, err)
	require.Equal(t, float64(1), f64)
}
