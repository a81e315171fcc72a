package errors

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without cause",
			err:  New(ErrCodeConfiguration, "pitch must be positive, got %g", 0.0),
			want: "CONFIGURATION: pitch must be positive, got 0",
		},
		{
			name: "with cause",
			err:  Wrap(ErrCodeExport, io.ErrShortWrite, "write geometry.xml"),
			want: "EXPORT_FAILURE: write geometry.xml: short write",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestIsUnwrapsChain(t *testing.T) {
	inner := New(ErrCodeMissingMaterial, "no material named %q", "salt")
	outer := Wrap(ErrCodeInternal, inner, "build")

	assert.True(t, Is(outer, ErrCodeInternal))
	assert.False(t, Is(inner, ErrCodeInternal))
	assert.True(t, Is(inner, ErrCodeMissingMaterial))
	assert.False(t, Is(io.EOF, ErrCodeMissingMaterial))
	assert.False(t, Is(nil, ErrCodeMissingMaterial))
}

func TestNotImplemented(t *testing.T) {
	err := NotImplemented("zone %q", "zoneIIB")

	require.True(t, Is(err, ErrCodeIncompleteRegion))
	assert.True(t, errors.Is(err, ErrNotImplemented))
	assert.Equal(t, `zone "zoneIIB": not implemented`, UserMessage(err))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodePlot, GetCode(Wrap(ErrCodePlot, io.EOF, "encode")))
	assert.Equal(t, Code(""), GetCode(io.EOF))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "radius must be positive", UserMessage(New(ErrCodeConfiguration, "radius must be positive")))
	assert.Equal(t, "EOF", UserMessage(io.EOF))
}
