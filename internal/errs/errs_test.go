package errs

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Message(t *testing.T) {
	t.Run("with cause", func(t *testing.T) {
		err := New(KindNetwork, "fetch block 7", io.ErrUnexpectedEOF)
		assert.Equal(t, "network error: fetch block 7: unexpected EOF", err.Error())
	})

	t.Run("without cause", func(t *testing.T) {
		err := Newf(KindInvalidInput, "bytecode missing 0x prefix")
		assert.Equal(t, "invalid input: bytecode missing 0x prefix", err.Error())
	})
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := New(KindNetwork, "dial rpc", cause)

	require.ErrorIs(t, err, cause)

	// Kind survives further wrapping at package boundaries
	wrapped := fmt.Errorf("scan aborted: %w", err)
	assert.True(t, IsKind(wrapped, KindNetwork))
	assert.False(t, IsKind(wrapped, KindConfig))
}

func TestIsKind_PlainError(t *testing.T) {
	assert.False(t, IsKind(errors.New("boring"), KindNetwork))
	assert.False(t, IsKind(nil, KindNetwork))
}

func TestKind_String(t *testing.T) {
	for kind, want := range map[Kind]string{
		KindConfig:        "configuration error",
		KindNetwork:       "network error",
		KindSerialization: "serialization error",
		KindEncoding:      "encoding error",
		KindInvalidInput:  "invalid input",
	} {
		assert.Equal(t, want, kind.String())
	}
}
