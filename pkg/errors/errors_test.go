package errors

import (
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageErrorWrapsCause(t *testing.T) {
	cause := io.ErrUnexpectedEOF
	err := NewStorageError("memory.store", cause)

	assert.Equal(t, TypeStorage, err.Type)
	assert.True(t, err.Retryable)
	assert.Equal(t, http.StatusBadGateway, err.HTTPStatusCode())
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "memory.store")
}

func TestStorageErrorStableMessage(t *testing.T) {
	a := NewStorageError("memory.search", errors.New("connection refused"))
	b := NewStorageError("memory.search", errors.New("timeout"))

	// Callers see the same message regardless of the underlying failure.
	assert.Equal(t, a.Message, b.Message)
}

func TestMalformedInputError(t *testing.T) {
	err := NewMalformedInputError("api.create_memory", "content is required")

	assert.Equal(t, http.StatusBadRequest, err.HTTPStatusCode())
	assert.False(t, err.Retryable)
	assert.Nil(t, err.Unwrap())
}

func TestHTTPStatusCodeDefaultsTo500(t *testing.T) {
	err := &Error{Type: TypeInternalError, Message: "boom"}
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatusCode())
}

func TestIsStorage(t *testing.T) {
	assert.True(t, IsStorage(NewStorageError("memory.get_all", errors.New("down"))))
	assert.False(t, IsStorage(NewInternalError("engine.process", "boom")))
	assert.False(t, IsStorage(errors.New("plain")))
}
