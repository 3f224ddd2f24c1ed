package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Message(t *testing.T) {
	err := ValidationError("days must be positive")
	assert.Equal(t, "validation: days must be positive", err.Error())

	cause := errors.New("disk full")
	perr := PersistenceError("failed to save document", cause)
	assert.Equal(t, "persistence: failed to save document: disk full", perr.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := PersistenceError("save failed", cause)
	assert.True(t, errors.Is(err, cause))
}

func TestError_HTTPStatus(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{ValidationError("bad input"), http.StatusBadRequest},
		{NotFoundError("no such guild"), http.StatusNotFound},
		{PersistenceError("save failed", nil), http.StatusServiceUnavailable},
		{InternalError("boom", nil), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.HTTPStatus(), string(tt.err.Type))
	}
}

func TestError_WithContext(t *testing.T) {
	err := NotFoundError("member not found").
		WithContext("guild_id", "g1").
		WithContext("user_id", "u1")

	assert.Equal(t, "g1", err.Context["guild_id"])
	assert.Equal(t, "u1", err.Context["user_id"])

	resp := err.ToResponse()
	assert.Equal(t, "member not found", resp.Error)
	assert.Equal(t, TypeNotFound, resp.Type)
	assert.Equal(t, "u1", resp.Context["user_id"])
}

func TestAsStructuredError(t *testing.T) {
	assert.Nil(t, AsStructuredError(nil))

	structured := ValidationError("bad")
	assert.Same(t, structured, AsStructuredError(structured))

	wrapped := fmt.Errorf("outer: %w", structured)
	assert.Same(t, structured, AsStructuredError(wrapped))

	plain := errors.New("mystery")
	got := AsStructuredError(plain)
	require.NotNil(t, got)
	assert.Equal(t, TypeInternal, got.Type)
	assert.True(t, errors.Is(got, plain))
}
