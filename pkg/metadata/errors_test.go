package metadata

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	id := uuid.New()
	wrapped := fmt.Errorf("outer: %w", NewNodeNotFoundError(id))

	assert.Equal(t, ErrNodeNotFound, CodeOf(wrapped))
	assert.True(t, IsNotFound(wrapped))
	assert.True(t, IsNotFound(NewContainerNotFoundError("c")))
	assert.False(t, IsNotFound(NewQuotaExceededError(1, 2, 2)))
	assert.True(t, IsQuotaExceeded(NewQuotaExceededError(1, 2, 2)))
	assert.Zero(t, CodeOf(errors.New("plain")))
}

func TestErrorIs(t *testing.T) {
	err := NewBlobStoreError("upload", errors.New("timeout"))

	assert.ErrorIs(t, err, &Error{Code: ErrBackend})
	assert.ErrorIs(t, err, &Error{Code: ErrBackend, Backend: BackendBlobStore})
	assert.NotErrorIs(t, err, &Error{Code: ErrBackend, Backend: BackendNodeStore})
	assert.NotErrorIs(t, err, &Error{Code: ErrValidation})
	assert.Equal(t, BackendBlobStore, BackendOf(err))
}

func TestErrorMessage(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewNodeStoreError("delete", cause)

	assert.Equal(t, "delete: node store failure [node_store]: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "validation", (&Error{Code: ErrValidation}).Error())
}

func TestWithOp(t *testing.T) {
	assert.NoError(t, WithOp("x", nil))

	err := WithOp("rename", NewValidationError("bad"))
	assert.Contains(t, err.Error(), "rename: bad")

	kept := WithOp("list", NewBlobStoreError("sign", errors.New("x")))
	assert.Contains(t, kept.Error(), "sign:")

	wrapped := WithOp("upload", context.DeadlineExceeded)
	assert.True(t, IsBackend(wrapped))
	assert.Equal(t, BackendNodeStore, BackendOf(wrapped))
	assert.ErrorIs(t, wrapped, context.DeadlineExceeded)
}
