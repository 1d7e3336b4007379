package problem

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/servr/pkg/metadata"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		typ    string
	}{
		{"validation", metadata.NewValidationError("bad"), http.StatusBadRequest, TypeValidation},
		{"unauthorized", &metadata.Error{Code: metadata.ErrUnauthorized}, http.StatusUnauthorized, TypeUnauthorized},
		{"container", metadata.NewContainerNotFoundError("c"), http.StatusNotFound, TypeContainerNotFound},
		{"node", metadata.NewNodeNotFoundError(uuid.New()), http.StatusNotFound, TypeNodeNotFound},
		{"account", metadata.NewAccountNotFoundError("x"), http.StatusNotFound, TypeAccountNotFound},
		{"exists", metadata.NewAlreadyExistsError("account"), http.StatusConflict, TypeAlreadyExists},
		{"conflict", metadata.NewConflictError("folder not empty"), http.StatusConflict, TypeConflict},
		{"quota", metadata.NewQuotaExceededError(10, 5, 12), http.StatusRequestEntityTooLarge, TypeQuotaExceeded},
		{"blob", metadata.NewBlobStoreError("put", errors.New("s3")), http.StatusBadGateway, TypeBlobStore},
		{"node store", metadata.NewNodeStoreError("commit", errors.New("pg")), http.StatusServiceUnavailable, TypeNodeStore},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FromError(tt.err)
			assert.Equal(t, tt.status, p.Status)
			assert.Equal(t, tt.typ, p.Type)
		})
	}
}

func TestFromErrorHidesBackendDetail(t *testing.T) {
	p := FromError(metadata.NewNodeStoreError("commit", errors.New("password=hunter2")))
	assert.NotContains(t, p.Detail, "hunter2")

	p = FromError(metadata.WithOp("upload", metadata.NewQuotaExceededError(10, 5, 12)))
	assert.Equal(t, "Quota Exceeded", p.Title)
	assert.NotEmpty(t, p.Detail)
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/nodes", nil)

	Error(rec, req, metadata.NewContainerNotFoundError("servr-x"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ContentType, rec.Header().Get("Content-Type"))

	var p Problem
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	assert.Equal(t, TypeContainerNotFound, p.Type)
	assert.Equal(t, "/api/v1/nodes", p.Instance)
}

func TestUnauthorizedSetsChallenge(t *testing.T) {
	rec := httptest.NewRecorder()
	Unauthorized(rec, "token required")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
}
