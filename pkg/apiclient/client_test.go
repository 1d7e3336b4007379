package apiclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	client := New("http://localhost:8080/")
	assert.Equal(t, "http://localhost:8080", client.baseURL)
}

func TestWithToken(t *testing.T) {
	client := New("http://localhost:8080")
	tokenClient := client.WithToken("test-token")

	assert.Empty(t, client.token)
	assert.Equal(t, "test-token", tokenClient.token)
	assert.Equal(t, "http://localhost:8080", tokenClient.baseURL)
}

func TestDoWithAuthHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]int64{"used": 1, "limit": 2, "available": 1})
	}))
	defer server.Close()

	q, err := New(server.URL).WithToken("test-token").Quota(t.Context())
	require.NoError(t, err)
	assert.EqualValues(t, 1, q.Available)
}

func TestProblemResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"type":   TypeQuotaExceeded,
			"title":  "Quota Exceeded",
			"status": 413,
			"detail": "storage limit reached",
		})
	}))
	defer server.Close()

	_, err := New(server.URL).Quota(t.Context())
	require.Error(t, err)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusRequestEntityTooLarge, apiErr.StatusCode)
	assert.True(t, apiErr.IsQuotaExceeded())
	assert.False(t, apiErr.IsRetryable())
	assert.Equal(t, "Quota Exceeded: storage limit reached", apiErr.Error())
}

func TestValidationProblem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"type":   TypeValidation,
			"title":  "Bad Request",
			"status": 400,
			"errors": map[string]string{"password": "min", "email": "email"},
		})
	}))
	defer server.Close()

	_, err := New(server.URL).SignUp(t.Context(), "x", "y")
	require.Error(t, err)
	assert.Equal(t, "Bad Request [email email] [password min]", err.Error())
}

func TestNonJSONError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := New(server.URL).ListNodes(t.Context())
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "Bad Gateway", apiErr.Title)
	assert.Equal(t, "upstream down", apiErr.Detail)
}

func TestRetryable(t *testing.T) {
	for _, typ := range []string{TypeBlobStore, TypeNodeStore, TypeRateLimited} {
		assert.True(t, (&APIError{Type: typ}).IsRetryable(), typ)
	}
	assert.False(t, (&APIError{Type: TypeConflict}).IsRetryable())
}
