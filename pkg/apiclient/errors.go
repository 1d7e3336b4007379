package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"
)

// Problem type URIs returned by the server.
const (
	TypeValidation        = "urn:servr:problem:validation"
	TypeUnauthorized      = "urn:servr:problem:unauthorized"
	TypeContainerNotFound = "urn:servr:problem:container-not-found"
	TypeNodeNotFound      = "urn:servr:problem:node-not-found"
	TypeConflict          = "urn:servr:problem:conflict"
	TypeQuotaExceeded     = "urn:servr:problem:quota-exceeded"
	TypeBlobStore         = "urn:servr:problem:blob-store-unavailable"
	TypeNodeStore         = "urn:servr:problem:node-store-unavailable"
	TypeRateLimited       = "urn:servr:problem:rate-limited"
)

// APIError is a problem details response of the API.
type APIError struct {
	StatusCode int               `json:"status"`
	Type       string            `json:"type,omitempty"`
	Title      string            `json:"title"`
	Detail     string            `json:"detail,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.Title
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", e.Title, e.Detail)
	}
	for _, field := range slices.Sorted(maps.Keys(e.Errors)) {
		msg += fmt.Sprintf(" [%s %s]", field, e.Errors[field])
	}
	return msg
}

// IsAuthError reports a missing or rejected token or credentials.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsNotFound reports a missing node, account or container.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsConflict reports a duplicate or a non-empty folder delete.
func (e *APIError) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}

// IsQuotaExceeded reports an upload over the owner's storage limit.
func (e *APIError) IsQuotaExceeded() bool {
	return e.Type == TypeQuotaExceeded
}

// IsRetryable reports backend failures and rate limiting, which may succeed
// on a later attempt.
func (e *APIError) IsRetryable() bool {
	switch e.Type {
	case TypeBlobStore, TypeNodeStore, TypeRateLimited:
		return true
	}
	return false
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

func parseError(status int, contentType string, body []byte) error {
	apiErr := &APIError{}
	if strings.Contains(contentType, "json") && json.Unmarshal(body, apiErr) == nil && apiErr.Title != "" {
		apiErr.StatusCode = status
		return apiErr
	}
	return &APIError{
		StatusCode: status,
		Title:      http.StatusText(status),
		Detail:     strings.TrimSpace(string(body)),
	}
}
