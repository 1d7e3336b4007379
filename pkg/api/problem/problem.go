// Package problem writes RFC 7807 "problem details" responses and maps
// domain errors onto them.
package problem

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/marmos91/servr/internal/logger"
	"github.com/marmos91/servr/pkg/metadata"
)

// ContentType is the Content-Type of problem responses.
const ContentType = "application/problem+json"

// Problem is an RFC 7807 problem details body.
// https://tools.ietf.org/html/rfc7807
type Problem struct {
	// Type is a URI reference that identifies the problem type.
	Type string `json:"type,omitempty"`

	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`

	// Instance identifies the occurrence, here the request path.
	Instance string `json:"instance,omitempty"`

	// Errors lists per-field validation failures.
	Errors map[string]string `json:"errors,omitempty"`
}

// Problem type URIs.
const (
	TypeBlank             = "about:blank"
	TypeValidation        = "urn:servr:problem:validation"
	TypeUnauthorized      = "urn:servr:problem:unauthorized"
	TypeContainerNotFound = "urn:servr:problem:container-not-found"
	TypeNodeNotFound      = "urn:servr:problem:node-not-found"
	TypeAccountNotFound   = "urn:servr:problem:account-not-found"
	TypeAlreadyExists     = "urn:servr:problem:already-exists"
	TypeConflict          = "urn:servr:problem:conflict"
	TypeQuotaExceeded     = "urn:servr:problem:quota-exceeded"
	TypeBlobStore         = "urn:servr:problem:blob-store-unavailable"
	TypeNodeStore         = "urn:servr:problem:node-store-unavailable"
	TypeRateLimited       = "urn:servr:problem:rate-limited"
)

// Write encodes p with its status.
func Write(w http.ResponseWriter, p *Problem) {
	if p.Type == "" {
		p.Type = TypeBlank
	}
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// WriteProblem writes a problem of type about:blank.
func WriteProblem(w http.ResponseWriter, status int, title, detail string) {
	Write(w, &Problem{Title: title, Status: status, Detail: detail})
}

// BadRequest writes a 400 Bad Request problem response.
func BadRequest(w http.ResponseWriter, detail string) {
	Write(w, &Problem{Type: TypeValidation, Title: "Bad Request", Status: http.StatusBadRequest, Detail: detail})
}

// Unauthorized writes a 401 Unauthorized problem response.
func Unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="servr"`)
	Write(w, &Problem{Type: TypeUnauthorized, Title: "Unauthorized", Status: http.StatusUnauthorized, Detail: detail})
}

// NotFound writes a 404 Not Found problem response.
func NotFound(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusNotFound, "Not Found", detail)
}

// TooLarge writes a 413 problem for a request body over the upload limit.
func TooLarge(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", detail)
}

// TooManyRequests writes a 429 problem response.
func TooManyRequests(w http.ResponseWriter, detail string) {
	Write(w, &Problem{Type: TypeRateLimited, Title: "Too Many Requests", Status: http.StatusTooManyRequests, Detail: detail})
}

// InternalServerError writes a 500 Internal Server Error problem response.
func InternalServerError(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", detail)
}

// FromError maps err onto a problem. User errors carry their message as
// detail. Backend and unknown errors are logged and answered with a generic
// detail.
func FromError(err error) *Problem {
	var e *metadata.Error
	if !errors.As(err, &e) {
		return &Problem{
			Title:  "Internal Server Error",
			Status: http.StatusInternalServerError,
			Detail: "internal error",
		}
	}

	detail := e.Message
	switch e.Code {
	case metadata.ErrValidation:
		return &Problem{Type: TypeValidation, Title: "Bad Request", Status: http.StatusBadRequest, Detail: detail}
	case metadata.ErrUnauthorized:
		return &Problem{Type: TypeUnauthorized, Title: "Unauthorized", Status: http.StatusUnauthorized, Detail: detail}
	case metadata.ErrContainerNotFound:
		return &Problem{Type: TypeContainerNotFound, Title: "Container Not Found", Status: http.StatusNotFound, Detail: detail}
	case metadata.ErrNodeNotFound:
		return &Problem{Type: TypeNodeNotFound, Title: "Node Not Found", Status: http.StatusNotFound, Detail: detail}
	case metadata.ErrAccountNotFound:
		return &Problem{Type: TypeAccountNotFound, Title: "Account Not Found", Status: http.StatusNotFound, Detail: detail}
	case metadata.ErrAlreadyExists:
		return &Problem{Type: TypeAlreadyExists, Title: "Conflict", Status: http.StatusConflict, Detail: detail}
	case metadata.ErrConflict:
		return &Problem{Type: TypeConflict, Title: "Conflict", Status: http.StatusConflict, Detail: detail}
	case metadata.ErrQuotaExceeded:
		return &Problem{Type: TypeQuotaExceeded, Title: "Quota Exceeded", Status: http.StatusRequestEntityTooLarge, Detail: detail}
	case metadata.ErrBackend:
		if e.Backend == metadata.BackendBlobStore {
			return &Problem{Type: TypeBlobStore, Title: "Bad Gateway", Status: http.StatusBadGateway, Detail: "blob store unavailable, retry later"}
		}
		return &Problem{Type: TypeNodeStore, Title: "Service Unavailable", Status: http.StatusServiceUnavailable, Detail: "node store unavailable, retry later"}
	}
	return &Problem{Title: "Internal Server Error", Status: http.StatusInternalServerError, Detail: "internal error"}
}

// Error writes the problem for err and logs server-side failures with the
// full error text.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	p := FromError(err)
	p.Instance = r.URL.Path
	if p.Status >= http.StatusInternalServerError {
		logger.ErrorCtx(r.Context(), "request failed", "status", p.Status, logger.Err(err))
	}
	Write(w, p)
}
