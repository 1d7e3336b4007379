package metadata

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a failure so callers can branch on it.
type ErrorCode int

const (
	// ErrValidation indicates a malformed identifier, empty name or invalid
	// size. Raised before any side effect.
	ErrValidation ErrorCode = iota + 1

	// ErrContainerNotFound indicates the owner's blob container has not been
	// provisioned. Distinct from ErrNodeNotFound.
	ErrContainerNotFound

	// ErrNodeNotFound indicates the node does not exist or belongs to another
	// owner.
	ErrNodeNotFound

	// ErrAccountNotFound indicates no quota record exists for the owner.
	ErrAccountNotFound

	// ErrAlreadyExists indicates a unique key (node id, account email) is taken.
	ErrAlreadyExists

	// ErrConflict indicates the operation is invalid for the current tree
	// state, e.g. deleting a non-empty folder or using a file as parent.
	ErrConflict

	// ErrQuotaExceeded indicates the write would take the owner past its limit.
	ErrQuotaExceeded

	// ErrUnauthorized indicates bad credentials or an inactive account.
	ErrUnauthorized

	// ErrBackend indicates the node store or the blob store failed. The
	// Backend field tells which one. Retryable.
	ErrBackend
)

func (c ErrorCode) String() string {
	switch c {
	case ErrValidation:
		return "validation"
	case ErrContainerNotFound:
		return "container_not_found"
	case ErrNodeNotFound:
		return "node_not_found"
	case ErrAccountNotFound:
		return "account_not_found"
	case ErrAlreadyExists:
		return "already_exists"
	case ErrConflict:
		return "conflict"
	case ErrQuotaExceeded:
		return "quota_exceeded"
	case ErrUnauthorized:
		return "unauthorized"
	case ErrBackend:
		return "backend"
	default:
		return "unknown"
	}
}

// Backend identifies which external system produced an ErrBackend.
type Backend string

const (
	BackendNodeStore Backend = "node_store"
	BackendBlobStore Backend = "blob_store"
)

// Error is the error type returned by stores and the storage orchestrator.
type Error struct {
	Code    ErrorCode
	Op      string // operation that failed, e.g. "upload"
	Message string
	Backend Backend // set for ErrBackend
	Err     error   // underlying cause, if any
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code.String()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Backend != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Backend)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by code, so errors.Is(err, &Error{Code: X}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Backend != "" && t.Backend != e.Backend {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the ErrorCode carried by err, or 0 when err is not an *Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

// BackendOf returns the Backend carried by err, or "".
func BackendOf(err error) Backend {
	var e *Error
	if errors.As(err, &e) {
		return e.Backend
	}
	return ""
}

// IsNotFound reports whether err is any of the not-found codes.
func IsNotFound(err error) bool {
	switch CodeOf(err) {
	case ErrNodeNotFound, ErrContainerNotFound, ErrAccountNotFound:
		return true
	}
	return false
}

// IsValidation reports whether err is an ErrValidation.
func IsValidation(err error) bool { return CodeOf(err) == ErrValidation }

// IsQuotaExceeded reports whether err is an ErrQuotaExceeded.
func IsQuotaExceeded(err error) bool { return CodeOf(err) == ErrQuotaExceeded }

// IsBackend reports whether err is an ErrBackend.
func IsBackend(err error) bool { return CodeOf(err) == ErrBackend }

// NewValidationError creates an ErrValidation.
func NewValidationError(format string, args ...any) *Error {
	return &Error{Code: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// NewNodeNotFoundError creates an ErrNodeNotFound for id.
func NewNodeNotFoundError(id fmt.Stringer) *Error {
	return &Error{Code: ErrNodeNotFound, Message: fmt.Sprintf("node %s not found", id)}
}

// NewContainerNotFoundError creates an ErrContainerNotFound for container.
func NewContainerNotFoundError(container string) *Error {
	return &Error{Code: ErrContainerNotFound, Message: fmt.Sprintf("container %q not provisioned", container)}
}

// NewAccountNotFoundError creates an ErrAccountNotFound.
func NewAccountNotFoundError(key string) *Error {
	return &Error{Code: ErrAccountNotFound, Message: fmt.Sprintf("account %s not found", key)}
}

// NewAlreadyExistsError creates an ErrAlreadyExists.
func NewAlreadyExistsError(what string) *Error {
	return &Error{Code: ErrAlreadyExists, Message: what + " already exists"}
}

// NewConflictError creates an ErrConflict.
func NewConflictError(format string, args ...any) *Error {
	return &Error{Code: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

// NewQuotaExceededError creates an ErrQuotaExceeded.
func NewQuotaExceededError(used, additional, limit int64) *Error {
	return &Error{
		Code:    ErrQuotaExceeded,
		Message: fmt.Sprintf("quota exceeded: %d used + %d requested > %d limit", used, additional, limit),
	}
}

// NewNodeStoreError wraps a node store failure.
func NewNodeStoreError(op string, err error) *Error {
	return &Error{Code: ErrBackend, Op: op, Message: "node store failure", Backend: BackendNodeStore, Err: err}
}

// NewBlobStoreError wraps a blob store failure.
func NewBlobStoreError(op string, err error) *Error {
	return &Error{Code: ErrBackend, Op: op, Message: "blob store failure", Backend: BackendBlobStore, Err: err}
}

// NewChainTooDeepError reports a parent chain longer than maxDepth starting
// at start. Such a chain can only come from a cycle or corrupted rows.
func NewChainTooDeepError(start fmt.Stringer, maxDepth int) *Error {
	return &Error{
		Code:    ErrBackend,
		Backend: BackendNodeStore,
		Message: fmt.Sprintf("parent chain from %s exceeds %d levels", start, maxDepth),
	}
}

// WithOp returns err with Op set when it is an *Error that has none. Other
// errors are wrapped as node store failures.
func WithOp(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Op != "" {
			return err
		}
		c := *e
		c.Op = op
		return &c
	}
	return NewNodeStoreError(op, err)
}
