package errors

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind classifies an application failure. Every AppError carries exactly one Kind.
type Kind int

const (
	// KindDomain means an input invariant was violated; the caller must fix the input.
	KindDomain Kind = iota + 1
	// KindDatabase means the storage engine failed; details stay server-side.
	KindDatabase
	// KindNotFound means the requested entity does not exist.
	KindNotFound
)

// String returns the kind name used in logs
func (k Kind) String() string {
	switch k {
	case KindDomain:
		return "domain"
	case KindDatabase:
		return "database"
	case KindNotFound:
		return "not_found"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// AppError is the single error type returned by the application layer.
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

// NewDomainError wraps an input validation failure. The message is the
// validation error's own text, which is safe to show to callers.
func NewDomainError(err error) *AppError {
	return &AppError{Kind: KindDomain, Message: err.Error(), Err: err}
}

// NewDatabaseError wraps a storage failure behind a generic message.
func NewDatabaseError(err error) *AppError {
	return &AppError{Kind: KindDatabase, Message: "a database error occurred", Err: err}
}

// NewNotFoundError reports that a resource does not exist
func NewNotFoundError(resource string) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// GRPCStatus returns the gRPC status for this error. Database failures
// never expose the wrapped cause.
func (e *AppError) GRPCStatus() *status.Status {
	switch e.Kind {
	case KindDomain:
		return status.New(codes.InvalidArgument, e.Message)
	case KindNotFound:
		return status.New(codes.NotFound, e.Message)
	default:
		return status.New(codes.Internal, e.Message)
	}
}

// KindOf extracts the Kind of the first AppError in err's chain.
func KindOf(err error) (Kind, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return 0, false
}

// GRPCStatuser interface for errors that can provide gRPC status
type GRPCStatuser interface {
	GRPCStatus() *status.Status
}
