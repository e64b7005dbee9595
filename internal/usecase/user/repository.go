package user

import (
	"context"

	domain "user-service/internal/domain/user"
)

// Repository is the storage port for users. Implementations must be safe
// for concurrent use; they receive every deadline through ctx.
type Repository interface {
	// Save persists u and returns a new value carrying the assigned ID.
	// u itself is left untouched.
	Save(ctx context.Context, u *domain.User) (*domain.User, error)
	// FindByID returns (nil, nil) when no user has the given id.
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// FindAll returns every user ordered by ascending id.
	FindAll(ctx context.Context) ([]domain.User, error)
	// Delete removes the user; a missing id is not an error.
	Delete(ctx context.Context, id int64) error
}

// StorageError is returned by Repository implementations for any engine
// failure. Its message names only the operation; the cause is kept for logs.
type StorageError struct {
	Op  string
	Err error
}

// NewStorageError wraps err as a failure of operation op.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// Error implements the error interface
func (e *StorageError) Error() string {
	return "storage: " + e.Op + " failed"
}

// Unwrap returns the engine error
func (e *StorageError) Unwrap() error {
	return e.Err
}
