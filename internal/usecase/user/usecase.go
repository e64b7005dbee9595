package user

import (
	"context"
	"errors"

	"go.uber.org/zap"

	domain "user-service/internal/domain/user"
	apperrors "user-service/pkg/errors"
	"user-service/pkg/logger"
)

const resourceName = "user"

// Service implements the business logic for user management operations.
// It is the only place where domain and storage failures are turned into
// application error kinds.
type Service struct {
	repo Repository  // Storage port
	log  *zap.Logger // Logger for structured logging
}

var _ Usecase = (*Service)(nil)

// New creates a new Service backed by the given storage port.
func New(r Repository, log *zap.Logger) *Service {
	return &Service{repo: r, log: log}
}

// CreateUser validates the input, then persists the new user.
func (s *Service) CreateUser(ctx context.Context, in CreateUserRequest) (*User, error) {
	log := logger.WithContext(ctx, s.log)
	log.Debug("creating user")

	u, err := domain.New(in.Name, in.Email)
	if err != nil {
		if !domain.IsValidationError(err) {
			log.Error("unexpected construction failure", zap.Error(err))
			return nil, err
		}
		log.Warn("validate failed", zap.Error(err))
		return nil, apperrors.NewDomainError(err)
	}

	saved, err := s.repo.Save(ctx, u)
	if err != nil {
		log.Error("failed to create user", zap.Error(err), zap.NamedError("cause", unwrapCause(err)))
		return nil, apperrors.NewDatabaseError(err)
	}

	log.Info("user created", zap.Int64("id", saved.ID))
	dto := toDTO(*saved)
	return &dto, nil
}

// GetUser retrieves a user by ID. Absence becomes a NotFound error.
func (s *Service) GetUser(ctx context.Context, in GetUserRequest) (*User, error) {
	log := logger.WithContext(ctx, s.log)

	u, err := s.repo.FindByID(ctx, in.ID)
	if err != nil {
		log.Error("failed to get user", zap.Int64("id", in.ID), zap.Error(err), zap.NamedError("cause", unwrapCause(err)))
		return nil, apperrors.NewDatabaseError(err)
	}
	if u == nil {
		log.Debug("user not found", zap.Int64("id", in.ID))
		return nil, apperrors.NewNotFoundError(resourceName)
	}

	dto := toDTO(*u)
	return &dto, nil
}

// ListUsers returns every user in ascending id order.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	log := logger.WithContext(ctx, s.log)

	domainUsers, err := s.repo.FindAll(ctx)
	if err != nil {
		log.Error("failed to list users", zap.Error(err), zap.NamedError("cause", unwrapCause(err)))
		return nil, apperrors.NewDatabaseError(err)
	}

	users := make([]User, len(domainUsers))
	for i, du := range domainUsers {
		users[i] = toDTO(du)
	}
	return users, nil
}

// DeleteUser confirms the user exists, then deletes it. The two steps are
// not atomic: a concurrent delete of the same id may turn the second step
// into a no-op.
func (s *Service) DeleteUser(ctx context.Context, in DeleteUserRequest) error {
	log := logger.WithContext(ctx, s.log)
	log.Info("deleting user", zap.Int64("id", in.ID))

	u, err := s.repo.FindByID(ctx, in.ID)
	if err != nil {
		log.Error("failed to look up user for delete", zap.Int64("id", in.ID), zap.Error(err), zap.NamedError("cause", unwrapCause(err)))
		return apperrors.NewDatabaseError(err)
	}
	if u == nil {
		log.Debug("user not found for delete", zap.Int64("id", in.ID))
		return apperrors.NewNotFoundError(resourceName)
	}

	if err := s.repo.Delete(ctx, in.ID); err != nil {
		log.Error("failed to delete user", zap.Int64("id", in.ID), zap.Error(err), zap.NamedError("cause", unwrapCause(err)))
		return apperrors.NewDatabaseError(err)
	}
	return nil
}

// unwrapCause returns the engine error behind a StorageError so that it is
// logged here and nowhere above.
func unwrapCause(err error) error {
	var se *StorageError
	if errors.As(err, &se) && se.Err != nil {
		return se.Err
	}
	return err
}
