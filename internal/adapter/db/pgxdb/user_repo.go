package pgxdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	domain "user-service/internal/domain/user"
	usecase "user-service/internal/usecase/user"
	"user-service/pkg/logger"
)

const (
	insertUserSQL  = `INSERT INTO users (name, email) VALUES ($1, $2) RETURNING id`
	selectUserSQL  = `SELECT id, name, email FROM users WHERE id = $1`
	selectUsersSQL = `SELECT id, name, email FROM users ORDER BY id ASC`
	deleteUserSQL  = `DELETE FROM users WHERE id = $1`
)

// DBTX is the subset of *pgxpool.Pool used by UserRepo.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepo implements the user storage port with hand-written SQL over pgx.
type UserRepo struct {
	db  DBTX
	log *zap.Logger
}

var _ usecase.Repository = (*UserRepo)(nil)

// NewUserRepo creates a pgx-backed repository. db is usually a *pgxpool.Pool.
func NewUserRepo(db DBTX, log *zap.Logger) *UserRepo {
	return &UserRepo{db: db, log: log}
}

// Save inserts u and returns a copy carrying the generated id.
func (r *UserRepo) Save(ctx context.Context, u *domain.User) (*domain.User, error) {
	if u == nil {
		return nil, usecase.NewStorageError("save", errors.New("user cannot be nil"))
	}

	var id int64
	if err := r.db.QueryRow(ctx, insertUserSQL, u.Name, u.Email).Scan(&id); err != nil {
		return nil, r.fail(ctx, "save", err)
	}

	saved := u.WithID(id)
	return &saved, nil
}

// FindByID retrieves a user by id; (nil, nil) when there is none.
func (r *UserRepo) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, selectUserSQL, id).Scan(&u.ID, &u.Name, &u.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, r.fail(ctx, "find_by_id", err, zap.Int64("id", id))
	}
	return &u, nil
}

// FindAll returns all users ordered by ascending id.
func (r *UserRepo) FindAll(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, selectUsersSQL)
	if err != nil {
		return nil, r.fail(ctx, "find_all", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, r.fail(ctx, "find_all", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, r.fail(ctx, "find_all", err)
	}
	return users, nil
}

// Delete removes a user by id. Zero affected rows is not an error.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, deleteUserSQL, id)
	if err != nil {
		return r.fail(ctx, "delete", err, zap.Int64("id", id))
	}
	if tag.RowsAffected() == 0 {
		logger.WithContext(ctx, r.log).Debug("delete affected no rows", zap.Int64("id", id))
	}
	return nil
}

// fail logs the engine error, including SQLSTATE details for server errors,
// and returns the opaque storage error.
func (r *UserRepo) fail(ctx context.Context, op string, err error, fields ...zap.Field) error {
	fields = append(fields, zap.String("op", op), zap.Error(err))

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		fields = append(fields,
			zap.String("sqlstate", pgErr.Code),
			zap.String("constraint", pgErr.ConstraintName),
		)
	}

	logger.WithContext(ctx, r.log).Error("pgx query failed", fields...)
	return usecase.NewStorageError(op, err)
}

const createUsersSQL = `CREATE TABLE IF NOT EXISTS users (
	id    BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
	name  VARCHAR(100) NOT NULL,
	email TEXT NOT NULL
)`

// EnsureSchema creates the users table when it does not exist yet.
func EnsureSchema(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, createUsersSQL); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}
