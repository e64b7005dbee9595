package gormdb

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	domain "user-service/internal/domain/user"
	usecase "user-service/internal/usecase/user"
	"user-service/pkg/logger"
)

// UserRepo implements the user storage port on top of GORM. It works with
// any dialector (postgres, mysql, sqlite); every statement uses bound
// parameters.
type UserRepo struct {
	db  *gorm.DB    // GORM database connection
	log *zap.Logger // Structured logger for database operations
}

var _ usecase.Repository = (*UserRepo)(nil)

// NewUserRepo creates a new instance of UserRepo.
func NewUserRepo(db *gorm.DB, log *zap.Logger) *UserRepo {
	return &UserRepo{db: db, log: log}
}

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID    int64  `gorm:"primaryKey;autoIncrement"` // Engine-assigned identity
	Name  string `gorm:"size:100;not null"`
	Email string `gorm:"not null"`
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

func (m UserSchema) toDomain() domain.User {
	return domain.User{ID: m.ID, Name: m.Name, Email: m.Email}
}

// Save inserts u and returns a copy carrying the generated id.
func (r *UserRepo) Save(ctx context.Context, u *domain.User) (*domain.User, error) {
	if u == nil {
		return nil, usecase.NewStorageError("save", errors.New("user cannot be nil"))
	}

	model := UserSchema{
		Name:  u.Name,
		Email: u.Email,
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		logger.WithContext(ctx, r.log).Error("failed to create user in db", zap.Error(err))
		return nil, usecase.NewStorageError("save", err)
	}

	saved := u.WithID(model.ID)
	logger.WithContext(ctx, r.log).Debug("user created in db", zap.Int64("id", saved.ID))
	return &saved, nil
}

// FindByID retrieves a user by id; (nil, nil) when there is none.
func (r *UserRepo) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	var model UserSchema
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		logger.WithContext(ctx, r.log).Error("failed to get user from db", zap.Error(err), zap.Int64("id", id))
		return nil, usecase.NewStorageError("find_by_id", err)
	}

	u := model.toDomain()
	return &u, nil
}

// FindAll returns all users ordered by ascending id.
func (r *UserRepo) FindAll(ctx context.Context) ([]domain.User, error) {
	var models []UserSchema
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&models).Error; err != nil {
		logger.WithContext(ctx, r.log).Error("failed to list users from db", zap.Error(err))
		return nil, usecase.NewStorageError("find_all", err)
	}

	users := make([]domain.User, len(models))
	for i, model := range models {
		users[i] = model.toDomain()
	}
	return users, nil
}

// Delete removes a user by id. Zero affected rows is not an error.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&UserSchema{})
	if res.Error != nil {
		logger.WithContext(ctx, r.log).Error("failed to delete user in db", zap.Error(res.Error), zap.Int64("id", id))
		return usecase.NewStorageError("delete", res.Error)
	}

	if res.RowsAffected == 0 {
		// Lost a race with another delete of the same id
		logger.WithContext(ctx, r.log).Debug("delete affected no rows", zap.Int64("id", id))
	}
	return nil
}

// AutoMigrate creates or updates the users table. Only used for local
// development and tests; production schemas are owned elsewhere.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&UserSchema{})
}
