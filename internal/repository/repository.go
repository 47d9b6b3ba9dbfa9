package repository

import (
	"context"

	"github.com/nkiryanov/authapi/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user
	// If user with the email exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Get user by it's id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, id int64) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	// Update user profile fields
	// If nothing to update must return apperrors.ErrNoInput
	UpdateUser(ctx context.Context, id int64, arg UpdateUserParams) (models.User, error)

	// Overwrite refresh token hash, nil clears the hash (user signs out)
	// It is ok to set the same value twice
	SetRefreshTokenHash(ctx context.Context, id int64, hash *string) error

	// List users with offset or cursor pagination
	ListUsers(ctx context.Context, req models.PageRequest, opts ListUsersOpts) (models.Page[models.User], error)
	ListUsersCursor(ctx context.Context, req models.CursorRequest, opts ListUsersOpts) (models.CursorPage[models.User], error)
}

type Storage interface {
	User() UserRepo

	// Run fn in transaction
	// Commit if fn returns nil, rollback otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}
