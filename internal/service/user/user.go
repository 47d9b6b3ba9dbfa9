package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/nkiryanov/authapi/internal/models"
	"github.com/nkiryanov/authapi/internal/repository"
	"github.com/nkiryanov/authapi/internal/service/auth"
)

// User to create in bulk
type NewUser struct {
	Email    string
	Password string
	Name     *string
	Role     models.Role
}

type UserService struct {
	hasher  auth.PasswordHasher
	storage repository.Storage
}

func NewService(hasher auth.PasswordHasher, storage repository.Storage) *UserService {
	if hasher == nil {
		hasher = auth.BcryptHasher{}
	}

	return &UserService{
		hasher:  hasher,
		storage: storage,
	}
}

// UpdateProfile updates user editable fields
// Returns apperrors.ErrNoInput if nothing to update
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, arg repository.UpdateUserParams) (models.User, error) {
	user, err := s.storage.User().UpdateUser(ctx, userID, arg)
	if err != nil {
		return models.User{}, err
	}
	return user.Sanitize(), nil
}

func (s *UserService) List(ctx context.Context, req models.PageRequest, opts repository.ListUsersOpts) (models.Page[models.User], error) {
	page, err := s.storage.User().ListUsers(ctx, req, opts)
	if err != nil {
		return page, err
	}

	for i := range page.Items {
		page.Items[i] = page.Items[i].Sanitize()
	}
	return page, nil
}

func (s *UserService) ListCursor(ctx context.Context, req models.CursorRequest, opts repository.ListUsersOpts) (models.CursorPage[models.User], error) {
	page, err := s.storage.User().ListUsersCursor(ctx, req, opts)
	if err != nil {
		return page, err
	}

	for i := range page.Items {
		page.Items[i] = page.Items[i].Sanitize()
	}
	return page, nil
}

// CreateBulk creates all users or none of them
func (s *UserService) CreateBulk(ctx context.Context, users []NewUser) ([]models.User, error) {
	// Hash outside of transaction, bcrypt is slow
	params := make([]repository.CreateUserParams, 0, len(users))
	for _, u := range users {
		hash, err := s.hasher.Hash(u.Password)
		if err != nil {
			return nil, fmt.Errorf("can't use this as password, Err: %w", err)
		}
		params = append(params, repository.CreateUserParams{
			Email:        strings.ToLower(strings.TrimSpace(u.Email)),
			PasswordHash: hash,
			Name:         u.Name,
			Role:         u.Role,
		})
	}

	created := make([]models.User, 0, len(users))
	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		for _, p := range params {
			user, err := tx.User().CreateUser(ctx, p)
			if err != nil {
				return fmt.Errorf("can't create user %q. Err: %w", p.Email, err)
			}
			created = append(created, user.Sanitize())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}
