package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/nkiryanov/authapi/internal/apperrors"
	"github.com/nkiryanov/authapi/internal/models"
)

// Strategies verify credentials of a single kind and return sanitized user
// They never change user state

// AuthenticatePassword verifies email and password
func (s *AuthService) AuthenticatePassword(ctx context.Context, email string, password string) (models.User, error) {
	user, err := s.ValidateUser(ctx, email, password)
	if err != nil {
		return models.User{}, err
	}
	return user.Sanitize(), nil
}

// AuthenticateAccess verifies access token
// Token is rejected if the user signed out after it was issued
func (s *AuthService) AuthenticateAccess(ctx context.Context, access string) (models.User, error) {
	userID, err := s.tokens.ParseAccess(ctx, access)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrUserNotFound):
		return models.User{}, apperrors.ErrSessionInvalidated
	default:
		return models.User{}, fmt.Errorf("can't get user. Err: %w", err)
	}

	if !user.SignedIn() {
		return models.User{}, apperrors.ErrSessionInvalidated
	}

	return user.Sanitize(), nil
}

// AuthenticateRefresh verifies refresh token and that it is the last one issued to the user
func (s *AuthService) AuthenticateRefresh(ctx context.Context, refresh string) (models.User, error) {
	userID, err := s.tokens.ParseRefresh(ctx, refresh)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.ValidateUserRefreshToken(ctx, refresh, userID)
	if err != nil {
		return models.User{}, err
	}

	return user.Sanitize(), nil
}
