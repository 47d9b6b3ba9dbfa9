package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nkiryanov/authapi/internal/apperrors"
	"github.com/nkiryanov/authapi/internal/models"
	"github.com/nkiryanov/authapi/internal/repository"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type tokenManager interface {
	IssuePair(ctx context.Context, userID int64) (models.TokenPair, error)
	ParseAccess(ctx context.Context, access string) (int64, error)
	ParseRefresh(ctx context.Context, refresh string) (int64, error)
}

type Config struct {
	// Hasher to use for passwords and refresh tokens
	// BcryptHasher is used if not set
	Hasher PasswordHasher
}

// Auth service
// User is either signed out (no refresh token hash stored) or signed in (hash of the last issued refresh token stored)
type AuthService struct {
	// Manager to issue and parse token pairs (access and refresh)
	tokens tokenManager

	// hasher to hash or compare user passwords and refresh tokens
	hasher PasswordHasher

	// Compared against when user not found, so response time does not reveal whether email is registered
	dummyHash string

	userRepo repository.UserRepo
}

func NewService(cfg Config, tokens tokenManager, userRepo repository.UserRepo) (*AuthService, error) {
	// Set default bcrypt hasher if not provided by user
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	if tokens == nil || userRepo == nil {
		return nil, errors.New("token manager and user repo must not be nil")
	}

	dummyHash, err := hasher.Hash("not-a-real-password")
	if err != nil {
		return nil, fmt.Errorf("hasher is not usable: %w", err)
	}

	return &AuthService{
		tokens:    tokens,
		hasher:    hasher,
		dummyHash: dummyHash,
		userRepo:  userRepo,
	}, nil
}

// Signup creates new signed out user
// Returns apperrors.ErrUserAlreadyExists if email is taken
func (s *AuthService) Signup(ctx context.Context, email string, password string) (models.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, fmt.Errorf("can't use this as password. Err: %w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, repository.CreateUserParams{
		Email:        normalizeEmail(email),
		PasswordHash: hash,
	})
	if err != nil {
		return models.User{}, err
	}

	return user.Sanitize(), nil
}

// Signin issues new token pair and stores hash of the refresh token
// Previously issued refresh token becomes invalid
func (s *AuthService) Signin(ctx context.Context, user models.User) (models.Session, error) {
	pair, err := s.tokens.IssuePair(ctx, user.ID)
	if err != nil {
		return models.Session{}, fmt.Errorf("token could not be issued. Err: %w", err)
	}

	hash, err := s.hasher.Hash(pair.Refresh.Value)
	if err != nil {
		return models.Session{}, fmt.Errorf("refresh token could not be hashed. Err: %w", err)
	}

	err = s.userRepo.SetRefreshTokenHash(ctx, user.ID, &hash)
	if err != nil {
		return models.Session{}, fmt.Errorf("refresh token could not be saved. Err: %w", err)
	}

	return models.Session{User: user.Sanitize(), Tokens: pair}, nil
}

// Signout clears refresh token hash, so neither access nor refresh tokens issued before are accepted
// It is ok to sign out twice
func (s *AuthService) Signout(ctx context.Context, userID int64) error {
	err := s.userRepo.SetRefreshTokenHash(ctx, userID, nil)
	if err != nil {
		return fmt.Errorf("can't sign out user. Err: %w", err)
	}
	return nil
}

// ValidateUser checks email and password
// Returns apperrors.ErrCredentialsMismatch whether the user not exists or password is wrong
func (s *AuthService) ValidateUser(ctx context.Context, email string, password string) (models.User, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, normalizeEmail(email))

	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrUserNotFound):
		_ = s.hasher.Compare(s.dummyHash, password)
		return models.User{}, apperrors.ErrCredentialsMismatch
	default:
		return models.User{}, fmt.Errorf("can't get user. Err: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return models.User{}, apperrors.ErrCredentialsMismatch
	}

	return user, nil
}

// ValidateUserRefreshToken checks the token is the last one issued to the user
// Returns apperrors.ErrSessionInvalidated if user signed out, token rotated or user deleted
func (s *AuthService) ValidateUserRefreshToken(ctx context.Context, refresh string, userID int64) (models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)

	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrUserNotFound):
		return models.User{}, apperrors.ErrSessionInvalidated
	default:
		return models.User{}, fmt.Errorf("can't get user. Err: %w", err)
	}

	if user.RefreshTokenHash == nil {
		return models.User{}, apperrors.ErrSessionInvalidated
	}

	if err := s.hasher.Compare(*user.RefreshTokenHash, refresh); err != nil {
		return models.User{}, apperrors.ErrSessionInvalidated
	}

	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
