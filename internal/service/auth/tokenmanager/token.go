package tokenmanager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nkiryanov/authapi/internal/apperrors"
	"github.com/nkiryanov/authapi/internal/models"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultSigningMethod   = "HS256"
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims of both access and refresh tokens
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"userId"`
}

// Token manager with sensible default
type Config struct {
	// Secret keys to sign access and refresh tokens
	// Both required and must differ, so one kind of token never passes as the other
	AccessSecret  string
	RefreshSecret string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type TokenManager struct {
	accessKey  []byte
	refreshKey []byte

	// JWT MAC (Message Authentication Code) algorithm
	alg jwt.SigningMethod

	accessTTL  time.Duration
	refreshTTL time.Duration

	now func() time.Time
}

func New(cfg Config) (*TokenManager, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("access and refresh secret keys must not be empty")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secret keys must differ")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	alg, ok := jwt.GetSigningMethod(cfg.Alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("signing method %q is not supported, use one of HS256, HS384, HS512", cfg.Alg)
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	if cfg.AccessTTL < 0 || cfg.AccessTTL >= cfg.RefreshTTL {
		return nil, fmt.Errorf("access token TTL (%s) must be positive and shorter than refresh token TTL (%s)", cfg.AccessTTL, cfg.RefreshTTL)
	}

	return &TokenManager{
		accessKey:  []byte(cfg.AccessSecret),
		refreshKey: []byte(cfg.RefreshSecret),
		alg:        alg,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}, nil
}

// IssuePair signs access and refresh tokens for the user
// Both are signed concurrently, the pair is returned only if both succeeded
func (m *TokenManager) IssuePair(ctx context.Context, userID int64) (models.TokenPair, error) {
	var pair models.TokenPair
	now := m.now().Truncate(time.Second)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		token, err := m.sign(m.accessKey, userID, now, m.accessTTL)
		if err != nil {
			return fmt.Errorf("error while signing access token: %w", err)
		}
		pair.Access = token
		return nil
	})
	g.Go(func() error {
		token, err := m.sign(m.refreshKey, userID, now, m.refreshTTL)
		if err != nil {
			return fmt.Errorf("error while signing refresh token: %w", err)
		}
		pair.Refresh = token
		return nil
	})

	if err := g.Wait(); err != nil {
		return models.TokenPair{}, err
	}

	return pair, nil
}

func (m *TokenManager) sign(key []byte, userID int64, now time.Time, ttl time.Duration) (models.IssuedToken, error) {
	expiresAt := now.Add(ttl)

	token := jwt.NewWithClaims(
		m.alg,
		Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				// Unique id makes tokens issued at the same second differ
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			UserID: userID,
		},
	)

	value, err := token.SignedString(key)
	if err != nil {
		return models.IssuedToken{}, err
	}

	return models.IssuedToken{Value: value, ExpiresAt: expiresAt}, nil
}

// ParseAccess validates access token and returns user id from it
// Returns apperrors.ErrTokenExpired if token expired and apperrors.ErrTokenInvalid on any other failure
func (m *TokenManager) ParseAccess(ctx context.Context, access string) (userID int64, err error) {
	return m.parse(m.accessKey, access, apperrors.ErrTokenExpired)
}

// ParseRefresh validates refresh token and returns user id from it
// Returns apperrors.ErrRefreshTokenExpired if token expired and apperrors.ErrTokenInvalid on any other failure
func (m *TokenManager) ParseRefresh(ctx context.Context, refresh string) (userID int64, err error) {
	return m.parse(m.refreshKey, refresh, apperrors.ErrRefreshTokenExpired)
}

func (m *TokenManager) parse(key []byte, value string, errExpired error) (int64, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(
		value,
		claims,
		func(t *jwt.Token) (any, error) {
			return key, nil
		},
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)

	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return 0, fmt.Errorf("error while validating token: %w", errExpired)
	default:
		return 0, fmt.Errorf("error while parsing or validating token. Err: %w", errors.Join(apperrors.ErrTokenInvalid, err))
	}

	if claims.UserID <= 0 {
		return 0, fmt.Errorf("token has no user: %w", apperrors.ErrTokenInvalid)
	}

	return claims.UserID, nil
}
