package middleware

import (
	"context"
	"net/http"

	"github.com/nkiryanov/authapi/internal/apperrors"
	"github.com/nkiryanov/authapi/internal/handlers/credentials"
	"github.com/nkiryanov/authapi/internal/handlers/render"
	"github.com/nkiryanov/authapi/internal/metrics"
	"github.com/nkiryanov/authapi/internal/models"
)

// Strategy is the kind of credentials a route accepts
// Routes are protected with access token unless marked otherwise
type Strategy int

const (
	StrategyAccess Strategy = iota
	StrategyPassword
	StrategyRefresh
	StrategyPublic
)

func (s Strategy) String() string {
	switch s {
	case StrategyPassword:
		return "password"
	case StrategyRefresh:
		return "refresh"
	case StrategyPublic:
		return "public"
	default:
		return "access"
	}
}

// Policy describes who may call the route
type Policy struct {
	Strategy Strategy

	// Role required, any role if empty
	Role models.Role
}

// IdentityHandler handles request of authenticated user
// User is nil for public routes
type IdentityHandler func(w http.ResponseWriter, r *http.Request, user *models.User)

type authenticator interface {
	AuthenticatePassword(ctx context.Context, email string, password string) (models.User, error)
	AuthenticateAccess(ctx context.Context, access string) (models.User, error)
	AuthenticateRefresh(ctx context.Context, refresh string) (models.User, error)
}

type decisionRecorder interface {
	RecordAuthDecision(strategy string, outcome string)
}

type passwordCredentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Guard authenticates requests before they reach handlers
type Guard struct {
	auth      authenticator
	transport credentials.Transport
	metrics   decisionRecorder
	logger    logger
}

func NewGuard(auth authenticator, transport credentials.Transport, metrics decisionRecorder, l logger) *Guard {
	return &Guard{
		auth:      auth,
		transport: transport,
		metrics:   metrics,
		logger:    l,
	}
}

// Protect authenticates request with policy strategy and checks user role
// The handler is called only if both succeed
func (g *Guard) Protect(p Policy, h IdentityHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p.Strategy == StrategyPublic {
			h(w, r, nil)
			return
		}

		user, err := g.authenticate(r, p.Strategy)
		if err == nil && p.Role != "" && user.Role != p.Role {
			err = apperrors.ErrForbidden
		}

		if err != nil {
			g.reject(w, r, p.Strategy, err)
			return
		}

		g.metrics.RecordAuthDecision(p.Strategy.String(), metrics.OutcomeOK)
		h(w, r, &user)
	})
}

func (g *Guard) authenticate(r *http.Request, s Strategy) (models.User, error) {
	ctx := r.Context()

	switch s {
	case StrategyPassword:
		creds, err := render.Bind[passwordCredentials](r)
		if err != nil {
			return models.User{}, err
		}
		return g.auth.AuthenticatePassword(ctx, creds.Email, creds.Password)

	case StrategyRefresh:
		token := g.transport.RefreshToken(r)
		if token == "" {
			return models.User{}, apperrors.ErrUnauthorized
		}
		return g.auth.AuthenticateRefresh(ctx, token)

	default:
		token := g.transport.AccessToken(r)
		if token == "" {
			return models.User{}, apperrors.ErrUnauthorized
		}
		return g.auth.AuthenticateAccess(ctx, token)
	}
}

func (g *Guard) reject(w http.ResponseWriter, r *http.Request, s Strategy, err error) {
	code := apperrors.CodeOf(err)
	g.metrics.RecordAuthDecision(s.String(), code)

	if apperrors.KindOf(err) == apperrors.KindInternal {
		g.logger.Error("authentication failed", "strategy", s.String(), "uri", r.RequestURI, "error", err)
	} else {
		g.logger.Info("request rejected", "strategy", s.String(), "uri", r.RequestURI, "code", code)
	}

	render.Error(w, err)
}
