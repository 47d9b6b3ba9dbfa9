package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nkiryanov/authapi/internal/apperrors"
	"github.com/nkiryanov/authapi/internal/handlers/credentials"
	"github.com/nkiryanov/authapi/internal/handlers/middleware"
	"github.com/nkiryanov/authapi/internal/handlers/render"
	"github.com/nkiryanov/authapi/internal/logger"
	"github.com/nkiryanov/authapi/internal/metrics"
	"github.com/nkiryanov/authapi/internal/models"
	"github.com/nkiryanov/authapi/internal/repository"
	"github.com/nkiryanov/authapi/internal/service/user"
)

const APIPrefix = "/api/v1"

type authService interface {
	AuthenticatePassword(ctx context.Context, email string, password string) (models.User, error)
	AuthenticateAccess(ctx context.Context, access string) (models.User, error)
	AuthenticateRefresh(ctx context.Context, refresh string) (models.User, error)

	// Create signed out user
	// Has to return apperrors.ErrUserAlreadyExists if email is taken
	Signup(ctx context.Context, email string, password string) (models.User, error)

	// Issue new token pair, previous refresh token becomes invalid
	Signin(ctx context.Context, user models.User) (models.Session, error)

	// Revoke the session, tokens issued before are not accepted anymore
	Signout(ctx context.Context, userID int64) error
}

type userService interface {
	UpdateProfile(ctx context.Context, userID int64, arg repository.UpdateUserParams) (models.User, error)
	List(ctx context.Context, req models.PageRequest, opts repository.ListUsersOpts) (models.Page[models.User], error)
	ListCursor(ctx context.Context, req models.CursorRequest, opts repository.ListUsersOpts) (models.CursorPage[models.User], error)
	CreateBulk(ctx context.Context, users []user.NewUser) ([]models.User, error)
}

type sessionRecorder interface {
	RecordSessionIssued(reason string)
	RecordSignout()
}

// Route with its access policy
type route struct {
	method  string
	pattern string
	policy  middleware.Policy
	handler middleware.IdentityHandler

	// Whether requests are rate limited per client
	limited bool
}

func NewRouter(
	authService authService,
	userService userService,
	transport credentials.Transport,
	limiter *middleware.RateLimiter,
	collector *metrics.Collector,
	metricsHandler http.Handler,
	logger logger.Logger,
) http.Handler {
	guard := middleware.NewGuard(authService, transport, collector, logger)

	admin := middleware.Policy{Strategy: middleware.StrategyAccess, Role: models.RoleAdmin}
	routes := []route{
		{http.MethodPost, "/auth/signup", middleware.Policy{Strategy: middleware.StrategyPublic}, handleSignup(authService, logger), true},
		{http.MethodPost, "/auth/signin", middleware.Policy{Strategy: middleware.StrategyPassword}, handleSignin(authService, transport, collector, reasonSignin, logger), true},
		{http.MethodPost, "/auth/refresh-token", middleware.Policy{Strategy: middleware.StrategyRefresh}, handleSignin(authService, transport, collector, reasonRefresh, logger), false},
		{http.MethodPost, "/auth/signout", middleware.Policy{}, handleSignout(authService, transport, collector, logger), false},
		{http.MethodGet, "/auth/profile", middleware.Policy{}, handleProfile(), false},

		{http.MethodPatch, "/users/me", middleware.Policy{}, handleUpdateMe(userService, logger), false},
		{http.MethodGet, "/users", admin, handleListUsers(userService, logger), false},
		{http.MethodGet, "/users/cursor", admin, handleListUsersCursor(userService, logger), false},
		{http.MethodPost, "/users/bulk", admin, handleCreateBulk(userService, logger), false},
	}

	r := chi.NewRouter()
	r.Use(
		chimiddleware.RequestID,
		chimiddleware.RealIP,
		middleware.LoggerMiddleware(logger),
		middleware.MetricsMiddleware(collector),
		chimiddleware.Recoverer,
	)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		render.Error(w, apperrors.ErrNotFound)
	})

	r.Route(APIPrefix, func(r chi.Router) {
		for _, rt := range routes {
			var h http.Handler = guard.Protect(rt.policy, rt.handler)
			if rt.limited {
				h = limiter.Middleware(rt.pattern)(h)
			}
			r.Method(rt.method, rt.pattern, h)
		}
	})

	r.Method(http.MethodGet, "/metrics", metricsHandler)

	return r
}

// fail renders error and logs it if it is not expected by application
func fail(w http.ResponseWriter, r *http.Request, l logger.Logger, err error) {
	if apperrors.KindOf(err) == apperrors.KindInternal {
		l.Error("request failed", "method", r.Method, "uri", r.RequestURI, "error", err)
	}
	render.Error(w, err)
}
