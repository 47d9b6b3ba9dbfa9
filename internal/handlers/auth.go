package handlers

import (
	"net/http"
	"time"

	"github.com/nkiryanov/authapi/internal/handlers/credentials"
	"github.com/nkiryanov/authapi/internal/handlers/middleware"
	"github.com/nkiryanov/authapi/internal/handlers/render"
	"github.com/nkiryanov/authapi/internal/logger"
	"github.com/nkiryanov/authapi/internal/models"
)

const (
	reasonSignin  = "signin"
	reasonRefresh = "refresh"
)

type userResponse struct {
	ID        int64       `json:"id"`
	Email     string      `json:"email"`
	Name      *string     `json:"name"`
	Role      models.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func newUserResponse(u models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type tokensResponse struct {
	AccessToken           string    `json:"accessToken"`
	AccessTokenExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshToken          string    `json:"refreshToken"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
}

type sessionResponse struct {
	User   userResponse    `json:"user"`
	Tokens *tokensResponse `json:"tokens,omitempty"`
}

func handleSignup(authService authService, l logger.Logger) middleware.IdentityHandler {
	type request struct {
		Email    string `json:"email" validate:"required,email,max=255"`
		Password string `json:"password" validate:"required,min=6,max=72"`
	}

	return func(w http.ResponseWriter, r *http.Request, _ *models.User) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		user, err := authService.Signup(r.Context(), data.Email, data.Password)
		if err != nil {
			fail(w, r, l, err)
			return
		}

		render.JSONWithStatus(w, newUserResponse(user), http.StatusCreated)
	}
}

// handleSignin issues new token pair to authenticated user
// Used both for password signin and refresh, since refresh is signin with refresh token
func handleSignin(authService authService, transport credentials.Transport, m sessionRecorder, reason string, l logger.Logger) middleware.IdentityHandler {
	return func(w http.ResponseWriter, r *http.Request, user *models.User) {
		session, err := authService.Signin(r.Context(), *user)
		if err != nil {
			fail(w, r, l, err)
			return
		}
		m.RecordSessionIssued(reason)

		response := sessionResponse{User: newUserResponse(session.User)}
		if transport.Issue(w, session.Tokens) {
			response.Tokens = &tokensResponse{
				AccessToken:           session.Tokens.Access.Value,
				AccessTokenExpiresAt:  session.Tokens.Access.ExpiresAt,
				RefreshToken:          session.Tokens.Refresh.Value,
				RefreshTokenExpiresAt: session.Tokens.Refresh.ExpiresAt,
			}
		}

		render.JSON(w, response)
	}
}

func handleSignout(authService authService, transport credentials.Transport, m sessionRecorder, l logger.Logger) middleware.IdentityHandler {
	type response struct {
		Message string `json:"message"`
	}

	return func(w http.ResponseWriter, r *http.Request, user *models.User) {
		err := authService.Signout(r.Context(), user.ID)
		if err != nil {
			fail(w, r, l, err)
			return
		}
		m.RecordSignout()

		transport.Clear(w)
		render.JSON(w, response{Message: "Signed out"})
	}
}

func handleProfile() middleware.IdentityHandler {
	return func(w http.ResponseWriter, _ *http.Request, user *models.User) {
		render.JSON(w, newUserResponse(*user))
	}
}
