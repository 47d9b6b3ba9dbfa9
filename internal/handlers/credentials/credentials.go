// Package credentials reads tokens from requests and hands issued tokens to clients
package credentials

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nkiryanov/authapi/internal/models"
)

const (
	TransportHeader = "header"
	TransportCookie = "cookie"
)

const (
	AccessCookieName  = "Authentication"
	RefreshCookieName = "Refresh"
)

// Transport is the way tokens travel between client and server
type Transport interface {
	// Access token from request, empty if not present
	AccessToken(r *http.Request) string

	// Refresh token from request, empty if not present
	RefreshToken(r *http.Request) string

	// Issue hands token pair to client
	// Reports whether tokens have to be rendered in response body as well
	Issue(w http.ResponseWriter, pair models.TokenPair) bool

	// Clear removes tokens from client if transport stores them
	Clear(w http.ResponseWriter)
}

// New returns transport by its name: "header" or "cookie"
func New(name string, secure bool) (Transport, error) {
	switch name {
	case TransportHeader:
		return Bearer{}, nil
	case TransportCookie:
		return Cookie{Secure: secure}, nil
	default:
		return nil, fmt.Errorf("unknown token transport %q", name)
	}
}

// Bearer reads both tokens from 'Authorization: Bearer <token>' header
// Client gets tokens in response body and keeps them by itself
type Bearer struct{}

func (Bearer) AccessToken(r *http.Request) string {
	return bearerToken(r)
}

func (Bearer) RefreshToken(r *http.Request) string {
	return bearerToken(r)
}

func (Bearer) Issue(_ http.ResponseWriter, _ models.TokenPair) bool {
	return true
}

func (Bearer) Clear(_ http.ResponseWriter) {}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Cookie keeps tokens in http only cookies
type Cookie struct {
	Secure bool
}

func (c Cookie) AccessToken(r *http.Request) string {
	return cookieValue(r, AccessCookieName)
}

func (c Cookie) RefreshToken(r *http.Request) string {
	return cookieValue(r, RefreshCookieName)
}

func (c Cookie) Issue(w http.ResponseWriter, pair models.TokenPair) bool {
	http.SetCookie(w, c.cookie(AccessCookieName, pair.Access))
	http.SetCookie(w, c.cookie(RefreshCookieName, pair.Refresh))
	return false
}

func (c Cookie) Clear(w http.ResponseWriter) {
	for _, name := range []string{AccessCookieName, RefreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   c.Secure,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

func (c Cookie) cookie(name string, token models.IssuedToken) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    token.Value,
		Path:     "/",
		Expires:  token.ExpiresAt,
		MaxAge:   int(time.Until(token.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
