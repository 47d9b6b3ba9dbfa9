package credentials

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/authapi/internal/models"
)

func testPair() models.TokenPair {
	now := time.Now()
	return models.TokenPair{
		Access:  models.IssuedToken{Value: "access-token", ExpiresAt: now.Add(15 * time.Minute)},
		Refresh: models.IssuedToken{Value: "refresh-token", ExpiresAt: now.Add(24 * time.Hour)},
	}
}

func TestNew(t *testing.T) {
	t.Run("header", func(t *testing.T) {
		tr, err := New("header", false)
		require.NoError(t, err)
		require.IsType(t, Bearer{}, tr)
	})

	t.Run("cookie", func(t *testing.T) {
		tr, err := New("cookie", true)
		require.NoError(t, err)
		require.Equal(t, Cookie{Secure: true}, tr)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := New("query", false)
		require.Error(t, err)
	})
}

func TestBearer(t *testing.T) {
	tr := Bearer{}

	t.Run("read bearer token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer some-token")

		require.Equal(t, "some-token", tr.AccessToken(r))
		require.Equal(t, "some-token", tr.RefreshToken(r))
	})

	t.Run("scheme is case insensitive", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "bearer some-token")

		require.Equal(t, "some-token", tr.AccessToken(r))
	})

	t.Run("empty if no or other scheme", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		require.Empty(t, tr.AccessToken(r))

		r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		require.Empty(t, tr.AccessToken(r))

		r.Header.Set("Authorization", "Bearer")
		require.Empty(t, tr.AccessToken(r))
	})

	t.Run("issue renders in body", func(t *testing.T) {
		w := httptest.NewRecorder()

		inBody := tr.Issue(w, testPair())

		require.True(t, inBody)
		require.Empty(t, w.Result().Cookies(), "bearer transport never sets cookies")
	})
}

func TestCookie(t *testing.T) {
	tr := Cookie{Secure: true}

	t.Run("issue sets cookies", func(t *testing.T) {
		w := httptest.NewRecorder()

		inBody := tr.Issue(w, testPair())

		require.False(t, inBody, "tokens should not be rendered in body")
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 2)

		require.Equal(t, AccessCookieName, cookies[0].Name)
		require.Equal(t, "access-token", cookies[0].Value)
		require.InDelta(t, (15 * time.Minute).Seconds(), cookies[0].MaxAge, 1)

		require.Equal(t, RefreshCookieName, cookies[1].Name)
		require.Equal(t, "refresh-token", cookies[1].Value)
		require.InDelta(t, (24 * time.Hour).Seconds(), cookies[1].MaxAge, 1)

		for _, c := range cookies {
			require.True(t, c.HttpOnly, "cookie should be HttpOnly")
			require.True(t, c.Secure)
			require.Equal(t, "/", c.Path)
			require.Equal(t, http.SameSiteStrictMode, c.SameSite)
		}
	})

	t.Run("read cookies", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: AccessCookieName, Value: "a"})
		r.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: "r"})

		require.Equal(t, "a", tr.AccessToken(r))
		require.Equal(t, "r", tr.RefreshToken(r))
	})

	t.Run("header ignored", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer a")

		require.Empty(t, tr.AccessToken(r))
	})

	t.Run("clear expires cookies", func(t *testing.T) {
		w := httptest.NewRecorder()

		tr.Clear(w)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 2)
		for _, c := range cookies {
			require.Empty(t, c.Value)
			require.Equal(t, -1, c.MaxAge)
		}
	})
}
