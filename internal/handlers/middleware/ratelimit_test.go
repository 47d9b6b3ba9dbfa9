package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type rateLimitRecorderFunc func(route string)

func (f rateLimitRecorderFunc) RecordRateLimited(route string) { f(route) }

func TestRateLimiter(t *testing.T) {
	newLimiter := func(t *testing.T, limited *[]string) *RateLimiter {
		rl := NewRateLimiter(
			RateLimiterConfig{Rate: rate.Limit(1), Burst: 2, CleanupInterval: time.Minute},
			rateLimitRecorderFunc(func(route string) { *limited = append(*limited, route) }),
			loggerFunc(func(string, ...any) {}),
		)
		t.Cleanup(rl.Stop)
		return rl
	}

	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	request := func(h http.Handler, addr string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.RemoteAddr = addr
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	t.Run("reject over burst", func(t *testing.T) {
		var limited []string
		h := newLimiter(t, &limited).Middleware("signin")(ok)

		require.Equal(t, http.StatusOK, request(h, "10.0.0.1:1000").Code)
		require.Equal(t, http.StatusOK, request(h, "10.0.0.1:1001").Code, "port should not matter")

		w := request(h, "10.0.0.1:1002")
		require.Equal(t, http.StatusTooManyRequests, w.Code)
		require.Equal(t, "1", w.Header().Get("Retry-After"))
		require.Contains(t, w.Body.String(), `"errorCode":"COMMON_TOO_MANY_REQUESTS"`)
		require.Equal(t, []string{"signin"}, limited)
	})

	t.Run("clients limited separately", func(t *testing.T) {
		var limited []string
		rl := newLimiter(t, &limited)
		h := rl.Middleware("signin")(ok)

		for range 2 {
			require.Equal(t, http.StatusOK, request(h, "10.0.0.1:1000").Code)
		}
		require.Equal(t, http.StatusOK, request(h, "10.0.0.2:1000").Code)
		require.Equal(t, 2, rl.Len())
	})

	t.Run("routes limited separately", func(t *testing.T) {
		var limited []string
		rl := newLimiter(t, &limited)
		signin := rl.Middleware("signin")(ok)
		signup := rl.Middleware("signup")(ok)

		for range 2 {
			require.Equal(t, http.StatusOK, request(signin, "10.0.0.1:1000").Code)
		}
		require.Equal(t, http.StatusOK, request(signup, "10.0.0.1:1000").Code)
		require.Equal(t, http.StatusTooManyRequests, request(signin, "10.0.0.1:1000").Code)
	})

	t.Run("cleanup removes idle clients", func(t *testing.T) {
		var limited []string
		rl := newLimiter(t, &limited)
		h := rl.Middleware("signin")(ok)
		request(h, "10.0.0.1:1000")

		rl.cleanup(time.Now())
		require.Equal(t, 1, rl.Len(), "recently seen client should be kept")

		rl.cleanup(time.Now().Add(3 * time.Minute))
		require.Equal(t, 0, rl.Len(), "idle client should be removed")
	})
}

func Test_retryAfter(t *testing.T) {
	require.Equal(t, 1, retryAfter(rate.Limit(2)))
	require.Equal(t, 4, retryAfter(rate.Limit(0.25)))
}
