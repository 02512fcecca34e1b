package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Heidric/storefront/internal/lib/jwt"
	"github.com/Heidric/storefront/internal/metrics"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
)

// authenticate verifies the bearer token and stores the claim set in the
// request context. A missing header is reported like a bad token.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := jwt.BearerToken(r)
		if !ok {
			UnauthorizedError(w, "Could not validate credentials", ErrTokenInvalid)
			return
		}

		claims, err := s.auth.Authenticate(r.Context(), token)
		if err != nil {
			log.Info().Err(err).Str("path", r.URL.Path).Msg("Authentication failed")
			AuthError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(jwt.WithClaims(r.Context(), *claims)))
	})
}

// instrument records request durations by route pattern.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		metrics.HTTPRequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
