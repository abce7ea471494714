package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"sakuracore.ai/sakura-core/internal/auth"
	"sakuracore.ai/sakura-core/internal/metrics"
	"sakuracore.ai/sakura-core/internal/store"
)

type contextKey string

const ownerKeyContextKey contextKey = "ownerKey"

// OwnerKey returns the partition key for the request: the authenticated
// user's id, or the guest sentinel.
func OwnerKey(r *http.Request) string {
	if key, ok := r.Context().Value(ownerKeyContextKey).(string); ok {
		return key
	}
	return store.GuestKey
}

// IdentityMiddleware resolves the caller's owner key from an optional Bearer
// token. Conversation routes work for guests, so a missing or invalid token
// resolves to the guest key rather than rejecting the request.
func IdentityMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ownerKey := store.GuestKey
			if header := r.Header.Get("Authorization"); header != "" {
				tokenString := strings.TrimPrefix(header, "Bearer ")
				if userID, err := auth.ValidateJWT(tokenString, jwtSecret); err == nil {
					ownerKey = userID
				}
			}
			ctx := context.WithValue(r.Context(), ownerKeyContextKey, ownerKey)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger returns a request logging middleware using zerolog.
func RequestLogger(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Dur("latency", time.Since(start)).
					Str("request_id", chimw.GetReqID(r.Context())).
					Str("remote_addr", r.RemoteAddr).
					Msg("request completed")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// Metrics records request counts and durations for Prometheus.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(ww.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}
