// Package middleware provides the HTTP middleware chain for the operator API:
// API-key authentication mapped to engine caller identities, request logging,
// and CORS.
package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

type callerKey struct{}

// Caller returns the engine caller identity the auth middleware resolved for
// this request, or the zero address when authentication is disabled.
func Caller(ctx context.Context) common.Address {
	if addr, ok := ctx.Value(callerKey{}).(common.Address); ok {
		return addr
	}
	return common.Address{}
}

// WithCaller injects a caller identity; used by tests and by the disabled-auth
// path.
func WithCaller(ctx context.Context, addr common.Address) context.Context {
	return context.WithValue(ctx, callerKey{}, addr)
}

// Auth validates requests against the configured API keys and attaches the
// caller address mapped to the matching key. Keys map key -> hex address. If
// keys is empty, authentication is disabled and fallback is used as the
// caller for every request.
func Auth(keys map[string]string, fallback common.Address) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(keys) == 0 || publicPath(r.URL.Path) {
				next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), fallback)))
				return
			}

			token := extractToken(r)
			if token == "" {
				writeUnauthorized(w, "missing authentication token")
				return
			}

			// Constant-time comparison against every key so a prefix
			// match leaks nothing.
			var matched string
			ok := false
			for key, addr := range keys {
				if subtle.ConstantTimeCompare([]byte(token), []byte(key)) == 1 {
					matched = addr
					ok = true
				}
			}
			if !ok {
				writeUnauthorized(w, "invalid authentication token")
				return
			}

			caller := common.HexToAddress(matched)
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// publicPath reports whether the path is served without authentication.
func publicPath(path string) bool {
	return path == "/api/health" || path == "/metrics"
}

// extractToken looks for a token in the Authorization header (Bearer scheme)
// or in the X-API-Key header.
func extractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if key := r.Header.Get("X-API-Key"); key != "" {
		return strings.TrimSpace(key)
	}
	return ""
}

// writeUnauthorized sends a 401 response with a JSON error body.
func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
