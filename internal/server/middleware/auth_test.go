package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fallback = common.HexToAddress("0x0000000000000000000000000000000000000001")
	keyed    = common.HexToAddress("0x0000000000000000000000000000000000000002")
)

func callerEcho() (http.Handler, *common.Address) {
	var got common.Address
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = Caller(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return h, &got
}

func TestAuthDisabledUsesFallback(t *testing.T) {
	next, got := callerEcho()
	h := Auth(nil, fallback)(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fallback, *got)
}

func TestAuthBearerTokenResolvesCaller(t *testing.T) {
	keys := map[string]string{"s3cret": keyed.Hex()}
	next, got := callerEcho()
	h := Auth(keys, fallback)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, keyed, *got)
}

func TestAuthAPIKeyHeader(t *testing.T) {
	keys := map[string]string{"s3cret": keyed.Hex()}
	next, got := callerEcho()
	h := Auth(keys, fallback)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("X-API-Key", "s3cret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, keyed, *got)
}

func TestAuthRejectsMissingAndWrongTokens(t *testing.T) {
	keys := map[string]string{"s3cret": keyed.Hex()}
	next, _ := callerEcho()
	h := Auth(keys, fallback)(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthSkipsPublicPaths(t *testing.T) {
	keys := map[string]string{"s3cret": keyed.Hex()}
	next, got := callerEcho()
	h := Auth(keys, fallback)(next)

	for _, path := range []string{"/api/health", "/metrics"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, fallback, *got, path)
	}
}

func TestLoggingPreservesStatus(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := CORS([]string{"http://localhost:3000"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/status", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	// Unlisted origins get no CORS headers.
	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
