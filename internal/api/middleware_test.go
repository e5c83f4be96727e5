package api

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfkeep/library-server/internal/ratelimit"
	"github.com/shelfkeep/library-server/internal/service"
	"github.com/shelfkeep/library-server/internal/store/sqlstore"
)

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{"remote addr with port", nil, "192.0.2.10:5555", "192.0.2.10"},
		{"remote addr without port", nil, "192.0.2.10", "192.0.2.10"},
		{"ipv6 remote addr", nil, "[2001:db8::1]:443", "2001:db8::1"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "10.0.0.1:80", "203.0.113.5"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.2"}, "10.0.0.1:80", "198.51.100.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(r))
		})
	}
}

func TestRequestID_PropagatesToContext(t *testing.T) {
	var seen string
	h := requestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = middleware.GetReqID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(requestIDHeader))
}

func TestRequestLogger_ReachesServices(t *testing.T) {
	st, err := sqlstore.Open(sqlstore.DriverSQLite, filepath.Join(t.TempDir(), "api.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	// Services get a silent logger; anything they write must come through the request logger.
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))
	quiet := slog.New(slog.DiscardHandler)
	services := &Services{
		Book: service.NewBookService(st, quiet),
		Copy: service.NewCopyService(st, quiet),
		User: service.NewUserService(st, quiet),
		Loan: service.NewLoanService(st, quiet),
	}
	api := humatest.Wrap(t, NewServer(st, services, Options{}, base).API())

	book := map[string]any{"title": "Dune", "author": "Herbert", "genre": "SciFi"}
	resp := api.Post("/api/v1/books", requestIDHeader+": trace-create", book)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	resp = api.Post("/api/v1/books", requestIDHeader+": trace-dup", book)
	require.Equal(t, http.StatusConflict, resp.Code, resp.Body.String())

	byMsg := map[string]string{}
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var rec struct {
			Msg       string `json:"msg"`
			RequestID string `json:"request_id"`
		}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		byMsg[rec.Msg] = rec.RequestID
	}

	assert.Equal(t, "trace-create", byMsg["book created"])
	assert.Equal(t, "trace-dup", byMsg["duplicate book rejected"])
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := ratelimit.New(0.01, 2)
	defer limiter.Stop()

	h := RateLimitMiddleware(limiter, slog.New(slog.DiscardHandler))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	call := func(ip string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
		r.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}

	assert.Equal(t, http.StatusOK, call("192.0.2.1").Code)
	assert.Equal(t, http.StatusOK, call("192.0.2.1").Code)

	rec := call("192.0.2.1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	env := decode[any](t, rec.Body.Bytes())
	assert.Equal(t, "RATE_LIMITED", env.Code)

	assert.Equal(t, http.StatusOK, call("192.0.2.2").Code, "other clients keep their own bucket")
}

func TestServer_RateLimited(t *testing.T) {
	limiter := ratelimit.New(0.01, 1)
	defer limiter.Stop()

	ts := setupTestServer(t, func(o *Options) { o.RateLimiter = limiter })

	assert.Equal(t, http.StatusOK, ts.api.Get("/health").Code)
	assert.Equal(t, http.StatusTooManyRequests, ts.api.Get("/health").Code)
}

func TestServer_CORSPreflight(t *testing.T) {
	ts := setupTestServer(t, func(o *Options) { o.CORSAllowedOrigins = []string{"https://desk.example.org"} })

	r := httptest.NewRequest(http.MethodOptions, "/api/v1/books", nil)
	r.Header.Set("Origin", "https://desk.example.org")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, r)

	assert.Equal(t, "https://desk.example.org", rec.Header().Get("Access-Control-Allow-Origin"))
}
