package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfkeep/library-server/internal/service"
	"github.com/shelfkeep/library-server/internal/store/sqlstore"
)

// testServer wraps the API server for handler tests.
type testServer struct {
	*Server
	api   humatest.TestAPI
	store *sqlstore.Store
}

// testEnvelope mirrors the response envelope for decoding in tests.
type testEnvelope[T any] struct {
	Version int               `json:"v"`
	Success bool              `json:"success"`
	Data    T                 `json:"data"`
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details"`
}

func setupTestServer(t *testing.T, opts ...func(*Options)) *testServer {
	t.Helper()

	st, err := sqlstore.Open(sqlstore.DriverSQLite, filepath.Join(t.TempDir(), "api.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	logger := slog.New(slog.DiscardHandler)
	services := &Services{
		Book: service.NewBookService(st, logger),
		Copy: service.NewCopyService(st, logger),
		User: service.NewUserService(st, logger),
		Loan: service.NewLoanService(st, logger),
	}

	var o Options
	for _, opt := range opts {
		opt(&o)
	}

	s := NewServer(st, services, o, logger)
	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.API()),
		store:  st,
	}
}

func decode[T any](t *testing.T, body []byte) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &env), "body: %s", body)
	require.Equal(t, EnvelopeVersion, env.Version)
	return env
}

func (ts *testServer) createBook(t *testing.T, title, author, genre string) BookResponse {
	t.Helper()
	resp := ts.api.Post("/api/v1/books", map[string]any{"title": title, "author": author, "genre": genre})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[BookResponse](t, resp.Body.Bytes()).Data
}

func (ts *testServer) createCopy(t *testing.T, bookID int64, available bool) CopyResponse {
	t.Helper()
	resp := ts.api.Post("/api/v1/copies", map[string]any{"book_id": bookID, "is_available": available})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[CopyResponse](t, resp.Body.Bytes()).Data
}

func (ts *testServer) createUser(t *testing.T, name, email string) UserResponse {
	t.Helper()
	resp := ts.api.Post("/api/v1/users", map[string]any{"name": name, "email": email})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[UserResponse](t, resp.Body.Bytes()).Data
}

func TestServer_UnknownRouteUsesEnvelope(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/shelves")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	env := decode[any](t, resp.Body.Bytes())
	assert.False(t, env.Success)
	assert.Equal(t, "NOT_FOUND", env.Code)
}

func TestServer_OpenAPIDocument(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/openapi.json")
	require.Equal(t, http.StatusOK, resp.Code)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &doc))
	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	for _, p := range []string{"/api/v1/books", "/api/v1/copies/{id}", "/api/v1/users", "/api/v1/loans/{id}/return", "/health"} {
		assert.Contains(t, paths, p)
	}
}

func TestServer_RequestIDHeader(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	assert.Regexp(t, `^req-[A-Za-z0-9_-]{21}$`, resp.Header().Get(requestIDHeader))

	resp = ts.api.Get("/health", requestIDHeader+": trace-abc")
	assert.Equal(t, "trace-abc", resp.Header().Get(requestIDHeader))
}
