package httpapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/alphabot-ai/newsboard/internal/apperr"
	"github.com/alphabot-ai/newsboard/internal/config"
	"github.com/alphabot-ai/newsboard/internal/model"
	"github.com/alphabot-ai/newsboard/internal/store"
)

type allowAllLimiter struct{}

func (a allowAllLimiter) Allow(key string, limit int, window time.Duration) (bool, time.Duration) {
	return true, 0
}

// stubStore answers the calls a test cares about; any other call panics on
// the nil embedded interface.
type stubStore struct {
	store.Store
	listTopics    func() ([]model.Topic, error)
	listComments  func(ctx context.Context) ([]model.Comment, error)
	articleExists func(ctx context.Context) error
	ping          func() error
}

func (s stubStore) ListTopics(ctx context.Context) ([]model.Topic, error) {
	return s.listTopics()
}

func (s stubStore) ListCommentsByArticle(ctx context.Context, articleID int64, opts store.PageOpts) ([]model.Comment, error) {
	return s.listComments(ctx)
}

func (s stubStore) ArticleExists(ctx context.Context, id int64) error {
	return s.articleExists(ctx)
}

func (s stubStore) Ping(ctx context.Context) error {
	return s.ping()
}

func newStubServer(t *testing.T, st stubStore, logger *zap.Logger) *Server {
	t.Helper()
	server, err := NewServer(st, logger, allowAllLimiter{}, config.Config{})
	require.NoError(t, err)
	return server
}

func serve(server http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	resp := httptest.NewRecorder()
	server.ServeHTTP(resp, req)
	return resp
}

func decodeMsg(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var payload errorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload), resp.Body.String())
	return payload.Msg
}

func TestWriteAppErrorMapping(t *testing.T) {
	for _, tc := range []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"invalid text", &store.DBError{Code: store.CodeInvalidTextRepresentation, Err: errors.New("x")}, http.StatusBadRequest, "bad request"},
		{"out of range", &store.DBError{Code: store.CodeNumericValueOutOfRange, Err: errors.New("x")}, http.StatusBadRequest, "bad request"},
		{"foreign key", &store.DBError{Code: store.CodeForeignKeyViolation, Err: errors.New("x")}, http.StatusBadRequest, "bad request"},
		{"not null", &store.DBError{Code: store.CodeNotNullViolation, Err: errors.New("x")}, http.StatusBadRequest, "incomplete entry"},
		{"unique", &store.DBError{Code: store.CodeUniqueViolation, Err: errors.New("x")}, http.StatusConflict, "already exists"},
		{"wrapped db error", fmt.Errorf("insert: %w", &store.DBError{Code: store.CodeNotNullViolation, Err: errors.New("x")}), http.StatusBadRequest, "incomplete entry"},
		{"app error", apperr.NotFound("Article not found"), http.StatusNotFound, "Article not found"},
		{"wrapped app error", fmt.Errorf("lookup: %w", apperr.New(http.StatusTeapot, "short and stout")), http.StatusTeapot, "short and stout"},
		{"unknown db code", &store.DBError{Code: "40001", Err: errors.New("x")}, http.StatusInternalServerError, "internal server error"},
		{"plain error", errors.New("connection reset"), http.StatusInternalServerError, "internal server error"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			server := newStubServer(t, stubStore{}, nil)
			req := httptest.NewRequest(http.MethodGet, "/api/topics", nil)
			resp := httptest.NewRecorder()

			server.writeAppError(resp, req, tc.err)
			assert.Equal(t, tc.status, resp.Code)
			assert.Equal(t, "application/json", resp.Header().Get("Content-Type"))
			assert.Equal(t, tc.msg, decodeMsg(t, resp))
		})
	}
}

func TestUnhandledErrorIsLogged(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	server := newStubServer(t, stubStore{
		listTopics: func() ([]model.Topic, error) { return nil, errors.New("database is locked") },
	}, zap.New(core))

	req := httptest.NewRequest(http.MethodGet, "/api/topics", nil)
	req.Header.Set(requestIDHeader, "req-123")
	resp := httptest.NewRecorder()
	server.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Equal(t, "internal server error", decodeMsg(t, resp))
	assert.Equal(t, "req-123", resp.Header().Get(requestIDHeader))

	errs := logs.FilterMessage("unhandled error").All()
	require.Len(t, errs, 1)
	assert.Equal(t, "req-123", errs[0].ContextMap()["request_id"])
	assert.Len(t, logs.FilterMessage("request").All(), 1)
}

func TestRequestIDGenerated(t *testing.T) {
	server := newStubServer(t, stubStore{
		listTopics: func() ([]model.Topic, error) { return nil, nil },
	}, nil)

	resp := serve(server, http.MethodGet, "/api/topics")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"topics":[]}`, resp.Body.String())
	assert.Len(t, resp.Header().Get(requestIDHeader), 36)
}

func TestPanicRecovered(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	server := newStubServer(t, stubStore{
		listTopics: func() ([]model.Topic, error) { panic("boom") },
	}, zap.New(core))

	resp := serve(server, http.MethodGet, "/api/topics")
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Equal(t, "internal server error", decodeMsg(t, resp))
	assert.Len(t, logs.FilterMessage("panic recovered").All(), 1)
}

func TestListCommentsExistenceCheckWins(t *testing.T) {
	server := newStubServer(t, stubStore{
		listComments: func(ctx context.Context) ([]model.Comment, error) {
			return []model.Comment{}, nil
		},
		articleExists: func(ctx context.Context) error {
			return apperr.NotFound(store.MsgNotFound)
		},
	}, nil)

	resp := serve(server, http.MethodGet, "/api/articles/42/comments")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "not found", decodeMsg(t, resp))
}

func TestListCommentsExistenceCheckBeatsListFailure(t *testing.T) {
	release := make(chan struct{})
	server := newStubServer(t, stubStore{
		listComments: func(ctx context.Context) ([]model.Comment, error) {
			<-release
			return nil, errors.New("list failed")
		},
		articleExists: func(ctx context.Context) error {
			defer close(release)
			return apperr.NotFound(store.MsgNotFound)
		},
	}, nil)

	resp := serve(server, http.MethodGet, "/api/articles/42/comments")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "not found", decodeMsg(t, resp))
}

func TestHealth(t *testing.T) {
	healthy := newStubServer(t, stubStore{ping: func() error { return nil }}, nil)
	resp := serve(healthy, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, resp.Code)

	down := newStubServer(t, stubStore{ping: func() error { return errors.New("closed") }}, nil)
	resp = serve(down, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Equal(t, "database unavailable", decodeMsg(t, resp))
}
