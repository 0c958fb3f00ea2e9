package httpapp

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	_ "github.com/alphabot-ai/newsboard/docs" // swagger docs

	"github.com/alphabot-ai/newsboard/internal/apperr"
	"github.com/alphabot-ai/newsboard/internal/config"
	"github.com/alphabot-ai/newsboard/internal/rate"
	"github.com/alphabot-ai/newsboard/internal/store"
)

type Server struct {
	store   store.Store
	log     *zap.Logger
	limiter rate.Limiter
	cfg     config.Config
	metrics *metrics
	handler http.Handler
}

func NewServer(st store.Store, logger *zap.Logger, limiter rate.Limiter, cfg config.Config) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m, err := newMetrics()
	if err != nil {
		return nil, err
	}
	s := &Server{store: st, log: logger, limiter: limiter, cfg: cfg, metrics: m}
	s.handler = s.withRequestID(s.withLogging(s.withRecover(s.withRateLimit(s.routes()))))
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = s.instrument(http.HandlerFunc(pathNotFound))
	r.MethodNotAllowedHandler = s.instrument(http.HandlerFunc(methodNotAllowed))
	r.Use(s.instrument)

	r.HandleFunc("/api", s.handle(s.handleGetEndpoints)).Methods(http.MethodGet)

	r.HandleFunc("/api/topics", s.handle(s.handleListTopics)).Methods(http.MethodGet)
	r.HandleFunc("/api/topics", s.handle(s.handleCreateTopic)).Methods(http.MethodPost)

	r.HandleFunc("/api/articles", s.handle(s.handleListArticles)).Methods(http.MethodGet)
	r.HandleFunc("/api/articles", s.handle(s.handleCreateArticle)).Methods(http.MethodPost)
	r.HandleFunc("/api/articles/{article_id}", s.handle(s.handleGetArticle)).Methods(http.MethodGet)
	r.HandleFunc("/api/articles/{article_id}", s.handle(s.handleVoteArticle)).Methods(http.MethodPatch)
	r.HandleFunc("/api/articles/{article_id}", s.handle(s.handleDeleteArticle)).Methods(http.MethodDelete)
	r.HandleFunc("/api/articles/{article_id}/comments", s.handle(s.handleListComments)).Methods(http.MethodGet)
	r.HandleFunc("/api/articles/{article_id}/comments", s.handle(s.handleCreateComment)).Methods(http.MethodPost)

	r.HandleFunc("/api/comments/{comment_id}", s.handle(s.handleVoteComment)).Methods(http.MethodPatch)
	r.HandleFunc("/api/comments/{comment_id}", s.handle(s.handleDeleteComment)).Methods(http.MethodDelete)

	r.HandleFunc("/api/users", s.handle(s.handleListUsers)).Methods(http.MethodGet)
	r.HandleFunc("/api/users/{username}", s.handle(s.handleGetUser)).Methods(http.MethodGet)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	return r
}

// handlerFunc is a route handler whose failures are written by writeAppError.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (s *Server) handle(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			s.writeAppError(w, r, err)
		}
	}
}

// handleHealth godoc
//
//	@Summary	Health check
//	@Tags		Meta
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Failure	503	{object}	errorResponse
//	@Router		/healthz [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.log.Warn("health check failed", zap.Error(err))
		writeMsg(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

var errBadRequest = apperr.BadRequest("bad request")

func readJSON(body io.ReadCloser, dest any) error {
	defer body.Close()
	if err := json.NewDecoder(body).Decode(dest); err != nil {
		return errBadRequest
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func pathNotFound(w http.ResponseWriter, r *http.Request) {
	writeMsg(w, http.StatusNotFound, "path not found")
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeMsg(w, http.StatusMethodNotAllowed, "method not allowed")
}

func pathID(r *http.Request, name string) (int64, error) {
	// ids are 32-bit SERIAL/INTEGER keys on every driver.
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 32)
	if err != nil {
		return 0, errBadRequest
	}
	return id, nil
}

// pageOpts reads limit and p from the query string. Missing values take the
// store defaults; anything that is not a non-negative integer, or that pages
// past store.MaxOffset, is rejected.
func pageOpts(r *http.Request) (store.PageOpts, error) {
	q := r.URL.Query()
	limit, err := queryInt(q.Get("limit"), store.DefaultLimit)
	if err != nil {
		return store.PageOpts{}, err
	}
	page, err := queryInt(q.Get("p"), 0)
	if err != nil {
		return store.PageOpts{}, err
	}
	opts := store.PageOpts{Limit: limit, Page: page}
	if err := opts.Validate(); err != nil {
		return store.PageOpts{}, err
	}
	return opts, nil
}

func queryInt(value string, def int) (int, error) {
	if value == "" {
		return def, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, errBadRequest
	}
	return n, nil
}

// votePatch is the body of the vote-increment endpoints.
type votePatch struct {
	IncVotes *int `json:"inc_votes"`
}

func readVotes(r *http.Request) (int, error) {
	var req votePatch
	if err := readJSON(r.Body, &req); err != nil {
		return 0, err
	}
	if req.IncVotes == nil || *req.IncVotes < math.MinInt32 || *req.IncVotes > math.MaxInt32 {
		return 0, errBadRequest
	}
	return *req.IncVotes, nil
}
