package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	apperrors "lookuply-search-api/internal/errors"
	"lookuply-search-api/internal/metrics"
	"lookuply-search-api/internal/models"
	"lookuply-search-api/internal/search"
	"lookuply-search-api/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/ory/herodot"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second
)

// Interfaces for dependency injection
type Orchestrator interface {
	Search(ctx context.Context, query, language string, limit int) (*models.SearchResponse, error)
	Summarize(ctx context.Context, in service.SummarizeInput) (*models.SummarizeResponse, error)
	Chat(ctx context.Context, query string, limit int) (*models.ChatResponse, error)
}

type HealthChecker interface {
	HealthCheck(ctx context.Context) bool
}

type Options struct {
	Service      string
	Version      string
	CORSOrigins  []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Server struct {
	mux      *http.ServeMux
	flow     Orchestrator
	health   HealthChecker
	metrics  *metrics.Metrics
	writer   *herodot.JSONWriter
	validate *validator.Validate
	logger   *zap.Logger
	opts     Options
}

func NewServer(flow Orchestrator, health HealthChecker, m *metrics.Metrics, logger *zap.Logger, opts Options) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		flow:     flow,
		health:   health,
		metrics:  m,
		writer:   apperrors.NewWriter(logger),
		validate: newValidator(),
		logger:   logger.Named("api"),
		opts:     opts,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /{$}", s.root)
	s.mux.HandleFunc("GET /health", s.healthCheck)
	s.mux.HandleFunc("POST /api/search", s.search)
	s.mux.HandleFunc("POST /api/summarize", s.summarize)
	s.mux.HandleFunc("POST /chat", s.chat)
	s.mux.Handle("GET /metrics", s.metrics.Handler())
}

// Handler returns the mux wrapped in CORS, logging and metrics middleware.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   s.opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
	})
	return c.Handler(s.observe(s.mux))
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadTimeout:       s.opts.ReadTimeout,
		ReadHeaderTimeout: s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	s.writer.Write(w, r, &models.RootResponse{Service: s.opts.Service, Version: s.opts.Version})
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	if !s.health.HealthCheck(r.Context()) {
		s.writer.WriteError(w, r, apperrors.Translate(search.ErrUnavailable, apperrors.SurfaceHealth))
		return
	}
	s.writer.Write(w, r, &models.HealthResponse{Status: "healthy", Search: "ok"})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err, apperrors.SurfaceSearch)
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if err := s.check(&req); err != nil {
		s.writeError(w, r, err, apperrors.SurfaceSearch)
		return
	}

	var limit int
	if req.Limit != nil {
		limit = *req.Limit
	}
	resp, err := s.flow.Search(r.Context(), req.Query, req.Language, limit)
	if err != nil {
		s.writeError(w, r, err, apperrors.SurfaceSearch)
		return
	}
	s.writer.Write(w, r, resp)
}

func (s *Server) summarize(w http.ResponseWriter, r *http.Request) {
	var req models.SummarizeRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err, apperrors.SurfaceSummarize)
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	req.QueryID = strings.TrimSpace(req.QueryID)
	if err := s.check(&req); err != nil {
		s.writeError(w, r, err, apperrors.SurfaceSummarize)
		return
	}

	resp, err := s.flow.Summarize(r.Context(), service.SummarizeInput{
		Query:     req.Query,
		Language:  req.Language,
		QueryID:   req.QueryID,
		SourceIDs: req.SourceIDs,
	})
	if err != nil {
		s.writeError(w, r, err, apperrors.SurfaceSummarize)
		return
	}
	s.writer.Write(w, r, resp)
}

// chat keeps the legacy contract: 400 on bad input, the query is not trimmed.
func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err, apperrors.SurfaceChat)
		return
	}
	if err := s.checkChat(&req); err != nil {
		s.writeError(w, r, err, apperrors.SurfaceChat)
		return
	}

	resp, err := s.flow.Chat(r.Context(), req.Query, req.Limit)
	if err != nil {
		s.writeError(w, r, err, apperrors.SurfaceChat)
		return
	}
	s.writer.Write(w, r, resp)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.Validation("Invalid request body")
	}
	return nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, surface apperrors.Surface) {
	s.writer.WriteError(w, r, apperrors.Translate(err, surface))
}
