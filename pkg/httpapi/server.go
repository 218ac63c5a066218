// Package httpapi serves the analyzer, synthesizer and validator as a small
// JSON-over-HTTP API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gnana997/blockschema/pkg/analyzer"
	"github.com/gnana997/blockschema/pkg/catalog"
	"github.com/gnana997/blockschema/pkg/schema"
	"github.com/gnana997/blockschema/pkg/source"
	"github.com/gnana997/blockschema/pkg/validator"
)

const maxBodyBytes = 1 << 20

// Server exposes the pure block operations over HTTP.
type Server struct {
	analyzer *analyzer.Analyzer
	logger   *slog.Logger
	router   *chi.Mux
}

// NewServer creates a Server and its routes.
func NewServer(a *analyzer.Analyzer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{analyzer: a, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/catalog", s.handleCatalog)
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/mutations", s.handleMutations)
		r.Post("/synthesize", s.handleSynthesize)
		r.Post("/validate", s.handleValidate)
		r.Get("/base-configs", s.handleBaseConfigs)
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP API listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("HTTP API shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// --- helpers ---

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, errorBody{Error: err.Error()})
}

// statusFor maps an error onto an HTTP status.
func statusFor(err error) int {
	var bad *badRequestError
	switch {
	case errors.As(err, &bad), errors.Is(err, analyzer.ErrParse), errors.Is(err, analyzer.ErrInvalidStructure):
		return http.StatusBadRequest
	case errors.Is(err, source.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	return nil
}

// --- handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type catalogResponse struct {
	Version string         `json:"version"`
	Tiers   []catalog.Tier `json:"tiers"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, catalogResponse{Version: catalog.Version, Tiers: catalog.Tiers()})
}

// CodeRequest carries block code. FileName selects the grammar by
// extension and defaults to JavaScript.
type CodeRequest struct {
	Code     string `json:"code"`
	FileName string `json:"fileName,omitempty"`
}

// AnalyzeResponse is the body returned by POST /v1/analyze.
type AnalyzeResponse struct {
	Analysis   *analyzer.Analysis         `json:"analysis"`
	Suggestion analyzer.Suggestion        `json:"suggestion"`
	Mutations  []analyzer.MutationWarning `json:"mutations"`
}

func (s *Server) analyze(req CodeRequest) (*analyzer.Analysis, error) {
	if req.FileName == "" {
		return s.analyzer.Analyze(req.Code)
	}
	return s.analyzer.AnalyzeFile(req.Code, req.FileName)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req CodeRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	analysis, err := s.analyze(req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, AnalyzeResponse{
		Analysis:   analysis,
		Suggestion: analyzer.SuggestStructure(analysis),
		Mutations:  analyzer.DetectMutations(req.Code),
	})
}

func (s *Server) handleMutations(w http.ResponseWriter, r *http.Request) {
	var req CodeRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, analyzer.DetectMutations(req.Code))
}

// SynthesizeRequest asks for a block's schema, either from code or from an
// analysis produced earlier.
type SynthesizeRequest struct {
	Name      string                 `json:"name"`
	Code      string                 `json:"code,omitempty"`
	FileName  string                 `json:"fileName,omitempty"`
	Analysis  *analyzer.Analysis     `json:"analysis,omitempty"`
	Overrides []schema.FieldOverride `json:"overrides,omitempty"`
}

// SynthesizeResponse is the body returned by POST /v1/synthesize.
type SynthesizeResponse struct {
	Schema     schema.Schema              `json:"schema"`
	Validation validator.ValidationResult `json:"validation"`
}

func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var req SynthesizeRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Name == "" {
		s.writeError(w, badRequest("name is required"))
		return
	}

	analysis := req.Analysis
	if analysis == nil {
		var err error
		analysis, err = s.analyze(CodeRequest{Code: req.Code, FileName: req.FileName})
		if err != nil {
			s.writeError(w, err)
			return
		}
	}
	if err := analysis.ExpectedStructure.Validate(); err != nil {
		s.writeError(w, err)
		return
	}

	synthesized := schema.Synthesize(req.Name, analysis, req.Overrides)
	s.writeJSON(w, http.StatusOK, SynthesizeResponse{
		Schema:     synthesized,
		Validation: validator.ValidateSchema(synthesized),
	})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var doc any
	if err := decodeBody(w, r, &doc); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, validator.Validate(doc))
}

func (s *Server) handleBaseConfigs(w http.ResponseWriter, r *http.Request) {
	var names []string
	for _, name := range strings.Split(r.URL.Query().Get("blocks"), ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	s.writeJSON(w, http.StatusOK, schema.BaseConfigs(names))
}
