// Package server exposes the stamping pipeline over HTTP for the browser
// editor. Handlers stay thin: parse, call the fill service, translate the
// error kind to a status code.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/formvault/pdf-stamper/internal/config"
	"github.com/formvault/pdf-stamper/internal/fill"
)

// Server is the HTTP front of the service.
type Server struct {
	cfg     *config.Config
	logger  *log.Logger
	service *fill.Service
	http    *http.Server
}

// New builds the server with its routes.
func New(cfg *config.Config, logger *log.Logger, service *fill.Service) *Server {
	s := &Server{cfg: cfg, logger: logger, service: service}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/process-template", s.handleProcessTemplate)
		r.Post("/save-edited-pdf", s.handleSaveEdited)
		r.Post("/download-pdf", s.handleDownloadEdited)
		r.Post("/analyze-pdf", s.handleAnalyze)
		r.Post("/sign-pdf", s.handleSign)
		r.Post("/fill-pdf", s.handleFillFixed)

		r.Get("/templates", s.handleListTemplates)
		r.Post("/templates", s.handleSaveTemplate)
		r.Get("/templates/detect", s.handleDetectTemplate)
		r.Get("/templates/{id}/source", s.handleTemplateSource)
		r.Delete("/templates/{id}", s.handleDeleteTemplate)

		r.Get("/vault", s.handleVaultList)
		r.Get("/vault/{id}/download", s.handleVaultDownload)
		r.Delete("/vault/{id}", s.handleVaultDelete)
	})

	s.http = &http.Server{
		Addr:              cfg.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe runs the server until Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "addr", s.cfg.Address())
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// requestLogger logs one line per request with the response status.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"took", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.cfg.Version})
}

// writeJSON writes a JSON response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a service error to a status code. Client-facing messages
// come from the error's Msg; causes stay in the logs.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch fill.KindOf(err) {
	case fill.KindDocument:
		status = http.StatusBadRequest
	case fill.KindNotFound:
		status = http.StatusNotFound
	case fill.KindUpstream:
		status = http.StatusBadGateway
	}

	msg := "internal error"
	var se *fill.Error
	if errors.As(err, &se) {
		msg = se.Msg
	}
	if status >= 500 {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	} else {
		s.logger.Warn("request rejected", "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}
