// SPDX-License-Identifier: MIT

// Package api provides the HTTP surface of the meetscribe daemon: upload
// intake, meeting retrieval, deletion, export, in-meeting search and the
// processing collaborator's callback endpoints.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meetscribe/meetscribe/internal/config"
	"github.com/meetscribe/meetscribe/internal/export"
	"github.com/meetscribe/meetscribe/internal/log"
	"github.com/meetscribe/meetscribe/internal/meeting"
)

// shutdownGrace bounds how long in-flight requests may run during shutdown.
const shutdownGrace = 10 * time.Second

// Server is the HTTP API server.
type Server struct {
	cfg      config.Config
	manager  *meeting.Manager
	exporter export.Exporter
}

// New constructs the API server. exporter may be nil, which disables the
// export endpoint with a 500 until a collaborator is wired in.
func New(cfg config.Config, manager *meeting.Manager, exporter export.Exporter) *Server {
	return &Server{
		cfg:      cfg,
		manager:  manager,
		exporter: exporter,
	}
}

// Handler builds the routed handler with the canonical middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Recoverer outermost, request ID early for correlation.
	r.Use(recoverer)
	r.Use(requestID)
	r.Use(accessLog)
	r.Use(rateLimit(s.cfg.RateLimitRPM))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/meetings", func(r chi.Router) {
			r.Post("/", s.handleUpload)
			r.Get("/", s.handleList)

			r.Route("/{meetingID}", func(r chi.Router) {
				r.Get("/", s.handleGet)
				r.Delete("/", s.handleRemove)
				r.Post("/export", s.handleExport)
				r.Get("/search", s.handleSearch)
			})
		})

		// Callback surface for the external transcription/summarization
		// collaborator.
		r.Route("/internal/meetings/{meetingID}", func(r chi.Router) {
			r.Post("/complete", s.handleComplete)
			r.Post("/fail", s.handleFail)
		})
	})

	return r
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger := log.WithComponent("api")

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str(log.FieldEvent, "server.listen").
			Str("addr", s.cfg.Listen).
			Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		logger.Info().
			Str(log.FieldEvent, "server.shutdown").
			Msg("shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
