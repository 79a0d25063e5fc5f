// Package server exposes the webhook HTTP surface and drives the
// ack-then-process relay pipeline.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"farmbot/internal/config"
	"farmbot/internal/domain"
	"farmbot/internal/metrics"
)

const maxBodySize = 1 << 20 // 1MB

type Server struct {
	cfg       *config.Config
	logger    *slog.Logger
	completer domain.Completer
	media     domain.MediaFetcher
	sender    domain.ReplySender
	version   string
	server    *http.Server
}

type Config struct {
	Config    *config.Config
	Logger    *slog.Logger
	Completer domain.Completer
	Media     domain.MediaFetcher
	Sender    domain.ReplySender
	Version   string
}

func New(cfg Config) *Server {
	return &Server{
		cfg:       cfg.Config,
		logger:    cfg.Logger,
		completer: cfg.Completer,
		media:     cfg.Media,
		sender:    cfg.Sender,
		version:   cfg.Version,
	}
}

// Handler returns the full route table. Exposed separately from Start so
// tests can drive it through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHealth)
	mux.HandleFunc("GET /webhook", s.handleVerification)
	mux.HandleFunc("POST /webhook", s.handleWebhook)
	mux.HandleFunc("GET /test", s.handleTest)
	mux.HandleFunc("GET /metrics", metrics.Collector.Handler())
	return mux
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("farmbot server starting", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	}
}

func (s *Server) handleHealth(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "application/json")
	json.NewEncoder(rw).Encode(map[string]string{
		"status":  "FarmBot is running 🌾",
		"version": s.version,
	})
}

// handleVerification answers the Meta webhook subscription challenge.
func (s *Server) handleVerification(rw http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && token == s.cfg.WhatsApp.VerifyToken {
		s.logger.Info("webhook verified")
		rw.WriteHeader(http.StatusOK)
		fmt.Fprint(rw, challenge)
		return
	}

	s.logger.Warn("webhook verification failed", "mode", mode)
	http.Error(rw, "Forbidden", http.StatusForbidden)
}

// handleWebhook acks the platform before any processing happens; the delivery
// is handled on a detached goroutine so a slow Gemini call never holds up the
// webhook response.
func (s *Server) handleWebhook(rw http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	rw.WriteHeader(http.StatusOK)
	if err != nil {
		s.logger.Warn("webhook body read failed", "err", err)
		return
	}

	go s.process(context.Background(), body)
}

// handleTest synchronously exercises the text completion path with a fixed
// sample question.
func (s *Server) handleTest(rw http.ResponseWriter, r *http.Request) {
	reply, err := s.completer.Complete(r.Context(), testQuestion)
	if err != nil {
		s.logger.Error("test completion failed", "err", err)
		reply = textApology
	}
	rw.Header().Set("Content-Type", "application/json")
	json.NewEncoder(rw).Encode(map[string]string{"reply": reply})
}
