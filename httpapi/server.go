package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// NewRouter wires the lottery routes. metricsHandler may be nil.
func NewRouter(ops LotteryOperations, limiter *RateLimiter, metricsHandler http.Handler) *mux.Router {
	h := NewHandlers(ops)
	r := mux.NewRouter()

	r.HandleFunc("/health", handleHealth).Methods(http.MethodGet)
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler).Methods(http.MethodGet)
	}

	api := r.NewRoute().Subrouter()
	api.Use(loggingMiddleware)
	if limiter != nil {
		api.Use(limiter.Middleware)
	}

	api.HandleFunc("/pools", h.handleCreatePool).Methods(http.MethodPost)
	api.HandleFunc("/pools/{id:[0-9]+}", h.handleGetPool).Methods(http.MethodGet)
	api.HandleFunc("/pools/{id:[0-9]+}/entries", h.handleEnter).Methods(http.MethodPost)
	api.HandleFunc("/pools/{id:[0-9]+}/players", h.handleGetPlayers).Methods(http.MethodGet)
	api.HandleFunc("/pools/{id:[0-9]+}/draws", h.handlePickWinner).Methods(http.MethodPost)

	api.HandleFunc("/accounts", h.handleOpenAccount).Methods(http.MethodPost)
	api.HandleFunc("/accounts/{address}", h.handleGetAccount).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{address}/accepts-payments", h.handleSetAcceptsPayments).Methods(http.MethodPut)

	return r
}

// Server runs the HTTP API until its context is cancelled
type Server struct {
	httpServer *http.Server
	limiter    *RateLimiter
}

// NewServer creates a server listening on addr
func NewServer(addr string, handler http.Handler, limiter *RateLimiter) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		limiter: limiter,
	}
}

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", s.httpServer.Addr).Info("HTTP server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	cleanup := time.NewTicker(time.Minute)
	defer cleanup.Stop()

	for {
		select {
		case err, ok := <-errCh:
			if ok {
				return fmt.Errorf("HTTP server failed: %w", err)
			}
			return nil
		case <-cleanup.C:
			if s.limiter != nil {
				s.limiter.Cleanup()
			}
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			log.Info("Shutting down HTTP server...")
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shut down HTTP server: %w", err)
			}
			return nil
		}
	}
}
