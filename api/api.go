// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/blinklabs-io/guild/event"
	"github.com/blinklabs-io/guild/governance"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	DefaultListenAddress = ":8080"
	CallerHeader         = "X-Guild-Caller"
	RequestIDHeader      = "X-Request-Id"
	maxRequestBodySize   = 1 << 20
)

// HeightSource supplies the height at which an operation executes
type HeightSource interface {
	CurrentHeight() uint64
}

// Config holds the API server options
type Config struct {
	ListenAddress string
	PromRegistry  prometheus.Registerer
	PromGatherer  prometheus.Gatherer
}

// Server is the HTTP API in front of the governance engine
type Server struct {
	config     Config
	logger     *slog.Logger
	engine     *governance.Engine
	heights    HeightSource
	eventBus   *event.EventBus
	metrics    *httpMetrics
	handler    http.Handler
	httpServer *http.Server
	shutdownCh chan struct{} // Closed when the running server shuts down
	mu         sync.Mutex
}

// New creates an API server. The event stream is disabled when eventBus is
// nil.
func New(
	cfg Config,
	engine *governance.Engine,
	heights HeightSource,
	eventBus *event.EventBus,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	logger = logger.With("component", "api")
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	s := &Server{
		config:   cfg,
		logger:   logger,
		engine:   engine,
		heights:  heights,
		eventBus: eventBus,
	}
	if cfg.PromRegistry != nil {
		s.metrics = newHTTPMetrics(cfg.PromRegistry)
	}
	s.handler = s.routes()
	return s
}

// Handler returns the router serving all API routes
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(s.logMiddleware)
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.middleware)
	}

	r.Get("/health", s.handleHealth)
	if s.config.PromGatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.config.PromGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/height", s.handleHeight)
		r.Get("/treasury", s.handleTreasury)
		r.Post("/treasury/deposits", s.handleDeposit)
		r.Get("/parameters", s.handleParameters)
		r.Put("/parameters", s.handleUpdateParameters)

		r.Get("/members", s.handleMembers)
		r.Get("/members/{identity}", s.handleMember)
		r.Post("/contributions", s.handleContribute)
		r.Post("/withdrawals", s.handleWithdraw)
		r.Post("/delegations", s.handleDelegate)
		r.Delete("/delegations", s.handleRevokeDelegation)

		r.Get("/proposals", s.handleProposals)
		r.Post("/proposals", s.handleCreateProposal)
		r.Route("/proposals/{id}", func(r chi.Router) {
			r.Get("/", s.handleProposal)
			r.Get("/votes", s.handleVotes)
			r.Post("/votes", s.handleVote)
			r.Get("/tally", s.handleTally)
			r.Post("/finalize", s.handleFinalize)
			r.Post("/execute", s.handleExecute)
			r.Get("/returns", s.handleReturnPool)
			r.Post("/returns", s.handleCreateReturnPool)
			r.Post("/returns/claims", s.handleClaimReturns)
			r.Post("/returns/close", s.handleCloseReturnPool)
			r.Get("/returns/shares/{member}", s.handleMemberShare)
		})

		r.Get("/emergency/admins", s.handleEmergencyAdmins)
		r.Post("/emergency/admins", s.handleAddEmergencyAdmin)
		r.Delete("/emergency/admins/{identity}", s.handleRemoveEmergencyAdmin)
		r.Put("/emergency/state", s.handleSetEmergencyState)
		r.Post("/emergency/withdrawals", s.handleEmergencyWithdraw)

		r.Get("/journal", s.handleJournal)
		if s.eventBus != nil {
			r.Get("/events", s.handleEvents)
		}
	})
	return r
}

// Start starts the HTTP server in a background goroutine. The server shuts
// down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.httpServer != nil {
		s.mu.Unlock()
		return errors.New("server already started")
	}
	server := &http.Server{
		Addr:              s.config.ListenAddress,
		Handler:           s.handler,
		ReadHeaderTimeout: 60 * time.Second,
	}
	// Event streams do not end on their own
	shutdownCh := make(chan struct{})
	server.RegisterOnShutdown(func() {
		close(shutdownCh)
	})
	s.httpServer = server
	s.shutdownCh = shutdownCh
	s.mu.Unlock()

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		s.mu.Lock()
		s.httpServer = nil
		s.mu.Unlock()
		return fmt.Errorf("failed to listen for API server: %w", err)
	}
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	s.logger.Info("API listener started on " + ln.Addr().String())

	go func() {
		<-ctx.Done()
		//nolint:contextcheck
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		//nolint:contextcheck
		if err := s.Stop(shutdownCtx); err != nil {
			s.logger.Error(
				"failed to shutdown API server on context cancellation",
				"error", err,
			)
		}
	}()
	return nil
}

func (s *Server) shutdownChan() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdownCh
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.logger.Debug("shutting down API server")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown API server: %w", err)
	}
	return nil
}
