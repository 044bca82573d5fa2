// Copyright 2024-2026 Aiku AI

// Package web serves the admin HTTP API: health and a read-only view of the
// current channel connections, useful for dashboards and smoke checks.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aiku/discord-revolt/pkg/bridge"
)

type Server struct {
	log    zerolog.Logger
	exec   *bridge.Executor
	server *http.Server
}

func NewServer(addr string, exec *bridge.Executor, log zerolog.Logger) *Server {
	s := &Server{
		log:  log.With().Str("component", "web").Logger(),
		exec: exec,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/connections", s.handleConnections)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) Start() {
	go func() {
		s.log.Info().Str("addr", s.server.Addr).Msg("Starting admin API")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("Admin API error")
		}
	}()
}

func (s *Server) Stop(ctx context.Context) {
	if err := s.server.Shutdown(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Admin API shutdown error")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleConnections(w http.ResponseWriter, r *http.Request) {
	pairs := s.exec.ListConnections()
	if pairs == nil {
		pairs = []bridge.ConnectionPair{}
	}
	s.writeJSON(w, pairs)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn().Err(err).Msg("Failed to write response")
	}
}
