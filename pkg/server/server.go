// Copyright 2026 © The Adulter Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the interpreter over HTTP. Input arrives as a
// token stream: clients POST {token, last} fragments and receive the
// conversation result once the final fragment lands.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/VladRad03/Adulter/pkg/orchestrator"
	"github.com/VladRad03/Adulter/pkg/transcript"
)

// Runner runs one conversation over assembled input.
type Runner interface {
	Interpret(ctx context.Context, input string) (*orchestrator.Result, error)
}

// Server buffers streamed input and runs the interpreter on completion.
type Server struct {
	runner Runner
	store  transcript.Store

	mu  sync.Mutex
	buf strings.Builder

	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithTranscripts exposes stored transcripts over GET endpoints.
func WithTranscripts(store transcript.Store) Option {
	return func(s *Server) { s.store = store }
}

// New creates a server for the given runner.
func New(runner Runner, opts ...Option) *Server {
	s := &Server{runner: runner}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type streamRequest struct {
	Token string `json:"token"`
	Last  bool   `json:"last"`
}

type streamResponse struct {
	OK     bool   `json:"ok"`
	Result string `json:"result,omitempty"`
}

// Handler returns the HTTP handler for the service.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /stream", s.handleStream)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if s.store != nil {
		mux.HandleFunc("GET /transcripts", s.handleListTranscripts)
		mux.HandleFunc("GET /transcripts/{id}", s.handleGetTranscript)
	}
	return mux
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	var req streamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, streamResponse{OK: false})
		return
	}

	s.mu.Lock()
	s.buf.WriteString(req.Token)
	if !req.Last {
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, streamResponse{OK: true})
		return
	}
	input := s.buf.String()
	s.buf.Reset()
	s.mu.Unlock()

	result, err := s.runner.Interpret(r.Context(), input)
	if err != nil {
		slog.ErrorContext(r.Context(), "interpretation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, streamResponse{OK: false})
		return
	}
	writeJSON(w, http.StatusOK, streamResponse{OK: true, Result: result.Text})
}

func (s *Server) handleListTranscripts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := s.store.List(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleGetTranscript(w http.ResponseWriter, r *http.Request) {
	result, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if result == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// ListenAndServe serves until the context is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()
	slog.Info("http server listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
