// Package api provides the HTTP surface for ServiceBuilder.
//
// It exposes RESTful endpoints for creating workflow sessions, posting user
// messages, and inspecting session status, plus a Prometheus metrics
// endpoint. The API loads session state from the store, drives the workflow
// engine, and persists the resulting state.
package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/SoloForge/ServiceBuilder/internal/genai"
	"github.com/SoloForge/ServiceBuilder/internal/store"
	"github.com/SoloForge/ServiceBuilder/internal/workflow"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultAddr is the address the API server listens on when none is
// configured.
const DefaultAddr = ":8080"

// Opts holds configuration collected from Options.
type Opts struct {
	Addr string
}

// Option configures the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// Server wires the workflow engine and session store behind HTTP handlers.
type Server struct {
	st     store.Store
	engine *workflow.Engine
	addr   string
}

// NewServer creates a Server over the given store and engine.
func NewServer(st store.Store, engine *workflow.Engine, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	return &Server{st: st, engine: engine, addr: cfg.Addr}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sessions", s.createSessionHandler)
	mux.HandleFunc("POST /sessions/{id}/messages", s.postMessageHandler)
	mux.HandleFunc("GET /sessions/{id}", s.getSessionHandler)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// Start blocks serving HTTP on the configured address.
func (s *Server) Start() error {
	slog.Info("Server.Start: API listening", "addr", s.addr)
	return http.ListenAndServe(s.addr, s.Handler())
}

// Run builds all modules from their options and serves the API. It is the
// single entry point used by the command line binary.
func Run(storeOpts []store.Option, genaiOpts []genai.Option, apiOpts []Option) error {
	st, err := store.NewStore(storeOpts...)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			slog.Error("Run: failed to close store", "error", cerr)
		}
	}()

	client, err := genai.NewClient(genaiOpts...)
	if err != nil {
		return fmt.Errorf("failed to initialize GenAI client: %w", err)
	}

	engine := workflow.NewEngine(client)
	server := NewServer(st, engine, apiOpts...)
	return server.Start()
}
