package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/themislegal/themis/internal/agent"
	"github.com/themislegal/themis/internal/audit"
	"github.com/themislegal/themis/internal/catalog"
	"github.com/themislegal/themis/internal/memory"
	"github.com/themislegal/themis/internal/session"
	"github.com/themislegal/themis/internal/synthesis"
)

// Config holds server configuration.
type Config struct {
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
}

// Server exposes the research assistant over HTTP: session management,
// the chat WebSocket, exports and the audit log.
type Server struct {
	cfg        Config
	store      *session.Store
	agent      *agent.Agent
	catalog    *catalog.Registry
	generator  *synthesis.Generator
	auditStore *audit.Store
	memory     *memory.Store
	router     chi.Router
	httpServer *http.Server
}

// New creates a server. auditStore and mem may be nil; the matching
// routes are then not mounted.
func New(cfg Config, store *session.Store, ag *agent.Agent, reg *catalog.Registry,
	gen *synthesis.Generator, auditStore *audit.Store, mem *memory.Store) *Server {
	s := &Server{
		cfg:        cfg,
		store:      store,
		agent:      ag,
		catalog:    reg,
		generator:  gen,
		auditStore: auditStore,
		memory:     mem,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	s.registerRoutes(r)
	if s.auditStore != nil {
		audit.RegisterRoutes(r, s.auditStore)
	}
	r.Get("/ws/chat", s.handleChat)

	return r
}

// Router returns the chi router, for tests and extra routes.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      180 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("themis server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
