package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/themislegal/themis/internal/session"
	"github.com/themislegal/themis/internal/synthesis"
)

func (s *Server) registerRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/tools", s.handleListTools)
		r.Get("/memory/recall", s.handleRecall)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Post("/", s.handleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/messages", s.handlePostMessage)
				r.Get("/timeline", s.handleGetTimeline)
				r.Get("/export", s.handleExport)
			})
		})
	})
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.List())
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []session.IndexEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	sess := session.New(body.Name)
	if err := s.store.Save(sess); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.Delete(id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePostMessage runs one full agent turn synchronously. The
// websocket endpoint streams state transitions; this is the plain REST
// equivalent for clients that only want the final answer.
func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Content == "" {
		http.Error(w, "content is required", http.StatusBadRequest)
		return
	}

	result, err := s.agent.Run(r.Context(), sess, body.Content)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		SessionID string `json:"session_id"`
		Reply     string `json:"reply"`
		Stats     any    `json:"stats"`
	}{sess.ID, result.Reply, result.Stats})
}

func (s *Server) handleGetTimeline(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Timeline)
}

// handleExport renders the session as markdown or a standalone HTML
// document. With synthesize=true the markdown body comes from the
// model instead of the deterministic renderer.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	markdown := synthesis.RenderMarkdown(sess)
	if r.URL.Query().Get("synthesize") == "true" && s.generator != nil {
		generated, err := s.generator.Generate(r.Context(), sess)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		markdown = generated
	}

	switch r.URL.Query().Get("format") {
	case "", "md", "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(markdown))
	case "html":
		html, err := synthesis.RenderHTML(markdown, sess.Name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(html)
	default:
		http.Error(w, "unsupported format", http.StatusBadRequest)
	}
}

func (s *Server) handleRecall(w http.ResponseWriter, r *http.Request) {
	if s.memory == nil {
		http.Error(w, "memory not enabled", http.StatusNotFound)
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "q is required", http.StatusBadRequest)
		return
	}
	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	results, err := s.memory.Recall(r.Context(), query, limit, r.URL.Query().Get("session"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	type hit struct {
		TextID     string  `json:"text_id"`
		Title      string  `json:"title"`
		Date       string  `json:"date,omitempty"`
		URL        string  `json:"url,omitempty"`
		Similarity float32 `json:"similarity"`
	}
	hits := make([]hit, 0, len(results))
	for _, res := range results {
		hits = append(hits, hit{
			TextID:     res.Document.Metadata.TextID,
			Title:      res.Document.Metadata.Title,
			Date:       res.Document.Metadata.Date,
			URL:        res.Document.Metadata.URL,
			Similarity: res.Similarity,
		})
	}
	writeJSON(w, http.StatusOK, hits)
}

func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	sess, err := s.store.Load(id)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotFound):
			http.Error(w, "session not found", http.StatusNotFound)
		case errors.Is(err, session.ErrCorrupt):
			http.Error(w, "session file corrupt", http.StatusInternalServerError)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return nil, false
	}
	return sess, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
