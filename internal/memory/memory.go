// Package memory gives the assistant semantic recall over legal texts
// consulted in past sessions. Each successful tool result is stored as
// one document per referenced text; later questions can surface them
// without a new Légifrance round trip.
package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/themislegal/themis/internal/dispatch"
	"github.com/themislegal/themis/internal/embeddings"
)

const collectionName = "legal-texts"

// Document is one remembered legal text excerpt.
type Document struct {
	ID       string
	Content  string
	Metadata Metadata
}

// Metadata identifies where a remembered excerpt came from.
type Metadata struct {
	TextID    string
	Title     string
	Kind      string
	Date      string
	URL       string
	SessionID string
	Tool      string
	StoredAt  time.Time
}

// SearchResult pairs a document with its similarity score.
type SearchResult struct {
	Document   Document
	Similarity float32
}

// Store implements the recall memory on chromem-go.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedFunc  chromem.EmbeddingFunc
}

// NewStore creates an empty in-memory store.
func NewStore(embedder embeddings.Embedder) (*Store, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)
	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &Store{db: db, collection: col, embedFunc: ef}, nil
}

// Remember adds or updates documents.
func (s *Store) Remember(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	chromDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		chromDocs[i] = chromem.Document{
			ID:       doc.ID,
			Content:  doc.Content,
			Metadata: metadataToMap(doc.Metadata),
		}
	}
	return s.collection.AddDocuments(ctx, chromDocs, 1)
}

// RememberResult folds a successful tool result into the memory: one
// document per referenced source, keyed by text id so replays update in
// place. Failed results are ignored.
func (s *Store) RememberResult(ctx context.Context, sessionID string, res dispatch.ToolResult) error {
	if res.IsError || len(res.Sources) == 0 {
		return nil
	}
	now := time.Now().UTC()
	docs := make([]Document, 0, len(res.Sources))
	for _, src := range res.Sources {
		if src.TextID == "" {
			continue
		}
		content := src.Title
		if len(res.Sources) == 1 {
			// A single-source result is about that text; keep the payload.
			content = src.Title + "\n" + res.Content
		}
		docs = append(docs, Document{
			ID:      src.TextID,
			Content: content,
			Metadata: Metadata{
				TextID:    src.TextID,
				Title:     src.Title,
				Date:      src.Date,
				URL:       src.URL,
				SessionID: sessionID,
				Tool:      res.Tool,
				StoredAt:  now,
			},
		})
	}
	return s.Remember(ctx, docs)
}

// Recall runs a semantic search over remembered texts. sessionID, when
// non-empty, restricts results to one session.
func (s *Store) Recall(ctx context.Context, query string, limit int, sessionID string) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	// chromem-go requires nResults <= collection size.
	if limit > count {
		limit = count
	}

	var where map[string]string
	if sessionID != "" {
		where = map[string]string{"session_id": sessionID}
	}

	results, err := s.collection.Query(ctx, query, limit, where, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	out := make([]SearchResult, len(results))
	for i, r := range results {
		out[i] = SearchResult{
			Document: Document{
				ID:       r.ID,
				Content:  r.Content,
				Metadata: mapToMetadata(r.Metadata),
			},
			Similarity: r.Similarity,
		}
	}
	return out, nil
}

// RecallContext renders the texts most relevant to query as a context
// block for the model's system prompt. Empty when nothing is
// remembered.
func (s *Store) RecallContext(ctx context.Context, query string, limit int) (string, error) {
	results, err := s.Recall(ctx, query, limit, "")
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", nil
	}
	var b strings.Builder
	b.WriteString("Textes consultés lors de recherches précédentes (à reconfirmer sur Légifrance avant de citer) :\n")
	for _, r := range results {
		m := r.Document.Metadata
		b.WriteString("- " + m.Title)
		if m.Date != "" {
			b.WriteString(" (" + m.Date + ")")
		}
		if m.URL != "" {
			b.WriteString(" — " + m.URL)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

// Count returns the number of remembered documents.
func (s *Store) Count() int {
	return s.collection.Count()
}

// Persist saves the memory to dir.
func (s *Store) Persist(dir string) error {
	return s.db.ExportToFile(filepath.Join(dir, "memory.gob.gz"), true, "")
}

// Load restores the memory from dir. A missing export is not an error:
// the store simply starts empty.
func (s *Store) Load(dir string) error {
	path := filepath.Join(dir, "memory.gob.gz")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := s.db.ImportFromFile(path, ""); err != nil {
		return fmt.Errorf("import from file: %w", err)
	}
	// Re-acquire collection reference after import.
	col := s.db.GetCollection(collectionName, s.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	s.collection = col
	return nil
}

func metadataToMap(m Metadata) map[string]string {
	return map[string]string{
		"text_id":    m.TextID,
		"title":      m.Title,
		"kind":       m.Kind,
		"date":       m.Date,
		"url":        m.URL,
		"session_id": m.SessionID,
		"tool":       m.Tool,
		"stored_at":  m.StoredAt.Format(time.RFC3339),
	}
}

func mapToMetadata(m map[string]string) Metadata {
	storedAt, _ := time.Parse(time.RFC3339, m["stored_at"])
	return Metadata{
		TextID:    m["text_id"],
		Title:     m["title"],
		Kind:      m["kind"],
		Date:      m["date"],
		URL:       m["url"],
		SessionID: m["session_id"],
		Tool:      m["tool"],
		StoredAt:  storedAt,
	}
}
