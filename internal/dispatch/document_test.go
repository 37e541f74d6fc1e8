package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/themislegal/themis/internal/legifrance"
)

type recordingReporter struct {
	total   int
	updates []string
	done    bool
}

func (r *recordingReporter) Start(total int)          { r.total = total }
func (r *recordingReporter) Update(_ int, msg string) { r.updates = append(r.updates, msg) }
func (r *recordingReporter) Finish()                  { r.done = true }

func TestFetchDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/consult/lawDecree":
			w.Write([]byte(`{
				"title": "Décret fictif",
				"articles": [{"id": "LEGIARTI000000000001", "num": "1"}],
				"sections": [{"articles": [{"id": "LEGIARTI000000000002", "num": "2", "texte": "Texte présent."}]}]
			}`))
		case "/consult/getArticle":
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			w.Write([]byte(`{"article": {"id": "` + body["id"].(string) + `", "num": "1", "texte": "Corps récupéré."}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	t.Cleanup(srv.Close)
	client := legifrance.NewWithHTTPClient(srv.URL, srv.Client(), 0)

	rep := &recordingReporter{}
	doc, err := FetchDocument(context.Background(), client, "LEGITEXT000000000099", "2024-01-01", rep)
	if err != nil {
		t.Fatalf("FetchDocument: %v", err)
	}
	if len(doc.Articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(doc.Articles))
	}
	if doc.Articles[0].Text != "Corps récupéré." {
		t.Errorf("missing body not re-fetched: %q", doc.Articles[0].Text)
	}
	if doc.Articles[1].Text != "Texte présent." {
		t.Errorf("present body overwritten: %q", doc.Articles[1].Text)
	}
	if rep.total != 2 || !rep.done || len(rep.updates) != 2 {
		t.Errorf("reporter not driven: %+v", rep)
	}
}

func TestDocumentMarkdown(t *testing.T) {
	doc := &Document{
		ID:    "JORFTEXT000000509310",
		Title: "Loi n° 89-462 du 6 juillet 1989",
		Date:  "1989-07-06",
		URL:   legifrance.PublicURL("JORFTEXT000000509310"),
		Articles: []Article{
			{Num: "1", Text: "Le droit au logement est un droit fondamental."},
			{ID: "LEGIARTI000000000002"},
		},
	}
	md := doc.Markdown()
	if !strings.HasPrefix(md, "# Loi n° 89-462") {
		t.Errorf("missing title heading: %q", md)
	}
	if !strings.Contains(md, "## Article 1") {
		t.Errorf("missing article heading: %q", md)
	}
	if !strings.Contains(md, "droit fondamental") {
		t.Errorf("missing article body: %q", md)
	}
	if !strings.Contains(md, "## LEGIARTI000000000002") {
		t.Errorf("article without num should fall back to ID: %q", md)
	}
}
