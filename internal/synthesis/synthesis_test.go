package synthesis

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/themislegal/themis/internal/config"
	"github.com/themislegal/themis/internal/llm"
	"github.com/themislegal/themis/internal/session"
)

type fixedProvider struct {
	content string
	lastReq llm.ChatRequest
}

func (p *fixedProvider) Chat(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	p.lastReq = req
	return &llm.ChatResponse{Content: p.content}, nil
}

func (p *fixedProvider) Name() string { return "fixed" }

func demoSession() *session.Session {
	sess := session.New("Baux d'habitation")
	sess.RecordTurn(session.RoleUser, "Quelle loi régit les baux d'habitation ?", "")
	sess.RecordTurn(session.RoleAssistant, "La loi n° 89-462 du 6 juillet 1989.", "")
	sess.AddTimelineEntry(session.TimelineEntry{
		Date: "1989-07-06", TextID: "JORFTEXT000000509310",
		Title: "Loi n° 89-462", Kind: "loi",
		URL: "https://www.legifrance.gouv.fr/loda/id/JORFTEXT000000509310",
	})
	return sess
}

func testPrompts(t *testing.T) *config.Prompts {
	t.Helper()
	p, err := config.LoadPrompts("")
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestGenerate(t *testing.T) {
	provider := &fixedProvider{content: "Les baux d'habitation sont régis par la loi de 1989."}
	g := NewGenerator(provider, "test-model", testPrompts(t))

	out, err := g.Generate(context.Background(), demoSession())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.HasPrefix(out, "# Synthèse — Baux d'habitation") {
		t.Errorf("metadata header missing:\n%s", out)
	}
	if !strings.Contains(out, "loi de 1989") {
		t.Error("model content missing")
	}
	if !strings.Contains(out, "## Chronologie des textes") {
		t.Error("timeline section missing")
	}
	if !strings.Contains(provider.lastReq.Messages[0].Content, "Quelle loi régit") {
		t.Error("transcript not passed to the model")
	}
	if len(provider.lastReq.Tools) != 0 {
		t.Error("synthesis call must not offer tools")
	}
}

func TestGenerateEmptySession(t *testing.T) {
	g := NewGenerator(&fixedProvider{content: "x"}, "m", testPrompts(t))
	if _, err := g.Generate(context.Background(), session.New("vide")); err == nil {
		t.Fatal("expected error for empty session")
	}
}

func TestRenderMarkdownDeterministic(t *testing.T) {
	sess := demoSession()
	first := RenderMarkdown(sess)
	second := RenderMarkdown(sess)
	if first != second {
		t.Error("render must be deterministic")
	}
	if !strings.Contains(first, "**Question :** Quelle loi régit les baux d'habitation ?") {
		t.Errorf("question missing:\n%s", first)
	}
	if !strings.Contains(first, "- **1989-07-06** — [Loi n° 89-462](https://www.legifrance.gouv.fr/loda/id/JORFTEXT000000509310) (loi)") {
		t.Errorf("timeline entry missing:\n%s", first)
	}
}

func TestTimelineMarkdownEmpty(t *testing.T) {
	if got := TimelineMarkdown(session.New("x")); got != "" {
		t.Errorf("empty timeline must render nothing, got %q", got)
	}
}

func TestEstimateLength(t *testing.T) {
	sess := session.New("x")
	if EstimateLength(sess) != LengthShort {
		t.Error("empty session should be short")
	}
	for i := 0; i < 6; i++ {
		sess.RecordTurn(session.RoleUser, "q", "")
	}
	if EstimateLength(sess) != LengthMedium {
		t.Error("mid-size session should be medium")
	}
	for i := 0; i < 10; i++ {
		sess.RecordTurn(session.RoleUser, "q", "")
	}
	if EstimateLength(sess) != LengthDetailed {
		t.Error("long session should be detailed")
	}
}

func TestExportHTML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "synthese.html")
	md := RenderMarkdown(demoSession())

	if err := ExportHTML(md, "Baux d'habitation", path); err != nil {
		t.Fatalf("ExportHTML: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	html := string(data)
	if !strings.Contains(html, "<!DOCTYPE html>") {
		t.Error("not a standalone document")
	}
	if !strings.Contains(html, "<title>Baux d&#39;habitation</title>") && !strings.Contains(html, "<title>Baux d'habitation</title>") {
		t.Errorf("title missing:\n%s", html[:200])
	}
	if !strings.Contains(html, "Loi n° 89-462") {
		t.Error("content missing")
	}
}

func TestExportMarkdown(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "synthese.md")
	if err := ExportMarkdown("# Titre\n", path); err != nil {
		t.Fatalf("ExportMarkdown: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "# Titre\n" {
		t.Errorf("content altered: %q", data)
	}
}
