package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/themislegal/themis/internal/agent"
	"github.com/themislegal/themis/internal/catalog"
	"github.com/themislegal/themis/internal/dispatch"
	"github.com/themislegal/themis/internal/legifrance"
	"github.com/themislegal/themis/internal/llm"
	"github.com/themislegal/themis/internal/session"
)

type loopProvider struct {
	replies []string
	calls   int
}

func (p *loopProvider) Chat(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	reply := p.replies[p.calls%len(p.replies)]
	p.calls++
	return &llm.ChatResponse{Content: reply}, nil
}

func (p *loopProvider) Name() string { return "loop" }

func newTestServer(t *testing.T) (*Server, *session.Store) {
	t.Helper()
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"totalResultNumber": 0, "results": []}`))
	}))
	t.Cleanup(api.Close)
	client := legifrance.NewWithHTTPClient(api.URL, api.Client(), 0)

	store, err := session.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	reg := catalog.Builtin()
	provider := &loopProvider{replies: []string{"Réponse de test.", "Nom de session"}}
	ag, err := agent.New(agent.Options{
		Provider:   provider,
		Model:      "test-model",
		Catalog:    reg,
		Dispatcher: dispatch.New(reg, client, 5*time.Second),
		Store:      store,
	})
	if err != nil {
		t.Fatal(err)
	}

	s := New(Config{Port: 0, AllowAll: true}, store, ag, reg, nil, nil, nil)
	return s, store
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
}

func TestListTools(t *testing.T) {
	s, _ := newTestServer(t)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest("GET", "/api/tools", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var tools []catalog.ToolDefinition
	if err := json.Unmarshal(w.Body.Bytes(), &tools); err != nil {
		t.Fatal(err)
	}
	if len(tools) != 5 {
		t.Errorf("expected 5 tools, got %d", len(tools))
	}
}

func TestSessionLifecycle(t *testing.T) {
	s, _ := newTestServer(t)

	// Create.
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest("POST", "/api/sessions/",
		strings.NewReader(`{"name":"bail commercial"}`)))
	if w.Code != http.StatusCreated {
		t.Fatalf("create status %d: %s", w.Code, w.Body.String())
	}
	var sess session.Session
	if err := json.Unmarshal(w.Body.Bytes(), &sess); err != nil {
		t.Fatal(err)
	}

	// Get.
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest("GET", "/api/sessions/"+sess.ID+"/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("get status %d", w.Code)
	}

	// List.
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest("GET", "/api/sessions/", nil))
	var entries []session.IndexEntry
	if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name != "bail commercial" {
		t.Errorf("list wrong: %+v", entries)
	}

	// Delete.
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest("DELETE", "/api/sessions/"+sess.ID+"/", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status %d", w.Code)
	}
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest("GET", "/api/sessions/"+sess.ID+"/", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", w.Code)
	}
}

func TestPostMessage(t *testing.T) {
	s, store := newTestServer(t)
	sess := session.New("préavis")
	if err := store.Save(sess); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest("POST", "/api/sessions/"+sess.ID+"/messages",
		strings.NewReader(`{"content":"Quel est le préavis d'un locataire ?"}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		SessionID string `json:"session_id"`
		Reply     string `json:"reply"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Reply != "Réponse de test." || resp.SessionID != sess.ID {
		t.Errorf("response: %+v", resp)
	}

	// The turn must be persisted.
	stored, err := store.Load(sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored.Conversation) != 2 {
		t.Errorf("expected user+assistant turns, got %d", len(stored.Conversation))
	}

	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest("POST", "/api/sessions/"+sess.ID+"/messages",
		strings.NewReader(`{}`)))
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty content should be 400, got %d", w.Code)
	}
}

func TestGetTimelineAndExport(t *testing.T) {
	s, store := newTestServer(t)
	sess := session.New("Baux")
	sess.RecordTurn(session.RoleUser, "Quelle loi ?", "")
	sess.RecordTurn(session.RoleAssistant, "La loi de 1989.", "")
	sess.AddTimelineEntry(session.TimelineEntry{
		Date: "1989-07-06", TextID: "JORFTEXT000000509310", Title: "Loi n° 89-462", Kind: "loi",
	})
	if err := store.Save(sess); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest("GET", "/api/sessions/"+sess.ID+"/timeline", nil))
	var timeline []session.TimelineEntry
	if err := json.Unmarshal(w.Body.Bytes(), &timeline); err != nil {
		t.Fatal(err)
	}
	if len(timeline) != 1 {
		t.Errorf("timeline: %+v", timeline)
	}

	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest("GET", "/api/sessions/"+sess.ID+"/export", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Loi n° 89-462") {
		t.Errorf("markdown export wrong: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest("GET", "/api/sessions/"+sess.ID+"/export?format=html", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "<!DOCTYPE html>") {
		t.Errorf("html export wrong: %d", w.Code)
	}

	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest("GET", "/api/sessions/"+sess.ID+"/export?format=pdf", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("unsupported format should be 400, got %d", w.Code)
	}
}

func TestCorruptSessionIs500(t *testing.T) {
	s, store := newTestServer(t)
	sess := session.New("x")
	if err := store.Save(sess); err != nil {
		t.Fatal(err)
	}
	// Break the stored document.
	if err := os.WriteFile(storePath(store, sess.ID), []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest("GET", "/api/sessions/"+sess.ID+"/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("corrupt session should be 500, got %d", w.Code)
	}
}

func TestRecallDisabled(t *testing.T) {
	s, _ := newTestServer(t)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest("GET", "/api/memory/recall?q=bail", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("recall without memory should be 404, got %d", w.Code)
	}
}

func TestChatWebSocket(t *testing.T) {
	s, _ := newTestServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(chatRequest{Content: "Quelle loi régit les baux ?"}); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(10 * time.Second)
	var sawState bool
	for {
		conn.SetReadDeadline(deadline)
		var ev chatEvent
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("read: %v", err)
		}
		switch ev.Type {
		case "state":
			sawState = true
		case "response":
			if ev.Content != "Réponse de test." {
				t.Errorf("reply = %q", ev.Content)
			}
			if ev.SessionID == "" {
				t.Error("response must carry the session id")
			}
			if !sawState {
				t.Error("expected state events before the response")
			}
			return
		case "error":
			t.Fatalf("chat error: %s", ev.Content)
		}
	}
}

// storePath rebuilds the on-disk path of a session document.
func storePath(store *session.Store, id string) string {
	return fmt.Sprintf("%s/%s.json", store.Dir(), id)
}
