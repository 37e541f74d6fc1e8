package audit

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/themislegal/themis/internal/db"
	"github.com/themislegal/themis/internal/dispatch"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	return NewStore(d)
}

func TestLogAndQuery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entries := []Entry{
		{SessionID: "s1", Tool: "search_texts", Success: true, DurationMS: 120},
		{SessionID: "s1", Tool: "get_article", Success: false, ErrKind: "remote_unavailable", DurationMS: 30000},
		{SessionID: "s2", Tool: "search_texts", Success: true, DurationMS: 95},
	}
	for _, e := range entries {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	got, err := store.Query(ctx, QueryFilter{SessionID: "s1"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries for s1, got %d", len(got))
	}

	got, err = store.Query(ctx, QueryFilter{ErrKind: "remote_unavailable"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Tool != "get_article" {
		t.Errorf("error-kind filter wrong: %+v", got)
	}

	got, err = store.Query(ctx, QueryFilter{Tool: "search_texts", Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("limit ignored: %d entries", len(got))
	}
}

func TestToolStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := store.Log(ctx, Entry{Tool: "search_texts", Success: i != 0, DurationMS: 100}); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := store.ToolStats(ctx)
	if err != nil {
		t.Fatalf("ToolStats: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("expected 1 stat row, got %d", len(stats))
	}
	st := stats[0]
	if st.Calls != 3 || st.Failures != 1 || st.AvgMillis != 100 {
		t.Errorf("unexpected stats: %+v", st)
	}
}

func TestDeleteBefore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	if err := store.Log(ctx, Entry{Tool: "search_texts", Timestamp: old}); err != nil {
		t.Fatal(err)
	}
	if err := store.Log(ctx, Entry{Tool: "search_texts"}); err != nil {
		t.Fatal(err)
	}

	n, err := store.DeleteBefore(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 deletion, got %d", n)
	}
}

func TestRecorderUsesEntrySessionID(t *testing.T) {
	store := newTestStore(t)
	rec := store.Recorder()

	rec.RecordDispatch(context.Background(), dispatch.Entry{
		SessionID: "sess-42",
		CallID:    "c1",
		Tool:      "get_code",
		Args:      `{"code":"civil"}`,
		Success:   true,
		Duration:  250 * time.Millisecond,
		At:        time.Now(),
	})

	got, err := store.Query(context.Background(), QueryFilter{SessionID: "sess-42"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 entry for sess-42, got %d", len(got))
	}
	if got[0].DurationMS != 250 || got[0].Tool != "get_code" {
		t.Errorf("entry mangled: %+v", got[0])
	}
}

func TestLogModelCall(t *testing.T) {
	store := newTestStore(t)
	store.LogModelCall(context.Background(), "sess-7", "albert-large", 1200, 340)

	var model string
	var in, out int
	err := store.db.QueryRow(
		"SELECT model, input_tokens, output_tokens FROM usage_log WHERE session_id = ?",
		"sess-7",
	).Scan(&model, &in, &out)
	if err != nil {
		t.Fatalf("usage row: %v", err)
	}
	if model != "albert-large" || in != 1200 || out != 340 {
		t.Errorf("usage mangled: %s %d %d", model, in, out)
	}
}

func TestRoutes(t *testing.T) {
	store := newTestStore(t)
	if err := store.Log(context.Background(), Entry{Tool: "search_texts", Success: true}); err != nil {
		t.Fatal(err)
	}

	r := chi.NewRouter()
	RegisterRoutes(r, store)

	req := httptest.NewRequest("GET", "/api/audit/?tool=search_texts", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("status %d", w.Code)
	}
	var entries []Entry
	if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 entry, got %d", len(entries))
	}

	req = httptest.NewRequest("GET", "/api/audit/stats", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("stats status %d", w.Code)
	}
}
