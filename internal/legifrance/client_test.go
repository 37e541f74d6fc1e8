package legifrance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, retries int) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewWithHTTPClient(srv.URL, srv.Client(), retries)
}

func TestSearchSendsMandatoryFields(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"totalResultNumber": 1, "results": []}`))
	}, 0)

	resp, err := client.Search(context.Background(), SearchQuery{Query: "responsabilité civile", PageSize: 10})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp["totalResultNumber"] != float64(1) {
		t.Errorf("unexpected total: %v", resp["totalResultNumber"])
	}

	if got["fond"] != "ALL" {
		t.Errorf("missing fond, got %v", got["fond"])
	}
	recherche, _ := got["recherche"].(map[string]any)
	if recherche == nil {
		t.Fatal("missing recherche block")
	}
	for _, field := range []string{"operateur", "sort", "typePagination", "pageSize", "pageNumber"} {
		if _, ok := recherche[field]; !ok {
			t.Errorf("missing mandatory field %q", field)
		}
	}
}

func TestBuildSearchRequestCodeFilter(t *testing.T) {
	req := BuildSearchRequest(SearchQuery{Query: "licenciement", CodeName: "travail"})
	if req["fond"] != "CODE_DATE" {
		t.Errorf("code-restricted search must use CODE_DATE, got %v", req["fond"])
	}
	recherche := req["recherche"].(map[string]any)
	filtres, ok := recherche["filtres"].([]any)
	if !ok || len(filtres) != 1 {
		t.Fatalf("expected one filtre, got %v", recherche["filtres"])
	}
	filtre := filtres[0].(map[string]any)
	if filtre["facette"] != "NOM_CODE" {
		t.Errorf("unexpected facette %v", filtre["facette"])
	}
	valeurs := filtre["valeurs"].([]string)
	if len(valeurs) != 1 || valeurs[0] != "Code du travail" {
		t.Errorf("unexpected valeurs %v", valeurs)
	}
}

func TestGetArticlePath(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/consult/getArticle" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["id"] != "LEGIARTI000006419283" {
			t.Errorf("unexpected id %v", body["id"])
		}
		w.Write([]byte(`{"article": {"id": "LEGIARTI000006419283"}}`))
	}, 0)

	doc, err := client.GetArticle(context.Background(), "LEGIARTI000006419283")
	if err != nil {
		t.Fatalf("GetArticle: %v", err)
	}
	if doc["article"] == nil {
		t.Error("expected article in response")
	}
}

func TestRetryOnServerError(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"ok": true}`))
	}, 3)

	_, err := client.ListCodes(context.Background(), 1, 20)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("expected 3 calls, got %d", n)
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "bad request"}`))
	}, 3)

	_, err := client.GetCode(context.Background(), "LEGITEXT000006070721", "")
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Errorf("unexpected status %d", apiErr.Status)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("client errors must not be retried, got %d calls", n)
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{BaseURL: "https://example.test"})
	if err == nil {
		t.Error("expected error for missing credentials")
	}
}

func TestPublicURL(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"LEGITEXT000006070721", "https://www.legifrance.gouv.fr/codes/id/LEGITEXT000006070721/"},
		{"LEGIARTI000006419283", "https://www.legifrance.gouv.fr/codes/article_lc/LEGIARTI000006419283"},
		{"LEGISCTA000006089696", "https://www.legifrance.gouv.fr/codes/section_lc/LEGISCTA000006089696"},
		{"JORFTEXT000051774034", "https://www.legifrance.gouv.fr/loda/id/JORFTEXT000051774034"},
		{"CNILTEXT000017653503", "https://www.legifrance.gouv.fr/cnil/id/CNILTEXT000017653503"},
		{"UNKNOWN123", "https://www.legifrance.gouv.fr/affichTexte.do?cidTexte=UNKNOWN123"},
	}
	for _, tt := range tests {
		if got := PublicURL(tt.id); got != tt.want {
			t.Errorf("PublicURL(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestCodeIDs(t *testing.T) {
	if CodeIDs["civil"] != "LEGITEXT000006070721" {
		t.Errorf("unexpected id for code civil: %q", CodeIDs["civil"])
	}
	if _, ok := CodeIDs["inexistant"]; ok {
		t.Error("unexpected entry for unknown code")
	}
}
