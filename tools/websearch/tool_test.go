package websearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchRun(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-API-KEY"); got != "test-key" {
			t.Errorf("missing API key header, got %q", got)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req["q"] != "maire de Dijon" {
			t.Errorf("unexpected query: %v", req["q"])
		}
		w.Write([]byte(`{"organic": [
			{"title": "Ville de Dijon", "link": "https://www.dijon.fr", "snippet": "site officiel"},
			{"title": "Wikipedia", "link": "https://fr.wikipedia.org/wiki/Dijon"}
		]}`))
	}))
	defer srv.Close()

	tool := New(WithAPIKey("test-key"), WithBaseURL(srv.URL))
	out, err := tool.Run(ctx, &Input{Query: "maire de Dijon"})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Results) != 2 {
		t.Fatalf("expect 2 results, got %d", len(out.Results))
	}
	res := out.RenderResult()
	if len(res.Citations) != 2 {
		t.Errorf("expect 2 citations, got %d", len(res.Citations))
	}
	if res.Citations[0] != "https://www.dijon.fr" {
		t.Errorf("unexpected citation: %s", res.Citations[0])
	}
}

func TestSearchRunCapsResults(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"organic": [
			{"title": "a", "link": "https://a"},
			{"title": "b", "link": "https://b"},
			{"title": "c", "link": "https://c"}
		]}`))
	}))
	defer srv.Close()

	tool := New(WithBaseURL(srv.URL), WithMaxResults(2))
	out, err := tool.Run(ctx, &Input{Query: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Results) != 2 {
		t.Errorf("expect results capped at 2, got %d", len(out.Results))
	}
}

func TestSearchRunServerError(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	tool := New(WithBaseURL(srv.URL))
	if _, err := tool.Run(ctx, &Input{Query: "x"}); err == nil {
		t.Fatal("expect an error on non-200 status")
	}
}

func TestOutputRenderEmpty(t *testing.T) {
	out := Output{}
	res := out.RenderResult()
	if res.Content != "aucun résultat" {
		t.Errorf("unexpected empty rendering: %s", res.Content)
	}
}
