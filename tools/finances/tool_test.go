package finances

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ficheapp/fiche/ofgl"
)

const communeRows = `{"results":[
  {"agregat":"Encours de dette","montant":200,"euros_par_habitant":4,"ptot":50},
  {"agregat":"Epargne brute","montant":50,"euros_par_habitant":1,"ptot":50}
]}`

func TestLookupRunCommune(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "ofgl-base-communes-consolidee") {
			t.Errorf("unexpected dataset path: %s", r.URL.Path)
		}
		w.Write([]byte(communeRows))
	}))
	defer srv.Close()

	tool := New(ofgl.NewClient(ofgl.WithBaseURL(srv.URL)))
	out, err := tool.Run(ctx, &Input{Identifier: "212102313", Scope: "commune", Year: 2023})
	if err != nil {
		t.Fatal(err)
	}
	if out.Metrics["total_budget"] != 200 {
		t.Errorf("unexpected total_budget: %v", out.Metrics["total_budget"])
	}
	if out.Metrics["debt_repayment_capacity"] != 4 {
		t.Errorf("unexpected debt_repayment_capacity: %v", out.Metrics["debt_repayment_capacity"])
	}
	text := out.RenderResult().Content
	if !strings.Contains(text, "total_budget: 200.00") {
		t.Errorf("metrics not rendered: %s", text)
	}
	if strings.Index(text, "data_from_year") > strings.Index(text, "population") {
		t.Errorf("metrics must be rendered in name order: %s", text)
	}
}

func TestLookupRunNoRows(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "ofgl-base-ei") {
			t.Errorf("unexpected dataset path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	tool := New(ofgl.NewClient(ofgl.WithBaseURL(srv.URL)))
	out, err := tool.Run(ctx, &Input{Identifier: "243100518", Scope: "epci", Year: 2023})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Metrics) != 0 {
		t.Errorf("expect empty metrics, got %v", out.Metrics)
	}
	if !strings.Contains(out.RenderResult().Content, "Aucune donnée financière") {
		t.Errorf("empty metrics must render a no-data message: %s", out.RenderResult().Content)
	}
}

func TestLookupWithoutClient(t *testing.T) {
	tool := New(nil)
	if _, err := tool.Run(context.Background(), &Input{Identifier: "x", Scope: "commune", Year: 2023}); err == nil {
		t.Fatal("expect an error when no client is wired")
	}
}
