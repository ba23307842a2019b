package webscraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const page = `<!DOCTYPE html>
<html>
<head>
  <title>Dijon - Site officiel</title>
  <meta property="og:site_name" content="Ville de Dijon">
  <script>console.log("tracking")</script>
</head>
<body>
  <nav>menu</nav>
  <main>
    <h1>Bienvenue à Dijon</h1>
    <p>Capitale de la Bourgogne.</p>
  </main>
  <footer>mentions légales</footer>
</body>
</html>`

func TestScraperRun(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(page))
	}))
	defer srv.Close()

	tool := New()
	out, err := tool.Run(ctx, &Input{URL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if out.Title != "Dijon - Site officiel" {
		t.Errorf("unexpected title: %s", out.Title)
	}
	if out.SiteName != "Ville de Dijon" {
		t.Errorf("unexpected site name: %s", out.SiteName)
	}
	if !strings.Contains(out.Content, "Bienvenue à Dijon") {
		t.Errorf("main content missing: %s", out.Content)
	}
	if strings.Contains(out.Content, "menu") || strings.Contains(out.Content, "mentions légales") {
		t.Errorf("chrome elements must be stripped: %s", out.Content)
	}
	res := out.RenderResult()
	if len(res.Citations) != 1 || res.Citations[0] != srv.URL {
		t.Errorf("expect the page URL as citation, got %v", res.Citations)
	}
}

func TestScraperRunBadStatus(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	tool := New()
	if _, err := tool.Run(ctx, &Input{URL: srv.URL}); err == nil {
		t.Fatal("expect an error on 404")
	}
}

func TestScraperRunInvalidURL(t *testing.T) {
	tool := New()
	if _, err := tool.Run(context.Background(), &Input{URL: "not-a-url"}); err == nil {
		t.Fatal("expect an error on invalid URL")
	}
}
