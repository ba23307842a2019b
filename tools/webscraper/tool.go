// Package webscraper fetches a web page (typically a municipal site) and
// converts its main content to markdown.
package webscraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"

	"github.com/ficheapp/fiche/tools"
)

const (
	defaultName        = "read_webpage"
	defaultDescription = "Lit une page web (site officiel d'une commune, article) et retourne son contenu principal en markdown."

	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	defaultTimeout   = 30 * time.Second
)

var blankLines = regexp.MustCompile(`\r?\n{2,}`)

// Input is the schema of one page read.
type Input struct {
	// URL of the page to read
	URL string `json:"url" jsonschema:"title=url,description=URL de la page à lire." validate:"required,url"`
}

// Output carries the page content and identification metadata.
type Output struct {
	// Content is the main page content in markdown
	Content string `json:"content,omitempty"`
	// Title is the page title
	Title string `json:"title,omitempty"`
	// SiteName is the og:site_name of the page when present
	SiteName string `json:"site_name,omitempty"`
	// URL is the page that was read
	URL string `json:"url,omitempty"`
}

// RenderResult implements tools.Renderer.
func (o Output) RenderResult() *tools.Result {
	var citations []string
	if o.URL != "" {
		citations = []string{o.URL}
	}
	return &tools.Result{Content: o.Content, Citations: citations}
}

type Config struct {
	tools.Config
	userAgent  string
	httpClient *http.Client
}

// Scraper reads pages and extracts their main content.
type Scraper struct {
	Config
}

// New returns a Scraper.
func New(opts ...Option) *Scraper {
	ret := new(Scraper)
	for _, opt := range opts {
		opt(&ret.Config)
	}
	if ret.Name() == "" {
		ret.SetName(defaultName)
	}
	if ret.Description() == "" {
		ret.SetDescription(defaultDescription)
	}
	if ret.userAgent == "" {
		ret.userAgent = defaultUserAgent
	}
	if ret.httpClient == nil {
		ret.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return ret
}

// Run fetches the page and converts its main content to markdown.
func (t *Scraper) Run(ctx context.Context, input *Input) (*Output, error) {
	parsedURL, err := url.ParseRequestURI(input.URL)
	if err != nil {
		return nil, err
	}
	doc, err := t.fetch(ctx, input.URL)
	if err != nil {
		return nil, err
	}
	out := &Output{URL: input.URL}
	out.Title = strings.TrimSpace(doc.Find("head title").Text())
	out.SiteName, _ = doc.Find("meta[property='og:site_name']").Attr("content")
	markdown, err := htmltomarkdown.ConvertString(
		mainContent(doc),
		converter.WithDomain(fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)),
	)
	if err != nil {
		return nil, err
	}
	out.Content = tidyMarkdown(markdown)
	return out, nil
}

func (t *Scraper) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("User-Agent", t.userAgent)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml")
	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned status %d", httpResp.StatusCode)
	}
	return goquery.NewDocumentFromReader(httpResp.Body)
}

// mainContent strips chrome elements and picks the most specific content
// container available.
func mainContent(doc *goquery.Document) string {
	for _, tag := range []string{"script", "style", "noscript", "nav", "header", "footer", "aside"} {
		doc.Find(tag).Remove()
	}
	for _, selector := range []string{"main", "article", "#content", ".content", "body"} {
		sel := doc.Find(selector)
		if sel.Length() == 0 {
			continue
		}
		if html, err := sel.First().Html(); err == nil && strings.TrimSpace(html) != "" {
			return html
		}
	}
	html, _ := doc.Html()
	return html
}

func tidyMarkdown(content string) string {
	content = blankLines.ReplaceAllString(content, "\n\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Entry wraps the tool for registry use.
func (t *Scraper) Entry() tools.Tool {
	return tools.NewFunc(t.Name(), t.Description(), t.Run)
}
