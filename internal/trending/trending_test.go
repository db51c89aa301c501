package trending

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const fixture = `
<html><body>
<article class="Box-row">
  <h2 class="h3"><a href="/langgenius/dify">langgenius / dify</a></h2>
  <p class="col-9">Production-ready platform for agentic workflow development.</p>
  <span itemprop="programmingLanguage">TypeScript</span>
  <a href="/langgenius/dify/stargazers">112,484</a>
  <a href="/langgenius/dify/forks">17,102</a>
  <span class="d-inline-block float-sm-right">1,302 stars today</span>
</article>
<article class="Box-row">
  <h2 class="h3"><a href="/tinygrad/tinygrad">tinygrad / tinygrad</a></h2>
  <a href="/tinygrad/tinygrad/stargazers">29,101</a>
  <a href="/tinygrad/tinygrad/forks">3,391</a>
</article>
<article class="Box-row">
  <h2 class="h3"><a href="/broken">broken</a></h2>
</article>
</body></html>`

func mustParse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parsing fixture: %v", err)
	}
	return doc
}

func TestParseDocument(t *testing.T) {
	repos := parseDocument(mustParse(t, fixture))

	// The malformed third article (single-segment href) is skipped.
	if len(repos) != 2 {
		t.Fatalf("expected 2 repos, got %d", len(repos))
	}

	first := repos[0]
	if first.Rank != 1 || first.FullName != "langgenius/dify" {
		t.Fatalf("unexpected first repo: %+v", first)
	}
	if first.Owner != "langgenius" || first.Name != "dify" {
		t.Fatalf("owner/name not split: %+v", first)
	}
	if first.URL != "https://github.com/langgenius/dify" {
		t.Fatalf("unexpected URL: %s", first.URL)
	}
	if first.Description == nil || !strings.HasPrefix(*first.Description, "Production-ready") {
		t.Fatalf("description not parsed: %v", first.Description)
	}
	if first.Language == nil || *first.Language != "TypeScript" {
		t.Fatalf("language not parsed: %v", first.Language)
	}
	if first.Stars != 112484 {
		t.Fatalf("stars not parsed: %d", first.Stars)
	}
	if first.Forks != 17102 {
		t.Fatalf("forks not parsed: %d", first.Forks)
	}
	if first.StarsToday != 1302 {
		t.Fatalf("stars today not parsed: %d", first.StarsToday)
	}

	second := repos[1]
	if second.Rank != 2 || second.FullName != "tinygrad/tinygrad" {
		t.Fatalf("unexpected second repo: %+v", second)
	}
	if second.Description != nil || second.Language != nil {
		t.Fatalf("missing fields must stay nil: %+v", second)
	}
	if second.StarsToday != 0 {
		t.Fatalf("absent stars-today must be 0, got %d", second.StarsToday)
	}
}

func TestFetchBuildsURLAndParses(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(fixture))
	}))
	defer srv.Close()

	c := NewClient()
	c.baseURL = srv.URL + "/trending"

	repos, err := c.Fetch(context.Background(), "Go", SinceWeekly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/trending/go" {
		t.Fatalf("language not lowercased into path: %s", gotPath)
	}
	if gotQuery != "since=weekly" {
		t.Fatalf("unexpected query: %s", gotQuery)
	}
	if len(repos) != 2 {
		t.Fatalf("expected parsed repos, got %d", len(repos))
	}
}

func TestFetchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient()
	c.baseURL = srv.URL

	if _, err := c.Fetch(context.Background(), "", SinceDaily); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestParseStarsToday(t *testing.T) {
	cases := map[string]int{
		"1,302 stars today": 1302,
		"87 stars today":    87,
		"1 star today":      1,
		"":                  0,
		"no stars here":     0,
	}
	for in, want := range cases {
		if got := parseStarsToday(in); got != want {
			t.Fatalf("parseStarsToday(%q) = %d, want %d", in, got, want)
		}
	}
}
