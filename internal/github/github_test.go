package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gitpulse/trend-watch/internal/models"
)

func testClient(srv *httptest.Server, token string) *Client {
	c := NewClient(token)
	c.baseURL = srv.URL
	return c
}

func scrapedRepo() models.TrendingRepo {
	desc := "scraped description"
	return models.TrendingRepo{
		Rank:        1,
		Owner:       "acme",
		Name:        "widget",
		FullName:    "acme/widget",
		URL:         "https://github.com/acme/widget",
		Stars:       100,
		Forks:       10,
		Description: &desc,
	}
}

func TestEnrichFillsMetadata(t *testing.T) {
	pushed := time.Now().UTC().Add(-48 * time.Hour).Format(time.RFC3339)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/acme/widget" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Fatalf("unexpected auth header: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": 42,
			"description": "api description",
			"language": "Go",
			"stargazers_count": 12345,
			"forks_count": 678,
			"open_issues_count": 9,
			"subscribers_count": 55,
			"topics": ["cli", "tooling"],
			"has_wiki": true,
			"archived": false,
			"pushed_at": "` + pushed + `",
			"license": {"spdx_id": "MIT"}
		}`))
	}))
	defer srv.Close()

	repo := testClient(srv, "tok").Enrich(context.Background(), scrapedRepo())

	if repo.GitHubID == nil || *repo.GitHubID != 42 {
		t.Fatalf("github id not set: %v", repo.GitHubID)
	}
	if repo.Description == nil || *repo.Description != "api description" {
		t.Fatalf("description not overridden: %v", repo.Description)
	}
	if repo.Language == nil || *repo.Language != "Go" {
		t.Fatalf("language not set: %v", repo.Language)
	}
	if repo.Stars != 12345 || repo.Forks != 678 {
		t.Fatalf("counts not updated: %d/%d", repo.Stars, repo.Forks)
	}
	if repo.OpenIssues != 9 || repo.Watchers != 55 {
		t.Fatalf("issue/watcher counts not set: %d/%d", repo.OpenIssues, repo.Watchers)
	}
	if len(repo.Topics) != 2 || repo.Topics[0] != "cli" {
		t.Fatalf("topics not set: %v", repo.Topics)
	}
	if repo.License == nil || *repo.License != "MIT" {
		t.Fatalf("license not set: %v", repo.License)
	}
	if repo.DaysSincePush == nil || *repo.DaysSincePush != 2 {
		t.Fatalf("days since push not computed: %v", repo.DaysSincePush)
	}
	if !repo.IsActive {
		t.Fatal("repo pushed 2 days ago must be active")
	}
}

func TestEnrichNotFoundKeepsScrapedData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	scraped := scrapedRepo()
	repo := testClient(srv, "").Enrich(context.Background(), scraped)

	if repo.FullName != scraped.FullName || repo.Stars != scraped.Stars {
		t.Fatalf("scraped data lost: %+v", repo)
	}
	if repo.Description == nil || *repo.Description != *scraped.Description {
		t.Fatalf("scraped description lost: %v", repo.Description)
	}
	if repo.GitHubID != nil {
		t.Fatal("github id must stay nil on 404")
	}
	if !repo.IsActive {
		t.Fatal("unenriched repo defaults to active")
	}
}

func TestEnrichStaleRepoInactive(t *testing.T) {
	pushed := time.Now().UTC().Add(-90 * 24 * time.Hour).Format(time.RFC3339)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 1, "pushed_at": "` + pushed + `"}`))
	}))
	defer srv.Close()

	repo := testClient(srv, "").Enrich(context.Background(), scrapedRepo())
	if repo.IsActive {
		t.Fatal("repo untouched for 90 days must be inactive")
	}
}

func TestEnrichAllPreservesOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 7}`))
	}))
	defer srv.Close()

	scraped := []models.TrendingRepo{
		{Rank: 1, Owner: "a", Name: "one", FullName: "a/one"},
		{Rank: 2, Owner: "a", Name: "two", FullName: "a/two"},
		{Rank: 3, Owner: "a", Name: "three", FullName: "a/three"},
	}
	out := testClient(srv, "").EnrichAll(context.Background(), scraped)

	if len(out) != 3 {
		t.Fatalf("expected 3 repos, got %d", len(out))
	}
	for i, repo := range out {
		if repo.FullName != scraped[i].FullName {
			t.Fatalf("order not preserved at %d: %s", i, repo.FullName)
		}
		if repo.GitHubID == nil {
			t.Fatalf("repo %s not enriched", repo.FullName)
		}
	}
}
