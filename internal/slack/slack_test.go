package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gitpulse/trend-watch/internal/models"
)

func sampleRecs(n int) []models.Recommendation {
	recs := make([]models.Recommendation, n)
	for i := range recs {
		recs[i] = models.Recommendation{
			ProjectName: "alpha",
			FullName:    "acme/widget",
			Score:       0.9,
			Stars:       1234,
			Reasons:     []models.Reason{{Type: "semantic", Text: "Semantically similar to your project"}},
		}
	}
	return recs
}

func TestNotifyRecommendationsPostsOnce(t *testing.T) {
	var calls int
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if got := r.Header.Get("Authorization"); got != "Bearer xoxb-test" {
			t.Fatalf("unexpected auth header: %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decoding payload: %v", err)
		}
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	n := NewNotifier("xoxb-test", "C123")
	n.apiURL = srv.URL

	ok := n.NotifyRecommendations(context.Background(), sampleRecs(7), 0.7, nil)
	if !ok {
		t.Fatal("expected delivery success")
	}
	if calls != 1 {
		t.Fatalf("expected exactly one API call for the batch, got %d", calls)
	}
	if payload["channel"] != "C123" {
		t.Fatalf("unexpected channel: %v", payload["channel"])
	}

	blocks, _ := json.Marshal(payload["blocks"])
	text := string(blocks)
	if !strings.Contains(text, "7 recommendation(s)") {
		t.Fatalf("summary line missing: %s", text)
	}
	if !strings.Contains(text, "...and 2 more") {
		t.Fatalf("overflow context missing: %s", text)
	}
	if !strings.Contains(text, "acme/widget") {
		t.Fatalf("repo link missing: %s", text)
	}
}

func TestNotifyRecommendationsIncludesDigest(t *testing.T) {
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&payload)
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	n := NewNotifier("xoxb-test", "C123")
	n.apiURL = srv.URL

	lang := "Go"
	digest := &models.TrendingDigest{Language: &lang, TotalRepos: 25}
	if !n.NotifyRecommendations(context.Background(), sampleRecs(1), 0.7, digest) {
		t.Fatal("expected delivery success")
	}

	blocks, _ := json.Marshal(payload["blocks"])
	if !strings.Contains(string(blocks), "*Trending Today* (Go): 25 repositories analyzed") {
		t.Fatalf("digest section missing: %s", blocks)
	}
}

func TestNotifyRecommendationsAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok": false, "error": "channel_not_found"}`))
	}))
	defer srv.Close()

	n := NewNotifier("xoxb-test", "C123")
	n.apiURL = srv.URL

	if n.NotifyRecommendations(context.Background(), sampleRecs(1), 0.7, nil) {
		t.Fatal("expected delivery failure when the API says ok=false")
	}
}

func TestNotifyUnconfigured(t *testing.T) {
	n := NewNotifier("", "")
	if n.IsConfigured() {
		t.Fatal("empty token/channel must not be configured")
	}
	if n.NotifyRecommendations(context.Background(), sampleRecs(1), 0.7, nil) {
		t.Fatal("unconfigured notifier must report failure without calling out")
	}
}

func TestNotifyEmptySet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no API call expected for an empty set")
	}))
	defer srv.Close()

	n := NewNotifier("xoxb-test", "C123")
	n.apiURL = srv.URL

	if n.NotifyRecommendations(context.Background(), nil, 0.7, nil) {
		t.Fatal("empty set must not notify")
	}
}
