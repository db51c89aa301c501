package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gitpulse/trend-watch/internal/models"
)

func TestRepoText(t *testing.T) {
	desc := "A fast HTTP router"
	lang := "Go"
	summary := "Minimal router with zero allocations."
	doc := models.RepoDoc{
		FullName:    "acme/router",
		Description: &desc,
		Language:    &lang,
		Topics:      []string{"http", "router"},
		Summary:     &summary,
	}

	got := RepoText(doc)
	want := strings.Join([]string{
		"Repository: acme/router",
		"Description: A fast HTTP router",
		"Language: Go",
		"Topics: http, router",
		"Summary: Minimal router with zero allocations.",
	}, "\n")
	if got != want {
		t.Fatalf("unexpected repo text:\n%s", got)
	}
}

func TestRepoTextSparse(t *testing.T) {
	got := RepoText(models.RepoDoc{FullName: "acme/bare"})
	if got != "Repository: acme/bare" {
		t.Fatalf("sparse repo text must omit empty sections: %q", got)
	}
}

func TestProjectTextTruncatesReadme(t *testing.T) {
	long := strings.Repeat("x", 5000)
	p := models.Project{
		Name:          "my-api",
		TechStack:     []string{"go", "postgres"},
		ReadmeExcerpt: &long,
	}

	got := ProjectText(p)
	if !strings.HasPrefix(got, "Project: my-api\nTech Stack: go, postgres\nDetails: ") {
		t.Fatalf("unexpected project text prefix:\n%s", got)
	}
	if len(got) > len("Project: my-api\nTech Stack: go, postgres\nDetails: ")+maxReadmeExcerpt {
		t.Fatalf("readme excerpt not truncated: %d chars", len(got))
	}
}

func TestEmbedSingle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		resp := map[string]any{
			"data": []map[string]any{
				{"index": 0, "embedding": []float32{0.25, -0.5}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "test-embed")
	vec, err := c.EmbedSingle(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 2 || vec[0] != 0.25 || vec[1] != -0.5 {
		t.Fatalf("unexpected vector: %v", vec)
	}
}

func TestEmbedEmptyInput(t *testing.T) {
	c := NewClient("http://unused", "key", "test-embed")
	vecs, err := c.Embed(context.Background(), nil)
	if err != nil || vecs != nil {
		t.Fatalf("empty input must be a no-op, got (%v, %v)", vecs, err)
	}
}
