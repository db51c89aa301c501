package embedding

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/gitpulse/trend-watch/internal/models"
)

type Client struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewClient(baseURL, apiKey, model string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	return &Client{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.EmbeddingModel(model),
	}
}

const maxBatchSize = 256

func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += maxBatchSize {
		end := min(start+maxBatchSize, len(texts))
		batch := texts[start:end]

		resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: batch,
			Model: c.model,
		})
		if err != nil {
			return nil, fmt.Errorf("creating embeddings (batch %d-%d): %w", start, end, err)
		}

		for _, emb := range resp.Data {
			vectors[start+emb.Index] = emb.Embedding
		}
	}
	return vectors, nil
}

func (c *Client) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return vecs[0], nil
}

// RepoText builds the embedding input for a stored repo.
func RepoText(doc models.RepoDoc) string {
	parts := []string{"Repository: " + doc.FullName}
	if doc.Description != nil && *doc.Description != "" {
		parts = append(parts, "Description: "+*doc.Description)
	}
	if doc.Language != nil && *doc.Language != "" {
		parts = append(parts, "Language: "+*doc.Language)
	}
	if len(doc.Topics) > 0 {
		parts = append(parts, "Topics: "+strings.Join(doc.Topics, ", "))
	}
	if doc.Summary != nil && *doc.Summary != "" {
		parts = append(parts, "Summary: "+*doc.Summary)
	}
	return strings.Join(parts, "\n")
}

const maxReadmeExcerpt = 1000

// ProjectText builds the embedding input for a registered project.
func ProjectText(p models.Project) string {
	parts := []string{"Project: " + p.Name}
	if p.Description != nil && *p.Description != "" {
		parts = append(parts, "Description: "+*p.Description)
	}
	if len(p.TechStack) > 0 {
		parts = append(parts, "Tech Stack: "+strings.Join(p.TechStack, ", "))
	}
	if len(p.Tags) > 0 {
		parts = append(parts, "Tags: "+strings.Join(p.Tags, ", "))
	}
	if p.Goals != nil && *p.Goals != "" {
		parts = append(parts, "Goals: "+*p.Goals)
	}
	if p.ReadmeExcerpt != nil && *p.ReadmeExcerpt != "" {
		excerpt := *p.ReadmeExcerpt
		if len(excerpt) > maxReadmeExcerpt {
			excerpt = excerpt[:maxReadmeExcerpt]
		}
		parts = append(parts, "Details: "+excerpt)
	}
	return strings.Join(parts, "\n")
}
