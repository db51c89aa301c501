package github

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gitpulse/trend-watch/internal/models"
)

const (
	apiBase           = "https://api.github.com"
	enrichConcurrency = 5

	// Repos pushed within this window count as active.
	activeWindowDays = 30
)

// Client is a thin wrapper around the GitHub REST API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

func NewClient(token string) *Client {
	return &Client{
		token:      token,
		baseURL:    apiBase,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type repoResponse struct {
	ID               int64      `json:"id"`
	Description      *string    `json:"description"`
	Language         *string    `json:"language"`
	StargazersCount  int        `json:"stargazers_count"`
	ForksCount       int        `json:"forks_count"`
	OpenIssuesCount  int        `json:"open_issues_count"`
	SubscribersCount int        `json:"subscribers_count"`
	Topics           []string   `json:"topics"`
	HasWiki          bool       `json:"has_wiki"`
	Archived         bool       `json:"archived"`
	CreatedAt        *time.Time `json:"created_at"`
	PushedAt         *time.Time `json:"pushed_at"`
	License          *struct {
		SpdxID string `json:"spdx_id"`
	} `json:"license"`
}

// Enrich fetches repository detail for one scraped repo. A 404 or
// transport fault keeps the scraped data as-is; enrichment never fails
// the batch.
func (c *Client) Enrich(ctx context.Context, tr models.TrendingRepo) models.Repo {
	repo := models.Repo{TrendingRepo: tr, Topics: []string{}, IsActive: true}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/repos/"+tr.FullName, nil)
	if err != nil {
		return repo
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return repo
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return repo
	}

	var data repoResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return repo
	}

	repo.GitHubID = &data.ID
	if data.Description != nil {
		repo.Description = data.Description
	}
	if data.Language != nil {
		repo.Language = data.Language
	}
	if data.StargazersCount > 0 {
		repo.Stars = data.StargazersCount
	}
	if data.ForksCount > 0 {
		repo.Forks = data.ForksCount
	}
	repo.OpenIssues = data.OpenIssuesCount
	repo.Watchers = data.SubscribersCount
	if data.Topics != nil {
		repo.Topics = data.Topics
	}
	repo.HasWiki = data.HasWiki
	repo.Archived = data.Archived
	repo.CreatedAt = data.CreatedAt
	repo.PushedAt = data.PushedAt
	if data.License != nil && data.License.SpdxID != "" {
		license := data.License.SpdxID
		repo.License = &license
	}

	if data.PushedAt != nil {
		days := int(time.Since(*data.PushedAt).Hours() / 24)
		repo.DaysSincePush = &days
		repo.IsActive = days <= activeWindowDays
	}

	return repo
}

// EnrichAll enriches a batch of scraped repos with a bounded fan-out.
// Order is preserved; individual failures degrade to scraped data only.
func (c *Client) EnrichAll(ctx context.Context, scraped []models.TrendingRepo) []models.Repo {
	out := make([]models.Repo, len(scraped))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for i, tr := range scraped {
		i, tr := i, tr
		g.Go(func() error {
			out[i] = c.Enrich(gCtx, tr)
			return nil
		})
	}
	_ = g.Wait()

	return out
}
