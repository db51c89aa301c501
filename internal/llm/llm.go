package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/gitpulse/trend-watch/internal/models"
)

type Client struct {
	client *openai.Client
	model  string
}

func NewClient(baseURL, apiKey, model string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	return &Client{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

const systemPrompt = `You are a technical analyst. Given a GitHub repository's metadata, produce a JSON object with:

1. "health_score", "activity_score", "community_score", "documentation_score", "overall_score": integers 0-100.
2. "summary": 1-2 sentences on what the repo does and why it's trending.
3. "use_cases": array of up to 3 short use cases.
4. "integration_tips": one sentence on how a developer could integrate it.
5. "potential_risks": array of up to 2 short risks.

Be concise and practical. Return ONLY valid JSON. No markdown, no code fences.`

// analysisResponse uses pointers for the scores so fields the model
// omitted fall back to the heuristic baseline instead of zero.
type analysisResponse struct {
	HealthScore        *int     `json:"health_score"`
	ActivityScore      *int     `json:"activity_score"`
	CommunityScore     *int     `json:"community_score"`
	DocumentationScore *int     `json:"documentation_score"`
	OverallScore       *int     `json:"overall_score"`
	Summary            *string  `json:"summary"`
	UseCases           []string `json:"use_cases"`
	IntegrationTips    *string  `json:"integration_tips"`
	PotentialRisks     []string `json:"potential_risks"`
}

// Analyze scores one repo with the LLM. Score fields missing from the
// response are filled from Baseline; a failed call or unparseable response
// is an error, and the caller decides whether to fall back to Baseline.
func (c *Client) Analyze(ctx context.Context, repo models.Repo) (*models.Analysis, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: repoPrompt(repo)},
		},
		// The system prompt asks for pure JSON; json_object response
		// format is not supported on every backend.
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM call for %s: %w", repo.FullName, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned for %s", repo.FullName)
	}

	content := stripCodeFences(resp.Choices[0].Message.Content)

	var parsed analysisResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("parsing LLM response for %s: %w\nraw: %s", repo.FullName, err, content)
	}

	analysis := Baseline(repo)
	if parsed.HealthScore != nil {
		analysis.HealthScore = *parsed.HealthScore
	}
	if parsed.ActivityScore != nil {
		analysis.ActivityScore = *parsed.ActivityScore
	}
	if parsed.CommunityScore != nil {
		analysis.CommunityScore = *parsed.CommunityScore
	}
	if parsed.DocumentationScore != nil {
		analysis.DocumentationScore = *parsed.DocumentationScore
	}
	if parsed.OverallScore != nil {
		analysis.OverallScore = *parsed.OverallScore
	}
	if parsed.Summary != nil {
		analysis.Summary = parsed.Summary
	}
	analysis.UseCases = parsed.UseCases
	analysis.IntegrationTips = parsed.IntegrationTips
	analysis.PotentialRisks = parsed.PotentialRisks

	return &analysis, nil
}

func repoPrompt(repo models.Repo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Repository: %s\n", repo.FullName)
	if repo.Description != nil {
		fmt.Fprintf(&b, "Description: %s\n", *repo.Description)
	}
	if repo.Language != nil {
		fmt.Fprintf(&b, "Language: %s\n", *repo.Language)
	}
	fmt.Fprintf(&b, "Stars: %d (gained %d today)\n", repo.Stars, repo.StarsToday)
	fmt.Fprintf(&b, "Forks: %d\n", repo.Forks)
	fmt.Fprintf(&b, "Open Issues: %d\n", repo.OpenIssues)
	if repo.License != nil {
		fmt.Fprintf(&b, "License: %s\n", *repo.License)
	}
	if len(repo.Topics) > 0 {
		fmt.Fprintf(&b, "Topics: %s\n", strings.Join(repo.Topics, ", "))
	}
	if repo.DaysSincePush != nil {
		fmt.Fprintf(&b, "Days Since Last Push: %d\n", *repo.DaysSincePush)
	}
	fmt.Fprintf(&b, "Archived: %t\n", repo.Archived)
	return b.String()
}

// Baseline computes deterministic 0-100 scores from repo metadata alone.
// Used when AI analysis is skipped or fails.
func Baseline(repo models.Repo) models.Analysis {
	activity := 100
	if repo.DaysSincePush != nil {
		switch days := *repo.DaysSincePush; {
		case days > 365:
			activity = 10
		case days > 180:
			activity = 30
		case days > 90:
			activity = 50
		case days > 30:
			activity = 70
		}
	}
	if repo.Archived {
		activity = 0
	}

	community := min(100, repo.Stars/100+repo.Forks*2)

	health := (activity + community) / 2

	docs := 50
	if repo.Description != nil && len(*repo.Description) > 50 {
		docs = 70
	}
	if repo.HasWiki {
		docs += 15
	}
	docs = min(100, docs)

	overall := (health*3 + activity*2 + community*2 + docs) / 8

	return models.Analysis{
		HealthScore:        health,
		ActivityScore:      activity,
		CommunityScore:     community,
		DocumentationScore: docs,
		OverallScore:       overall,
	}
}

// FallbackAnalysis is Baseline plus a templated summary, used when the
// LLM call fails outright.
func FallbackAnalysis(repo models.Repo) models.Analysis {
	analysis := Baseline(repo)
	lang := ""
	if repo.Language != nil {
		lang = *repo.Language + " "
	}
	summary := fmt.Sprintf("Trending %srepository with %d stars.", lang, repo.Stars)
	analysis.Summary = &summary
	return analysis
}

// stripCodeFences removes markdown code fences that some models wrap around JSON.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		// Remove opening fence (```json or ```)
		if i := strings.Index(s, "\n"); i != -1 {
			s = s[i+1:]
		}
		// Remove closing fence
		if i := strings.LastIndex(s, "```"); i != -1 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
