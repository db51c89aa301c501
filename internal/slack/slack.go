package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gitpulse/trend-watch/internal/models"
)

const postMessageURL = "https://slack.com/api/chat.postMessage"

// Notifier posts Block Kit messages to a Slack channel via
// chat.postMessage. It satisfies match.Notifier.
type Notifier struct {
	token     string
	channelID string
	apiURL    string

	httpClient *http.Client
}

func NewNotifier(token, channelID string) *Notifier {
	return &Notifier{
		token:      token,
		channelID:  channelID,
		apiURL:     postMessageURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *Notifier) IsConfigured() bool {
	return n.token != "" && n.channelID != ""
}

// NotifyRecommendations sends one message for the whole batch. Returns
// false when unconfigured or delivery fails; the caller treats that as
// "not notified", never as a pipeline fault.
func (n *Notifier) NotifyRecommendations(ctx context.Context, recs []models.Recommendation, threshold float64, digest *models.TrendingDigest) bool {
	if len(recs) == 0 {
		return false
	}

	fallback := fmt.Sprintf("Found %d recommendation(s) with score >= %.0f%%", len(recs), threshold*100)
	return n.send(ctx, fallback, recommendationBlocks(recs, threshold, digest))
}

func (n *Notifier) send(ctx context.Context, text string, blocks []map[string]any) bool {
	if !n.IsConfigured() {
		return false
	}

	payload := map[string]any{
		"channel": n.channelID,
		"text":    text,
	}
	if len(blocks) > 0 {
		payload["blocks"] = blocks
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.apiURL, bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+n.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false
	}
	return result.OK
}

const maxListedRecs = 5

func recommendationBlocks(recs []models.Recommendation, threshold float64, digest *models.TrendingDigest) []map[string]any {
	blocks := []map[string]any{
		header("GitHub Trending: New Recommendations"),
	}

	if digest != nil {
		lang := "All Languages"
		if digest.Language != nil {
			lang = *digest.Language
		}
		blocks = append(blocks,
			section(fmt.Sprintf("*Trending Today* (%s): %d repositories analyzed", lang, digest.TotalRepos)),
			divider(),
		)
	}

	blocks = append(blocks, section(fmt.Sprintf(
		"*%d recommendation(s)* above threshold (%.0f%%)", len(recs), threshold*100)))

	for _, rec := range recs[:min(len(recs), maxListedRecs)] {
		text := fmt.Sprintf("*<https://github.com/%s|%s>* (%d stars)\nScore: *%.0f%%* | For: _%s_",
			rec.FullName, rec.FullName, rec.Stars, rec.Score*100, rec.ProjectName)
		if len(rec.Reasons) > 0 {
			text += "\n>" + rec.Reasons[0].Text
		}
		blocks = append(blocks, section(text))
	}

	if len(recs) > maxListedRecs {
		blocks = append(blocks, contextBlock(fmt.Sprintf("_...and %d more_", len(recs)-maxListedRecs)))
	}

	blocks = append(blocks, divider(), contextBlock("View all: `trend-watch recommendations`"))
	return blocks
}

func header(text string) map[string]any {
	return map[string]any{
		"type": "header",
		"text": map[string]any{"type": "plain_text", "text": text, "emoji": true},
	}
}

func section(text string) map[string]any {
	return map[string]any{
		"type": "section",
		"text": map[string]any{"type": "mrkdwn", "text": text},
	}
}

func divider() map[string]any {
	return map[string]any{"type": "divider"}
}

func contextBlock(text string) map[string]any {
	return map[string]any{
		"type":     "context",
		"elements": []map[string]any{{"type": "mrkdwn", "text": text}},
	}
}
