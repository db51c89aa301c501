package trending

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/gitpulse/trend-watch/internal/models"
)

const baseURL = "https://github.com/trending"

// Since selects the trending time window.
type Since string

const (
	SinceDaily   Since = "daily"
	SinceWeekly  Since = "weekly"
	SinceMonthly Since = "monthly"
)

// Client scrapes the GitHub trending page. Trending has no API, so this
// parses the HTML the way the site renders it.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
	}
}

// Fetch returns trending repos, optionally filtered by language.
func (c *Client) Fetch(ctx context.Context, language string, since Since) ([]models.TrendingRepo, error) {
	if since == "" {
		since = SinceDaily
	}

	url := c.baseURL
	if language != "" {
		url += "/" + strings.ToLower(language)
	}
	url += "?since=" + string(since)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; trend-watch/1.0)")
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching trending page: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("trending page returned %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing trending page: %w", err)
	}
	return parseDocument(doc), nil
}

func parseDocument(doc *goquery.Document) []models.TrendingRepo {
	var repos []models.TrendingRepo

	doc.Find("article.Box-row").Each(func(_ int, article *goquery.Selection) {
		href, ok := article.Find("h2 a").First().Attr("href")
		if !ok {
			return
		}
		parts := strings.Split(strings.Trim(href, "/"), "/")
		if len(parts) < 2 {
			return
		}
		owner, name := parts[0], parts[1]

		repo := models.TrendingRepo{
			Rank:     len(repos) + 1,
			Owner:    owner,
			Name:     name,
			FullName: owner + "/" + name,
			URL:      "https://github.com/" + owner + "/" + name,
		}

		if desc := strings.TrimSpace(article.Find("p").First().Text()); desc != "" {
			repo.Description = &desc
		}
		if lang := strings.TrimSpace(article.Find(`[itemprop="programmingLanguage"]`).First().Text()); lang != "" {
			repo.Language = &lang
		}
		repo.Stars = parseNumber(article.Find(`a[href$="/stargazers"]`).First().Text())
		repo.Forks = parseNumber(article.Find(`a[href$="/forks"]`).First().Text())
		repo.StarsToday = parseStarsToday(article.Find("span.d-inline-block.float-sm-right").First().Text())

		repos = append(repos, repo)
	})

	return repos
}

var (
	nonDigits     = regexp.MustCompile(`[^\d]`)
	starsTodayPat = regexp.MustCompile(`([\d,]+)\s*stars?\s*today`)
)

func parseNumber(text string) int {
	cleaned := nonDigits.ReplaceAllString(strings.TrimSpace(text), "")
	if cleaned == "" {
		return 0
	}
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0
	}
	return n
}

func parseStarsToday(text string) int {
	m := starsTodayPat.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0
	}
	return n
}
