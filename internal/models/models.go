package models

import "time"

// TrendingRepo is one row scraped from the trending page.
type TrendingRepo struct {
	Rank        int     `json:"rank"`
	Owner       string  `json:"owner"`
	Name        string  `json:"name"`
	FullName    string  `json:"full_name"`
	URL         string  `json:"url"`
	Description *string `json:"description"`
	Language    *string `json:"language"`
	Stars       int     `json:"stars"`
	StarsToday  int     `json:"stars_today"`
	Forks       int     `json:"forks"`
}

// Repo is a trending repo after GitHub API enrichment. Fields beyond the
// embedded TrendingRepo stay at their zero values when enrichment fails.
type Repo struct {
	TrendingRepo

	GitHubID      *int64     `json:"github_id"`
	OpenIssues    int        `json:"open_issues"`
	Watchers      int        `json:"watchers"`
	License       *string    `json:"license"`
	Topics        []string   `json:"topics"`
	HasWiki       bool       `json:"has_wiki"`
	Archived      bool       `json:"archived"`
	CreatedAt     *time.Time `json:"created_at"`
	PushedAt      *time.Time `json:"pushed_at"`
	DaysSincePush *int       `json:"days_since_push"`
	IsActive      bool       `json:"is_active"`
}

// Analysis holds the 0-100 quality scores and LLM commentary for a repo.
type Analysis struct {
	HealthScore        int      `json:"health_score"`
	ActivityScore      int      `json:"activity_score"`
	CommunityScore     int      `json:"community_score"`
	DocumentationScore int      `json:"documentation_score"`
	OverallScore       int      `json:"overall_score"`
	Summary            *string  `json:"summary"`
	UseCases           []string `json:"use_cases"`
	IntegrationTips    *string  `json:"integration_tips"`
	PotentialRisks     []string `json:"potential_risks"`
}

// Project is a user-registered description of their own software, the
// query side of matching.
type Project struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   *string   `json:"description"`
	TechStack     []string  `json:"tech_stack"`
	Tags          []string  `json:"tags"`
	Goals         *string   `json:"goals"`
	ReadmeExcerpt *string   `json:"readme_excerpt"`
	Embedding     []float32 `json:"embedding"`
}

// Reason is one human-readable justification attached to a recommendation.
type Reason struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Recommendation is a scored, justified pairing of one project to one repo.
type Recommendation struct {
	ProjectID           string   `json:"project_id"`
	ProjectName         string   `json:"project_name"`
	RepositoryID        string   `json:"repository_id"`
	FullName            string   `json:"full_name"`
	Score               float64  `json:"score"`
	Reasons             []Reason `json:"reasons"`
	EmbeddingSimilarity float64  `json:"embedding_similarity"`
	StackOverlapScore   float64  `json:"stack_overlap_score"`
	Stars               int      `json:"stars"`
}

// AnalyzedRepo pairs an enriched repo with its quality analysis for
// storage in one snapshot.
type AnalyzedRepo struct {
	Repo     `json:"repo"`
	Analysis Analysis `json:"analysis"`
}

// RepoDoc is the text-bearing slice of a stored repo used to build its
// embedding input.
type RepoDoc struct {
	ID          string
	FullName    string
	Description *string
	Language    *string
	Topics      []string
	Summary     *string
}

// TrendingEntry is one historical trending observation for a repo.
type TrendingEntry struct {
	Rank        int       `json:"rank"`
	Stars       int       `json:"stars"`
	StarsToday  int       `json:"stars_today"`
	CollectedAt time.Time `json:"collected_at"`
}

// TrendingDigest summarizes one collection run for notification context.
type TrendingDigest struct {
	Language   *string        `json:"language"`
	TotalRepos int            `json:"total_repos"`
	TopRepos   []TrendingRepo `json:"top_repos"`
}

// SimilarRepo is one vector-search hit for a project.
type SimilarRepo struct {
	RepositoryID string  `json:"repository_id"`
	FullName     string  `json:"full_name"`
	Similarity   float64 `json:"similarity"`
}

// RepoMetadata is the per-candidate slice of repo state the composer
// scores against, fetched in one batched lookup.
type RepoMetadata struct {
	FullName     string
	Language     *string
	Topics       []string
	OverallScore *int
	Stars        int
	StarsToday   int
}
