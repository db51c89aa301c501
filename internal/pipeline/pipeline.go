package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/gitpulse/trend-watch/internal/config"
	"github.com/gitpulse/trend-watch/internal/embedding"
	"github.com/gitpulse/trend-watch/internal/github"
	"github.com/gitpulse/trend-watch/internal/llm"
	"github.com/gitpulse/trend-watch/internal/match"
	"github.com/gitpulse/trend-watch/internal/models"
	"github.com/gitpulse/trend-watch/internal/postgres"
	"github.com/gitpulse/trend-watch/internal/slack"
	"github.com/gitpulse/trend-watch/internal/trending"
)

type Options struct {
	Language       string
	Since          trending.Since
	Limit          int
	SkipAnalyze    bool
	MinStars       int
	Notify         bool
	ScoreThreshold float64
}

// Run is the full collection cycle: scrape trending, enrich via the
// GitHub API, score with the LLM (or the heuristic baseline), save a
// snapshot, then run the matching pipeline against registered projects.
func Run(ctx context.Context, cfg *config.Config, opts Options) error {
	fmt.Println("Connecting to Postgres...")
	store, err := postgres.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.InitSchema(ctx, cfg.EmbeddingDim); err != nil {
		return err
	}

	// Step 1: scrape trending
	fmt.Println("Fetching trending repositories...")
	scraped, err := trending.NewClient().Fetch(ctx, opts.Language, opts.Since)
	if err != nil {
		return fmt.Errorf("fetching trending: %w", err)
	}
	if len(scraped) == 0 {
		return fmt.Errorf("no trending repositories found")
	}
	if opts.Limit > 0 && len(scraped) > opts.Limit {
		scraped = scraped[:opts.Limit]
	}
	fmt.Printf("Found %d trending repos\n", len(scraped))

	// Step 2: enrich via GitHub API
	fmt.Println("Enriching with GitHub API data...")
	enriched := github.NewClient(cfg.GitHubToken).EnrichAll(ctx, scraped)

	// Step 3: analyze
	analyzed := analyzeAll(ctx, cfg, enriched, opts.SkipAnalyze)

	// Step 4: save snapshot
	var language *string
	if opts.Language != "" {
		language = &opts.Language
	}
	since := string(opts.Since)
	if since == "" {
		since = string(trending.SinceDaily)
	}
	modelUsed := ""
	if !opts.SkipAnalyze {
		modelUsed = cfg.LLMModel
	}
	snapshotID, err := store.SaveSnapshot(ctx, analyzed, language, since, modelUsed)
	if err != nil {
		return err
	}
	fmt.Printf("Saved snapshot %s\n", snapshotID)

	// Step 5: match against projects
	fmt.Println("Running matching pipeline...")
	embClient := embedding.NewClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel)
	notifier := slack.NewNotifier(cfg.SlackBotToken, cfg.SlackChannelID)
	matcher := match.New(store, embClient, notifier)

	digest := &models.TrendingDigest{
		Language:   language,
		TotalRepos: len(scraped),
		TopRepos:   scraped[:min(len(scraped), 5)],
	}
	summary, err := matcher.RunFullPipeline(ctx, match.Options{
		MinStars:       opts.MinStars,
		Notify:         opts.Notify,
		ScoreThreshold: opts.ScoreThreshold,
		Digest:         digest,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Embedded %d repos, %d projects\n", summary.ReposEmbedded, summary.ProjectsEmbedded)
	fmt.Printf("Generated %d recommendations across %d projects\n", summary.TotalRecommendations, summary.ProjectsMatched)
	if opts.Notify {
		if summary.NotifiedCount > 0 {
			fmt.Printf("Sent Slack notification for %d high-score matches\n", summary.NotifiedCount)
		} else {
			fmt.Printf("No recommendations above threshold (%.2f), no notification sent\n", opts.ScoreThreshold)
		}
	}

	fmt.Println("Sync complete!")
	return nil
}

const analyzeConcurrency = 5

// analyzeAll scores every repo. With skipAI the heuristic baseline is
// used directly; otherwise the LLM is called with a bounded fan-out and
// per-repo failures degrade to the baseline instead of failing the run.
func analyzeAll(ctx context.Context, cfg *config.Config, repos []models.Repo, skipAI bool) []models.AnalyzedRepo {
	analyzed := make([]models.AnalyzedRepo, len(repos))

	if skipAI {
		fmt.Println("Scoring with heuristics (--skip-analyze)")
		for i, repo := range repos {
			analyzed[i] = models.AnalyzedRepo{Repo: repo, Analysis: llm.Baseline(repo)}
		}
		return analyzed
	}

	fmt.Printf("Analyzing %d repos with AI...\n", len(repos))
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)

	var done atomic.Int64
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(analyzeConcurrency)

	for i, repo := range repos {
		i, repo := i, repo
		g.Go(func() error {
			analysis, err := llmClient.Analyze(gCtx, repo)
			if err != nil {
				fmt.Printf("  WARN: %v\n", err)
				fallback := llm.FallbackAnalysis(repo)
				analysis = &fallback
			}
			analyzed[i] = models.AnalyzedRepo{Repo: repo, Analysis: *analysis}

			n := done.Add(1)
			if n%10 == 0 || int(n) == len(repos) {
				fmt.Printf("  Analyzed %d/%d\n", n, len(repos))
			}
			return nil
		})
	}
	_ = g.Wait()

	return analyzed
}
