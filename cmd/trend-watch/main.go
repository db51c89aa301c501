package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gitpulse/trend-watch/internal/config"
	"github.com/gitpulse/trend-watch/internal/embedding"
	"github.com/gitpulse/trend-watch/internal/match"
	"github.com/gitpulse/trend-watch/internal/models"
	"github.com/gitpulse/trend-watch/internal/pipeline"
	"github.com/gitpulse/trend-watch/internal/postgres"
	"github.com/gitpulse/trend-watch/internal/slack"
	"github.com/gitpulse/trend-watch/internal/trending"
)

func main() {
	root := &cobra.Command{
		Use:   "trend-watch",
		Short: "GitHub trending → Postgres with AI matching against your projects",
	}

	root.AddCommand(schemaCmd(), syncCmd(), trendingCmd(), matchCmd(),
		projectCmd(), recommendationsCmd(), historyCmd(), statsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (*postgres.Store, error) {
	store, err := postgres.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Initialize/update the Postgres schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg := config.Load()

			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.InitSchema(ctx, cfg.EmbeddingDim); err != nil {
				return err
			}
			fmt.Println("Schema initialized")
			return nil
		},
	}
}

func syncCmd() *cobra.Command {
	var (
		language       string
		since          string
		limit          int
		skipAnalyze    bool
		minStars       int
		notify         bool
		scoreThreshold float64
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch trending, enrich, analyze, store, and match",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if !cmd.Flags().Changed("score-threshold") {
				scoreThreshold = cfg.SlackScoreThreshold
			}
			return pipeline.Run(context.Background(), cfg, pipeline.Options{
				Language:       language,
				Since:          trending.Since(since),
				Limit:          limit,
				SkipAnalyze:    skipAnalyze,
				MinStars:       minStars,
				Notify:         notify,
				ScoreThreshold: scoreThreshold,
			})
		},
	}
	cmd.Flags().StringVarP(&language, "lang", "l", "", "Filter by programming language")
	cmd.Flags().StringVarP(&since, "since", "s", "daily", "Time range: daily, weekly, monthly")
	cmd.Flags().IntVarP(&limit, "limit", "n", 25, "Number of repositories to collect")
	cmd.Flags().BoolVar(&skipAnalyze, "skip-analyze", false, "Use heuristic scores only (no LLM calls)")
	cmd.Flags().IntVar(&minStars, "min-stars", 100, "Minimum stars filter for matching")
	cmd.Flags().BoolVar(&notify, "notify", false, "Send Slack notification for high-score matches")
	cmd.Flags().Float64Var(&scoreThreshold, "score-threshold", 0.7, "Minimum score for notification (0.0-1.0)")
	return cmd
}

func trendingCmd() *cobra.Command {
	var (
		language string
		since    string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "trending",
		Short: "Show trending repositories (no database writes)",
		RunE: func(cmd *cobra.Command, args []string) error {
			repos, err := trending.NewClient().Fetch(context.Background(), language, trending.Since(since))
			if err != nil {
				return err
			}
			if limit > 0 && len(repos) > limit {
				repos = repos[:limit]
			}

			for _, r := range repos {
				lang := "-"
				if r.Language != nil {
					lang = *r.Language
				}
				fmt.Printf("%2d. %-40s %-12s ★ %-8d +%d today\n", r.Rank, r.FullName, lang, r.Stars, r.StarsToday)
				if r.Description != nil {
					fmt.Printf("    %s\n", *r.Description)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&language, "lang", "l", "", "Filter by programming language")
	cmd.Flags().StringVarP(&since, "since", "s", "daily", "Time range: daily, weekly, monthly")
	cmd.Flags().IntVarP(&limit, "limit", "n", 25, "Number of repositories to show")
	return cmd
}

func matchCmd() *cobra.Command {
	var (
		projectID      string
		minStars       int
		limit          int
		notify         bool
		scoreThreshold float64
	)

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Find trending repos that match your projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg := config.Load()
			if !cmd.Flags().Changed("score-threshold") {
				scoreThreshold = cfg.SlackScoreThreshold
			}

			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			embClient := embedding.NewClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel)
			notifier := slack.NewNotifier(cfg.SlackBotToken, cfg.SlackChannelID)
			matcher := match.New(store, embClient, notifier)

			if projectID != "" {
				if _, err := matcher.EmbedNewRepos(ctx, 50); err != nil {
					return err
				}
				if _, err := matcher.EmbedNewProjects(ctx); err != nil {
					return err
				}
				recs, err := matcher.MatchProject(ctx, projectID, minStars, limit)
				if err != nil {
					return err
				}
				if len(recs) == 0 {
					fmt.Println("No matches found. Try lowering --min-stars")
					return nil
				}
				printRecommendations(recs)
				return nil
			}

			summary, err := matcher.RunFullPipeline(ctx, match.Options{
				MinStars:       minStars,
				Limit:          limit,
				Notify:         notify,
				ScoreThreshold: scoreThreshold,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Embedded %d repos, %d projects\n", summary.ReposEmbedded, summary.ProjectsEmbedded)
			fmt.Printf("Generated %d recommendations across %d projects\n", summary.TotalRecommendations, summary.ProjectsMatched)
			if notify {
				if summary.NotifiedCount > 0 {
					fmt.Printf("Sent Slack notification for %d high-score matches\n", summary.NotifiedCount)
				} else {
					fmt.Printf("No recommendations above threshold (%.2f), no notification sent\n", scoreThreshold)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "Match a single project by id")
	cmd.Flags().IntVar(&minStars, "min-stars", 100, "Minimum stars filter")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of matches per project")
	cmd.Flags().BoolVar(&notify, "notify", false, "Send Slack notification for high-score matches")
	cmd.Flags().Float64Var(&scoreThreshold, "score-threshold", 0.7, "Minimum score for notification (0.0-1.0)")
	return cmd
}

func projectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage registered projects",
	}
	cmd.AddCommand(projectAddCmd(), projectListCmd())
	return cmd
}

func projectAddCmd() *cobra.Command {
	var (
		name        string
		description string
		stack       string
		tags        string
		goals       string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new project for recommendations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg := config.Load()

			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.InitSchema(ctx, cfg.EmbeddingDim); err != nil {
				return err
			}

			p := models.Project{
				Name:      name,
				TechStack: splitList(stack),
				Tags:      splitList(tags),
			}
			if description != "" {
				p.Description = &description
			}
			if goals != "" {
				p.Goals = &goals
			}

			created, err := store.CreateProject(ctx, p)
			if err != nil {
				return err
			}
			fmt.Printf("Project %q created (id %s)\n", created.Name, created.ID)
			fmt.Println("Run `trend-watch match` to find matching trending repos.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Project name")
	cmd.Flags().StringVarP(&description, "desc", "d", "", "Project description")
	cmd.Flags().StringVarP(&stack, "stack", "s", "", "Comma-separated tech stack")
	cmd.Flags().StringVarP(&tags, "tags", "t", "", "Comma-separated tags")
	cmd.Flags().StringVarP(&goals, "goals", "g", "", "Project goals")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func projectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg := config.Load()

			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			projects, err := store.GetProjects(ctx)
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Println("No projects registered yet. Use `trend-watch project add`.")
				return nil
			}

			for _, p := range projects {
				fmt.Printf("%s  %s\n", p.ID[:8], p.Name)
				if len(p.TechStack) > 0 {
					fmt.Printf("          stack: %s\n", strings.Join(p.TechStack, ", "))
				}
				if len(p.Tags) > 0 {
					fmt.Printf("          tags:  %s\n", strings.Join(p.Tags, ", "))
				}
			}
			return nil
		},
	}
}

func recommendationsCmd() *cobra.Command {
	var (
		projectID string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "recommendations",
		Short: "Show stored recommendations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg := config.Load()

			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			recs, err := store.GetRecommendations(ctx, projectID, limit)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Println("No recommendations yet. Run `trend-watch match` first.")
				return nil
			}
			printRecommendations(recs)
			return nil
		},
	}
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "Filter by project id")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of recommendations")
	return cmd
}

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [owner/repo]",
		Short: "Show a repo's trending history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg := config.Load()

			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.GetRepoHistory(ctx, args[0], limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Printf("No history found for %s\n", args[0])
				return nil
			}

			for _, e := range entries {
				fmt.Printf("%s  rank %-3d ★ %-8d +%d today\n",
					e.CollectedAt.Format("2006-01-02"), e.Rank, e.Stars, e.StarsToday)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 30, "Number of entries to show")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show repo/project/recommendation counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg := config.Load()

			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.GetStats(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Repos:           %d\n", stats.Repos)
			fmt.Printf("Embedded:        %d\n", stats.Embedded)
			fmt.Printf("Analyzed:        %d\n", stats.Analyzed)
			fmt.Printf("Projects:        %d\n", stats.Projects)
			fmt.Printf("Recommendations: %d\n", stats.Recommendations)
			return nil
		},
	}
}

func printRecommendations(recs []models.Recommendation) {
	for _, r := range recs {
		label := r.FullName
		if r.ProjectName != "" {
			label = fmt.Sprintf("%s → %s", r.ProjectName, r.FullName)
		}
		fmt.Printf("%.2f  %-50s ★ %d\n", r.Score, label, r.Stars)
		for _, reason := range r.Reasons {
			fmt.Printf("      - %s\n", reason.Text)
		}
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
