package match

import (
	"context"
	"fmt"

	"github.com/gitpulse/trend-watch/internal/embedding"
	"github.com/gitpulse/trend-watch/internal/models"
)

const (
	defaultMatchLimit  = 20
	embedBackfillLimit = 50
)

// Options configures one full matching run.
type Options struct {
	MinStars       int
	Limit          int
	Notify         bool
	ScoreThreshold float64
	Digest         *models.TrendingDigest
}

func (o Options) matchLimit() int {
	if o.Limit <= 0 {
		return defaultMatchLimit
	}
	return o.Limit
}

// Summary reports what one full matching run did.
type Summary struct {
	ReposEmbedded        int
	ProjectsEmbedded     int
	ProjectsMatched      int
	TotalRecommendations int
	NotifiedCount        int
}

// EmbedNewRepos backfills embeddings for repos lacking one. A failure on
// one repo is skipped; it stays unembedded and is retried next run.
func (m *Matcher) EmbedNewRepos(ctx context.Context, limit int) (int, error) {
	docs, err := m.store.GetReposWithoutEmbedding(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("loading repos without embedding: %w", err)
	}

	count := 0
	for _, doc := range docs {
		vec, err := m.embedder.EmbedSingle(ctx, embedding.RepoText(doc))
		if err != nil {
			fmt.Printf("  WARN: embedding %s: %v\n", doc.FullName, err)
			continue
		}
		if err := m.store.UpdateRepoEmbedding(ctx, doc.ID, vec); err != nil {
			fmt.Printf("  WARN: storing embedding for %s: %v\n", doc.FullName, err)
			continue
		}
		count++
	}
	return count, nil
}

// EmbedNewProjects backfills embeddings for projects lacking one, with the
// same skip-and-continue semantics as EmbedNewRepos.
func (m *Matcher) EmbedNewProjects(ctx context.Context) (int, error) {
	projects, err := m.store.GetProjectsWithoutEmbedding(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading projects without embedding: %w", err)
	}

	count := 0
	for _, p := range projects {
		vec, err := m.embedder.EmbedSingle(ctx, embedding.ProjectText(p))
		if err != nil {
			fmt.Printf("  WARN: embedding project %s: %v\n", p.Name, err)
			continue
		}
		if err := m.store.UpdateProjectEmbedding(ctx, p.ID, vec); err != nil {
			fmt.Printf("  WARN: storing embedding for project %s: %v\n", p.Name, err)
			continue
		}
		count++
	}
	return count, nil
}

// RunFullPipeline backfills embeddings, matches every active project, and
// optionally sends a single notification for everything at or above the
// score threshold.
func (m *Matcher) RunFullPipeline(ctx context.Context, opts Options) (*Summary, error) {
	reposEmbedded, err := m.EmbedNewRepos(ctx, embedBackfillLimit)
	if err != nil {
		return nil, err
	}
	projectsEmbedded, err := m.EmbedNewProjects(ctx)
	if err != nil {
		return nil, err
	}

	projects, err := m.store.GetProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading projects: %w", err)
	}

	sum := &Summary{
		ReposEmbedded:    reposEmbedded,
		ProjectsEmbedded: projectsEmbedded,
		ProjectsMatched:  len(projects),
	}

	var all []models.Recommendation
	for _, project := range projects {
		recs, err := m.MatchProject(ctx, project.ID, opts.MinStars, opts.matchLimit())
		if err != nil {
			return nil, fmt.Errorf("matching project %s: %w", project.Name, err)
		}
		for i := range recs {
			recs[i].ProjectName = project.Name
		}
		all = append(all, recs...)
	}
	sum.TotalRecommendations = len(all)

	if opts.Notify && m.notifier != nil {
		var high []models.Recommendation
		for _, r := range all {
			if r.Score >= opts.ScoreThreshold {
				high = append(high, r)
			}
		}
		// One notification for the whole set, and none when empty.
		if len(high) > 0 && m.notifier.NotifyRecommendations(ctx, high, opts.ScoreThreshold, opts.Digest) {
			sum.NotifiedCount = len(high)
		}
	}

	return sum, nil
}
