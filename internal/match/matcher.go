package match

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/gitpulse/trend-watch/internal/models"
)

// Embedder turns a text summary into a fixed-length vector.
type Embedder interface {
	EmbedSingle(ctx context.Context, text string) ([]float32, error)
}

// Store is the slice of the persistence layer matching needs. The concrete
// implementation lives in internal/postgres.
type Store interface {
	GetProject(ctx context.Context, id string) (*models.Project, error)
	GetProjects(ctx context.Context) ([]models.Project, error)
	FindSimilarRepos(ctx context.Context, projectID string, limit, minStars int) ([]models.SimilarRepo, error)
	GetRepoMetadata(ctx context.Context, repoIDs []string) (map[string]models.RepoMetadata, error)
	UpsertRecommendation(ctx context.Context, rec models.Recommendation) error
	GetReposWithoutEmbedding(ctx context.Context, limit int) ([]models.RepoDoc, error)
	UpdateRepoEmbedding(ctx context.Context, repoID string, embedding []float32) error
	GetProjectsWithoutEmbedding(ctx context.Context) ([]models.Project, error)
	UpdateProjectEmbedding(ctx context.Context, projectID string, embedding []float32) error
}

// Notifier pushes a batch of recommendations somewhere visible. The bool
// is delivery success; the matcher imposes no retry contract.
type Notifier interface {
	NotifyRecommendations(ctx context.Context, recs []models.Recommendation, threshold float64, digest *models.TrendingDigest) bool
}

// Score weights. Each sub-score is clamped to [0,1] before combination,
// so the composite always lands in [0,1].
const (
	weightSimilarity = 0.5
	weightOverlap    = 0.3
	weightQuality    = 0.2

	// Unscored repos default to the midpoint so they aren't penalized.
	defaultOverallScore = 50

	semanticReasonFloor = 0.7
	hotTodayFloor       = 100
)

// Matcher scores trending repos against registered projects.
type Matcher struct {
	store    Store
	embedder Embedder
	notifier Notifier
}

func New(store Store, embedder Embedder, notifier Notifier) *Matcher {
	return &Matcher{store: store, embedder: embedder, notifier: notifier}
}

// MatchProject produces ranked recommendations for one project. Candidates
// come from the vector search (already star-filtered); metadata is fetched
// in a single batched lookup. Every recommendation is upserted before the
// list is sorted and truncated. An unknown project id is a no-op, not an
// error.
func (m *Matcher) MatchProject(ctx context.Context, projectID string, minStars, limit int) ([]models.Recommendation, error) {
	project, err := m.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading project %s: %w", projectID, err)
	}
	if project == nil {
		return nil, nil
	}

	candidates, err := m.store.FindSimilarRepos(ctx, projectID, limit*2, minStars)
	if err != nil {
		return nil, fmt.Errorf("finding similar repos for %s: %w", project.Name, err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.RepositoryID)
	}
	meta, err := m.store.GetRepoMetadata(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading repo metadata: %w", err)
	}

	projectTerms := append(append([]string{}, project.TechStack...), project.Tags...)

	recs := make([]models.Recommendation, 0, len(candidates))
	for _, c := range candidates {
		md, ok := meta[c.RepositoryID]
		if !ok {
			// No metadata row means we can't score this candidate.
			continue
		}

		repoTerms := append([]string{}, md.Topics...)
		if md.Language != nil {
			repoTerms = append(repoTerms, *md.Language)
		}
		overlapScore, matched := Overlap(projectTerms, repoTerms)

		overall := defaultOverallScore
		if md.OverallScore != nil {
			overall = *md.OverallScore
		}
		quality := min(1.0, float64(overall)/100)

		sim := clamp01(c.Similarity)
		score := weightSimilarity*sim +
			weightOverlap*clamp01(overlapScore) +
			weightQuality*clamp01(quality)

		// Reasons are independent; zero or more may apply.
		var reasons []models.Reason
		if sim > semanticReasonFloor {
			reasons = append(reasons, models.Reason{Type: "semantic", Text: "Semantically similar to your project"})
		}
		if len(matched) > 0 {
			reasons = append(reasons, models.Reason{Type: "stack", Text: "Stack overlap: " + strings.Join(matched, ", ")})
		}
		if md.StarsToday > hotTodayFloor {
			reasons = append(reasons, models.Reason{Type: "trending", Text: fmt.Sprintf("Hot today: +%d stars", md.StarsToday)})
		}

		rec := models.Recommendation{
			ProjectID:           projectID,
			RepositoryID:        c.RepositoryID,
			FullName:            c.FullName,
			Score:               score,
			Reasons:             reasons,
			EmbeddingSimilarity: sim,
			StackOverlapScore:   overlapScore,
			Stars:               md.Stars,
		}
		if err := m.store.UpsertRecommendation(ctx, rec); err != nil {
			return nil, fmt.Errorf("saving recommendation for %s: %w", c.FullName, err)
		}
		recs = append(recs, rec)
	}

	// Stable sort: ties keep candidate order. Truncate only after all
	// candidates are scored.
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
