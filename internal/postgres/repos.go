package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/gitpulse/trend-watch/internal/models"
)

// SaveSnapshot writes one collection run: a snapshot row, an upserted
// repository per repo, a trending entry per repo, and an analysis row
// when there is anything worth keeping.
func (s *Store) SaveSnapshot(ctx context.Context, repos []models.AnalyzedRepo, language *string, since string, modelUsed string) (string, error) {
	var snapshotID string
	err := s.pool.QueryRow(ctx,
		`INSERT INTO snapshots (language, since, repo_count) VALUES ($1, $2, $3) RETURNING id::text`,
		language, since, len(repos),
	).Scan(&snapshotID)
	if err != nil {
		return "", fmt.Errorf("inserting snapshot: %w", err)
	}

	for _, ar := range repos {
		repoID, err := s.upsertRepository(ctx, ar.Repo)
		if err != nil {
			return "", err
		}

		_, err = s.pool.Exec(ctx,
			`INSERT INTO trending_entries (snapshot_id, repository_id, rank, stars, stars_today, forks, is_active)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			snapshotID, repoID, ar.Rank, ar.Stars, ar.StarsToday, ar.Forks, ar.IsActive)
		if err != nil {
			return "", fmt.Errorf("inserting trending entry for %s: %w", ar.FullName, err)
		}

		if ar.Analysis.Summary != nil || ar.Analysis.OverallScore > 0 {
			if err := s.insertAnalysis(ctx, repoID, ar.Analysis, modelUsed); err != nil {
				return "", err
			}
		}
	}

	return snapshotID, nil
}

func (s *Store) upsertRepository(ctx context.Context, r models.Repo) (string, error) {
	topics := r.Topics
	if topics == nil {
		topics = []string{}
	}

	var firstSeen *time.Time
	if r.CreatedAt != nil {
		firstSeen = r.CreatedAt
	}

	var id string
	err := s.pool.QueryRow(ctx,
		`INSERT INTO repositories
		   (github_id, full_name, owner, name, url, description, language, license,
		    topics, stars, forks, open_issues, first_seen_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		 ON CONFLICT (full_name) DO UPDATE SET
		   github_id   = COALESCE(EXCLUDED.github_id, repositories.github_id),
		   description = COALESCE(EXCLUDED.description, repositories.description),
		   language    = COALESCE(EXCLUDED.language, repositories.language),
		   license     = COALESCE(EXCLUDED.license, repositories.license),
		   topics      = EXCLUDED.topics,
		   stars       = EXCLUDED.stars,
		   forks       = EXCLUDED.forks,
		   open_issues = EXCLUDED.open_issues,
		   updated_at  = NOW()
		 RETURNING id::text`,
		r.GitHubID, r.FullName, r.Owner, r.Name, r.URL, r.Description, r.Language,
		r.License, topics, r.Stars, r.Forks, r.OpenIssues, firstSeen,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upserting %s: %w", r.FullName, err)
	}
	return id, nil
}

func (s *Store) insertAnalysis(ctx context.Context, repoID string, a models.Analysis, modelUsed string) error {
	useCases := a.UseCases
	if useCases == nil {
		useCases = []string{}
	}
	risks := a.PotentialRisks
	if risks == nil {
		risks = []string{}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO analyses
		   (repository_id, health_score, activity_score, community_score,
		    documentation_score, overall_score, summary, use_cases,
		    integration_tips, potential_risks, model_used)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		repoID, a.HealthScore, a.ActivityScore, a.CommunityScore,
		a.DocumentationScore, a.OverallScore, a.Summary, useCases,
		a.IntegrationTips, risks, modelUsed)
	if err != nil {
		return fmt.Errorf("inserting analysis: %w", err)
	}
	return nil
}

// GetRepoHistory returns a repo's trending entries, newest first.
func (s *Store) GetRepoHistory(ctx context.Context, fullName string, limit int) ([]models.TrendingEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT t.rank, t.stars, t.stars_today, sn.collected_at
		 FROM trending_entries t
		 JOIN repositories r ON r.id = t.repository_id
		 JOIN snapshots sn ON sn.id = t.snapshot_id
		 WHERE r.full_name = $1
		 ORDER BY sn.collected_at DESC
		 LIMIT $2`,
		fullName, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history for %s: %w", fullName, err)
	}
	defer rows.Close()

	var entries []models.TrendingEntry
	for rows.Next() {
		var e models.TrendingEntry
		if err := rows.Scan(&e.Rank, &e.Stars, &e.StarsToday, &e.CollectedAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetReposWithoutEmbedding returns repos lacking a vector, joined with
// their latest analysis summary for richer embedding text.
func (s *Store) GetReposWithoutEmbedding(ctx context.Context, limit int) ([]models.RepoDoc, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT r.id::text, r.full_name, r.description, r.language, r.topics,
		        (SELECT a.summary FROM analyses a
		         WHERE a.repository_id = r.id
		         ORDER BY a.analyzed_at DESC LIMIT 1)
		 FROM repositories r
		 WHERE r.embedding IS NULL
		 ORDER BY r.updated_at DESC
		 LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("querying repos without embedding: %w", err)
	}
	defer rows.Close()

	var docs []models.RepoDoc
	for rows.Next() {
		var d models.RepoDoc
		if err := rows.Scan(&d.ID, &d.FullName, &d.Description, &d.Language, &d.Topics, &d.Summary); err != nil {
			return nil, fmt.Errorf("scanning repo doc: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *Store) UpdateRepoEmbedding(ctx context.Context, repoID string, embedding []float32) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE repositories SET embedding = $1, updated_at = NOW() WHERE id = $2`,
		pgvector.NewVector(embedding), repoID)
	if err != nil {
		return fmt.Errorf("updating embedding for repo %s: %w", repoID, err)
	}
	return nil
}

// FindSimilarRepos returns the nearest repos to a project's embedding,
// filtered to a minimum star count. Similarity is 1 - cosine distance.
func (s *Store) FindSimilarRepos(ctx context.Context, projectID string, limit, minStars int) ([]models.SimilarRepo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT r.id::text, r.full_name, 1 - (r.embedding <=> p.embedding) AS similarity
		 FROM repositories r, projects p
		 WHERE p.id = $1
		   AND p.embedding IS NOT NULL
		   AND r.embedding IS NOT NULL
		   AND r.stars >= $2
		 ORDER BY r.embedding <=> p.embedding
		 LIMIT $3`,
		projectID, minStars, limit)
	if err != nil {
		return nil, fmt.Errorf("searching similar repos: %w", err)
	}
	defer rows.Close()

	var similar []models.SimilarRepo
	for rows.Next() {
		var sr models.SimilarRepo
		if err := rows.Scan(&sr.RepositoryID, &sr.FullName, &sr.Similarity); err != nil {
			return nil, fmt.Errorf("scanning similarity row: %w", err)
		}
		similar = append(similar, sr)
	}
	return similar, rows.Err()
}

// GetRepoMetadata is the composer's single batched lookup: language,
// topics, latest overall score, latest stars-today, and stars per repo id.
func (s *Store) GetRepoMetadata(ctx context.Context, repoIDs []string) (map[string]models.RepoMetadata, error) {
	if len(repoIDs) == 0 {
		return map[string]models.RepoMetadata{}, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT r.id::text, r.full_name, r.language, r.topics, r.stars,
		        (SELECT a.overall_score FROM analyses a
		         WHERE a.repository_id = r.id
		         ORDER BY a.analyzed_at DESC LIMIT 1),
		        COALESCE((SELECT t.stars_today FROM trending_entries t
		                  WHERE t.repository_id = r.id
		                  ORDER BY t.created_at DESC LIMIT 1), 0)
		 FROM repositories r
		 WHERE r.id = ANY($1::uuid[])`,
		repoIDs)
	if err != nil {
		return nil, fmt.Errorf("querying repo metadata: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]models.RepoMetadata, len(repoIDs))
	for rows.Next() {
		var id string
		var md models.RepoMetadata
		if err := rows.Scan(&id, &md.FullName, &md.Language, &md.Topics, &md.Stars, &md.OverallScore, &md.StarsToday); err != nil {
			return nil, fmt.Errorf("scanning metadata row: %w", err)
		}
		meta[id] = md
	}
	return meta, rows.Err()
}
