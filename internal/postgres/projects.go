package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/gitpulse/trend-watch/internal/models"
)

// CreateProject registers a new project and returns it with its id set.
func (s *Store) CreateProject(ctx context.Context, p models.Project) (*models.Project, error) {
	techStack := p.TechStack
	if techStack == nil {
		techStack = []string{}
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO projects (name, description, tech_stack, tags, goals, readme_excerpt)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id::text`,
		p.Name, p.Description, techStack, tags, p.Goals, p.ReadmeExcerpt,
	).Scan(&p.ID)
	if err != nil {
		return nil, fmt.Errorf("creating project %s: %w", p.Name, err)
	}
	return &p, nil
}

// GetProject returns one project by id, or nil when it does not exist.
func (s *Store) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var p models.Project
	err := s.pool.QueryRow(ctx,
		`SELECT id::text, name, description, tech_stack, tags, goals, readme_excerpt
		 FROM projects WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.TechStack, &p.Tags, &p.Goals, &p.ReadmeExcerpt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying project %s: %w", id, err)
	}
	return &p, nil
}

// GetProjects returns all active projects, newest first.
func (s *Store) GetProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, name, description, tech_stack, tags, goals, readme_excerpt
		 FROM projects WHERE is_active ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	return scanProjects(rows)
}

// GetProjectsWithoutEmbedding returns active projects lacking a vector.
func (s *Store) GetProjectsWithoutEmbedding(ctx context.Context) ([]models.Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, name, description, tech_stack, tags, goals, readme_excerpt
		 FROM projects WHERE is_active AND embedding IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("querying projects without embedding: %w", err)
	}
	defer rows.Close()

	return scanProjects(rows)
}

func scanProjects(rows pgx.Rows) ([]models.Project, error) {
	var projects []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.TechStack, &p.Tags, &p.Goals, &p.ReadmeExcerpt); err != nil {
			return nil, fmt.Errorf("scanning project row: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *Store) UpdateProjectEmbedding(ctx context.Context, projectID string, embedding []float32) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE projects SET embedding = $1, updated_at = NOW() WHERE id = $2`,
		pgvector.NewVector(embedding), projectID)
	if err != nil {
		return fmt.Errorf("updating embedding for project %s: %w", projectID, err)
	}
	return nil
}

// UpsertRecommendation writes one (project, repository) recommendation;
// re-running matching overwrites the score and reasons for that pair.
func (s *Store) UpsertRecommendation(ctx context.Context, rec models.Recommendation) error {
	reasons := rec.Reasons
	if reasons == nil {
		reasons = []models.Reason{}
	}
	reasonsJSON, err := json.Marshal(reasons)
	if err != nil {
		return fmt.Errorf("marshaling reasons: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO recommendations
		   (project_id, repository_id, score, reasons, embedding_similarity, stack_overlap_score)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (project_id, repository_id) DO UPDATE SET
		   score                = EXCLUDED.score,
		   reasons              = EXCLUDED.reasons,
		   embedding_similarity = EXCLUDED.embedding_similarity,
		   stack_overlap_score  = EXCLUDED.stack_overlap_score,
		   updated_at           = NOW()`,
		rec.ProjectID, rec.RepositoryID, rec.Score, reasonsJSON,
		rec.EmbeddingSimilarity, rec.StackOverlapScore)
	if err != nil {
		return fmt.Errorf("upserting recommendation for %s: %w", rec.FullName, err)
	}
	return nil
}

// GetRecommendations lists stored recommendations, highest score first,
// optionally filtered to one project.
func (s *Store) GetRecommendations(ctx context.Context, projectID string, limit int) ([]models.Recommendation, error) {
	query := `SELECT rec.project_id::text, p.name, rec.repository_id::text, r.full_name,
	                 rec.score, rec.reasons, rec.embedding_similarity, rec.stack_overlap_score, r.stars
	          FROM recommendations rec
	          JOIN projects p ON p.id = rec.project_id
	          JOIN repositories r ON r.id = rec.repository_id`
	args := []any{}
	if projectID != "" {
		query += ` WHERE rec.project_id = $1 ORDER BY rec.score DESC LIMIT $2`
		args = append(args, projectID, limit)
	} else {
		query += ` ORDER BY rec.score DESC LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying recommendations: %w", err)
	}
	defer rows.Close()

	var recs []models.Recommendation
	for rows.Next() {
		var rec models.Recommendation
		var reasonsJSON []byte
		if err := rows.Scan(&rec.ProjectID, &rec.ProjectName, &rec.RepositoryID, &rec.FullName,
			&rec.Score, &reasonsJSON, &rec.EmbeddingSimilarity, &rec.StackOverlapScore, &rec.Stars); err != nil {
			return nil, fmt.Errorf("scanning recommendation row: %w", err)
		}
		if err := json.Unmarshal(reasonsJSON, &rec.Reasons); err != nil {
			return nil, fmt.Errorf("unmarshaling reasons: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Stats are the totals shown by the stats command.
type Stats struct {
	Repos           int
	Embedded        int
	Analyzed        int
	Projects        int
	Recommendations int
}

func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.pool.QueryRow(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM repositories),
		   (SELECT COUNT(*) FROM repositories WHERE embedding IS NOT NULL),
		   (SELECT COUNT(DISTINCT repository_id) FROM analyses),
		   (SELECT COUNT(*) FROM projects WHERE is_active),
		   (SELECT COUNT(*) FROM recommendations)`,
	).Scan(&st.Repos, &st.Embedded, &st.Analyzed, &st.Projects, &st.Recommendations)
	if err != nil {
		return nil, fmt.Errorf("getting stats: %w", err)
	}
	return &st, nil
}
