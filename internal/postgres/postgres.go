package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

// Store persists repos, projects, snapshots and recommendations in
// Postgres with pgvector embeddings. It implements match.Store.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to Postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// InitSchema creates the extensions and tables. dim is the embedding
// dimension; changing it requires dropping the vector columns first.
func (s *Store) InitSchema(ctx context.Context, dim int) error {
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("creating vector extension: %w", err)
	}
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS pgcrypto"); err != nil {
		return fmt.Errorf("creating pgcrypto extension: %w", err)
	}

	schema := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS repositories (
  id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  github_id     BIGINT,
  full_name     TEXT NOT NULL UNIQUE,
  owner         TEXT NOT NULL,
  name          TEXT NOT NULL,
  url           TEXT NOT NULL,
  description   TEXT,
  language      TEXT,
  license       TEXT,
  topics        TEXT[] NOT NULL DEFAULT '{}',
  stars         INT NOT NULL DEFAULT 0,
  forks         INT NOT NULL DEFAULT 0,
  open_issues   INT NOT NULL DEFAULT 0,
  embedding     VECTOR(%[1]d),
  first_seen_at TIMESTAMPTZ,
  updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS snapshots (
  id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  language     TEXT,
  since        TEXT NOT NULL DEFAULT 'daily',
  repo_count   INT NOT NULL DEFAULT 0,
  collected_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS trending_entries (
  id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  snapshot_id   UUID NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
  repository_id UUID NOT NULL REFERENCES repositories(id) ON DELETE CASCADE,
  rank          INT NOT NULL,
  stars         INT NOT NULL DEFAULT 0,
  stars_today   INT NOT NULL DEFAULT 0,
  forks         INT NOT NULL DEFAULT 0,
  is_active     BOOLEAN NOT NULL DEFAULT TRUE,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS analyses (
  id                  UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  repository_id       UUID NOT NULL REFERENCES repositories(id) ON DELETE CASCADE,
  health_score        INT NOT NULL DEFAULT 0,
  activity_score      INT NOT NULL DEFAULT 0,
  community_score     INT NOT NULL DEFAULT 0,
  documentation_score INT NOT NULL DEFAULT 0,
  overall_score       INT NOT NULL DEFAULT 0,
  summary             TEXT,
  use_cases           TEXT[] NOT NULL DEFAULT '{}',
  integration_tips    TEXT,
  potential_risks     TEXT[] NOT NULL DEFAULT '{}',
  model_used          TEXT,
  analyzed_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS projects (
  id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  name           TEXT NOT NULL,
  description    TEXT,
  tech_stack     TEXT[] NOT NULL DEFAULT '{}',
  tags           TEXT[] NOT NULL DEFAULT '{}',
  goals          TEXT,
  readme_excerpt TEXT,
  embedding      VECTOR(%[1]d),
  is_active      BOOLEAN NOT NULL DEFAULT TRUE,
  created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS recommendations (
  id                   UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  project_id           UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
  repository_id        UUID NOT NULL REFERENCES repositories(id) ON DELETE CASCADE,
  score                DOUBLE PRECISION NOT NULL,
  reasons              JSONB NOT NULL DEFAULT '[]',
  embedding_similarity DOUBLE PRECISION,
  stack_overlap_score  DOUBLE PRECISION,
  created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  UNIQUE (project_id, repository_id)
);

CREATE INDEX IF NOT EXISTS idx_trending_entries_repo
  ON trending_entries (repository_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_analyses_repo
  ON analyses (repository_id, analyzed_at DESC);
`, dim)

	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}
