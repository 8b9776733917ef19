// Package company persists company records created by company-type queue
// items and referenced by job matches.
package company

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jdubz/job-finder-worker-sub014/internal/model"
)

// Store persists companies keyed by lowercased name.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore returns a Store backed by the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Upsert creates or refreshes a company record, returning its ID. Existing
// fields are only overwritten by non-empty incoming values.
func (s *Store) Upsert(ctx context.Context, info model.CompanyInfo) (string, error) {
	if info.Name == "" {
		return "", errors.New("company name is required")
	}

	var id string
	err := s.pool.QueryRow(ctx,
		`INSERT INTO companies (name, domain, size, about, careers_url)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (lower(name)) DO UPDATE
		 SET domain      = COALESCE(NULLIF(EXCLUDED.domain, ''), companies.domain),
		     size        = COALESCE(NULLIF(EXCLUDED.size, ''), companies.size),
		     about       = COALESCE(NULLIF(EXCLUDED.about, ''), companies.about),
		     careers_url = COALESCE(NULLIF(EXCLUDED.careers_url, ''), companies.careers_url),
		     updated_at  = NOW()
		 RETURNING id`,
		info.Name, info.Domain, info.Size, info.About, info.Careers,
	).Scan(&id)
	if err != nil {
		return "", errors.Wrap(err, "upsert company")
	}
	return id, nil
}

// FindByName returns the company ID and size for a name. An unknown
// company is a clean miss (empty ID, nil error); a failed read is an error.
func (s *Store) FindByName(ctx context.Context, name string) (string, string, error) {
	var id, size string
	err := s.pool.QueryRow(ctx,
		`SELECT id, COALESCE(size, '') FROM companies WHERE lower(name) = lower($1)`,
		name,
	).Scan(&id, &size)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", nil
	}
	if err != nil {
		return "", "", errors.Wrap(err, "find company by name")
	}
	return id, size, nil
}
