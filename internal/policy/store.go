package policy

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Names of the policy documents in the policies table.
const (
	nameTitleFilter = "title_filter"
	nameTechnology  = "technology"
	nameStopList    = "stop_list"
	nameProfile     = "candidate_profile"
)

// ErrNotConfigured is returned by Store when a policy document is absent.
// Callers (the Cached adapter) substitute permissive defaults.
var ErrNotConfigured = errors.New("policy not configured")

// Store reads policy documents from the policies table. Each policy is a
// single JSONB document keyed by name; the settings service owns writes.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore returns a Store backed by the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// TitleFilter loads the title filter policy.
func (s *Store) TitleFilter(ctx context.Context) (TitleFilterPolicy, error) {
	var p TitleFilterPolicy
	err := s.load(ctx, nameTitleFilter, &p)
	return p, err
}

// Technology loads the technology scoring policy.
func (s *Store) Technology(ctx context.Context) (TechnologyPolicy, error) {
	var p TechnologyPolicy
	err := s.load(ctx, nameTechnology, &p)
	return p, err
}

// StopList loads the stop list.
func (s *Store) StopList(ctx context.Context) (StopList, error) {
	var p StopList
	err := s.load(ctx, nameStopList, &p)
	return p, err
}

// CandidateProfile loads the candidate profile.
func (s *Store) CandidateProfile(ctx context.Context) (CandidateProfile, error) {
	var p CandidateProfile
	err := s.load(ctx, nameProfile, &p)
	return p, err
}

func (s *Store) load(ctx context.Context, name string, out any) error {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM policies WHERE name = $1`,
		name,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return errors.Wrapf(ErrNotConfigured, "%s", name)
	}
	if err != nil {
		return errors.Wrapf(err, "load policy %s", name)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(err, "decode policy %s", name)
	}
	return nil
}
