package match

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Jdubz/job-finder-worker-sub014/internal/logger"
)

// ErrNotFound is returned when no match holds the requested key.
var ErrNotFound = errors.New("job match not found")

// Store persists finalized matches in the job_matches table.
type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// NewStore returns a Store backed by the given pool.
func NewStore(pool *pgxpool.Pool, log *zap.Logger) *Store {
	return &Store{pool: pool, log: log}
}

// InsertIfAbsent persists a match unless one already holds the same
// normalized URL. This is the store-level conditional write backing the
// save checkpoint: on a duplicate no second record is created and the
// existing record's ID is returned with created == false.
func (s *Store) InsertIfAbsent(ctx context.Context, r Record) (id string, created bool, err error) {
	scoringJSON, err := json.Marshal(r.Scoring)
	if err != nil {
		return "", false, errors.Wrap(err, "encode scoring result")
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO job_matches
		   (url, normalized_url, company_name, company_id, job_title, match_score,
		    scoring_result, matched_skills, missing_skills, match_reasons,
		    potential_concerns, location, description, enrichment, queue_item_id)
		 SELECT $1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9, $10, $11, $12, $13, $14::jsonb, $15
		 WHERE NOT EXISTS (
		   SELECT 1 FROM job_matches WHERE normalized_url = $2
		 )
		 RETURNING id`,
		r.URL, r.NormalizedURL, r.CompanyName, r.CompanyID, r.JobTitle, r.MatchScore,
		string(scoringJSON), r.MatchedSkills, r.MissingSkills, r.MatchReasons,
		r.PotentialConcerns, r.Location, r.Description, nullableJSON(r.Enrichment), r.QueueItemID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		existing, findErr := s.FindByNormalizedURL(ctx, r.NormalizedURL)
		if findErr != nil {
			return "", false, errors.Wrap(findErr, "resolve duplicate match")
		}
		return existing, false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "insert job match")
	}

	s.log.Info("job match created",
		logger.Category(logger.CategoryCreate),
		zap.String("match_id", id),
		zap.String("normalized_url", r.NormalizedURL),
		zap.Int("score", r.MatchScore),
	)
	return id, true, nil
}

// FindByNormalizedURL returns the ID of the match holding the dedup key,
// or ErrNotFound.
func (s *Store) FindByNormalizedURL(ctx context.Context, normalizedURL string) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM job_matches WHERE normalized_url = $1`,
		normalizedURL,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, "find match by normalized url")
	}
	return id, nil
}

// ListAll loads every match with the fields the conflict resolver needs.
func (s *Store) ListAll(ctx context.Context) ([]Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, url, normalized_url, company_name, company_id, job_title,
		        match_score, matched_skills, match_reasons, location, description,
		        enrichment, updated_at
		 FROM job_matches
		 ORDER BY normalized_url, updated_at DESC`,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list job matches")
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(
			&r.ID, &r.URL, &r.NormalizedURL, &r.CompanyName, &r.CompanyID, &r.JobTitle,
			&r.MatchScore, &r.MatchedSkills, &r.MatchReasons, &r.Location, &r.Description,
			&r.Enrichment, &r.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan job match")
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Delete removes a match by ID. Used exclusively by the conflict resolver.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM job_matches WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete job match")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableJSON(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	s := string(raw)
	return &s
}
