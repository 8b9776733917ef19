package queue

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Jdubz/job-finder-worker-sub014/internal/logger"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when an item is missing.
	ErrNotFound = errors.New("queue item not found")
	// ErrInvalidTransition is returned when a status write conflicts with
	// the state machine (e.g. the item is no longer PROCESSING).
	ErrInvalidTransition = errors.New("transition not allowed")
	// ErrRetriesExhausted is returned by Requeue once retry_count has
	// reached max_retries.
	ErrRetriesExhausted = errors.New("max retries reached")
)

const itemColumns = `id, type, status, url, normalized_url, company_name, source,
	submitted_by, retry_count, max_retries, raw_data,
	created_at, updated_at, processed_at, completed_at,
	result_message, error_details`

// Store persists queue items in the queue_items table. All status writes
// also bump updated_at; terminal writes set completed_at.
type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// NewStore returns a Store backed by the given pool.
func NewStore(pool *pgxpool.Pool, log *zap.Logger) *Store {
	return &Store{pool: pool, log: log}
}

// Enqueue inserts a new PENDING item unless a non-FAILED item with the same
// normalized URL already exists. Returns the new item's ID and whether a row
// was created; on a duplicate, the existing item's ID is returned instead.
func (s *Store) Enqueue(ctx context.Context, item Item) (id string, created bool, err error) {
	raw := item.RawData
	if raw == nil {
		raw = json.RawMessage("{}")
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO queue_items
		   (type, status, url, normalized_url, company_name, source, submitted_by, max_retries, raw_data)
		 SELECT $1, 'PENDING', $2, $3, $4, $5, $6, $7, $8::jsonb
		 WHERE NOT EXISTS (
		   SELECT 1 FROM queue_items
		   WHERE normalized_url = $3 AND status <> 'FAILED'
		 )
		 RETURNING id`,
		item.Type, item.URL, item.NormalizedURL, item.CompanyName,
		item.Source, item.SubmittedBy, item.MaxRetries, string(raw),
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		existing, findErr := s.FindByNormalizedURL(ctx, item.NormalizedURL)
		if findErr != nil {
			return "", false, errors.Wrap(findErr, "resolve duplicate queue item")
		}
		return existing, false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "enqueue")
	}

	s.log.Info("queue item created",
		logger.Category(logger.CategoryCreate),
		zap.String("item_id", id),
		zap.String("type", string(item.Type)),
		zap.String("normalized_url", item.NormalizedURL),
		zap.String("source", string(item.Source)),
	)
	return id, true, nil
}

// FindByNormalizedURL returns the ID of the non-FAILED item holding the
// given dedup key, or ErrNotFound.
func (s *Store) FindByNormalizedURL(ctx context.Context, normalizedURL string) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM queue_items
		 WHERE normalized_url = $1 AND status <> 'FAILED'
		 ORDER BY created_at
		 LIMIT 1`,
		normalizedURL,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, "find by normalized url")
	}
	return id, nil
}

// ClaimNext atomically moves the oldest PENDING item to PROCESSING and
// returns it. FOR UPDATE SKIP LOCKED keeps concurrent workers from claiming
// the same row. Returns ErrNotFound when the queue is empty.
func (s *Store) ClaimNext(ctx context.Context) (*Item, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE queue_items
		 SET status = 'PROCESSING', processed_at = NOW(), updated_at = NOW()
		 WHERE id = (
		   SELECT id FROM queue_items
		   WHERE status = 'PENDING'
		   ORDER BY created_at
		   FOR UPDATE SKIP LOCKED
		   LIMIT 1
		 )
		 RETURNING `+itemColumns,
	)
	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "claim next")
	}

	s.logTransition(item.ID, StatusPending, StatusProcessing, "")
	return item, nil
}

// MarkSuccess finishes a PROCESSING item with a result message.
func (s *Store) MarkSuccess(ctx context.Context, id, resultMessage string) error {
	return s.finish(ctx, id, StatusSuccess,
		`UPDATE queue_items
		 SET status = 'SUCCESS', result_message = $2,
		     updated_at = NOW(), completed_at = NOW()
		 WHERE id = $1 AND status = 'PROCESSING'`,
		resultMessage)
}

// MarkSkipped finishes a PROCESSING item as skipped. resultMessage must
// explain the skip (e.g. "duplicate of <id>").
func (s *Store) MarkSkipped(ctx context.Context, id, resultMessage string) error {
	if resultMessage == "" {
		return errors.New("skip requires a result message")
	}
	return s.finish(ctx, id, StatusSkipped,
		`UPDATE queue_items
		 SET status = 'SKIPPED', result_message = $2,
		     updated_at = NOW(), completed_at = NOW()
		 WHERE id = $1 AND status = 'PROCESSING'`,
		resultMessage)
}

// MarkFailed finishes a PROCESSING item as failed. errorDetails is required.
func (s *Store) MarkFailed(ctx context.Context, id, errorDetails string) error {
	if errorDetails == "" {
		return errors.New("failure requires error details")
	}
	return s.finish(ctx, id, StatusFailed,
		`UPDATE queue_items
		 SET status = 'FAILED', error_details = $2,
		     updated_at = NOW(), completed_at = NOW()
		 WHERE id = $1 AND status = 'PROCESSING'`,
		errorDetails)
}

// Requeue moves a PROCESSING item back to PENDING, incrementing retry_count.
// The cap is enforced here: once retry_count reaches max_retries the item is
// never re-queued and ErrRetriesExhausted is returned.
func (s *Store) Requeue(ctx context.Context, id, reason string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE queue_items
		 SET status = 'PENDING', retry_count = retry_count + 1,
		     result_message = $2, updated_at = NOW()
		 WHERE id = $1 AND status = 'PROCESSING' AND retry_count < max_retries`,
		id, reason,
	)
	if err != nil {
		return errors.Wrap(err, "requeue")
	}
	if tag.RowsAffected() == 0 {
		// Either the item is gone, not PROCESSING, or out of retries.
		var retryCount, maxRetries int
		err := s.pool.QueryRow(ctx,
			`SELECT retry_count, max_retries FROM queue_items WHERE id = $1`,
			id,
		).Scan(&retryCount, &maxRetries)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return errors.Wrap(err, "requeue inspect")
		}
		if retryCount >= maxRetries {
			return ErrRetriesExhausted
		}
		return ErrInvalidTransition
	}

	s.logTransition(id, StatusProcessing, StatusPending, reason)
	return nil
}

// Get returns a single item by ID.
func (s *Store) Get(ctx context.Context, id string) (*Item, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM queue_items WHERE id = $1`, id)
	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get queue item")
	}
	return item, nil
}

// finish applies a terminal transition, logging it on success.
func (s *Store) finish(ctx context.Context, id string, to Status, sql, detail string) error {
	tag, err := s.pool.Exec(ctx, sql, id, detail)
	if err != nil {
		return errors.Wrapf(err, "mark %s", to)
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(ErrInvalidTransition, "item %s to %s", id, to)
	}
	s.logTransition(id, StatusProcessing, to, detail)
	return nil
}

func (s *Store) logTransition(id string, from, to Status, detail string) {
	fields := []zap.Field{
		logger.Category(logger.CategoryTransition),
		zap.String("item_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	}
	if detail != "" {
		fields = append(fields, zap.String("detail", detail))
	}
	s.log.Info("queue transition", fields...)
}

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	err := row.Scan(
		&it.ID, &it.Type, &it.Status, &it.URL, &it.NormalizedURL,
		&it.CompanyName, &it.Source, &it.SubmittedBy,
		&it.RetryCount, &it.MaxRetries, &it.RawData,
		&it.CreatedAt, &it.UpdatedAt, &it.ProcessedAt, &it.CompletedAt,
		&it.ResultMessage, &it.ErrorDetails,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}
