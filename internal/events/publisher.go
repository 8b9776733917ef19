// Package events publishes pipeline observability events to Redis pub/sub.
// External monitoring subscribes to alert on duplicate-rate spikes and
// failure bursts. Publishing is always non-fatal: a lost event is logged
// and the pipeline continues.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Channel carries all pipeline events.
const Channel = "EVENT_PIPELINE"

// Event types.
const (
	TypeDuplicateDetected = "DUPLICATE_DETECTED"
	TypeMatchCreated      = "MATCH_CREATED"
	TypeMatchDeleted      = "MATCH_DELETED"
	TypeItemFinished      = "ITEM_FINISHED"
)

// Event is the JSON payload published per pipeline occurrence.
type Event struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	Category string            `json:"category"`
	At       time.Time         `json:"at"`
	Fields   map[string]string `json:"fields,omitempty"`
}

// Publisher emits events on the shared Redis channel.
type Publisher struct {
	rdb *redis.Client
	log *zap.Logger
}

// NewPublisher returns a Publisher. rdb may be nil in tests; publishing is
// then a no-op.
func NewPublisher(rdb *redis.Client, log *zap.Logger) *Publisher {
	return &Publisher{rdb: rdb, log: log}
}

// Publish emits one event. Failures are logged, never returned.
func (p *Publisher) Publish(ctx context.Context, eventType, category string, fields map[string]string) {
	if p.rdb == nil {
		return
	}

	payload, err := json.Marshal(Event{
		ID:       uuid.NewString(),
		Type:     eventType,
		Category: category,
		At:       time.Now().UTC(),
		Fields:   fields,
	})
	if err != nil {
		p.log.Warn("encode event failed", zap.String("type", eventType), zap.Error(err))
		return
	}

	if err := p.rdb.Publish(ctx, Channel, payload).Err(); err != nil {
		p.log.Warn("publish event failed", zap.String("type", eventType), zap.Error(err))
	}
}
