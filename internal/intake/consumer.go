package intake

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Jdubz/job-finder-worker-sub014/internal/model"
	"github.com/Jdubz/job-finder-worker-sub014/internal/queue"
)

// CommandChannel is where source adapters publish submission batches.
const CommandChannel = "CMD_SUBMIT_JOBS"

// command is the payload adapters publish on CommandChannel.
type command struct {
	Source      string          `json:"source"`
	SubmittedBy string          `json:"submittedBy"`
	Postings    []model.Posting `json:"postings"`
}

// Consumer bridges Redis pub/sub submissions into the intake service, so
// out-of-process adapters (the discovery scraper, the gateway) can submit
// without a direct dependency on this binary.
type Consumer struct {
	rdb *redis.Client
	svc *Service
	log *zap.Logger
}

// NewConsumer returns a Consumer for the given service.
func NewConsumer(rdb *redis.Client, svc *Service, log *zap.Logger) *Consumer {
	return &Consumer{rdb: rdb, svc: svc, log: log}
}

// Run subscribes to CommandChannel and processes batches until ctx is
// cancelled. Malformed payloads are logged and dropped.
func (c *Consumer) Run(ctx context.Context) {
	sub := c.rdb.Subscribe(ctx, CommandChannel)
	defer sub.Close()

	c.log.Info("intake consumer started", zap.String("channel", CommandChannel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			c.log.Info("intake consumer stopped")
			return
		case msg, ok := <-ch:
			if !ok {
				c.log.Warn("intake subscription closed")
				return
			}
			c.handle(ctx, msg.Payload)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, payload string) {
	var cmd command
	if err := json.Unmarshal([]byte(payload), &cmd); err != nil {
		c.log.Warn("dropping malformed submission payload", zap.Error(err))
		return
	}

	source := queue.Source(cmd.Source)
	switch source {
	case queue.SourceUserSubmission, queue.SourceScraper, queue.SourceAPI, queue.SourceManual:
	default:
		c.log.Warn("dropping submission with unknown source", zap.String("source", cmd.Source))
		return
	}

	report, err := c.svc.SubmitJobs(ctx, cmd.Postings, source, cmd.SubmittedBy)
	if err != nil {
		c.log.Error("submission batch failed", zap.Error(err))
		return
	}

	c.log.Info("submission batch processed",
		zap.String("source", cmd.Source),
		zap.Int("postings", len(cmd.Postings)),
		zap.Int("added", report.Added),
	)
}
