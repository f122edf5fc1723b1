package infra

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rpgsocial/platform/internal/guard"
	"github.com/rpgsocial/platform/internal/repository"
)

// OutboxPoller polls the event_outbox table and publishes events to Kafka.
type OutboxPoller struct {
	pool      *pgxpool.Pool
	repo      repository.OutboxRepository
	producer  *KafkaProducer
	breaker   *guard.CircuitBreaker
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

// NewOutboxPoller creates a new outbox poller.
func NewOutboxPoller(pool *pgxpool.Pool, repo repository.OutboxRepository, producer *KafkaProducer, logger *slog.Logger) *OutboxPoller {
	return &OutboxPoller{
		pool:      pool,
		repo:      repo,
		producer:  producer,
		breaker:   guard.NewCircuitBreaker(5, 30*time.Second),
		logger:    logger,
		interval:  500 * time.Millisecond,
		batchSize: 100,
	}
}

// Start begins polling in a goroutine. Stops when ctx is cancelled.
func (p *OutboxPoller) Start(ctx context.Context) {
	p.logger.Info("outbox poller started", "interval", p.interval, "batch_size", p.batchSize)

	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				p.logger.Info("outbox poller stopped")
				return
			case <-ticker.C:
				if err := p.Poll(ctx); err != nil {
					p.logger.Error("outbox poll error", "error", err)
				}
			}
		}
	}()
}

// Poll publishes one batch of unpublished events.
func (p *OutboxPoller) Poll(ctx context.Context) error {
	events, err := p.repo.FetchUnpublished(ctx, p.pool, p.batchSize)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	published := 0
	for _, e := range events {
		topic := "rpgsocial." + string(e.AggregateType) + "." + string(e.EventType)
		key := []byte(e.AggregateID)

		msg, _ := json.Marshal(map[string]interface{}{
			"event_id":       e.EventID,
			"aggregate_type": e.AggregateType,
			"aggregate_id":   e.AggregateID,
			"event_type":     e.EventType,
			"payload":        e.Payload,
			"occurred_at":    e.OccurredAt,
		})

		if res := p.breaker.Check(ctx, topic); !res.Allowed {
			p.logger.Warn("kafka publish skipped", "topic", topic, "reason", res.Reason)
			continue
		}

		if err := p.producer.Publish(ctx, topic, key, msg); err != nil {
			p.breaker.RecordFailure(topic)
			p.logger.Error("kafka publish failed", "event_id", e.EventID, "error", err)
			continue
		}
		p.breaker.RecordSuccess(topic)

		if err := p.repo.MarkPublished(ctx, p.pool, []uuid.UUID{e.EventID}); err != nil {
			p.logger.Error("mark published failed", "event_id", e.EventID, "error", err)
			continue
		}
		published++
	}

	p.logger.Debug("outbox poll complete", "published", published)
	return nil
}
