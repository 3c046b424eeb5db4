package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/hauler-backend/pkg/config"
	"github.com/angelmondragon/hauler-backend/pkg/db/models"
	"github.com/angelmondragon/hauler-backend/pkg/enums"
	"github.com/angelmondragon/hauler-backend/pkg/logger"
	"github.com/angelmondragon/hauler-backend/pkg/metrics"
	"github.com/angelmondragon/hauler-backend/pkg/outbox/registry"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	publishTimeout = 15 * time.Second
	idleJitter     = 250 * time.Millisecond
	maxRetryDelay  = 10 * time.Second
)

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type pubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type dlqRepository interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error
}

type eventResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

// orderPublisher sends one message and blocks until the server acks it.
type orderPublisher interface {
	Publish(context.Context, *gcppubsub.Message) (string, error)
}

type RelayParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         dbClient
	PubSub     pubSubClient
	Repository outboxRepository
	DLQ        dlqRepository
	Events     eventResolver
	Metrics    *metrics.Metrics
	// Publisher overrides the orders topic publisher built from PubSub.
	Publisher orderPublisher
}

// Relay moves committed order events from outbox_events onto the orders topic.
type Relay struct {
	logg        *logger.Logger
	db          dbClient
	pubsub      pubSubClient
	repo        outboxRepository
	dlq         dlqRepository
	events      eventResolver
	metrics     *metrics.Metrics
	publisher   orderPublisher
	topic       string
	batchSize   int
	maxAttempts int
	interval    time.Duration
	jitter      *rand.Rand
}

func NewRelay(params RelayParams) (*Relay, error) {
	switch {
	case params.Config == nil:
		return nil, errors.New("config is required")
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	case params.DB == nil:
		return nil, errors.New("database client is required")
	case params.PubSub == nil:
		return nil, errors.New("pubsub client is required")
	case params.Repository == nil:
		return nil, errors.New("outbox repository is required")
	case params.DLQ == nil:
		return nil, errors.New("dlq repository is required")
	case params.Events == nil:
		return nil, errors.New("event registry is required")
	}

	topic := params.Config.PubSub.OrdersTopic
	pub := params.Publisher
	if pub == nil {
		p := params.PubSub.Publisher(topic)
		if p == nil {
			return nil, fmt.Errorf("no publisher for orders topic %q", topic)
		}
		pub = gcpPublisher{p}
	}

	// config.Load applies envconfig defaults, zero values only reach here from tests.
	out := params.Config.Outbox
	if out.BatchSize <= 0 {
		out.BatchSize = 50
	}
	if out.PollIntervalMS <= 0 {
		out.PollIntervalMS = 500
	}
	if out.MaxAttempts <= 0 {
		out.MaxAttempts = 10
	}

	return &Relay{
		logg:        params.Logger,
		db:          params.DB,
		pubsub:      params.PubSub,
		repo:        params.Repository,
		dlq:         params.DLQ,
		events:      params.Events,
		metrics:     params.Metrics,
		publisher:   pub,
		topic:       topic,
		batchSize:   out.BatchSize,
		maxAttempts: out.MaxAttempts,
		interval:    time.Duration(out.PollIntervalMS) * time.Millisecond,
		jitter:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Run drains the outbox until ctx is cancelled. After a failed batch the
// wait doubles up to maxRetryDelay.
func (r *Relay) Run(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		r.logg.Error(ctx, "database ping failed", err)
		return fmt.Errorf("database ping failed: %w", err)
	}
	if err := r.pubsub.Ping(ctx); err != nil {
		r.logg.Error(ctx, "pubsub ping failed", err)
		return fmt.Errorf("pubsub ping failed: %w", err)
	}

	wait := r.interval
	for {
		if err := ctx.Err(); err != nil {
			r.logg.Info(ctx, "order event relay stopped")
			return err
		}

		drained, err := r.drain(ctx)
		switch {
		case err != nil:
			r.logg.Error(ctx, "order event batch failed", err)
			wait = min(wait*2, maxRetryDelay)
		case drained > 0:
			wait = r.interval
			continue
		default:
			wait = r.interval
		}

		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// drain publishes one locked batch and returns how many rows it settled.
func (r *Relay) drain(ctx context.Context) (int, error) {
	settled := 0
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := r.repo.FetchUnpublishedForPublish(tx, r.batchSize, r.maxAttempts)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if err := r.relayRow(ctx, tx, row); err != nil {
				return err
			}
			settled++
		}
		return nil
	})
	return settled, err
}

func (r *Relay) relayRow(ctx context.Context, tx *gorm.DB, row models.OutboxEvent) error {
	ctx = r.logg.WithFields(ctx, map[string]any{
		"outbox_id":  row.ID.String(),
		"event_type": row.EventType,
	})
	resolved, err := r.events.Resolve(row)
	if err != nil {
		return r.deadLetter(ctx, tx, row, enums.OutboxDLQReasonNonRetryable, err)
	}

	ctx = r.logg.WithFields(ctx, rowFields(row, resolved))
	if resolved.Descriptor.Topic != r.topic {
		return r.deadLetter(ctx, tx, row, enums.OutboxDLQReasonNonRetryable,
			fmt.Errorf("event routed to %q, relay publishes to %q", resolved.Descriptor.Topic, r.topic))
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	msgID, err := r.publisher.Publish(publishCtx, orderMessage(row, resolved))
	cancel()
	if err == nil {
		if err := r.repo.MarkPublishedTx(tx, row.ID); err != nil {
			return fmt.Errorf("mark published %s: %w", row.ID, err)
		}
		r.metrics.IncOutboxPublish(string(row.EventType), "published")
		r.logg.Info(r.logg.WithField(ctx, "message_id", msgID), "order event published")
		return nil
	}

	if row.AttemptCount+1 >= r.maxAttempts {
		return r.deadLetter(ctx, tx, row, enums.OutboxDLQReasonMaxAttempts,
			fmt.Errorf("gave up after %d attempts: %w", row.AttemptCount+1, err))
	}

	r.logg.Warn(r.logg.WithField(ctx, "error", err.Error()), "order event publish failed, will retry")
	r.metrics.IncOutboxPublish(string(row.EventType), "failed")
	if err := r.repo.MarkFailedTx(tx, row.ID, err); err != nil {
		return fmt.Errorf("mark failure %s: %w", row.ID, err)
	}
	return nil
}

func (r *Relay) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d + time.Duration(r.jitter.Int63n(int64(idleJitter))))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func rowFields(row models.OutboxEvent, resolved *registry.ResolvedEvent) map[string]any {
	return map[string]any{
		"order_id":      row.AggregateID.String(),
		"event_id":      resolved.Envelope.EventID,
		"attempt_count": row.AttemptCount,
		"topic":         resolved.Descriptor.Topic,
	}
}
