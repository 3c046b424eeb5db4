package main

import (
	"context"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/hauler-backend/pkg/db/models"
	"github.com/angelmondragon/hauler-backend/pkg/enums"
	"github.com/angelmondragon/hauler-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/hauler-backend/pkg/outbox/registry"
	"gorm.io/gorm"
)

// orderMessage publishes the stored envelope untouched. Attributes carry the
// parties and the new status so subscriptions can filter without decoding.
func orderMessage(row models.OutboxEvent, resolved *registry.ResolvedEvent) *gcppubsub.Message {
	attrs := map[string]string{
		"event_id":   resolved.Envelope.EventID,
		"event_type": string(row.EventType),
		"order_id":   row.AggregateID.String(),
		"created_at": row.CreatedAt.Format(time.RFC3339Nano),
	}
	switch p := resolved.Payload.(type) {
	case *payloads.OrderCreatedEvent:
		attrs["client_id"] = p.ClientID.String()
		attrs["supplier_id"] = p.SupplierID.String()
		attrs["status"] = string(enums.OrderStatusPending)
	case *payloads.OrderStatusChangedEvent:
		attrs["client_id"] = p.ClientID.String()
		attrs["supplier_id"] = p.SupplierID.String()
		attrs["status"] = string(p.To)
	}
	return &gcppubsub.Message{Data: row.Payload, Attributes: attrs}
}

// deadLetter copies the row into outbox_dlq and stops further attempts on it.
func (r *Relay) deadLetter(ctx context.Context, tx *gorm.DB, row models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error) error {
	ctx = r.logg.WithFields(ctx, map[string]any{
		"error_reason": reason,
		"error":        cause.Error(),
	})
	r.logg.Warn(ctx, "order event dead lettered")

	msg := cause.Error()
	entry := models.OutboxDLQ{
		EventID:       row.ID,
		EventType:     row.EventType,
		AggregateType: row.AggregateType,
		AggregateID:   row.AggregateID,
		Payload:       row.Payload,
		ErrorReason:   reason,
		ErrorMessage:  &msg,
		AttemptCount:  row.AttemptCount,
		FailedAt:      time.Now().UTC(),
	}
	if err := r.dlq.InsertTx(tx, entry); err != nil {
		return fmt.Errorf("insert dlq %s: %w", row.ID, err)
	}
	if err := r.repo.MarkTerminalTx(tx, row.ID, cause, r.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", row.ID, err)
	}
	r.metrics.IncOutboxPublish(string(row.EventType), "dead_lettered")
	return nil
}

type gcpPublisher struct {
	p *gcppubsub.Publisher
}

func (g gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) (string, error) {
	return g.p.Publish(ctx, msg).Get(ctx)
}
