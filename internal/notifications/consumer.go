package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/hauler-backend/pkg/db/models"
	"github.com/angelmondragon/hauler-backend/pkg/enums"
	"github.com/angelmondragon/hauler-backend/pkg/logger"
	"github.com/angelmondragon/hauler-backend/pkg/outbox"
	"github.com/angelmondragon/hauler-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/hauler-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/hauler-backend/pkg/outbox/registry"
	"github.com/google/uuid"
)

const orderNotificationConsumer = "order-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type messageReceiver interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

// Consumer turns order events into in-app notifications for the other party.
type Consumer struct {
	repo         repository
	subscription messageReceiver
	decoders     *registry.DecoderRegistry
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds an order notification consumer.
func NewConsumer(repo repository, subscription messageReceiver, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("orders subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		decoders:     registry.NewOrderDecoders(),
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": string(eventType),
	})

	if eventType != enums.EventOrderCreated && eventType != enums.EventOrderStatusChanged {
		c.logg.Info(logCtx, "skipping unrelated event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	version := envelope.Version
	if version == 0 {
		version = outbox.CurrentVersion
	}
	payload, err := c.decoders.Decode(eventType, version, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return processResult{ack: true}
	}

	notification, ok := notificationFor(payload)
	if !ok {
		c.logg.Info(logCtx, "event does not notify anyone")
		return processResult{ack: true}
	}
	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"event_id":     eventID.String(),
		"recipient_id": notification.UserID.String(),
	})

	err = c.idempotency.Process(ctx, orderNotificationConsumer, eventID, func(ctx context.Context) error {
		return c.repo.Create(ctx, notification)
	})
	switch {
	case errors.Is(err, idempotency.ErrAlreadyProcessed):
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	case err != nil:
		c.logg.Error(logCtx, "notification handling failed", err)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "notification created")
	return processResult{ack: true}
}

// notificationFor maps a decoded order event to the notification its recipient should see.
func notificationFor(payload any) (*models.Notification, bool) {
	switch evt := payload.(type) {
	case *payloads.OrderCreatedEvent:
		if evt.SupplierID == uuid.Nil {
			return nil, false
		}
		client := strings.TrimSpace(evt.ClientName)
		if client == "" {
			client = "A client"
		}
		return &models.Notification{
			UserID:  evt.SupplierID,
			Type:    enums.NotificationTypeOrderReceived,
			Title:   "New order received",
			Message: fmt.Sprintf("%s placed an order for %d units totaling $%s.", client, evt.ItemCount, evt.Total.StringFixed(2)),
			Link:    orderLink(evt.OrderID),
		}, true
	case *payloads.OrderStatusChangedEvent:
		if evt.ClientID == uuid.Nil {
			return nil, false
		}
		switch evt.To {
		case enums.OrderStatusShipped, enums.OrderStatusDelivered, enums.OrderStatusCancelled:
		default:
			return nil, false
		}
		return &models.Notification{
			UserID:  evt.ClientID,
			Type:    enums.NotificationTypeOrderUpdate,
			Title:   "Order " + string(evt.To),
			Message: fmt.Sprintf("Your order %s is now %s.", shortID(evt.OrderID), evt.To),
			Link:    orderLink(evt.OrderID),
		}, true
	default:
		return nil, false
	}
}

func orderLink(orderID uuid.UUID) *string {
	link := "/orders/" + orderID.String()
	return &link
}

func shortID(id uuid.UUID) string {
	return strings.ToUpper(id.String()[:8])
}
