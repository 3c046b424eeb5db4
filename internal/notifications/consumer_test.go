package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/alicebob/miniredis/v2"
	"github.com/angelmondragon/hauler-backend/pkg/db/models"
	"github.com/angelmondragon/hauler-backend/pkg/enums"
	"github.com/angelmondragon/hauler-backend/pkg/logger"
	"github.com/angelmondragon/hauler-backend/pkg/outbox"
	"github.com/angelmondragon/hauler-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/hauler-backend/pkg/outbox/payloads"
	redisclient "github.com/angelmondragon/hauler-backend/pkg/redis"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type recordingRepo struct {
	created []*models.Notification
	err     error
}

func (r *recordingRepo) Create(_ context.Context, n *models.Notification) error {
	if r.err != nil {
		return r.err
	}
	r.created = append(r.created, n)
	return nil
}

type noopReceiver struct{}

func (noopReceiver) Receive(context.Context, func(context.Context, *pubsub.Message)) error {
	return nil
}

func mustConsumer(t *testing.T, repo repository) *Consumer {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redisclient.Wrap(redis.NewClient(&redis.Options{Addr: srv.Addr()}))
	t.Cleanup(func() { _ = client.Close() })
	manager, err := idempotency.NewManager(client, time.Hour)
	if err != nil {
		t.Fatalf("idempotency manager: %v", err)
	}
	consumer, err := NewConsumer(repo, noopReceiver{}, manager, logger.Nop())
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}
	return consumer
}

func buildMessage(t *testing.T, eventType enums.OutboxEventType, eventID uuid.UUID, data any) *pubsub.Message {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	body, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    outbox.CurrentVersion,
		EventID:    eventID.String(),
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return &pubsub.Message{
		ID:         "msg-" + eventID.String(),
		Data:       body,
		Attributes: map[string]string{"event_type": string(eventType), "event_id": eventID.String()},
	}
}

func TestConsumerNotifiesSupplierOfNewOrder(t *testing.T) {
	repo := &recordingRepo{}
	consumer := mustConsumer(t, repo)
	supplier := uuid.New()
	orderID := uuid.New()

	msg := buildMessage(t, enums.EventOrderCreated, uuid.New(), payloads.OrderCreatedEvent{
		OrderID:    orderID,
		ClientID:   uuid.New(),
		ClientName: "Bob's Builders",
		SupplierID: supplier,
		Total:      decimal.RequireFromString("42.5"),
		ItemCount:  8,
	})
	if res := consumer.process(context.Background(), msg); !res.ack {
		t.Fatalf("expected ack, got %+v", res)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one notification, got %d", len(repo.created))
	}
	n := repo.created[0]
	if n.UserID != supplier || n.Type != enums.NotificationTypeOrderReceived || n.Title != "New order received" {
		t.Fatalf("unexpected notification %+v", n)
	}
	if n.Message != "Bob's Builders placed an order for 8 units totaling $42.50." {
		t.Fatalf("unexpected message %q", n.Message)
	}
	if n.Link == nil || *n.Link != "/orders/"+orderID.String() {
		t.Fatalf("unexpected link %v", n.Link)
	}
}

func TestConsumerNotifiesClientOfStatusChange(t *testing.T) {
	repo := &recordingRepo{}
	consumer := mustConsumer(t, repo)
	client := uuid.New()

	msg := buildMessage(t, enums.EventOrderStatusChanged, uuid.New(), payloads.OrderStatusChangedEvent{
		OrderID:    uuid.New(),
		ClientID:   client,
		SupplierID: uuid.New(),
		From:       enums.OrderStatusPending,
		To:         enums.OrderStatusShipped,
		ChangedAt:  time.Now().UTC(),
	})
	if res := consumer.process(context.Background(), msg); !res.ack {
		t.Fatalf("expected ack, got %+v", res)
	}
	if len(repo.created) != 1 || repo.created[0].UserID != client || repo.created[0].Title != "Order shipped" {
		t.Fatalf("unexpected notifications %+v", repo.created)
	}
}

func TestConsumerDeduplicatesByEventID(t *testing.T) {
	repo := &recordingRepo{}
	consumer := mustConsumer(t, repo)
	msg := buildMessage(t, enums.EventOrderCreated, uuid.New(), payloads.OrderCreatedEvent{
		OrderID: uuid.New(), SupplierID: uuid.New(), Total: decimal.NewFromInt(1), ItemCount: 1,
	})

	consumer.process(context.Background(), msg)
	if res := consumer.process(context.Background(), msg); !res.ack {
		t.Fatalf("redelivery should be acked, got %+v", res)
	}
	if len(repo.created) != 1 {
		t.Fatalf("redelivery must not notify twice, got %d", len(repo.created))
	}
}

func TestConsumerNacksAndReleasesOnWriteFailure(t *testing.T) {
	repo := &recordingRepo{err: errors.New("db down")}
	consumer := mustConsumer(t, repo)
	msg := buildMessage(t, enums.EventOrderCreated, uuid.New(), payloads.OrderCreatedEvent{
		OrderID: uuid.New(), SupplierID: uuid.New(), Total: decimal.NewFromInt(1), ItemCount: 1,
	})

	if res := consumer.process(context.Background(), msg); !res.nack {
		t.Fatalf("expected nack, got %+v", res)
	}
	repo.err = nil
	if res := consumer.process(context.Background(), msg); !res.ack || len(repo.created) != 1 {
		t.Fatalf("retry after release should succeed, res=%+v created=%d", res, len(repo.created))
	}
}

func TestConsumerSkipsUnrelatedAndMalformed(t *testing.T) {
	repo := &recordingRepo{}
	consumer := mustConsumer(t, repo)

	other := &pubsub.Message{ID: "x", Data: []byte("{}"), Attributes: map[string]string{"event_type": "user.created"}}
	if res := consumer.process(context.Background(), other); !res.ack {
		t.Fatalf("unrelated events are acked")
	}
	broken := &pubsub.Message{ID: "y", Data: []byte("not json"), Attributes: map[string]string{"event_type": string(enums.EventOrderCreated)}}
	if res := consumer.process(context.Background(), broken); !res.ack {
		t.Fatalf("poison messages are acked")
	}
	pending := buildMessage(t, enums.EventOrderStatusChanged, uuid.New(), payloads.OrderStatusChangedEvent{
		OrderID: uuid.New(), ClientID: uuid.New(), To: enums.OrderStatusPending,
	})
	consumer.process(context.Background(), pending)
	if len(repo.created) != 0 {
		t.Fatalf("nothing should be created, got %+v", repo.created)
	}
}
