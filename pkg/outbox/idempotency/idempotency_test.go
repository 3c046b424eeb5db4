package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/hauler-backend/pkg/redis"
)

type fakeStore struct {
	setNXResult bool
	setNXError  error
	lastKey     string
	lastTTL     time.Duration
	lastDeleted string
}

func (f *fakeStore) Get(context.Context, string) (string, error) {
	return "", nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, _ any, ttl time.Duration) (bool, error) {
	f.lastKey = key
	f.lastTTL = ttl
	return f.setNXResult, f.setNXError
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "hauler:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	if len(keys) > 0 {
		f.lastDeleted = keys[0]
	}
	return nil
}

func TestCheckAndMarkProcessedKeysAndTTL(t *testing.T) {
	store := &fakeStore{setNXResult: true}
	manager, err := NewManager(store, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	eventID := uuid.New()
	already, err := manager.CheckAndMarkProcessed(context.Background(), "order-notifications", eventID)
	if err != nil {
		t.Fatalf("CheckAndMarkProcessed: %v", err)
	}
	if already {
		t.Fatalf("expected first call to return false")
	}
	if want := "hauler:idempotency:evt:processed:order-notifications:" + eventID.String(); store.lastKey != want {
		t.Fatalf("unexpected key: %q", store.lastKey)
	}
	if store.lastTTL != 24*time.Hour {
		t.Fatalf("unexpected ttl: %v", store.lastTTL)
	}
}

func TestCheckAndMarkProcessedValidatesInput(t *testing.T) {
	manager, _ := NewManager(&fakeStore{}, time.Hour)
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "", uuid.New()); err == nil {
		t.Fatal("expected consumer required")
	}
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "c", uuid.Nil); err == nil {
		t.Fatal("expected event id required")
	}
	if _, err := NewManager(nil, time.Hour); err == nil {
		t.Fatal("expected store required")
	}
}

func TestProcessRunsOnceAgainstRedis(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.Wrap(goredis.NewClient(&goredis.Options{Addr: srv.Addr()}))
	defer client.Close()

	manager, err := NewManager(client, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	ctx := context.Background()
	eventID := uuid.New()
	calls := 0
	handler := func(context.Context) error {
		calls++
		return nil
	}

	if err := manager.Process(ctx, "order-notifications", eventID, handler); err != nil {
		t.Fatalf("first process: %v", err)
	}
	if err := manager.Process(ctx, "order-notifications", eventID, handler); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("handler should run once, ran %d", calls)
	}

	if err := manager.Process(ctx, "other-consumer", eventID, handler); err != nil {
		t.Fatalf("other consumers keep their own claims: %v", err)
	}
}

func TestProcessReleasesClaimOnFailure(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.Wrap(goredis.NewClient(&goredis.Options{Addr: srv.Addr()}))
	defer client.Close()

	manager, _ := NewManager(client, time.Hour)
	ctx := context.Background()
	eventID := uuid.New()
	boom := errors.New("boom")

	if err := manager.Process(ctx, "c", eventID, func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected handler error, got %v", err)
	}
	retried := false
	if err := manager.Process(ctx, "c", eventID, func(context.Context) error { retried = true; return nil }); err != nil {
		t.Fatalf("retry after release: %v", err)
	}
	if !retried {
		t.Fatal("released event should be processed on redelivery")
	}
}
