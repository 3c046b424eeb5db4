package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/angelmondragon/hauler-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/hauler-backend/pkg/errors"
	redisclient "github.com/angelmondragon/hauler-backend/pkg/redis"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type stubLookup struct {
	products map[uuid.UUID]ProductSnapshot
	err      error
}

func (s *stubLookup) Lookup(_ context.Context, id uuid.UUID) (ProductSnapshot, error) {
	if s.err != nil {
		return ProductSnapshot{}, s.err
	}
	p, ok := s.products[id]
	if !ok {
		return ProductSnapshot{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return p, nil
}

type recordingNotifier struct {
	outcomes []enums.CartOutcome
}

func (r *recordingNotifier) Notify(_ context.Context, _ string, _ Owner, m Mutation) {
	r.outcomes = append(r.outcomes, m.Outcome)
}

type failingStore struct{}

func (failingStore) Load(context.Context, Owner) (*Cart, error) { return nil, errors.New("down") }
func (failingStore) Save(context.Context, Owner, *Cart) error  { return errors.New("down") }
func (failingStore) Delete(context.Context, Owner) error       { return errors.New("down") }

func newTestCartService(t *testing.T, store Store, products ...ProductSnapshot) (Service, *recordingNotifier) {
	t.Helper()
	lookup := &stubLookup{products: map[uuid.UUID]ProductSnapshot{}}
	for _, p := range products {
		lookup.products[p.ID] = p
	}
	notifier := &recordingNotifier{}
	svc, err := NewService(store, lookup, notifier, decimal.NewFromInt(10))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, notifier
}

func TestServiceAddPersistsAndNotifies(t *testing.T) {
	t.Parallel()

	p := testProduct(uuid.New(), "10.00", 5, 3)
	store := NewMemoryStore()
	svc, notifier := newTestCartService(t, store, p)
	owner := Owner{BuyerID: uuid.New(), SessionID: "sid"}
	ctx := context.Background()

	res, err := svc.Add(ctx, owner, p.ID, 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if res.Outcome != enums.CartOutcomeClampedToMOQ || res.Cart.ItemCount != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	if !res.Cart.Subtotal.Equal(decimal.RequireFromString("30")) ||
		!res.Cart.Tax.Equal(decimal.RequireFromString("3")) ||
		!res.Cart.Total.Equal(decimal.RequireFromString("33")) {
		t.Fatalf("unexpected money fields %+v", res.Cart)
	}

	res, err = svc.Add(ctx, owner, p.ID, 10)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if res.Outcome != enums.CartOutcomeRejectedStockLimit || res.Cart.ItemCount != 3 {
		t.Fatalf("stock limit should keep quantity, got %+v", res)
	}

	stored, _ := store.Load(ctx, owner)
	if stored.ItemCount() != 3 {
		t.Fatalf("expected persisted quantity 3, got %d", stored.ItemCount())
	}
	if len(notifier.outcomes) != 2 {
		t.Fatalf("every mutation must notify, got %v", notifier.outcomes)
	}
}

func TestServiceCartIsScopedToSession(t *testing.T) {
	t.Parallel()

	p := testProduct(uuid.New(), "1.00", 5, 1)
	svc, _ := newTestCartService(t, NewMemoryStore(), p)
	buyer := uuid.New()
	ctx := context.Background()

	if _, err := svc.Add(ctx, Owner{BuyerID: buyer, SessionID: "tab-a"}, p.ID, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	view, err := svc.View(ctx, Owner{BuyerID: buyer, SessionID: "tab-b"})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if view.ItemCount != 0 || len(view.Lines) != 0 {
		t.Fatalf("other session should see an empty cart, got %+v", view)
	}
}

func TestServiceErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestCartService(t, NewMemoryStore())

	if _, err := svc.View(ctx, Owner{}); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := svc.Add(ctx, Owner{BuyerID: uuid.New()}, uuid.New(), 1); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	broken, _ := newTestCartService(t, failingStore{})
	if _, err := broken.View(ctx, Owner{BuyerID: uuid.New()}); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}

	lookupDown, err := NewService(NewMemoryStore(), &stubLookup{err: errors.New("db gone")}, &recordingNotifier{}, decimal.Zero)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := lookupDown.Add(ctx, Owner{BuyerID: uuid.New()}, uuid.New(), 1); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestServiceUpdateRemoveClear(t *testing.T) {
	t.Parallel()

	p := testProduct(uuid.New(), "2.00", 10, 2)
	store := NewMemoryStore()
	svc, notifier := newTestCartService(t, store, p)
	owner := Owner{BuyerID: uuid.New(), SessionID: "sid"}
	ctx := context.Background()

	if _, err := svc.Add(ctx, owner, p.ID, 4); err != nil {
		t.Fatalf("add: %v", err)
	}
	res, err := svc.UpdateQuantity(ctx, owner, p.ID, 0)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if res.Outcome != enums.CartOutcomeClampedToMOQ || res.Cart.ItemCount != 2 {
		t.Fatalf("unexpected update result %+v", res)
	}

	res, err = svc.Remove(ctx, owner, p.ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if res.Outcome != enums.CartOutcomeRemoved || res.Cart.ItemCount != 0 || res.Cart.SupplierID != nil {
		t.Fatalf("unexpected remove result %+v", res)
	}

	if _, err := svc.Add(ctx, owner, p.ID, 2); err != nil {
		t.Fatalf("re-add: %v", err)
	}
	res, err = svc.Clear(ctx, owner)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if res.Outcome != enums.CartOutcomeCleared || res.Cart.ItemCount != 0 {
		t.Fatalf("unexpected clear result %+v", res)
	}
	stored, _ := store.Load(ctx, owner)
	if !stored.IsEmpty() {
		t.Fatalf("clear should delete the stored cart")
	}
	if got := notifier.outcomes[len(notifier.outcomes)-1]; got != enums.CartOutcomeCleared {
		t.Fatalf("expected last notice to be cleared, got %s", got)
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	t.Parallel()

	srv := miniredis.RunT(t)
	client := redisclient.Wrap(redis.NewClient(&redis.Options{Addr: srv.Addr()}))
	t.Cleanup(func() { _ = client.Close() })

	store, err := NewRedisStore(client, time.Hour)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	owner := Owner{BuyerID: uuid.New(), SessionID: "sid-1"}

	empty, err := store.Load(ctx, owner)
	if err != nil || !empty.IsEmpty() {
		t.Fatalf("missing key should load empty cart, got %+v err=%v", empty, err)
	}

	c := &Cart{}
	p := testProduct(uuid.New(), "12.40", 9, 1)
	c.AddToCart(p, 3)
	if err := store.Save(ctx, owner, c); err != nil {
		t.Fatalf("save: %v", err)
	}
	key := client.CartKey(owner.BuyerID.String(), owner.SessionID)
	if ttl := srv.TTL(key); ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %s", ttl)
	}

	loaded, err := store.Load(ctx, owner)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.ItemCount() != 3 || !loaded.Total().Equal(c.Total()) || loaded.Lines[0].Product.SupplierName != "Acme Supply" {
		t.Fatalf("unexpected loaded cart %+v", loaded)
	}

	if err := store.Save(ctx, owner, &Cart{}); err != nil {
		t.Fatalf("save empty: %v", err)
	}
	if srv.Exists(key) {
		t.Fatalf("saving an empty cart should drop the key")
	}

	if err := srv.Set(key, "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := store.Load(ctx, owner); err == nil {
		t.Fatalf("expected decode error")
	}
}
