package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/hauler-backend/internal/cart"
	"github.com/angelmondragon/hauler-backend/internal/orders"
	"github.com/angelmondragon/hauler-backend/pkg/db"
	"github.com/angelmondragon/hauler-backend/pkg/db/dbtest"
	"github.com/angelmondragon/hauler-backend/pkg/db/models"
	"github.com/angelmondragon/hauler-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/hauler-backend/pkg/errors"
	"github.com/angelmondragon/hauler-backend/pkg/logger"
	"github.com/angelmondragon/hauler-backend/pkg/outbox"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// flakyOrders fails inserts for the listed suppliers and delegates the rest.
type flakyOrders struct {
	orders.Repository
	failFor map[uuid.UUID]bool
}

func (f *flakyOrders) WithTx(tx *gorm.DB) orders.Repository {
	return &flakyOrders{Repository: f.Repository.WithTx(tx), failFor: f.failFor}
}

func (f *flakyOrders) CreateOrder(ctx context.Context, order *models.Order) error {
	if f.failFor[order.SupplierID] {
		return errors.New("write refused")
	}
	return f.Repository.CreateOrder(ctx, order)
}

type fixture struct {
	client *db.Client
	store  *cart.MemoryStore
	svc    Service
	buyer  Buyer
}

func newFixture(t *testing.T, failFor ...uuid.UUID) *fixture {
	t.Helper()
	client := dbtest.Open(t)
	store := cart.NewMemoryStore()
	logg := logger.Nop()

	repo := orders.Repository(orders.NewRepository(client.DB()))
	if len(failFor) > 0 {
		flaky := &flakyOrders{Repository: repo, failFor: map[uuid.UUID]bool{}}
		for _, id := range failFor {
			flaky.failFor[id] = true
		}
		repo = flaky
	}
	svc, err := NewService(store, repo, client, outbox.NewService(outbox.NewRepository(client.DB()), logg), nil, logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{
		client: client,
		store:  store,
		svc:    svc,
		buyer:  Buyer{ID: uuid.New(), DisplayName: "Bob's Builders", SessionID: "sid-1"},
	}
}

func snapshot(supplier uuid.UUID, name, price string) cart.ProductSnapshot {
	return cart.ProductSnapshot{
		ID:            uuid.New(),
		Name:          name,
		Price:         decimal.RequireFromString(price),
		StockQuantity: 100,
		MOQ:           1,
		SupplierID:    supplier,
		SupplierName:  "Supplier " + name,
	}
}

func (f *fixture) seedCart(t *testing.T, lines ...cart.Line) {
	t.Helper()
	if err := f.store.Save(context.Background(), f.buyer.cartOwner(), &cart.Cart{Lines: lines}); err != nil {
		t.Fatalf("seed cart: %v", err)
	}
}

func countRows(t *testing.T, conn *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := conn.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestCheckoutSingleSupplier(t *testing.T) {
	f := newFixture(t)
	supplier := uuid.New()
	bricks := snapshot(supplier, "Bricks", "10.00")
	sand := snapshot(supplier, "Sand", "2.50")
	f.seedCart(t, cart.Line{Product: bricks, Quantity: 3}, cart.Line{Product: sand, Quantity: 5})

	res, err := f.svc.Checkout(context.Background(), f.buyer)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if res.OrdersCreated != 1 || res.Failed != 0 || len(res.Partitions) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Notice.Description != "Your order has been placed!" {
		t.Fatalf("unexpected notice %+v", res.Notice)
	}

	stored, _ := f.store.Load(context.Background(), f.buyer.cartOwner())
	if !stored.IsEmpty() {
		t.Fatalf("cart should be cleared on success")
	}

	order, err := orders.NewRepository(f.client.DB()).FindByID(context.Background(), *res.Partitions[0].OrderID)
	if err != nil {
		t.Fatalf("load order: %v", err)
	}
	if !order.Total.Equal(decimal.RequireFromString("42.50")) {
		t.Fatalf("expected total 42.50, got %s", order.Total)
	}
	if order.Status != enums.OrderStatusPending || order.ClientName != "Bob's Builders" || order.ItemCount != 8 {
		t.Fatalf("unexpected order %+v", order)
	}
	if len(order.Items) != 2 || order.Items[0].Name != "Bricks" || order.Items[1].Quantity != 5 {
		t.Fatalf("items not frozen in cart order: %+v", order.Items)
	}
	if n := countRows(t, f.client.DB(), &models.OutboxEvent{}); n != 1 {
		t.Fatalf("expected one order.created event, got %d", n)
	}
}

func TestCheckoutSplitsMixedCartBySupplier(t *testing.T) {
	f := newFixture(t)
	first := uuid.New()
	second := uuid.New()
	f.seedCart(t,
		cart.Line{Product: snapshot(first, "A", "1.00"), Quantity: 2},
		cart.Line{Product: snapshot(second, "B", "5.00"), Quantity: 1},
		cart.Line{Product: snapshot(first, "C", "3.00"), Quantity: 1},
	)

	res, err := f.svc.Checkout(context.Background(), f.buyer)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if res.OrdersCreated != 2 {
		t.Fatalf("expected two orders, got %+v", res)
	}
	if res.Partitions[0].SupplierID != first || !res.Partitions[0].Total.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("first partition wrong: %+v", res.Partitions[0])
	}
	if res.Partitions[1].SupplierID != second || !res.Partitions[1].Total.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("second partition wrong: %+v", res.Partitions[1])
	}
	if n := countRows(t, f.client.DB(), &models.Order{}); n != 2 {
		t.Fatalf("expected 2 orders, got %d", n)
	}
}

func TestCheckoutPartialFailureKeepsFailedLines(t *testing.T) {
	good := uuid.New()
	bad := uuid.New()
	f := newFixture(t, bad)
	goodLine := cart.Line{Product: snapshot(good, "Good", "4.00"), Quantity: 1}
	badLine := cart.Line{Product: snapshot(bad, "Bad", "6.00"), Quantity: 2}
	f.seedCart(t, goodLine, badLine)

	res, err := f.svc.Checkout(context.Background(), f.buyer)
	if err != nil {
		t.Fatalf("partial failure should not be an error: %v", err)
	}
	if !res.Partial() || res.OrdersCreated != 1 || res.Failed != 1 {
		t.Fatalf("expected partial result, got %+v", res)
	}
	if res.Partitions[1].Status != PartitionFailed || res.Partitions[1].OrderID != nil {
		t.Fatalf("failed partition misreported: %+v", res.Partitions[1])
	}
	if res.Notice.Severity != enums.NoticeSeverityDestructive {
		t.Fatalf("partial failure needs a destructive notice")
	}

	stored, _ := f.store.Load(context.Background(), f.buyer.cartOwner())
	if len(stored.Lines) != 1 || stored.Lines[0].Product.ID != badLine.Product.ID {
		t.Fatalf("only failed lines should remain, got %+v", stored.Lines)
	}
	if n := countRows(t, f.client.DB(), &models.OutboxEvent{}); n != 1 {
		t.Fatalf("failed partition must not leave an event, got %d", n)
	}
}

func TestCheckoutTotalFailureLeavesCart(t *testing.T) {
	supplier := uuid.New()
	f := newFixture(t, supplier)
	f.seedCart(t, cart.Line{Product: snapshot(supplier, "Only", "1.00"), Quantity: 1})

	_, err := f.svc.Checkout(context.Background(), f.buyer)
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if details, ok := pkgerrors.As(err).Details().(map[string]any); !ok || details["partitions"] == nil {
		t.Fatalf("expected per-partition details, got %#v", pkgerrors.As(err).Details())
	}
	stored, _ := f.store.Load(context.Background(), f.buyer.cartOwner())
	if stored.ItemCount() != 1 {
		t.Fatalf("cart must survive a failed checkout")
	}
}

func TestCheckoutPreconditions(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Checkout(context.Background(), Buyer{}); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	_, err := f.svc.Checkout(context.Background(), f.buyer)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) || pkgerrors.As(err).Message() != "Your cart is empty." {
		t.Fatalf("expected empty cart validation, got %v", err)
	}
	if n := countRows(t, f.client.DB(), &models.Order{}); n != 0 {
		t.Fatalf("preconditions must not write, got %d orders", n)
	}
}

func TestPartitionBySupplierOrder(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	c := &cart.Cart{Lines: []cart.Line{
		{Product: snapshot(b, "1", "1.00"), Quantity: 1},
		{Product: snapshot(a, "2", "1.00"), Quantity: 1},
		{Product: snapshot(b, "3", "1.00"), Quantity: 4},
	}}
	parts := PartitionBySupplier(c)
	if len(parts) != 2 || parts[0].SupplierID != b || parts[1].SupplierID != a {
		t.Fatalf("partitions not in first-appearance order: %+v", parts)
	}
	if parts[0].ItemCount() != 5 || len(parts[0].Lines) != 2 {
		t.Fatalf("unexpected first partition %+v", parts[0])
	}
	if PartitionBySupplier(&cart.Cart{}) != nil {
		t.Fatalf("empty cart has no partitions")
	}
}
