package cart

import (
	"testing"

	"github.com/angelmondragon/hauler-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func testProduct(supplier uuid.UUID, price string, stock, moq int) ProductSnapshot {
	return ProductSnapshot{
		ID:            uuid.New(),
		Name:          "Pallet of bricks",
		Description:   "Standard red clay bricks",
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		MOQ:           moq,
		SupplierID:    supplier,
		SupplierName:  "Acme Supply",
	}
}

func TestAddToCartClampsToMOQThenRejectsOverStock(t *testing.T) {
	t.Parallel()

	p := testProduct(uuid.New(), "10.00", 5, 3)
	c := &Cart{}

	m := c.AddToCart(p, 1)
	if m.Outcome != enums.CartOutcomeClampedToMOQ {
		t.Fatalf("expected clamped_to_moq, got %s", m.Outcome)
	}
	if m.Notice.Title != "Minimum order" {
		t.Fatalf("unexpected notice %q", m.Notice.Title)
	}
	if line, _ := c.Line(p.ID); line.Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", line.Quantity)
	}

	m = c.AddToCart(p, 10)
	if m.Outcome != enums.CartOutcomeRejectedStockLimit {
		t.Fatalf("expected rejected_stock_limit, got %s", m.Outcome)
	}
	if m.MaxAllowed != 5 {
		t.Fatalf("expected max allowed 5, got %d", m.MaxAllowed)
	}
	if line, _ := c.Line(p.ID); line.Quantity != 3 {
		t.Fatalf("rejected add changed quantity to %d", line.Quantity)
	}
	if !c.Total().Equal(decimal.RequireFromString("30.00")) {
		t.Fatalf("unexpected total %s", c.Total())
	}
}

func TestAddToCartRejectsMOQAboveStock(t *testing.T) {
	t.Parallel()

	p := testProduct(uuid.New(), "3.00", 2, 5)
	c := &Cart{}

	m := c.AddToCart(p, 1)
	if m.Outcome != enums.CartOutcomeRejectedStockLimit {
		t.Fatalf("expected rejected_stock_limit, got %s", m.Outcome)
	}
	if m.MaxAllowed != 2 || m.Quantity != 0 {
		t.Fatalf("unexpected mutation %+v", m)
	}
	if !c.IsEmpty() {
		t.Fatalf("minimum above stock must not add a line, got %+v", c.Lines)
	}
}

func TestUpdateQuantityNeverExceedsStockWhenMOQIsHigher(t *testing.T) {
	t.Parallel()

	p := testProduct(uuid.New(), "3.00", 2, 5)
	c := &Cart{Lines: []Line{{Product: p, Quantity: 2}}}

	for _, q := range []int{0, 1, 4} {
		m := c.UpdateQuantity(p.ID, q)
		if m.Outcome != enums.CartOutcomeClampedToStock {
			t.Fatalf("q=%d: expected clamped_to_stock, got %s", q, m.Outcome)
		}
		if line, _ := c.Line(p.ID); line.Quantity != 2 {
			t.Fatalf("q=%d: quantity %d exceeds stock 2", q, line.Quantity)
		}
	}
}

func TestAddToCartOutOfStockNeverTouchesCart(t *testing.T) {
	t.Parallel()

	supplier := uuid.New()
	existing := testProduct(supplier, "4.00", 10, 1)
	c := &Cart{}
	c.AddToCart(existing, 2)

	empty := testProduct(supplier, "1.00", 0, 1)
	for _, n := range []int{-1, 0, 1, 50} {
		m := c.AddToCart(empty, n)
		if m.Outcome != enums.CartOutcomeRejectedOutOfStock {
			t.Fatalf("n=%d expected rejected_out_of_stock, got %s", n, m.Outcome)
		}
		if m.Applied() {
			t.Fatalf("rejection should not report applied")
		}
	}
	if len(c.Lines) != 1 || c.Lines[0].Quantity != 2 {
		t.Fatalf("cart mutated: %+v", c.Lines)
	}
}

func TestAddToCartRejectsSecondSupplier(t *testing.T) {
	t.Parallel()

	c := &Cart{}
	first := testProduct(uuid.New(), "2.50", 10, 1)
	c.AddToCart(first, 4)

	other := testProduct(uuid.New(), "1.00", 10, 1)
	m := c.AddToCart(other, 1)
	if m.Outcome != enums.CartOutcomeRejectedCrossSupplier {
		t.Fatalf("expected rejected_cross_supplier, got %s", m.Outcome)
	}
	if m.Notice.Title != "Error adding to cart" || m.Notice.Severity != enums.NoticeSeverityDestructive {
		t.Fatalf("unexpected notice %+v", m.Notice)
	}
	if len(c.Lines) != 1 || c.SupplierID() != first.SupplierID {
		t.Fatalf("cart changed after cross-supplier add: %+v", c.Lines)
	}
}

func TestAddToCartIncreasesAndRefreshesSnapshot(t *testing.T) {
	t.Parallel()

	p := testProduct(uuid.New(), "3.00", 10, 1)
	c := &Cart{}
	if m := c.AddToCart(p, 2); m.Outcome != enums.CartOutcomeAdded || m.Notice.Title != "Item added" {
		t.Fatalf("unexpected first add %+v", m)
	}

	p.Price = decimal.RequireFromString("3.50")
	m := c.AddToCart(p, 0)
	if m.Outcome != enums.CartOutcomeQuantityIncreased {
		t.Fatalf("expected quantity_increased, got %s", m.Outcome)
	}
	if m.Quantity != 3 {
		t.Fatalf("zero request should count as one, got %d", m.Quantity)
	}
	if !c.Lines[0].Product.Price.Equal(p.Price) {
		t.Fatalf("snapshot not refreshed: %s", c.Lines[0].Product.Price)
	}
}

func TestUpdateQuantityClamps(t *testing.T) {
	t.Parallel()

	p := testProduct(uuid.New(), "1.00", 8, 2)
	c := &Cart{}
	c.AddToCart(p, 2)

	tests := []struct {
		name    string
		input   int
		want    int
		outcome enums.CartOutcome
	}{
		{name: "above stock", input: 20, want: 8, outcome: enums.CartOutcomeClampedToStock},
		{name: "below moq", input: 1, want: 2, outcome: enums.CartOutcomeClampedToMOQ},
		{name: "zero never removes", input: 0, want: 2, outcome: enums.CartOutcomeClampedToMOQ},
		{name: "negative", input: -4, want: 2, outcome: enums.CartOutcomeClampedToMOQ},
		{name: "exact", input: 5, want: 5, outcome: enums.CartOutcomeUpdated},
	}
	for _, tt := range tests {
		m := c.UpdateQuantity(p.ID, tt.input)
		if m.Outcome != tt.outcome {
			t.Fatalf("%s: expected %s, got %s", tt.name, tt.outcome, m.Outcome)
		}
		if line, ok := c.Line(p.ID); !ok || line.Quantity != tt.want {
			t.Fatalf("%s: expected quantity %d, got %+v", tt.name, tt.want, line)
		}
	}

	if m := c.UpdateQuantity(uuid.New(), 3); m.Outcome != enums.CartOutcomeNotInCart {
		t.Fatalf("expected not_in_cart, got %s", m.Outcome)
	}
}

func TestRemoveAndClear(t *testing.T) {
	t.Parallel()

	supplier := uuid.New()
	a := testProduct(supplier, "1.00", 5, 1)
	b := testProduct(supplier, "2.00", 5, 1)
	c := &Cart{}
	c.AddToCart(a, 1)
	c.AddToCart(b, 2)

	if m := c.RemoveFromCart(uuid.New()); m.Outcome != enums.CartOutcomeRemoved {
		t.Fatalf("absent remove should still report removed, got %s", m.Outcome)
	}
	if len(c.Lines) != 2 {
		t.Fatalf("absent remove changed cart")
	}

	c.RemoveFromCart(a.ID)
	if len(c.Lines) != 1 || c.Lines[0].Product.ID != b.ID {
		t.Fatalf("unexpected lines after remove: %+v", c.Lines)
	}

	c.ClearCart()
	if c.ItemCount() != 0 || !c.Total().IsZero() || !c.IsEmpty() {
		t.Fatalf("clear left state behind: %+v", c)
	}
	if c.SupplierID() != uuid.Nil {
		t.Fatalf("empty cart should have no supplier")
	}
}

func TestTotalIsRecomputedAfterRoundTrip(t *testing.T) {
	t.Parallel()

	p := testProduct(uuid.New(), "7.25", 10, 1)
	roundTrip := &Cart{}
	roundTrip.AddToCart(p, 2)
	roundTrip.RemoveFromCart(p.ID)
	roundTrip.AddToCart(p, 4)

	single := &Cart{}
	single.AddToCart(p, 4)

	if !roundTrip.Total().Equal(single.Total()) {
		t.Fatalf("totals diverged: %s vs %s", roundTrip.Total(), single.Total())
	}
	if roundTrip.ItemCount() != 4 {
		t.Fatalf("expected item count 4, got %d", roundTrip.ItemCount())
	}
}

func TestMinOrderDefaultsToOne(t *testing.T) {
	t.Parallel()

	p := testProduct(uuid.New(), "1.00", 3, 0)
	if p.MinOrder() != 1 {
		t.Fatalf("expected default moq 1, got %d", p.MinOrder())
	}
	c := &Cart{}
	if m := c.AddToCart(p, 1); m.Outcome != enums.CartOutcomeAdded {
		t.Fatalf("expected added, got %s", m.Outcome)
	}
}
