package cart

import (
	"fmt"

	"github.com/angelmondragon/hauler-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductSnapshot is the copy of a product frozen into a cart line when it is added.
type ProductSnapshot struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	MOQ           int             `json:"moq"`
	SupplierID    uuid.UUID       `json:"supplier_id"`
	SupplierName  string          `json:"supplier_name"`
	ImageDataURL  *string         `json:"image_data_url,omitempty"`
}

// MinOrder returns the MOQ, treating missing values as 1.
func (p ProductSnapshot) MinOrder() int {
	if p.MOQ < 1 {
		return 1
	}
	return p.MOQ
}

// Line pairs a product snapshot with a quantity.
type Line struct {
	Product  ProductSnapshot `json:"product"`
	Quantity int             `json:"quantity"`
}

// LineTotal is price times quantity.
func (l Line) LineTotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds a buyer's pending lines in insertion order, unique by product id.
// A non-empty cart only ever contains products of one supplier.
type Cart struct {
	Lines []Line `json:"lines"`
}

// Notice is a user-facing message produced by a cart or checkout rule.
type Notice struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Severity    enums.NoticeSeverity `json:"severity"`
}

// Mutation describes what one engine operation did.
type Mutation struct {
	Outcome    enums.CartOutcome
	Notice     Notice
	Quantity   int
	MaxAllowed int
}

// Applied reports whether the mutation changed the cart.
func (m Mutation) Applied() bool {
	return !m.Outcome.IsRejection()
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Lines) == 0
}

// SupplierID returns the supplier shared by every line, or uuid.Nil for an empty cart.
func (c *Cart) SupplierID() uuid.UUID {
	if c.IsEmpty() {
		return uuid.Nil
	}
	return c.Lines[0].Product.SupplierID
}

// Total sums price times quantity over all lines.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	if c == nil {
		return total
	}
	for _, line := range c.Lines {
		total = total.Add(line.LineTotal())
	}
	return total
}

// ItemCount sums quantities over all lines.
func (c *Cart) ItemCount() int {
	if c == nil {
		return 0
	}
	count := 0
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}

// Line returns the line for productID, if present.
func (c *Cart) Line(productID uuid.UUID) (Line, bool) {
	if idx := c.indexOf(productID); idx >= 0 {
		return c.Lines[idx], true
	}
	return Line{}, false
}

func (c *Cart) indexOf(productID uuid.UUID) int {
	if c == nil {
		return -1
	}
	for i, line := range c.Lines {
		if line.Product.ID == productID {
			return i
		}
	}
	return -1
}

// AddToCart merges requested units of product into the cart.
func (c *Cart) AddToCart(product ProductSnapshot, requested int) Mutation {
	if requested < 1 {
		requested = 1
	}
	if product.StockQuantity <= 0 {
		return Mutation{
			Outcome: enums.CartOutcomeRejectedOutOfStock,
			Notice: Notice{
				Title:       "Out of stock",
				Description: fmt.Sprintf("%s is currently out of stock.", product.Name),
				Severity:    enums.NoticeSeverityDestructive,
			},
		}
	}
	if !c.IsEmpty() && c.SupplierID() != product.SupplierID {
		return Mutation{
			Outcome: enums.CartOutcomeRejectedCrossSupplier,
			Notice: Notice{
				Title:       "Error adding to cart",
				Description: "You can only order from one supplier at a time. Please clear your cart to add items from a different supplier.",
				Severity:    enums.NoticeSeverityDestructive,
			},
		}
	}

	idx := c.indexOf(product.ID)
	existing := 0
	if idx >= 0 {
		existing = c.Lines[idx].Quantity
	}
	candidate := existing + requested
	clamped := candidate < product.MinOrder()
	if clamped {
		candidate = product.MinOrder()
	}

	// Checked after the MOQ clamp so a minimum above stock is rejected, never stored.
	if candidate > product.StockQuantity {
		return Mutation{
			Outcome:    enums.CartOutcomeRejectedStockLimit,
			Quantity:   existing,
			MaxAllowed: product.StockQuantity,
			Notice: Notice{
				Title:       "Stock limit reached",
				Description: fmt.Sprintf("Only %d units of %s are available.", product.StockQuantity, product.Name),
				Severity:    enums.NoticeSeverityDestructive,
			},
		}
	}

	m := Mutation{Quantity: candidate, MaxAllowed: product.StockQuantity}
	switch {
	case clamped:
		m.Outcome = enums.CartOutcomeClampedToMOQ
		m.Notice = minimumOrderNotice(product)
	case idx >= 0:
		m.Outcome = enums.CartOutcomeQuantityIncreased
		m.Notice = Notice{
			Title:       "Cart updated",
			Description: fmt.Sprintf("%s quantity increased.", product.Name),
			Severity:    enums.NoticeSeverityInfo,
		}
	default:
		m.Outcome = enums.CartOutcomeAdded
		m.Notice = Notice{
			Title:       "Item added",
			Description: fmt.Sprintf("%s added to cart.", product.Name),
			Severity:    enums.NoticeSeverityInfo,
		}
	}

	if idx >= 0 {
		c.Lines[idx] = Line{Product: product, Quantity: candidate}
	} else {
		c.Lines = append(c.Lines, Line{Product: product, Quantity: candidate})
	}
	return m
}

// UpdateQuantity sets a line's quantity, clamping into [MOQ, stock]. Stock wins when MOQ exceeds it.
// It never removes the line.
func (c *Cart) UpdateQuantity(productID uuid.UUID, quantity int) Mutation {
	idx := c.indexOf(productID)
	if idx < 0 {
		return Mutation{
			Outcome: enums.CartOutcomeNotInCart,
			Notice: Notice{
				Title:       "Item not in cart",
				Description: "That product is no longer in your cart.",
				Severity:    enums.NoticeSeverityWarning,
			},
		}
	}

	line := c.Lines[idx]
	product := line.Product
	m := Mutation{MaxAllowed: product.StockQuantity}
	switch {
	case quantity > product.StockQuantity, product.MinOrder() > product.StockQuantity:
		quantity = product.StockQuantity
		m.Outcome = enums.CartOutcomeClampedToStock
		m.Notice = Notice{
			Title:       "Stock limit reached",
			Description: fmt.Sprintf("Only %d units of %s are available.", product.StockQuantity, product.Name),
			Severity:    enums.NoticeSeverityWarning,
		}
	case quantity < product.MinOrder():
		quantity = product.MinOrder()
		m.Outcome = enums.CartOutcomeClampedToMOQ
		m.Notice = minimumOrderNotice(product)
	default:
		m.Outcome = enums.CartOutcomeUpdated
		m.Notice = Notice{
			Title:       "Cart updated",
			Description: fmt.Sprintf("%s quantity set to %d.", product.Name, quantity),
			Severity:    enums.NoticeSeverityInfo,
		}
	}

	c.Lines[idx].Quantity = quantity
	m.Quantity = quantity
	return m
}

// RemoveFromCart deletes the line for productID. Absent ids are a no-op.
func (c *Cart) RemoveFromCart(productID uuid.UUID) Mutation {
	if idx := c.indexOf(productID); idx >= 0 {
		c.Lines = append(c.Lines[:idx], c.Lines[idx+1:]...)
	}
	return Mutation{
		Outcome: enums.CartOutcomeRemoved,
		Notice: Notice{
			Title:       "Item removed",
			Description: "Item removed from cart.",
			Severity:    enums.NoticeSeverityInfo,
		},
	}
}

// ClearCart drops every line.
func (c *Cart) ClearCart() Mutation {
	c.Lines = nil
	return Mutation{
		Outcome: enums.CartOutcomeCleared,
		Notice: Notice{
			Title:       "Cart cleared",
			Description: "All items were removed from your cart.",
			Severity:    enums.NoticeSeverityInfo,
		},
	}
}

func minimumOrderNotice(product ProductSnapshot) Notice {
	return Notice{
		Title:       "Minimum order",
		Description: fmt.Sprintf("The minimum order for %s is %d units. Quantity adjusted.", product.Name, product.MinOrder()),
		Severity:    enums.NoticeSeverityWarning,
	}
}
