package cart

import (
	"context"
	"fmt"

	"github.com/angelmondragon/hauler-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/hauler-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Owner scopes a cart to one buyer session.
type Owner struct {
	BuyerID   uuid.UUID
	SessionID string
}

func (o Owner) validate() error {
	if o.BuyerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity required")
	}
	return nil
}

// Store persists one serialized cart per owner. Writes are last-write-wins.
type Store interface {
	Load(ctx context.Context, owner Owner) (*Cart, error)
	Save(ctx context.Context, owner Owner, cart *Cart) error
	Delete(ctx context.Context, owner Owner) error
}

// ProductLookup resolves the live product for an add.
type ProductLookup interface {
	Lookup(ctx context.Context, id uuid.UUID) (ProductSnapshot, error)
}

// Notifier receives every notice produced by a cart operation. It must not block.
type Notifier interface {
	Notify(ctx context.Context, operation string, owner Owner, mutation Mutation)
}

// LineView is a cart line as rendered to the buyer.
type LineView struct {
	Product   ProductSnapshot `json:"product"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// View is the read model of a cart including display-time tax.
type View struct {
	Lines        []LineView      `json:"lines"`
	SupplierID   *uuid.UUID      `json:"supplier_id,omitempty"`
	SupplierName string          `json:"supplier_name,omitempty"`
	ItemCount    int             `json:"item_count"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	TaxPercent   decimal.Decimal `json:"tax_percent"`
	Tax          decimal.Decimal `json:"tax"`
	Total        decimal.Decimal `json:"total"`
}

// Result is returned by every mutating call.
type Result struct {
	Cart    View              `json:"cart"`
	Outcome enums.CartOutcome `json:"outcome"`
	Notice  Notice            `json:"notice"`
}

// Service exposes the buyer cart operations.
type Service interface {
	View(ctx context.Context, owner Owner) (*View, error)
	Add(ctx context.Context, owner Owner, productID uuid.UUID, quantity int) (*Result, error)
	UpdateQuantity(ctx context.Context, owner Owner, productID uuid.UUID, quantity int) (*Result, error)
	Remove(ctx context.Context, owner Owner, productID uuid.UUID) (*Result, error)
	Clear(ctx context.Context, owner Owner) (*Result, error)
}

type service struct {
	store      Store
	products   ProductLookup
	notifier   Notifier
	taxPercent decimal.Decimal
}

// NewService builds the cart service. taxPercent is a 0-100 display-time rate.
func NewService(store Store, products ProductLookup, notifier Notifier, taxPercent decimal.Decimal) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if taxPercent.IsNegative() {
		return nil, fmt.Errorf("tax percent must not be negative")
	}
	return &service{
		store:      store,
		products:   products,
		notifier:   notifier,
		taxPercent: taxPercent,
	}, nil
}

func (s *service) View(ctx context.Context, owner Owner) (*View, error) {
	c, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	view := BuildView(c, s.taxPercent)
	return &view, nil
}

func (s *service) Add(ctx context.Context, owner Owner, productID uuid.UUID, quantity int) (*Result, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	c, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	product, err := s.products.Lookup(ctx, productID)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup product")
	}
	return s.apply(ctx, "add", owner, c, c.AddToCart(product, quantity))
}

func (s *service) UpdateQuantity(ctx context.Context, owner Owner, productID uuid.UUID, quantity int) (*Result, error) {
	c, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, "update", owner, c, c.UpdateQuantity(productID, quantity))
}

func (s *service) Remove(ctx context.Context, owner Owner, productID uuid.UUID) (*Result, error) {
	c, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, "remove", owner, c, c.RemoveFromCart(productID))
}

func (s *service) Clear(ctx context.Context, owner Owner) (*Result, error) {
	if err := owner.validate(); err != nil {
		return nil, err
	}
	c := &Cart{}
	m := c.ClearCart()
	if err := s.store.Delete(ctx, owner); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	s.notifier.Notify(ctx, "clear", owner, m)
	return &Result{Cart: BuildView(c, s.taxPercent), Outcome: m.Outcome, Notice: m.Notice}, nil
}

func (s *service) load(ctx context.Context, owner Owner) (*Cart, error) {
	if err := owner.validate(); err != nil {
		return nil, err
	}
	c, err := s.store.Load(ctx, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if c == nil {
		c = &Cart{}
	}
	return c, nil
}

func (s *service) apply(ctx context.Context, operation string, owner Owner, c *Cart, m Mutation) (*Result, error) {
	if m.Applied() {
		if err := s.store.Save(ctx, owner, c); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
		}
	}
	s.notifier.Notify(ctx, operation, owner, m)
	return &Result{Cart: BuildView(c, s.taxPercent), Outcome: m.Outcome, Notice: m.Notice}, nil
}

// BuildView renders c with a flat tax percentage applied to the subtotal.
func BuildView(c *Cart, taxPercent decimal.Decimal) View {
	view := View{
		Lines:      make([]LineView, 0),
		TaxPercent: taxPercent,
		Subtotal:   c.Total(),
		ItemCount:  c.ItemCount(),
	}
	if !c.IsEmpty() {
		for _, line := range c.Lines {
			view.Lines = append(view.Lines, LineView{
				Product:   line.Product,
				Quantity:  line.Quantity,
				LineTotal: line.LineTotal(),
			})
		}
		supplierID := c.SupplierID()
		view.SupplierID = &supplierID
		view.SupplierName = c.Lines[0].Product.SupplierName
	}
	view.Tax = view.Subtotal.Mul(taxPercent).Div(decimal.NewFromInt(100)).Round(2)
	view.Total = view.Subtotal.Add(view.Tax)
	return view
}
