package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/hauler-backend/internal/cart"
	"github.com/angelmondragon/hauler-backend/internal/orders"
	"github.com/angelmondragon/hauler-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/hauler-backend/pkg/errors"
	"github.com/angelmondragon/hauler-backend/pkg/logger"
	"github.com/angelmondragon/hauler-backend/pkg/metrics"
	"github.com/angelmondragon/hauler-backend/pkg/outbox"
	"github.com/angelmondragon/hauler-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Buyer is the authenticated client placing the order.
type Buyer struct {
	ID          uuid.UUID
	DisplayName string
	SessionID   string
}

func (b Buyer) cartOwner() cart.Owner {
	return cart.Owner{BuyerID: b.ID, SessionID: b.SessionID}
}

type PartitionStatus string

const (
	PartitionCreated PartitionStatus = "created"
	PartitionFailed  PartitionStatus = "failed"
)

// PartitionResult reports the outcome of one supplier order write.
type PartitionResult struct {
	SupplierID   uuid.UUID       `json:"supplier_id"`
	SupplierName string          `json:"supplier_name"`
	OrderID      *uuid.UUID      `json:"order_id,omitempty"`
	Total        decimal.Decimal `json:"total"`
	ItemCount    int             `json:"item_count"`
	Status       PartitionStatus `json:"status"`
	Error        string          `json:"error,omitempty"`
}

// Result is the per-partition outcome of a checkout.
type Result struct {
	Partitions    []PartitionResult `json:"partitions"`
	OrdersCreated int               `json:"orders_created"`
	Failed        int               `json:"failed"`
	Notice        cart.Notice       `json:"notice"`
}

// Partial reports whether some but not all partitions were written.
func (r *Result) Partial() bool {
	return r != nil && r.OrdersCreated > 0 && r.Failed > 0
}

// Service converts a buyer's cart into per-supplier orders.
type Service interface {
	Checkout(ctx context.Context, buyer Buyer) (*Result, error)
}

type service struct {
	carts   cart.Store
	orders  orders.Repository
	tx      txRunner
	outbox  outbox.Emitter
	metrics *metrics.Metrics
	logg    *logger.Logger
}

// NewService builds the checkout service.
func NewService(carts cart.Store, ordersRepo orders.Repository, tx txRunner, emitter outbox.Emitter, m *metrics.Metrics, logg *logger.Logger) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{carts: carts, orders: ordersRepo, tx: tx, outbox: emitter, metrics: m, logg: logg}, nil
}

// Checkout writes one order per supplier partition. Each partition is an independent
// transaction; a failed partition leaves its lines in the cart for a retry.
func (s *service) Checkout(ctx context.Context, buyer Buyer) (*Result, error) {
	started := time.Now()
	if buyer.ID == uuid.Nil {
		s.metrics.ObserveCheckout("rejected", time.Since(started))
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "You must be logged in to checkout.")
	}

	ctx = s.logg.WithUserID(ctx, buyer.ID.String())
	current, err := s.carts.Load(ctx, buyer.cartOwner())
	if err != nil {
		s.metrics.ObserveCheckout("failed", time.Since(started))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if current.IsEmpty() {
		s.metrics.ObserveCheckout("rejected", time.Since(started))
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Your cart is empty.")
	}

	partitions := PartitionBySupplier(current)
	result := &Result{Partitions: make([]PartitionResult, 0, len(partitions))}
	placed := map[uuid.UUID]struct{}{}

	for _, p := range partitions {
		pr := PartitionResult{
			SupplierID:   p.SupplierID,
			SupplierName: p.SupplierName,
			Total:        p.Total(),
			ItemCount:    p.ItemCount(),
		}
		orderID, err := s.placeOrder(ctx, buyer, p)
		if err != nil {
			pr.Status = PartitionFailed
			pr.Error = "order could not be saved"
			result.Failed++
			s.logg.Error(s.logg.WithField(ctx, "supplier_id", p.SupplierID.String()), "checkout partition failed", err)
		} else {
			pr.Status = PartitionCreated
			pr.OrderID = &orderID
			result.OrdersCreated++
			for _, line := range p.Lines {
				placed[line.Product.ID] = struct{}{}
			}
		}
		s.metrics.IncCheckoutPartition(string(pr.Status))
		result.Partitions = append(result.Partitions, pr)
	}

	switch {
	case result.Failed == 0:
		result.Notice = cart.Notice{
			Title:       "Success",
			Description: "Your order has been placed!",
			Severity:    enums.NoticeSeverityInfo,
		}
		if err := s.carts.Delete(ctx, buyer.cartOwner()); err != nil {
			s.logg.Error(ctx, "clear cart after checkout", err)
		}
		s.metrics.ObserveCheckout("success", time.Since(started))
	case result.OrdersCreated == 0:
		s.metrics.ObserveCheckout("failed", time.Since(started))
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "Failed to place order. Please try again.").
			WithDetails(map[string]any{"partitions": result.Partitions})
	default:
		result.Notice = cart.Notice{
			Title: "Order partially placed",
			Description: fmt.Sprintf("%d of %d supplier orders were placed. The remaining items are still in your cart. Please try again.",
				result.OrdersCreated, len(partitions)),
			Severity: enums.NoticeSeverityDestructive,
		}
		for productID := range placed {
			current.RemoveFromCart(productID)
		}
		if err := s.carts.Save(ctx, buyer.cartOwner(), current); err != nil {
			s.logg.Error(ctx, "trim cart after partial checkout", err)
		}
		s.metrics.ObserveCheckout("partial", time.Since(started))
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"orders_created": result.OrdersCreated,
		"partitions":     len(partitions),
	}), "checkout completed")
	return result, nil
}

// placeOrder is one saga step: the order, its items and its order.created event commit together.
func (s *service) placeOrder(ctx context.Context, buyer Buyer, p Partition) (uuid.UUID, error) {
	order := buildOrder(buyer, p)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.orders.WithTx(tx).CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: buyer.ID, Role: enums.UserRoleClient},
			Data: payloads.OrderCreatedEvent{
				OrderID:    order.ID,
				ClientID:   order.ClientID,
				ClientName: order.ClientName,
				SupplierID: order.SupplierID,
				Total:      order.Total,
				ItemCount:  order.ItemCount,
			},
		})
	})
	if err != nil {
		return uuid.Nil, err
	}
	return order.ID, nil
}
