package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/hauler-backend/pkg/db/models"
	"github.com/angelmondragon/hauler-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/hauler-backend/pkg/errors"
	"github.com/angelmondragon/hauler-backend/pkg/logger"
	"github.com/angelmondragon/hauler-backend/pkg/metrics"
	"github.com/angelmondragon/hauler-backend/pkg/outbox"
	"github.com/angelmondragon/hauler-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/hauler-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Actor is the authenticated caller as seen by the order service.
type Actor struct {
	ID   uuid.UUID
	Role enums.UserRole
}

// ListParams filters a role-scoped order listing.
type ListParams struct {
	Status     *enums.OrderStatus
	Pagination pagination.Params
}

// Service exposes the order status machine and order reads.
type Service interface {
	SetStatus(ctx context.Context, orderID uuid.UUID, status string, actor Actor) (*OrderDTO, error)
	ListOrders(ctx context.Context, actor Actor, params ListParams) (*ListResult, error)
	GetOrder(ctx context.Context, orderID uuid.UUID, actor Actor) (*OrderDTO, error)
	ListClients(ctx context.Context, actor Actor) (*ClientList, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outbox.Emitter
	metrics *metrics.Metrics
	logg    *logger.Logger
}

// NewService wires the order service.
func NewService(repo Repository, tx txRunner, emitter outbox.Emitter, m *metrics.Metrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
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
	return &service{repo: repo, tx: tx, outbox: emitter, metrics: m, logg: logg}, nil
}

func (s *service) SetStatus(ctx context.Context, orderID uuid.UUID, status string, actor Actor) (*OrderDTO, error) {
	target, err := enums.ParseOrderStatus(status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").
			WithDetails(map[string]any{"allowed": []enums.OrderStatus{
				enums.OrderStatusPending, enums.OrderStatusShipped, enums.OrderStatusDelivered, enums.OrderStatusCancelled,
			}})
	}

	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actor.Role != enums.UserRoleSupplier || order.SupplierID != actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the owning supplier can update this order")
	}
	if order.Status == target {
		return NewOrderDTO(order), nil
	}
	if !order.Status.CanTransitionTo(target) {
		return nil, transitionConflict(order.Status, target)
	}

	from := order.Status
	changedAt := time.Now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		applied, err := s.repo.WithTx(tx).UpdateStatusIfCurrent(ctx, order.ID, from, target)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently, reload and retry")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: actor.ID, Role: actor.Role},
			OccurredAt:    changedAt,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:    order.ID,
				ClientID:   order.ClientID,
				SupplierID: order.SupplierID,
				From:       from,
				To:         target,
				ChangedAt:  changedAt,
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set order status")
	}

	s.metrics.IncOrderTransition(from.String(), target.String())
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":    order.ID.String(),
		"status_from": from.String(),
		"status_to":   target.String(),
	})
	s.logg.Info(logCtx, "order status updated")

	order.Status = target
	order.UpdatedAt = changedAt
	return NewOrderDTO(order), nil
}

func (s *service) ListOrders(ctx context.Context, actor Actor, params ListParams) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", *params.Status)
	}

	query := ListQuery{Status: params.Status, Limit: params.Pagination.Limit, Cursor: cursor}
	switch actor.Role {
	case enums.UserRoleClient:
		query.ClientID = &actor.ID
	case enums.UserRoleSupplier:
		query.SupplierID = &actor.ID
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot list orders")
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return newListResult(rows, params.Pagination.Limit), nil
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID, actor Actor) (*OrderDTO, error) {
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ClientID != actor.ID && order.SupplierID != actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return NewOrderDTO(order), nil
}

// ListClients summarizes every client that has ordered from the supplier.
func (s *service) ListClients(ctx context.Context, actor Actor) (*ClientList, error) {
	if actor.Role != enums.UserRoleSupplier {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only suppliers have a client list")
	}
	rows, err := s.repo.ClientSummaries(ctx, actor.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summarize clients")
	}
	return newClientList(rows), nil
}

func (s *service) find(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func transitionConflict(from, to enums.OrderStatus) error {
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move order from %s to %s", from, to).
		WithDetails(map[string]any{
			"current":             from,
			"requested":           to,
			"terminal":            from.IsTerminal(),
			"allowed_transitions": from.AllowedTransitions(),
		})
}
