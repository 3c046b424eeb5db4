package orders

import (
	"context"

	"github.com/angelmondragon/hauler-backend/pkg/db/models"
	"github.com/angelmondragon/hauler-backend/pkg/enums"
	"github.com/angelmondragon/hauler-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, query ListQuery) ([]models.Order, error)
	UpdateStatusIfCurrent(ctx context.Context, id uuid.UUID, current, next enums.OrderStatus) (bool, error)
	ClientSummaries(ctx context.Context, supplierID uuid.UUID) ([]ClientSummary, error)
}

// ClientSummary aggregates one client's orders with a supplier.
type ClientSummary struct {
	ClientID   uuid.UUID
	ClientName string
	OrderCount int
	TotalValue decimal.Decimal
}

// ListQuery scopes an order listing. Exactly one of ClientID or SupplierID is set.
type ListQuery struct {
	ClientID   *uuid.UUID
	SupplierID *uuid.UUID
	Status     *enums.OrderStatus
	Limit      int
	Cursor     *pagination.Cursor
}
