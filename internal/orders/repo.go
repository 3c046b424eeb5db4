package orders

import (
	"context"
	"time"

	"github.com/angelmondragon/hauler-backend/pkg/db/models"
	"github.com/angelmondragon/hauler-backend/pkg/enums"
	"github.com/angelmondragon/hauler-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateOrder inserts the order and its items in one statement batch.
func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, query ListQuery) ([]models.Order, error) {
	qb := r.db.WithContext(ctx).Model(&models.Order{})
	if query.ClientID != nil {
		qb = qb.Where("client_id = ?", *query.ClientID)
	}
	if query.SupplierID != nil {
		qb = qb.Where("supplier_id = ?", *query.SupplierID)
	}
	if query.Status != nil {
		qb = qb.Where("status = ?", *query.Status)
	}
	if c := query.Cursor; c != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", c.CreatedAt, c.CreatedAt, c.ID)
	}

	var rows []models.Order
	err := qb.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(query.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateStatusIfCurrent applies next only while the row still holds current.
func (r *repository) UpdateStatusIfCurrent(ctx context.Context, id uuid.UUID, current, next enums.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, current).
		Updates(map[string]any{
			"status":     next,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ClientSummaries groups a supplier's orders by client, biggest spender first.
// Cancelled orders still count toward the totals.
func (r *repository) ClientSummaries(ctx context.Context, supplierID uuid.UUID) ([]ClientSummary, error) {
	var rows []ClientSummary
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("client_id, MAX(client_name) AS client_name, COUNT(*) AS order_count, COALESCE(SUM(total), 0) AS total_value").
		Where("supplier_id = ?", supplierID).
		Group("client_id").
		Order("total_value DESC").
		Order("client_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
