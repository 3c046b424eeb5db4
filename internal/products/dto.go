package product

import (
	"time"

	"github.com/angelmondragon/hauler-backend/internal/cart"
	"github.com/angelmondragon/hauler-backend/pkg/db/models"
	"github.com/angelmondragon/hauler-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductDTO represents the product payload returned to clients and suppliers.
type ProductDTO struct {
	ID            uuid.UUID       `json:"id"`
	SupplierID    uuid.UUID       `json:"supplier_id"`
	SupplierName  string          `json:"supplier_name"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	MOQ           int             `json:"moq"`
	ImageDataURL  *string         `json:"image_data_url,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ListResult is one cursor page of products.
type ListResult struct {
	Items      []ProductDTO `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// NewProductDTO maps a persisted product to its API shape.
func NewProductDTO(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	moq := p.MOQ
	if moq < 1 {
		moq = 1
	}
	return &ProductDTO{
		ID:            p.ID,
		SupplierID:    p.SupplierID,
		SupplierName:  p.SupplierName,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		MOQ:           moq,
		ImageDataURL:  p.ImageDataURL,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// Snapshot freezes the product for a cart line.
func Snapshot(p *models.Product) cart.ProductSnapshot {
	return cart.ProductSnapshot{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		MOQ:           p.MOQ,
		SupplierID:    p.SupplierID,
		SupplierName:  p.SupplierName,
		ImageDataURL:  p.ImageDataURL,
	}
}

func newListResult(rows []models.Product, limit int) *ListResult {
	page, next := pagination.Trim(rows, limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	items := make([]ProductDTO, 0, len(page))
	for i := range page {
		items = append(items, *NewProductDTO(&page[i]))
	}
	return &ListResult{Items: items, NextCursor: next}
}
