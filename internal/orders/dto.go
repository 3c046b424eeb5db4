package orders

import (
	"time"

	"github.com/angelmondragon/hauler-backend/pkg/db/models"
	"github.com/angelmondragon/hauler-backend/pkg/enums"
	"github.com/angelmondragon/hauler-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderDTO is the order payload shared by the client and supplier views.
type OrderDTO struct {
	ID                 uuid.UUID           `json:"id"`
	ClientID           uuid.UUID           `json:"client_id"`
	ClientName         string              `json:"client_name"`
	SupplierID         uuid.UUID           `json:"supplier_id"`
	Status             enums.OrderStatus   `json:"status"`
	AllowedTransitions []enums.OrderStatus `json:"allowed_transitions"`
	Total              decimal.Decimal     `json:"total"`
	ItemCount          int                 `json:"item_count"`
	Items              []OrderItemDTO      `json:"items"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// OrderItemDTO is a frozen purchased line.
type OrderItemDTO struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// ListResult is one cursor page of orders.
type ListResult struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// ClientSummaryDTO is one row of a supplier's client list.
type ClientSummaryDTO struct {
	ClientID   uuid.UUID       `json:"client_id"`
	ClientName string          `json:"client_name"`
	OrderCount int             `json:"order_count"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// ClientList is the supplier's client list.
type ClientList struct {
	Clients []ClientSummaryDTO `json:"clients"`
}

// NewOrderDTO maps a persisted order to its API shape.
func NewOrderDTO(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		})
	}
	return &OrderDTO{
		ID:                 o.ID,
		ClientID:           o.ClientID,
		ClientName:         o.ClientName,
		SupplierID:         o.SupplierID,
		Status:             o.Status,
		AllowedTransitions: o.Status.AllowedTransitions(),
		Total:              o.Total,
		ItemCount:          o.ItemCount,
		Items:              items,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

func newListResult(rows []models.Order, limit int) *ListResult {
	page, next := pagination.Trim(rows, limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	out := make([]OrderDTO, 0, len(page))
	for i := range page {
		out = append(out, *NewOrderDTO(&page[i]))
	}
	return &ListResult{Orders: out, NextCursor: next}
}

func newClientList(rows []ClientSummary) *ClientList {
	out := make([]ClientSummaryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, ClientSummaryDTO{
			ClientID:   row.ClientID,
			ClientName: row.ClientName,
			OrderCount: row.OrderCount,
			TotalValue: row.TotalValue.Round(2),
		})
	}
	return &ClientList{Clients: out}
}
