package checkout

import (
	"github.com/angelmondragon/hauler-backend/internal/cart"
	"github.com/angelmondragon/hauler-backend/pkg/db/models"
	"github.com/angelmondragon/hauler-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Partition is the subset of cart lines belonging to one supplier.
type Partition struct {
	SupplierID   uuid.UUID
	SupplierName string
	Lines        []cart.Line
}

// Total sums price times quantity over the partition.
func (p Partition) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range p.Lines {
		total = total.Add(line.LineTotal())
	}
	return total
}

// ItemCount sums quantities over the partition.
func (p Partition) ItemCount() int {
	count := 0
	for _, line := range p.Lines {
		count += line.Quantity
	}
	return count
}

// PartitionBySupplier groups lines by supplier in order of each supplier's first appearance.
// Carts are single-supplier, but mixed carts are still split correctly.
func PartitionBySupplier(c *cart.Cart) []Partition {
	if c.IsEmpty() {
		return nil
	}
	index := map[uuid.UUID]int{}
	var out []Partition
	for _, line := range c.Lines {
		supplierID := line.Product.SupplierID
		idx, ok := index[supplierID]
		if !ok {
			idx = len(out)
			index[supplierID] = idx
			out = append(out, Partition{SupplierID: supplierID, SupplierName: line.Product.SupplierName})
		}
		out[idx].Lines = append(out[idx].Lines, line)
	}
	return out
}

// buildOrder freezes a partition into a pending order for buyer.
func buildOrder(buyer Buyer, p Partition) *models.Order {
	items := make([]models.OrderItem, 0, len(p.Lines))
	for i, line := range p.Lines {
		items = append(items, models.OrderItem{
			Position:  i,
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			UnitPrice: line.Product.Price,
			Quantity:  line.Quantity,
			LineTotal: line.LineTotal(),
		})
	}
	return &models.Order{
		ClientID:   buyer.ID,
		ClientName: buyer.DisplayName,
		SupplierID: p.SupplierID,
		Status:     enums.OrderStatusPending,
		Total:      p.Total(),
		ItemCount:  p.ItemCount(),
		Items:      items,
	}
}
