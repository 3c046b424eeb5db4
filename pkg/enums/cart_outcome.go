package enums

// CartOutcome reports what a single cart mutation did.
type CartOutcome string

const (
	CartOutcomeAdded                 CartOutcome = "added"
	CartOutcomeQuantityIncreased     CartOutcome = "quantity_increased"
	CartOutcomeClampedToMOQ          CartOutcome = "clamped_to_moq"
	CartOutcomeRejectedOutOfStock    CartOutcome = "rejected_out_of_stock"
	CartOutcomeRejectedCrossSupplier CartOutcome = "rejected_cross_supplier"
	CartOutcomeRejectedStockLimit    CartOutcome = "rejected_stock_limit"
	CartOutcomeUpdated               CartOutcome = "updated"
	CartOutcomeClampedToStock        CartOutcome = "clamped_to_stock"
	CartOutcomeNotInCart             CartOutcome = "not_in_cart"
	CartOutcomeRemoved               CartOutcome = "removed"
	CartOutcomeCleared               CartOutcome = "cleared"
)

var validCartOutcomes = []CartOutcome{
	CartOutcomeAdded,
	CartOutcomeQuantityIncreased,
	CartOutcomeClampedToMOQ,
	CartOutcomeRejectedOutOfStock,
	CartOutcomeRejectedCrossSupplier,
	CartOutcomeRejectedStockLimit,
	CartOutcomeUpdated,
	CartOutcomeClampedToStock,
	CartOutcomeNotInCart,
	CartOutcomeRemoved,
	CartOutcomeCleared,
}

// String implements fmt.Stringer.
func (o CartOutcome) String() string {
	return string(o)
}

// IsValid reports whether the value is a known CartOutcome.
func (o CartOutcome) IsValid() bool {
	for _, candidate := range validCartOutcomes {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsRejection reports outcomes that left the cart untouched because a rule refused the change.
func (o CartOutcome) IsRejection() bool {
	switch o {
	case CartOutcomeRejectedOutOfStock, CartOutcomeRejectedCrossSupplier, CartOutcomeRejectedStockLimit, CartOutcomeNotInCart:
		return true
	default:
		return false
	}
}
