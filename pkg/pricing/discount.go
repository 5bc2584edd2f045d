package pricing

import (
	"fmt"

	"cleanuri/pkg/errs"

	"github.com/shopspring/decimal"
)

// Discount is a quantity-based unit price: buying at least Quantity items
// costs UnitPrice per item.
type Discount struct {
	quantity  int
	unitPrice decimal.Decimal
}

// NewDiscount validates and creates a discount tier.
func NewDiscount(quantity int, unitPrice decimal.Decimal) (Discount, error) {
	if quantity <= 0 {
		return Discount{}, errs.InvalidArgument("quantity must be greater than zero, got %d", quantity)
	}
	if unitPrice.IsNegative() {
		return Discount{}, errs.InvalidArgument("unit price cannot be negative, got %s", unitPrice)
	}
	return Discount{quantity: quantity, unitPrice: unitPrice}, nil
}

// MustDiscount is like NewDiscount but panics on invalid input. Meant for
// literals in tests and fixtures.
func MustDiscount(quantity int, unitPrice string) Discount {
	d, err := NewDiscount(quantity, decimal.RequireFromString(unitPrice))
	if err != nil {
		panic(err)
	}
	return d
}

func (d Discount) Quantity() int {
	return d.quantity
}

func (d Discount) UnitPrice() decimal.Decimal {
	return d.unitPrice
}

// Equal compares quantities and price values; 9.0 and 9.00 are equal.
func (d Discount) Equal(other Discount) bool {
	return d.quantity == other.quantity && d.unitPrice.Equal(other.unitPrice)
}

func (d Discount) String() string {
	return fmt.Sprintf("%d@%s", d.quantity, d.unitPrice)
}
