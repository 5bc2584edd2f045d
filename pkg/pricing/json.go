package pricing

import (
	"encoding/json"
	"fmt"

	"cleanuri/pkg/errs"

	"github.com/shopspring/decimal"
)

// price marshals a decimal as a JSON string keeping its scale, so 10.00
// stays "10.00" instead of decimal's default "10".
type price decimal.Decimal

func (p price) MarshalJSON() ([]byte, error) {
	return json.Marshal(FormatPrice(decimal.Decimal(p)))
}

// FormatPrice renders d with as many fractional digits as it was created
// with.
func FormatPrice(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}

type discountOut struct {
	Quantity  int   `json:"quantity"`
	UnitPrice price `json:"unit_price"`
}

type pricingOut struct {
	UnitPrice *price        `json:"unit_price,omitempty"`
	Discounts []discountOut `json:"discounts"`
}

type discountIn struct {
	Quantity  *int                `json:"quantity"`
	UnitPrice decimal.NullDecimal `json:"unit_price"`
}

type pricingIn struct {
	UnitPrice decimal.NullDecimal `json:"unit_price"`
	Discounts []Discount          `json:"discounts"`
}

func (d Discount) MarshalJSON() ([]byte, error) {
	return json.Marshal(discountOut{Quantity: d.quantity, UnitPrice: price(d.unitPrice)})
}

// UnmarshalJSON decodes {"quantity": n, "unit_price": x}. Absent or null
// fields fail with errs.ErrMissingValue, out of range values with
// errs.ErrInvalidArgument.
func (d *Discount) UnmarshalJSON(data []byte) error {
	var in discountIn
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Quantity == nil {
		return errs.MissingValue("discount quantity")
	}
	if !in.UnitPrice.Valid {
		return errs.MissingValue("discount unit_price")
	}

	decoded, err := NewDiscount(*in.Quantity, in.UnitPrice.Decimal)
	if err != nil {
		return err
	}
	*d = decoded
	return nil
}

// MarshalJSON writes the wire format. The base price is written as
// unit_price and never repeated inside discounts.
func (p *Pricing) MarshalJSON() ([]byte, error) {
	out := pricingOut{Discounts: []discountOut{}}
	if unit, ok := p.UnitPrice(); ok {
		up := price(unit)
		out.UnitPrice = &up
	}
	for d := range p.Discounts() {
		out.Discounts = append(out.Discounts, discountOut{Quantity: d.quantity, UnitPrice: price(d.unitPrice)})
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the wire format. A quantity-1 entry inside discounts
// is merged into the base price exactly like Builder.AddDiscount(1, ...);
// an explicit unit_price wins over it. A document without any price point
// fails with errs.ErrMissingValue.
func (p *Pricing) UnmarshalJSON(data []byte) error {
	var in pricingIn
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decode pricing: %w", err)
	}

	b := NewBuilder().Add(in.Discounts...)
	if in.UnitPrice.Valid {
		if err := b.SetUnitPrice(in.UnitPrice.Decimal); err != nil {
			return err
		}
	}

	built, ok := b.Build()
	if !ok {
		return errs.MissingValue("pricing requires a unit_price or at least one discount")
	}
	*p = *built
	return nil
}
