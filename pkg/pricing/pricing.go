// Package pricing models a unit price with quantity discounts.
//
// Example:
//
//	b := pricing.NewBuilder()
//	_ = b.SetUnitPrice(decimal.RequireFromString("10.00"))
//	_ = b.AddDiscount(5, decimal.RequireFromString("9.00"))
//	p, ok := b.Build()
package pricing

import (
	"iter"
	"maps"
	"slices"
	"sort"

	"github.com/shopspring/decimal"
)

// baseQuantity is the threshold of the base unit price.
const baseQuantity = 1

// Pricing is an immutable set of discount tiers. The tier at quantity 1 is the
// base unit price; it takes part in price resolution and sanity checks but is
// reported through UnitPrice rather than Discounts.
type Pricing struct {
	// tiers sorted ascending by quantity, base tier included
	tiers     []Discount
	unitPrice decimal.NullDecimal
}

// UnitPrice returns the base price per unit, if one was supplied.
func (p *Pricing) UnitPrice() (decimal.Decimal, bool) {
	return p.unitPrice.Decimal, p.unitPrice.Valid
}

// Discounts yields the discount tiers in ascending quantity order, excluding
// the base unit price.
func (p *Pricing) Discounts() iter.Seq[Discount] {
	return func(yield func(Discount) bool) {
		for _, d := range p.tiers {
			if d.quantity <= baseQuantity {
				continue
			}
			if !yield(d) {
				return
			}
		}
	}
}

// FindDiscountedUnitPrice returns the unit price of the largest tier whose
// quantity does not exceed quantity.
func (p *Pricing) FindDiscountedUnitPrice(quantity int) (decimal.Decimal, bool) {
	i := sort.Search(len(p.tiers), func(i int) bool {
		return p.tiers[i].quantity > quantity
	})
	if i == 0 {
		return decimal.Decimal{}, false
	}
	return p.tiers[i-1].unitPrice, true
}

// CalculateTotalPrice returns the discounted unit price times quantity.
func (p *Pricing) CalculateTotalPrice(quantity int) (decimal.Decimal, bool) {
	unit, ok := p.FindDiscountedUnitPrice(quantity)
	if !ok {
		return decimal.Decimal{}, false
	}
	return unit.Mul(decimal.NewFromInt(int64(quantity))), true
}

// AreDiscountsSane reports whether the unit price strictly decreases from
// each tier to the next, base price included.
func (p *Pricing) AreDiscountsSane() bool {
	for i := 1; i < len(p.tiers); i++ {
		if !p.tiers[i].unitPrice.LessThan(p.tiers[i-1].unitPrice) {
			return false
		}
	}
	return true
}

// Equal reports whether both pricings hold the same base price and tiers.
func (p *Pricing) Equal(other *Pricing) bool {
	if p == nil || other == nil {
		return p == other
	}
	return slices.EqualFunc(p.tiers, other.tiers, Discount.Equal)
}

// Builder accumulates discounts keyed by quantity; the last write for a
// quantity wins. The zero value is not usable, use NewBuilder.
type Builder struct {
	discounts map[int]Discount
}

func NewBuilder() *Builder {
	return &Builder{discounts: make(map[int]Discount)}
}

// SetUnitPrice sets the base price, i.e. the discount at quantity 1.
func (b *Builder) SetUnitPrice(unitPrice decimal.Decimal) error {
	return b.AddDiscount(baseQuantity, unitPrice)
}

// AddDiscount records a tier. Invalid tiers are rejected and leave the
// builder unchanged.
func (b *Builder) AddDiscount(quantity int, unitPrice decimal.Decimal) error {
	d, err := NewDiscount(quantity, unitPrice)
	if err != nil {
		return err
	}
	b.discounts[quantity] = d
	return nil
}

// Add records already validated discounts.
func (b *Builder) Add(discounts ...Discount) *Builder {
	for _, d := range discounts {
		if d.quantity <= 0 {
			continue
		}
		b.discounts[d.quantity] = d
	}
	return b
}

// Len returns the number of distinct tiers recorded so far.
func (b *Builder) Len() int {
	return len(b.discounts)
}

// Build returns the pricing, or false if no price point was ever supplied.
func (b *Builder) Build() (*Pricing, bool) {
	if len(b.discounts) == 0 {
		return nil, false
	}

	p := &Pricing{tiers: make([]Discount, 0, len(b.discounts))}
	for _, q := range slices.Sorted(maps.Keys(b.discounts)) {
		p.tiers = append(p.tiers, b.discounts[q])
	}
	if base, ok := b.discounts[baseQuantity]; ok {
		p.unitPrice = decimal.NewNullDecimal(base.unitPrice)
	}
	return p, true
}
