package extract

import (
	"encoding/json"
	"fmt"

	"cleanuri/pkg/errs"
	"cleanuri/pkg/pricing"

	"github.com/shopspring/decimal"
)

// Quote is the price of buying Quantity units under one Pricing.
type Quote struct {
	Quantity   int
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
	Sane       bool
}

func (q Quote) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Quantity   int    `json:"quantity"`
		UnitPrice  string `json:"unit_price"`
		TotalPrice string `json:"total_price"`
		Sane       bool   `json:"sane"`
	}{
		Quantity:   q.Quantity,
		UnitPrice:  pricing.FormatPrice(q.UnitPrice),
		TotalPrice: pricing.FormatPrice(q.TotalPrice),
		Sane:       q.Sane,
	})
}

// Quote resolves the tier that applies to quantity.
func (s *Service) Quote(p *pricing.Pricing, quantity int) (*Quote, error) {
	if p == nil {
		return nil, errs.MissingValue("pricing")
	}
	if quantity <= 0 {
		return nil, errs.InvalidArgument("quantity must be greater than zero, got %d", quantity)
	}

	unit, ok := p.FindDiscountedUnitPrice(quantity)
	if !ok {
		return nil, fmt.Errorf("%w: no price applies to quantity %d", errs.ErrNotFound, quantity)
	}
	total, _ := p.CalculateTotalPrice(quantity)

	return &Quote{
		Quantity:   quantity,
		UnitPrice:  unit,
		TotalPrice: total,
		Sane:       p.AreDiscountsSane(),
	}, nil
}
