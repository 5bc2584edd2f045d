package pricing

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"cleanuri/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalPricing(t *testing.T) {
	p := build(t, "10.00", map[int]string{5: "9.00", 10: "8.50"})

	data, err := json.Marshal(p)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"unit_price": "10.00",
		"discounts": [
			{"quantity": 5, "unit_price": "9.00"},
			{"quantity": 10, "unit_price": "8.50"}
		]
	}`, string(data))
}

func TestMarshalPricing_WithoutUnitPrice(t *testing.T) {
	p := build(t, "", map[int]string{5: "9.00"})

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"discounts": [{"quantity": 5, "unit_price": "9.00"}]}`, string(data))
}

func TestMarshalPricing_OnlyUnitPrice(t *testing.T) {
	p := build(t, "1.5", nil)

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"unit_price": "1.5", "discounts": []}`, string(data))
}

func TestUnmarshalPricing(t *testing.T) {
	var p Pricing
	err := json.Unmarshal([]byte(`{
		"unit_price": "10.00",
		"discounts": [
			{"quantity": 10, "unit_price": 8.50},
			{"quantity": 5, "unit_price": "9.00"}
		]
	}`), &p)
	require.NoError(t, err)

	unit, ok := p.UnitPrice()
	require.True(t, ok)
	assert.True(t, dec("10.00").Equal(unit))

	discounts := slices.Collect(p.Discounts())
	require.Len(t, discounts, 2)
	assert.Equal(t, 5, discounts[0].Quantity())
	assert.Equal(t, 10, discounts[1].Quantity())

	total, ok := p.CalculateTotalPrice(12)
	require.True(t, ok)
	assert.True(t, dec("102.00").Equal(total))
}

func TestUnmarshalPricing_QuantityOneBecomesUnitPrice(t *testing.T) {
	var p Pricing
	require.NoError(t, json.Unmarshal([]byte(`{"discounts": [{"quantity": 1, "unit_price": "4.99"}]}`), &p))

	unit, ok := p.UnitPrice()
	require.True(t, ok)
	assert.True(t, dec("4.99").Equal(unit))
	assert.Empty(t, slices.Collect(p.Discounts()))
}

func TestUnmarshalPricing_ExplicitUnitPriceWins(t *testing.T) {
	var p Pricing
	require.NoError(t, json.Unmarshal([]byte(`{
		"unit_price": "5.00",
		"discounts": [{"quantity": 1, "unit_price": "4.99"}]
	}`), &p))

	unit, _ := p.UnitPrice()
	assert.True(t, dec("5.00").Equal(unit))
}

func TestUnmarshalPricing_Errors(t *testing.T) {
	tests := []struct {
		name string
		json string
		want error
	}{
		{"empty document", `{}`, errs.ErrMissingValue},
		{"null unit price and no discounts", `{"unit_price": null, "discounts": []}`, errs.ErrMissingValue},
		{"discount without unit price", `{"discounts": [{"quantity": 5, "unit_price": null}]}`, errs.ErrMissingValue},
		{"discount without quantity", `{"discounts": [{"unit_price": "9.00"}]}`, errs.ErrMissingValue},
		{"negative quantity", `{"discounts": [{"quantity": -5, "unit_price": "9.00"}]}`, errs.ErrInvalidArgument},
		{"zero quantity", `{"discounts": [{"quantity": 0, "unit_price": "9.00"}]}`, errs.ErrInvalidArgument},
		{"negative unit price", `{"unit_price": "-1.00"}`, errs.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Pricing
			err := json.Unmarshal([]byte(tt.json), &p)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "expected %v, got %v", tt.want, err)
		})
	}
}

func TestUnmarshalPricing_Malformed(t *testing.T) {
	var p Pricing
	err := json.Unmarshal([]byte(`{"unit_price": "ten"}`), &p)
	require.Error(t, err)
	assert.False(t, errors.Is(err, errs.ErrMissingValue))
}

func TestPricingRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		unitPrice string
		tiers     map[int]string
	}{
		{"full", "10.00", map[int]string{5: "9.00", 10: "8.50", 20: "7.00"}},
		{"no unit price", "", map[int]string{5: "9.00"}},
		{"only unit price", "0.99", nil},
		{"insane tiers survive", "1.00", map[int]string{2: "3.00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := build(t, tt.unitPrice, tt.tiers)

			data, err := json.Marshal(original)
			require.NoError(t, err)

			var decoded Pricing
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.True(t, original.Equal(&decoded), "round trip changed %s", data)
			assert.Equal(t, original.AreDiscountsSane(), decoded.AreDiscountsSane())
		})
	}
}

func TestDiscountJSON(t *testing.T) {
	data, err := json.Marshal(MustDiscount(3, "1.49"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"quantity": 3, "unit_price": "1.49"}`, string(data))

	var d Discount
	require.NoError(t, json.Unmarshal(data, &d))
	assert.True(t, MustDiscount(3, "1.49").Equal(d))
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		in   decimal.Decimal
		want string
	}{
		{dec("10.00"), "10.00"},
		{dec("8.5"), "8.5"},
		{dec("7"), "7"},
		{decimal.New(12, 1), "120"},
		{dec("0.10"), "0.10"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatPrice(tt.in))
	}
}
