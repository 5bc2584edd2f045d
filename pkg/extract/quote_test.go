package extract

import (
	"encoding/json"
	"errors"
	"testing"

	"cleanuri/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuote(t *testing.T) {
	svc := newTestService(t, nil)
	p := tiers(t, "10.00", map[int]string{5: "9.00", 10: "8.50", 20: "7.00"})

	tests := []struct {
		quantity int
		unit     string
		total    string
	}{
		{1, "10.00", "10.00"},
		{3, "10.00", "30.00"},
		{10, "8.50", "85.00"},
		{15, "8.50", "127.50"},
		{25, "7.00", "175.00"},
	}

	for _, tt := range tests {
		q, err := svc.Quote(p, tt.quantity)
		require.NoError(t, err)
		assert.Equal(t, tt.unit, q.UnitPrice.StringFixed(2))
		assert.Equal(t, tt.total, q.TotalPrice.StringFixed(2))
		assert.True(t, q.Sane)
	}
}

func TestQuote_Errors(t *testing.T) {
	svc := newTestService(t, nil)
	onlyBulk := tiers(t, "", map[int]string{5: "9.00"})

	_, err := svc.Quote(onlyBulk, 0)
	assert.True(t, errors.Is(err, errs.ErrInvalidArgument))

	_, err = svc.Quote(onlyBulk, 3)
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	_, err = svc.Quote(nil, 3)
	assert.True(t, errors.Is(err, errs.ErrMissingValue))
}

func TestQuote_JSON(t *testing.T) {
	svc := newTestService(t, nil)
	q, err := svc.Quote(tiers(t, "", map[int]string{5: "9.00", 10: "10.00"}), 10)
	require.NoError(t, err)

	data, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `{"quantity":10,"unit_price":"10.00","total_price":"100.00","sane":false}`, string(data))
}
