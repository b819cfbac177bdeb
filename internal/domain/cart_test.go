package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestComputeCartTotals(t *testing.T) {
	items := []CartItem{
		{ProductID: "a", Qty: 2, PriceAtAdd: decimal.RequireFromString("10.00")},
		{ProductID: "b", Qty: 3, PriceAtAdd: decimal.RequireFromString("0.10")},
	}

	totals := ComputeCartTotals(items)

	assert.Equal(t, 5, totals.ItemCount)
	assert.True(t, totals.Subtotal.Equal(decimal.RequireFromString("20.30")), "got %s", totals.Subtotal)
}

func TestComputeCartTotals_Empty(t *testing.T) {
	totals := ComputeCartTotals(nil)

	assert.Equal(t, 0, totals.ItemCount)
	assert.True(t, totals.Subtotal.IsZero())
}

func TestComputeOrderTotal_IsExact(t *testing.T) {
	// 0.1 * 3 is not exact in binary floating point.
	items := []OrderItem{
		{ProductID: "a", Qty: 3, Price: decimal.RequireFromString("0.1")},
		{ProductID: "b", Qty: 1, Price: decimal.RequireFromString("0.2")},
	}

	assert.Equal(t, "0.5", ComputeOrderTotal(items).String())
}

func TestPageRequest_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   PageRequest
		want PageRequest
	}{
		{name: "defaults", in: PageRequest{}, want: PageRequest{Page: 1, Limit: 20}},
		{name: "clamps limit", in: PageRequest{Page: 2, Limit: 500}, want: PageRequest{Page: 2, Limit: 100}},
		{name: "keeps valid", in: PageRequest{Page: 3, Limit: 7}, want: PageRequest{Page: 3, Limit: 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize(DefaultPageLimit, MaxPageLimit))
		})
	}
}

func TestPage_Pages(t *testing.T) {
	p := NewPage([]int{1, 2}, 21, PageRequest{Page: 1, Limit: 10})
	assert.Equal(t, 3, p.Pages())

	empty := NewPage[int](nil, 0, PageRequest{Page: 1, Limit: 10})
	assert.Equal(t, 0, empty.Pages())
	assert.NotNil(t, empty.Items)
}

func TestOrderStatus_Valid(t *testing.T) {
	assert.True(t, OrderStatusShipped.Valid())
	assert.False(t, OrderStatus("lost").Valid())
}
