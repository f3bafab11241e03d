package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateOrderStatus(t *testing.T) {
	tests := []struct {
		name  string
		items []OrderItem
		lines []LineState
		want  OrderStatus
	}{
		{
			name:  "nothing shipped and no production means ready to ship",
			items: []OrderItem{{ID: 1, Qty: 100, FulfillmentMethod: MethodFromStock}},
			want:  OrderReadyToShip,
		},
		{
			name: "unfinished production dominates",
			items: []OrderItem{
				{ID: 1, Qty: 100, FulfillmentMethod: MethodFromStock},
				{ID: 2, Qty: 50, FulfillmentMethod: MethodProduction, ProducedQty: 20},
			},
			want: OrderInProgress,
		},
		{
			name: "finished production is ready to ship",
			items: []OrderItem{
				{ID: 1, Qty: 50, FulfillmentMethod: MethodProduction, ProducedQty: 50},
			},
			want: OrderReadyToShip,
		},
		{
			name:  "any quantity on a truck means shipping",
			items: []OrderItem{{ID: 1, Qty: 100, FulfillmentMethod: MethodFromStock}},
			lines: []LineState{{OrderItemID: 1, Qty: 40, Arrived: false}},
			want:  OrderShipping,
		},
		{
			name:  "on truck wins over arrived remainder",
			items: []OrderItem{{ID: 1, Qty: 100, ShippedQty: 60, FulfillmentMethod: MethodFromStock}},
			lines: []LineState{
				{OrderItemID: 1, Qty: 60, Arrived: true},
				{OrderItemID: 1, Qty: 40, Arrived: false},
			},
			want: OrderShipping,
		},
		{
			name:  "partially delivered with empty trucks is partial",
			items: []OrderItem{{ID: 1, Qty: 100, ShippedQty: 60, FulfillmentMethod: MethodFromStock}},
			lines: []LineState{{OrderItemID: 1, Qty: 60, Arrived: true}},
			want:  OrderPartial,
		},
		{
			name:  "fully delivered is done",
			items: []OrderItem{{ID: 1, Qty: 100, ShippedQty: 100, FulfillmentMethod: MethodFromStock}},
			lines: []LineState{{OrderItemID: 1, Qty: 100, Arrived: true}},
			want:  OrderDone,
		},
		{
			name:  "rounding tolerance closes the order",
			items: []OrderItem{{ID: 1, Qty: 100, ShippedQty: 99.995, FulfillmentMethod: MethodFromStock}},
			lines: []LineState{{OrderItemID: 1, Qty: 99.995, Arrived: true}},
			want:  OrderDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AggregateOrderStatus(tt.items, tt.lines)
			assert.Equal(t, tt.want, got)

			// Re-running with unchanged inputs must not change the answer.
			assert.Equal(t, got, AggregateOrderStatus(tt.items, tt.lines))
		})
	}
}

func TestRecomputeShippedQty(t *testing.T) {
	lines := []LineState{
		{OrderItemID: 1, Qty: 30, Arrived: true},
		{OrderItemID: 1, Qty: 20, Arrived: false},
		{OrderItemID: 1, Qty: 10, Arrived: true},
		{OrderItemID: 2, Qty: 99, Arrived: true},
	}

	assert.InDelta(t, 40, RecomputeShippedQty(1, lines), Epsilon)
	assert.InDelta(t, 99, RecomputeShippedQty(2, lines), Epsilon)
	assert.Zero(t, RecomputeShippedQty(3, lines))
}

func TestOnTruckQty(t *testing.T) {
	lines := []LineState{
		{OrderItemID: 1, Qty: 30, Arrived: true},
		{OrderItemID: 1, Qty: 20, Arrived: false},
		{OrderItemID: 2, Qty: 5, Arrived: false},
	}

	assert.InDelta(t, 20, OnTruckQty(1, lines), Epsilon)
	assert.InDelta(t, 5, OnTruckQty(2, lines), Epsilon)
}

func TestQuantityAnomalous(t *testing.T) {
	item := &OrderItem{Qty: 100, ReadyQty: 40, ShippedQty: 50}

	assert.False(t, QuantityAnomalous(item, 10))
	assert.True(t, QuantityAnomalous(item, 20))
}
