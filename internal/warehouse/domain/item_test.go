package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestItemAvailableStock(t *testing.T) {
	item := &Item{CurrentStock: 100, ReservedStock: 30}
	assert.InDelta(t, 70, item.AvailableStock(), Epsilon)
}

func TestWeightedAverageCost(t *testing.T) {
	t.Run("blends old and incoming value", func(t *testing.T) {
		// 100 kg at 5000 plus 50 kg at 8000 = 600000 / 150 = 6000.
		got := WeightedAverageCost(100, decimal.NewFromInt(5000), 50, decimal.NewFromInt(8000))
		assert.True(t, got.Equal(decimal.NewFromInt(6000)), "got %s", got)
	})

	t.Run("empty stock takes the incoming price", func(t *testing.T) {
		got := WeightedAverageCost(0, decimal.NewFromInt(5000), 50, decimal.NewFromInt(8000))
		assert.True(t, got.Equal(decimal.NewFromInt(8000)), "got %s", got)
	})

	t.Run("rounds to four decimal places", func(t *testing.T) {
		got := WeightedAverageCost(3, decimal.NewFromInt(10), 1, decimal.NewFromInt(11))
		assert.True(t, got.Equal(decimal.RequireFromString("10.25")), "got %s", got)
	})
}

func TestStockErrorShortfall(t *testing.T) {
	err := NewStockError(KindInsufficientAvailableStock, &Item{Name: "Tepung"}, 80, 70)
	assert.InDelta(t, 10, err.Shortfall(), Epsilon)
	assert.Contains(t, err.Error(), "Tepung")
	assert.True(t, IsStockError(err))
	assert.False(t, IsStockError(ErrNotFound))
}
