package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func f64(v float64) *float64 { return &v }

func TestLowStockThresholdResolution(t *testing.T) {
	inv := &Inventory{MinQuantity: 10, MaxQuantity: f64(200)}

	tests := []struct {
		name string
		cfg  InventoryConfiguration
		want float64
	}{
		{
			"min quantity type uses the row's min",
			InventoryConfiguration{LowStockThresholdType: ThresholdTypeMinQuantity, LowStockThresholdValue: 99},
			10,
		},
		{
			"percentage of max",
			InventoryConfiguration{LowStockThresholdType: ThresholdTypePercentage, LowStockThresholdValue: 20},
			40,
		},
		{
			"fixed value",
			InventoryConfiguration{LowStockThresholdType: ThresholdTypeFixed, LowStockThresholdValue: 15},
			15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.LowStockThreshold(inv))
		})
	}

	t.Run("percentage falls back to min without max", func(t *testing.T) {
		cfg := InventoryConfiguration{LowStockThresholdType: ThresholdTypePercentage, LowStockThresholdValue: 20}
		noMax := &Inventory{MinQuantity: 10}
		assert.Equal(t, 10.0, cfg.LowStockThreshold(noMax))
	})
}

func TestStatusOf(t *testing.T) {
	cfg := InventoryConfiguration{
		LowStockThresholdType:  ThresholdTypeFixed,
		LowStockThresholdValue: 10,
		OutOfStockThreshold:    2,
	}

	tests := []struct {
		name    string
		current float64
		want    StockStatus
	}{
		{"above low threshold", 50, StockStatusIn},
		{"just above low threshold", 10.5, StockStatusIn},
		{"at low threshold", 10, StockStatusLow},
		{"between thresholds", 5, StockStatusLow},
		{"at out-of-stock threshold", 2, StockStatusOut},
		{"below out-of-stock threshold", 0, StockStatusOut},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &Inventory{CurrentQuantity: tt.current}
			assert.Equal(t, tt.want, cfg.StatusOf(inv))
		})
	}
}

func TestStatusLabels(t *testing.T) {
	cfg := DefaultConfiguration()
	assert.Equal(t, "In Stock", cfg.StatusLabel(StockStatusIn))
	assert.Equal(t, "Low Stock", cfg.StatusLabel(StockStatusLow))
	assert.Equal(t, "Out of Stock", cfg.StatusLabel(StockStatusOut))
}

func TestReorderQuantity(t *testing.T) {
	inv := &Inventory{CurrentQuantity: 30, MinQuantity: 10, MaxQuantity: f64(100)}

	t.Run("disabled returns zero", func(t *testing.T) {
		cfg := InventoryConfiguration{EnableAutoReorder: false}
		assert.Equal(t, 0.0, cfg.ReorderQuantity(inv))
	})

	t.Run("up to max", func(t *testing.T) {
		cfg := InventoryConfiguration{EnableAutoReorder: true, AutoReorderQuantityType: ReorderTypeMaxQuantity}
		assert.Equal(t, 70.0, cfg.ReorderQuantity(inv))
	})

	t.Run("up to max never negative", func(t *testing.T) {
		cfg := InventoryConfiguration{EnableAutoReorder: true, AutoReorderQuantityType: ReorderTypeMaxQuantity}
		over := &Inventory{CurrentQuantity: 150, MaxQuantity: f64(100)}
		assert.Equal(t, 0.0, cfg.ReorderQuantity(over))
	})

	t.Run("up to max without max falls back to twice min", func(t *testing.T) {
		cfg := InventoryConfiguration{EnableAutoReorder: true, AutoReorderQuantityType: ReorderTypeMaxQuantity}
		noMax := &Inventory{CurrentQuantity: 5, MinQuantity: 10}
		assert.Equal(t, 20.0, cfg.ReorderQuantity(noMax))
	})

	t.Run("fixed", func(t *testing.T) {
		cfg := InventoryConfiguration{
			EnableAutoReorder:       true,
			AutoReorderQuantityType: ReorderTypeFixed,
			AutoReorderQuantityVal:  42,
		}
		assert.Equal(t, 42.0, cfg.ReorderQuantity(inv))
	})

	t.Run("multiple of min", func(t *testing.T) {
		cfg := InventoryConfiguration{
			EnableAutoReorder:       true,
			AutoReorderQuantityType: ReorderTypeMultiple,
			AutoReorderQuantityVal:  3,
		}
		assert.Equal(t, 30.0, cfg.ReorderQuantity(inv))
	})
}

func TestOrderStatusTransitions(t *testing.T) {
	assert.True(t, OrderStatusConfirmed.CanShip())
	assert.True(t, OrderStatusPacking.CanShip())
	assert.False(t, OrderStatusNew.CanShip())
	assert.False(t, OrderStatusShipped.CanShip())
	assert.False(t, OrderStatusCancelled.CanShip())

	assert.True(t, OrderStatusNew.CanCancel())
	assert.True(t, OrderStatusConfirmed.CanCancel())
	assert.True(t, OrderStatusPacking.CanCancel())
	assert.False(t, OrderStatusShipped.CanCancel())
	assert.False(t, OrderStatusCompleted.CanCancel())
	assert.False(t, OrderStatusCancelled.CanCancel())
}
