package reorder

import "testing"

func TestSafetyStock(t *testing.T) {
	c := NewCalculator()

	tests := []struct {
		name         string
		avgDaily     float64
		leadTime     int
		serviceLevel float64
		want         int
	}{
		// 1.645 * 10 * sqrt(4) = 32.9 -> 33
		{name: "service_95", avgDaily: 10, leadTime: 4, serviceLevel: 0.95, want: 33},
		// 2.326 * 10 * sqrt(4) = 46.52 -> 47
		{name: "service_99", avgDaily: 10, leadTime: 4, serviceLevel: 0.99, want: 47},
		{name: "zero_demand", avgDaily: 0, leadTime: 4, serviceLevel: 0.95, want: 0},
		{name: "negative_demand", avgDaily: -5, leadTime: 4, serviceLevel: 0.95, want: 0},
		{name: "zero_lead_time", avgDaily: 10, leadTime: 0, serviceLevel: 0.95, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.SafetyStock(tt.avgDaily, tt.leadTime, tt.serviceLevel)
			if got != tt.want {
				t.Errorf("SafetyStock(%v, %d, %v) = %d, want %d",
					tt.avgDaily, tt.leadTime, tt.serviceLevel, got, tt.want)
			}
		})
	}
}

func TestReorderPoint(t *testing.T) {
	c := NewCalculator()

	// 10/day over 4 days lead time + 33 safety = 73
	if got := c.ReorderPoint(10, 4, 33); got != 73 {
		t.Errorf("ReorderPoint(10, 4, 33) = %d, want 73", got)
	}

	if got := c.ReorderPoint(0, 4, 0); got != 0 {
		t.Errorf("ReorderPoint(0, 4, 0) = %d, want 0", got)
	}
}

func TestRecommendedOrderQuantity(t *testing.T) {
	c := NewCalculator()

	tests := []struct {
		name         string
		forecast     float64
		safetyStock  int
		currentStock int
		moq          int
		want         int
	}{
		{name: "basic", forecast: 100, safetyStock: 20, currentStock: 30, moq: 0, want: 90},
		{name: "rounds_up_forecast", forecast: 100.2, safetyStock: 0, currentStock: 0, moq: 0, want: 101},
		{name: "floored_at_moq", forecast: 10, safetyStock: 0, currentStock: 5, moq: 24, want: 24},
		{name: "covered_by_stock", forecast: 10, safetyStock: 5, currentStock: 50, moq: 24, want: 0},
		{name: "moq_ignored_when_zero_need", forecast: 0, safetyStock: 0, currentStock: 0, moq: 24, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.RecommendedOrderQuantity(tt.forecast, tt.safetyStock, tt.currentStock, tt.moq)
			if got != tt.want {
				t.Errorf("RecommendedOrderQuantity(%v, %d, %d, %d) = %d, want %d",
					tt.forecast, tt.safetyStock, tt.currentStock, tt.moq, got, tt.want)
			}
		})
	}
}
