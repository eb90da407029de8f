package reorder

import "math"

// Calculator computes the standard reorder-policy quantities. It is pure and
// stateless so tests can swap it for deterministic stand-ins.
type Calculator struct{}

// NewCalculator creates a new reorder calculator.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// zScore maps a service-level fraction to the corresponding standard-normal
// quantile. Levels between the table entries round down to the nearest one.
func zScore(serviceLevel float64) float64 {
	switch {
	case serviceLevel >= 0.99:
		return 2.326
	case serviceLevel >= 0.975:
		return 1.960
	case serviceLevel >= 0.95:
		return 1.645
	case serviceLevel >= 0.90:
		return 1.282
	case serviceLevel >= 0.85:
		return 1.036
	case serviceLevel >= 0.80:
		return 0.842
	default:
		return 0.674
	}
}

// SafetyStock returns the buffer quantity held to absorb demand variability
// during lead time: z × avg daily demand × sqrt(lead time).
func (c *Calculator) SafetyStock(avgDailyDemand float64, leadTimeDays int, serviceLevel float64) int {
	if avgDailyDemand <= 0 || leadTimeDays <= 0 {
		return 0
	}
	ss := zScore(serviceLevel) * avgDailyDemand * math.Sqrt(float64(leadTimeDays))
	return int(math.Ceil(math.Max(0, ss)))
}

// ReorderPoint returns the stock threshold below which a new order should be
// placed: expected demand over lead time plus safety stock.
func (c *Calculator) ReorderPoint(avgDailyDemand float64, leadTimeDays int, safetyStock int) int {
	rp := avgDailyDemand*float64(leadTimeDays) + float64(safetyStock)
	return int(math.Ceil(math.Max(0, rp)))
}

// RecommendedOrderQuantity returns how much to order: forecast demand plus
// safety stock minus what is already on hand, raised to the item minimum
// order quantity when one applies. A moq of 0 means no item-level minimum.
func (c *Calculator) RecommendedOrderQuantity(forecastDemand float64, safetyStock, currentStock, moq int) int {
	qty := int(math.Ceil(forecastDemand)) + safetyStock - currentStock
	if qty <= 0 {
		return 0
	}
	if moq > 0 && qty < moq {
		qty = moq
	}
	return qty
}
