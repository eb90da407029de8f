package forecast

import (
	"context"
	"fmt"
	"time"
)

// SalesReader is the slice of sales history the forecaster needs: total units
// sold over an inclusive date range.
type SalesReader interface {
	SalesBetween(ctx context.Context, tenantID int64, itemID string, from, to time.Time) (int, error)
}

// MovingAverage estimates horizon demand as the trailing mean of daily sales
// over a fixed training window ending at the caller-supplied cutoff. It never
// reads past the cutoff, so replay callers keep their no-lookahead guarantee
// by passing the day before the simulated today.
type MovingAverage struct {
	sales        SalesReader
	trainingDays int
}

// NewMovingAverage creates a forecaster over the given sales history.
// trainingDays falls back to 56 when not positive.
func NewMovingAverage(sales SalesReader, trainingDays int) *MovingAverage {
	if trainingDays < 1 {
		trainingDays = 56
	}
	return &MovingAverage{sales: sales, trainingDays: trainingDays}
}

// Forecast returns the estimated total demand over horizonDays, trained on
// sales up to and including trainingEnd.
func (f *MovingAverage) Forecast(ctx context.Context, tenantID int64, itemID string, trainingEnd time.Time, horizonDays int) (float64, error) {
	if horizonDays < 1 {
		return 0, fmt.Errorf("forecast horizon must be positive, got %d", horizonDays)
	}

	from := trainingEnd.AddDate(0, 0, -(f.trainingDays - 1))
	total, err := f.sales.SalesBetween(ctx, tenantID, itemID, from, trainingEnd)
	if err != nil {
		return 0, fmt.Errorf("read training sales for %s: %w", itemID, err)
	}
	if total <= 0 {
		return 0, nil
	}

	avgDaily := float64(total) / float64(f.trainingDays)
	return avgDaily * float64(horizonDays), nil
}
