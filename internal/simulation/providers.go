package simulation

import (
	"context"
	"time"

	"github.com/andresuchdata/reorder-replay/internal/domain"
)

// The engine reads, and never mutates, the collaborators below. Each is a
// narrow interface so tests can substitute deterministic fakes.

// StockSnapshotProvider returns the stock level on hand as of a date. Called
// once per item at run start.
type StockSnapshotProvider interface {
	StartingStock(ctx context.Context, tenantID int64, itemID string, asOf time.Time) (int, error)
}

// SalesHistoryProvider returns the actual units sold on a date, 0 when no
// record exists.
type SalesHistoryProvider interface {
	ActualSales(ctx context.Context, tenantID int64, itemID string, date time.Time) (int, error)
}

// RealStockProvider returns the historical ground-truth stock level for a
// date, independent of the simulated arithmetic.
type RealStockProvider interface {
	RealStock(ctx context.Context, tenantID int64, itemID string, date time.Time) (int, error)
}

// ProductAttributeProvider returns the product master attributes used by a run.
type ProductAttributeProvider interface {
	Product(ctx context.Context, tenantID int64, itemID string) (domain.ProductAttributes, error)
}

// LeadTimeProvider returns supplier lead time and the item-level minimum
// order quantity. A zero lead time means no supplier record; a zero MOQ means
// no item-level minimum.
type LeadTimeProvider interface {
	LeadTime(ctx context.Context, tenantID int64, itemID string) (int, error)
	MinOrderQuantity(ctx context.Context, tenantID int64, itemID string) (int, error)
}

// ForecastProvider estimates total demand over the horizon using training
// data up to and including trainingEnd. Callers must keep trainingEnd
// strictly before the simulated day to avoid lookahead.
type ForecastProvider interface {
	Forecast(ctx context.Context, tenantID int64, itemID string, trainingEnd time.Time, horizonDays int) (float64, error)
}

// ReorderMath is the stateless policy math consulted on every reorder
// evaluation.
type ReorderMath interface {
	SafetyStock(avgDailyDemand float64, leadTimeDays int, serviceLevel float64) int
	ReorderPoint(avgDailyDemand float64, leadTimeDays int, safetyStock int) int
	RecommendedOrderQuantity(forecastDemand float64, safetyStock, currentStock, moq int) int
}

// Providers bundles the external collaborators a run consumes.
type Providers struct {
	Stock     StockSnapshotProvider
	Sales     SalesHistoryProvider
	RealStock RealStockProvider
	Products  ProductAttributeProvider
	LeadTimes LeadTimeProvider
	Forecasts ForecastProvider
}
