package postgres

import (
	"context"
	"fmt"
	"time"
)

// SalesRepository reads the historical sales ledger. It serves the engine's
// per-day demand lookups and the forecaster's training-window reads.
type SalesRepository struct {
	db *DB
}

func NewSalesRepository(db *DB) *SalesRepository {
	return &SalesRepository{db: db}
}

// ActualSales returns the units sold on one date, 0 when no record exists.
func (r *SalesRepository) ActualSales(ctx context.Context, tenantID int64, itemID string, date time.Time) (int, error) {
	release, err := r.db.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	query := `
		SELECT COALESCE(SUM(quantity), 0)
		FROM daily_sales
		WHERE tenant_id = $1 AND sku = $2 AND sale_date = $3::date
	`

	var quantity int
	if err := r.db.GetContext(ctx, &quantity, query, tenantID, itemID, date); err != nil {
		return 0, fmt.Errorf("error getting sales for %s on %s: %w", itemID, date.Format("2006-01-02"), err)
	}

	return quantity, nil
}

// SalesBetween returns total units sold over the inclusive range.
func (r *SalesRepository) SalesBetween(ctx context.Context, tenantID int64, itemID string, from, to time.Time) (int, error) {
	release, err := r.db.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	query := `
		SELECT COALESCE(SUM(quantity), 0)
		FROM daily_sales
		WHERE tenant_id = $1 AND sku = $2 AND sale_date BETWEEN $3::date AND $4::date
	`

	var quantity int
	if err := r.db.GetContext(ctx, &quantity, query, tenantID, itemID, from, to); err != nil {
		return 0, fmt.Errorf("error getting sales range for %s: %w", itemID, err)
	}

	return quantity, nil
}
