package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// StockRepository reads historical stock snapshots. It serves both the
// starting-stock lookup at run start and the per-day real-stock track.
type StockRepository struct {
	db *DB
}

func NewStockRepository(db *DB) *StockRepository {
	return &StockRepository{db: db}
}

// StartingStock returns the most recent snapshot on or before asOf, or 0 when
// the item has no snapshot history yet.
func (r *StockRepository) StartingStock(ctx context.Context, tenantID int64, itemID string, asOf time.Time) (int, error) {
	release, err := r.db.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	query := `
		SELECT quantity
		FROM stock_snapshots
		WHERE tenant_id = $1 AND sku = $2 AND snapshot_date <= $3
		ORDER BY snapshot_date DESC
		LIMIT 1
	`

	var quantity int
	err = r.db.GetContext(ctx, &quantity, query, tenantID, itemID, asOf)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("error getting starting stock for %s: %w", itemID, err)
	}

	return quantity, nil
}

// RealStock returns the snapshot recorded for the exact date, falling back to
// the latest earlier snapshot when that day was not captured.
func (r *StockRepository) RealStock(ctx context.Context, tenantID int64, itemID string, date time.Time) (int, error) {
	return r.StartingStock(ctx, tenantID, itemID, date)
}
