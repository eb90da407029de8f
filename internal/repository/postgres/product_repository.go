package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/andresuchdata/reorder-replay/internal/domain"
)

// ProductRepository reads the product master and the supplier attributes that
// feed reorder evaluations: unit cost, safety-buffer override, primary
// supplier lead time and item-level minimum order quantity.
type ProductRepository struct {
	db *DB
}

func NewProductRepository(db *DB) *ProductRepository {
	return &ProductRepository{db: db}
}

type productRow struct {
	UnitCost         decimal.Decimal `db:"unit_cost"`
	SafetyBufferDays sql.NullInt64   `db:"safety_buffer_days"`
}

// Product returns the attributes for one item. A missing product is an error:
// the engine cannot value inventory without a unit cost.
func (r *ProductRepository) Product(ctx context.Context, tenantID int64, itemID string) (domain.ProductAttributes, error) {
	release, err := r.db.Acquire(ctx)
	if err != nil {
		return domain.ProductAttributes{}, err
	}
	defer release()

	query := `
		SELECT unit_cost, safety_buffer_days
		FROM products
		WHERE tenant_id = $1 AND sku = $2
	`

	var row productRow
	err = r.db.GetContext(ctx, &row, query, tenantID, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ProductAttributes{}, fmt.Errorf("product %s not found", itemID)
	}
	if err != nil {
		return domain.ProductAttributes{}, fmt.Errorf("error getting product %s: %w", itemID, err)
	}

	attrs := domain.ProductAttributes{UnitCost: row.UnitCost}
	if row.SafetyBufferDays.Valid {
		attrs.SafetyBufferDaysOverride = int(row.SafetyBufferDays.Int64)
	}
	return attrs, nil
}

// LeadTime returns the primary supplier's lead time in days, 0 when the item
// has no supplier record. The engine substitutes its configured default.
func (r *ProductRepository) LeadTime(ctx context.Context, tenantID int64, itemID string) (int, error) {
	release, err := r.db.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	query := `
		SELECT lead_time_days
		FROM supplier_products
		WHERE tenant_id = $1 AND sku = $2 AND is_primary
		LIMIT 1
	`

	var days int
	err = r.db.GetContext(ctx, &days, query, tenantID, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("error getting lead time for %s: %w", itemID, err)
	}

	return days, nil
}

// MinOrderQuantity returns the primary supplier's minimum order quantity,
// 0 when none applies.
func (r *ProductRepository) MinOrderQuantity(ctx context.Context, tenantID int64, itemID string) (int, error) {
	release, err := r.db.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	query := `
		SELECT COALESCE(min_order_qty, 0)
		FROM supplier_products
		WHERE tenant_id = $1 AND sku = $2 AND is_primary
		LIMIT 1
	`

	var qty int
	err = r.db.GetContext(ctx, &qty, query, tenantID, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("error getting minimum order quantity for %s: %w", itemID, err)
	}

	return qty, nil
}
