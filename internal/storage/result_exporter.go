package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"path"
	"strconv"

	"github.com/andresuchdata/reorder-replay/internal/domain"
)

// ResultExporter renders a completed simulation result as CSV files and
// uploads them to object storage, keyed by run ID.
type ResultExporter struct {
	store  ObjectStorage
	prefix string
}

func NewResultExporter(store ObjectStorage, prefix string) *ResultExporter {
	if prefix == "" {
		prefix = "simulations"
	}
	return &ResultExporter{store: store, prefix: prefix}
}

// Export writes the daily comparison records and per-item metrics for one
// completed run. Failed runs have nothing to export.
func (e *ResultExporter) Export(ctx context.Context, result *domain.SimulationResult) error {
	if result.Status != domain.SimulationCompleted {
		return fmt.Errorf("cannot export a %s run", result.Status)
	}

	records, err := RenderDailyRecordsCSV(result.DailyRecords)
	if err != nil {
		return fmt.Errorf("render daily records: %w", err)
	}
	key := path.Join(e.prefix, result.RunID.String(), "daily_records.csv")
	if err := e.store.UploadObject(ctx, key, records); err != nil {
		return err
	}

	items, err := RenderItemMetricsCSV(result.Items)
	if err != nil {
		return fmt.Errorf("render item metrics: %w", err)
	}
	key = path.Join(e.prefix, result.RunID.String(), "item_metrics.csv")
	return e.store.UploadObject(ctx, key, items)
}

// RenderDailyRecordsCSV renders the day-by-day comparison track.
func RenderDailyRecordsCSV(records []domain.DailyComparisonRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"date",
		"sku",
		"simulated_stock",
		"real_stock",
		"simulated_stockout",
		"real_stockout",
		"order_placed",
		"order_quantity",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, rec := range records {
		row := []string{
			rec.Date.Format("2006-01-02"),
			rec.ItemID,
			strconv.Itoa(rec.SimulatedStock),
			strconv.Itoa(rec.RealStock),
			strconv.FormatBool(rec.SimulatedStockout),
			strconv.FormatBool(rec.RealStockout),
			strconv.FormatBool(rec.OrderPlaced),
			strconv.Itoa(rec.OrderQuantity),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

// RenderItemMetricsCSV renders the per-item breakdown.
func RenderItemMetricsCSV(items []domain.ItemBreakdown) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"sku",
		"total_days",
		"simulated_stockouts",
		"real_stockouts",
		"simulated_stockout_rate",
		"real_stockout_rate",
		"simulated_service_level",
		"real_service_level",
		"simulated_avg_inventory_value",
		"real_avg_inventory_value",
		"orders_placed",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, item := range items {
		row := []string{
			item.ItemID,
			strconv.Itoa(item.Totals.TotalDays),
			strconv.Itoa(item.Totals.SimulatedStockouts),
			strconv.Itoa(item.Totals.RealStockouts),
			strconv.FormatFloat(item.Metrics.StockoutRate.Simulated, 'f', 4, 64),
			strconv.FormatFloat(item.Metrics.StockoutRate.Real, 'f', 4, 64),
			strconv.FormatFloat(item.Metrics.ServiceLevel.Simulated, 'f', 4, 64),
			strconv.FormatFloat(item.Metrics.ServiceLevel.Real, 'f', 4, 64),
			item.Metrics.AvgInventoryValue.Simulated.StringFixed(2),
			item.Metrics.AvgInventoryValue.Real.StringFixed(2),
			strconv.Itoa(item.OrdersPlaced),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}
