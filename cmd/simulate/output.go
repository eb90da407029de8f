package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/andresuchdata/reorder-replay/internal/domain"
	"github.com/andresuchdata/reorder-replay/internal/storage"
)

func printSummary(w io.Writer, result *domain.SimulationResult, elapsed time.Duration) {
	fmt.Fprintf(w, "\nRun %s completed in %s (%s to %s)\n\n",
		result.RunID,
		elapsed.Round(time.Millisecond),
		result.StartDate.Format(dateLayout),
		result.EndDate.Format(dateLayout),
	)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "metric\tsimulated\treal\tdelta")
	fmt.Fprintf(tw, "stockout rate\t%.2f%%\t%.2f%%\t%+.2f%%\n",
		result.Aggregate.StockoutRate.Simulated*100,
		result.Aggregate.StockoutRate.Real*100,
		result.Improvement.StockoutRateReduction*100,
	)
	fmt.Fprintf(tw, "service level\t%.2f%%\t%.2f%%\t%+.2f%%\n",
		result.Aggregate.ServiceLevel.Simulated*100,
		result.Aggregate.ServiceLevel.Real*100,
		result.Improvement.ServiceLevelDelta*100,
	)
	fmt.Fprintf(tw, "avg inventory value\t%s\t%s\t%s\n",
		result.Aggregate.AvgInventoryValue.Simulated.StringFixed(2),
		result.Aggregate.AvgInventoryValue.Real.StringFixed(2),
		result.Improvement.InventoryValueDelta.StringFixed(2),
	)
	tw.Flush()

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "sku\tdays\tsim stockouts\treal stockouts\torders\twarnings")
	for _, item := range result.Items {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\n",
			item.ItemID,
			item.Totals.TotalDays,
			item.Totals.SimulatedStockouts,
			item.Totals.RealStockouts,
			item.OrdersPlaced,
			len(item.Warnings),
		)
	}
	tw.Flush()

	for _, item := range result.Items {
		for _, warning := range item.Warnings {
			fmt.Fprintf(w, "warning [%s]: %s\n", item.ItemID, warning)
		}
	}
}

func printDailyRecords(w io.Writer, records []domain.DailyComparisonRecord) {
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "date\tsku\tsim stock\treal stock\tordered")
	for _, r := range records {
		ordered := "-"
		if r.OrderPlaced {
			ordered = fmt.Sprintf("%d", r.OrderQuantity)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
			r.Date.Format(dateLayout), r.ItemID, r.SimulatedStock, r.RealStock, ordered)
	}
	tw.Flush()
}

func writeCSVs(dir string, result *domain.SimulationResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}

	records, err := storage.RenderDailyRecordsCSV(result.DailyRecords)
	if err != nil {
		return fmt.Errorf("failed to render daily records: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "daily_records.csv"), records, 0o644); err != nil {
		return fmt.Errorf("failed to write daily records: %w", err)
	}

	items, err := storage.RenderItemMetricsCSV(result.Items)
	if err != nil {
		return fmt.Errorf("failed to render item metrics: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "item_metrics.csv"), items, 0o644); err != nil {
		return fmt.Errorf("failed to write item metrics: %w", err)
	}

	return nil
}
