package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/reorder-replay/internal/domain"
)

// MaxRangeDays is the upper bound on a replay's calendar range. The calling
// layer validates the full 30–730 window; the engine re-checks the ceiling so
// an oversized range can never start a loop.
const MaxRangeDays = 730

// Config holds the engine knobs that are deployment configuration rather
// than per-request policy.
type Config struct {
	// ForecastRefreshDays is the cadence, in simulated days, at which the
	// cached demand forecast is refreshed. The first simulated day always
	// refreshes.
	ForecastRefreshDays int
	// ForecastHorizonDays is the horizon passed to the forecast provider.
	ForecastHorizonDays int
	// DefaultLeadTimeDays is used when an item has no supplier lead time.
	DefaultLeadTimeDays int
	// MaxConcurrentItems caps how many item timelines run in parallel.
	MaxConcurrentItems int
	// OnItemComplete, when set, is invoked after each item's loop finishes.
	OnItemComplete func(itemID string)
}

func (c Config) withDefaults() Config {
	if c.ForecastRefreshDays < 1 {
		c.ForecastRefreshDays = 7
	}
	if c.ForecastHorizonDays < 1 {
		c.ForecastHorizonDays = 30
	}
	if c.DefaultLeadTimeDays < 1 {
		c.DefaultLeadTimeDays = 7
	}
	if c.MaxConcurrentItems < 1 {
		c.MaxConcurrentItems = 4
	}
	return c
}

// Orchestrator drives the day-by-day replay for each requested item and
// assembles the final result. Within one item the loop is strictly
// sequential; across items, timelines run concurrently up to the configured
// cap, each owning its own ledger and accumulator.
type Orchestrator struct {
	providers Providers
	math      ReorderMath
	cfg       Config
}

// NewOrchestrator creates a new replay orchestrator.
func NewOrchestrator(providers Providers, math ReorderMath, cfg Config) *Orchestrator {
	return &Orchestrator{
		providers: providers,
		math:      math,
		cfg:       cfg.withDefaults(),
	}
}

// itemOutcome is what one item's loop hands back for final assembly.
type itemOutcome struct {
	itemID       string
	acc          *ComparisonAccumulator
	ordersPlaced int
	warnings     []string
}

// Run replays the requested range for every item and returns either a
// completed result with full metrics or a failed one with a single error
// message. It never surfaces partial results.
func (o *Orchestrator) Run(ctx context.Context, req domain.SimulationRequest) *domain.SimulationResult {
	runID := uuid.New()

	if err := o.checkRange(req); err != nil {
		return failedResult(runID, req, err)
	}

	started := time.Now()
	log.Info().
		Int64("tenant_id", req.TenantID).
		Int("items", len(req.ItemIDs)).
		Time("start_date", req.StartDate).
		Time("end_date", req.EndDate).
		Msg("simulation run starting")

	outcomes := make([]*itemOutcome, len(req.ItemIDs))

	g, gctx := errgroup.WithContext(ctx)
	limit := o.cfg.MaxConcurrentItems
	if len(req.ItemIDs) < limit {
		limit = len(req.ItemIDs)
	}
	g.SetLimit(limit)

	for i, itemID := range req.ItemIDs {
		i, itemID := i, itemID
		g.Go(func() error {
			outcome, err := o.runItem(gctx, req, itemID)
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			if o.cfg.OnItemComplete != nil {
				o.cfg.OnItemComplete(itemID)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Int64("tenant_id", req.TenantID).Msg("simulation run failed")
		return failedResult(runID, req, err)
	}

	// Read-only fold over the completed per-item accumulators.
	merged := NewComparisonAccumulator()
	for _, out := range outcomes {
		merged.Merge(out.acc)
	}

	aggregate := merged.Metrics("")
	improvement := &domain.Improvement{
		// Real minus simulated: positive means the policy stocked out less.
		StockoutRateReduction: aggregate.StockoutRate.Real - aggregate.StockoutRate.Simulated,
		ServiceLevelDelta:     aggregate.ServiceLevel.Simulated - aggregate.ServiceLevel.Real,
		InventoryValueDelta:   aggregate.AvgInventoryValue.Simulated.Sub(aggregate.AvgInventoryValue.Real),
	}

	items := make([]domain.ItemBreakdown, 0, len(outcomes))
	for _, out := range outcomes {
		totals, _ := merged.ItemTotals(out.itemID)
		items = append(items, domain.ItemBreakdown{
			ItemID:       out.itemID,
			Metrics:      merged.Metrics(out.itemID),
			Totals:       totals,
			OrdersPlaced: out.ordersPlaced,
			Warnings:     out.warnings,
		})
	}

	log.Info().
		Int64("tenant_id", req.TenantID).
		Int("items", len(items)).
		Dur("elapsed", time.Since(started)).
		Msg("simulation run completed")

	return &domain.SimulationResult{
		RunID:        runID,
		Status:       domain.SimulationCompleted,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Aggregate:    &aggregate,
		Improvement:  improvement,
		DailyRecords: merged.DailyRecords(""),
		Items:        items,
	}
}

func (o *Orchestrator) checkRange(req domain.SimulationRequest) error {
	if req.EndDate.Before(req.StartDate) {
		return fmt.Errorf("end date %s is before start date %s",
			req.EndDate.Format("2006-01-02"), req.StartDate.Format("2006-01-02"))
	}
	if days := req.Days(); days > MaxRangeDays {
		return fmt.Errorf("date range of %d days exceeds the maximum of %d", days, MaxRangeDays)
	}
	if len(req.ItemIDs) == 0 {
		return fmt.Errorf("no items to simulate")
	}
	return nil
}

// runItem walks one item's calendar day by day. Each day applies, in order:
// forecast refresh, reorder evaluation, order arrivals, actual sales, real
// stock lookup, recording.
func (o *Orchestrator) runItem(ctx context.Context, req domain.SimulationRequest, itemID string) (*itemOutcome, error) {
	product, err := o.providers.Products.Product(ctx, req.TenantID, itemID)
	if err != nil {
		return nil, fmt.Errorf("load product %s: %w", itemID, err)
	}

	simStock, err := o.providers.Stock.StartingStock(ctx, req.TenantID, itemID, req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("load starting stock for %s: %w", itemID, err)
	}
	if simStock < 0 {
		simStock = 0
	}

	var warnings []string

	leadTime, err := o.providers.LeadTimes.LeadTime(ctx, req.TenantID, itemID)
	if err != nil {
		return nil, fmt.Errorf("load lead time for %s: %w", itemID, err)
	}
	if leadTime <= 0 {
		leadTime = o.cfg.DefaultLeadTimeDays
		warnings = append(warnings, fmt.Sprintf("no supplier lead time, using default of %d days", leadTime))
	}

	itemMOQ, err := o.providers.LeadTimes.MinOrderQuantity(ctx, req.TenantID, itemID)
	if err != nil {
		return nil, fmt.Errorf("load minimum order quantity for %s: %w", itemID, err)
	}

	// Per-item override of the configured lead-time buffer. The padded lead
	// time feeds the safety-stock and reorder-point math only; placed orders
	// still arrive after the raw supplier lead time.
	buffer := req.Policy.LeadTimeBufferDays
	if product.SafetyBufferDaysOverride > 0 {
		buffer = product.SafetyBufferDaysOverride
	}
	effectiveLeadTime := leadTime + buffer

	ledger := NewOrderLedger()
	acc := NewComparisonAccumulator()

	horizon := o.cfg.ForecastHorizonDays
	cachedForecast := 0.0
	warnedNegativeForecast := false

	days := req.Days()
	day := req.StartDate
	for d := 0; d < days; d, day = d+1, day.AddDate(0, 0, 1) {
		// Cooperative cancellation between days, never mid-day.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		// Forecast refresh: first day, then on the configured cadence.
		// Training data stops the day before the simulated today.
		if d%o.cfg.ForecastRefreshDays == 0 {
			trainingEnd := day.AddDate(0, 0, -1)
			total, err := o.providers.Forecasts.Forecast(ctx, req.TenantID, itemID, trainingEnd, horizon)
			if err != nil {
				return nil, fmt.Errorf("forecast for %s: %w", itemID, err)
			}
			if total < 0 {
				total = 0
				if !warnedNegativeForecast {
					warnings = append(warnings, "forecast returned negative demand, treated as zero")
					warnedNegativeForecast = true
				}
			}
			cachedForecast = total
		}

		// Reorder evaluation. On-order quantity joins the trigger check so a
		// second order is never stacked on one still in transit.
		avgDailyDemand := cachedForecast / float64(horizon)
		safetyStock := o.math.SafetyStock(avgDailyDemand, effectiveLeadTime, req.Policy.ServiceLevel)
		reorderPoint := o.math.ReorderPoint(avgDailyDemand, effectiveLeadTime, safetyStock)

		orderPlaced := false
		orderQty := 0
		if req.Policy.AutoPlaceOrders && simStock+ledger.OutstandingQuantity(itemID) < reorderPoint {
			qty := o.math.RecommendedOrderQuantity(cachedForecast, safetyStock, simStock, itemMOQ)
			if order := ledger.Place(itemID, qty, day, leadTime, req.Policy.MinOrderQuantity); order != nil {
				orderPlaced = true
				orderQty = order.Quantity
			}
		}

		// Arrivals are applied before today's sales are subtracted.
		for _, order := range ledger.ArrivalsOn(itemID, day) {
			simStock += order.Quantity
			ledger.MarkReceived(order)
		}

		sales, err := o.providers.Sales.ActualSales(ctx, req.TenantID, itemID, day)
		if err != nil {
			return nil, fmt.Errorf("actual sales for %s on %s: %w", itemID, day.Format("2006-01-02"), err)
		}
		simStock -= sales
		if simStock < 0 {
			// Demand exceeding stock is a stockout, not an error.
			simStock = 0
		}

		realStock, err := o.providers.RealStock.RealStock(ctx, req.TenantID, itemID, day)
		if err != nil {
			return nil, fmt.Errorf("real stock for %s on %s: %w", itemID, day.Format("2006-01-02"), err)
		}
		if realStock < 0 {
			realStock = 0
		}

		acc.Record(Observation{
			Date:           day,
			ItemID:         itemID,
			SimulatedStock: simStock,
			RealStock:      realStock,
			UnitCost:       product.UnitCost,
			OrderPlaced:    orderPlaced,
			OrderQuantity:  orderQty,
		})
	}

	return &itemOutcome{
		itemID:       itemID,
		acc:          acc,
		ordersPlaced: len(ledger.Orders()),
		warnings:     warnings,
	}, nil
}

func failedResult(runID uuid.UUID, req domain.SimulationRequest, err error) *domain.SimulationResult {
	return &domain.SimulationResult{
		RunID:        runID,
		Status:       domain.SimulationFailed,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		ErrorMessage: err.Error(),
	}
}
