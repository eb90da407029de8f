package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SimulationStatus is the terminal state of a replay run.
type SimulationStatus string

const (
	SimulationCompleted SimulationStatus = "completed"
	SimulationFailed    SimulationStatus = "failed"
)

// PolicyConfig holds the reorder-policy knobs supplied with a request.
type PolicyConfig struct {
	AutoPlaceOrders    bool    `json:"auto_place_orders"`
	LeadTimeBufferDays int     `json:"lead_time_buffer_days"`
	MinOrderQuantity   int     `json:"min_order_quantity"`
	ServiceLevel       float64 `json:"service_level"`
}

// SimulationRequest describes one historical replay: a tenant, a set of SKUs
// and an inclusive calendar range to walk day by day. Immutable for the
// duration of the run.
type SimulationRequest struct {
	TenantID  int64        `json:"tenant_id"`
	StartDate time.Time    `json:"start_date"`
	EndDate   time.Time    `json:"end_date"`
	ItemIDs   []string     `json:"item_ids"`
	Policy    PolicyConfig `json:"policy"`
}

// Days returns the number of calendar days in the inclusive range. Dates are
// truncated to their calendar day first, so odd clock times or DST offsets in
// the inputs cannot shift the count.
func (r SimulationRequest) Days() int {
	start := midnightUTC(r.StartDate)
	end := midnightUTC(r.EndDate)
	return int(end.Sub(start).Hours()/24) + 1
}

func midnightUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SimulatedOrder is one order placed by the policy during a run. ArrivalDate
// is fixed at creation as OrderDate + LeadTimeDays and never recomputed.
type SimulatedOrder struct {
	ID           uuid.UUID `json:"id"`
	ItemID       string    `json:"item_id"`
	Quantity     int       `json:"quantity"`
	OrderDate    time.Time `json:"order_date"`
	LeadTimeDays int       `json:"lead_time_days"`
	ArrivalDate  time.Time `json:"arrival_date"`
	Received     bool      `json:"received"`
}

// DailyComparisonRecord is one (item, date) observation of the simulated
// stock track against the real one. Append-only once recorded.
type DailyComparisonRecord struct {
	Date              time.Time `json:"date"`
	ItemID            string    `json:"item_id"`
	SimulatedStock    int       `json:"simulated_stock"`
	RealStock         int       `json:"real_stock"`
	SimulatedStockout bool      `json:"simulated_stockout"`
	RealStockout      bool      `json:"real_stockout"`
	OrderPlaced       bool      `json:"order_placed,omitempty"`
	OrderQuantity     int       `json:"order_quantity,omitempty"`
}

// ItemMetrics carries the per-item running totals accumulated over a run.
type ItemMetrics struct {
	ItemID                  string          `json:"item_id"`
	TotalDays               int             `json:"total_days"`
	SimulatedStockouts      int             `json:"simulated_stockouts"`
	RealStockouts           int             `json:"real_stockouts"`
	SimulatedDaysInStock    int             `json:"simulated_days_in_stock"`
	RealDaysInStock         int             `json:"real_days_in_stock"`
	SimulatedInventoryValue decimal.Decimal `json:"simulated_inventory_value"`
	RealInventoryValue      decimal.Decimal `json:"real_inventory_value"`
}

// RatePair is a {simulated, real} pair for rate-based metrics.
type RatePair struct {
	Simulated float64 `json:"simulated"`
	Real      float64 `json:"real"`
}

// ValuePair is a {simulated, real} pair for money-based metrics.
type ValuePair struct {
	Simulated decimal.Decimal `json:"simulated"`
	Real      decimal.Decimal `json:"real"`
}

// ComparisonMetrics is the rate and value summary for one item or the whole run.
type ComparisonMetrics struct {
	StockoutRate      RatePair  `json:"stockout_rate"`
	ServiceLevel      RatePair  `json:"service_level"`
	AvgInventoryValue ValuePair `json:"avg_inventory_value"`
}

// Improvement compares the simulated policy against what actually happened.
// Positive figures mean the policy would have done better.
type Improvement struct {
	StockoutRateReduction float64         `json:"stockout_rate_reduction"`
	ServiceLevelDelta     float64         `json:"service_level_delta"`
	InventoryValueDelta   decimal.Decimal `json:"inventory_value_delta"`
}

// ItemBreakdown is the per-item slice of a completed result.
type ItemBreakdown struct {
	ItemID       string            `json:"item_id"`
	Metrics      ComparisonMetrics `json:"metrics"`
	Totals       ItemMetrics       `json:"totals"`
	OrdersPlaced int               `json:"orders_placed"`
	Warnings     []string          `json:"warnings,omitempty"`
}

// SimulationResult is the terminal artifact of a run. A failed run carries
// only the error message; it never surfaces partial metrics.
type SimulationResult struct {
	RunID        uuid.UUID               `json:"run_id"`
	Status       SimulationStatus        `json:"status"`
	StartDate    time.Time               `json:"start_date"`
	EndDate      time.Time               `json:"end_date"`
	Aggregate    *ComparisonMetrics      `json:"aggregate,omitempty"`
	Improvement  *Improvement            `json:"improvement,omitempty"`
	DailyRecords []DailyComparisonRecord `json:"daily_records,omitempty"`
	Items        []ItemBreakdown         `json:"items,omitempty"`
	ErrorMessage string                  `json:"error_message,omitempty"`
}

// ProductAttributes is what the product master contributes to a run: the unit
// cost used for inventory valuation and an optional per-item override of the
// lead-time safety buffer. A zero override means "use the request's buffer".
type ProductAttributes struct {
	UnitCost                 decimal.Decimal `json:"unit_cost"`
	SafetyBufferDaysOverride int             `json:"safety_buffer_days_override"`
}
