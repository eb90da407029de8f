package simulation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/andresuchdata/reorder-replay/internal/domain"
)

// Observation is one day's input to the accumulator.
type Observation struct {
	Date           time.Time
	ItemID         string
	SimulatedStock int
	RealStock      int
	UnitCost       decimal.Decimal
	OrderPlaced    bool
	OrderQuantity  int
}

// ComparisonAccumulator turns a stream of daily (simulated, real) stock
// observations into stockout, service-level and inventory-value metrics, per
// item and across all recorded items. Pure in-memory state, no I/O. Each item
// loop owns its own accumulator; per-item instances are merged into one
// aggregate after all loops finish.
type ComparisonAccumulator struct {
	records   []domain.DailyComparisonRecord
	items     map[string]*domain.ItemMetrics
	itemOrder []string
}

// NewComparisonAccumulator creates an empty accumulator.
func NewComparisonAccumulator() *ComparisonAccumulator {
	return &ComparisonAccumulator{
		items: make(map[string]*domain.ItemMetrics),
	}
}

// Record appends one daily comparison record and folds it into the item's
// running totals. Stock values are expected non-negative; a stockout is a day
// with stock at zero.
func (a *ComparisonAccumulator) Record(obs Observation) {
	simOut := obs.SimulatedStock <= 0
	realOut := obs.RealStock <= 0

	a.records = append(a.records, domain.DailyComparisonRecord{
		Date:              obs.Date,
		ItemID:            obs.ItemID,
		SimulatedStock:    obs.SimulatedStock,
		RealStock:         obs.RealStock,
		SimulatedStockout: simOut,
		RealStockout:      realOut,
		OrderPlaced:       obs.OrderPlaced,
		OrderQuantity:     obs.OrderQuantity,
	})

	m := a.metricsFor(obs.ItemID)
	m.TotalDays++
	if simOut {
		m.SimulatedStockouts++
	} else {
		m.SimulatedDaysInStock++
	}
	if realOut {
		m.RealStockouts++
	} else {
		m.RealDaysInStock++
	}
	m.SimulatedInventoryValue = m.SimulatedInventoryValue.Add(obs.UnitCost.Mul(decimal.NewFromInt(int64(obs.SimulatedStock))))
	m.RealInventoryValue = m.RealInventoryValue.Add(obs.UnitCost.Mul(decimal.NewFromInt(int64(obs.RealStock))))
}

func (a *ComparisonAccumulator) metricsFor(itemID string) *domain.ItemMetrics {
	if m, ok := a.items[itemID]; ok {
		return m
	}
	m := &domain.ItemMetrics{ItemID: itemID}
	a.items[itemID] = m
	a.itemOrder = append(a.itemOrder, itemID)
	return m
}

// StockoutRate returns the fraction of recorded days with stock at zero for
// one item, or across all items when itemID is empty. Aggregation weights by
// day count rather than averaging per-item rates.
func (a *ComparisonAccumulator) StockoutRate(itemID string) domain.RatePair {
	days, sim, real := a.counts(itemID, func(m *domain.ItemMetrics) (int, int) {
		return m.SimulatedStockouts, m.RealStockouts
	})
	return ratePair(sim, real, days)
}

// ServiceLevel returns the fraction of recorded days with stock available,
// computed directly from the in-stock counters rather than subtracting the
// stockout rate.
func (a *ComparisonAccumulator) ServiceLevel(itemID string) domain.RatePair {
	days, sim, real := a.counts(itemID, func(m *domain.ItemMetrics) (int, int) {
		return m.SimulatedDaysInStock, m.RealDaysInStock
	})
	return ratePair(sim, real, days)
}

func (a *ComparisonAccumulator) counts(itemID string, pick func(*domain.ItemMetrics) (int, int)) (days, sim, real int) {
	for id, m := range a.items {
		if itemID != "" && id != itemID {
			continue
		}
		s, r := pick(m)
		days += m.TotalDays
		sim += s
		real += r
	}
	return days, sim, real
}

func ratePair(sim, real, days int) domain.RatePair {
	if days == 0 {
		return domain.RatePair{}
	}
	return domain.RatePair{
		Simulated: float64(sim) / float64(days),
		Real:      float64(real) / float64(days),
	}
}

// InventoryValue returns the average daily inventory value for one item or
// across all items when itemID is empty.
func (a *ComparisonAccumulator) InventoryValue(itemID string) domain.ValuePair {
	days := 0
	sim := decimal.Zero
	real := decimal.Zero
	for id, m := range a.items {
		if itemID != "" && id != itemID {
			continue
		}
		days += m.TotalDays
		sim = sim.Add(m.SimulatedInventoryValue)
		real = real.Add(m.RealInventoryValue)
	}
	if days == 0 {
		return domain.ValuePair{Simulated: decimal.Zero, Real: decimal.Zero}
	}
	d := decimal.NewFromInt(int64(days))
	return domain.ValuePair{
		Simulated: sim.Div(d),
		Real:      real.Div(d),
	}
}

// Metrics returns the combined rate and value summary for one item, or the
// weighted aggregate when itemID is empty.
func (a *ComparisonAccumulator) Metrics(itemID string) domain.ComparisonMetrics {
	return domain.ComparisonMetrics{
		StockoutRate:      a.StockoutRate(itemID),
		ServiceLevel:      a.ServiceLevel(itemID),
		AvgInventoryValue: a.InventoryValue(itemID),
	}
}

// ItemTotals returns the accumulated counters for an item.
func (a *ComparisonAccumulator) ItemTotals(itemID string) (domain.ItemMetrics, bool) {
	m, ok := a.items[itemID]
	if !ok {
		return domain.ItemMetrics{}, false
	}
	return *m, true
}

// ItemIDs returns the recorded items in first-observation order.
func (a *ComparisonAccumulator) ItemIDs() []string {
	return a.itemOrder
}

// DailyRecords returns the recorded observations in insertion order,
// filtered by item when itemID is non-empty.
func (a *ComparisonAccumulator) DailyRecords(itemID string) []domain.DailyComparisonRecord {
	if itemID == "" {
		out := make([]domain.DailyComparisonRecord, len(a.records))
		copy(out, a.records)
		return out
	}
	var out []domain.DailyComparisonRecord
	for _, rec := range a.records {
		if rec.ItemID == itemID {
			out = append(out, rec)
		}
	}
	return out
}

// Merge folds another accumulator's records into this one, preserving the
// other's insertion order after the records already present.
func (a *ComparisonAccumulator) Merge(other *ComparisonAccumulator) {
	a.records = append(a.records, other.records...)
	for _, id := range other.itemOrder {
		src := other.items[id]
		dst := a.metricsFor(id)
		dst.TotalDays += src.TotalDays
		dst.SimulatedStockouts += src.SimulatedStockouts
		dst.RealStockouts += src.RealStockouts
		dst.SimulatedDaysInStock += src.SimulatedDaysInStock
		dst.RealDaysInStock += src.RealDaysInStock
		dst.SimulatedInventoryValue = dst.SimulatedInventoryValue.Add(src.SimulatedInventoryValue)
		dst.RealInventoryValue = dst.RealInventoryValue.Add(src.RealInventoryValue)
	}
}

// Reset clears all state for a fresh run.
func (a *ComparisonAccumulator) Reset() {
	a.records = nil
	a.items = make(map[string]*domain.ItemMetrics)
	a.itemOrder = nil
}
