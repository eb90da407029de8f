package simulation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andresuchdata/reorder-replay/internal/domain"
)

func dayKey(itemID string, d time.Time) string {
	return itemID + "|" + d.Format("2006-01-02")
}

type fakeStock struct {
	stock map[string]int
	err   error
}

func (f *fakeStock) StartingStock(_ context.Context, _ int64, itemID string, _ time.Time) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.stock[itemID], nil
}

type fakeSales struct {
	byDay map[string]int
	err   error
}

func (f *fakeSales) ActualSales(_ context.Context, _ int64, itemID string, d time.Time) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.byDay[dayKey(itemID, d)], nil
}

type fakeRealStock struct {
	byDay   map[string]int
	defined bool
	def     int
}

func (f *fakeRealStock) RealStock(_ context.Context, _ int64, itemID string, d time.Time) (int, error) {
	if v, ok := f.byDay[dayKey(itemID, d)]; ok {
		return v, nil
	}
	if f.defined {
		return f.def, nil
	}
	return 0, nil
}

type fakeProducts struct {
	attrs map[string]domain.ProductAttributes
	err   error
}

func (f *fakeProducts) Product(_ context.Context, _ int64, itemID string) (domain.ProductAttributes, error) {
	if f.err != nil {
		return domain.ProductAttributes{}, f.err
	}
	if attrs, ok := f.attrs[itemID]; ok {
		return attrs, nil
	}
	return domain.ProductAttributes{UnitCost: decimal.NewFromInt(1)}, nil
}

type fakeLeadTimes struct {
	leadTime map[string]int
	moq      map[string]int
}

func (f *fakeLeadTimes) LeadTime(_ context.Context, _ int64, itemID string) (int, error) {
	return f.leadTime[itemID], nil
}

func (f *fakeLeadTimes) MinOrderQuantity(_ context.Context, _ int64, itemID string) (int, error) {
	return f.moq[itemID], nil
}

type forecastCall struct {
	itemID      string
	trainingEnd time.Time
	horizonDays int
}

type fakeForecast struct {
	mu    sync.Mutex
	total float64
	err   error
	calls []forecastCall
}

func (f *fakeForecast) Forecast(_ context.Context, _ int64, itemID string, trainingEnd time.Time, horizonDays int) (float64, error) {
	f.mu.Lock()
	f.calls = append(f.calls, forecastCall{itemID: itemID, trainingEnd: trainingEnd, horizonDays: horizonDays})
	f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return f.total, nil
}

// stubMath returns fixed policy quantities so orchestrator behavior can be
// asserted independently of the real formulas.
type stubMath struct {
	safety      int
	reorderAt   int
	recommended int
}

func (m stubMath) SafetyStock(float64, int, float64) int { return m.safety }
func (m stubMath) ReorderPoint(float64, int, int) int    { return m.reorderAt }
func (m stubMath) RecommendedOrderQuantity(float64, int, int, int) int {
	return m.recommended
}

type fixture struct {
	stock     *fakeStock
	sales     *fakeSales
	realStock *fakeRealStock
	products  *fakeProducts
	leadTimes *fakeLeadTimes
	forecasts *fakeForecast
}

func newFixture() *fixture {
	return &fixture{
		stock:     &fakeStock{stock: map[string]int{}},
		sales:     &fakeSales{byDay: map[string]int{}},
		realStock: &fakeRealStock{byDay: map[string]int{}},
		products:  &fakeProducts{attrs: map[string]domain.ProductAttributes{}},
		leadTimes: &fakeLeadTimes{leadTime: map[string]int{}, moq: map[string]int{}},
		forecasts: &fakeForecast{},
	}
}

func (f *fixture) providers() Providers {
	return Providers{
		Stock:     f.stock,
		Sales:     f.sales,
		RealStock: f.realStock,
		Products:  f.products,
		LeadTimes: f.leadTimes,
		Forecasts: f.forecasts,
	}
}

func baseRequest(itemIDs []string, start time.Time, days int) domain.SimulationRequest {
	return domain.SimulationRequest{
		TenantID:  1,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, days-1),
		ItemIDs:   itemIDs,
		Policy: domain.PolicyConfig{
			AutoPlaceOrders: true,
			ServiceLevel:    0.95,
		},
	}
}

// 3-day run, starting stock 5, zero sales, lead time 2, reorder point 10,
// recommended quantity 20: exactly one order placed on day 1, arriving day 3,
// simulated stock sequence [5, 5, 25].
func TestOrchestrator_OrderArrivesWithinRun(t *testing.T) {
	f := newFixture()
	f.stock.stock["SKU-1"] = 5
	f.leadTimes.leadTime["SKU-1"] = 2

	o := NewOrchestrator(f.providers(), stubMath{reorderAt: 10, recommended: 20}, Config{})
	start := date(2025, 3, 1)
	result := o.Run(context.Background(), baseRequest([]string{"SKU-1"}, start, 3))

	if result.Status != domain.SimulationCompleted {
		t.Fatalf("status = %s (%s), want completed", result.Status, result.ErrorMessage)
	}
	if len(result.DailyRecords) != 3 {
		t.Fatalf("daily records = %d, want 3", len(result.DailyRecords))
	}

	wantStock := []int{5, 5, 25}
	for i, rec := range result.DailyRecords {
		if rec.SimulatedStock != wantStock[i] {
			t.Errorf("day %d simulated stock = %d, want %d", i+1, rec.SimulatedStock, wantStock[i])
		}
	}

	if !result.DailyRecords[0].OrderPlaced {
		t.Error("expected an order on day 1")
	}
	if result.DailyRecords[0].OrderQuantity != 20 {
		t.Errorf("day 1 order quantity = %d, want 20", result.DailyRecords[0].OrderQuantity)
	}
	if result.DailyRecords[1].OrderPlaced || result.DailyRecords[2].OrderPlaced {
		t.Error("no further orders should be placed while one is outstanding")
	}
	if result.Items[0].OrdersPlaced != 1 {
		t.Errorf("orders placed = %d, want 1", result.Items[0].OrdersPlaced)
	}
}

// Sales landing on an arrival day are subtracted after the arrival is
// applied: day 3 receives 20 and sells 10, so the recorded stock is 15.
func TestOrchestrator_ArrivalAppliedBeforeSameDaySales(t *testing.T) {
	f := newFixture()
	f.stock.stock["SKU-1"] = 5
	f.leadTimes.leadTime["SKU-1"] = 2
	start := date(2025, 3, 1)
	f.sales.byDay[dayKey("SKU-1", start.AddDate(0, 0, 2))] = 10

	o := NewOrchestrator(f.providers(), stubMath{reorderAt: 10, recommended: 20}, Config{})
	result := o.Run(context.Background(), baseRequest([]string{"SKU-1"}, start, 3))

	if result.Status != domain.SimulationCompleted {
		t.Fatalf("status = %s (%s), want completed", result.Status, result.ErrorMessage)
	}
	wantStock := []int{5, 5, 15}
	for i, rec := range result.DailyRecords {
		if rec.SimulatedStock != wantStock[i] {
			t.Errorf("day %d simulated stock = %d, want %d", i+1, rec.SimulatedStock, wantStock[i])
		}
	}
}

// The lead-time buffer pads the reorder math but never the delivery itself:
// with a supplier lead time of 2 and a buffer of 2, the day-1 order still
// arrives on day 3.
func TestOrchestrator_BufferDoesNotDelayArrival(t *testing.T) {
	f := newFixture()
	f.stock.stock["SKU-1"] = 5
	f.leadTimes.leadTime["SKU-1"] = 2
	start := date(2025, 3, 1)

	o := NewOrchestrator(f.providers(), stubMath{reorderAt: 10, recommended: 20}, Config{})
	req := baseRequest([]string{"SKU-1"}, start, 5)
	req.Policy.LeadTimeBufferDays = 2
	result := o.Run(context.Background(), req)

	if result.Status != domain.SimulationCompleted {
		t.Fatalf("status = %s (%s), want completed", result.Status, result.ErrorMessage)
	}
	wantStock := []int{5, 5, 25, 25, 25}
	for i, rec := range result.DailyRecords {
		if rec.SimulatedStock != wantStock[i] {
			t.Errorf("day %d simulated stock = %d, want %d", i+1, rec.SimulatedStock, wantStock[i])
		}
	}
}

// 1-day run where sales exceed stock: the order still goes out (arriving
// after the range) and the recorded stock clamps to 0, never negative.
func TestOrchestrator_StockClampsToZero(t *testing.T) {
	f := newFixture()
	f.stock.stock["SKU-1"] = 5
	f.leadTimes.leadTime["SKU-1"] = 1
	start := date(2025, 3, 1)
	f.sales.byDay[dayKey("SKU-1", start)] = 10

	o := NewOrchestrator(f.providers(), stubMath{reorderAt: 10, recommended: 1}, Config{})
	result := o.Run(context.Background(), baseRequest([]string{"SKU-1"}, start, 1))

	if result.Status != domain.SimulationCompleted {
		t.Fatalf("status = %s (%s), want completed", result.Status, result.ErrorMessage)
	}
	rec := result.DailyRecords[0]
	if rec.SimulatedStock != 0 {
		t.Errorf("simulated stock = %d, want 0 (clamped)", rec.SimulatedStock)
	}
	if !rec.SimulatedStockout {
		t.Error("clamped day should count as a stockout")
	}
	if !rec.OrderPlaced {
		t.Error("order should still be placed on the clamped day")
	}
	if result.Items[0].OrdersPlaced != 1 {
		t.Errorf("orders placed = %d, want 1", result.Items[0].OrdersPlaced)
	}
}

// While an order is in transit the on-order quantity joins the trigger
// check, so a second order is never stacked even though stock alone stays
// below the reorder point.
func TestOrchestrator_SingleOutstandingOrder(t *testing.T) {
	f := newFixture()
	f.stock.stock["SKU-1"] = 5
	f.leadTimes.leadTime["SKU-1"] = 30 // never arrives within the run
	start := date(2025, 3, 1)
	for i := 0; i < 5; i++ {
		f.sales.byDay[dayKey("SKU-1", start.AddDate(0, 0, i))] = 2
	}

	o := NewOrchestrator(f.providers(), stubMath{reorderAt: 10, recommended: 20}, Config{})
	result := o.Run(context.Background(), baseRequest([]string{"SKU-1"}, start, 5))

	if result.Status != domain.SimulationCompleted {
		t.Fatalf("status = %s (%s), want completed", result.Status, result.ErrorMessage)
	}
	placed := 0
	for _, rec := range result.DailyRecords {
		if rec.OrderPlaced {
			placed++
		}
	}
	if placed != 1 {
		t.Errorf("orders placed = %d, want 1 while one is outstanding", placed)
	}
}

func TestOrchestrator_DayCountInvariant(t *testing.T) {
	f := newFixture()
	f.stock.stock["SKU-1"] = 100
	f.stock.stock["SKU-2"] = 100
	f.leadTimes.leadTime["SKU-1"] = 2
	f.leadTimes.leadTime["SKU-2"] = 2

	o := NewOrchestrator(f.providers(), stubMath{}, Config{})
	req := baseRequest([]string{"SKU-1", "SKU-2"}, date(2025, 3, 1), 14)
	result := o.Run(context.Background(), req)

	if result.Status != domain.SimulationCompleted {
		t.Fatalf("status = %s (%s), want completed", result.Status, result.ErrorMessage)
	}
	for _, item := range result.Items {
		if item.Totals.TotalDays != 14 {
			t.Errorf("item %s total days = %d, want 14", item.ItemID, item.Totals.TotalDays)
		}
	}
}

// Every forecast request must train strictly before the simulated today.
func TestOrchestrator_NoLookahead(t *testing.T) {
	f := newFixture()
	f.stock.stock["SKU-1"] = 100
	f.leadTimes.leadTime["SKU-1"] = 2
	f.forecasts.total = 70

	o := NewOrchestrator(f.providers(), stubMath{}, Config{ForecastRefreshDays: 7})
	start := date(2025, 3, 1)
	result := o.Run(context.Background(), baseRequest([]string{"SKU-1"}, start, 16))

	if result.Status != domain.SimulationCompleted {
		t.Fatalf("status = %s (%s), want completed", result.Status, result.ErrorMessage)
	}

	// Refresh on days 1, 8 and 15: training ends the day before each.
	if len(f.forecasts.calls) != 3 {
		t.Fatalf("forecast calls = %d, want 3", len(f.forecasts.calls))
	}
	for i, call := range f.forecasts.calls {
		refreshDay := start.AddDate(0, 0, i*7)
		if !call.trainingEnd.Before(refreshDay) {
			t.Errorf("call %d trains through %v, not before simulated day %v",
				i, call.trainingEnd, refreshDay)
		}
		if want := refreshDay.AddDate(0, 0, -1); !call.trainingEnd.Equal(want) {
			t.Errorf("call %d training end = %v, want %v", i, call.trainingEnd, want)
		}
	}
}

func TestOrchestrator_CollaboratorFailureDiscardsPartialResults(t *testing.T) {
	f := newFixture()
	f.stock.stock["SKU-1"] = 5
	f.leadTimes.leadTime["SKU-1"] = 2
	f.sales.err = errors.New("sales table unavailable")

	o := NewOrchestrator(f.providers(), stubMath{}, Config{})
	result := o.Run(context.Background(), baseRequest([]string{"SKU-1"}, date(2025, 3, 1), 3))

	if result.Status != domain.SimulationFailed {
		t.Fatalf("status = %s, want failed", result.Status)
	}
	if result.ErrorMessage == "" {
		t.Error("failed result should carry an error message")
	}
	if result.Aggregate != nil || len(result.DailyRecords) != 0 || len(result.Items) != 0 {
		t.Error("failed result must not surface partial metrics")
	}
}

func TestOrchestrator_MissingLeadTimeFallsBackWithWarning(t *testing.T) {
	f := newFixture()
	f.stock.stock["SKU-1"] = 100
	// no lead time configured for SKU-1

	o := NewOrchestrator(f.providers(), stubMath{}, Config{DefaultLeadTimeDays: 9})
	result := o.Run(context.Background(), baseRequest([]string{"SKU-1"}, date(2025, 3, 1), 3))

	if result.Status != domain.SimulationCompleted {
		t.Fatalf("status = %s (%s), want completed", result.Status, result.ErrorMessage)
	}
	if len(result.Items[0].Warnings) == 0 {
		t.Fatal("expected a warning about the missing lead time")
	}
}

func TestOrchestrator_CancellationBetweenDays(t *testing.T) {
	f := newFixture()
	f.stock.stock["SKU-1"] = 100
	f.leadTimes.leadTime["SKU-1"] = 2

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := NewOrchestrator(f.providers(), stubMath{}, Config{})
	result := o.Run(ctx, baseRequest([]string{"SKU-1"}, date(2025, 3, 1), 60))

	if result.Status != domain.SimulationFailed {
		t.Fatalf("cancelled run status = %s, want failed", result.Status)
	}
	if len(result.DailyRecords) != 0 {
		t.Error("cancelled run must not surface partial records")
	}
}

func TestOrchestrator_RangeCeiling(t *testing.T) {
	f := newFixture()
	f.stock.stock["SKU-1"] = 100
	f.leadTimes.leadTime["SKU-1"] = 2
	o := NewOrchestrator(f.providers(), stubMath{}, Config{})
	start := date(2023, 1, 1)

	tests := []struct {
		name string
		days int
		want domain.SimulationStatus
	}{
		{name: "730_days_accepted", days: 730, want: domain.SimulationCompleted},
		{name: "731_days_rejected", days: 731, want: domain.SimulationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := o.Run(context.Background(), baseRequest([]string{"SKU-1"}, start, tt.days))
			if result.Status != tt.want {
				t.Errorf("status = %s (%s), want %s", result.Status, result.ErrorMessage, tt.want)
			}
		})
	}
}

func TestOrchestrator_EmptyItemSetRejected(t *testing.T) {
	f := newFixture()
	o := NewOrchestrator(f.providers(), stubMath{}, Config{})
	result := o.Run(context.Background(), baseRequest(nil, date(2025, 3, 1), 3))

	if result.Status != domain.SimulationFailed {
		t.Errorf("status = %s, want failed", result.Status)
	}
}

func TestOrchestrator_ConcurrentItemsProduceStableResult(t *testing.T) {
	f := newFixture()
	items := make([]string, 8)
	for i := range items {
		id := fmt.Sprintf("SKU-%d", i)
		items[i] = id
		f.stock.stock[id] = 50
		f.leadTimes.leadTime[id] = 2
	}

	var mu sync.Mutex
	completed := make(map[string]bool)

	o := NewOrchestrator(f.providers(), stubMath{}, Config{
		MaxConcurrentItems: 4,
		OnItemComplete: func(itemID string) {
			mu.Lock()
			completed[itemID] = true
			mu.Unlock()
		},
	})
	result := o.Run(context.Background(), baseRequest(items, date(2025, 3, 1), 10))

	if result.Status != domain.SimulationCompleted {
		t.Fatalf("status = %s (%s), want completed", result.Status, result.ErrorMessage)
	}
	if len(completed) != len(items) {
		t.Errorf("completion hooks fired for %d items, want %d", len(completed), len(items))
	}
	if len(result.Items) != len(items) {
		t.Fatalf("item breakdowns = %d, want %d", len(result.Items), len(items))
	}
	// Breakdown order matches the request, regardless of completion order.
	for i, item := range result.Items {
		if item.ItemID != items[i] {
			t.Errorf("breakdown %d is %s, want %s", i, item.ItemID, items[i])
		}
	}
	if got := len(result.DailyRecords); got != len(items)*10 {
		t.Errorf("daily records = %d, want %d", got, len(items)*10)
	}
}

// Recorded stock must never be negative on either track, whatever the
// sales pattern.
func TestOrchestrator_NonNegativeStock(t *testing.T) {
	f := newFixture()
	f.stock.stock["SKU-1"] = 3
	f.leadTimes.leadTime["SKU-1"] = 2
	start := date(2025, 3, 1)
	for i := 0; i < 10; i++ {
		f.sales.byDay[dayKey("SKU-1", start.AddDate(0, 0, i))] = 7
	}
	f.realStock.byDay[dayKey("SKU-1", start)] = -4 // malformed ground truth

	o := NewOrchestrator(f.providers(), stubMath{}, Config{})
	req := baseRequest([]string{"SKU-1"}, start, 10)
	req.Policy.AutoPlaceOrders = false
	result := o.Run(context.Background(), req)

	if result.Status != domain.SimulationCompleted {
		t.Fatalf("status = %s (%s), want completed", result.Status, result.ErrorMessage)
	}
	for i, rec := range result.DailyRecords {
		if rec.SimulatedStock < 0 || rec.RealStock < 0 {
			t.Errorf("day %d recorded negative stock: sim=%d real=%d", i+1, rec.SimulatedStock, rec.RealStock)
		}
	}
}
