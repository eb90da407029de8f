package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andresuchdata/reorder-replay/internal/domain"
)

type memoryStore struct {
	objects map[string][]byte
}

func (m *memoryStore) ListObjects(_ context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	for key, data := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, ObjectInfo{Key: key, Size: int64(len(data))})
		}
	}
	return out, nil
}

func (m *memoryStore) UploadObject(_ context.Context, key string, data []byte) error {
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[key] = data
	return nil
}

func completedResult() *domain.SimulationResult {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return &domain.SimulationResult{
		RunID:     uuid.New(),
		Status:    domain.SimulationCompleted,
		StartDate: day,
		EndDate:   day,
		DailyRecords: []domain.DailyComparisonRecord{
			{Date: day, ItemID: "SKU-1", SimulatedStock: 5, RealStock: 3, OrderPlaced: true, OrderQuantity: 20},
		},
		Items: []domain.ItemBreakdown{
			{
				ItemID: "SKU-1",
				Totals: domain.ItemMetrics{ItemID: "SKU-1", TotalDays: 1},
				Metrics: domain.ComparisonMetrics{
					AvgInventoryValue: domain.ValuePair{
						Simulated: decimal.NewFromInt(25),
						Real:      decimal.NewFromInt(15),
					},
				},
				OrdersPlaced: 1,
			},
		},
	}
}

func TestResultExporter_Export(t *testing.T) {
	store := &memoryStore{}
	exporter := NewResultExporter(store, "simulations")
	result := completedResult()

	if err := exporter.Export(context.Background(), result); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	objects, err := store.ListObjects(context.Background(), "simulations/"+result.RunID.String())
	if err != nil {
		t.Fatalf("ListObjects failed: %v", err)
	}
	if len(objects) != 2 {
		t.Fatalf("uploaded objects = %d, want 2", len(objects))
	}

	records := string(store.objects["simulations/"+result.RunID.String()+"/daily_records.csv"])
	if !strings.Contains(records, "2025-03-01,SKU-1,5,3,false,false,true,20") {
		t.Errorf("daily records CSV missing expected row:\n%s", records)
	}

	items := string(store.objects["simulations/"+result.RunID.String()+"/item_metrics.csv"])
	if !strings.Contains(items, "SKU-1,1,0,0") {
		t.Errorf("item metrics CSV missing expected row:\n%s", items)
	}
	if !strings.Contains(items, "25.00") || !strings.Contains(items, "15.00") {
		t.Errorf("item metrics CSV missing inventory values:\n%s", items)
	}
}

func TestResultExporter_RejectsFailedRun(t *testing.T) {
	exporter := NewResultExporter(&memoryStore{}, "")
	failed := &domain.SimulationResult{Status: domain.SimulationFailed}

	if err := exporter.Export(context.Background(), failed); err == nil {
		t.Error("expected an error exporting a failed run")
	}
}
