package simulation

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOrderLedger_Place(t *testing.T) {
	l := NewOrderLedger()
	orderDate := date(2025, 3, 1)

	order := l.Place("SKU-1", 10, orderDate, 3, 0)
	if order == nil {
		t.Fatal("expected an order to be placed")
	}
	if order.Quantity != 10 {
		t.Errorf("quantity = %d, want 10", order.Quantity)
	}
	if !order.ArrivalDate.Equal(date(2025, 3, 4)) {
		t.Errorf("arrival date = %v, want 2025-03-04", order.ArrivalDate)
	}
	if order.Received {
		t.Error("new order should not be received")
	}
}

func TestOrderLedger_PlaceRaisesToMinimum(t *testing.T) {
	l := NewOrderLedger()

	order := l.Place("SKU-1", 3, date(2025, 3, 1), 2, 12)
	if order == nil {
		t.Fatal("expected an order to be placed")
	}
	if order.Quantity != 12 {
		t.Errorf("quantity = %d, want 12 (raised to minimum)", order.Quantity)
	}
}

func TestOrderLedger_PlaceZeroQuantityIsNoop(t *testing.T) {
	l := NewOrderLedger()

	if order := l.Place("SKU-1", 0, date(2025, 3, 1), 2, 0); order != nil {
		t.Errorf("expected no order for zero quantity, got %+v", order)
	}
	if order := l.Place("SKU-1", -5, date(2025, 3, 1), 2, 0); order != nil {
		t.Errorf("expected no order for negative quantity, got %+v", order)
	}
	if got := len(l.Orders()); got != 0 {
		t.Errorf("ledger holds %d orders, want 0", got)
	}
}

func TestOrderLedger_ArrivalsOn(t *testing.T) {
	l := NewOrderLedger()
	l.Place("SKU-1", 10, date(2025, 3, 1), 2, 0) // arrives 03-03
	l.Place("SKU-2", 20, date(2025, 3, 1), 2, 0) // arrives 03-03
	l.Place("SKU-1", 30, date(2025, 3, 2), 2, 0) // arrives 03-04

	dueAll := l.ArrivalsOn("", date(2025, 3, 3))
	if len(dueAll) != 2 {
		t.Fatalf("arrivals on 03-03 (all items) = %d, want 2", len(dueAll))
	}

	due := l.ArrivalsOn("SKU-1", date(2025, 3, 3))
	if len(due) != 1 {
		t.Fatalf("arrivals on 03-03 for SKU-1 = %d, want 1", len(due))
	}
	if due[0].Quantity != 10 {
		t.Errorf("arrival quantity = %d, want 10", due[0].Quantity)
	}

	// Received orders drop out of arrival queries.
	l.MarkReceived(due[0])
	if got := l.ArrivalsOn("SKU-1", date(2025, 3, 3)); len(got) != 0 {
		t.Errorf("arrivals after receipt = %d, want 0", len(got))
	}
}

func TestOrderLedger_MarkReceivedIdempotent(t *testing.T) {
	l := NewOrderLedger()
	order := l.Place("SKU-1", 10, date(2025, 3, 1), 2, 0)

	l.MarkReceived(order)
	l.MarkReceived(order)
	if !order.Received {
		t.Error("order should be received")
	}
	if got := l.OutstandingQuantity("SKU-1"); got != 0 {
		t.Errorf("outstanding after receipt = %d, want 0", got)
	}
}

func TestOrderLedger_OutstandingQuantity(t *testing.T) {
	l := NewOrderLedger()
	l.Place("SKU-1", 10, date(2025, 3, 1), 5, 0)
	l.Place("SKU-1", 15, date(2025, 3, 2), 5, 0)
	l.Place("SKU-2", 99, date(2025, 3, 1), 5, 0)

	if got := l.OutstandingQuantity("SKU-1"); got != 25 {
		t.Errorf("outstanding = %d, want 25", got)
	}

	due := l.ArrivalsOn("SKU-1", date(2025, 3, 6))
	for _, o := range due {
		l.MarkReceived(o)
	}
	if got := l.OutstandingQuantity("SKU-1"); got != 15 {
		t.Errorf("outstanding after first arrival = %d, want 15", got)
	}
}

func TestOrderLedger_Reset(t *testing.T) {
	l := NewOrderLedger()
	l.Place("SKU-1", 10, date(2025, 3, 1), 2, 0)

	l.Reset()
	if got := len(l.Orders()); got != 0 {
		t.Errorf("orders after reset = %d, want 0", got)
	}
	if got := l.OutstandingQuantity("SKU-1"); got != 0 {
		t.Errorf("outstanding after reset = %d, want 0", got)
	}
}
