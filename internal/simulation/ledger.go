package simulation

import (
	"time"

	"github.com/google/uuid"

	"github.com/andresuchdata/reorder-replay/internal/domain"
)

// OrderLedger tracks the orders placed during one run: creation, arrival
// lookup and outstanding totals. Pure in-memory state, no I/O. A ledger is
// owned by a single item loop and is not safe for concurrent use.
type OrderLedger struct {
	orders []*domain.SimulatedOrder
}

// NewOrderLedger creates an empty ledger.
func NewOrderLedger() *OrderLedger {
	return &OrderLedger{}
}

// Place records a new order dated orderDate. The quantity is raised to
// minOrderQty when below it; a resulting quantity of zero or less is a no-op
// and returns nil. The arrival date is fixed here and never recomputed.
func (l *OrderLedger) Place(itemID string, quantity int, orderDate time.Time, leadTimeDays, minOrderQty int) *domain.SimulatedOrder {
	if quantity < minOrderQty {
		quantity = minOrderQty
	}
	if quantity <= 0 {
		return nil
	}

	order := &domain.SimulatedOrder{
		ID:           uuid.New(),
		ItemID:       itemID,
		Quantity:     quantity,
		OrderDate:    orderDate,
		LeadTimeDays: leadTimeDays,
		ArrivalDate:  orderDate.AddDate(0, 0, leadTimeDays),
	}
	l.orders = append(l.orders, order)
	return order
}

// ArrivalsOn returns the not-yet-received orders whose arrival date equals
// date, filtered by item when itemID is non-empty.
func (l *OrderLedger) ArrivalsOn(itemID string, date time.Time) []*domain.SimulatedOrder {
	var due []*domain.SimulatedOrder
	for _, o := range l.orders {
		if o.Received {
			continue
		}
		if itemID != "" && o.ItemID != itemID {
			continue
		}
		if sameDay(o.ArrivalDate, date) {
			due = append(due, o)
		}
	}
	return due
}

// MarkReceived flips the order's received flag. Idempotent.
func (l *OrderLedger) MarkReceived(order *domain.SimulatedOrder) {
	if order != nil {
		order.Received = true
	}
}

// OutstandingQuantity sums the quantities of all placed, not-yet-received
// orders for an item. This is what keeps the policy from stacking orders
// while one is in transit.
func (l *OrderLedger) OutstandingQuantity(itemID string) int {
	total := 0
	for _, o := range l.orders {
		if !o.Received && o.ItemID == itemID {
			total += o.Quantity
		}
	}
	return total
}

// Orders returns every order placed during the run, in placement order.
func (l *OrderLedger) Orders() []*domain.SimulatedOrder {
	return l.orders
}

// Reset clears all state for a fresh run.
func (l *OrderLedger) Reset() {
	l.orders = nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
