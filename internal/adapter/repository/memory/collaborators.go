package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
)

// HRDirectory is a seedable employee directory and overtime source.
type HRDirectory struct {
	mu        sync.RWMutex
	employees map[string]domain.Employee
	inactive  map[string]bool
	overtime  map[string]domain.OvertimeSummary
}

// NewHRDirectory creates an empty directory.
func NewHRDirectory() *HRDirectory {
	return &HRDirectory{
		employees: make(map[string]domain.Employee),
		inactive:  make(map[string]bool),
		overtime:  make(map[string]domain.OvertimeSummary),
	}
}

// AddEmployee registers an active employee.
func (h *HRDirectory) AddEmployee(emp domain.Employee) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.employees[emp.ID] = emp
	delete(h.inactive, emp.ID)
}

// Deactivate removes an employee from future payroll runs.
func (h *HRDirectory) Deactivate(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inactive[id] = true
}

// SetOvertime records an employee's aggregated overtime for a month.
func (h *HRDirectory) SetOvertime(employeeID, month string, ot domain.OvertimeSummary) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.overtime[employeeID+"/"+month] = ot
}

func (h *HRDirectory) ListActive(ctx context.Context) ([]domain.Employee, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]domain.Employee, 0, len(h.employees))
	for id, emp := range h.employees {
		if h.inactive[id] {
			continue
		}
		out = append(out, emp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (h *HRDirectory) MonthlyOvertime(ctx context.Context, employeeID, month string) (domain.OvertimeSummary, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ot, ok := h.overtime[employeeID+"/"+month]
	if !ok {
		return domain.OvertimeSummary{Hours: decimal.Zero, Rate: decimal.Zero, Pay: decimal.Zero}, nil
	}
	return ot, nil
}

// Order is the revenue view of a customer order.
type Order struct {
	CompletedAt time.Time
	ID          string
	Status      string
	Total       decimal.Decimal
	Paid        decimal.Decimal
}

// OrderStatusCompleted marks an order whose revenue is recognised.
const OrderStatusCompleted = "Completed"

// OrderBook is a seedable revenue source.
type OrderBook struct {
	mu     sync.RWMutex
	orders []Order
}

// NewOrderBook creates an empty order book.
func NewOrderBook() *OrderBook {
	return &OrderBook{}
}

// AddOrder records an order.
func (o *OrderBook) AddOrder(order Order) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.orders = append(o.orders, order)
}

// CompletedOrderRevenue sums the totals of orders completed within [from, to].
func (o *OrderBook) CompletedOrderRevenue(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	total := decimal.Zero
	for _, order := range o.orders {
		if order.Status != OrderStatusCompleted {
			continue
		}
		if order.CompletedAt.Before(from) || order.CompletedAt.After(to) {
			continue
		}
		total = total.Add(order.Total)
	}
	return total, nil
}

// OutstandingReceivables sums the unpaid part of orders completed by asOf.
func (o *OrderBook) OutstandingReceivables(ctx context.Context, asOf time.Time) (decimal.Decimal, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	total := decimal.Zero
	for _, order := range o.orders {
		if order.Status != OrderStatusCompleted || order.CompletedAt.After(asOf) {
			continue
		}
		if due := order.Total.Sub(order.Paid); due.IsPositive() {
			total = total.Add(due)
		}
	}
	return total, nil
}
