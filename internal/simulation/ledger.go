package simulation

import (
	"time"

	"github.com/andresuchdata/inbound-planner/internal/domain"
)

// leadTimeBufferFactor converts a working-day lead time into an approximate
// calendar-day figure when sizing an order. Empirical constant inherited from
// the historical planning model; it is not a weekday/calendar ratio.
const leadTimeBufferFactor = 1.17

// Ledger is the continuous-review state machine for one SKU inside one
// scenario. Seeded from the SKU snapshot, mutated once per simulated day,
// and never shared between scenarios.
type Ledger struct {
	sku     domain.SKU
	stock   float64
	pending *domain.Order
}

// NewLedger seeds a ledger from the SKU's snapshot stock level.
func NewLedger(sku domain.SKU) *Ledger {
	return &Ledger{sku: sku, stock: sku.InitialStock}
}

// SKU returns the immutable SKU record backing this ledger.
func (l *Ledger) SKU() domain.SKU { return l.sku }

// Stock returns the current stock level.
func (l *Ledger) Stock() float64 { return l.stock }

// HasPending reports whether an order is in transit.
func (l *Ledger) HasPending() bool { return l.pending != nil }

// DayOutcome records what happened to one ledger on one simulated day.
type DayOutcome struct {
	StockBeginning float64
	Received       float64 // quantity absorbed from an arriving order, 0 if none
	Arrived        bool    // true when a pending order arrived today
	StockEnding    float64
	DOI            float64
	Ordered        bool    // true when the reorder decision fired today
	OrderQuantity  float64 // quantity of the order placed today, 0 if none
	OnOrderQty     float64 // in-transit quantity, excluding an order placed today
	OnOrderCount   int     // pending orders at end of day, 0 or 1
}

// AdvanceDay advances the ledger by one simulated calendar day. The steps run
// in a fixed order so that an order placed today can never arrive today, and
// an arrival is always absorbed before consumption.
func (l *Ledger) AdvanceDay(today time.Time, reorderThreshold, targetDOI int) DayOutcome {
	out := DayOutcome{StockBeginning: l.stock}

	// 1. Arrival: absorb the pending order if it lands today.
	if l.pending != nil && sameDay(l.pending.ArrivalDate, today) {
		out.Received = l.pending.Quantity
		out.Arrived = true
		l.stock += l.pending.Quantity
		l.pending = nil
	}

	// 2. Consumption: stock -= qpd. No floor; stock may go negative so that
	// uncovered demand stays visible in the trace.
	l.stock -= l.sku.QPD

	// 3. Coverage: doi = stock / qpd.
	out.DOI = l.stock / l.sku.QPD

	// In-transit quantity is snapshotted before the reorder decision, so an
	// order placed today is visible in the count below but not here.
	if l.pending != nil {
		out.OnOrderQty = l.pending.Quantity
	}

	// 4. Reorder: fires iff doi <= threshold and nothing is in transit.
	// quantity = (target_doi + lead_time x 1.17) x qpd - stock, unfloored:
	// a negative quantity still creates a pending order.
	if out.DOI <= float64(reorderThreshold) && l.pending == nil {
		estCalendarDays := float64(l.sku.LeadTimeDays) * leadTimeBufferFactor
		qty := (float64(targetDOI)+estCalendarDays)*l.sku.QPD - l.stock
		l.pending = &domain.Order{
			OrderDate:   today,
			Quantity:    qty,
			ArrivalDate: AddWorkingDays(today, float64(l.sku.LeadTimeDays)),
			Status:      domain.OrderPending,
		}
		out.Ordered = true
		out.OrderQuantity = qty
	}

	out.StockEnding = l.stock
	if l.pending != nil {
		out.OnOrderCount = 1
	}
	return out
}
