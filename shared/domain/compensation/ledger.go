// Package compensation implements the CompensationLedger: the per-order
// failure record the Compensation Orchestrator (C5) consumes to decide when
// to emit CompensationRequired and, later, OrderCancellationRequested.
package compensation

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// FailureType classifies a compensable failure. Only InventoryReservation
// and SellerStatsUpdate are "critical" — they alone can trigger
// compensation; Notification failures are recorded but never trigger on
// their own.
type FailureType string

const (
	FailureInventoryReservation FailureType = "InventoryReservation"
	FailureSellerStatsUpdate    FailureType = "SellerStatsUpdate"
	FailureNotification         FailureType = "Notification"
)

func (f FailureType) critical() bool {
	return f == FailureInventoryReservation || f == FailureSellerStatsUpdate
}

// Failure is one recorded entry in an order's ledger.
type Failure struct {
	OrderItemID  uuid.UUID
	FailureType  FailureType
	ErrorMessage string
	FailedAt     time.Time
	Completed    bool
}

// Ledger accumulates failures for exactly one orderId and tracks whether
// CompensationRequired has already fired for it.
type Ledger struct {
	OrderID   uuid.UUID
	Failures  []Failure
	Triggered bool
}

// NewLedger constructs an empty ledger for an order.
func NewLedger(orderID uuid.UUID) *Ledger {
	return &Ledger{OrderID: orderID}
}

// Append records a failure. It never triggers compensation by itself;
// Trigger decides that separately so callers can append first, then ask
// whether to fire, in one atomic critical section.
func (l *Ledger) Append(f Failure) {
	l.Failures = append(l.Failures, f)
}

// HasCriticalFailure reports whether the ledger holds at least one critical
// (non-Notification) failure.
func (l *Ledger) HasCriticalFailure() bool {
	for _, f := range l.Failures {
		if f.FailureType.critical() {
			return true
		}
	}
	return false
}

// ShouldTrigger reports whether CompensationRequired should fire now: at
// least one critical failure recorded, and not already triggered. The
// Triggered flag is sticky, so this can only ever return true once per
// ledger.
func (l *Ledger) ShouldTrigger() bool {
	return !l.Triggered && l.HasCriticalFailure()
}

// Trigger marks the ledger as triggered and returns the filtered list of
// non-Notification failures to include in the CompensationRequired event.
// Calling it when ShouldTrigger is false is a no-op returning nil.
func (l *Ledger) Trigger() []Failure {
	if !l.ShouldTrigger() {
		return nil
	}
	l.Triggered = true
	return l.criticalFailures()
}

func (l *Ledger) criticalFailures() []Failure {
	out := make([]Failure, 0, len(l.Failures))
	for _, f := range l.Failures {
		if f.FailureType.critical() {
			out = append(out, f)
		}
	}
	return out
}

// MarkCompleted records that a downstream handler finished compensating the
// given order item for the given failure type.
func (l *Ledger) MarkCompleted(orderItemID uuid.UUID, failureType FailureType) {
	for i := range l.Failures {
		if l.Failures[i].OrderItemID == orderItemID && l.Failures[i].FailureType == failureType {
			l.Failures[i].Completed = true
		}
	}
}

// AllCriticalCompensated reports whether every critical failure in the
// ledger has a matching completion — the signal to emit
// OrderCancellationRequested.
func (l *Ledger) AllCriticalCompensated() bool {
	any := false
	for _, f := range l.Failures {
		if !f.FailureType.critical() {
			continue
		}
		any = true
		if !f.Completed {
			return false
		}
	}
	return any
}

// FailureTypeSummary returns the distinct critical failure types present in
// the ledger, in order of first appearance, for use in the
// OrderCancellationRequested reason string.
func (l *Ledger) FailureTypeSummary() []FailureType {
	seen := make(map[FailureType]struct{})
	var out []FailureType
	for _, f := range l.Failures {
		if !f.FailureType.critical() {
			continue
		}
		if _, ok := seen[f.FailureType]; ok {
			continue
		}
		seen[f.FailureType] = struct{}{}
		out = append(out, f.FailureType)
	}
	return out
}

// Store is the per-process in-memory orderId -> Ledger map spec.md §4.4
// describes, safe for concurrent use by multiple consumer goroutines.
// Production deployments must back this with durable storage; this type
// provides only the LEDGER semantics, not persistence.
type Store struct {
	mu      sync.Mutex
	ledgers map[uuid.UUID]*Ledger
}

// NewStore builds an empty in-memory ledger store.
func NewStore() *Store {
	return &Store{ledgers: make(map[uuid.UUID]*Ledger)}
}

// GetOrCreate returns the ledger for orderID, creating one if absent.
func (s *Store) GetOrCreate(orderID uuid.UUID) *Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.ledgers[orderID]; ok {
		return l
	}
	l := NewLedger(orderID)
	s.ledgers[orderID] = l
	return l
}

// Get returns the ledger for orderID and whether it exists.
func (s *Store) Get(orderID uuid.UUID) (*Ledger, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.ledgers[orderID]
	return l, ok
}
