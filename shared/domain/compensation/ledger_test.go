package compensation

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNotificationFailureAloneNeverTriggers(t *testing.T) {
	l := NewLedger(uuid.New())
	l.Append(Failure{OrderItemID: uuid.New(), FailureType: FailureNotification, ErrorMessage: "smtp down", FailedAt: time.Now().UTC()})

	if l.ShouldTrigger() {
		t.Fatal("Notification-only ledger must not trigger")
	}
	if got := l.Trigger(); got != nil {
		t.Fatalf("Trigger() on non-triggering ledger = %v, want nil", got)
	}
}

func TestCriticalFailureTriggersExactlyOnce(t *testing.T) {
	l := NewLedger(uuid.New())
	itemA := uuid.New()
	l.Append(Failure{OrderItemID: itemA, FailureType: FailureInventoryReservation, ErrorMessage: "out of stock", FailedAt: time.Now().UTC()})

	if !l.ShouldTrigger() {
		t.Fatal("critical failure must make ShouldTrigger true")
	}
	fired := l.Trigger()
	if len(fired) != 1 {
		t.Fatalf("Trigger() returned %d failures, want 1", len(fired))
	}
	if !l.Triggered {
		t.Fatal("Triggered flag must be set after Trigger()")
	}

	// A second critical failure must not cause a second trigger.
	l.Append(Failure{OrderItemID: uuid.New(), FailureType: FailureSellerStatsUpdate, ErrorMessage: "stats svc down", FailedAt: time.Now().UTC()})
	if l.ShouldTrigger() {
		t.Fatal("sticky Triggered flag must suppress a second trigger")
	}
	if got := l.Trigger(); got != nil {
		t.Fatalf("second Trigger() = %v, want nil (sticky)", got)
	}
}

func TestTriggerExcludesNotificationFailures(t *testing.T) {
	l := NewLedger(uuid.New())
	l.Append(Failure{OrderItemID: uuid.New(), FailureType: FailureNotification, ErrorMessage: "smtp down", FailedAt: time.Now().UTC()})
	l.Append(Failure{OrderItemID: uuid.New(), FailureType: FailureInventoryReservation, ErrorMessage: "out of stock", FailedAt: time.Now().UTC()})

	fired := l.Trigger()
	for _, f := range fired {
		if f.FailureType == FailureNotification {
			t.Fatal("Trigger() must exclude Notification failures from its filtered list")
		}
	}
	if len(fired) != 1 {
		t.Fatalf("len(fired) = %d, want 1", len(fired))
	}
}

func TestAllCriticalCompensatedRequiresEveryCriticalCompleted(t *testing.T) {
	l := NewLedger(uuid.New())
	itemA, itemB := uuid.New(), uuid.New()
	l.Append(Failure{OrderItemID: itemA, FailureType: FailureInventoryReservation, FailedAt: time.Now().UTC()})
	l.Append(Failure{OrderItemID: itemB, FailureType: FailureSellerStatsUpdate, FailedAt: time.Now().UTC()})
	l.Trigger()

	if l.AllCriticalCompensated() {
		t.Fatal("AllCriticalCompensated must be false before any completion")
	}
	l.MarkCompleted(itemA, FailureInventoryReservation)
	if l.AllCriticalCompensated() {
		t.Fatal("AllCriticalCompensated must be false with one outstanding critical failure")
	}
	l.MarkCompleted(itemB, FailureSellerStatsUpdate)
	if !l.AllCriticalCompensated() {
		t.Fatal("AllCriticalCompensated must be true once every critical failure is completed")
	}
}

func TestStoreGetOrCreateReusesLedger(t *testing.T) {
	s := NewStore()
	orderID := uuid.New()
	l1 := s.GetOrCreate(orderID)
	l1.Append(Failure{OrderItemID: uuid.New(), FailureType: FailureInventoryReservation, FailedAt: time.Now().UTC()})

	l2 := s.GetOrCreate(orderID)
	if len(l2.Failures) != 1 {
		t.Fatalf("len(Failures) = %d, want 1 (same ledger instance)", len(l2.Failures))
	}

	if _, ok := s.Get(uuid.New()); ok {
		t.Fatal("Get on unknown orderId must report ok=false")
	}
}
