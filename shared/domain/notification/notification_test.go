package notification

import (
	"testing"
	"time"
)

func TestRetryCeilingStopsAtFive(t *testing.T) {
	n := New("user-1", "user@example.com", TypeOrderConfirmation, "Order confirmed", "body", time.Now().UTC())
	for i := 0; i < MaxRetries; i++ {
		if err := n.MarkSending(time.Now().UTC()); err != nil {
			t.Fatalf("MarkSending attempt %d: %v", i, err)
		}
		if err := n.MarkFailed("smtp timeout", time.Now().UTC()); err != nil {
			t.Fatalf("MarkFailed attempt %d: %v", i, err)
		}
	}
	if n.RetryCount != MaxRetries {
		t.Fatalf("retryCount = %d, want %d", n.RetryCount, MaxRetries)
	}
	if n.CanRetry() {
		t.Fatal("CanRetry must be false once retryCount reaches MaxRetries")
	}
}

func TestOnlyNonTerminalStatusRetries(t *testing.T) {
	n := New("user-1", "user@example.com", TypeOrderConfirmation, "s", "b", time.Now().UTC())
	_ = n.MarkSending(time.Now().UTC())
	_ = n.MarkSent(time.Now().UTC())
	if n.CanRetry() {
		t.Fatal("a Sent notification must not be retryable")
	}
	if err := n.MarkSending(time.Now().UTC()); err != ErrInvalidTransition {
		t.Fatalf("MarkSending on Sent = %v, want ErrInvalidTransition", err)
	}
}

func TestPreferenceEffectiveAndsMasterAndType(t *testing.T) {
	p := NewDefaultPreference("user-1")
	if !p.Effective(TypeOrderShipped) {
		t.Fatal("default preference should enable OrderShipped")
	}
	p.ByType[TypeOrderShipped] = false
	if p.Effective(TypeOrderShipped) {
		t.Fatal("type-specific disable should suppress delivery")
	}
	p.ByType[TypeOrderShipped] = true
	p.EmailEnabled = false
	if p.Effective(TypeOrderShipped) {
		t.Fatal("master emailEnabled=false must suppress every type")
	}
}

func TestUnknownTypeDefaultsDisabled(t *testing.T) {
	p := Preference{UserID: "user-1", EmailEnabled: true, ByType: map[Type]bool{}}
	if p.Effective(TypeSellerPayout) {
		t.Fatal("a type absent from the matrix must default to disabled")
	}
}
