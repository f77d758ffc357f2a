package consumer

import "testing"

func TestFakeSettlementOutcomeIsDeterministic(t *testing.T) {
	for _, id := range []string{"order-1", "order-2", "order-3", "6e3b1f0a-0000-0000-0000-000000000001"} {
		first := fakeSettlementOutcome(id)
		for i := 0; i < 5; i++ {
			if fakeSettlementOutcome(id) != first {
				t.Fatalf("fakeSettlementOutcome(%q) is not deterministic", id)
			}
		}
	}
}

func TestFakeSettlementOutcomeRoughlyEightyPercentSucceed(t *testing.T) {
	succeeded := 0
	const total = 2000
	for i := 0; i < total; i++ {
		id := "order-" + string(rune('a'+i%26)) + string(rune('A'+(i/26)%26)) + string(rune('0'+i%10))
		if fakeSettlementOutcome(id) {
			succeeded++
		}
	}
	ratio := float64(succeeded) / float64(total)
	if ratio < 0.70 || ratio > 0.90 {
		t.Fatalf("success ratio = %.3f, want roughly 0.80", ratio)
	}
}
