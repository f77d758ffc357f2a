package search

import (
	"testing"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/order"
)

func TestAvailabilityVisibleRequiresStockAndSellers(t *testing.T) {
	r := Record{Stock: Stock{TotalStock: 5, AvailableSellers: 1}}
	if !r.AvailabilityVisible() {
		t.Fatal("stock>0 and sellers>0 should be visible")
	}
	r.Stock.AvailableSellers = 0
	if r.AvailabilityVisible() {
		t.Fatal("zero sellers must not be visible")
	}
}

func TestPriceIndexExcludesZeroMin(t *testing.T) {
	r := Record{Pricing: Pricing{Min: 0}}
	if r.PriceIndexEligible() {
		t.Fatal("min=0 must be excluded from the price index")
	}
	r.Pricing.Min = 9.99
	if !r.PriceIndexEligible() {
		t.Fatal("min>0 must be eligible for the price index")
	}
}

func TestTokenizeLowercasesAndSplitsOnWordBoundaries(t *testing.T) {
	got := Tokenize("The Go Programming Language!")
	want := []string{"the", "go", "programming", "language"}
	if len(got) != len(want) {
		t.Fatalf("Tokenize() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Tokenize()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTokensForIncludesISBN(t *testing.T) {
	isbn, _ := order.NewISBN("9780123456789")
	tokens := TokensFor("Go in Action", "William Kennedy", isbn)
	if _, ok := tokens["9780123456789"]; !ok {
		t.Fatal("TokensFor must include the ISBN token")
	}
	if _, ok := tokens["go"]; !ok {
		t.Fatal("TokensFor must include title tokens")
	}
}

func TestPrefixesDropsSingleCharacterPrefix(t *testing.T) {
	got := Prefixes("go")
	want := []string{"go"}
	if len(got) != 1 || got[0] != want[0] {
		t.Fatalf("Prefixes(go) = %v, want %v", got, want)
	}
	if Prefixes("g") != nil {
		t.Fatal("Prefixes of a single-character token must be nil")
	}
}

func TestDiffTokensComputesGainedAndLost(t *testing.T) {
	old := map[string]struct{}{"go": {}, "lang": {}}
	next := map[string]struct{}{"go": {}, "programming": {}}
	gained, lost := DiffTokens(old, next)
	if len(gained) != 1 || gained[0] != "programming" {
		t.Fatalf("gained = %v, want [programming]", gained)
	}
	if len(lost) != 1 || lost[0] != "lang" {
		t.Fatalf("lost = %v, want [lang]", lost)
	}
}

func TestTitleScoreOrdersLexicographically(t *testing.T) {
	if TitleScore("apple") >= TitleScore("banana") {
		t.Fatal("TitleScore must order lexicographically: apple < banana")
	}
	if TitleScore("go") != TitleScore("go") {
		t.Fatal("TitleScore must be deterministic")
	}
}
