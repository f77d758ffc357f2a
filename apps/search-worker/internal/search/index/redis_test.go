package index

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/order"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/search"
)

func newTestIndex(t *testing.T) *Redis {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedis(client)
}

func testISBN(t *testing.T) order.ISBN {
	t.Helper()
	isbn, err := order.NewISBN("9780143127550")
	if err != nil {
		t.Fatalf("NewISBN: %v", err)
	}
	return isbn
}

func TestUpsertRecordIsRetrievable(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	isbn := testISBN(t)

	rec := search.Record{ISBN: isbn, Title: "The Go Programming Language", Author: "Donovan"}
	if err := idx.UpsertRecord(ctx, rec); err != nil {
		t.Fatalf("UpsertRecord: %v", err)
	}

	got, found, err := idx.GetRecord(ctx, isbn.String())
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if !found {
		t.Fatal("expected record to be found after upsert")
	}
	if got.Title != rec.Title {
		t.Fatalf("title = %q, want %q", got.Title, rec.Title)
	}
}

func TestMergeStockAddsSellerAndRecomputesAggregates(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	isbn := testISBN(t)

	offer := search.SellerOffer{SellerID: "seller-1", SellerName: "Acme Books", Price: 12.5, Quantity: 3, Condition: "new", LastUpdated: 100}
	if err := idx.MergeStock(ctx, isbn.String(), offer); err != nil {
		t.Fatalf("MergeStock: %v", err)
	}

	rec, found, err := idx.GetRecord(ctx, isbn.String())
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if !found {
		t.Fatal("expected record to exist after MergeStock")
	}
	if rec.Stock.TotalStock != 3 || rec.Stock.AvailableSellers != 1 {
		t.Fatalf("unexpected stock aggregate: %+v", rec.Stock)
	}
	if rec.Pricing.Min != 12.5 || rec.Pricing.Max != 12.5 {
		t.Fatalf("unexpected pricing aggregate: %+v", rec.Pricing)
	}

	second := search.SellerOffer{SellerID: "seller-2", SellerName: "Book Nook", Price: 9.0, Quantity: 1, Condition: "used", LastUpdated: 101}
	if err := idx.MergeStock(ctx, isbn.String(), second); err != nil {
		t.Fatalf("MergeStock: %v", err)
	}
	rec, _, err = idx.GetRecord(ctx, isbn.String())
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if rec.Stock.AvailableSellers != 2 {
		t.Fatalf("expected 2 available sellers, got %d", rec.Stock.AvailableSellers)
	}
	if rec.Pricing.Min != 9.0 {
		t.Fatalf("expected min price 9.0 after second seller, got %v", rec.Pricing.Min)
	}
}

func TestMergeStockZeroQuantityDropsFromAvailability(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	isbn := testISBN(t)

	offer := search.SellerOffer{SellerID: "seller-1", Price: 5, Quantity: 2, LastUpdated: 1}
	if err := idx.MergeStock(ctx, isbn.String(), offer); err != nil {
		t.Fatalf("MergeStock: %v", err)
	}

	soldOut := offer
	soldOut.Quantity = 0
	if err := idx.MergeStock(ctx, isbn.String(), soldOut); err != nil {
		t.Fatalf("MergeStock: %v", err)
	}

	rec, found, err := idx.GetRecord(ctx, isbn.String())
	if err != nil || !found {
		t.Fatalf("GetRecord: found=%v err=%v", found, err)
	}
	if rec.AvailabilityVisible() {
		t.Fatal("record should not be availability-visible once its only seller sells out")
	}

	score := idx.client.ZScore(ctx, byTitleKey, isbn.String())
	if score.Err() == nil {
		t.Fatal("expected isbn to be removed from the by-title availability index")
	}
}

func TestUpsertSellerNameWritesThrough(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	isbn := testISBN(t)

	rec := search.Record{
		ISBN:  isbn,
		Title: "Test",
		Sellers: []search.SellerOffer{
			{SellerID: "seller-1", SellerName: "", Quantity: 1, Price: 1},
		},
	}
	if err := idx.UpsertRecord(ctx, rec); err != nil {
		t.Fatalf("UpsertRecord: %v", err)
	}

	changed, err := idx.UpsertSellerName(ctx, isbn.String(), "seller-1", "Acme Books")
	if err != nil {
		t.Fatalf("UpsertSellerName: %v", err)
	}
	if !changed {
		t.Fatal("expected UpsertSellerName to report a change")
	}

	got, _, err := idx.GetRecord(ctx, isbn.String())
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if got.Sellers[0].SellerName != "Acme Books" {
		t.Fatalf("seller name = %q, want Acme Books", got.Sellers[0].SellerName)
	}
}

func TestMergeStockMaintainsConditionFacet(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	isbn := testISBN(t)

	newOffer := search.SellerOffer{SellerID: "seller-1", Price: 10, Quantity: 1, Condition: "new"}
	if err := idx.MergeStock(ctx, isbn.String(), newOffer); err != nil {
		t.Fatalf("MergeStock: %v", err)
	}
	if ok, _ := idx.client.SIsMember(ctx, facetKey("condition", "new"), isbn.String()).Result(); !ok {
		t.Fatal("expected isbn under facet:condition:new")
	}

	usedOffer := search.SellerOffer{SellerID: "seller-2", Price: 8, Quantity: 1, Condition: "used"}
	if err := idx.MergeStock(ctx, isbn.String(), usedOffer); err != nil {
		t.Fatalf("MergeStock: %v", err)
	}
	if ok, _ := idx.client.SIsMember(ctx, facetKey("condition", "used"), isbn.String()).Result(); !ok {
		t.Fatal("expected isbn under facet:condition:used after second seller")
	}
	if ok, _ := idx.client.SIsMember(ctx, facetKey("condition", "new"), isbn.String()).Result(); !ok {
		t.Fatal("expected isbn to remain under facet:condition:new")
	}

	soldOutNew := newOffer
	soldOutNew.Quantity = 0
	if err := idx.MergeStock(ctx, isbn.String(), soldOutNew); err != nil {
		t.Fatalf("MergeStock: %v", err)
	}
	// a seller selling out doesn't remove their condition offer, only their
	// availability; the offer itself is still reflected in rec.Sellers.
	if ok, _ := idx.client.SIsMember(ctx, facetKey("condition", "new"), isbn.String()).Result(); !ok {
		t.Fatal("expected isbn to remain under facet:condition:new even when that seller sells out")
	}
}

func TestUpsertRecordMaintainsPriceBucketAndRatingFacets(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	isbn := testISBN(t)

	rec := search.Record{
		ISBN:    isbn,
		Title:   "Priced Book",
		Rating:  4.5,
		Pricing: search.Pricing{Min: 12.0, Max: 12.0, Avg: 12.0},
		Stock:   search.Stock{TotalStock: 1, AvailableSellers: 1},
	}
	if err := idx.UpsertRecord(ctx, rec); err != nil {
		t.Fatalf("UpsertRecord: %v", err)
	}

	if score := idx.client.ZScore(ctx, priceBucketKey(10), isbn.String()); score.Err() != nil || score.Val() != 12.0 {
		t.Fatalf("expected isbn scored 12.0 in price bucket 10, got %v err=%v", score.Val(), score.Err())
	}
	if score := idx.client.ZScore(ctx, ratingFacetKey, isbn.String()); score.Err() != nil || score.Val() != 4.5 {
		t.Fatalf("expected isbn scored 4.5 in rating facet, got %v err=%v", score.Val(), score.Err())
	}

	rec.Pricing = search.Pricing{Min: 27.0, Max: 27.0, Avg: 27.0}
	if err := idx.UpsertRecord(ctx, rec); err != nil {
		t.Fatalf("UpsertRecord (re-price): %v", err)
	}
	if score := idx.client.ZScore(ctx, priceBucketKey(10), isbn.String()); score.Err() == nil {
		t.Fatalf("expected isbn removed from bucket 10 after crossing into bucket 20, got %v", score.Val())
	}
	if score := idx.client.ZScore(ctx, priceBucketKey(20), isbn.String()); score.Err() != nil || score.Val() != 27.0 {
		t.Fatalf("expected isbn scored 27.0 in price bucket 20, got %v err=%v", score.Val(), score.Err())
	}
}

// TestUpsertRecordIndexesAutocompleteByWholeTitle mirrors spec.md §8 scenario
// 5: indexing "Dune", "Dune Messiah" and "Duma Key" through the real
// UpsertRecord path must make autocomplete:du resolve all three titles and
// autocomplete:dun resolve exactly the two Dune titles, keyed by whole title
// rather than by shared word tokens.
func TestUpsertRecordIndexesAutocompleteByWholeTitle(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	titles := []struct {
		isbn  string
		title string
	}{
		{"9780441013593", "Dune"},
		{"9780441020397", "Dune Messiah"},
		{"9780345470638", "Duma Key"},
	}
	for _, tc := range titles {
		isbn, err := order.NewISBN(tc.isbn)
		if err != nil {
			t.Fatalf("NewISBN(%q): %v", tc.isbn, err)
		}
		rec := search.Record{ISBN: isbn, Title: tc.title}
		if err := idx.UpsertRecord(ctx, rec); err != nil {
			t.Fatalf("UpsertRecord(%q): %v", tc.title, err)
		}
	}

	du, err := idx.client.ZRange(ctx, autocompleteKey("du"), 0, -1).Result()
	if err != nil {
		t.Fatalf("ZRange autocomplete:du: %v", err)
	}
	wantDu := map[string]bool{"Dune": true, "Dune Messiah": true, "Duma Key": true}
	if len(du) != len(wantDu) {
		t.Fatalf("autocomplete:du members = %v, want exactly %v", du, wantDu)
	}
	for _, m := range du {
		if !wantDu[m] {
			t.Fatalf("autocomplete:du unexpected member %q", m)
		}
	}

	dun, err := idx.client.ZRange(ctx, autocompleteKey("dun"), 0, -1).Result()
	if err != nil {
		t.Fatalf("ZRange autocomplete:dun: %v", err)
	}
	wantDun := map[string]bool{"Dune": true, "Dune Messiah": true}
	if len(dun) != len(wantDun) {
		t.Fatalf("autocomplete:dun members = %v, want exactly %v", dun, wantDun)
	}
	for _, m := range dun {
		if !wantDun[m] {
			t.Fatalf("autocomplete:dun unexpected member %q", m)
		}
	}
}

func TestDeleteRecordRemovesFromIndexes(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	isbn := testISBN(t)

	rec := search.Record{ISBN: isbn, Title: "Vanishing Act", Author: "Nobody"}
	if err := idx.UpsertRecord(ctx, rec); err != nil {
		t.Fatalf("UpsertRecord: %v", err)
	}
	if err := idx.DeleteRecord(ctx, isbn.String()); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	_, found, err := idx.GetRecord(ctx, isbn.String())
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if found {
		t.Fatal("expected record to be gone after DeleteRecord")
	}
	if members, err := idx.client.ZRange(ctx, autocompleteKey("van"), 0, -1).Result(); err != nil || len(members) != 0 {
		t.Fatalf("expected autocomplete:van emptied after DeleteRecord, got %v err=%v", members, err)
	}
}
