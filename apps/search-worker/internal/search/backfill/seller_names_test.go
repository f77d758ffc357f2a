package backfill

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/search-worker/internal/search/index"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/order"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/search"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/logging"
)

type fakeLookup struct {
	calls int64
}

func (f *fakeLookup) Name(ctx context.Context, sellerID string) (string, error) {
	atomic.AddInt64(&f.calls, 1)
	return "Resolved " + sellerID, nil
}

func newTestIndex(t *testing.T) (*index.Redis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return index.NewRedis(client), client
}

func TestSellerNameRefreshFillsEmptyNamesOnce(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		isbnRaw := fmt.Sprintf("978014312755%d", i)
		isbn, err := order.NewISBN(isbnRaw)
		if err != nil {
			t.Fatalf("NewISBN: %v", err)
		}
		rec := search.Record{
			ISBN:  isbn,
			Title: "Book",
			Sellers: []search.SellerOffer{
				{SellerID: "seller-shared", SellerName: "", Quantity: 1, Price: 1},
			},
		}
		if err := idx.UpsertRecord(ctx, rec); err != nil {
			t.Fatalf("UpsertRecord: %v", err)
		}
	}

	lookup := &fakeLookup{}
	log := logging.New("search-worker-test", "test")
	job := New(idx, lookup, log)

	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if lookup.calls != 1 {
		t.Fatalf("expected exactly 1 lookup for the shared seller across 3 books, got %d", lookup.calls)
	}

	for i := 0; i < 3; i++ {
		isbnRaw := fmt.Sprintf("978014312755%d", i)
		rec, found, err := idx.GetRecord(ctx, isbnRaw)
		if err != nil || !found {
			t.Fatalf("GetRecord(%s): found=%v err=%v", isbnRaw, found, err)
		}
		if rec.Sellers[0].SellerName != "Resolved seller-shared" {
			t.Fatalf("isbn %s: seller name = %q, want write-through to every book", isbnRaw, rec.Sellers[0].SellerName)
		}
	}
}
