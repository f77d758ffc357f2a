package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/search-api/internal/query/cache"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/search-api/internal/query/repo"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/apperr"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/order"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/search"
)

func newTestService(t *testing.T) (*Service, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(repo.NewRedis(client), cache.NewStrategy(client)), client
}

func seedBook(t *testing.T, ctx context.Context, client *redis.Client, isbnRaw, title string, titleScore float64, sellers ...search.SellerOffer) {
	t.Helper()
	isbn, err := order.NewISBN(isbnRaw)
	if err != nil {
		t.Fatalf("NewISBN: %v", err)
	}
	rec := search.Record{ISBN: isbn, Title: title, Sellers: sellers}
	body, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if err := client.Set(ctx, "book:"+isbn.String(), body, 0).Err(); err != nil {
		t.Fatalf("Set book: %v", err)
	}
	if err := client.ZAdd(ctx, "available:books:by:title", redis.Z{Score: titleScore, Member: isbn.String()}).Err(); err != nil {
		t.Fatalf("ZAdd: %v", err)
	}
}

func TestGetAvailableBooksRejectsOutOfRangePageSize(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.GetAvailableBooks(context.Background(), 1, 0, repo.SortByTitle, SortAsc)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for pageSize=0, got %v", err)
	}
	_, err = svc.GetAvailableBooks(context.Background(), 1, 101, repo.SortByTitle, SortAsc)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for pageSize=101, got %v", err)
	}
}

func TestGetAvailableBooksRejectsBadPage(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.GetAvailableBooks(context.Background(), 0, 20, repo.SortByTitle, SortAsc)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for page=0, got %v", err)
	}
}

func TestGetAvailableBooksExpandsOneRowPerInStockSeller(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	seedBook(t, ctx, client, "9780143127550", "Book One", 1,
		search.SellerOffer{SellerID: "s1", SellerName: "Alice", Price: 10, Quantity: 2, Condition: "new"},
		search.SellerOffer{SellerID: "s2", SellerName: "Bob", Price: 8, Quantity: 0, Condition: "used"},
	)

	page, err := svc.GetAvailableBooks(ctx, 1, 20, repo.SortByTitle, SortAsc)
	if err != nil {
		t.Fatalf("GetAvailableBooks: %v", err)
	}
	if len(page.Rows) != 1 {
		t.Fatalf("expected exactly 1 row (sold-out seller excluded), got %d: %+v", len(page.Rows), page.Rows)
	}
	if page.Rows[0].SellerID != "s1" {
		t.Fatalf("expected row for in-stock seller s1, got %+v", page.Rows[0])
	}
	if page.TotalBooks != 1 {
		t.Fatalf("TotalBooks = %d, want 1", page.TotalBooks)
	}
}

func seedToken(t *testing.T, ctx context.Context, client *redis.Client, token, isbn string) {
	t.Helper()
	if err := client.SAdd(ctx, "index:"+token, isbn).Err(); err != nil {
		t.Fatalf("SAdd token: %v", err)
	}
}

func TestSearchBooksRejectsEmptyTerm(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.SearchBooks(context.Background(), "")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for empty term, got %v", err)
	}
}

func TestSearchBooksIntersectsMultiWordTokens(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	seedBook(t, ctx, client, "9780143127550", "The Go Programming Language", 1,
		search.SellerOffer{SellerID: "s1", Price: 10, Quantity: 2})
	seedToken(t, ctx, client, "go", "9780143127550")
	seedToken(t, ctx, client, "programming", "9780143127550")

	result, err := svc.SearchBooks(ctx, "go programming")
	if err != nil {
		t.Fatalf("SearchBooks: %v", err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("expected 1 row from the token intersection, got %d: %+v", len(result.Rows), result.Rows)
	}

	keys, err := client.Keys(ctx, "search:stats:*").Result()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("expected exactly one search:stats window counter, got %v", keys)
	}
	if count, err := client.Get(ctx, keys[0]).Result(); err != nil || count != "1" {
		t.Fatalf("search:stats count = %q (err=%v), want 1", count, err)
	}
}

func TestSearchBooksExcludesSoldOutTokenMatch(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	seedBook(t, ctx, client, "9780143127550", "Lonely Copy", 1,
		search.SellerOffer{SellerID: "s1", Price: 10, Quantity: 0})
	seedToken(t, ctx, client, "lonely", "9780143127550")

	result, err := svc.SearchBooks(ctx, "lonely")
	if err != nil {
		t.Fatalf("SearchBooks: %v", err)
	}
	if len(result.Rows) != 0 {
		t.Fatalf("expected 0 rows for a sold-out-only match, got %d", len(result.Rows))
	}
}

func TestAutocompleteRejectsShortPrefix(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Autocomplete(context.Background(), "d", 10)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for a 1-char prefix, got %v", err)
	}
}

func TestAutocompleteOrdersByPopularityThenLexicographic(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	// "dune" and "duma" tie at score 2 and "dusk" trails at 1, all under
	// prefix "du"; the tie is broken lexicographically.
	if err := client.ZIncrBy(ctx, "autocomplete:du", 2, "dune").Err(); err != nil {
		t.Fatalf("ZIncrBy: %v", err)
	}
	if err := client.ZIncrBy(ctx, "autocomplete:du", 2, "duma").Err(); err != nil {
		t.Fatalf("ZIncrBy: %v", err)
	}
	if err := client.ZIncrBy(ctx, "autocomplete:du", 1, "dusk").Err(); err != nil {
		t.Fatalf("ZIncrBy: %v", err)
	}

	terms, err := svc.Autocomplete(ctx, "du", 10)
	if err != nil {
		t.Fatalf("Autocomplete: %v", err)
	}
	want := []string{"duma", "dune", "dusk"}
	if len(terms) != len(want) {
		t.Fatalf("terms = %v, want %v", terms, want)
	}
	for i := range want {
		if terms[i] != want[i] {
			t.Fatalf("terms = %v, want %v", terms, want)
		}
	}
}

func TestGetAvailableBooksServesSecondCallFromCache(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	seedBook(t, ctx, client, "9780143127550", "Book One", 1,
		search.SellerOffer{SellerID: "s1", Price: 10, Quantity: 2})

	first, err := svc.GetAvailableBooks(ctx, 1, 20, repo.SortByTitle, SortAsc)
	if err != nil {
		t.Fatalf("GetAvailableBooks: %v", err)
	}

	// Remove the underlying data (but not the cache entry GetAvailableBooks
	// just wrote); a cache hit should still return the previous result
	// instead of an empty page.
	if err := client.Del(ctx, "book:9780143127550", "available:books:by:title").Err(); err != nil {
		t.Fatalf("Del: %v", err)
	}
	_ = first

	second, err := svc.GetAvailableBooks(ctx, 1, 20, repo.SortByTitle, SortAsc)
	if err != nil {
		t.Fatalf("GetAvailableBooks (cached): %v", err)
	}
	if len(second.Rows) != 1 {
		t.Fatalf("expected cached page to still have 1 row after underlying flush, got %d", len(second.Rows))
	}
}
