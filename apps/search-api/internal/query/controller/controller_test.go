package controller

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/search-api/internal/query/cache"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/search-api/internal/query/repo"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/search-api/internal/query/service"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/ratelimit"
)

func newTestController(t *testing.T) *Controller {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := service.New(repo.NewRedis(client), cache.NewStrategy(client))
	limiter := ratelimit.New(client, 100, 1000)
	return New(svc, limiter)
}

func TestGetAvailableBooksDefaultsAndReturnsOK(t *testing.T) {
	c := newTestController(t)
	req := httptest.NewRequest(http.MethodGet, "/api/books/available", nil)
	rec := httptest.NewRecorder()

	c.GetAvailableBooks(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
}

func TestGetAvailableBooksInvalidPageSizeReturnsBadRequest(t *testing.T) {
	c := newTestController(t)
	req := httptest.NewRequest(http.MethodGet, "/api/books/available?pageSize=0", nil)
	rec := httptest.NewRecorder()

	c.GetAvailableBooks(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body=%s", rec.Code, rec.Body.String())
	}
}

func TestSearchBooksRejectsEmptyTerm(t *testing.T) {
	c := newTestController(t)
	req := httptest.NewRequest(http.MethodGet, "/api/books/search", nil)
	rec := httptest.NewRecorder()

	c.SearchBooks(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body=%s", rec.Code, rec.Body.String())
	}
}

func TestSearchBooksReturnsOKForValidTerm(t *testing.T) {
	c := newTestController(t)
	req := httptest.NewRequest(http.MethodGet, "/api/books/search?q=go", nil)
	rec := httptest.NewRecorder()

	c.SearchBooks(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
}

func TestAutocompleteRejectsShortPrefix(t *testing.T) {
	c := newTestController(t)
	req := httptest.NewRequest(http.MethodGet, "/api/books/autocomplete?prefix=d", nil)
	rec := httptest.NewRecorder()

	c.Autocomplete(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body=%s", rec.Code, rec.Body.String())
	}
}

func TestAutocompleteReturnsOK(t *testing.T) {
	c := newTestController(t)
	req := httptest.NewRequest(http.MethodGet, "/api/books/autocomplete?prefix=du", nil)
	rec := httptest.NewRecorder()

	c.Autocomplete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
}

func TestGetAvailableBooksRateLimitsAfterCeiling(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := service.New(repo.NewRedis(client), cache.NewStrategy(client))
	limiter := ratelimit.New(client, 2, 1000)
	c := New(svc, limiter)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/books/available", nil)
		req.RemoteAddr = "9.9.9.9:1234"
		rec := httptest.NewRecorder()
		c.GetAvailableBooks(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/books/available", nil)
	req.RemoteAddr = "9.9.9.9:1234"
	rec := httptest.NewRecorder()
	c.GetAvailableBooks(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429 once the per-minute ceiling is exceeded", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected a Retry-After header on a rate-limited response")
	}
}
