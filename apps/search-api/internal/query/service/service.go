// Package service implements GetAvailableBooks (spec.md §4.6): bounded
// pagination over the availability sorted sets, hydrated into one result
// row per in-stock seller, with a response cached by apps/search-api's
// caching strategy layer.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/search-api/internal/query/cache"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/search-api/internal/query/repo"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/apperr"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/search"
)

const maxPageSize = 100
const defaultAutocompleteMax = 10
const maxAutocompleteMax = 50

// avgSellersPerPage approximates the seller-row expansion factor used to
// estimate a seller-level total when only the book-level sorted set gives
// an exact count (spec.md §4.6 step 4).
const avgSellersPerPage = 2.5

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Row is one seller's in-stock offer of a book, the unit GetAvailableBooks
// emits per spec.md §4.6 step 3.
type Row struct {
	ISBN       string  `json:"isbn"`
	Title      string  `json:"title"`
	Author     string  `json:"author"`
	SellerID   string  `json:"seller_id"`
	SellerName string  `json:"seller_name"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
	Condition  string  `json:"condition"`
}

type Page struct {
	Rows             []Row `json:"rows"`
	Page             int   `json:"page"`
	PageSize         int   `json:"page_size"`
	TotalBooks       int64 `json:"total_books"`
	EstimatedTotal   int64 `json:"estimated_total_sellers"`
	HasNextPage      bool  `json:"has_next_page"`
}

type Service struct {
	repo  *repo.Redis
	cache *cache.Strategy
}

func New(repo *repo.Redis, cacheStrategy *cache.Strategy) *Service {
	return &Service{repo: repo, cache: cacheStrategy}
}

// GetAvailableBooks implements spec.md §4.6: validate bounds, read the
// appropriate sorted-set page, hydrate records, and expand into per-seller
// rows. The page is served from cache when present.
func (s *Service) GetAvailableBooks(ctx context.Context, page, pageSize int, sortBy repo.SortBy, sortOrder SortOrder) (*Page, error) {
	if page < 1 {
		return nil, apperr.New(apperr.KindValidation, "page must be >= 1")
	}
	if pageSize < 1 || pageSize > maxPageSize {
		return nil, apperr.New(apperr.KindValidation, fmt.Sprintf("pageSize must be between 1 and %d", maxPageSize))
	}
	if sortBy != repo.SortByTitle && sortBy != repo.SortByPrice {
		return nil, apperr.New(apperr.KindValidation, "sortBy must be title or price")
	}

	cacheKey := fmt.Sprintf("books:%s:%s:%d:%d", sortBy, sortOrder, page, pageSize)
	var cached Page
	if hit, err := s.cache.Get(ctx, cache.QueryTypeHot, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	start := int64(page-1) * int64(pageSize)
	stop := start + int64(pageSize) - 1
	desc := sortOrder == SortDesc

	isbns, totalBooks, err := s.repo.Page(ctx, sortBy, start, stop, desc)
	if err != nil {
		return nil, err
	}
	records, err := s.repo.BulkLoad(ctx, isbns)
	if err != nil {
		return nil, err
	}

	order := make(map[string]int, len(isbns))
	for i, isbn := range isbns {
		order[isbn] = i
	}
	byOrder := make([]*search.Record, len(isbns))
	for i := range records {
		rec := records[i]
		if idx, ok := order[rec.ISBN.String()]; ok {
			byOrder[idx] = &rec
		}
	}

	var rows []Row
	for _, rec := range byOrder {
		if rec == nil {
			continue
		}
		for _, seller := range rec.Sellers {
			if seller.Quantity <= 0 {
				continue
			}
			rows = append(rows, Row{
				ISBN:       rec.ISBN.String(),
				Title:      rec.Title,
				Author:     rec.Author,
				SellerID:   seller.SellerID,
				SellerName: seller.SellerName,
				Price:      seller.Price,
				Quantity:   seller.Quantity,
				Condition:  seller.Condition,
			})
		}
	}

	estimatedTotal := int64(float64(totalBooks) * avgSellersPerPage)
	totalPages := (estimatedTotal + int64(pageSize) - 1) / int64(pageSize)
	result := &Page{
		Rows:           rows,
		Page:           page,
		PageSize:       pageSize,
		TotalBooks:     totalBooks,
		EstimatedTotal: estimatedTotal,
		HasNextPage:    int64(page) < totalPages,
	}

	_ = s.cache.Set(ctx, cache.QueryTypeHot, cacheKey, result)
	return result, nil
}

// Autocomplete implements spec.md §8 scenario 5: returns up to maxResults
// indexed terms starting with prefix, most-popular first (ties lexicographic
// ascending). A maxResults <= 0 falls back to the default page size.
func (s *Service) Autocomplete(ctx context.Context, prefix string, maxResults int) ([]string, error) {
	if len(prefix) < 2 {
		return nil, apperr.New(apperr.KindValidation, "prefix must be at least 2 characters")
	}
	if maxResults <= 0 {
		maxResults = defaultAutocompleteMax
	}
	if maxResults > maxAutocompleteMax {
		maxResults = maxAutocompleteMax
	}
	return s.repo.Autocomplete(ctx, strings.ToLower(prefix), int64(maxResults))
}

// SearchResult is the response shape for a free-text search, hydrated the
// same way as a GetAvailableBooks page but over the token-index
// intersection rather than an availability sorted set.
type SearchResult struct {
	Rows  []Row `json:"rows"`
	Total int   `json:"total"`
}

// SearchBooks implements the free-text search spec.md §4.5 describes over
// the `index:{token}` sets: tokenize term, intersect, hydrate, expand one row
// per in-stock seller, and record the query in the analytics counters.
func (s *Service) SearchBooks(ctx context.Context, term string) (*SearchResult, error) {
	if term == "" {
		return nil, apperr.New(apperr.KindValidation, "search term must not be empty")
	}

	tokens := search.Tokenize(term)
	if len(tokens) == 0 {
		return nil, apperr.New(apperr.KindValidation, "search term must contain at least one word character")
	}

	cacheKey := "search:" + term
	var cached SearchResult
	if hit, err := s.cache.Get(ctx, cache.QueryTypeWarm, cacheKey, &cached); err == nil && hit {
		_ = s.repo.RecordSearch(ctx, term)
		return &cached, nil
	}

	isbns, err := s.repo.SearchByTerm(ctx, tokens)
	if err != nil {
		return nil, err
	}
	records, err := s.repo.BulkLoad(ctx, isbns)
	if err != nil {
		return nil, err
	}

	var rows []Row
	for _, rec := range records {
		for _, seller := range rec.Sellers {
			if seller.Quantity <= 0 {
				continue
			}
			rows = append(rows, Row{
				ISBN:       rec.ISBN.String(),
				Title:      rec.Title,
				Author:     rec.Author,
				SellerID:   seller.SellerID,
				SellerName: seller.SellerName,
				Price:      seller.Price,
				Quantity:   seller.Quantity,
				Condition:  seller.Condition,
			})
		}
	}

	result := &SearchResult{Rows: rows, Total: len(rows)}
	_ = s.cache.Set(ctx, cache.QueryTypeWarm, cacheKey, result)
	_ = s.repo.RecordSearch(ctx, term)
	return result, nil
}
