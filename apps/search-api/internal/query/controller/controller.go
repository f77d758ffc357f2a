// Package controller exposes the Query Layer's read endpoints —
// GetAvailableBooks, SearchBooks, Autocomplete — over HTTP, each behind the
// per-IP rate limiting spec.md §4.6 requires at the boundary.
package controller

import (
	"net/http"
	"strconv"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/search-api/internal/query/repo"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/search-api/internal/query/service"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/apperr"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/httpjson"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/ratelimit"
)

type Controller struct {
	svc     *service.Service
	limiter *ratelimit.Limiter
}

func New(svc *service.Service, limiter *ratelimit.Limiter) *Controller {
	return &Controller{svc: svc, limiter: limiter}
}

// @Summary List available books, paginated and sorted
// @Tags search
// @Produce json
// @Param page query int false "Page number (1-based)"
// @Param pageSize query int false "Rows per page (1-100)"
// @Param sortBy query string false "title|price"
// @Param sortOrder query string false "asc|desc"
// @Router /api/books/available [get]
func (c *Controller) GetAvailableBooks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	allowed, err := c.limiter.Allow(ctx, clientIP(r))
	if err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, "rate limiter unavailable")
		return
	}
	if !allowed {
		w.Header().Set("Retry-After", "60")
		httpjson.WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	page := atoiDefault(r.URL.Query().Get("page"), 1)
	pageSize := atoiDefault(r.URL.Query().Get("pageSize"), 20)
	sortBy := repo.SortBy(stringDefault(r.URL.Query().Get("sortBy"), string(repo.SortByTitle)))
	sortOrder := service.SortOrder(stringDefault(r.URL.Query().Get("sortOrder"), string(service.SortAsc)))

	result, err := c.svc.GetAvailableBooks(ctx, page, pageSize, sortBy, sortOrder)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, result)
}

// @Summary Free-text search over indexed book titles/authors/ISBNs
// @Tags search
// @Produce json
// @Param q query string true "Search term"
// @Router /api/books/search [get]
func (c *Controller) SearchBooks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	allowed, err := c.limiter.Allow(ctx, clientIP(r))
	if err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, "rate limiter unavailable")
		return
	}
	if !allowed {
		w.Header().Set("Retry-After", "60")
		httpjson.WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	term := r.URL.Query().Get("q")
	result, err := c.svc.SearchBooks(ctx, term)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, result)
}

// @Summary Autocomplete indexed terms by prefix
// @Tags search
// @Produce json
// @Param prefix query string true "Term prefix, at least 2 characters"
// @Param maxResults query int false "Max suggestions (default 10, capped at 50)"
// @Router /api/books/autocomplete [get]
func (c *Controller) Autocomplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	allowed, err := c.limiter.Allow(ctx, clientIP(r))
	if err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, "rate limiter unavailable")
		return
	}
	if !allowed {
		w.Header().Set("Retry-After", "60")
		httpjson.WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	prefix := r.URL.Query().Get("prefix")
	maxResults := atoiDefault(r.URL.Query().Get("maxResults"), 0)

	terms, err := c.svc.Autocomplete(ctx, prefix, maxResults)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, map[string]any{"terms": terms})
}

func writeServiceError(w http.ResponseWriter, err error) {
	if apperr.Is(err, apperr.KindValidation) {
		httpjson.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}

func atoiDefault(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func stringDefault(raw, def string) string {
	if raw == "" {
		return def
	}
	return raw
}
