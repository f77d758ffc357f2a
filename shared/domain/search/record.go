// Package search implements the BookSearchRecord projection and the
// tokenization helpers the indexing pipeline (C6) uses to populate the
// inverted token and facet indexes.
package search

import (
	"regexp"
	"strings"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/order"
)

// SellerOffer is one seller's standing offer for a book.
type SellerOffer struct {
	SellerID    string
	SellerName  string
	Price       float64
	Quantity    int
	Condition   string
	LastUpdated int64
}

// Stock summarizes aggregate availability across all sellers of a book.
type Stock struct {
	TotalStock       int
	AvailableSellers int
}

// Pricing summarizes the price range across all sellers of a book.
type Pricing struct {
	Min float64
	Max float64
	Avg float64
}

// Record is the authoritative search projection for one ISBN, mirroring
// `book:{ISBN}` in the key-value store.
type Record struct {
	ISBN        order.ISBN
	Title       string
	Author      string
	Year        int
	Publisher   string
	ImageURLs   []string
	Genre       string
	Language    string
	PageCount   int
	Description string
	Rating      float64
	Edition     string
	Format      string
	Stock       Stock
	Pricing     Pricing
	Sellers     []SellerOffer
}

// AvailabilityVisible holds iff totalStock > 0 and availableSellers > 0,
// per spec.md §3's BookSearchRecord invariant.
func (r Record) AvailabilityVisible() bool {
	return r.Stock.TotalStock > 0 && r.Stock.AvailableSellers > 0
}

// PriceIndexEligible reports whether this record should appear in the
// price-sorted availability index: price indexes exclude records whose
// minimum price is exactly zero.
func (r Record) PriceIndexEligible() bool {
	return r.Pricing.Min > 0
}

var tokenSplitter = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Tokenize lowercases and splits s on Unicode word boundaries, dropping
// empty tokens, matching the indexing pipeline's title+author+ISBN
// tokenization rule.
func Tokenize(s string) []string {
	lower := strings.ToLower(s)
	parts := tokenSplitter.Split(lower, -1)
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		tokens = append(tokens, p)
	}
	return tokens
}

// TokensFor returns the deduplicated token set for a record: lowercase,
// word-boundary-split title, author and ISBN.
func TokensFor(title, author string, isbn order.ISBN) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range Tokenize(title) {
		set[t] = struct{}{}
	}
	for _, t := range Tokenize(author) {
		set[t] = struct{}{}
	}
	for _, t := range Tokenize(string(isbn)) {
		set[t] = struct{}{}
	}
	return set
}

// Prefixes returns every prefix of token with length >= 2, up to and
// including the full token, for the autocomplete index.
func Prefixes(token string) []string {
	runes := []rune(token)
	if len(runes) < 2 {
		return nil
	}
	out := make([]string, 0, len(runes)-1)
	for n := 2; n <= len(runes); n++ {
		out = append(out, string(runes[:n]))
	}
	return out
}

// DiffTokens computes which tokens were gained and lost between an old and
// new token set, for the incremental index-update handlers.
func DiffTokens(old, next map[string]struct{}) (gained, lost []string) {
	for t := range next {
		if _, ok := old[t]; !ok {
			gained = append(gained, t)
		}
	}
	for t := range old {
		if _, ok := next[t]; !ok {
			lost = append(lost, t)
		}
	}
	return gained, lost
}
