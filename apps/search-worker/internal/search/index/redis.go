// Package index maintains the Redis search projection spec.md §4.5
// describes: the authoritative per-ISBN record, inverted token sets for
// multi-word search, sorted availability indexes, facet sets, and the
// autocomplete prefix index.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/order"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/search"
)

type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func bookKey(isbn string) string            { return "book:" + isbn }
func sellersKey(isbn string) string         { return "sellers:" + isbn }
func tokenKey(token string) string          { return "index:" + token }
func facetKey(dimension, value string) string { return fmt.Sprintf("facet:%s:%s", dimension, value) }
func autocompleteKey(prefix string) string  { return "autocomplete:" + prefix }
func priceBucketKey(bucket int) string      { return fmt.Sprintf("facet:price_bucket:%d", bucket) }

const (
	byTitleKey    = "available:books:by:title"
	byPriceKey    = "available:books:by:price"
	ratingFacetKey = "facet:rating"

	// priceBucketWidth is the bucket granularity for the price-bucket
	// numeric facet (spec.md §4.5): books are grouped in $10 bands.
	priceBucketWidth = 10.0
)

func priceBucket(price float64) int {
	return int(price/priceBucketWidth) * int(priceBucketWidth)
}

// GetRecord loads the authoritative projection for isbn, if any.
func (r *Redis) GetRecord(ctx context.Context, isbn string) (*search.Record, bool, error) {
	raw, err := r.client.Get(ctx, bookKey(isbn)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var rec search.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false, err
	}
	return &rec, true, nil
}

// UpsertRecord tokenizes rec's title/author/ISBN, diffs against whatever was
// previously indexed for this ISBN, and applies the gained/lost token sets,
// facet memberships, and availability sorted sets, then writes the new
// projection. The read-diff-write is not atomic: UpsertRecord takes no lock,
// and two concurrent calls for the same ISBN can interleave.
func (r *Redis) UpsertRecord(ctx context.Context, rec search.Record) error {
	old, existed, err := r.GetRecord(ctx, rec.ISBN.String())
	if err != nil {
		return err
	}

	newTokens := search.TokensFor(rec.Title, rec.Author, rec.ISBN)
	var oldTokens map[string]struct{}
	if existed {
		oldTokens = search.TokensFor(old.Title, old.Author, old.ISBN)
	} else {
		oldTokens = map[string]struct{}{}
	}
	gained, lost := search.DiffTokens(oldTokens, newTokens)

	isbn := rec.ISBN.String()
	pipe := r.client.Pipeline()
	for _, t := range gained {
		pipe.SAdd(ctx, tokenKey(t), isbn)
	}
	for _, t := range lost {
		pipe.SRem(ctx, tokenKey(t), isbn)
	}

	oldTitle := ""
	if existed {
		oldTitle = old.Title
	}
	r.diffTitleAutocomplete(ctx, pipe, oldTitle, rec.Title)

	if existed {
		r.diffFacets(ctx, pipe, isbn, old.Genre, rec.Genre, "genre")
		r.diffFacets(ctx, pipe, isbn, old.Language, rec.Language, "language")
		r.diffFacets(ctx, pipe, isbn, old.Format, rec.Format, "format")
		r.diffFacets(ctx, pipe, isbn, old.Publisher, rec.Publisher, "publisher")
		r.diffConditionFacets(ctx, pipe, isbn, conditionSet(*old), conditionSet(rec))
		r.diffNumericFacets(ctx, pipe, isbn, old, &rec)
	} else {
		r.addFacets(pipe, ctx, isbn, rec)
		r.diffConditionFacets(ctx, pipe, isbn, nil, conditionSet(rec))
		r.diffNumericFacets(ctx, pipe, isbn, nil, &rec)
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	pipe.Set(ctx, bookKey(isbn), body, 0)

	r.applyAvailability(ctx, pipe, isbn, rec)

	_, err = pipe.Exec(ctx)
	return err
}

// diffTitleAutocomplete maintains the autocomplete:{prefix} sorted sets with
// one member per whole title (spec.md §8 scenario 5), distinct from the
// per-word index:{token} sets diffed alongside it in UpsertRecord. oldTitle
// is "" when the record is new.
func (r *Redis) diffTitleAutocomplete(ctx context.Context, pipe redis.Pipeliner, oldTitle, newTitle string) {
	if oldTitle == newTitle {
		return
	}
	if oldTitle != "" {
		for _, p := range search.Prefixes(strings.ToLower(oldTitle)) {
			pipe.ZRem(ctx, autocompleteKey(p), oldTitle)
		}
	}
	if newTitle != "" {
		for _, p := range search.Prefixes(strings.ToLower(newTitle)) {
			pipe.ZIncrBy(ctx, autocompleteKey(p), 1, newTitle)
		}
	}
}

func (r *Redis) addFacets(pipe redis.Pipeliner, ctx context.Context, isbn string, rec search.Record) {
	if rec.Genre != "" {
		pipe.SAdd(ctx, facetKey("genre", rec.Genre), isbn)
	}
	if rec.Language != "" {
		pipe.SAdd(ctx, facetKey("language", rec.Language), isbn)
	}
	if rec.Format != "" {
		pipe.SAdd(ctx, facetKey("format", rec.Format), isbn)
	}
	if rec.Publisher != "" {
		pipe.SAdd(ctx, facetKey("publisher", rec.Publisher), isbn)
	}
}

func (r *Redis) diffFacets(ctx context.Context, pipe redis.Pipeliner, isbn, oldValue, newValue, dimension string) {
	if oldValue == newValue {
		return
	}
	if oldValue != "" {
		pipe.SRem(ctx, facetKey(dimension, oldValue), isbn)
	}
	if newValue != "" {
		pipe.SAdd(ctx, facetKey(dimension, newValue), isbn)
	}
}

// conditionSet returns the distinct, non-empty seller-offer conditions for
// rec, since the "condition" facet (spec.md §4.5) is per-offer rather than a
// single Record field — one ISBN can carry both "new" and "used" offers.
func conditionSet(rec search.Record) map[string]struct{} {
	set := make(map[string]struct{})
	for _, s := range rec.Sellers {
		if s.Condition != "" {
			set[s.Condition] = struct{}{}
		}
	}
	return set
}

func (r *Redis) diffConditionFacets(ctx context.Context, pipe redis.Pipeliner, isbn string, old, next map[string]struct{}) {
	for c := range next {
		if _, ok := old[c]; !ok {
			pipe.SAdd(ctx, facetKey("condition", c), isbn)
		}
	}
	for c := range old {
		if _, ok := next[c]; !ok {
			pipe.SRem(ctx, facetKey("condition", c), isbn)
		}
	}
}

// diffNumericFacets maintains the price-bucket and rating numeric facets
// (spec.md §4.5), which are sorted sets rather than plain membership sets so
// a range query can filter within a bucket or across a rating band. old is
// nil for a first-time insert.
func (r *Redis) diffNumericFacets(ctx context.Context, pipe redis.Pipeliner, isbn string, old, rec *search.Record) {
	oldEligible := old != nil && old.PriceIndexEligible()
	newEligible := rec.PriceIndexEligible()
	if !oldEligible && !newEligible {
		// no-op
	} else if oldEligible && newEligible && priceBucket(old.Pricing.Min) == priceBucket(rec.Pricing.Min) {
		pipe.ZAdd(ctx, priceBucketKey(priceBucket(rec.Pricing.Min)), redis.Z{Score: rec.Pricing.Min, Member: isbn})
	} else {
		if oldEligible {
			pipe.ZRem(ctx, priceBucketKey(priceBucket(old.Pricing.Min)), isbn)
		}
		if newEligible {
			pipe.ZAdd(ctx, priceBucketKey(priceBucket(rec.Pricing.Min)), redis.Z{Score: rec.Pricing.Min, Member: isbn})
		}
	}

	oldRated := old != nil && old.Rating > 0
	newRated := rec.Rating > 0
	if oldRated != newRated || (newRated && (old == nil || old.Rating != rec.Rating)) {
		if newRated {
			pipe.ZAdd(ctx, ratingFacetKey, redis.Z{Score: rec.Rating, Member: isbn})
		} else if oldRated {
			pipe.ZRem(ctx, ratingFacetKey, isbn)
		}
	}
}

func (r *Redis) applyAvailability(ctx context.Context, pipe redis.Pipeliner, isbn string, rec search.Record) {
	if rec.AvailabilityVisible() {
		pipe.ZAdd(ctx, byTitleKey, redis.Z{Score: search.TitleScore(rec.Title), Member: isbn})
	} else {
		pipe.ZRem(ctx, byTitleKey, isbn)
	}
	if rec.AvailabilityVisible() && rec.PriceIndexEligible() {
		pipe.ZAdd(ctx, byPriceKey, redis.Z{Score: rec.Pricing.Min, Member: isbn})
	} else {
		pipe.ZRem(ctx, byPriceKey, isbn)
	}
}

// MergeStock folds one seller's stock/price update into the record, adjusts
// Stock/Pricing, re-evaluates availability-index membership, and
// invalidates cached listing pages.
func (r *Redis) MergeStock(ctx context.Context, isbn string, offer search.SellerOffer) error {
	rec, existed, err := r.GetRecord(ctx, isbn)
	if err != nil {
		return err
	}
	if !existed {
		parsedISBN, err := order.NewISBN(isbn)
		if err != nil {
			return err
		}
		rec = &search.Record{ISBN: parsedISBN}
	}

	replaced := false
	for i, s := range rec.Sellers {
		if s.SellerID == offer.SellerID {
			rec.Sellers[i] = offer
			replaced = true
			break
		}
	}
	if !replaced {
		rec.Sellers = append(rec.Sellers, offer)
	}
	recomputeAggregates(rec)

	if err := r.UpsertRecord(ctx, *rec); err != nil {
		return err
	}
	return r.invalidateListingPages(ctx)
}

func recomputeAggregates(rec *search.Record) {
	total, sellers := 0, 0
	min, max, sum := 0.0, 0.0, 0.0
	first := true
	for _, s := range rec.Sellers {
		if s.Quantity <= 0 {
			continue
		}
		total += s.Quantity
		sellers++
		if first || s.Price < min {
			min = s.Price
		}
		if first || s.Price > max {
			max = s.Price
		}
		sum += s.Price
		first = false
	}
	rec.Stock = search.Stock{TotalStock: total, AvailableSellers: sellers}
	if sellers > 0 {
		rec.Pricing = search.Pricing{Min: min, Max: max, Avg: sum / float64(sellers)}
	} else {
		rec.Pricing = search.Pricing{}
	}
}

func (r *Redis) invalidateListingPages(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, "available:page:*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

// DeleteRecord removes isbn from every token set it appeared in, its
// sellers/record projections, and the availability sorted sets.
func (r *Redis) DeleteRecord(ctx context.Context, isbn string) error {
	rec, existed, err := r.GetRecord(ctx, isbn)
	if err != nil {
		return err
	}
	pipe := r.client.Pipeline()
	if existed {
		for t := range search.TokensFor(rec.Title, rec.Author, rec.ISBN) {
			pipe.SRem(ctx, tokenKey(t), isbn)
		}
		for _, p := range search.Prefixes(strings.ToLower(rec.Title)) {
			pipe.ZRem(ctx, autocompleteKey(p), rec.Title)
		}
		if rec.Genre != "" {
			pipe.SRem(ctx, facetKey("genre", rec.Genre), isbn)
		}
		if rec.Language != "" {
			pipe.SRem(ctx, facetKey("language", rec.Language), isbn)
		}
		if rec.Format != "" {
			pipe.SRem(ctx, facetKey("format", rec.Format), isbn)
		}
		if rec.Publisher != "" {
			pipe.SRem(ctx, facetKey("publisher", rec.Publisher), isbn)
		}
		for c := range conditionSet(*rec) {
			pipe.SRem(ctx, facetKey("condition", c), isbn)
		}
		if rec.PriceIndexEligible() {
			pipe.ZRem(ctx, priceBucketKey(priceBucket(rec.Pricing.Min)), isbn)
		}
		if rec.Rating > 0 {
			pipe.ZRem(ctx, ratingFacetKey, isbn)
		}
	}
	pipe.Del(ctx, bookKey(isbn), sellersKey(isbn))
	pipe.ZRem(ctx, byTitleKey, isbn)
	pipe.ZRem(ctx, byPriceKey, isbn)
	_, err = pipe.Exec(ctx)
	return err
}

// UpsertSellerName writes seller name through to every Sellers entry for
// isbn matching sellerID, for SellerCreated/UserUpdated write-through and
// the startup backfill job.
func (r *Redis) UpsertSellerName(ctx context.Context, isbn, sellerID, name string) (bool, error) {
	rec, existed, err := r.GetRecord(ctx, isbn)
	if err != nil || !existed {
		return false, err
	}
	changed := false
	for i, s := range rec.Sellers {
		if s.SellerID == sellerID && s.SellerName != name {
			rec.Sellers[i].SellerName = name
			changed = true
		}
	}
	if !changed {
		return false, nil
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return false, err
	}
	return true, r.client.Set(ctx, bookKey(isbn), body, 0).Err()
}

// AllISBNs scans every book:{ISBN} key, for the seller-name backfill job.
func (r *Redis) AllISBNs(ctx context.Context) ([]string, error) {
	var isbns []string
	iter := r.client.Scan(ctx, 0, "book:*", 200).Iterator()
	for iter.Next(ctx) {
		isbns = append(isbns, iter.Val()[len("book:"):])
	}
	return isbns, iter.Err()
}
