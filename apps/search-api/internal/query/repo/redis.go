// Package repo gives the Query Layer (C7) read-only access to the Redis
// projection apps/search-worker maintains. It deliberately duplicates the
// small set of key-naming helpers search-worker's internal/search/index
// package owns, rather than importing it, since apps/search-worker's
// internal packages aren't visible outside that app — the same
// per-service repo duplication already used for order/settlement reads.
package repo

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/search"
)

type SortBy string

const (
	SortByTitle SortBy = "title"
	SortByPrice SortBy = "price"
)

func sortedSetKey(sortBy SortBy) string {
	if sortBy == SortByPrice {
		return "available:books:by:price"
	}
	return "available:books:by:title"
}

func bookKey(isbn string) string           { return "book:" + isbn }
func tokenKey(token string) string         { return "index:" + token }
func autocompleteKey(prefix string) string { return "autocomplete:" + prefix }

// statsWindow returns the hourly analytics window key apps/search-worker's
// "search:stats:{window}"/"popular:searches:{window}" keys (spec.md §4.5)
// are bucketed by.
func statsWindow() string { return time.Now().UTC().Format("2006010215") }

type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Page range-reads sortBy's sorted set for the given zero-based window and
// returns the ISBNs in that sorted set's order (already reversed by the
// caller when sortOrder is "desc"), plus the set's total cardinality.
func (r *Redis) Page(ctx context.Context, sortBy SortBy, start, stop int64, desc bool) ([]string, int64, error) {
	key := sortedSetKey(sortBy)
	total, err := r.client.ZCard(ctx, key).Result()
	if err != nil {
		return nil, 0, err
	}
	var isbns []string
	if desc {
		isbns, err = r.client.ZRevRange(ctx, key, start, stop).Result()
	} else {
		isbns, err = r.client.ZRange(ctx, key, start, stop).Result()
	}
	if err != nil {
		return nil, 0, err
	}
	return isbns, total, nil
}

// SearchByTerm intersects the index:{token} sets for every tokenized query
// word, per spec.md §4.5's "multi-word search is set intersection" rule; a
// single-word query is a direct set read.
func (r *Redis) SearchByTerm(ctx context.Context, tokens []string) ([]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	if len(tokens) == 1 {
		return r.client.SMembers(ctx, tokenKey(tokens[0])).Result()
	}
	keys := make([]string, len(tokens))
	for i, t := range tokens {
		keys[i] = tokenKey(t)
	}
	return r.client.SInter(ctx, keys...).Result()
}

// Autocomplete returns up to maxResults terms indexed under prefix, ordered
// by popularity descending with ties broken lexicographically ascending
// (spec.md §4.5) — a plain ZREVRANGE ties-breaks in reverse-lex order, so
// same-score members are re-sorted after the fetch.
func (r *Redis) Autocomplete(ctx context.Context, prefix string, maxResults int64) ([]string, error) {
	zs, err := r.client.ZRevRangeWithScores(ctx, autocompleteKey(prefix), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(zs, func(i, j int) bool {
		if zs[i].Score != zs[j].Score {
			return zs[i].Score > zs[j].Score
		}
		return zs[i].Member.(string) < zs[j].Member.(string)
	})
	if int64(len(zs)) > maxResults {
		zs = zs[:maxResults]
	}
	out := make([]string, len(zs))
	for i, z := range zs {
		out[i] = z.Member.(string)
	}
	return out, nil
}

// RecordSearch bumps the current hour's search:stats counter and the
// popular:searches sorted set for term, per spec.md §4.5's analytics state.
func (r *Redis) RecordSearch(ctx context.Context, term string) error {
	window := statsWindow()
	pipe := r.client.Pipeline()
	statsKey := "search:stats:" + window
	pipe.Incr(ctx, statsKey)
	pipe.Expire(ctx, statsKey, 48*time.Hour)
	pipe.ZIncrBy(ctx, "popular:searches:"+window, 1, term)
	pipe.Expire(ctx, "popular:searches:"+window, 48*time.Hour)
	_, err := pipe.Exec(ctx)
	return err
}

// BulkLoad fetches book:{ISBN} for every isbn in order, skipping any that
// no longer exist in the projection (e.g. deleted between the ZRANGE read
// and this load).
func (r *Redis) BulkLoad(ctx context.Context, isbns []string) ([]search.Record, error) {
	if len(isbns) == 0 {
		return nil, nil
	}
	keys := make([]string, len(isbns))
	for i, isbn := range isbns {
		keys[i] = bookKey(isbn)
	}
	raws, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	records := make([]search.Record, 0, len(raws))
	for _, raw := range raws {
		s, ok := raw.(string)
		if !ok {
			continue
		}
		var rec search.Record
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
