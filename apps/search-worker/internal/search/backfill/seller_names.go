// Package backfill implements the startup SellerNameRefresh job spec.md
// §4.5 describes: on boot, scan every indexed sellers:{ISBN} entry with an
// empty seller name and fill it in from UserService, bounded to at most 10
// concurrent lookups so a cold cache doesn't open hundreds of connections
// at once.
package backfill

import (
	"context"
	"sync"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/search-worker/internal/search/index"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/logging"
)

// UserNameLookup resolves a seller's display name, backed by a call to
// UserService.
type UserNameLookup interface {
	Name(ctx context.Context, sellerID string) (string, error)
}

const maxConcurrentLookups = 10

type SellerNameRefresh struct {
	idx    *index.Redis
	lookup UserNameLookup
	log    *logging.Logger
}

func New(idx *index.Redis, lookup UserNameLookup, log *logging.Logger) *SellerNameRefresh {
	return &SellerNameRefresh{idx: idx, lookup: lookup, log: log}
}

// Run backfills every sellers:{ISBN} entry with an empty seller name,
// bounding in-flight UserService lookups to maxConcurrentLookups.
func (j *SellerNameRefresh) Run(ctx context.Context) error {
	isbns, err := j.idx.AllISBNs(ctx)
	if err != nil {
		return err
	}

	sem := make(chan struct{}, maxConcurrentLookups)
	var wg sync.WaitGroup
	resolved := make(map[string]string)
	var mu sync.Mutex

	for _, isbn := range isbns {
		rec, existed, err := j.idx.GetRecord(ctx, isbn)
		if err != nil || !existed {
			continue
		}
		for _, s := range rec.Sellers {
			if s.SellerName != "" {
				continue
			}
			sellerID := s.SellerID
			mu.Lock()
			_, inFlight := resolved[sellerID]
			mu.Unlock()
			if inFlight {
				continue
			}
			mu.Lock()
			resolved[sellerID] = ""
			mu.Unlock()

			wg.Add(1)
			sem <- struct{}{}
			go func(sellerID string) {
				defer wg.Done()
				defer func() { <-sem }()
				name, err := j.lookup.Name(ctx, sellerID)
				if err != nil {
					j.log.Warn("seller name lookup failed", map[string]any{"seller_id": sellerID, "err": err.Error()})
					return
				}
				mu.Lock()
				resolved[sellerID] = name
				mu.Unlock()
			}(sellerID)
		}
	}
	wg.Wait()

	for sellerID, name := range resolved {
		if name == "" {
			continue
		}
		for _, isbn := range isbns {
			if _, err := j.idx.UpsertSellerName(ctx, isbn, sellerID, name); err != nil {
				j.log.Warn("seller name write-through failed", map[string]any{"isbn": isbn, "seller_id": sellerID, "err": err.Error()})
			}
		}
	}
	return nil
}
