package store

import (
	"context"
	"sort"

	"hireflow/geomatch"
)

// Directory serves store lookups for matching, reading through the Redis
// cache when one is configured.
type Directory struct {
	repo  Repository
	cache *Cache
}

// NewDirectory creates a store directory. cache may be nil.
func NewDirectory(repo Repository, cache *Cache) *Directory {
	return &Directory{repo: repo, cache: cache}
}

// GetByID returns a single store.
func (d *Directory) GetByID(ctx context.Context, id string) (Store, error) {
	return d.repo.GetByID(ctx, id)
}

// ListByBrand returns a brand's stores, via the cache when possible. Cache
// failures fall back to the repository; the directory never fails a read
// because Redis is down.
func (d *Directory) ListByBrand(ctx context.Context, brandID string) ([]Store, error) {
	if d.cache != nil {
		if stores, ok, err := d.cache.GetBrand(ctx, brandID); err == nil && ok {
			return stores, nil
		}
	}

	stores, err := d.repo.ListByBrand(ctx, brandID)
	if err != nil {
		return nil, err
	}
	if d.cache != nil {
		_ = d.cache.SetBrand(ctx, brandID, stores)
	}
	return stores, nil
}

// MatchCandidate ranks a brand's stores by commute distance from the
// candidate for the given shift, closest first. Stores without coordinates
// (or a candidate without coordinates) rank last with category far and a
// negative distance.
func (d *Directory) MatchCandidate(ctx context.Context, brandID string, candidate *geomatch.Coords, shift geomatch.Shift) ([]Distance, error) {
	stores, err := d.ListByBrand(ctx, brandID)
	if err != nil {
		return nil, err
	}
	return RankByDistance(stores, candidate, shift), nil
}

// RankByDistance is the pure ranking step behind MatchCandidate.
func RankByDistance(stores []Store, candidate *geomatch.Coords, shift geomatch.Shift) []Distance {
	ranked := make([]Distance, 0, len(stores))
	for _, s := range stores {
		dist := Distance{Store: s, DistanceKm: -1, Category: geomatch.CategoryFar}
		if candidate != nil && s.Coords != nil {
			dist.DistanceKm = geomatch.DistanceKm(*candidate, *s.Coords)
			dist.Category = geomatch.Categorize(dist.DistanceKm, shift)
		}
		ranked = append(ranked, dist)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i].DistanceKm, ranked[j].DistanceKm
		if a < 0 {
			return false
		}
		if b < 0 {
			return true
		}
		return a < b
	})
	return ranked
}
