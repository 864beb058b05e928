package store

import (
	"context"
	"errors"
	"testing"

	"hireflow/geomatch"
)

type fakeStoreRepo struct {
	stores []Store
	calls  int
	err    error
}

func (f *fakeStoreRepo) GetByID(_ context.Context, id string) (Store, error) {
	for _, s := range f.stores {
		if s.ID == id {
			return s, nil
		}
	}
	return Store{}, ErrStoreNotFound
}

func (f *fakeStoreRepo) ListByBrand(_ context.Context, brandID string) ([]Store, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]Store, 0, len(f.stores))
	for _, s := range f.stores {
		if s.BrandID == brandID {
			out = append(out, s)
		}
	}
	return out, nil
}

func brandStores() []Store {
	return []Store{
		{ID: "st-center", BrandID: "brand-1", Name: "Centro", District: "Centro", Coords: &geomatch.Coords{Lat: -34.6037, Lng: -58.3816}},
		{ID: "st-north", BrandID: "brand-1", Name: "Norte", District: "Palermo", Coords: &geomatch.Coords{Lat: -34.5450, Lng: -58.4500}},
		{ID: "st-nocoords", BrandID: "brand-1", Name: "Sin Geo", District: "Flores"},
	}
}

func TestRankByDistance_ClosestFirstUnknownLast(t *testing.T) {
	candidate := &geomatch.Coords{Lat: -34.6000, Lng: -58.3900}

	ranked := RankByDistance(brandStores(), candidate, geomatch.ShiftMorning)

	if len(ranked) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(ranked))
	}
	if ranked[0].Store.ID != "st-center" {
		t.Errorf("closest store should rank first, got %s", ranked[0].Store.ID)
	}
	if ranked[2].Store.ID != "st-nocoords" {
		t.Errorf("store without coordinates should rank last, got %s", ranked[2].Store.ID)
	}
	if ranked[2].DistanceKm >= 0 || ranked[2].Category != geomatch.CategoryFar {
		t.Errorf("unknown distance must be negative and far: %+v", ranked[2])
	}
	if ranked[0].Category != geomatch.CategoryPerfect {
		t.Errorf("sub-kilometer commute should be perfect, got %s", ranked[0].Category)
	}
}

func TestRankByDistance_NoCandidateCoords(t *testing.T) {
	ranked := RankByDistance(brandStores(), nil, geomatch.ShiftMorning)

	for _, d := range ranked {
		if d.DistanceKm >= 0 || d.Category != geomatch.CategoryFar {
			t.Errorf("without candidate coordinates every store is far: %+v", d)
		}
	}
}

func TestDirectory_MatchCandidateUsesShiftThreshold(t *testing.T) {
	repo := &fakeStoreRepo{stores: brandStores()}
	dir := NewDirectory(repo, nil)

	// ~6.6 km from st-center: acceptable for morning, perfect for night.
	candidate := &geomatch.Coords{Lat: -34.5450, Lng: -58.3900}

	morning, err := dir.MatchCandidate(context.Background(), "brand-1", candidate, geomatch.ShiftMorning)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	night, err := dir.MatchCandidate(context.Background(), "brand-1", candidate, geomatch.ShiftNight)
	if err != nil {
		t.Fatalf("match: %v", err)
	}

	var morningCat, nightCat geomatch.Category
	for _, d := range morning {
		if d.Store.ID == "st-center" {
			morningCat = d.Category
		}
	}
	for _, d := range night {
		if d.Store.ID == "st-center" {
			nightCat = d.Category
		}
	}
	if morningCat != geomatch.CategoryAcceptable {
		t.Errorf("morning category: got %s, want acceptable", morningCat)
	}
	if nightCat != geomatch.CategoryPerfect {
		t.Errorf("night category: got %s, want perfect", nightCat)
	}
}

func TestDirectory_ListByBrandErrorPropagates(t *testing.T) {
	repo := &fakeStoreRepo{err: errors.New("db down")}
	dir := NewDirectory(repo, nil)

	if _, err := dir.ListByBrand(context.Background(), "brand-1"); err == nil {
		t.Fatal("expected repository error to propagate")
	}
}
