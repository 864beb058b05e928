package store

import (
	"hireflow/geomatch"
)

// Store is one retail location. Coordinates are optional: geocoding is
// owned by the location-management collaborator and may lag behind store
// creation.
type Store struct {
	ID       string           `json:"id"`
	BrandID  string           `json:"brand_id"`
	Name     string           `json:"name"`
	District string           `json:"district"`
	Coords   *geomatch.Coords `json:"coords,omitempty"`
}

// Distance pairs a store with the candidate's commute distance and its
// match category. DistanceKm is negative when either side lacks
// coordinates.
type Distance struct {
	Store      Store             `json:"store"`
	DistanceKm float64           `json:"distance_km"`
	Category   geomatch.Category `json:"category"`
}
