// Package geomatch classifies candidate commute distance against
// shift-dependent thresholds. It is pure and stateless.
package geomatch

import (
	"math"
	"strings"
)

// Shift identifies the working-hours band a requisition hires for. The
// distance policy is keyed by shift because transit safety differs between
// daytime and night/rotating schedules.
type Shift string

const (
	ShiftMorning        Shift = "morning"
	ShiftAfternoon      Shift = "afternoon"
	ShiftNight          Shift = "night"
	ShiftRotating       Shift = "rotating"
	ShiftAdministrative Shift = "administrative"
)

// IsValidShift reports whether s is one of the known shift bands.
func IsValidShift(s Shift) bool {
	switch s {
	case ShiftMorning, ShiftAfternoon, ShiftNight, ShiftRotating, ShiftAdministrative:
		return true
	}
	return false
}

// Category is the distance-based eligibility classification of a candidate
// relative to a store.
type Category string

const (
	CategoryPerfect    Category = "perfect"
	CategoryAcceptable Category = "acceptable"
	CategoryFar        Category = "far"
)

// Coords is a WGS84 coordinate pair.
type Coords struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Commute policy constants. The thresholds are configuration, not computed:
// tighter for daytime shifts, wider for night/rotating where candidates
// typically commute by car or company shuttle.
const (
	maxKmMorning        = 7.0
	maxKmAfternoon      = 7.0
	maxKmNight          = 12.0
	maxKmRotating       = 12.0
	maxKmAdministrative = 10.0

	// innerBandRatio is the fraction of the shift max inside which a
	// distance counts as a perfect match.
	innerBandRatio = 0.6

	earthRadiusKm = 6371.0
)

// MaxDistanceKm returns the commute threshold in kilometers for a shift.
// Unknown shifts fall back to the tightest threshold.
func MaxDistanceKm(shift Shift) float64 {
	switch shift {
	case ShiftNight:
		return maxKmNight
	case ShiftRotating:
		return maxKmRotating
	case ShiftAdministrative:
		return maxKmAdministrative
	case ShiftMorning, ShiftAfternoon:
		return maxKmMorning
	}
	return maxKmMorning
}

// DistanceKm computes the great-circle distance between two coordinate
// pairs, rounded to one decimal.
func DistanceKm(a, b Coords) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)
	d := 2 * earthRadiusKm * math.Asin(math.Sqrt(h))

	return math.Round(d*10) / 10
}

// Categorize maps a distance to a match category for the given shift.
// A negative distance signals unknown location and is classified far:
// an unknown location never counts as a match.
func Categorize(distanceKm float64, shift Shift) Category {
	if distanceKm < 0 {
		return CategoryFar
	}
	max := MaxDistanceKm(shift)
	switch {
	case distanceKm <= max*innerBandRatio:
		return CategoryPerfect
	case distanceKm <= max:
		return CategoryAcceptable
	}
	return CategoryFar
}

// IsEligible reports whether the distance is within the shift threshold.
func IsEligible(distanceKm float64, shift Shift) bool {
	return distanceKm >= 0 && distanceKm <= MaxDistanceKm(shift)
}

// Score weights.
const (
	districtPoints = 40
	distanceCeil   = 60
	distanceFloor  = 30
	MatchThreshold = 60
)

// Score combines a coarse district comparison with the fine coordinate
// distance into a 0-100 match score. A distance beyond the shift threshold
// (or unknown coordinates) contributes nothing, so a candidate classified
// far can never reach MatchThreshold on district alone.
func Score(candidateDistrict, storeDistrict string, candidate, store *Coords, shift Shift) int {
	score := 0
	if sameDistrict(candidateDistrict, storeDistrict) {
		score += districtPoints
	}

	if candidate == nil || store == nil {
		return score
	}
	d := DistanceKm(*candidate, *store)
	max := MaxDistanceKm(shift)
	if d > max {
		return score
	}

	// Linear decay from distanceCeil at the store down to distanceFloor
	// at the threshold edge.
	score += distanceCeil - int(math.Round(float64(distanceCeil-distanceFloor)*d/max))
	if score > 100 {
		score = 100
	}
	return score
}

func sameDistrict(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}
