// Package geo validates decimal-degree coordinates before they enter the
// graph store or the OffTP writer's bounds scan.
package geo

import (
	"math"

	"github.com/golang/geo/s2"

	"github.com/lintang-b-s/chofftp/pkg/apperr"
)

const (
	earthRadiusKM = 6371.0
)

func havFunction(angleRad float64) float64 {
	return (1 - math.Cos(angleRad)) / 2.0
}

func degreeToRadians(angle float64) float64 {
	return angle * (math.Pi / 180.0)
}

// HaversineDistanceKM is a plain great-circle distance in kilometres.
// pkg/ingest does not call it; ingest validates coordinates with
// ValidateLatLon and AntipodalWithin only.
func HaversineDistanceKM(latOne, lonOne, latTwo, lonTwo float64) float64 {
	latOne, lonOne = degreeToRadians(latOne), degreeToRadians(lonOne)
	latTwo, lonTwo = degreeToRadians(latTwo), degreeToRadians(lonTwo)

	a := havFunction(latOne-latTwo) + math.Cos(latOne)*math.Cos(latTwo)*havFunction(lonOne-lonTwo)
	c := 2.0 * math.Asin(math.Sqrt(a))
	return earthRadiusKM * c
}

// ValidateLatLon rejects coordinates outside the representable decimal
// degree range before they reach nativeCoord's 1e7 fixed-point
// conversion, where an out-of-range value would silently wrap.
func ValidateLatLon(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return apperr.WrapErrorf(nil, apperr.ErrInputParse, "geo: latitude %f out of range", lat)
	}
	if lon < -180 || lon > 180 {
		return apperr.WrapErrorf(nil, apperr.ErrInputParse, "geo: longitude %f out of range", lon)
	}
	return nil
}

// AntipodalWithin reports whether two points are close to antipodal
// (within toleranceRadians of exactly opposite), the one case where the
// base grid's bounding-box math stops being a sane approximation of
// great-circle proximity: a box spanning a near-antipodal pair would
// cover almost the entire planet. Callers use this to reject or flag
// such pairs before they ever reach the OffTP writer's bounds scan.
func AntipodalWithin(aLat, aLon, bLat, bLon, toleranceRadians float64) bool {
	a := s2.LatLngFromDegrees(aLat, aLon)
	b := s2.LatLngFromDegrees(bLat, bLon)
	antipodeOfA := s2.LatLng{Lat: -a.Lat, Lng: a.Lng + math.Pi}
	return antipodeOfA.Distance(b).Radians() <= toleranceRadians
}
