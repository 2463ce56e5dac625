package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineDistanceKMKnownCities(t *testing.T) {
	// Jakarta to Bandung, roughly 115km as the crow flies.
	d := HaversineDistanceKM(-6.200000, 106.816666, -6.903820, 107.618750)
	assert.InDelta(t, 115, d, 10)
}

func TestHaversineDistanceKMSamePoint(t *testing.T) {
	d := HaversineDistanceKM(10, 20, 10, 20)
	assert.Equal(t, 0.0, d)
}

func TestValidateLatLonRejectsOutOfRange(t *testing.T) {
	assert.Error(t, ValidateLatLon(91, 0))
	assert.Error(t, ValidateLatLon(0, 181))
	assert.NoError(t, ValidateLatLon(-90, -180))
	assert.NoError(t, ValidateLatLon(90, 180))
}

func TestAntipodalWithinDetectsOppositePoints(t *testing.T) {
	assert.True(t, AntipodalWithin(0, 0, 0, 180, 1e-6))
	assert.False(t, AntipodalWithin(0, 0, 0, 1, 1e-6))
}
