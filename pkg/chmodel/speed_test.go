package chmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSpeedKnownAndUnknownRoadTypes(t *testing.T) {
	assert.Equal(t, int32(130), defaultSpeed(1))
	assert.Equal(t, int32(50), defaultSpeed(12))
	assert.Equal(t, int32(50), defaultSpeed(0))
	assert.Equal(t, int32(50), defaultSpeed(200))
}

func TestCalcTimeDerivesSpeedWhenUnset(t *testing.T) {
	withSpeed := CalcTime(1000, 0, 100)
	derived := CalcTime(1000, 9, -1) // roadType 9 (trunk) -> 80 km/h
	assert.NotEqual(t, withSpeed, derived)
	assert.Equal(t, uint32(1000*1300/80), derived)
}

func TestCalcTimeSaturatesOnOverflow(t *testing.T) {
	got := CalcTime(^uint32(0), 0, 1)
	assert.Equal(t, uint32(4294967295), got)
}
