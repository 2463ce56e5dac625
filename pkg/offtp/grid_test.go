package offtp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierForPicksFirstExceedingThreshold(t *testing.T) {
	assert.Equal(t, 0, tierFor(0))
	assert.Equal(t, 0, tierFor(4))
	assert.Equal(t, 1, tierFor(5))
	assert.Equal(t, 1, tierFor(9))
	assert.Equal(t, 2, tierFor(10))
	assert.Equal(t, 3, tierFor(39))
	assert.Equal(t, -1, tierFor(40))
	assert.Equal(t, -1, tierFor(1000))
}

func TestPackUnpackNodeIDRoundTrips(t *testing.T) {
	for _, tc := range []struct{ block, slot uint32 }{
		{0, 0}, {1, 254}, {12345, 10}, {1 << 20, 0},
	} {
		id := packNodeID(tc.block, tc.slot)
		b, s := unpackNodeID(id)
		assert.Equal(t, tc.block, b)
		assert.Equal(t, tc.slot, s)
	}
}

func TestGridCellIndexIsRowMajor(t *testing.T) {
	assert.Equal(t, uint32(0), gridCellIndex(10, 0, 0))
	assert.Equal(t, uint32(3), gridCellIndex(10, 3, 0))
	assert.Equal(t, uint32(13), gridCellIndex(10, 3, 1))
}

func TestNativeCoordRoundsToNearestUnit(t *testing.T) {
	assert.Equal(t, int32(1), nativeCoord(0.00000005))
	assert.Equal(t, int32(-1), nativeCoord(-0.00000005))
	assert.Equal(t, int32(1068000000), nativeCoord(106.8))
}

func TestSquareDistanceIsSymmetric(t *testing.T) {
	a := squareDistance(0, 0, 3, 4)
	b := squareDistance(3, 4, 0, 0)
	assert.Equal(t, uint64(25), a)
	assert.Equal(t, a, b)
}
