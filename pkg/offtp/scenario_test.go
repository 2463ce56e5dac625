package offtp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lintang-b-s/chofftp/pkg/chmodel"
)

// TestBoundsCalculationMatchesWorkedExample checks calcBounds/
// prepareCellBlocks's arithmetic against a hand-computed pair of points:
// two nodes a degree apart on each axis, which should round to
// base_cell_x = base_cell_y = -1 and a base cell width/height of
// 10_000_000/256 + 1 = 39_063.
func TestBoundsCalculationMatchesWorkedExample(t *testing.T) {
	nodes := []chmodel.Node{
		{Lat: 0, Lon: 0},
		{Lat: 1, Lon: 1},
	}
	levels := []uint32{0, 1}
	edges := []chmodel.Edge{
		{Src: 0, Tgt: 1, Dist: 100, ChildEdge1: chmodel.NoEID, ChildEdge2: chmodel.NoEID, CenterNode: chmodel.NoNID},
	}

	wr := &writer{nodes: nodes, levels: levels, edges: edges}
	wr.calcBounds()
	wr.prepareCellBlocks()

	assert.Equal(t, int32(0), wr.minLon)
	assert.Equal(t, int32(0), wr.minLat)
	assert.Equal(t, int32(10_000_000), wr.maxLon)
	assert.Equal(t, int32(10_000_000), wr.maxLat)
	assert.Equal(t, int32(-1), wr.baseCellX)
	assert.Equal(t, int32(-1), wr.baseCellY)
	assert.Equal(t, int32(39_063), wr.baseCellWidth)
	assert.Equal(t, int32(39_063), wr.baseCellHeight)
	assert.Len(t, wr.blocks, 256*256)
}

// TestWriteGraphOnEmptyGraphStillEmitsAValidHeader covers the degenerate
// boundary case: no nodes and no edges still produces a header with the
// base grid's 256x256 cells pre-allocated and zero edges, and find_node
// against it reports an empty core rather than erroring.
func TestWriteGraphOnEmptyGraphStillEmitsAValidHeader(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, WriteGraph(&buf, nil, nil, nil, nil))

	rd, err := Open(bytes.NewReader(buf.Bytes()))
	assert.NoError(t, err)
	assert.Equal(t, uint32(256*256), rd.header.blockCount)
	assert.Equal(t, uint32(0), rd.header.edgeCount)

	id, err := rd.FindNode(0, 0)
	assert.NoError(t, err)
	assert.Equal(t, chmodel.NoNID, id)
}

// TestOffTPRoundTripOnContractedTriangle covers the full triangle-build
// scenario: three nodes, two contracted and one left in the core, written
// and read back. It checks
// the header's magic/version, a non-empty core, and that find_node on
// each node's own coordinates resolves to that same node.
func TestOffTPRoundTripOnContractedTriangle(t *testing.T) {
	nodes := []chmodel.Node{
		{Lat: 0, Lon: 0},    // 0, contracted first -> level 0
		{Lat: 0, Lon: 0.01}, // 1, level 1
		{Lat: 0.01, Lon: 0}, // 2, never contracted -> core level
	}
	levels := []uint32{0, 1, coreRank}
	edges := []chmodel.Edge{
		{Src: 1, Tgt: 2, Dist: 10, ChildEdge1: chmodel.NoEID, ChildEdge2: chmodel.NoEID, CenterNode: chmodel.NoNID},
		{Src: 2, Tgt: 1, Dist: 10, ChildEdge1: chmodel.NoEID, ChildEdge2: chmodel.NoEID, CenterNode: chmodel.NoNID},
		{Src: 0, Tgt: 2, Dist: 15, ChildEdge1: chmodel.NoEID, ChildEdge2: chmodel.NoEID, CenterNode: chmodel.NoNID},
		{Src: 2, Tgt: 0, Dist: 15, ChildEdge1: chmodel.NoEID, ChildEdge2: chmodel.NoEID, CenterNode: chmodel.NoNID},
	}

	var buf bytes.Buffer
	assert.NoError(t, WriteGraph(&buf, nodes, levels, edges, nil))

	rd, err := Open(bytes.NewReader(buf.Bytes()))
	assert.NoError(t, err)
	assert.Equal(t, []byte("CHGOffTP"), buf.Bytes()[0:8])
	assert.NotEqual(t, chmodel.NoNID, rd.header.coreBlockStart)

	for _, n := range nodes {
		id, err := rd.FindNode(n.Lon, n.Lat)
		assert.NoError(t, err)
		lon, lat, err := rd.NodeCoords(id)
		assert.NoError(t, err)
		assert.InDelta(t, nativeCoord(n.Lon), lon, 1)
		assert.InDelta(t, nativeCoord(n.Lat), lat, 1)
	}
}
