package chgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lintang-b-s/chofftp/pkg/chmodel"
)

// chain builds a 3-node line A(0)-B(1)-C(2) with bidirectional edges of
// distance 10 each way.
func chain() GraphInData {
	nodes := []chmodel.Node{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 1},
		{Lat: 0, Lon: 2},
	}
	edges := []chmodel.Edge{
		{Src: 0, Tgt: 1, Dist: 10, ChildEdge1: chmodel.NoEID, ChildEdge2: chmodel.NoEID, CenterNode: chmodel.NoNID},
		{Src: 1, Tgt: 0, Dist: 10, ChildEdge1: chmodel.NoEID, ChildEdge2: chmodel.NoEID, CenterNode: chmodel.NoNID},
		{Src: 1, Tgt: 2, Dist: 10, ChildEdge1: chmodel.NoEID, ChildEdge2: chmodel.NoEID, CenterNode: chmodel.NoNID},
		{Src: 2, Tgt: 1, Dist: 10, ChildEdge1: chmodel.NoEID, ChildEdge2: chmodel.NoEID, CenterNode: chmodel.NoNID},
	}
	return GraphInData{Nodes: nodes, Edges: edges}
}

func TestInitAssignsDenseEdgeIDsAndOffsets(t *testing.T) {
	s := NewStore()
	s.Init(chain())

	assert.Equal(t, 3, s.NrNodes())
	assert.Equal(t, 4, s.NrEdges())

	out0 := s.NodeEdges(0, chmodel.Out)
	assert.Len(t, out0, 1)
	assert.Equal(t, chmodel.NodeID(1), s.Edge(out0[0]).Tgt)

	in1 := s.NodeEdges(1, chmodel.In)
	assert.Len(t, in1, 2)
}

func TestAllNodesStartAtNoLevel(t *testing.T) {
	s := NewStore()
	s.Init(chain())
	for i := 0; i < s.NrNodes(); i++ {
		assert.Equal(t, chmodel.NoLvl, s.Node(chmodel.NodeID(i)).Level)
	}
}

func TestIsUpPanicsOnEqualLevels(t *testing.T) {
	s := NewStore()
	s.Init(chain())
	s.nodes[0].Level = 1
	s.nodes[1].Level = 1
	e := s.Edge(s.NodeEdges(0, chmodel.Out)[0])
	assert.Panics(t, func() { s.IsUp(e, chmodel.Out) })
}

func TestIsUpReportsDirectionRelativeToLevel(t *testing.T) {
	s := NewStore()
	s.Init(chain())
	s.nodes[0].Level = 0
	s.nodes[1].Level = 5
	e := s.Edge(s.NodeEdges(0, chmodel.Out)[0])
	assert.True(t, s.IsUp(e, chmodel.Out))
	assert.False(t, s.IsUp(e, chmodel.In))
}

func TestExportDataPreservesNodeOrderAndLevels(t *testing.T) {
	s := NewStore()
	s.Init(chain())
	s.nodes[0].Level = 2
	s.nodes[1].Level = 0
	s.nodes[2].Level = 1

	out := s.ExportData()
	assert.Equal(t, []uint32{2, 0, 1}, out.Levels)
	assert.Len(t, out.Edges, 4)
	assert.Equal(t, 0.0, out.Nodes[0].Lon)
	assert.Equal(t, 1.0, out.Nodes[1].Lon)
}
