// Package chgraph holds the in-memory Contraction Hierarchy graph store:
// the sorted edge indices (edge_index.go), the CSR-backed store itself
// (store.go), and the restructure engine that applies one contraction
// round (restructure.go).
package chgraph

import (
	"log"

	"github.com/lintang-b-s/chofftp/pkg/apperr"
	"github.com/lintang-b-s/chofftp/pkg/buildstat"
	"github.com/lintang-b-s/chofftp/pkg/chmodel"
)

// Metadata is a side-car summary kept next to the live CSR data: cheap
// aggregate figures recomputed as rounds are applied, useful for
// progress logs without walking the whole store.
type Metadata struct {
	NodeCount      int
	EdgeCount      int
	ShortcutCount  int64
	MeanOutDegree  float64
}

// Store owns the CH graph's nodes, edges, per-node levels and both sorted
// edge indices. Nodes are fixed at construction; edges grow monotonically.
type Store struct {
	nodes []chmodel.CHNode
	edges []chmodel.Edge

	outIndex *EdgeIndex
	inIndex  *EdgeIndex

	outOffsets []uint32
	inOffsets  []uint32

	nextLevel uint32

	Metadata Metadata

	stat *buildstat.Recorder
}

// SetRecorder attaches a metrics recorder that Restructure reports its
// round and shortcut merge/drop counts to. A nil Recorder (the default)
// disables metrics; nil is always safe to pass.
func (s *Store) SetRecorder(r *buildstat.Recorder) {
	s.stat = r
}

// GraphInData is the producer contract an ingest pipeline hands to Init:
// a dense node set and an edge set of arbitrary order. Node IDs must be
// dense [0, N) and every edge's Src/Tgt must be a valid node id.
type GraphInData struct {
	Nodes []chmodel.Node
	Edges []chmodel.Edge
}

// NewStore allocates an empty store. Call Init to populate it.
func NewStore() *Store {
	s := &Store{}
	s.outIndex = NewEdgeIndex(&s.edges, chmodel.OutEdgeSort)
	s.inIndex = NewEdgeIndex(&s.edges, chmodel.InEdgeSort)
	return s
}

// Init takes ownership of data's nodes and edges, sets every level to
// NoLvl, and builds both sorted indices and their CSR offset tables.
func (s *Store) Init(data GraphInData) {
	s.nodes = make([]chmodel.CHNode, len(data.Nodes))
	for i, n := range data.Nodes {
		s.nodes[i] = chmodel.CHNode{Node: n, Level: chmodel.NoLvl}
	}
	s.edges = data.Edges
	for i := range s.edges {
		apperr.Invariant(int(s.edges[i].Src) < len(s.nodes) && int(s.edges[i].Tgt) < len(s.nodes),
			"chgraph: edge %d references a node id outside [0, %d)", i, len(s.nodes))
		s.edges[i].ID = chmodel.EdgeID(i)
	}

	s.outIndex.SyncSorted()
	s.inIndex.SyncSorted()
	s.initOffsets()

	s.refreshMetadata()
	log.Printf("chgraph: store initialized with %d nodes, %d edges", s.NrNodes(), s.NrEdges())
}

func (s *Store) refreshMetadata() {
	s.Metadata.NodeCount = len(s.nodes)
	s.Metadata.EdgeCount = s.outIndex.Len()
	if len(s.nodes) > 0 {
		s.Metadata.MeanOutDegree = float64(s.outIndex.Len()) / float64(len(s.nodes))
	}
}

// NrNodes returns the number of nodes the store was initialized with.
func (s *Store) NrNodes() int { return len(s.nodes) }

// NrEdges returns the size of the underlying edge array, including edges
// dropped from the live indices by earlier restructure rounds.
func (s *Store) NrEdges() int { return len(s.edges) }

// Node returns node id's current value (including whatever level has
// been assigned to it so far).
func (s *Store) Node(id chmodel.NodeID) chmodel.CHNode { return s.nodes[id] }

// Edge returns the edge at the given physical id, live or not.
func (s *Store) Edge(id chmodel.EdgeID) chmodel.Edge { return s.edges[id] }

// NodeEdges returns the zero-copy CSR slice of EdgeIDs incident to node in
// the given direction, as currently reflected by the live index.
func (s *Store) NodeEdges(node chmodel.NodeID, dir chmodel.EdgeType) []chmodel.EdgeID {
	if dir == chmodel.Out {
		return s.outIndex.order[s.outOffsets[node]:s.outOffsets[node+1]]
	}
	return s.inIndex.order[s.inOffsets[node]:s.inOffsets[node+1]]
}

// NEdges returns the live degree of node in the given direction.
func (s *Store) NEdges(node chmodel.NodeID, dir chmodel.EdgeType) int {
	return len(s.NodeEdges(node, dir))
}

// NEdgesTotal returns the live degree of node in both directions.
func (s *Store) NEdgesTotal(node chmodel.NodeID) int {
	return s.NEdges(node, chmodel.Out) + s.NEdges(node, chmodel.In)
}

// IsUp reports whether traversing edge in the given direction moves to a
// strictly higher-level endpoint. Undefined (panics) if both endpoints
// share a level, since that can never happen for a live edge once all
// rounds have completed.
func (s *Store) IsUp(edge chmodel.Edge, dir chmodel.EdgeType) bool {
	srcLvl := s.nodes[edge.Src].Level
	tgtLvl := s.nodes[edge.Tgt].Level
	apperr.Invariant(srcLvl != tgtLvl, "chgraph: IsUp called on edge %d with src_level == tgt_level == %d", edge.ID, srcLvl)
	if dir == chmodel.Out {
		return tgtLvl > srcLvl
	}
	return srcLvl > tgtLvl
}

// ExportData consumes the store, returning the final node set, per-node
// levels and the full accumulated edge array (including edges dropped
// from the live indices, so that shortcut child references still
// resolve). The store must not be used after this call.
type ExportedGraph struct {
	Nodes  []chmodel.Node
	Levels []uint32
	Edges  []chmodel.Edge
}

func (s *Store) ExportData() ExportedGraph {
	out := ExportedGraph{
		Nodes:  make([]chmodel.Node, len(s.nodes)),
		Levels: make([]uint32, len(s.nodes)),
		Edges:  s.edges,
	}
	for i, n := range s.nodes {
		out.Nodes[i] = n.Node
		out.Levels[i] = n.Level
	}
	return out
}

// initOffsets rebuilds both CSR offset tables by counting per-Src (out)
// and per-Tgt (in) over the current live indices, then prefix-summing.
// The final cell of each table always holds the live edge count.
func (s *Store) initOffsets() {
	n := len(s.nodes)
	s.outOffsets = make([]uint32, n+1)
	s.inOffsets = make([]uint32, n+1)

	for i := 0; i < s.outIndex.Len(); i++ {
		s.outOffsets[s.outIndex.At(i).Src]++
	}
	for i := 0; i < s.inIndex.Len(); i++ {
		s.inOffsets[s.inIndex.At(i).Tgt]++
	}

	var outSum, inSum uint32
	for i := 0; i < n; i++ {
		oldOut, oldIn := outSum, inSum
		outSum += s.outOffsets[i]
		inSum += s.inOffsets[i]
		s.outOffsets[i] = oldOut
		s.inOffsets[i] = oldIn
	}
	apperr.Invariant(int(outSum) == s.outIndex.Len(), "chgraph: out offset prefix sum mismatch")
	apperr.Invariant(int(inSum) == s.inIndex.Len(), "chgraph: in offset prefix sum mismatch")
	s.outOffsets[n] = outSum
	s.inOffsets[n] = inSum
}

// NextLevel reports the level the next restructure round will assign.
func (s *Store) NextLevel() uint32 { return s.nextLevel }
