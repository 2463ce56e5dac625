// Package chmodel holds the value types shared by the CH graph store and
// the OffTP writer/reader: nodes, edges, shortcuts and their sentinel IDs.
package chmodel

import "math"

// NodeID and EdgeID are dense, zero-based indices into the store's node
// and edge arrays.
type NodeID = uint32
type EdgeID = uint32

// Sentinel values. All four collapse to the same bit pattern: "no such
// node/edge/distance/level" is always math.MaxUint32.
const (
	NoNID uint32 = math.MaxUint32
	NoEID uint32 = math.MaxUint32
	NoLvl uint32 = math.MaxUint32
	NoDist uint32 = math.MaxUint32
)

// EdgeType is the direction a node's adjacency is viewed from.
type EdgeType uint8

const (
	Out EdgeType = 0
	In  EdgeType = 1
)

// Negate returns the opposite direction.
func (t EdgeType) Negate() EdgeType {
	if t == Out {
		return In
	}
	return Out
}

// Node is the geographic identity of a graph vertex. Elev and OSMID are
// optional and carry an explicit presence flag rather than overloading a
// zero value, since both 0 elevation and OSM id 0 are representable.
type Node struct {
	ID       NodeID
	Lat, Lon float64
	Elev     int32
	HasElev  bool
	OSMID    uint64
	HasOSMID bool
}

// CHNode augments Node with its contraction level. Level starts at NoLvl
// and, once assigned by a restructure round, never changes.
type CHNode struct {
	Node
	Level uint32
}

// Edge is a directed, weighted arc. Edges that are shortcuts carry
// (ChildEdge1, ChildEdge2, CenterNode); a plain edge has CenterNode ==
// NoNID and both child fields == NoEID. RoadType 0 means unset; Speed <= 0
// means "derive from RoadType" (see CalcTime). Time is the OffTP time
// metric (units 9/325 seconds); a leaf edge gets it from CalcTime once at
// ingest, a shortcut gets it from Concat summing its children's Time.
type Edge struct {
	ID         EdgeID
	Src, Tgt   NodeID
	Dist       uint32
	Time       uint32
	RoadType   uint8
	Speed      int32
	ChildEdge1 EdgeID
	ChildEdge2 EdgeID
	CenterNode NodeID
}

// IsShortcut reports whether the edge carries child-edge/center-node
// provenance.
func (e Edge) IsShortcut() bool {
	return e.CenterNode != NoNID
}

// EqualEndpoints reports whether a and b connect the same ordered pair of
// nodes (a multigraph may hold several edges with equal endpoints).
func EqualEndpoints(a, b Edge) bool {
	return a.Src == b.Src && a.Tgt == b.Tgt
}

// OtherNode returns the endpoint of e reached by traversing it in the
// given direction: Out yields the target, In yields the source.
func OtherNode(e Edge, dir EdgeType) NodeID {
	if dir == Out {
		return e.Tgt
	}
	return e.Src
}

// Concat composes two edges sharing an endpoint (e1.Tgt == e2.Src) into a
// shortcut candidate spanning e1.Src -> e2.Tgt. Dist and Time both
// saturate on overflow. The result is not yet attached to any center
// node or child IDs; callers fill those in once the contracted node and
// the two underlying EdgeIDs are known.
func Concat(e1, e2 Edge) Edge {
	if e1.Tgt != e2.Src {
		panic("chmodel: Concat requires e1.Tgt == e2.Src")
	}
	return Edge{
		ID:         NoEID,
		Src:        e1.Src,
		Tgt:        e2.Tgt,
		Dist:       saturatingAdd(e1.Dist, e2.Dist),
		Time:       saturatingAdd(e1.Time, e2.Time),
		ChildEdge1: NoEID,
		ChildEdge2: NoEID,
		CenterNode: NoNID,
	}
}

func saturatingAdd(a, b uint32) uint32 {
	sum := uint64(a) + uint64(b)
	if sum > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(sum)
}

// OutEdgeSort orders edges by (Src, Tgt) ascending.
func OutEdgeSort(a, b Edge) bool {
	return a.Src < b.Src || (a.Src == b.Src && a.Tgt < b.Tgt)
}

// InEdgeSort orders edges by (Tgt, Src) ascending.
func InEdgeSort(a, b Edge) bool {
	return a.Tgt < b.Tgt || (a.Tgt == b.Tgt && a.Src < b.Src)
}

// CompareOut is the three-way comparator form of OutEdgeSort, used by the
// binary-search steps in the restructure engine.
func CompareOut(a, b Edge) int {
	if a.Src != b.Src {
		return cmpUint32(a.Src, b.Src)
	}
	return cmpUint32(a.Tgt, b.Tgt)
}

func cmpUint32(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
