// Package ingest defines the producer contract between an external graph
// source and the CH graph store: a forward-only sequence of nodes
// followed by a forward-only sequence of edges, with no assumption about
// where either comes from (an in-memory fixture, a parsed file, a
// database cursor). Load drains a GraphReader's two sequences into a
// chgraph.GraphInData; nothing here uses reflection or generics
// over the reader's own type the way a template-based reader interface
// would.
package ingest

import (
	"github.com/lintang-b-s/chofftp/pkg/apperr"
	"github.com/lintang-b-s/chofftp/pkg/chgraph"
	"github.com/lintang-b-s/chofftp/pkg/chmodel"
	"github.com/lintang-b-s/chofftp/pkg/geo"
)

// NodeSequence yields nodes one at a time. Next returns false once
// exhausted; callers must not call Next again afterward.
type NodeSequence interface {
	Next() (chmodel.Node, bool)
}

// EdgeSequence yields edges one at a time, mirroring NodeSequence.
type EdgeSequence interface {
	Next() (chmodel.Edge, bool)
}

// GraphReader supplies one node sequence and one edge sequence. Nodes
// must be exhausted (and their dense ids assigned) before Edges is
// called, since edge endpoints are expressed as indices into the node
// sequence.
type GraphReader interface {
	Nodes() NodeSequence
	Edges() EdgeSequence
}

// GraphWriter is the dual of GraphReader: something that wants to re-
// emit a graph one node and one edge at a time (a test fixture builder,
// a diagnostic dump). chgraph.Store.ExportData already returns a dense
// in-memory snapshot; GraphWriter exists for producers that want to
// stream rather than materialize that snapshot.
type GraphWriter interface {
	PutNode(chmodel.Node) error
	PutEdge(chmodel.Edge) error
}

// antipodalToleranceRadians bounds how close to exactly opposite an
// edge's endpoints may be before geo.AntipodalWithin flags it: tight
// enough that no real road segment trips it, loose enough to catch a
// genuinely corrupt pair of coordinates.
const antipodalToleranceRadians = 1e-3

// Load drains r into a chgraph.GraphInData ready for Store.Init. Every
// coordinate is range-validated as it's read; an out-of-range coordinate
// is an input error (ErrInputParse), not an invariant violation, since it
// reflects bad input data rather than a programming bug. Every edge's
// Time is derived from its Dist/RoadType/Speed here, once, so later
// shortcut concatenation only ever sums an already-derived value.
func Load(r GraphReader) (chgraph.GraphInData, error) {
	var data chgraph.GraphInData

	nodes := r.Nodes()
	for {
		n, ok := nodes.Next()
		if !ok {
			break
		}
		if err := geo.ValidateLatLon(n.Lat, n.Lon); err != nil {
			return chgraph.GraphInData{}, err
		}
		n.ID = chmodel.NodeID(len(data.Nodes))
		data.Nodes = append(data.Nodes, n)
	}

	edges := r.Edges()
	for {
		e, ok := edges.Next()
		if !ok {
			break
		}
		apperr.Invariant(int(e.Src) < len(data.Nodes) && int(e.Tgt) < len(data.Nodes),
			"ingest: edge references node id outside [0, %d)", len(data.Nodes))

		src, tgt := data.Nodes[e.Src], data.Nodes[e.Tgt]
		if geo.AntipodalWithin(src.Lat, src.Lon, tgt.Lat, tgt.Lon, antipodalToleranceRadians) {
			return chgraph.GraphInData{}, apperr.WrapErrorf(nil, apperr.ErrInputParse,
				"ingest: edge %d->%d endpoints are antipodal", e.Src, e.Tgt)
		}

		e.Time = chmodel.CalcTime(e.Dist, e.RoadType, e.Speed)
		data.Edges = append(data.Edges, e)
	}

	return data, nil
}
