package ingest

import "github.com/lintang-b-s/chofftp/pkg/chmodel"

// MemoryReader is a GraphReader over nodes/edges already held in memory,
// e.g. a test fixture or a caller that already parsed its own source
// format and only needs the validation and dense-renumbering Load does.
type MemoryReader struct {
	NodeList []chmodel.Node
	EdgeList []chmodel.Edge
}

func (m MemoryReader) Nodes() NodeSequence { return &sliceNodeSeq{s: m.NodeList} }
func (m MemoryReader) Edges() EdgeSequence { return &sliceEdgeSeq{s: m.EdgeList} }

type sliceNodeSeq struct {
	s []chmodel.Node
	i int
}

func (q *sliceNodeSeq) Next() (chmodel.Node, bool) {
	if q.i >= len(q.s) {
		return chmodel.Node{}, false
	}
	n := q.s[q.i]
	q.i++
	return n, true
}

type sliceEdgeSeq struct {
	s []chmodel.Edge
	i int
}

func (q *sliceEdgeSeq) Next() (chmodel.Edge, bool) {
	if q.i >= len(q.s) {
		return chmodel.Edge{}, false
	}
	e := q.s[q.i]
	q.i++
	return e, true
}
