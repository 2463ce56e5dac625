package chgraph

import (
	"golang.org/x/exp/slices"

	"github.com/lintang-b-s/chofftp/pkg/chmodel"
)

// EdgeIndex is a sorted permutation view over a shared edge array: it
// never owns or copies edges, only the order in which positions into the
// backing array are visited. Two instances (one per direction) share the
// same backing *[]chmodel.Edge.
type EdgeIndex struct {
	edges *[]chmodel.Edge
	order []chmodel.EdgeID
	less  func(a, b chmodel.Edge) bool
}

// NewEdgeIndex creates a view with no order yet; call SyncSorted before
// using it.
func NewEdgeIndex(edges *[]chmodel.Edge, less func(a, b chmodel.Edge) bool) *EdgeIndex {
	return &EdgeIndex{edges: edges, less: less}
}

// SyncSorted resets the view to cover every edge currently in the backing
// array and sorts it by the view's comparator.
func (v *EdgeIndex) SyncSorted() {
	n := len(*v.edges)
	v.order = make([]chmodel.EdgeID, n)
	for i := range v.order {
		v.order[i] = chmodel.EdgeID(i)
	}
	v.sort()
}

func (v *EdgeIndex) sort() {
	edges := *v.edges
	slices.SortStableFunc(v.order, func(a, b chmodel.EdgeID) int {
		switch {
		case v.less(edges[a], edges[b]):
			return -1
		case v.less(edges[b], edges[a]):
			return 1
		default:
			return 0
		}
	})
}

// Extend appends additional backing-array positions to the view and
// re-sorts. Used by the restructure engine to fold freshly appended
// shortcuts into an index that has already had stale entries pruned,
// without reverting that pruning the way a full SyncSorted would (a full
// resync would resurrect every edge ever dropped by an earlier round,
// since the backing array is append-only across the store's lifetime).
func (v *EdgeIndex) Extend(ids []chmodel.EdgeID) {
	v.order = append(v.order, ids...)
	v.sort()
}

// EraseIf removes every index whose edge satisfies pred, preserving the
// relative order of what remains.
func (v *EdgeIndex) EraseIf(pred func(e chmodel.Edge) bool) {
	edges := *v.edges
	kept := v.order[:0]
	for _, id := range v.order {
		if !pred(edges[id]) {
			kept = append(kept, id)
		}
	}
	v.order = kept
}

// Len reports how many edges the view currently covers.
func (v *EdgeIndex) Len() int { return len(v.order) }

// At dereferences the view's i-th position into the backing edge array.
func (v *EdgeIndex) At(i int) chmodel.Edge { return (*v.edges)[v.order[i]] }

// IDAt returns the EdgeID stored at the view's i-th position.
func (v *EdgeIndex) IDAt(i int) chmodel.EdgeID { return v.order[i] }

// Order exposes the raw permutation, e.g. for CSR offset construction.
func (v *EdgeIndex) Order() []chmodel.EdgeID { return v.order }
