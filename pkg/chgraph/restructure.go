package chgraph

import (
	"golang.org/x/exp/slices"

	"github.com/lintang-b-s/chofftp/pkg/apperr"
	"github.com/lintang-b-s/chofftp/pkg/chmodel"
)

// replaceOrDropResult is replaceOrDrop's three-way outcome for a single
// candidate: survive to step 7, get folded into an existing edge, or get
// discarded outright.
type replaceOrDropResult int

const (
	noExistingMatch replaceOrDropResult = iota
	droppedByExisting
	mergedIntoExisting
)

// Restructure applies one contraction round: deleted lists the nodes
// contracted this round, toDelete is the same information as a dense
// mask (len == NrNodes), and newShortcuts holds candidate shortcuts the
// upstream contractor proposes (each expected to have CenterNode in
// deleted). The eight steps below follow the reference algorithm exactly;
// see DESIGN.md for the line-by-line grounding.
func (s *Store) Restructure(deleted []chmodel.NodeID, toDelete []bool, newShortcuts []chmodel.Edge) {
	apperr.Invariant(len(toDelete) == len(s.nodes), "chgraph: toDelete mask length %d != node count %d", len(toDelete), len(s.nodes))

	// 1. Assign levels.
	for _, n := range deleted {
		apperr.Invariant(toDelete[n], "chgraph: deleted node %d not marked in toDelete", n)
		s.nodes[n].Level = s.nextLevel
	}
	s.nextLevel++
	s.stat.AddRound()

	// 2. Filter candidate shortcuts: drop any whose center is not
	// actually contracted this round; assert the survivors' endpoints
	// are not themselves being contracted.
	candidates := make([]chmodel.Edge, 0, len(newShortcuts))
	for _, sc := range newShortcuts {
		if !toDelete[sc.CenterNode] {
			continue
		}
		apperr.Invariant(!toDelete[sc.Src] && !toDelete[sc.Tgt],
			"chgraph: shortcut %d->%d via %d has a contracted endpoint", sc.Src, sc.Tgt, sc.CenterNode)
		candidates = append(candidates, sc)
	}

	// 3. Sort candidates by (src, tgt, dist) ascending.
	slices.SortFunc(candidates, func(a, b chmodel.Edge) int {
		if a.Src != b.Src {
			return int(a.Src) - int(b.Src)
		}
		if a.Tgt != b.Tgt {
			return int(a.Tgt) - int(b.Tgt)
		}
		switch {
		case a.Dist < b.Dist:
			return -1
		case a.Dist > b.Dist:
			return 1
		default:
			return 0
		}
	})

	// 4. Dedupe: collapse runs with equal (src, tgt) to the first
	// (shortest, by the sort above) survivor.
	deduped := candidates[:0:0]
	for i, sc := range candidates {
		if i == 0 || !chmodel.EqualEndpoints(sc, candidates[i-1]) {
			deduped = append(deduped, sc)
		} else {
			s.stat.AddShortcutsDropped(1)
		}
	}
	candidates = deduped

	// 5. Replace-or-drop against existing live out-edges of sc.Src.
	survivors := candidates[:0:0]
	for _, sc := range candidates {
		switch s.replaceOrDrop(sc) {
		case droppedByExisting:
			s.stat.AddShortcutsDropped(1)
		case mergedIntoExisting:
			s.stat.AddShortcutsMerged(1)
		default:
			survivors = append(survivors, sc)
		}
	}

	// 6. Drop stale edges from both indices (underlying array untouched).
	s.outIndex.EraseIf(func(e chmodel.Edge) bool { return toDelete[e.Src] || toDelete[e.Tgt] })
	s.inIndex.EraseIf(func(e chmodel.Edge) bool { return toDelete[e.Src] || toDelete[e.Tgt] })

	// 7. Append remaining shortcuts to the edge array, each with a fresh
	// EdgeID = previous size + i.
	base := len(s.edges)
	newIDs := make([]chmodel.EdgeID, len(survivors))
	for i, sc := range survivors {
		sc.ID = chmodel.EdgeID(base + i)
		s.edges = append(s.edges, sc)
		newIDs[i] = sc.ID
	}
	s.stat.AddShortcutsMerged(len(survivors))

	// 8. Fold the newly appended shortcuts into the already-pruned
	// indices and re-sort. This must not resync from the whole backing
	// array: the array is append-only across the store's entire
	// lifetime, so a full resync would resurrect edges pruned by every
	// earlier round, not just this one.
	s.outIndex.Extend(newIDs)
	s.inIndex.Extend(newIDs)
	s.initOffsets()
	s.refreshMetadata()
	s.Metadata.ShortcutCount += int64(len(survivors))
}

// replaceOrDrop implements restructure step 5 for a single candidate: it
// binary-searches sc.Src's live out-range for edges sharing endpoints
// with sc and either drops sc (any existing edge, shortcut or plain, is
// at least as short), or overwrites the first such edge in place and
// drops sc (every existing edge, shortcut or plain, is longer), or
// reports no match (sc survives to step 7).
func (s *Store) replaceOrDrop(sc chmodel.Edge) replaceOrDropResult {
	lo := s.outOffsets[sc.Src]
	hi := s.outOffsets[sc.Src+1]
	order := s.outIndex.order[lo:hi]

	start, ok := slices.BinarySearchFunc(order, sc, func(id chmodel.EdgeID, target chmodel.Edge) int {
		return chmodel.CompareOut(s.edges[id], target)
	})
	if !ok {
		return noExistingMatch
	}
	for i := start; i < len(order); i++ {
		e := s.edges[order[i]]
		if !chmodel.EqualEndpoints(e, sc) {
			break
		}
		if e.Dist <= sc.Dist {
			return droppedByExisting
		}
	}
	sc.ID = s.edges[order[start]].ID
	s.edges[order[start]] = sc
	return mergedIntoExisting
}

// RebuildCompleteGraph re-sorts both indices over every edge currently in
// the array, including edges previously dropped from the live view, and
// reinitializes offsets. Used before export when a consumer needs a full
// live view of the accumulated edge set.
func (s *Store) RebuildCompleteGraph() {
	s.outIndex.SyncSorted()
	s.inIndex.SyncSorted()
	s.initOffsets()
	s.refreshMetadata()
}
