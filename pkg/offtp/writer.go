package offtp

import (
	"io"
	"log"
	"math"

	"github.com/lintang-b-s/chofftp/pkg/apperr"
	"github.com/lintang-b-s/chofftp/pkg/buildstat"
	"github.com/lintang-b-s/chofftp/pkg/chmodel"
)

// block is one fixed-capacity node container in the on-disk node-geo /
// node-edges sections. next chains to the next block at the same grid
// cell (NoNID ends the chain).
type block struct {
	baseX, baseY int32
	tier         uint32 // 0..len(gridTiers)-1, or coreTier for the core chain
	next         uint32
	count        uint32
	nodeIDs      [BlockSize]uint32 // original node index, chmodel.NoNID if unused
}

// coreTier is a tier value one past the last real grid tier: it always
// compares as "greater than" any real tier, so the ascending-order check
// in blocksAddNode keeps working without a separate code path for core
// nodes.
var coreTier = uint32(len(gridTiers))

func newBlock(baseX, baseY int32, tier uint32) *block {
	b := &block{baseX: baseX, baseY: baseY, tier: tier, next: chmodel.NoNID}
	for i := range b.nodeIDs {
		b.nodeIDs[i] = chmodel.NoNID
	}
	return b
}

// writer accumulates the intermediate state of a single OffTP build:
// native node coordinates, the block/cell grid, and the edge
// renumbering tables, before everything is serialized by write().
type writer struct {
	nodes  []chmodel.Node
	levels []uint32
	edges  []chmodel.Edge

	nativeLon, nativeLat []int32

	minLon, minLat, maxLon, maxLat int32
	baseCellX, baseCellY           int32
	baseCellWidth, baseCellHeight  int32

	tierOffsets []uint32 // cumulative cell count before each tier, for gridOffset
	cellBlocks  []uint32 // flattened per-tier cell -> block index (NoNID if empty)

	blocks         []*block
	coreBlockStart uint32

	curTier      uint32
	curTierSet   bool
	curTierNodes uint32

	nodeBlockIDs []uint32 // original node index -> packed (block<<10)|slot

	nodeFirstOutEdgeID, nodeFirstInEdgeID, nodeEndEdgeID []uint32
	useEdges                                             []uint32 // new id -> original edge index
	edgesReverse                                          []uint32 // original edge index -> new id (NoEID if dropped)

	stat *buildstat.Recorder
}

// WriteGraph serializes nodes/levels/edges (as produced by
// chgraph.Store.ExportData, after RebuildCompleteGraph if the caller
// wants a full live view) as an OffTP file to w. stat may be nil.
func WriteGraph(w io.Writer, nodes []chmodel.Node, levels []uint32, edges []chmodel.Edge, stat *buildstat.Recorder) error {
	apperr.Invariant(len(nodes) == len(levels), "offtp: nodes/levels length mismatch")
	wr := &writer{nodes: nodes, levels: levels, edges: edges, stat: stat}

	log.Printf("offtp: writing graph: %d nodes, %d edges", len(nodes), len(edges))

	wr.calcBounds()
	wr.prepareCellBlocks()
	wr.fillBlocks()
	wr.countAndSortEdges()
	return wr.write(w)
}

// calcBounds is phase 1: scan native-encoded node coordinates for their
// bounding box.
func (w *writer) calcBounds() {
	n := len(w.nodes)
	w.nativeLon = make([]int32, n)
	w.nativeLat = make([]int32, n)

	w.minLon, w.minLat = math.MaxInt32, math.MaxInt32
	w.maxLon, w.maxLat = math.MinInt32, math.MinInt32
	for i, nd := range w.nodes {
		lon, lat := nativeCoord(nd.Lon), nativeCoord(nd.Lat)
		w.nativeLon[i], w.nativeLat[i] = lon, lat
		if lon < w.minLon {
			w.minLon = lon
		}
		if lon > w.maxLon {
			w.maxLon = lon
		}
		if lat < w.minLat {
			w.minLat = lat
		}
		if lat > w.maxLat {
			w.maxLat = lat
		}
	}
	if n == 0 {
		// An empty graph still needs a well-defined, non-degenerate
		// bounding box so the base grid's cell-width division below
		// doesn't divide by garbage.
		w.minLon, w.minLat, w.maxLon, w.maxLat = 0, 0, 0, 0
	}
}

// prepareCellBlocks is phase 2: allocate base_cell_x/y/width/height and
// pre-create one empty block per base-grid cell (always 256x256), row by
// row (y outer, x inner), so that the block for base cell (x, y) is block
// y*256+x and cellBlocks is the identity over the base tier. The reader
// relies on this: it uses a base cell index directly as a block index.
func (w *writer) prepareCellBlocks() {
	w.baseCellX = w.minLon - 1
	w.baseCellY = w.minLat - 1

	base := gridTiers[0].Dim // 256
	w.baseCellWidth = (w.maxLon-w.minLon)/int32(base) + 1
	w.baseCellHeight = (w.maxLat-w.minLat)/int32(base) + 1

	var cellCount uint32
	w.tierOffsets = make([]uint32, len(gridTiers))
	for i, t := range gridTiers {
		w.tierOffsets[i] = cellCount
		cellCount += t.Dim * t.Dim
	}

	w.cellBlocks = make([]uint32, cellCount)
	for i := range w.cellBlocks {
		w.cellBlocks[i] = chmodel.NoNID
	}

	for y := uint32(0); y < base; y++ {
		for x := uint32(0); x < base; x++ {
			idx := gridCellIndex(base, x, y)
			blockIdx := w.createBlock(w.baseCellX+int32(x)*w.baseCellWidth, w.baseCellY+int32(y)*w.baseCellHeight, 0)
			w.cellBlocks[idx] = blockIdx
		}
	}
	w.coreBlockStart = chmodel.NoNID
	log.Printf("offtp: base cell size %d x %d", w.baseCellWidth, w.baseCellHeight)
}

func (w *writer) createBlock(baseX, baseY int32, tier uint32) uint32 {
	idx := uint32(len(w.blocks))
	w.blocks = append(w.blocks, newBlock(baseX, baseY, tier))
	return idx
}

func (w *writer) extendBlock(blockIdx uint32) uint32 {
	old := w.blocks[blockIdx]
	apperr.Invariant(old.next == chmodel.NoNID, "offtp: block %d already has a successor", blockIdx)
	idx := uint32(len(w.blocks))
	w.blocks = append(w.blocks, newBlock(old.baseX, old.baseY, old.tier))
	old.next = idx
	return idx
}

// sameLevelLastBlock follows next pointers while they stay within the
// same (baseX, baseY, tier) chain, returning the last such block.
func (w *writer) sameLevelLastBlock(blockIdx uint32) uint32 {
	if blockIdx == chmodel.NoNID {
		return blockIdx
	}
	cur := w.blocks[blockIdx]
	for cur.next != chmodel.NoNID {
		next := w.blocks[cur.next]
		if cur.baseX != next.baseX || cur.baseY != next.baseY || cur.tier != next.tier {
			log.Fatalf("offtp: block chain at %d is not a single grid level", blockIdx)
		}
		blockIdx = cur.next
		cur = next
	}
	return blockIdx
}

// findBaseCellLastBlock follows the *entire* chain (any tier) starting at
// the base cell containing (x, y), returning its very last block — the
// point a newly created higher-tier block should be linked onto.
func (w *writer) findBaseCellLastBlock(x, y int32) uint32 {
	bx, by := w.gridX(0, x), w.gridY(0, y)
	blockIdx := w.cellBlocks[gridCellIndex(gridTiers[0].Dim, bx, by)]
	apperr.Invariant(blockIdx != chmodel.NoNID, "offtp: base cell (%d,%d) has no block", bx, by)
	for w.blocks[blockIdx].next != chmodel.NoNID {
		blockIdx = w.blocks[blockIdx].next
	}
	return blockIdx
}

func (w *writer) blockAddNode(node uint32, blockIdx uint32) uint32 {
	blockIdx = w.sameLevelLastBlock(blockIdx)
	if w.blocks[blockIdx].count >= BlockSize {
		blockIdx = w.extendBlock(blockIdx)
	}
	b := w.blocks[blockIdx]
	slot := b.count
	b.count++
	b.nodeIDs[slot] = node
	return packNodeID(blockIdx, slot)
}

func (w *writer) gridX(tier uint32, x int32) uint32 {
	base := int64(x-w.baseCellX) / int64(w.baseCellWidth)
	return uint32(base * int64(gridTiers[tier].Dim) / int64(gridTiers[0].Dim))
}

func (w *writer) gridY(tier uint32, y int32) uint32 {
	base := int64(y-w.baseCellY) / int64(w.baseCellHeight)
	return uint32(base * int64(gridTiers[tier].Dim) / int64(gridTiers[0].Dim))
}

func (w *writer) gridOffset(tier uint32, x, y int32) uint32 {
	cx, cy := w.gridX(tier, x), w.gridY(tier, y)
	return w.tierOffsets[tier] + gridCellIndex(gridTiers[tier].Dim, cx, cy)
}

func (w *writer) gridBaseX(tier, cellX uint32) int32 {
	scaled := cellX * (gridTiers[0].Dim / gridTiers[tier].Dim)
	return w.baseCellX + w.baseCellWidth*int32(scaled)
}

func (w *writer) gridBaseY(tier, cellY uint32) int32 {
	scaled := cellY * (gridTiers[0].Dim / gridTiers[tier].Dim)
	return w.baseCellY + w.baseCellHeight*int32(scaled)
}

// blocksAddNode is phase 3 for a single node: must be called with nodes
// in ascending CH-level order. Determines the node's grid tier (or
// core), places it into that tier's cell/chain, links the base cell's
// chain up into it if this is the cell's first node at this tier, and
// returns the node's packed on-disk id.
func (w *writer) blocksAddNode(node uint32) uint32 {
	x, y := w.nativeLon[node], w.nativeLat[node]
	rank := w.levels[node]
	tier := coreTier
	if t := tierFor(rank); t >= 0 {
		tier = uint32(t)
	}

	if !w.curTierSet {
		w.curTier, w.curTierSet = tier, true
		w.curTierNodes = 0
	} else if w.curTier < tier {
		w.curTier = tier
		w.curTierNodes = 0
	} else {
		apperr.Invariant(w.curTier == tier, "offtp: nodes not presented in ascending CH level order")
	}
	w.curTierNodes++

	var blockIdx uint32
	if tier != coreTier {
		cellNdx := w.gridOffset(tier, x, y)
		blockIdx = w.cellBlocks[cellNdx]
		if blockIdx == chmodel.NoNID {
			apperr.Invariant(tier > 0, "offtp: base grid cell should always be pre-allocated")
			blockIdx = w.createBlock(w.gridBaseX(tier, w.gridX(tier, x)), w.gridBaseY(tier, w.gridY(tier, y)), tier)
			w.cellBlocks[cellNdx] = blockIdx
		}
	} else {
		if w.coreBlockStart == chmodel.NoNID {
			w.coreBlockStart = w.createBlock(w.baseCellX, w.baseCellY, coreTier)
		}
		blockIdx = w.coreBlockStart
	}

	if tier > 0 {
		old := w.findBaseCellLastBlock(x, y)
		if old < blockIdx {
			apperr.Invariant(w.blocks[old].next == chmodel.NoNID, "offtp: base cell chain end already linked")
			w.blocks[old].next = blockIdx
		} else {
			apperr.Invariant(old == w.sameLevelLastBlock(blockIdx), "offtp: base cell chain should already end in this tier's block")
		}
	}

	return w.blockAddNode(node, blockIdx)
}

// fillBlocks is phase 3: sort node indices by ascending level (stable —
// ties keep their original relative order) and feed them to
// blocksAddNode in that order.
func (w *writer) fillBlocks() {
	order := make([]uint32, len(w.nodes))
	for i := range order {
		order[i] = uint32(i)
	}
	stableSortByLevel(order, w.levels)

	w.nodeBlockIDs = make([]uint32, len(w.nodes))
	for _, n := range order {
		id := w.blocksAddNode(n)
		blockIdx, slot := unpackNodeID(id)
		apperr.Invariant(int(blockIdx) < len(w.blocks) && slot < BlockSize, "offtp: packed node id %d out of range", id)
		w.nodeBlockIDs[n] = id
	}
	log.Printf("offtp: %d blocks in use for %d nodes", len(w.blocks), len(w.nodes))
	if w.stat != nil {
		w.stat.SetBlockCount(len(w.blocks))
	}
}

func stableSortByLevel(order []uint32, levels []uint32) {
	// insertion sort would be quadratic for large graphs; use the
	// generic stable sort the restructure engine already depends on.
	sortStableByKey(order, func(i uint32) uint32 { return levels[i] })
}

// countAndSortEdges is phase 4: classify each edge as a core edge (both
// endpoints core, non-shortcut or shortcut-below-core) or an upward edge
// (stored at the lower-ranked endpoint: OUT at Src if Src ranks lower,
// otherwise IN at Tgt), drop core-internal
// shortcuts, and compute the dense per-node edge-id ranges in block
// order.
func (w *writer) countAndSortEdges() {
	n := len(w.nodes)
	w.nodeFirstOutEdgeID = make([]uint32, n)
	w.nodeFirstInEdgeID = make([]uint32, n)
	w.nodeEndEdgeID = make([]uint32, n)

	var useCount uint32
	for _, e := range w.edges {
		srank, trank := w.levels[e.Src], w.levels[e.Tgt]
		apperr.Invariant(srank != trank, "offtp: edge %d has src_rank == tgt_rank == %d", e.ID, srank)
		switch {
		case srank >= coreRank && trank >= coreRank:
			if e.CenterNode == chmodel.NoNID || w.levels[e.CenterNode] < coreRank {
				w.nodeFirstOutEdgeID[e.Src]++
				useCount++
			}
		case srank < trank:
			w.nodeFirstOutEdgeID[e.Src]++
			useCount++
		default:
			w.nodeFirstInEdgeID[e.Tgt]++
			useCount++
		}
	}

	nextOut := make([]uint32, n)
	nextIn := make([]uint32, n)

	var nextEdgeID uint32
	for _, b := range w.blocks {
		for j := uint32(0); j < BlockSize; j++ {
			nd := b.nodeIDs[j]
			if nd == chmodel.NoNID {
				continue
			}
			cur := nextEdgeID
			nextEdgeID += w.nodeFirstOutEdgeID[nd]
			nextOut[nd] = cur
			w.nodeFirstOutEdgeID[nd] = cur

			cur = nextEdgeID
			nextEdgeID += w.nodeFirstInEdgeID[nd]
			nextIn[nd] = cur
			w.nodeFirstInEdgeID[nd] = cur

			w.nodeEndEdgeID[nd] = nextEdgeID
		}
	}

	w.useEdges = make([]uint32, useCount)
	w.edgesReverse = make([]uint32, len(w.edges))

	for i, e := range w.edges {
		srank, trank := w.levels[e.Src], w.levels[e.Tgt]
		var k uint32 = chmodel.NoEID
		switch {
		case srank >= coreRank && trank >= coreRank:
			if e.CenterNode == chmodel.NoNID || w.levels[e.CenterNode] < coreRank {
				k = nextOut[e.Src]
				nextOut[e.Src]++
			}
		case srank < trank:
			k = nextOut[e.Src]
			nextOut[e.Src]++
		default:
			k = nextIn[e.Tgt]
			nextIn[e.Tgt]++
		}
		if k != chmodel.NoEID {
			w.useEdges[k] = uint32(i)
		}
		w.edgesReverse[i] = k
	}
	if w.stat != nil {
		w.stat.SetEdgeCount(len(w.useEdges))
	}
}

// write is phase 5: serialize every section, page-aligned, big-endian.
func (w *writer) write(out io.Writer) error {
	bw := newByteWriter(out)

	if err := w.writeHeader(bw); err != nil {
		return err
	}
	if err := bw.align(); err != nil {
		return err
	}
	if err := w.writeNodeGeoBlocks(bw); err != nil {
		return err
	}
	if err := bw.align(); err != nil {
		return err
	}
	if err := w.writeNodeEdgesBlocks(bw); err != nil {
		return err
	}
	if err := bw.align(); err != nil {
		return err
	}
	if err := w.writeEdgesBlock(bw); err != nil {
		return err
	}
	if err := bw.align(); err != nil {
		return err
	}
	if err := w.writeEdgeDetailsBlock(bw); err != nil {
		return err
	}
	w.stat.SetBytesWritten(bw.n)
	return nil
}

// §1 Header.
func (w *writer) writeHeader(bw *byteWriter) error {
	return bw.writeUint32(
		magic1, magic2, version,
		uint32(w.baseCellX), uint32(w.baseCellY),
		uint32(w.baseCellWidth), uint32(w.baseCellHeight),
		gridTiers[0].Dim, gridTiers[0].Dim,
		BlockSize, uint32(len(w.blocks)),
		w.coreBlockStart, uint32(len(w.useEdges)),
	)
}

// §2 Node-geo blocks.
func (w *writer) writeNodeGeoBlocks(bw *byteWriter) error {
	bar := buildstat.NewBar(len(w.blocks), 1, 4, "writing node-geo blocks")
	for _, b := range w.blocks {
		if err := bw.writeUint32(b.next, b.count); err != nil {
			return err
		}
		for j := uint32(0); j < BlockSize; j++ {
			nd := b.nodeIDs[j]
			if nd != chmodel.NoNID {
				if err := bw.writeUint32(uint32(w.nativeLon[nd]), uint32(w.nativeLat[nd])); err != nil {
					return err
				}
			} else if err := bw.writeUint32(0, 0); err != nil {
				return err
			}
		}
		bar.Add(1)
	}
	bar.Finish()
	return nil
}

// §3 Node-edges blocks.
func (w *writer) writeNodeEdgesBlocks(bw *byteWriter) error {
	bar := buildstat.NewBar(len(w.blocks), 2, 4, "writing node-edges blocks")
	var currentEnd uint32
	for _, b := range w.blocks {
		if err := bw.writeUint32(0); err != nil {
			return err
		}
		for j := uint32(0); j < BlockSize; j++ {
			nd := b.nodeIDs[j]
			if nd != chmodel.NoNID {
				if err := bw.writeUint32(w.nodeFirstOutEdgeID[nd], w.nodeFirstInEdgeID[nd]); err != nil {
					return err
				}
				currentEnd = w.nodeEndEdgeID[nd]
			} else if err := bw.writeUint32(currentEnd, currentEnd); err != nil {
				return err
			}
		}
		if err := bw.writeUint32(currentEnd); err != nil {
			return err
		}
		bar.Add(1)
	}
	bar.Finish()
	return nil
}

// §4 Edges.
func (w *writer) writeEdgesBlock(bw *byteWriter) error {
	bar := buildstat.NewBar(len(w.useEdges), 3, 4, "writing edges block")
	for _, origIdx := range w.useEdges {
		e := w.edges[origIdx]
		srank, trank := w.levels[e.Src], w.levels[e.Tgt]
		var target uint32
		if srank < trank || trank >= coreRank {
			target = w.nodeBlockIDs[e.Tgt]
		} else {
			target = w.nodeBlockIDs[e.Src]
		}
		if err := bw.writeUint32(target, e.Time); err != nil {
			return err
		}
		bar.Add(1)
	}
	bar.Finish()
	return nil
}

// §5 Edge details.
func (w *writer) writeEdgeDetailsBlock(bw *byteWriter) error {
	bar := buildstat.NewBar(len(w.useEdges), 4, 4, "writing edge details block")
	for _, origIdx := range w.useEdges {
		e := w.edges[origIdx]
		if err := bw.writeUint32(e.Dist); err != nil {
			return err
		}
		if e.ChildEdge1 == chmodel.NoEID {
			apperr.Invariant(e.ChildEdge2 == chmodel.NoEID, "offtp: edge %d has only one child edge set", e.ID)
			if err := bw.writeUint32(math.MaxUint32, math.MaxUint32, math.MaxUint32); err != nil {
				return err
			}
			bar.Add(1)
			continue
		}
		apperr.Invariant(w.edgesReverse[e.ChildEdge1] != chmodel.NoEID, "offtp: shortcut %d's child 1 was dropped", e.ID)
		apperr.Invariant(w.edgesReverse[e.ChildEdge2] != chmodel.NoEID, "offtp: shortcut %d's child 2 was dropped", e.ID)
		apperr.Invariant(e.CenterNode != chmodel.NoNID, "offtp: shortcut %d has no center node", e.ID)
		if err := bw.writeUint32(w.edgesReverse[e.ChildEdge1], w.edgesReverse[e.ChildEdge2], w.nodeBlockIDs[e.CenterNode]); err != nil {
			return err
		}
		bar.Add(1)
	}
	bar.Finish()
	return nil
}
