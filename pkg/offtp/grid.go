// Package offtp implements the Offline TourenPlaner (OffTP) binary file
// format: writer.go bins a contracted graph into a hierarchical spatial
// grid and serializes it page-aligned and big-endian; reader.go parses
// the header and answers find_node by walking the grid's block chains.
package offtp

const (
	// BlockSize is the node capacity of a single on-disk block.
	BlockSize = 255
	// PageSize is the on-disk section alignment.
	PageSize = 4096
	// slotBits is the number of low bits reserved for the in-block slot
	// in a packed node id; BlockSize (255) fits comfortably in 10 bits.
	slotBits = 10

	magic1  = 0x4348474F
	magic2  = 0x66665450
	version = 1
)

// gridTier describes one non-core level of the hierarchical grid: nodes
// whose CH level is below Threshold live in a Dim x Dim grid at this
// tier; the first tier whose Threshold exceeds a node's level is its
// home tier, and a node with no such tier is a core node.
type gridTier struct {
	Threshold uint32
	Dim       uint32
}

var gridTiers = []gridTier{
	{Threshold: 5, Dim: 256},
	{Threshold: 10, Dim: 64},
	{Threshold: 20, Dim: 32},
	{Threshold: 40, Dim: 8},
}

// coreRank is the CH level at and above which a node belongs to the core
// bucket rather than any grid tier.
const coreRank = 40

// tierFor returns the index into gridTiers that level belongs to, or -1
// if level is a core node (level >= coreRank).
func tierFor(level uint32) int {
	for i, t := range gridTiers {
		if t.Threshold > level {
			return i
		}
	}
	return -1
}

// packNodeID combines a block index and in-block slot into the single
// on-disk node identifier used by both the node-geo blocks and the edge
// and shortcut endpoint references. The same (block<<10)|slot formula is
// used everywhere a node id is produced or consumed, so a reader can
// never disagree with the writer about what a given id means.
func packNodeID(blockIndex uint32, slot uint32) uint32 {
	return (blockIndex << slotBits) | slot
}

// unpackNodeID splits a packed identifier back into block index and slot.
func unpackNodeID(id uint32) (blockIndex uint32, slot uint32) {
	return id >> slotBits, id & (1<<slotBits - 1)
}

// gridCellIndex is the canonical flattening of a 2-D grid cell into the
// cell-to-block lookup table: row-major, y the slow index, x the fast
// index, matching the reader's own lookup formula.
func gridCellIndex(gridWidth, x, y uint32) uint32 {
	return y*gridWidth + x
}

// nativeCoord rounds a decimal-degree coordinate to the signed 32-bit,
// 1e7-units-per-degree integer encoding used throughout the on-disk
// format.
func nativeCoord(deg float64) int32 {
	return int32(roundFloat(deg * 1e7))
}

func roundFloat(v float64) float64 {
	if v < 0 {
		return -roundFloat(-v)
	}
	return float64(int64(v + 0.5))
}

// squareDistance is the squared Euclidean distance between two native
// coordinate pairs, the metric find_node minimizes. It is monotonic with
// great-circle distance at the scale of a single grid cell, which is all
// the reader needs.
func squareDistance(alon, alat, blon, blat int32) uint64 {
	dlon := int64(alon) - int64(blon)
	dlat := int64(alat) - int64(blat)
	return uint64(dlon*dlon + dlat*dlat)
}
