package offtp

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/lintang-b-s/chofftp/pkg/apperr"
	"github.com/lintang-b-s/chofftp/pkg/chmodel"
)

// header mirrors the 13-word OffTP file header.
type header struct {
	baseCellX, baseCellY           int32
	baseCellWidth, baseCellHeight  int32
	baseGridWidth, baseGridHeight  uint32
	blockSize                      uint32
	blockCount                     uint32
	coreBlockStart                 uint32
	edgeCount                      uint32
}

// layout is derived from the header: byte offsets of each page-aligned
// section plus the per-block stride shared by the node-geo and
// node-edges sections.
type layout struct {
	stride                                                 uint64
	offsetNodeGeo, offsetNodeEdges, offsetEdges, offsetEdgesDetails uint64
}

// Reader answers point and random-access queries against an OffTP file
// without reading it fully into memory: it seeks through the underlying
// io.ReaderAt, following block chains cell by cell. Its block-chain walk
// uses a correctly-sensed cycle guard (a block seen twice in one search
// stops the walk, rather than the reverse), and every node id it
// produces or consumes uses the single (block<<10)|slot formula.
type Reader struct {
	r      io.ReaderAt
	header header
	layout layout
}

// Open parses the header of an OffTP file accessible through r.
func Open(r io.ReaderAt) (*Reader, error) {
	rd := &Reader{r: r}
	if err := rd.loadHeader(); err != nil {
		return nil, err
	}
	return rd, nil
}

func (rd *Reader) loadHeader() error {
	var h [13]uint32
	if err := rd.readUint32Array(0, h[:]); err != nil {
		return apperr.WrapErrorf(err, apperr.ErrIO, "offtp: reading header")
	}
	if h[0] != magic1 || h[1] != magic2 || h[2] != version {
		return apperr.WrapErrorf(nil, apperr.ErrInputParse, "offtp: bad magic/version")
	}

	rd.header = header{
		baseCellX:      int32(h[3]),
		baseCellY:      int32(h[4]),
		baseCellWidth:  int32(h[5]),
		baseCellHeight: int32(h[6]),
		baseGridWidth:  h[7],
		baseGridHeight: h[8],
		blockSize:      h[9],
		blockCount:     h[10],
		coreBlockStart: h[11],
		edgeCount:      h[12],
	}

	rd.layout.stride = uint64(rd.header.blockSize+1) * 2 * 4
	rd.layout.offsetNodeGeo = PageSize
	rd.layout.offsetNodeEdges = align4k(rd.layout.offsetNodeGeo + uint64(rd.header.blockCount)*rd.layout.stride)
	rd.layout.offsetEdges = align4k(rd.layout.offsetNodeEdges + uint64(rd.header.blockCount)*rd.layout.stride)
	rd.layout.offsetEdgesDetails = align4k(rd.layout.offsetEdges + uint64(rd.header.edgeCount)*8)
	return nil
}

func align4k(offset uint64) uint64 {
	return (offset + PageSize - 1) &^ (PageSize - 1)
}

func (rd *Reader) readUint32Array(offset uint64, target []uint32) error {
	if len(target) == 0 {
		return nil
	}
	buf := make([]byte, len(target)*4)
	if _, err := rd.r.ReadAt(buf, int64(offset)); err != nil {
		return err
	}
	for i := range target {
		target[i] = binary.BigEndian.Uint32(buf[i*4:])
	}
	return nil
}

// nodeGeo is one decoded node-geo record: its packed on-disk id and
// native coordinates.
type nodeGeo struct {
	id       uint32
	lon, lat int32
}

// nodeGeoIterator walks a node-geo block chain starting at an arbitrary
// block, stopping when the chain runs off the end of the file or loops
// back on a block it has already visited.
type nodeGeoIterator struct {
	rd *Reader

	node nodeGeo

	nextNodeID     uint32
	currentOffset  uint64
	blockRemaining uint32
	nextBlock      uint32
	visited        map[uint32]bool
}

func newNodeGeoIterator(rd *Reader) *nodeGeoIterator {
	return &nodeGeoIterator{rd: rd, visited: make(map[uint32]bool)}
}

func (it *nodeGeoIterator) loadBlock(blockNr uint32) {
	it.blockRemaining = 0
	it.nextBlock = blockNr
}

func (it *nodeGeoIterator) next() (bool, error) {
	ok, err := it.fillBlock()
	if err != nil || !ok {
		return false, err
	}

	var word [2]uint32
	if err := it.rd.readUint32Array(it.currentOffset, word[:]); err != nil {
		return false, err
	}
	it.currentOffset += 8

	it.node = nodeGeo{id: it.nextNodeID, lon: int32(word[0]), lat: int32(word[1])}
	it.nextNodeID++
	it.blockRemaining--
	return true, nil
}

// fillBlock advances to the next non-exhausted block in the chain. A
// genuinely fresh block continues the walk; a block already visited
// during this search means the chain has looped, and the walk stops.
func (it *nodeGeoIterator) fillBlock() (bool, error) {
	for it.blockRemaining == 0 {
		if it.nextBlock >= it.rd.header.blockCount {
			return false, nil
		}
		if it.visited[it.nextBlock] {
			return false, nil
		}
		it.visited[it.nextBlock] = true

		it.currentOffset = it.rd.layout.offsetNodeGeo + uint64(it.nextBlock)*it.rd.layout.stride
		it.nextNodeID = packNodeID(it.nextBlock, 0)

		var blockHeader [2]uint32
		if err := it.rd.readUint32Array(it.currentOffset, blockHeader[:]); err != nil {
			return false, err
		}
		it.currentOffset += 8

		it.nextBlock = blockHeader[0]
		it.blockRemaining = blockHeader[1]
	}
	return true, nil
}

// gridCoord is a (x, y) cell coordinate within the base grid.
type gridCoord struct {
	x, y uint32
}

// gridCoordFor maps a native coordinate to its base-grid cell, clamped to
// [0, baseGridWidth) x [0, baseGridHeight).
func (rd *Reader) gridCoordFor(lon, lat int32) gridCoord {
	h := rd.header
	x := uint32(0)
	if lon >= h.baseCellX {
		x = uint32((lon - h.baseCellX) / h.baseCellWidth)
	}
	if x > h.baseGridWidth-1 {
		x = h.baseGridWidth - 1
	}
	y := uint32(0)
	if lat >= h.baseCellY {
		y = uint32((lat - h.baseCellY) / h.baseCellHeight)
	}
	if y > h.baseGridHeight-1 {
		y = h.baseGridHeight - 1
	}
	return gridCoord{x: x, y: y}
}

// FindNode returns the id of the node nearest (lon, lat), in decimal
// degrees, or chmodel.NoNID if neither the chain of the query's base cell
// nor the core holds any node. It runs a
// restart-on-improvement search: probe the query's own base cell, then
// the (up to three) neighboring cells biased toward the query point,
// repeating from the best node found so far until a round produces no
// improvement.
func (rd *Reader) FindNode(lon, lat float64) (uint32, error) {
	search := nativeCoordPair(lon, lat)

	var (
		foundAny bool
		minDist  uint64 = math.MaxUint64
		found    nodeGeo
	)

	it := newNodeGeoIterator(rd)

	for {
		lastNodeID := found.id

		var start gridCoord
		if foundAny {
			start = rd.gridCoordFor(found.lon, found.lat)
		} else {
			start = rd.gridCoordFor(search.lon, search.lat)
		}
		it.loadBlock(start.y*rd.header.baseGridWidth + start.x)

		for {
			ok, err := it.next()
			if err != nil {
				return 0, err
			}
			if !ok {
				break
			}
			d := squareDistance(search.lon, search.lat, it.node.lon, it.node.lat)
			if d < minDist {
				minDist = d
				foundAny = true
				found = it.node
			}
		}

		if found.id != lastNodeID {
			continue // a closer node appeared; restart from its cell
		}

		if !foundAny {
			core := newNodeGeoIterator(rd)
			core.loadBlock(rd.header.coreBlockStart)
			ok, err := core.next()
			if err != nil {
				return 0, err
			}
			if !ok {
				return chmodel.NoNID, nil
			}
			foundAny = true
			found = core.node
			minDist = squareDistance(search.lon, search.lat, found.lon, found.lat)
			continue
		}

		nx := start.x
		switch {
		case search.lon < found.lon && start.x > 0:
			nx = start.x - 1
		case search.lon > found.lon && start.x+1 < rd.header.baseGridWidth:
			nx = start.x + 1
		}
		ny := start.y
		switch {
		case search.lat < found.lat && start.y > 0:
			ny = start.y - 1
		case search.lat > found.lat && start.y+1 < rd.header.baseGridHeight:
			ny = start.y + 1
		}

		neighbors := [3]gridCoord{{start.x, ny}, {nx, start.y}, {nx, ny}}
		for _, neigh := range neighbors {
			it.loadBlock(neigh.y*rd.header.baseGridWidth + neigh.x)
			for {
				ok, err := it.next()
				if err != nil {
					return 0, err
				}
				if !ok {
					break
				}
				d := squareDistance(search.lon, search.lat, it.node.lon, it.node.lat)
				if d < minDist {
					minDist = d
					found = it.node
				}
			}
		}

		if found.id == lastNodeID {
			return found.id, nil
		}
	}
}

type nativePair struct{ lon, lat int32 }

func nativeCoordPair(lon, lat float64) nativePair {
	return nativePair{lon: nativeCoord(lon), lat: nativeCoord(lat)}
}

// NodeCoords reads a single node's native coordinates given its packed
// id, for callers that already have an id (e.g. from an edge record)
// and need to resolve it to a position.
func (rd *Reader) NodeCoords(id uint32) (lon, lat int32, err error) {
	blockIdx, slot := unpackNodeID(id)
	if blockIdx >= rd.header.blockCount || slot >= rd.header.blockSize {
		return 0, 0, apperr.WrapErrorf(nil, apperr.ErrInputParse, "offtp: node id %d out of range", id)
	}
	offset := rd.layout.offsetNodeGeo + uint64(blockIdx)*rd.layout.stride + 8 + uint64(slot)*8
	var word [2]uint32
	if err := rd.readUint32Array(offset, word[:]); err != nil {
		return 0, 0, err
	}
	return int32(word[0]), int32(word[1]), nil
}

// String renders the header for diagnostics.
func (h header) String() string {
	return fmt.Sprintf("base=(%d,%d) cell=(%dx%d) grid=%dx%d blockSize=%d blocks=%d core=%d edges=%d",
		h.baseCellX, h.baseCellY, h.baseCellWidth, h.baseCellHeight,
		h.baseGridWidth, h.baseGridHeight, h.blockSize, h.blockCount, h.coreBlockStart, h.edgeCount)
}
