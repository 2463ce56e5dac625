package offtp

import (
	"encoding/binary"
	"io"

	"golang.org/x/exp/slices"
)

// byteWriter accumulates big-endian uint32 writes and tracks the total
// byte count so align() can pad to the next page boundary, without going
// through an in-memory buffer larger than one write at a time.
type byteWriter struct {
	w   io.Writer
	buf [4]byte
	n   int64
}

func newByteWriter(w io.Writer) *byteWriter {
	return &byteWriter{w: w}
}

func (bw *byteWriter) writeUint32(vs ...uint32) error {
	for _, v := range vs {
		binary.BigEndian.PutUint32(bw.buf[:], v)
		if _, err := bw.w.Write(bw.buf[:]); err != nil {
			return err
		}
		bw.n += 4
	}
	return nil
}

// align pads with zero bytes up to the next PageSize boundary. A writer
// already sitting exactly on a boundary is a no-op: a full-PageSize
// remainder counts as "already aligned".
func (bw *byteWriter) align() error {
	pad := PageSize - int(bw.n%PageSize)
	if pad == PageSize {
		return nil
	}
	zero := make([]byte, pad)
	if _, err := bw.w.Write(zero); err != nil {
		return err
	}
	bw.n += int64(pad)
	return nil
}

// sortStableByKey stable-sorts ids by the uint32 key function, used by
// fillBlocks to visit nodes in ascending CH level while preserving their
// original relative order among ties.
func sortStableByKey(ids []uint32, key func(uint32) uint32) {
	slices.SortStableFunc(ids, func(a, b uint32) int {
		ka, kb := key(a), key(b)
		switch {
		case ka < kb:
			return -1
		case ka > kb:
			return 1
		default:
			return 0
		}
	})
}
