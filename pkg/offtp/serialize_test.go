package offtp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByteWriterWriteUint32BigEndian(t *testing.T) {
	var buf bytes.Buffer
	bw := newByteWriter(&buf)
	assert.NoError(t, bw.writeUint32(1, 0x01020304))
	assert.Equal(t, []byte{0, 0, 0, 1, 1, 2, 3, 4}, buf.Bytes())
	assert.Equal(t, int64(8), bw.n)
}

func TestByteWriterAlignPadsToPageBoundary(t *testing.T) {
	var buf bytes.Buffer
	bw := newByteWriter(&buf)
	assert.NoError(t, bw.writeUint32(1, 2, 3))
	assert.NoError(t, bw.align())
	assert.Equal(t, PageSize, buf.Len())
	assert.Equal(t, int64(PageSize), bw.n)
}

func TestByteWriterAlignNoopWhenAlreadyAligned(t *testing.T) {
	var buf bytes.Buffer
	bw := newByteWriter(&buf)
	for i := 0; i < PageSize/4; i++ {
		assert.NoError(t, bw.writeUint32(0))
	}
	assert.NoError(t, bw.align())
	assert.Equal(t, PageSize, buf.Len())
}

func TestSortStableByKeyPreservesTieOrder(t *testing.T) {
	ids := []uint32{5, 1, 3, 2, 4}
	key := func(id uint32) uint32 {
		if id == 1 || id == 2 {
			return 0
		}
		return 1
	}
	sortStableByKey(ids, key)
	assert.Equal(t, []uint32{1, 2, 5, 3, 4}, ids)
}
