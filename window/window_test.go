package window

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkRows(t *testing.T) {
	tests := []struct {
		maxReq, width, want int
	}{
		{maxReq: 65535 * 4, width: 1280, want: 51},
		{maxReq: 16 << 20, width: 5120, want: 819},
		{maxReq: 1024, width: 1280, want: 0},
		{maxReq: 1024, width: 0, want: 0},
	}
	for _, test := range tests {
		got := chunkRows(test.maxReq, test.width)
		assert.Equal(t, test.want, got, "max %d width %d", test.maxReq, test.width)
		if got > 0 {
			assert.LessOrEqual(t, putImageHeader+got*test.width*4, test.maxReq)
		}
	}
}

func TestFixedSizeHints(t *testing.T) {
	hints := fixedSizeHints(1280, 360)
	assert.Len(t, hints, 18*4)

	field := func(i int) uint32 { return binary.LittleEndian.Uint32(hints[i*4:]) }
	assert.Equal(t, uint32(sizeHintPMinSize|sizeHintPMaxSize|sizeHintPBaseSize), field(0))
	for _, i := range []int{5, 7, 15} {
		assert.Equal(t, uint32(1280), field(i))
		assert.Equal(t, uint32(360), field(i+1))
	}
	assert.Zero(t, field(1))
}

func TestAtomData(t *testing.T) {
	assert.Equal(t, []byte{0x2a, 0, 0, 0, 0x01, 0x02, 0, 0}, atomData(0x2a, 0x201))
}
