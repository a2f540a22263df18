package segmentbuf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteAndExtractSegment(t *testing.T) {
	r := New()
	samples := []float32{1, 2, 3, 4, 5}
	startIdx := r.WriteIndex()
	r.Write(samples)

	got := r.ExtractSegment(startIdx)
	require.Equal(t, samples, got)
}

func TestIndexFromLookbackWrapsAroundCapacity(t *testing.T) {
	r := New()
	idx := r.IndexFromLookback(10)
	require.Equal(t, Capacity-10, idx)
}

func TestExtractSegmentToWrapsAroundBuffer(t *testing.T) {
	r := New()
	// Fill to near the end of the buffer so the next writes wrap.
	r.writeIndex = Capacity - 3
	r.Write([]float32{1, 2, 3, 4, 5})
	require.Equal(t, 2, r.WriteIndex())

	got := r.ExtractSegmentTo(Capacity-3, 2)
	require.Equal(t, []float32{1, 2, 3, 4, 5}, got)
}

func TestExtractSegmentEmptyRangeReturnsNil(t *testing.T) {
	r := New()
	got := r.ExtractSegmentTo(5, 5)
	require.Nil(t, got)
}

func TestWriteOverwritesOldestOnOverflow(t *testing.T) {
	r := New()
	r.writeIndex = Capacity - 2
	r.Write([]float32{100, 200, 300, 400})
	require.True(t, r.filled)
	require.Equal(t, float32(300), r.data[0])
	require.Equal(t, float32(400), r.data[1])
}
