// Package segmentbuf implements the circular sample buffer the
// transcription pipeline uses to materialize speech segments once the
// voice-activity detector confirms a start.
package segmentbuf

// Capacity holds the maximum segment length: 30 seconds at 16kHz mono.
const Capacity = 30 * 16000

// RingBuffer is a fixed-capacity circular buffer of float32 samples.
// Single-owner by design: the transcribe state is its only writer and
// reader, so no lock is needed.
type RingBuffer struct {
	data       [Capacity]float32
	writeIndex int
	filled     bool
}

// New creates an empty ring buffer.
func New() *RingBuffer {
	return &RingBuffer{}
}

// Write appends samples, overwriting the oldest data once capacity is
// exceeded.
func (r *RingBuffer) Write(samples []float32) {
	for _, s := range samples {
		r.data[r.writeIndex] = s
		r.writeIndex = (r.writeIndex + 1) % Capacity
		if r.writeIndex == 0 {
			r.filled = true
		}
	}
}

// WriteIndex returns the current write cursor.
func (r *RingBuffer) WriteIndex() int {
	return r.writeIndex
}

// IndexFromLookback computes the write index minus n samples, modulo
// capacity — the buffer position n samples before "now".
func (r *RingBuffer) IndexFromLookback(n int) int {
	idx := r.writeIndex - n
	idx %= Capacity
	if idx < 0 {
		idx += Capacity
	}
	return idx
}

// ExtractSegment copies samples from startIdx up to the current write
// index, in chronological order.
func (r *RingBuffer) ExtractSegment(startIdx int) []float32 {
	return r.ExtractSegmentTo(startIdx, r.writeIndex)
}

// ExtractSegmentTo copies a chronological sub-range [startIdx, endIdx).
// Used for word-break extraction, where the end boundary is not "now".
func (r *RingBuffer) ExtractSegmentTo(startIdx, endIdx int) []float32 {
	if startIdx == endIdx {
		return nil
	}

	var length int
	if endIdx > startIdx {
		length = endIdx - startIdx
	} else {
		length = Capacity - startIdx + endIdx
	}

	out := make([]float32, length)
	for i := 0; i < length; i++ {
		out[i] = r.data[(startIdx+i)%Capacity]
	}
	return out
}
