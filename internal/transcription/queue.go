// Package transcription queues speech segments produced by the
// transcribe pipeline and runs a worker goroutine that turns them into
// transcript lines via a Transcriber backend.
package transcription

import (
	"sync"
	"sync/atomic"
)

// MaxQueueSize bounds the number of segments awaiting transcription.
// Once full, new segments are dropped rather than blocking the capture
// pipeline.
const MaxQueueSize = 10

// QueuedSegment is one speech segment awaiting transcription: mono
// 16kHz float32 samples and the recording-relative timestamp at which
// the segment started.
type QueuedSegment struct {
	Samples       []float32
	TimestampSecs float64
}

// OnSegmentFunc is invoked by the worker after each segment is
// transcribed and written, with the segment's timestamp and text.
type OnSegmentFunc func(timestampSecs float64, text string)

// Queue is a bounded FIFO of QueuedSegment values with a background
// worker that drains it into a Transcriber and a transcript writer.
type Queue struct {
	mu    sync.Mutex
	items []QueuedSegment

	workerActive      atomic.Bool
	queueDepth        atomic.Int64
	segmentsProcessed atomic.Int64

	stopOnce sync.Once
	done     chan struct{}
}

// NewQueue creates an empty transcription queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends a segment. It returns false, without adding the
// segment, once the queue already holds MaxQueueSize entries.
func (q *Queue) Enqueue(seg QueuedSegment) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) >= MaxQueueSize {
		queueLog.Warn("transcription queue full, segment dropped")
		return false
	}
	q.items = append(q.items, seg)
	q.queueDepth.Store(int64(len(q.items)))
	return true
}

func (q *Queue) popFront() (QueuedSegment, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return QueuedSegment{}, false
	}
	seg := q.items[0]
	q.items = q.items[1:]
	q.queueDepth.Store(int64(len(q.items)))
	return seg, true
}

func (q *Queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// QueueDepth returns the current number of segments awaiting
// transcription.
func (q *Queue) QueueDepth() int {
	return int(q.queueDepth.Load())
}

// SegmentsProcessed returns the total number of segments the worker
// has transcribed since it started.
func (q *Queue) SegmentsProcessed() int {
	return int(q.segmentsProcessed.Load())
}

// IsWorkerActive reports whether a worker goroutine is currently
// running for this queue.
func (q *Queue) IsWorkerActive() bool {
	return q.workerActive.Load()
}

// Clear discards all pending segments without processing them.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
	q.queueDepth.Store(0)
}
