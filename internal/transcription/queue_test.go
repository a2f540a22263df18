package transcription

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueueCreation(t *testing.T) {
	q := NewQueue()
	require.Equal(t, 0, q.QueueDepth())
	require.False(t, q.IsWorkerActive())
}

func TestEnqueue(t *testing.T) {
	q := NewQueue()
	require.True(t, q.Enqueue(QueuedSegment{Samples: make([]float32, 1000)}))
	require.Equal(t, 1, q.QueueDepth())
}

func TestQueueLimit(t *testing.T) {
	q := NewQueue()
	for i := 0; i < MaxQueueSize; i++ {
		require.True(t, q.Enqueue(QueuedSegment{Samples: make([]float32, 100), TimestampSecs: float64(i)}))
	}
	require.False(t, q.Enqueue(QueuedSegment{Samples: make([]float32, 100), TimestampSecs: 999}))
}

func TestQueueClear(t *testing.T) {
	q := NewQueue()
	q.Enqueue(QueuedSegment{Samples: make([]float32, 10)})
	q.Clear()
	require.Equal(t, 0, q.QueueDepth())
}

func TestWorkerDrainsQueueAndWritesTranscript(t *testing.T) {
	q := NewQueue()
	q.Enqueue(QueuedSegment{Samples: make([]float32, 1600), TimestampSecs: 1.5})

	transcriptPath := t.TempDir() + "/out.md"
	mock := &MockTranscriber{Text: "hello there"}

	var gotTimestamp float64
	var gotText string
	q.StartWorker(transcriptPath, mock, func(ts float64, text string) {
		gotTimestamp = ts
		gotText = text
	})

	q.StopWorker()
	q.Wait()

	require.Equal(t, 1, q.SegmentsProcessed())
	require.Equal(t, 1.5, gotTimestamp)
	require.Equal(t, "hello there", gotText)

	contents, err := os.ReadFile(transcriptPath)
	require.NoError(t, err)
	require.Contains(t, string(contents), "hello there")
}

func TestStartWorkerIsIdempotent(t *testing.T) {
	q := NewQueue()
	mock := &MockTranscriber{Text: "x"}
	path := t.TempDir() + "/out.md"

	q.StartWorker(path, mock, nil)
	firstDone := q.done
	q.StartWorker(path, mock, nil) // should be a no-op, same worker
	require.Equal(t, firstDone, q.done)

	q.StopWorker()
	q.Wait()
}
