package transcription

import (
	"fmt"
	"time"

	"github.com/omnirec/omnirecd/internal/logging"
)

var queueLog = logging.L("transcription")

// idlePollInterval is how long the worker sleeps when the queue is
// empty, mirroring the original implementation's fixed backoff rather
// than a condition variable.
const idlePollInterval = 50 * time.Millisecond

// StartWorker launches the background goroutine that drains q into
// transcriber, writing recognized text to a transcript file at
// transcriptPath. It is a no-op if a worker is already running for
// this queue. onSegment, if non-nil, is invoked after each segment is
// written.
func (q *Queue) StartWorker(transcriptPath string, transcriber Transcriber, onSegment OnSegmentFunc) {
	if q.workerActive.Swap(true) {
		return // already running
	}
	q.segmentsProcessed.Store(0)
	q.done = make(chan struct{})

	go q.runWorker(transcriptPath, transcriber, onSegment)
}

func (q *Queue) runWorker(transcriptPath string, transcriber Transcriber, onSegment OnSegmentFunc) {
	defer close(q.done)

	queueLog.Info("transcription worker starting", "transcript", transcriptPath)

	writer, err := NewTranscriptWriter(transcriptPath)
	if err != nil {
		queueLog.Error("failed to create transcript writer", "error", err)
		q.workerActive.Store(false)
		return
	}

	if transcriber.IsReady() {
		queueLog.Info("transcription model ready")
	} else {
		queueLog.Warn("transcription model not available, segments will fail to transcribe")
	}

	ticker := time.NewTicker(idlePollInterval)
	defer ticker.Stop()

	for {
		if !q.workerActive.Load() {
			if q.len() == 0 {
				break
			}
		}

		seg, ok := q.popFront()
		if !ok {
			<-ticker.C
			continue
		}

		durationSecs := float64(len(seg.Samples)) / 16000.0
		queueLog.Debug("processing segment",
			"durationSecs", fmt.Sprintf("%.2f", durationSecs),
			"samples", len(seg.Samples),
			"timestampSecs", fmt.Sprintf("%.1f", seg.TimestampSecs))

		text, err := transcriber.Transcribe(seg.Samples)
		if err != nil {
			queueLog.Error("transcription failed", "error", err)
		} else if text != "" {
			if err := writer.WriteSegment(seg.TimestampSecs, text); err != nil {
				queueLog.Error("failed to write transcript", "error", err)
			}
			if onSegment != nil {
				onSegment(seg.TimestampSecs, text)
			}
		}

		q.segmentsProcessed.Add(1)
	}

	if err := writer.Finalize(); err != nil {
		queueLog.Error("failed to finalize transcript", "error", err)
	}
	queueLog.Info("transcription worker exiting")
}

// StopWorker signals the worker to stop after draining any remaining
// queued segments. It does not block, and IsWorkerActive reports false
// as soon as it returns; callers that need to wait for the drain call
// Wait.
func (q *Queue) StopWorker() {
	q.workerActive.Store(false)
}

// Wait blocks until the worker goroutine has exited. It returns
// immediately if no worker was ever started.
func (q *Queue) Wait() {
	if q.done != nil {
		<-q.done
	}
}
