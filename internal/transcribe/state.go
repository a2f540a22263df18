// Package transcribe drives the live transcription pipeline during a
// recording: it resamples captured audio to whisper's expected format,
// segments it with a voice-activity detector, and hands finished
// segments to a transcription.Queue for asynchronous recognition.
package transcribe

import (
	"fmt"
	"math"
	"time"

	"github.com/omnirec/omnirecd/internal/logging"
	"github.com/omnirec/omnirecd/internal/segmentbuf"
	"github.com/omnirec/omnirecd/internal/transcription"
	"github.com/omnirec/omnirecd/internal/vad"
)

var stateLog = logging.L("transcribe")

const (
	// whisperSampleRate is the sample rate whisper models expect.
	whisperSampleRate = 16000

	// maxSegmentDurationSecs forces submission of a segment regardless
	// of speech continuing past this length.
	maxSegmentDurationSecs = 30.0

	// segmentThresholdSecs is the duration at which the state machine
	// starts looking for a word break to split on, rather than cutting
	// mid-word.
	segmentThresholdSecs = 20.0

	// wordBreakGraceSecs bounds how long we'll wait for a word break
	// once seeking one, before forcing submission anyway.
	wordBreakGraceSecs = 2.0

	// minSegmentDurationSecs discards segments shorter than this as
	// detector noise.
	minSegmentDurationSecs = 0.5

	// minAudioRMS discards segments quieter than this as silence that
	// slipped past the detector.
	minAudioRMS = 0.01

	// vadChunkSamples is the chunk size fed to the voice detector,
	// matching its internal ~10ms expectation at 16kHz.
	vadChunkSamples = 160
)

// State manages the transcription pipeline for one recording session:
// resampling, segmentation, and handoff to the transcription queue.
// It is not safe for concurrent use; callers serialize access (the
// recording manager feeds it from a single audio-processing
// goroutine).
type State struct {
	active bool

	ring     *segmentbuf.RingBuffer
	detector *vad.Detector
	queue    *transcription.Queue

	inSpeech                  bool
	segmentStartIdx           int
	segmentSampleCount        uint64
	lookbackSampleCount       int
	seekingWordBreak          bool
	wordBreakSeekStartSamples uint64

	recordingStart time.Time
	outputPath     string

	resampleBuffer  []float32
	inputSampleRate int
	inputChannels   int
}

// New creates an inactive transcription state. Call Start before
// feeding it samples.
func New() *State {
	return &State{
		ring:            segmentbuf.New(),
		detector:        vad.New(whisperSampleRate),
		queue:           transcription.NewQueue(),
		inputSampleRate: 48000,
		inputChannels:   2,
	}
}

// IsActive reports whether a recording's transcription pipeline is
// currently running.
func (s *State) IsActive() bool {
	return s.active
}

// Queue returns the transcription queue backing this state, for
// status reporting (depth, segments processed).
func (s *State) Queue() *transcription.Queue {
	return s.queue
}

// Start begins transcription for a recording. outputPath is the video
// file's destination; the transcript is written alongside it.
// inputSampleRate/inputChannels describe the format of samples that
// will be passed to ProcessSamples.
func (s *State) Start(outputPath string, inputSampleRate, inputChannels int, transcriber transcription.Transcriber, onSegment transcription.OnSegmentFunc) error {
	if s.active {
		return fmt.Errorf("transcription already active")
	}

	transcriptPath := transcription.TranscriptFilenameFromVideo(outputPath)

	s.ring = segmentbuf.New()
	s.detector.Reset()
	s.inSpeech = false
	s.segmentStartIdx = 0
	s.segmentSampleCount = 0
	s.lookbackSampleCount = 0
	s.seekingWordBreak = false
	s.wordBreakSeekStartSamples = 0
	s.resampleBuffer = nil
	s.inputSampleRate = inputSampleRate
	s.inputChannels = inputChannels
	s.recordingStart = time.Now()
	s.outputPath = outputPath

	stateLog.Info("transcription started",
		"transcript", transcriptPath, "sampleRate", inputSampleRate, "channels", inputChannels)

	s.queue.StartWorker(transcriptPath, transcriber, onSegment)
	s.active = true
	return nil
}

// Stop finalizes any in-progress segment, signals the worker to drain
// its remaining queued segments, and blocks until it has exited and
// finalized the transcript file — mirroring the original's join on the
// transcription thread before its own stop call resolves.
func (s *State) Stop() {
	if !s.active {
		return
	}

	if s.inSpeech {
		s.finalizeCurrentSegment()
	}

	s.queue.StopWorker()
	s.queue.Wait()
	s.active = false
	s.recordingStart = time.Time{}
	s.outputPath = ""

	stateLog.Info("transcription stopped", "segmentsProcessed", s.queue.SegmentsProcessed())
}

// ProcessSamples consumes a block of audio in the capture format
// (inputSampleRate Hz, inputChannels channels) set by Start. It
// resamples to 16kHz mono, feeds the voice detector, and manages
// segment lifecycle.
func (s *State) ProcessSamples(samples []float32) {
	if !s.active {
		return
	}

	resampled := s.resampleToWhisperFormat(samples)
	if len(resampled) == 0 {
		return
	}

	s.ring.Write(resampled)

	for start := 0; start < len(resampled); start += vadChunkSamples {
		end := start + vadChunkSamples
		if end > len(resampled) {
			end = len(resampled)
		}
		chunk := resampled[start:end]
		if len(chunk) < vadChunkSamples/2 {
			continue
		}

		events := s.detector.Process(chunk)
		for _, ev := range events {
			switch ev.Kind {
			case vad.EventStarted:
				s.onSpeechStarted(ev.LookbackSamples)
			case vad.EventEnded:
				s.onSpeechEnded()
			case vad.EventWordBreak:
				if s.seekingWordBreak {
					s.onWordBreak(ev.OffsetMs)
				}
			}
		}

		if s.inSpeech {
			s.segmentSampleCount += uint64(len(chunk))
			s.checkSegmentDuration()
		}
	}
}

// resampleToWhisperFormat converts samples from the capture format to
// 16kHz mono, averaging channels down to mono first and then
// decimating by the (rounded) integer sample-rate ratio, carrying any
// remainder across calls so block boundaries don't lose samples.
func (s *State) resampleToWhisperFormat(samples []float32) []float32 {
	var mono []float32
	if s.inputChannels >= 2 {
		mono = make([]float32, 0, len(samples)/s.inputChannels+1)
		for i := 0; i+s.inputChannels <= len(samples); i += s.inputChannels {
			var sum float32
			for c := 0; c < s.inputChannels; c++ {
				sum += samples[i+c]
			}
			mono = append(mono, sum/float32(s.inputChannels))
		}
	} else {
		mono = append([]float32(nil), samples...)
	}

	s.resampleBuffer = append(s.resampleBuffer, mono...)

	ratio := float64(s.inputSampleRate) / float64(whisperSampleRate)
	ratioInt := int(ratio + 0.5)
	if ratioInt <= 1 {
		out := s.resampleBuffer
		s.resampleBuffer = nil
		return out
	}

	outputLen := len(s.resampleBuffer) / ratioInt
	if outputLen == 0 {
		return nil
	}

	out := make([]float32, outputLen)
	for i := 0; i < outputLen; i++ {
		start := i * ratioInt
		end := start + ratioInt
		if end > len(s.resampleBuffer) {
			end = len(s.resampleBuffer)
		}
		var sum float32
		for _, v := range s.resampleBuffer[start:end] {
			sum += v
		}
		out[i] = sum / float32(end-start)
	}

	consumed := outputLen * ratioInt
	s.resampleBuffer = append([]float32(nil), s.resampleBuffer[consumed:]...)
	return out
}

func (s *State) onSpeechStarted(lookbackSamples int) {
	if s.inSpeech {
		return
	}

	s.inSpeech = true
	s.segmentStartIdx = s.ring.IndexFromLookback(lookbackSamples)
	s.segmentSampleCount = 0
	s.lookbackSampleCount = lookbackSamples
	s.seekingWordBreak = false

	stateLog.Debug("speech started", "lookbackSamples", lookbackSamples, "idx", s.segmentStartIdx)
}

func (s *State) onSpeechEnded() {
	if !s.inSpeech {
		return
	}

	durationSecs := float64(s.segmentSampleCount) / whisperSampleRate
	stateLog.Debug("speech ended", "durationSecs", fmt.Sprintf("%.2f", durationSecs))

	s.finalizeCurrentSegment()
}

func (s *State) onWordBreak(offsetMs uint32) {
	if !s.inSpeech || !s.seekingWordBreak {
		return
	}

	offsetSamples := uint64(offsetMs) * whisperSampleRate / 1000
	extractionLength := uint64(s.lookbackSampleCount) + offsetSamples
	endIdx := (s.segmentStartIdx + int(extractionLength)) % segmentbuf.Capacity

	segment := s.ring.ExtractSegmentTo(s.segmentStartIdx, endIdx)
	if s.validateAndQueueSegment(segment) {
		s.segmentStartIdx = endIdx
		s.lookbackSampleCount = 0
		if offsetSamples > s.segmentSampleCount {
			s.segmentSampleCount = 0
		} else {
			s.segmentSampleCount -= offsetSamples
		}
		s.seekingWordBreak = false
	}
}

func (s *State) checkSegmentDuration() {
	durationSecs := float64(s.segmentSampleCount) / whisperSampleRate

	if durationSecs >= maxSegmentDurationSecs {
		stateLog.Debug("max segment duration reached, force extracting")
		s.finalizeCurrentSegment()
		return
	}

	if !s.seekingWordBreak && durationSecs >= segmentThresholdSecs {
		s.seekingWordBreak = true
		s.wordBreakSeekStartSamples = s.segmentSampleCount
		stateLog.Debug("segment threshold reached, seeking word break", "durationSecs", fmt.Sprintf("%.1f", durationSecs))
	}

	if s.seekingWordBreak {
		graceSecs := float64(s.segmentSampleCount-s.wordBreakSeekStartSamples) / whisperSampleRate
		if graceSecs >= wordBreakGraceSecs {
			stateLog.Debug("grace period expired, force extracting")
			s.finalizeCurrentSegment()
		}
	}
}

func (s *State) finalizeCurrentSegment() {
	if !s.inSpeech {
		return
	}

	segment := s.ring.ExtractSegment(s.segmentStartIdx)
	s.validateAndQueueSegment(segment)

	s.inSpeech = false
	s.segmentSampleCount = 0
	s.lookbackSampleCount = 0
	s.seekingWordBreak = false
}

// validateAndQueueSegment applies the minimum-duration and
// minimum-loudness gates and, if the segment passes, enqueues it for
// transcription. It returns whether the segment was queued.
func (s *State) validateAndQueueSegment(segment []float32) bool {
	if len(segment) == 0 {
		return false
	}

	durationSecs := float64(len(segment)) / whisperSampleRate
	if durationSecs < minSegmentDurationSecs {
		stateLog.Debug("segment too short, skipping", "durationSecs", fmt.Sprintf("%.2f", durationSecs))
		return false
	}

	var sumSquares float32
	for _, v := range segment {
		sumSquares += v * v
	}
	rms := sqrt32(sumSquares / float32(len(segment)))
	if rms < minAudioRMS {
		stateLog.Debug("segment too quiet, skipping", "rms", fmt.Sprintf("%.4f", rms))
		return false
	}

	var timestampSecs float64
	if !s.recordingStart.IsZero() {
		timestampSecs = time.Since(s.recordingStart).Seconds()
	}

	queued := transcription.QueuedSegment{Samples: segment, TimestampSecs: timestampSecs}
	if s.queue.Enqueue(queued) {
		stateLog.Debug("segment queued",
			"durationSecs", fmt.Sprintf("%.2f", durationSecs),
			"timestampSecs", fmt.Sprintf("%.1f", timestampSecs),
			"queueDepth", s.queue.QueueDepth(),
			"rms", fmt.Sprintf("%.4f", rms))
		return true
	}
	stateLog.Warn("transcription queue full, segment dropped")
	return false
}

func sqrt32(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}
