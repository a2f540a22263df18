package encoder

import (
	"context"
	"fmt"
	"time"

	"github.com/omnirec/omnirecd/internal/capture"
)

// pollGracePeriod counts empty polls after stop before forcing an exit.
// Both encode loops check stopFlag at the top of every iteration and exit
// as soon as it is set, so this count only applies when the flag is set
// between that check and the poll; frames still queued when stop is seen
// are not written.
const (
	targetFPS       = 30
	frameInterval   = time.Second / targetFPS
	maxEmptyPolls   = 100 // ~1s of polling at the loop's ~10ms cadence
	pollGracePeriod = 10  // empty polls counted after stop before forcing an exit
)

// Result is what a finished encode task hands back to the recording
// manager: the path of the produced MP4 and, if transcription samples
// were forked off, nothing further — the transcription task owns its own
// output file.
type Result struct {
	VideoPath string
}

// EncodeVideoOnly drains frames, duplicating the last frame to hold 30fps,
// until frames is closed or stopFlag is set. It is the simplest of the
// three task variants; EncodeWithAudio and EncodeWithAudioAndTranscription
// layer audio muxing and transcription forking on top of the same loop
// shape.
func EncodeVideoOnly(ctx context.Context, frames <-chan capture.Frame, stopFlag *StopFlag, outputPath string) (Result, error) {
	first, ok := <-frames
	if !ok {
		return Result{}, fmt.Errorf("no frames received")
	}

	enc, err := NewVideoEncoder(ctx, first.Width, first.Height, outputPath)
	if err != nil {
		return Result{}, err
	}
	if err := enc.Start(); err != nil {
		return Result{}, err
	}
	if err := enc.WriteFrame(first.Width, first.Height, first.BGRA); err != nil {
		return Result{}, err
	}

	last := first
	framesWritten := uint64(1)
	start := time.Now()
	nextFrameAt := start.Add(frameInterval)
	emptyPolls := uint32(0)

loop:
	for {
		if stopFlag.IsSet() {
			log.Info("stop flag set, exiting encode loop")
			break loop
		}

		select {
		case frame, ok := <-frames:
			if !ok {
				log.Info("frame channel closed, exiting encode loop")
				break loop
			}
			last = frame
			emptyPolls = 0
		default:
			emptyPolls++
			if stopFlag.IsSet() && emptyPolls > pollGracePeriod {
				break loop
			}
			if emptyPolls > maxEmptyPolls {
				if stopFlag.IsSet() {
					break loop
				}
				emptyPolls = 0
			}
		}

		now := time.Now()
		for nextFrameAt.Compare(now) <= 0 {
			if err := enc.WriteFrame(last.Width, last.Height, last.BGRA); err != nil {
				return Result{}, err
			}
			framesWritten++
			nextFrameAt = nextFrameAt.Add(frameInterval)
		}

		sleepFor := nextFrameAt.Sub(time.Now())
		if sleepFor > 0 {
			if sleepFor > 10*time.Millisecond {
				sleepFor = 10 * time.Millisecond
			}
			select {
			case <-time.After(sleepFor):
			case <-ctx.Done():
				break loop
			}
		}
	}

	log.Info("encode complete", "elapsed", time.Since(start), "frames", framesWritten)

	path, err := enc.Finish()
	if err != nil {
		return Result{}, err
	}
	return Result{VideoPath: path}, nil
}

// EncodeWithAudio drains both a video frame channel and an audio sample
// channel, writing video at a steady 30fps and audio to a side WAV file,
// then muxes the two at the end with a delay computed from when the
// first audio sample actually arrived relative to the first video frame.
func EncodeWithAudio(ctx context.Context, frames <-chan capture.Frame, audio <-chan capture.AudioChunk, stopFlag *StopFlag, audioCfg AudioConfig, outputPath string) (Result, error) {
	return encodeWithAudioAndOptionalTranscription(ctx, frames, audio, stopFlag, audioCfg, outputPath, nil)
}

// EncodeWithAudioAndTranscription is EncodeWithAudio plus a best-effort,
// non-blocking fork of every audio chunk to transcriptionSink. A full
// sink drops the chunk rather than backing up the encode loop.
func EncodeWithAudioAndTranscription(ctx context.Context, frames <-chan capture.Frame, audio <-chan capture.AudioChunk, stopFlag *StopFlag, audioCfg AudioConfig, outputPath string, transcriptionSink chan<- []float32) (Result, error) {
	return encodeWithAudioAndOptionalTranscription(ctx, frames, audio, stopFlag, audioCfg, outputPath, transcriptionSink)
}

func encodeWithAudioAndOptionalTranscription(
	ctx context.Context,
	frames <-chan capture.Frame,
	audio <-chan capture.AudioChunk,
	stopFlag *StopFlag,
	audioCfg AudioConfig,
	outputPath string,
	transcriptionSink chan<- []float32,
) (Result, error) {
	if transcriptionSink != nil {
		defer close(transcriptionSink)
	}

	first, ok := <-frames
	if !ok {
		return Result{}, fmt.Errorf("no video frames received")
	}
	videoStart := time.Now()

	videoEnc, err := NewVideoEncoder(ctx, first.Width, first.Height, outputPath)
	if err != nil {
		return Result{}, err
	}
	if err := videoEnc.Start(); err != nil {
		return Result{}, err
	}

	audioEnc := NewAudioEncoder(audioCfg.SampleRate, audioCfg.Channels)
	if err := audioEnc.Start(); err != nil {
		return Result{}, err
	}

	if err := videoEnc.WriteFrame(first.Width, first.Height, first.BGRA); err != nil {
		return Result{}, err
	}

	last := first
	videoFrames := uint64(1)
	audioSamples := uint64(0)
	nextFrameAt := videoStart.Add(frameInterval)
	var firstAudioAt time.Time
	emptyPolls := uint32(0)

loop:
	for {
		if stopFlag.IsSet() {
			log.Info("stop flag set, exiting encode loop")
			break loop
		}

		select {
		case frame, ok := <-frames:
			if !ok {
				log.Info("video channel closed, exiting encode loop")
				break loop
			}
			last = frame
			emptyPolls = 0
		default:
			emptyPolls++
			if stopFlag.IsSet() && emptyPolls > pollGracePeriod {
				break loop
			}
			if emptyPolls > maxEmptyPolls {
				if stopFlag.IsSet() {
					break loop
				}
				emptyPolls = 0
			}
		}

	drainAudio:
		for {
			select {
			case chunk, ok := <-audio:
				if !ok {
					break drainAudio
				}
				if firstAudioAt.IsZero() {
					firstAudioAt = time.Now()
					log.Info("first audio sample received", "delayFromVideoStart", firstAudioAt.Sub(videoStart))
				}
				if err := audioEnc.WriteSamples(chunk.Interleaved); err != nil {
					return Result{}, err
				}
				audioSamples += uint64(len(chunk.Interleaved))
				forkToTranscription(transcriptionSink, chunk.Interleaved, audioSamples)
			default:
				break drainAudio
			}
		}

		now := time.Now()
		for nextFrameAt.Compare(now) <= 0 {
			if err := videoEnc.WriteFrame(last.Width, last.Height, last.BGRA); err != nil {
				return Result{}, err
			}
			videoFrames++
			nextFrameAt = nextFrameAt.Add(frameInterval)
		}

		sleepFor := nextFrameAt.Sub(time.Now())
		if sleepFor > 0 {
			if sleepFor > 10*time.Millisecond {
				sleepFor = 10 * time.Millisecond
			}
			select {
			case <-time.After(sleepFor):
			case <-ctx.Done():
				break loop
			}
		}
	}

	// Drain any audio queued after the loop exited.
drainRemaining:
	for {
		select {
		case chunk, ok := <-audio:
			if !ok {
				break drainRemaining
			}
			if firstAudioAt.IsZero() {
				firstAudioAt = time.Now()
			}
			if err := audioEnc.WriteSamples(chunk.Interleaved); err != nil {
				return Result{}, err
			}
			audioSamples += uint64(len(chunk.Interleaved))
			forkToTranscription(transcriptionSink, chunk.Interleaved, audioSamples)
		default:
			break drainRemaining
		}
	}

	log.Info("encode complete", "elapsed", time.Since(videoStart), "videoFrames", videoFrames, "audioSamples", audioSamples)

	videoPath, err := videoEnc.Finish()
	if err != nil {
		return Result{}, err
	}
	audioPath, err := audioEnc.Finish()
	if err != nil {
		return Result{}, err
	}

	if audioSamples == 0 {
		log.Info("no audio recorded, keeping video-only")
		removeIfExists(audioPath)
		return Result{VideoPath: videoPath}, nil
	}

	delayMs := int64(0)
	if !firstAudioAt.IsZero() {
		delayMs = firstAudioAt.Sub(videoStart).Milliseconds()
	}
	if err := MuxAudioVideo(ctx, videoPath, audioPath, delayMs); err != nil {
		return Result{}, fmt.Errorf("mux audio and video: %w", err)
	}

	return Result{VideoPath: videoPath}, nil
}

// forkToTranscription non-blockingly forwards one audio chunk's samples to
// sink, dropping it if the sink is full rather than stalling the encoder.
// Matches the spec's "drop on full" policy for the transcription channel.
func forkToTranscription(sink chan<- []float32, samples []float32, totalSamplesSoFar uint64) {
	if sink == nil {
		return
	}
	select {
	case sink <- samples:
	default:
		if totalSamplesSoFar%100000 == 0 {
			log.Warn("transcription channel full, dropping samples")
		}
	}
}
