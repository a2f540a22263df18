package recording

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/omnirec/omnirecd/internal/audiomixer"
	"github.com/omnirec/omnirecd/internal/capture"
	"github.com/omnirec/omnirecd/internal/encoder"
	"github.com/omnirec/omnirecd/internal/transcription"
)

// StartWindowCapture begins recording a specific window.
func (m *Manager) StartWindowCapture(ctx context.Context, handle int64) error {
	return m.startFromStream(ctx, func() (capture.FrameStream, error) {
		return m.backend.StartWindowCapture(handle)
	})
}

// StartDisplayCapture begins recording an entire monitor.
func (m *Manager) StartDisplayCapture(ctx context.Context, monitorID string, width, height int) error {
	return m.startFromStream(ctx, func() (capture.FrameStream, error) {
		return m.backend.StartDisplayCapture(monitorID, width, height)
	})
}

// StartRegionCapture begins recording a sub-rectangle of a monitor.
func (m *Manager) StartRegionCapture(ctx context.Context, region capture.Region) error {
	return m.startFromStream(ctx, func() (capture.FrameStream, error) {
		return m.backend.StartRegionCapture(region)
	})
}

// StartPortalCapture begins recording via the desktop portal (Linux only).
func (m *Manager) StartPortalCapture(ctx context.Context) error {
	return m.startFromStream(ctx, func() (capture.FrameStream, error) {
		return m.backend.StartPortalCapture()
	})
}

// startFromStream is the common path for every start_*_capture operation:
// verify Idle, preflight disk space, acquire the platform frame stream,
// and dispatch to start_encoding.
func (m *Manager) startFromStream(ctx context.Context, acquire func() (capture.FrameStream, error)) error {
	if err := m.checkIdle(); err != nil {
		return err
	}

	outputPath, err := encoder.GenerateOutputPath()
	if err != nil {
		return fmt.Errorf("generate output path: %w", err)
	}
	if err := m.checkDiskSpace(filepath.Dir(outputPath)); err != nil {
		return err
	}

	stream, err := acquire()
	if err != nil {
		return fmt.Errorf("acquire capture stream: %w", err)
	}

	return m.startEncoding(ctx, outputPath, stream)
}

// startEncoding implements the recording manager's core dispatch: it
// decides, from the configured AudioConfig and TranscriptionConfig,
// which of the three encoder task variants to run, and wires the
// transcription task in when applicable. Transcription only runs when
// system audio is present — mic-only audio cannot be separated reliably
// from the user's own narration for a useful transcript.
func (m *Manager) startEncoding(ctx context.Context, outputPath string, stream capture.FrameStream) error {
	audioCfg := m.GetAudioConfig()
	transcriptionCfg := m.GetTranscriptionConfig()

	hasSystemAudio := audioCfg.HasSystemAudio()
	audioEnabled := audioCfg.AudioEnabled()
	transcriptionEnabled := transcriptionCfg.Enabled && hasSystemAudio

	stopFlag := &encoder.StopFlag{}
	audioStopFlag := &encoder.StopFlag{}

	var audioStream capture.AudioStream
	if audioEnabled {
		sysID, micID := derefOrEmpty(audioCfg.SystemSourceID), derefOrEmpty(audioCfg.MicSourceID)
		as, err := m.backend.StartAudioCapture(sysID, micID)
		if err != nil {
			log.Warn("audio capture failed, falling back to video-only recording", "error", err)
			audioEnabled = false
			transcriptionEnabled = false
		} else {
			audioStream = as
		}
	}

	done := make(chan encodeOutcome, 1)
	var transcriptionSink chan []float32
	var transcriptionDone chan struct{}

	switch {
	case !audioEnabled:
		go func() {
			res, err := encoder.EncodeVideoOnly(ctx, stream.Frames, stopFlag, outputPath)
			done <- encodeOutcome{res.VideoPath, err}
		}()

	case transcriptionEnabled:
		transcriber, err := m.buildTranscriber(transcriptionCfg)
		if err != nil {
			log.Warn("transcription unavailable, recording audio without it", "error", err)
			transcriptionEnabled = false
			go func() {
				res, err := encoder.EncodeWithAudio(ctx, stream.Frames, audioStream.Chunks, stopFlag, encoder.DefaultAudioConfig(), outputPath)
				done <- encodeOutcome{res.VideoPath, err}
			}()
			break
		}

		if err := m.transcribeState.Start(outputPath, audiomixer.SampleRate, audiomixer.Channels, transcriber, m.onTranscriptSegment); err != nil {
			log.Warn("failed to start transcription state, recording audio without it", "error", err)
			transcriptionEnabled = false
			go func() {
				res, err := encoder.EncodeWithAudio(ctx, stream.Frames, audioStream.Chunks, stopFlag, encoder.DefaultAudioConfig(), outputPath)
				done <- encodeOutcome{res.VideoPath, err}
			}()
			break
		}

		transcriptionSink = make(chan []float32, 256)
		transcriptionDone = make(chan struct{})
		m.taskMu.Lock()
		m.transcribeActive = true
		m.taskMu.Unlock()
		go m.runTranscriptionTask(transcriptionSink, transcriptionDone)

		go func() {
			res, err := encoder.EncodeWithAudioAndTranscription(ctx, stream.Frames, audioStream.Chunks, stopFlag, encoder.DefaultAudioConfig(), outputPath, transcriptionSink)
			done <- encodeOutcome{res.VideoPath, err}
		}()

	default:
		go func() {
			res, err := encoder.EncodeWithAudio(ctx, stream.Frames, audioStream.Chunks, stopFlag, encoder.DefaultAudioConfig(), outputPath)
			done <- encodeOutcome{res.VideoPath, err}
		}()
	}

	now := time.Now()
	m.taskMu.Lock()
	m.stopFlag = stopFlag
	m.audioStopFlag = audioStopFlag
	m.recordingStart = &now
	m.encodingDone = done
	m.transcriptionDone = transcriptionDone
	m.stopFrameStream = stream.Stop
	if audioStream.Stop != nil {
		m.stopAudioStream = audioStream.Stop
	}
	m.taskMu.Unlock()

	m.setState(Recording)
	m.startElapsedBroadcast()

	return nil
}

func (m *Manager) buildTranscriber(cfg TranscriptionConfig) (transcription.Transcriber, error) {
	if cfg.ModelPath == nil || *cfg.ModelPath == "" {
		return nil, fmt.Errorf("transcription enabled but no model path configured")
	}
	return transcription.NewWhisperTranscriber(*cfg.ModelPath, transcription.WhisperOptions{})
}

func (m *Manager) onTranscriptSegment(timestampSecs float64, text string) {
	log.Debug("transcribed segment", "timestampSecs", timestampSecs, "textLength", len(text))
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
