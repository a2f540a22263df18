package recording

import (
	"context"
	"fmt"

	"github.com/omnirec/omnirecd/internal/encoder"
)

// StopRecording signals the active encode (and audio/transcription) tasks
// to finish, waits for them to flush their output, transcodes to the
// configured output format if it isn't already Mp4, and returns both the
// encoder's source path and the final delivered path.
func (m *Manager) StopRecording(ctx context.Context) (Result, error) {
	if m.GetState() != Recording {
		return Result{}, ErrNotRecording
	}
	m.setState(Saving)
	m.stopElapsedBroadcast()

	m.taskMu.Lock()
	stopFlag := m.stopFlag
	audioStopFlag := m.audioStopFlag
	encodingDone := m.encodingDone
	transcriptionDone := m.transcriptionDone
	m.taskMu.Unlock()

	if stopFlag != nil {
		stopFlag.Set()
	}
	if audioStopFlag != nil {
		audioStopFlag.Set()
	}

	outcome := <-encodingDone
	if outcome.err != nil {
		m.cleanup(transcriptionDone)
		return Result{}, fmt.Errorf("encode task failed: %w", outcome.err)
	}
	sourcePath := outcome.path

	finalPath := sourcePath
	format := m.GetOutputFormat()
	if format != encoder.FormatMp4 {
		m.events.Publish(Event{Kind: EventTranscodingStarted, Format: string(format)})
		transcoded, err := encoder.TranscodeVideo(ctx, sourcePath, format)
		if err != nil {
			log.Warn("transcode failed, delivering the original mp4 instead", "format", format, "error", err)
			m.events.Publish(Event{Kind: EventTranscodingComplete, Success: false, Path: sourcePath})
		} else {
			finalPath = transcoded
			m.events.Publish(Event{Kind: EventTranscodingComplete, Success: true, Path: finalPath})
		}
	}

	audioCfg := m.GetAudioConfig()
	transcriptionUsed := m.GetTranscriptionConfig().Enabled && audioCfg.HasSystemAudio()

	// cleanup blocks on transcriptionDone, which now only closes once the
	// transcription worker has fully drained its queue and finalized the
	// transcript file (transcribe.State.Stop calls Queue.Wait). Snapshot
	// the transcription status after that, not before, so the manifest's
	// segment count reflects everything actually transcribed.
	m.cleanup(transcriptionDone)
	status := m.GetTranscriptionStatus()

	result := Result{SourcePath: sourcePath, FilePath: finalPath}
	writeManifest(m.buildManifest(result, audioCfg.AudioEnabled(), transcriptionUsed, status.SegmentsProcessed))

	return result, nil
}

// cleanup waits for the transcription task to finish draining (if one was
// running), clears every per-recording task handle, and returns the
// manager to Idle.
func (m *Manager) cleanup(transcriptionDone chan struct{}) {
	if transcriptionDone != nil {
		<-transcriptionDone
	}

	m.taskMu.Lock()
	stopFrameStream := m.stopFrameStream
	stopAudioStream := m.stopAudioStream
	m.stopFlag = nil
	m.audioStopFlag = nil
	m.recordingStart = nil
	m.encodingDone = nil
	m.transcriptionDone = nil
	m.stopFrameStream = nil
	m.stopAudioStream = nil
	m.taskMu.Unlock()

	if stopFrameStream != nil {
		stopFrameStream()
	}
	if stopAudioStream != nil {
		stopAudioStream()
	}

	m.setState(Idle)
}

// Shutdown stops any in-progress recording before the process exits.
func (m *Manager) Shutdown(ctx context.Context) {
	if m.GetState() == Recording {
		if _, err := m.StopRecording(ctx); err != nil {
			log.Warn("failed to stop recording during shutdown", "error", err)
		}
	}
	m.events.Publish(Event{Kind: EventShutdown})
}
