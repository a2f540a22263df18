package recording

import "errors"

// Sentinel errors the dispatcher maps to the CLI's documented error
// substrings.
var (
	// ErrNotIdle is returned by any operation that requires Idle state
	// (starting a recording, or changing format/audio/transcription
	// config) when the manager is Recording or Saving.
	ErrNotIdle = errors.New("recording: service is not idle")

	// ErrNotRecording is returned by StopRecording when the manager is
	// not currently in the Recording state.
	ErrNotRecording = errors.New("recording: not currently recording")

	// ErrUnknownFormat is wrapped by internal/dispatch's set_output_format
	// handler for a format string outside the known enum.
	ErrUnknownFormat = errors.New("recording: unknown output format")

	// ErrInsufficientDiskSpace is returned by a start_* operation when
	// the output directory has less free space than the configured
	// floor.
	ErrInsufficientDiskSpace = errors.New("recording: insufficient disk space")

	// ErrNoFramesReceived is returned when a capture stream closed
	// before producing a single frame.
	ErrNoFramesReceived = errors.New("recording: no frames received from capture backend")
)
