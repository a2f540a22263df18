package recording

import "github.com/omnirec/omnirecd/internal/encoder"

// State is the recording service's tri-state machine position.
type State int

const (
	Idle State = iota
	Recording
	Saving
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Saving:
		return "saving"
	default:
		return "unknown"
	}
}

// OutputFormat reuses the encoder package's enum so the manager and the
// encoder task agree on valid values without a conversion layer.
type OutputFormat = encoder.OutputFormat

const (
	FormatMp4          = encoder.FormatMp4
	FormatWebM         = encoder.FormatWebM
	FormatMkv          = encoder.FormatMkv
	FormatQuickTime    = encoder.FormatQuickTime
	FormatGif          = encoder.FormatGif
	FormatAnimatedPng  = encoder.FormatAnimatedPng
	FormatAnimatedWebp = encoder.FormatAnimatedWebp
)

// AudioConfig selects the audio sources mixed into a recording. Either
// source ID may be nil; Enabled gates whether audio capture runs at all.
type AudioConfig struct {
	Enabled          bool
	SystemSourceID   *string
	MicSourceID      *string
	EchoCancellation bool
}

// HasSystemAudio reports whether a system-audio source is configured.
func (c AudioConfig) HasSystemAudio() bool { return c.SystemSourceID != nil && *c.SystemSourceID != "" }

// HasMicrophone reports whether a microphone source is configured.
func (c AudioConfig) HasMicrophone() bool { return c.MicSourceID != nil && *c.MicSourceID != "" }

// AudioEnabled reports whether any audio should be captured at all.
func (c AudioConfig) AudioEnabled() bool {
	return c.Enabled && (c.HasSystemAudio() || c.HasMicrophone())
}

// TranscriptionConfig controls the real-time speech-transcription pipeline.
type TranscriptionConfig struct {
	Enabled   bool
	ModelPath *string
}

// TranscriptionStatus reports the transcription worker's live progress.
type TranscriptionStatus struct {
	Active            bool
	QueuedSegments    int
	SegmentsProcessed int
}

// Result is what StopRecording hands back to the caller: the source MP4
// path the encoder produced, and the final file path after any
// transcoding (equal to SourcePath when the output format is Mp4).
type Result struct {
	SourcePath string
	FilePath   string
}

// EventKind discriminates the variants of Event, mirroring the original
// ServiceEvent enum.
type EventKind int

const (
	EventStateChanged EventKind = iota
	EventElapsedTime
	EventTranscodingStarted
	EventTranscodingComplete
	EventShutdown
)

// Event is broadcast to every subscriber whenever the manager's state
// changes, time elapses, or transcoding starts/finishes. Only the fields
// relevant to Kind are populated.
type Event struct {
	Kind EventKind

	State   State  // EventStateChanged
	Seconds uint64 // EventElapsedTime

	Format  string // EventTranscodingStarted
	Success bool   // EventTranscodingComplete
	Path    string // EventTranscodingComplete
}
