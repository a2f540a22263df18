// Package capture defines the platform capture backend contract: window,
// display, region, and portal video sources plus system/microphone audio
// sources, thumbnails, and the on-screen region highlight. Each platform
// ships one backend behind a build tag; callers obtain it via New.
package capture

import "errors"

// ErrNotSupported is returned when a capability is not implemented on the
// running platform (e.g. portal capture outside Linux).
var ErrNotSupported = errors.New("capture: not supported on this platform")

// ErrPermissionDenied is returned when the OS denies the capture request
// (e.g. missing screen-recording entitlement on macOS).
var ErrPermissionDenied = errors.New("capture: permission denied")

// ErrTargetNotFound is returned when a window or monitor named in a
// request no longer exists.
var ErrTargetNotFound = errors.New("capture: target not found")

// WindowInfo describes one capturable top-level window.
type WindowInfo struct {
	Handle int64  `json:"handle"`
	Title  string `json:"title"`
	AppID  string `json:"appId,omitempty"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// MonitorInfo describes one connected display output.
type MonitorInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	IsPrimary bool   `json:"isPrimary"`
}

// AudioSourceKind distinguishes loopback system audio from microphone input.
type AudioSourceKind string

const (
	AudioSourceSystem AudioSourceKind = "system"
	AudioSourceMic    AudioSourceKind = "mic"
)

// AudioSource describes one enumerable audio endpoint.
type AudioSource struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Kind      AudioSourceKind `json:"kind"`
	IsDefault bool            `json:"isDefault"`
}

// Region is a rectangle expressed in physical pixels on a given monitor.
type Region struct {
	MonitorID string `json:"monitorId"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Frame is one captured video frame in BGRA physical-pixel layout.
type Frame struct {
	Width  int
	Height int
	BGRA   []byte
}

// AudioChunk is one block of interleaved float32 PCM from an audio stream.
type AudioChunk struct {
	Interleaved []float32
	SampleRate  int
	Channels    int
}

// FrameStream is a lazy, finite, non-restartable sequence of frames. The
// producer drops the newest frame when Frames is full rather than blocking.
type FrameStream struct {
	Frames <-chan Frame
	Stop   func()
}

// AudioStream is the audio analog of FrameStream.
type AudioStream struct {
	Chunks <-chan AudioChunk
	Stop   func()
}

// Backend is the capability set a platform capture implementation provides.
// Exactly one Backend is active per process, obtained from New.
type Backend interface {
	ListWindows() ([]WindowInfo, error)
	ListMonitors() ([]MonitorInfo, error)
	ListAudioSources() ([]AudioSource, error)

	StartWindowCapture(handle int64) (FrameStream, error)
	StartDisplayCapture(monitorID string, width, height int) (FrameStream, error)
	StartRegionCapture(region Region) (FrameStream, error)
	StartPortalCapture() (FrameStream, error)

	StartAudioCapture(systemSourceID, micSourceID string) (AudioStream, error)

	CaptureWindowThumbnail(handle int64) ([]byte, error)
	CaptureDisplayThumbnail(monitorID string) ([]byte, error)
	CaptureRegionPreview(region Region) ([]byte, error)

	ShowHighlight(x, y, width, height int) error

	// Close releases any backend-global resources (e.g. portal session
	// handles). It does not stop in-flight streams; callers stop those
	// individually via FrameStream.Stop/AudioStream.Stop.
	Close() error
}

// New returns the platform capture backend. Implemented per platform in
// backend_<goos>.go; unsupported platforms, and builds without cgo, return
// a nil Backend and ErrNotSupported.
func New() (Backend, error) {
	return newPlatformBackend()
}
