package ipcwire

import "encoding/json"

// Request/response type discriminators (§6.2 of the service's IPC grammar).
const (
	TypePing    = "ping"
	TypePong    = "pong"
	TypeOk      = "ok"
	TypeError   = "error"

	TypeListWindows      = "list_windows"
	TypeListMonitors     = "list_monitors"
	TypeListAudioSources = "list_audio_sources"
	TypeWindows          = "windows"
	TypeMonitors         = "monitors"
	TypeAudioSources     = "audio_sources"

	TypeStartWindowCapture  = "start_window_capture"
	TypeStartDisplayCapture = "start_display_capture"
	TypeStartRegionCapture  = "start_region_capture"
	TypeStartPortalCapture  = "start_portal_capture"
	TypeStopRecording       = "stop_recording"
	TypeRecordingStarted    = "recording_started"
	TypeRecordingStopped    = "recording_stopped"

	TypeGetRecordingState = "get_recording_state"
	TypeRecordingState    = "recording_state"
	TypeGetElapsedTime    = "get_elapsed_time"
	TypeElapsedTime       = "elapsed_time"
	TypeSubscribeEvents   = "subscribe_events"
	TypeSubscribed        = "subscribed"

	TypeGetOutputFormat = "get_output_format"
	TypeSetOutputFormat = "set_output_format"
	TypeOutputFormat    = "output_format"

	TypeGetAudioConfig = "get_audio_config"
	TypeSetAudioConfig = "set_audio_config"
	TypeAudioConfig    = "audio_config"

	TypeGetTranscriptionConfig = "get_transcription_config"
	TypeSetTranscriptionConfig = "set_transcription_config"
	TypeTranscriptionConfig    = "transcription_config"
	TypeGetTranscriptionStatus = "get_transcription_status"
	TypeTranscriptionStatus    = "transcription_status"

	TypeGetWindowThumbnail = "get_window_thumbnail"
	TypeGetDisplayThumbnail = "get_display_thumbnail"
	TypeGetRegionPreview   = "get_region_preview"
	TypeThumbnail          = "thumbnail"

	TypeShowHighlight  = "show_highlight"
	TypeClearHighlight = "clear_highlight"

	TypeQuerySelection = "query_selection"
	TypeSelection      = "selection"
	TypeNoSelection    = "no_selection"
	TypeValidateToken  = "validate_token"
	TypeTokenValid     = "token_valid"
	TypeTokenInvalid   = "token_invalid"
	TypeStoreToken     = "store_token"
	TypeTokenStored    = "token_stored"

	TypeShutdown = "shutdown"
)

// Envelope is the wire-format wrapper for every IPC frame. Payload is
// re-decoded by the dispatcher once Type has been checked against the
// request grammar.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`

	// RequestID correlates a response to the request that produced it,
	// for clients pipelining multiple in-flight requests over one
	// connection. Generated by the dispatcher when a request omits it.
	RequestID string `json:"request_id,omitempty"`
}

// ErrorPayload is the body of a TypeError response.
type ErrorPayload struct {
	Message string `json:"message"`
}

// StartWindowCaptureRequest starts capture of a specific window.
type StartWindowCaptureRequest struct {
	WindowHandle int64 `json:"window_handle"`
}

// StartDisplayCaptureRequest starts capture of an entire monitor.
type StartDisplayCaptureRequest struct {
	MonitorID string `json:"monitor_id"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// StartRegionCaptureRequest starts capture of a sub-rectangle of a monitor.
type StartRegionCaptureRequest struct {
	MonitorID string `json:"monitor_id"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Strict    bool   `json:"strict,omitempty"`
}

// RecordingStoppedResponse reports the on-disk artifacts of a completed
// session. SourcePath and FilePath coincide unless transcoding ran.
type RecordingStoppedResponse struct {
	FilePath   string `json:"file_path"`
	SourcePath string `json:"source_path"`
}

// RecordingStateResponse reports the current tri-state machine position.
type RecordingStateResponse struct {
	State string `json:"state"`
}

// ElapsedTimeResponse reports seconds elapsed since recording start.
type ElapsedTimeResponse struct {
	Seconds float64 `json:"seconds"`
}

// OutputFormatPayload carries a single output format value, used for both
// get and set requests/responses.
type OutputFormatPayload struct {
	Format string `json:"format"`
}

// AudioConfigPayload mirrors recording.AudioConfig on the wire.
type AudioConfigPayload struct {
	Enabled          bool    `json:"enabled"`
	SystemSourceID   *string `json:"system_source_id,omitempty"`
	MicSourceID      *string `json:"mic_source_id,omitempty"`
	EchoCancellation bool    `json:"echo_cancellation"`
}

// TranscriptionConfigPayload mirrors recording.TranscriptionConfig on the wire.
type TranscriptionConfigPayload struct {
	Enabled   bool    `json:"enabled"`
	ModelPath *string `json:"model_path,omitempty"`
}

// TranscriptionStatusResponse reports the transcription worker's progress.
type TranscriptionStatusResponse struct {
	Active            bool `json:"active"`
	QueuedSegments    int  `json:"queued_segments"`
	SegmentsProcessed int  `json:"segments_processed"`
}

// ThumbnailRequest covers window, display, and region preview variants;
// unused fields are left zero for the variant that does not need them.
type ThumbnailRequest struct {
	WindowHandle int64  `json:"window_handle,omitempty"`
	MonitorID    string `json:"monitor_id,omitempty"`
	X            int    `json:"x,omitempty"`
	Y            int    `json:"y,omitempty"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
}

// ThumbnailResponse carries a base64-encoded JPEG.
type ThumbnailResponse struct {
	Data   string `json:"data"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// HighlightRequest positions the on-screen capture-region highlight.
type HighlightRequest struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// TokenRequest carries the token of the Linux picker's validate_token and
// store_token requests.
type TokenRequest struct {
	Token string `json:"token"`
}

// SelectionResponse describes a portal-mediated source selection.
type SelectionResponse struct {
	SourceType string  `json:"source_type"`
	SourceID   string  `json:"source_id"`
	Geometry   *string `json:"geometry,omitempty"`
}
