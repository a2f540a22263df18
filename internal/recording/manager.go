// Package recording implements the recording service's central state
// machine: it owns the current RecordingState, the active capture and
// encoder task handles, and the transcription pipeline, and serializes
// every transition behind the locking discipline described in the
// service's concurrency model. Manager is a process singleton, mirroring
// state.rs's OnceLock-backed global.
package recording

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/omnirec/omnirecd/internal/broadcast"
	"github.com/omnirec/omnirecd/internal/capture"
	"github.com/omnirec/omnirecd/internal/encoder"
	"github.com/omnirec/omnirecd/internal/logging"
	"github.com/omnirec/omnirecd/internal/transcribe"
)

var log = logging.L("recording")

// DefaultMinFreeDiskBytes is the free-space floor a start_* operation
// checks against before acquiring any capture stream. Supplements the
// original semantics; never blocks a request when disk space is
// sufficient.
const DefaultMinFreeDiskBytes = 500 * 1024 * 1024

// Manager is the recording service's process-singleton state machine. It
// owns the stop flags, the encoder/transcription/elapsed task handles, and
// the recording-start instant; every cross-task read goes through its
// locks or atomics.
type Manager struct {
	backend capture.Backend

	cfgMu                sync.RWMutex
	state                State
	outputFormat         OutputFormat
	audioConfig          AudioConfig
	transcriptionConfig  TranscriptionConfig

	taskMu            sync.Mutex
	stopFlag          *encoder.StopFlag
	audioStopFlag     *encoder.StopFlag
	recordingStart    *time.Time
	encodingDone      chan encodeOutcome
	transcriptionDone chan struct{}
	elapsedCancel     context.CancelFunc
	transcribeActive  bool
	stopFrameStream   func()
	stopAudioStream   func()

	transcribeState *transcribe.State
	minFreeDiskBytes uint64

	events *broadcast.Bus[Event]
}

type encodeOutcome struct {
	path string
	err  error
}

var (
	singleton     *Manager
	singletonOnce sync.Once
)

// New constructs a Manager bound to backend. Exported for tests that want
// an isolated instance (e.g. against capture.NewMemoryBackend); production
// code obtains the process singleton via Get.
func New(backend capture.Backend) *Manager {
	return &Manager{
		backend:          backend,
		state:            Idle,
		outputFormat:     FormatMp4,
		transcribeState:  transcribe.New(),
		minFreeDiskBytes: DefaultMinFreeDiskBytes,
		events:           broadcast.New[Event](),
	}
}

// Get returns the process-wide Manager, constructing it against backend
// on first call. Subsequent calls ignore the backend argument, matching
// state.rs's OnceLock semantics.
func Get(backend capture.Backend) *Manager {
	singletonOnce.Do(func() {
		singleton = New(backend)
	})
	return singleton
}

// Subscribe registers a new listener for state/elapsed/transcoding events.
func (m *Manager) Subscribe() *broadcast.Subscription[Event] {
	return m.events.Subscribe()
}

// GetState returns the current recording state.
func (m *Manager) GetState() State {
	m.cfgMu.RLock()
	defer m.cfgMu.RUnlock()
	return m.state
}

func (m *Manager) setState(s State) {
	m.cfgMu.Lock()
	m.state = s
	m.cfgMu.Unlock()
	m.events.Publish(Event{Kind: EventStateChanged, State: s})
}

// checkIdle returns ErrNotIdle unless the manager is currently Idle.
func (m *Manager) checkIdle() error {
	if m.GetState() != Idle {
		return ErrNotIdle
	}
	return nil
}

// GetElapsedSeconds returns the whole seconds elapsed since the current
// recording started, or 0 if not recording.
func (m *Manager) GetElapsedSeconds() uint64 {
	m.taskMu.Lock()
	start := m.recordingStart
	m.taskMu.Unlock()
	if start == nil {
		return 0
	}
	return uint64(time.Since(*start).Seconds())
}

// GetOutputFormat returns the configured output format.
func (m *Manager) GetOutputFormat() OutputFormat {
	m.cfgMu.RLock()
	defer m.cfgMu.RUnlock()
	return m.outputFormat
}

// SetOutputFormat sets the output format. Fails unless Idle.
func (m *Manager) SetOutputFormat(f OutputFormat) error {
	m.cfgMu.Lock()
	defer m.cfgMu.Unlock()
	if m.state != Idle {
		return ErrNotIdle
	}
	m.outputFormat = f
	return nil
}

// GetAudioConfig returns the configured audio sources.
func (m *Manager) GetAudioConfig() AudioConfig {
	m.cfgMu.RLock()
	defer m.cfgMu.RUnlock()
	return m.audioConfig
}

// SetAudioConfig sets the audio sources. Fails unless Idle.
func (m *Manager) SetAudioConfig(cfg AudioConfig) error {
	m.cfgMu.Lock()
	defer m.cfgMu.Unlock()
	if m.state != Idle {
		return ErrNotIdle
	}
	m.audioConfig = cfg
	return nil
}

// GetTranscriptionConfig returns the configured transcription settings.
func (m *Manager) GetTranscriptionConfig() TranscriptionConfig {
	m.cfgMu.RLock()
	defer m.cfgMu.RUnlock()
	return m.transcriptionConfig
}

// SetTranscriptionConfig sets the transcription settings. Fails unless Idle.
func (m *Manager) SetTranscriptionConfig(cfg TranscriptionConfig) error {
	m.cfgMu.Lock()
	defer m.cfgMu.Unlock()
	if m.state != Idle {
		return ErrNotIdle
	}
	m.transcriptionConfig = cfg
	return nil
}

// GetTranscriptionStatus reports the transcription worker's live progress.
func (m *Manager) GetTranscriptionStatus() TranscriptionStatus {
	m.taskMu.Lock()
	active := m.transcribeActive
	m.taskMu.Unlock()

	q := m.transcribeState.Queue()
	return TranscriptionStatus{
		Active:            active,
		QueuedSegments:    q.QueueDepth(),
		SegmentsProcessed: q.SegmentsProcessed(),
	}
}

// SetMinFreeDiskBytes overrides the free-space floor checked before every
// start_* operation. Intended for startup configuration; not guarded by
// the Idle requirement since it doesn't touch recording state.
func (m *Manager) SetMinFreeDiskBytes(bytes uint64) {
	if bytes == 0 {
		return
	}
	m.minFreeDiskBytes = bytes
}

// checkDiskSpace rejects a start_* call when the output directory's free
// space is below minFreeDiskBytes. Supplements the original semantics;
// it is additive and never blocks a request the
// original would have allowed when space is sufficient.
func (m *Manager) checkDiskSpace(dir string) error {
	usage, err := disk.Usage(dir)
	if err != nil {
		log.Warn("disk usage check failed, proceeding without a preflight guarantee", "dir", dir, "error", err)
		return nil
	}
	if usage.Free < m.minFreeDiskBytes {
		return fmt.Errorf("%w: %d bytes free, need %d", ErrInsufficientDiskSpace, usage.Free, m.minFreeDiskBytes)
	}
	return nil
}
