// Package audiomixer combines microphone and system-audio streams into a
// single interleaved float32 stream at 48 kHz stereo, with optional
// acoustic echo cancellation when both sources are active.
package audiomixer

import (
	"sync/atomic"

	"github.com/omnirec/omnirecd/internal/logging"
)

var log = logging.L("audiomixer")

const (
	SampleRate      = 48000
	Channels        = 2
	FrameSamples    = 480 // 10ms at 48kHz
	frameTotalFloat = FrameSamples * Channels
)

// Format describes the channel layout currently reported by a producer.
// Instances are immutable; the mixer swaps them atomically between frames,
// mirroring the teacher's atomic-snapshot texture for live session state.
type Format struct {
	SampleRate int
	Channels   int
}

// Frame is one 10ms chunk of interleaved float32 PCM at 48kHz stereo.
type Frame struct {
	Interleaved [frameTotalFloat]float32
}

// Mixer buffers mic and system audio separately and emits mixed frames.
// Either input may be absent; when exactly one is configured, its samples
// pass through unchanged (duplicated to stereo if reported mono).
type Mixer struct {
	micFormat atomic.Value // Format
	sysFormat atomic.Value // Format

	micBuf []float32
	sysBuf []float32

	aec           *echoCanceller
	aecEnabled    bool
	aecFailures   int64
	out           chan Frame
}

// New creates a mixer. aecEnabled selects whether the echo canceller runs
// when both mic and system frames are present.
func New(aecEnabled bool) *Mixer {
	m := &Mixer{
		aec:        newEchoCanceller(),
		aecEnabled: aecEnabled,
		out:        make(chan Frame, 64),
	}
	m.micFormat.Store(Format{SampleRate: SampleRate, Channels: 1})
	m.sysFormat.Store(Format{SampleRate: SampleRate, Channels: 1})
	return m
}

// Output returns the channel of mixed frames. It is closed by Close.
func (m *Mixer) Output() <-chan Frame {
	return m.out
}

// AECFailures returns the number of frames where AEC was attempted but
// fell back to the raw mic signal.
func (m *Mixer) AECFailures() int64 {
	return atomic.LoadInt64(&m.aecFailures)
}

// SetMicFormat updates the format the mixer assumes for incoming mic
// samples. Safe to call concurrently with PushMic.
func (m *Mixer) SetMicFormat(f Format) { m.micFormat.Store(f) }

// SetSystemFormat updates the format the mixer assumes for incoming
// system-audio samples. Safe to call concurrently with PushSystem.
func (m *Mixer) SetSystemFormat(f Format) { m.sysFormat.Store(f) }

// PushMic appends interleaved samples from the microphone stream, mixing
// out complete 10ms frames once the system-audio buffer also holds a full
// frame. Mic samples with no system audio to mix against are not emitted
// here; mic-only audio goes through PassthroughMic.
func (m *Mixer) PushMic(samples []float32) {
	format := m.micFormat.Load().(Format)
	m.micBuf = append(m.micBuf, toStereo(samples, format.Channels)...)
	m.drain()
}

// PushSystem appends interleaved samples from the system-audio stream.
func (m *Mixer) PushSystem(samples []float32) {
	format := m.sysFormat.Load().(Format)
	m.sysBuf = append(m.sysBuf, toStereo(samples, format.Channels)...)
	m.drain()
}

// toStereo duplicates mono samples to interleaved stereo; stereo input is
// returned unchanged.
func toStereo(samples []float32, channels int) []float32 {
	if channels >= 2 {
		return samples
	}
	out := make([]float32, len(samples)*2)
	for i, s := range samples {
		out[i*2] = s
		out[i*2+1] = s
	}
	return out
}

func (m *Mixer) drain() {
	for len(m.micBuf) >= frameTotalFloat && len(m.sysBuf) >= frameTotalFloat {
		m.mixFrame(m.micBuf[:frameTotalFloat], m.sysBuf[:frameTotalFloat])
		m.micBuf = m.micBuf[frameTotalFloat:]
		m.sysBuf = m.sysBuf[frameTotalFloat:]
	}

	// Pass-through when only one source has ever produced data and the
	// other buffer is permanently empty is handled by callers invoking
	// PassthroughMic/PassthroughSystem directly; drain() only mixes when
	// both buffers hold a full frame.
}

func (m *Mixer) mixFrame(mic, sys []float32) {
	var frame Frame
	processedMic := mic
	if m.aecEnabled {
		filtered, err := m.aec.Process(mic, sys)
		if err != nil {
			atomic.AddInt64(&m.aecFailures, 1)
			log.Warn("aec frame failed, using raw mic", "error", err)
		} else {
			processedMic = filtered
		}
	}

	for i := 0; i < frameTotalFloat; i++ {
		sum := (processedMic[i] + sys[i]) * 0.5
		frame.Interleaved[i] = clamp(sum, -1, 1)
	}

	select {
	case m.out <- frame:
	default:
		log.Warn("mixer output full, dropping frame")
	}
}

// PassthroughMic emits mic-only frames unchanged (stereo-duplicated if
// mono), used when no system source is configured for the session.
func (m *Mixer) PassthroughMic(samples []float32) {
	format := m.micFormat.Load().(Format)
	stereo := toStereo(samples, format.Channels)
	m.emitPassthrough(stereo)
}

// PassthroughSystem emits system-only frames unchanged.
func (m *Mixer) PassthroughSystem(samples []float32) {
	format := m.sysFormat.Load().(Format)
	stereo := toStereo(samples, format.Channels)
	m.emitPassthrough(stereo)
}

func (m *Mixer) emitPassthrough(stereo []float32) {
	for len(stereo) >= frameTotalFloat {
		var frame Frame
		copy(frame.Interleaved[:], stereo[:frameTotalFloat])
		stereo = stereo[frameTotalFloat:]
		select {
		case m.out <- frame:
		default:
			log.Warn("mixer output full, dropping frame")
		}
	}
}

// Close releases the output channel. Callers must stop pushing before
// calling Close.
func (m *Mixer) Close() {
	close(m.out)
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
