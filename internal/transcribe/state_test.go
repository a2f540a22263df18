package transcribe

import (
	"math"
	"testing"
	"time"

	"github.com/omnirec/omnirecd/internal/transcription"
	"github.com/stretchr/testify/require"
)

func TestNewStateStartsInactive(t *testing.T) {
	s := New()
	require.False(t, s.IsActive())
}

func TestResampleStereoToMonoBuffersPartialWindows(t *testing.T) {
	s := New()
	s.inputSampleRate = 48000
	s.inputChannels = 2

	// L=1.0, R=0.0, L=0.0, R=1.0 -> mono [0.5, 0.5], only 2 samples;
	// a 3:1 decimation needs 3 to emit anything.
	stereo := []float32{1.0, 0.0, 0.0, 1.0}
	resampled := s.resampleToWhisperFormat(stereo)
	require.LessOrEqual(t, len(resampled), 1)
}

func TestResampleCarriesRemainderAcrossCalls(t *testing.T) {
	s := New()
	s.inputSampleRate = 48000
	s.inputChannels = 1

	first := s.resampleToWhisperFormat([]float32{1, 1})
	require.Empty(t, first)

	second := s.resampleToWhisperFormat([]float32{1})
	require.Len(t, second, 1)
	require.InDelta(t, 1.0, second[0], 0.001)
}

func TestStartTwiceReturnsError(t *testing.T) {
	s := New()
	mock := &transcription.MockTranscriber{Text: "hi"}
	require.NoError(t, s.Start(t.TempDir()+"/out.mp4", 48000, 2, mock, nil))
	require.Error(t, s.Start(t.TempDir()+"/out.mp4", 48000, 2, mock, nil))
	s.Stop()
	s.Queue().Wait()
}

func TestProcessSamplesQueuesSegmentOnSpeechEnd(t *testing.T) {
	s := New()
	mock := &transcription.MockTranscriber{Text: "spoken words"}

	var receivedText string
	received := make(chan struct{}, 1)
	require.NoError(t, s.Start(t.TempDir()+"/out.mp4", 16000, 1, mock, func(ts float64, text string) {
		receivedText = text
		received <- struct{}{}
	}))

	loud := make([]float32, 160)
	for i := range loud {
		// 300Hz-ish tone at 16kHz, loud enough and within voiced-mode bands.
		loud[i] = float32(0.3 * math.Sin(2*math.Pi*300*float64(i)/16000.0))
	}
	silence := make([]float32, 160)

	for i := 0; i < 12; i++ {
		s.ProcessSamples(loud)
	}
	for i := 0; i < 60; i++ {
		s.ProcessSamples(silence)
	}

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for transcribed segment")
	}
	require.Equal(t, "spoken words", receivedText)

	s.Stop()
	s.Queue().Wait()
}

func TestValidateAndQueueSegmentRejectsQuietAudio(t *testing.T) {
	s := New()
	mock := &transcription.MockTranscriber{}
	require.NoError(t, s.Start(t.TempDir()+"/out.mp4", 16000, 1, mock, nil))

	quiet := make([]float32, 16000) // 1s of silence, well above min duration
	require.False(t, s.validateAndQueueSegment(quiet))

	s.Stop()
	s.Queue().Wait()
}

func TestValidateAndQueueSegmentRejectsShortAudio(t *testing.T) {
	s := New()
	mock := &transcription.MockTranscriber{}
	require.NoError(t, s.Start(t.TempDir()+"/out.mp4", 16000, 1, mock, nil))

	short := make([]float32, 100) // far under 500ms
	for i := range short {
		short[i] = 0.5
	}
	require.False(t, s.validateAndQueueSegment(short))

	s.Stop()
	s.Queue().Wait()
}
