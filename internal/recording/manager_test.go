package recording

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/omnirec/omnirecd/internal/capture"
)

func TestNewManagerStartsIdle(t *testing.T) {
	m := New(capture.NewMemoryBackend())
	require.Equal(t, Idle, m.GetState())
	require.Equal(t, FormatMp4, m.GetOutputFormat())
	require.Equal(t, uint64(0), m.GetElapsedSeconds())
}

func TestSetOutputFormatRejectedWhenNotIdle(t *testing.T) {
	m := New(capture.NewMemoryBackend())
	m.setState(Recording)

	err := m.SetOutputFormat(FormatWebM)
	require.ErrorIs(t, err, ErrNotIdle)
}

func TestSetOutputFormatAppliesWhenIdle(t *testing.T) {
	m := New(capture.NewMemoryBackend())
	require.NoError(t, m.SetOutputFormat(FormatWebM))
	require.Equal(t, FormatWebM, m.GetOutputFormat())
}

func TestSetAudioConfigRejectedWhenNotIdle(t *testing.T) {
	m := New(capture.NewMemoryBackend())
	m.setState(Saving)

	err := m.SetAudioConfig(AudioConfig{Enabled: true})
	require.ErrorIs(t, err, ErrNotIdle)
}

func TestStopRecordingRejectedWhenNotRecording(t *testing.T) {
	m := New(capture.NewMemoryBackend())
	_, err := m.StopRecording(nil)
	require.ErrorIs(t, err, ErrNotRecording)
}

func TestStateStringValues(t *testing.T) {
	require.Equal(t, "idle", Idle.String())
	require.Equal(t, "recording", Recording.String())
	require.Equal(t, "saving", Saving.String())
}

func TestSetStatePublishesEvent(t *testing.T) {
	m := New(capture.NewMemoryBackend())
	sub := m.Subscribe()
	defer sub.Unsubscribe()

	m.setState(Recording)

	select {
	case ev := <-sub.C():
		require.Equal(t, EventStateChanged, ev.Kind)
		require.Equal(t, Recording, ev.State)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for state change event")
	}
}

func TestGetTranscriptionStatusDefaultsToInactive(t *testing.T) {
	m := New(capture.NewMemoryBackend())
	status := m.GetTranscriptionStatus()
	require.False(t, status.Active)
	require.Equal(t, 0, status.QueuedSegments)
	require.Equal(t, 0, status.SegmentsProcessed)
}

func TestCheckDiskSpaceAllowsPlentyOfRoom(t *testing.T) {
	m := New(capture.NewMemoryBackend())
	m.minFreeDiskBytes = 1
	require.NoError(t, m.checkDiskSpace(t.TempDir()))
}

func TestCheckDiskSpaceRejectsWhenFloorUnreasonablyHigh(t *testing.T) {
	m := New(capture.NewMemoryBackend())
	m.minFreeDiskBytes = 1 << 62
	err := m.checkDiskSpace(t.TempDir())
	require.ErrorIs(t, err, ErrInsufficientDiskSpace)
}

func TestAudioConfigHelpers(t *testing.T) {
	sys := "system-default"
	cfg := AudioConfig{Enabled: true, SystemSourceID: &sys}
	require.True(t, cfg.HasSystemAudio())
	require.False(t, cfg.HasMicrophone())
	require.True(t, cfg.AudioEnabled())

	disabled := AudioConfig{Enabled: false, SystemSourceID: &sys}
	require.False(t, disabled.AudioEnabled())

	empty := AudioConfig{}
	require.False(t, empty.HasSystemAudio())
	require.False(t, empty.AudioEnabled())
}
