package transcription

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeS16LEClampsOutOfRangeSamples(t *testing.T) {
	out := encodeS16LE([]float32{2.0, -2.0, 0.0})
	require.Len(t, out, 6)
	// First sample clamped to +1.0 -> 32767 little-endian.
	require.Equal(t, byte(0xff), out[0])
	require.Equal(t, byte(0x7f), out[1])
}

func TestNewWhisperTranscriberRejectsMissingModel(t *testing.T) {
	_, err := NewWhisperTranscriber("/nonexistent/model.bin", WhisperOptions{})
	require.Error(t, err)
}
