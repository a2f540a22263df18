package encoder

import (
	"encoding/binary"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateWAVHeaderIsIdempotentForSameInputs(t *testing.T) {
	a := createWAVHeader(48000, 2, 1000)
	b := createWAVHeader(48000, 2, 1000)
	require.Equal(t, a, b)
}

func TestAudioEncoderRewritesHeaderWithFinalByteCount(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TMPDIR", dir)

	enc := NewAudioEncoder(48000, 1)
	require.NoError(t, enc.Start())

	samples := make([]float32, 480)
	for i := range samples {
		samples[i] = 0.25
	}
	require.NoError(t, enc.WriteSamples(samples))
	require.NoError(t, enc.WriteSamples(samples))

	path, err := enc.Finish()
	require.NoError(t, err)
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, 44+len(samples)*2*2)

	dataSize := binary.LittleEndian.Uint32(data[40:44])
	require.Equal(t, uint32(len(samples)*2*2), dataSize)

	// A placeholder header (dataSize 0) followed by the real one must
	// differ only in the size fields, not in format fields.
	placeholder := createWAVHeader(48000, 1, 0)
	require.Equal(t, placeholder[12:36], data[12:36])
}
