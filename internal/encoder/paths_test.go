package encoder

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateOutputPathUsesVideosDirUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := GenerateOutputPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "Videos"), filepath.Dir(path))
	require.Contains(t, filepath.Base(path), "recording_")
	require.Contains(t, filepath.Base(path), ".mp4")
}

func TestParseOutputFormatAcceptsKnownValues(t *testing.T) {
	for _, s := range []string{"mp4", "webm", "mkv", "mov", "gif", "apng", "webp"} {
		f, ok := ParseOutputFormat(s)
		require.True(t, ok, s)
		require.Equal(t, s, f.Extension())
	}
}

func TestParseOutputFormatRejectsUnknown(t *testing.T) {
	_, ok := ParseOutputFormat("xyz")
	require.False(t, ok)
}
