package recording

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestManifestPathForReplacesExtension(t *testing.T) {
	require.Equal(t, "/tmp/rec.manifest.yaml", manifestPathFor("/tmp/rec.mp4"))
	require.Equal(t, "/tmp/rec.manifest.yaml", manifestPathFor("/tmp/rec.webm"))
}

func TestWriteManifestProducesValidYAML(t *testing.T) {
	dir := t.TempDir()
	videoPath := filepath.Join(dir, "session.mp4")

	writeManifest(sessionManifest{
		SourcePath:      videoPath,
		FilePath:        videoPath,
		Format:          "mp4",
		DurationSeconds: 42,
		AudioEnabled:    true,
	})

	data, err := os.ReadFile(manifestPathFor(videoPath))
	require.NoError(t, err)

	var decoded sessionManifest
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	require.Equal(t, uint64(42), decoded.DurationSeconds)
	require.True(t, decoded.AudioEnabled)
}
