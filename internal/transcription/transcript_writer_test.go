package transcription

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTranscriptFilenameFromVideo(t *testing.T) {
	require.Equal(t, "/tmp/rec/session.md", TranscriptFilenameFromVideo("/tmp/rec/session.mp4"))
	require.Equal(t, "session.md", TranscriptFilenameFromVideo("session.mkv"))
}

func TestTranscriptWriterWritesTimestampedSegments(t *testing.T) {
	path := t.TempDir() + "/out.md"
	w, err := NewTranscriptWriter(path)
	require.NoError(t, err)

	require.NoError(t, w.WriteSegment(65.2, "first segment"))
	require.NoError(t, w.WriteSegment(0, "second segment"))
	require.NoError(t, w.Finalize())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(contents), "[00:01:05] first segment")
	require.Contains(t, string(contents), "[00:00:00] second segment")
}

func TestTranscriptWriterSkipsEmptyText(t *testing.T) {
	path := t.TempDir() + "/out.md"
	w, err := NewTranscriptWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteSegment(1.0, ""))
	require.NoError(t, w.Finalize())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(contents), "[00:00:01]")
}
