package capture

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryBackendReplaysScriptedFrames(t *testing.T) {
	b := NewMemoryBackend()
	b.Windows = []WindowInfo{{Handle: 1, Title: "term"}}
	b.Frames = []Frame{
		{Width: 2, Height: 2, BGRA: make([]byte, 16)},
		{Width: 2, Height: 2, BGRA: make([]byte, 16)},
	}

	stream, err := b.StartWindowCapture(1)
	require.NoError(t, err)

	var got []Frame
	for f := range stream.Frames {
		got = append(got, f)
	}
	require.Len(t, got, 2)
}

func TestMemoryBackendUnknownWindowNotFound(t *testing.T) {
	b := NewMemoryBackend()
	_, err := b.StartWindowCapture(99)
	require.ErrorIs(t, err, ErrTargetNotFound)
}

func TestMemoryBackendRecordsHighlights(t *testing.T) {
	b := NewMemoryBackend()
	require.NoError(t, b.ShowHighlight(10, 20, 100, 200))
	require.Len(t, b.Highlights, 1)
	require.Equal(t, HighlightCall{X: 10, Y: 20, Width: 100, Height: 200}, b.Highlights[0])
}

func TestEncodeThumbnailProducesValidJPEGHeader(t *testing.T) {
	f := Frame{Width: 4, Height: 4, BGRA: make([]byte, 4*4*4)}
	out, err := encodeThumbnail(f)
	require.NoError(t, err)
	require.True(t, len(out) > 2)
	require.Equal(t, byte(0xFF), out[0])
	require.Equal(t, byte(0xD8), out[1])
}

func TestMemoryBackendStopStreamClosesChannel(t *testing.T) {
	b := NewMemoryBackend()
	b.Frames = []Frame{{Width: 1, Height: 1, BGRA: make([]byte, 4)}}
	stream, err := b.StartDisplayCapture("0", 1, 1)
	require.NoError(t, err)
	stream.Stop()
	for range stream.Frames {
	}
	_, ok := <-stream.Frames
	require.False(t, ok)
}
