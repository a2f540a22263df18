package picker

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omnirec/omnirecd/internal/capture"
)

func TestSelectionIsConsumedOnce(t *testing.T) {
	s := New("")

	_, ok := s.Selection()
	require.False(t, ok)

	s.SetSelection(capture.Selection{SourceType: "monitor", SourceID: "DP-1"})

	sel, ok := s.Selection()
	require.True(t, ok)
	require.Equal(t, "DP-1", sel.SourceID)

	_, ok = s.Selection()
	require.False(t, ok)
}

func TestValidateTokenInProcessTakesPrecedenceOverDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "approval_token")

	s := New(path)
	require.NoError(t, s.StoreToken("first-token"))
	require.True(t, s.ValidateToken("first-token"))
	require.False(t, s.ValidateToken("stale-token"))
}

func TestValidateTokenFallsBackToDiskWhenNoInProcessToken(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "approval_token")

	writer := New(path)
	require.NoError(t, writer.StoreToken("shared-token"))

	reader := New(path)
	require.True(t, reader.ValidateToken("shared-token"))
	require.False(t, reader.ValidateToken("wrong-token"))
}

func TestValidateTokenRejectsUnknownTokenWithNoStoreConfigured(t *testing.T) {
	s := New("")
	require.False(t, s.ValidateToken("anything"))
}
