package dispatch

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omnirec/omnirecd/internal/capture"
	"github.com/omnirec/omnirecd/internal/ipcwire"
	"github.com/omnirec/omnirecd/internal/recording"
)

func newTestDeps() *Deps {
	backend := capture.NewMemoryBackend()
	return NewDeps(recording.New(backend), backend)
}

func TestHandlePingRespondsPong(t *testing.T) {
	deps := newTestDeps()
	handle := NewHandler(deps)

	resp := handle(context.Background(), nil, ipcwire.Envelope{Type: ipcwire.TypePing})
	require.Equal(t, ipcwire.TypePong, resp.Type)
}

func TestHandleUnknownTypeReturnsError(t *testing.T) {
	deps := newTestDeps()
	handle := NewHandler(deps)

	resp := handle(context.Background(), nil, ipcwire.Envelope{Type: "not_a_real_type"})
	require.Equal(t, ipcwire.TypeError, resp.Type)
}

func TestHandleListWindowsReturnsBackendWindows(t *testing.T) {
	backend := capture.NewMemoryBackend()
	backend.Windows = []capture.WindowInfo{{Handle: 1, Title: "editor"}}
	deps := NewDeps(recording.New(backend), backend)
	handle := NewHandler(deps)

	resp := handle(context.Background(), nil, ipcwire.Envelope{Type: ipcwire.TypeListWindows})
	require.Equal(t, ipcwire.TypeWindows, resp.Type)

	var windows []capture.WindowInfo
	require.NoError(t, json.Unmarshal(resp.Payload, &windows))
	require.Len(t, windows, 1)
	require.Equal(t, "editor", windows[0].Title)
}

func TestHandleGetRecordingStateReportsIdle(t *testing.T) {
	deps := newTestDeps()
	handle := NewHandler(deps)

	resp := handle(context.Background(), nil, ipcwire.Envelope{Type: ipcwire.TypeGetRecordingState})
	require.Equal(t, ipcwire.TypeRecordingState, resp.Type)

	var body ipcwire.RecordingStateResponse
	require.NoError(t, json.Unmarshal(resp.Payload, &body))
	require.Equal(t, "idle", body.State)
}

func TestHandleSetOutputFormatRejectsUnknownFormat(t *testing.T) {
	deps := newTestDeps()
	handle := NewHandler(deps)

	payload, _ := json.Marshal(ipcwire.OutputFormatPayload{Format: "bogus"})
	resp := handle(context.Background(), nil, ipcwire.Envelope{Type: ipcwire.TypeSetOutputFormat, Payload: payload})
	require.Equal(t, ipcwire.TypeError, resp.Type)
}

func TestHandleSetOutputFormatAcceptsKnownFormat(t *testing.T) {
	deps := newTestDeps()
	handle := NewHandler(deps)

	payload, _ := json.Marshal(ipcwire.OutputFormatPayload{Format: "webm"})
	resp := handle(context.Background(), nil, ipcwire.Envelope{Type: ipcwire.TypeSetOutputFormat, Payload: payload})
	require.Equal(t, ipcwire.TypeOk, resp.Type)
	require.Equal(t, recording.FormatWebM, deps.Manager.GetOutputFormat())
}

func TestHandleStopRecordingWhenNotRecordingReturnsError(t *testing.T) {
	deps := newTestDeps()
	handle := NewHandler(deps)

	resp := handle(context.Background(), nil, ipcwire.Envelope{Type: ipcwire.TypeStopRecording})
	require.Equal(t, ipcwire.TypeError, resp.Type)

	var body ipcwire.ErrorPayload
	require.NoError(t, json.Unmarshal(resp.Payload, &body))
	require.Contains(t, body.Message, "not currently recording")
}
