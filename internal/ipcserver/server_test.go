//go:build linux || darwin

package ipcserver

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/omnirec/omnirecd/internal/ipcauth"
	"github.com/omnirec/omnirecd/internal/ipcwire"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T, handler Handler) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	endpoint := filepath.Join(dir, "test.sock")

	srv := New(endpoint, handler)
	ctx, cancel := context.WithCancel(context.Background())

	ready := make(chan struct{})
	go func() {
		close(ready)
		_ = srv.Serve(ctx)
	}()
	<-ready
	// Serve binds the listener synchronously before accepting; give it a
	// moment to create the socket file.
	waitForFile(t, endpoint)

	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return srv, endpoint
}

func waitForFile(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := net.Dial("unix", path); err == nil {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("server never bound %s", path)
}

func TestServeRoundTrip(t *testing.T) {
	_, endpoint := startTestServer(t, func(ctx context.Context, peer *ipcauth.Identity, req ipcwire.Envelope) ipcwire.Envelope {
		require.Equal(t, ipcwire.TypePing, req.Type)
		return ipcwire.Envelope{Type: ipcwire.TypePong}
	})

	raw, err := net.Dial("unix", endpoint)
	require.NoError(t, err)
	defer raw.Close()

	conn := ipcwire.NewConn(raw)
	require.NoError(t, conn.WriteFrame(ipcwire.Envelope{Type: ipcwire.TypePing}))

	var resp ipcwire.Envelope
	require.NoError(t, conn.ReadFrame(&resp))
	require.Equal(t, ipcwire.TypePong, resp.Type)
}

func TestServeHandlesShutdownAndClosesConn(t *testing.T) {
	_, endpoint := startTestServer(t, func(ctx context.Context, peer *ipcauth.Identity, req ipcwire.Envelope) ipcwire.Envelope {
		return ipcwire.Envelope{Type: ipcwire.TypePong}
	})

	raw, err := net.Dial("unix", endpoint)
	require.NoError(t, err)
	defer raw.Close()

	conn := ipcwire.NewConn(raw)
	require.NoError(t, conn.WriteFrame(ipcwire.Envelope{Type: ipcwire.TypeShutdown}))

	var resp ipcwire.Envelope
	require.NoError(t, conn.ReadFrame(&resp))

	var again ipcwire.Envelope
	err = conn.ReadFrame(&again)
	require.Error(t, err)
}

func TestCloseStopsAcceptingConnections(t *testing.T) {
	srv, endpoint := startTestServer(t, func(ctx context.Context, peer *ipcauth.Identity, req ipcwire.Envelope) ipcwire.Envelope {
		return ipcwire.Envelope{Type: ipcwire.TypePong}
	})

	require.NoError(t, srv.Close())

	_, err := net.Dial("unix", endpoint)
	require.Error(t, err)
}
