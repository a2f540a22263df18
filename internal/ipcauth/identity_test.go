//go:build linux || darwin

package ipcauth

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuthenticateOverUnixSocketReturnsSelf(t *testing.T) {
	dir := t.TempDir()
	sockPath := filepath.Join(dir, "test.sock")

	ln, err := net.Listen("unix", sockPath)
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	client, err := net.Dial("unix", sockPath)
	require.NoError(t, err)
	defer client.Close()

	serverConn := <-accepted
	defer serverConn.Close()

	id, err := Authenticate(serverConn)
	require.NoError(t, err)

	self, err := os.Executable()
	require.NoError(t, err)
	selfResolved, err := filepath.EvalSymlinks(self)
	require.NoError(t, err)

	idResolved, err := filepath.EvalSymlinks(id.ExecutablePath)
	require.NoError(t, err)
	require.Equal(t, selfResolved, idResolved)
	require.Equal(t, int32(os.Getpid()), id.PID)
}

func TestAuthenticateRejectsNonUnixConn(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	client, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	serverConn := <-accepted
	defer serverConn.Close()

	_, err = Authenticate(serverConn)
	require.Error(t, err)
}

func TestSameBinaryMatchesCurrentExecutable(t *testing.T) {
	self, err := os.Executable()
	require.NoError(t, err)
	require.True(t, SameBinary(self))
	require.False(t, SameBinary("/nonexistent/other-binary"))
}

func TestDefaultEndpointIsNonEmpty(t *testing.T) {
	require.NotEmpty(t, DefaultEndpoint())
}
