package ipcwire

import (
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func createSocketPair(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	clientCh := make(chan net.Conn, 1)
	go func() {
		conn, err := net.Dial("tcp", listener.Addr().String())
		if err != nil {
			t.Errorf("dial: %v", err)
			return
		}
		clientCh <- conn
	}()

	server, err := listener.Accept()
	require.NoError(t, err)
	client := <-clientCh
	return server, client
}

func TestConnWriteReadFrame(t *testing.T) {
	serverRaw, clientRaw := createSocketPair(t)
	defer serverRaw.Close()
	defer clientRaw.Close()

	server := NewConn(serverRaw)
	client := NewConn(clientRaw)

	req := Envelope{Type: TypePing}

	done := make(chan error, 1)
	go func() { done <- client.WriteFrame(req) }()

	server.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Envelope
	require.NoError(t, server.ReadFrame(&got))
	require.NoError(t, <-done)
	require.Equal(t, TypePing, got.Type)
}

func TestReadFrameConnectionClosed(t *testing.T) {
	serverRaw, clientRaw := createSocketPair(t)
	defer serverRaw.Close()

	clientRaw.Close()

	server := NewConn(serverRaw)
	var got Envelope
	err := server.ReadFrame(&got)
	require.ErrorIs(t, err, ErrConnectionClosed)
}

func TestReadFrameMessageTooLarge(t *testing.T) {
	serverRaw, clientRaw := createSocketPair(t)
	defer serverRaw.Close()
	defer clientRaw.Close()

	header := make([]byte, 4)
	binary.LittleEndian.PutUint32(header, MaxFrameSize+1)

	done := make(chan error, 1)
	go func() {
		_, err := clientRaw.Write(header)
		done <- err
	}()

	server := NewConn(serverRaw)
	var got Envelope
	err := server.ReadFrame(&got)
	require.ErrorIs(t, err, ErrMessageTooLarge)
	require.NoError(t, <-done)
}

func TestReadFrameDecodeError(t *testing.T) {
	serverRaw, clientRaw := createSocketPair(t)
	defer serverRaw.Close()
	defer clientRaw.Close()

	body := []byte("{not json")
	header := make([]byte, 4)
	binary.LittleEndian.PutUint32(header, uint32(len(body)))

	done := make(chan error, 1)
	go func() {
		if _, err := clientRaw.Write(header); err != nil {
			done <- err
			return
		}
		_, err := clientRaw.Write(body)
		done <- err
	}()

	server := NewConn(serverRaw)
	var got Envelope
	err := server.ReadFrame(&got)
	require.ErrorIs(t, err, ErrDecode)
	require.NoError(t, <-done)
}

func TestWriteFrameRejectsOversizedPayload(t *testing.T) {
	serverRaw, clientRaw := createSocketPair(t)
	defer serverRaw.Close()
	defer clientRaw.Close()

	client := NewConn(clientRaw)
	oversized := make([]byte, MaxFrameSize+10)
	err := client.WriteFrame(ThumbnailResponse{Data: string(oversized)})
	require.ErrorIs(t, err, ErrMessageTooLarge)
}

func TestRequestResponseRoundTrip(t *testing.T) {
	serverRaw, clientRaw := createSocketPair(t)
	defer serverRaw.Close()
	defer clientRaw.Close()

	server := NewConn(serverRaw)
	client := NewConn(clientRaw)

	req := StartDisplayCaptureRequest{MonitorID: "0", Width: 1920, Height: 1080}
	done := make(chan error, 1)
	go func() { done <- client.WriteFrame(req) }()

	var got StartDisplayCaptureRequest
	require.NoError(t, server.ReadFrame(&got))
	require.NoError(t, <-done)
	require.Equal(t, req, got)
}
